package main

import (
	"context"

	"github.com/ignitero/ignitero/internal/cachestore"
	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/refresher"
	"github.com/ignitero/ignitero/internal/search"
)

// catalogService binds the search engine to the published snapshot and the
// cache store. It is what the socket router and HTTP API serve.
type catalogService struct {
	engine  *search.Engine
	library *catalog.Library
	store   *cachestore.Store
	ref     *refresher.Refresher
}

func newCatalogService(library *catalog.Library, store *cachestore.Store, ref *refresher.Refresher) *catalogService {
	return &catalogService{
		engine:  search.NewEngine(),
		library: library,
		store:   store,
		ref:     ref,
	}
}

func (s *catalogService) SearchApps(query string) []catalog.AppItem {
	return s.engine.SearchApps(s.library.Snapshot().Apps, query)
}

func (s *catalogService) SearchDirectories(query string) []catalog.DirectoryItem {
	return s.engine.SearchDirectories(s.library.Snapshot().Directories, query)
}

func (s *catalogService) SearchCommands(query string) []catalog.CommandItem {
	return s.engine.SearchCommands(s.library.Snapshot().Commands, query)
}

func (s *catalogService) Refresh(ctx context.Context) error {
	return s.ref.Refresh(ctx)
}

func (s *catalogService) CacheStats(ctx context.Context) (*cachestore.Stats, error) {
	return s.store.GetStats(ctx)
}

func (s *catalogService) ClearCache(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.library.Publish(&catalog.Snapshot{})
	return nil
}
