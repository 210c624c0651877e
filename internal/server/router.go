package server

import (
	"context"
	"fmt"
	"net"

	"github.com/ignitero/ignitero/internal/cachestore"
	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/log"
	"github.com/ignitero/ignitero/internal/server/models"
)

type CatalogInterface interface {
	SearchApps(query string) []catalog.AppItem
	SearchDirectories(query string) []catalog.DirectoryItem
	SearchCommands(query string) []catalog.CommandItem
	Refresh(ctx context.Context) error
	CacheStats(ctx context.Context) (*cachestore.Stats, error)
	ClearCache(ctx context.Context) error
}

type WatcherInterface interface {
	Start() error
	Stop() error
	IsRunning() bool
}

type Router struct {
	catalog CatalogInterface
	watcher WatcherInterface
}

func NewRouter(catalog CatalogInterface, watcher WatcherInterface) *Router {
	return &Router{
		catalog: catalog,
		watcher: watcher,
	}
}

func (r *Router) RouteRequest(conn net.Conn, req models.Request) {
	log.Debugf("API request: method=%s id=%d", req.Method, req.ID)

	switch req.Method {
	case "ping":
		models.Respond(conn, req.ID, "pong")
	case "search.apps":
		r.handleSearch(conn, req, func(q string) interface{} { return r.catalog.SearchApps(q) })
	case "search.directories":
		r.handleSearch(conn, req, func(q string) interface{} { return r.catalog.SearchDirectories(q) })
	case "search.commands":
		r.handleSearch(conn, req, func(q string) interface{} { return r.catalog.SearchCommands(q) })
	case "refresh":
		r.handleRefresh(conn, req)
	case "cache.status":
		r.handleCacheStatus(conn, req)
	case "cache.clear":
		r.handleCacheClear(conn, req)
	case "watch.start":
		r.handleWatchStart(conn, req)
	case "watch.stop":
		r.handleWatchStop(conn, req)
	case "watch.status":
		r.handleWatchStatus(conn, req)
	default:
		models.RespondError(conn, req.ID, fmt.Sprintf("unknown method: %s", req.Method))
	}
}

func (r *Router) handleSearch(conn net.Conn, req models.Request, search func(string) interface{}) {
	query, ok := req.Params["query"].(string)
	if !ok {
		models.RespondError(conn, req.ID, "query parameter required")
		return
	}

	models.Respond(conn, req.ID, map[string]interface{}{
		"items": search(query),
	})
}

func (r *Router) handleRefresh(conn net.Conn, req models.Request) {
	go func() {
		if err := r.catalog.Refresh(context.Background()); err != nil {
			log.Errorf("refresh failed: %v", err)
		}
	}()

	models.Respond(conn, req.ID, map[string]string{"status": "refresh started"})
}

func (r *Router) handleCacheStatus(conn net.Conn, req models.Request) {
	stats, err := r.catalog.CacheStats(context.Background())
	if err != nil {
		models.RespondError(conn, req.ID, fmt.Sprintf("cache status failed: %v", err))
		return
	}
	models.Respond(conn, req.ID, stats)
}

func (r *Router) handleCacheClear(conn net.Conn, req models.Request) {
	if err := r.catalog.ClearCache(context.Background()); err != nil {
		models.RespondError(conn, req.ID, fmt.Sprintf("cache clear failed: %v", err))
		return
	}
	models.Respond(conn, req.ID, map[string]string{"status": "cache cleared"})
}

func (r *Router) handleWatchStart(conn net.Conn, req models.Request) {
	if r.watcher.IsRunning() {
		models.RespondError(conn, req.ID, "watcher already running")
		return
	}

	if err := r.watcher.Start(); err != nil {
		models.RespondError(conn, req.ID, fmt.Sprintf("failed to start watcher: %v", err))
		return
	}

	models.Respond(conn, req.ID, map[string]string{"status": "watcher started"})
}

func (r *Router) handleWatchStop(conn net.Conn, req models.Request) {
	if !r.watcher.IsRunning() {
		models.RespondError(conn, req.ID, "watcher not running")
		return
	}

	if err := r.watcher.Stop(); err != nil {
		models.RespondError(conn, req.ID, fmt.Sprintf("failed to stop watcher: %v", err))
		return
	}

	models.Respond(conn, req.ID, map[string]string{"status": "watcher stopped"})
}

func (r *Router) handleWatchStatus(conn net.Conn, req models.Request) {
	status := "stopped"
	if r.watcher.IsRunning() {
		status = "running"
	}

	models.Respond(conn, req.ID, map[string]string{"status": status})
}
