package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ignitero/ignitero/internal/cachestore"
	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/log"
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

type Server struct {
	Catalog CatalogInterface
	Watcher WatcherInterface
}

type SearchInput struct {
	Query string `query:"q" doc:"Search query" example:"safari"`
}

type AppSearchOutput struct {
	Body struct {
		Items []catalog.AppItem `json:"items"`
	}
}

type DirectorySearchOutput struct {
	Body struct {
		Items []catalog.DirectoryItem `json:"items"`
	}
}

type CommandSearchOutput struct {
	Body struct {
		Items []catalog.CommandItem `json:"items"`
	}
}

type RefreshOutput struct {
	Body struct {
		Status string `json:"status" example:"refresh started"`
	}
}

type StatusOutput struct {
	Body *cachestore.Stats
}

type CacheClearOutput struct {
	Body struct {
		Status string `json:"status" example:"cache cleared"`
	}
}

type WatchStatusOutput struct {
	Body struct {
		Status string `json:"status" enum:"running,stopped" example:"running"`
	}
}

type WatchActionOutput struct {
	Body struct {
		Status string `json:"status" example:"watcher started"`
	}
}

func RegisterHandlers(srv *Server, api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "searchApps",
		Summary:     "Search applications",
		Description: "Fuzzy search over cached applications, best matches first",
		Method:      "GET",
		Path:        "/search/apps",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *SearchInput) (*AppSearchOutput, error) {
		out := &AppSearchOutput{}
		out.Body.Items = srv.Catalog.SearchApps(input.Query)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "searchDirectories",
		Summary:     "Search registered directories",
		Method:      "GET",
		Path:        "/search/directories",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *SearchInput) (*DirectorySearchOutput, error) {
		out := &DirectorySearchOutput{}
		out.Body.Items = srv.Catalog.SearchDirectories(input.Query)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "searchCommands",
		Summary:     "Search command aliases",
		Method:      "GET",
		Path:        "/search/commands",
		Tags:        []string{"Search"},
	}, func(ctx context.Context, input *SearchInput) (*CommandSearchOutput, error) {
		out := &CommandSearchOutput{}
		out.Body.Items = srv.Catalog.SearchCommands(input.Query)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh",
		Summary:     "Trigger cache refresh",
		Description: "Rescan applications and directories (async operation)",
		Method:      "POST",
		Path:        "/refresh",
		Tags:        []string{"Cache"},
	}, func(ctx context.Context, input *struct{}) (*RefreshOutput, error) {
		go func() {
			if err := srv.Catalog.Refresh(context.Background()); err != nil {
				log.Errorf("refresh failed: %v", err)
			}
		}()

		out := &RefreshOutput{}
		out.Body.Status = "refresh started"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "status",
		Summary:     "Get cache status",
		Description: "Returns item counts and the last refresh time",
		Method:      "GET",
		Path:        "/status",
		Tags:        []string{"Cache"},
	}, func(ctx context.Context, input *struct{}) (*StatusOutput, error) {
		stats, err := srv.Catalog.CacheStats(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read cache status", err)
		}
		return &StatusOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cacheClear",
		Summary:     "Clear the cache",
		Method:      "POST",
		Path:        "/cache/clear",
		Tags:        []string{"Cache"},
	}, func(ctx context.Context, input *struct{}) (*CacheClearOutput, error) {
		if err := srv.Catalog.ClearCache(ctx); err != nil {
			return nil, huma.Error500InternalServerError("failed to clear cache", err)
		}

		out := &CacheClearOutput{}
		out.Body.Status = "cache cleared"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "watchStart",
		Summary:     "Start filesystem watcher",
		Description: "Enable automatic refresh on filesystem changes",
		Method:      "POST",
		Path:        "/watch/start",
		Tags:        []string{"Watch"},
	}, func(ctx context.Context, input *struct{}) (*WatchActionOutput, error) {
		if srv.Watcher.IsRunning() {
			return nil, huma.Error409Conflict("watcher already running")
		}

		if err := srv.Watcher.Start(); err != nil {
			return nil, huma.Error500InternalServerError("failed to start watcher", err)
		}

		out := &WatchActionOutput{}
		out.Body.Status = "watcher started"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "watchStop",
		Summary:     "Stop filesystem watcher",
		Method:      "POST",
		Path:        "/watch/stop",
		Tags:        []string{"Watch"},
	}, func(ctx context.Context, input *struct{}) (*WatchActionOutput, error) {
		if !srv.Watcher.IsRunning() {
			return nil, huma.Error409Conflict("watcher not running")
		}

		if err := srv.Watcher.Stop(); err != nil {
			return nil, huma.Error500InternalServerError("failed to stop watcher", err)
		}

		out := &WatchActionOutput{}
		out.Body.Status = "watcher stopped"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "watchStatus",
		Summary:     "Get watcher status",
		Method:      "GET",
		Path:        "/watch/status",
		Tags:        []string{"Watch"},
	}, func(ctx context.Context, input *struct{}) (*WatchStatusOutput, error) {
		status := "stopped"
		if srv.Watcher.IsRunning() {
			status = "running"
		}

		out := &WatchStatusOutput{}
		out.Body.Status = status
		return out, nil
	})
}
