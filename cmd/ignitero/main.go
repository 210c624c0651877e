package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignitero/ignitero/internal/cachestore"
	"github.com/ignitero/ignitero/internal/catalog"
	"github.com/ignitero/ignitero/internal/client"
	"github.com/ignitero/ignitero/internal/config"
	"github.com/ignitero/ignitero/internal/log"
	"github.com/ignitero/ignitero/internal/metastore"
	"github.com/ignitero/ignitero/internal/refresher"
	"github.com/ignitero/ignitero/internal/scanner"
	"github.com/ignitero/ignitero/internal/search"
	"github.com/ignitero/ignitero/internal/server"
)

var (
	Version   string = "dev"
	buildTime string = "unknown"
	commit    string = "unknown"

	configFile string
	cachePath  string
	listenAddr string
	noWatch    bool
	httpOnly   bool
	socketOnly bool
	debug      bool

	searchType string
	searchJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "ignitero",
	Short: "App launcher search service",
	Long:  "Scans applications, registered directories, and command aliases into a local cache and serves fuzzy search over them",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetDebug(debug)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the launcher service",
	RunE:  runServe,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search apps, directories, or commands",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the item cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache statistics",
	RunE:  runCacheStatus,
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rescan applications and directories",
	RunE:  runCacheRefresh,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached items",
	RunE:  runCacheClear,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage the filesystem watcher",
}

var watchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check watcher status",
	RunE:  runWatchStatus,
}

var watchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the filesystem watcher",
	RunE:  runWatchStart,
}

var watchStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the filesystem watcher",
	RunE:  runWatchStop,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		log.Infof("ignitero version %s", Version)
		log.Infof("  Build time: %s", buildTime)
		log.Infof("  Commit: %s", commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: ~/.config/ignitero/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	serveCmd.Flags().StringVar(&cachePath, "cache", "", "cache database path")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address")
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "disable automatic filesystem watching")
	serveCmd.Flags().BoolVar(&httpOnly, "http", false, "run HTTP server only (no unix socket)")
	serveCmd.Flags().BoolVar(&socketOnly, "socket", false, "run unix socket server only (no HTTP)")

	searchCmd.Flags().StringVarP(&searchType, "type", "t", "apps", "what to search: apps, dirs, commands")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results in JSON format")

	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheRefreshCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	watchCmd.AddCommand(watchStatusCmd)
	watchCmd.AddCommand(watchStartCmd)
	watchCmd.AddCommand(watchStopCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func buildConfig() *config.Config {
	cfgPath := configFile
	if cfgPath == "" {
		cfgPath = config.GetDefaultConfigPath()
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cachePath != "" {
		cfg.CachePath = cachePath
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	ctx := context.Background()

	store, err := cachestore.Open(ctx, cfg.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := metastore.New(cfg.CachePath)
	if err != nil {
		log.Warnf("bundle metadata unavailable: %v", err)
		meta = nil
	}
	if meta != nil {
		defer meta.Close()
	}

	library := catalog.NewLibrary()
	ref := refresher.New(cfg, store, meta, library)

	if err := ref.Prime(ctx); err != nil {
		log.Errorf("startup refresh failed: %v", err)
		// Serve whatever the cache holds rather than exiting.
		if loadErr := ref.LoadFromCache(ctx); loadErr != nil {
			return loadErr
		}
	}

	w := refresher.NewWatcher(cfg, ref)
	if !noWatch {
		if err := w.Start(); err != nil {
			log.Errorf("failed to start watcher: %v", err)
			log.Infof("continuing without filesystem watching")
		}
	}

	autoCtx, cancelAuto := context.WithCancel(ctx)
	defer cancelAuto()
	go ref.RunAutoUpdate(autoCtx)

	if httpOnly && socketOnly {
		return fmt.Errorf("cannot specify both --http and --socket flags")
	}

	runHTTP := !socketOnly
	runSocket := !httpOnly

	svc := newCatalogService(library, store, ref)

	var httpServer *server.HTTPServer
	var unixServer *server.UnixServer

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 2)

	if runHTTP {
		httpServer = server.NewHTTP(cfg.ListenAddr, svc, w)
		go func() {
			errChan <- httpServer.Start()
		}()
	}

	if runSocket {
		router := server.NewRouter(svc, w)
		unixServer = server.NewUnix(router)
		go func() {
			errChan <- unixServer.Start()
		}()
	}

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Infof("received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if w.IsRunning() {
			w.Stop()
		}

		if unixServer != nil {
			unixServer.Close()
		}
		if httpServer != nil {
			return httpServer.Shutdown(shutdownCtx)
		}
		return nil
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	switch searchType {
	case "apps", "dirs", "commands":
	default:
		return fmt.Errorf("unknown search type %q (want apps, dirs, or commands)", searchType)
	}

	// Daemon first. When no daemon answers, search the cache in-process.
	if err := searchViaDaemon(query); err == nil {
		return nil
	}

	return searchLocally(query)
}

func searchViaDaemon(query string) error {
	switch searchType {
	case "dirs":
		dirs, err := client.SearchDirectories(query)
		if err != nil {
			return err
		}
		printDirectories(dirs, searchJSON)
	case "commands":
		commands, err := client.SearchCommands(query)
		if err != nil {
			return err
		}
		printCommands(commands, searchJSON)
	default:
		apps, err := client.SearchApps(query)
		if err != nil {
			return err
		}
		printApps(apps, searchJSON)
	}
	return nil
}

func searchLocally(query string) error {
	cfg := buildConfig()
	engine := search.NewEngine()

	// Commands come from the config, never from the cache, so they stay
	// searchable even before the first refresh.
	if searchType == "commands" {
		commands := scanner.New(cfg).CommandItems()
		printCommands(engine.SearchCommands(commands, query), searchJSON)
		return nil
	}

	ctx := context.Background()
	store, err := cachestore.Open(ctx, cfg.CachePath)
	if err != nil {
		return fmt.Errorf("service not running and cannot open cache: %v", err)
	}
	defer store.Close()

	empty, err := store.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if empty {
		return fmt.Errorf("cache is empty - run 'ignitero cache refresh' or 'ignitero serve' first")
	}

	switch searchType {
	case "dirs":
		dirs, err := store.LoadDirectories(ctx)
		if err != nil {
			return err
		}
		printDirectories(engine.SearchDirectories(dirs, query), searchJSON)
	default:
		apps, err := store.LoadApps(ctx)
		if err != nil {
			return err
		}
		printApps(engine.SearchApps(apps, query), searchJSON)
	}
	return nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	stats, err := client.CacheStatus()
	if err == nil {
		log.Infof("Cache Statistics:")
		log.Infof("  Apps: %v", stats["app_count"])
		log.Infof("  Directories: %v", stats["directory_count"])
		log.Infof("  Last update: %s", formatEpoch(stats["last_update_time"]))
		return nil
	}

	cfg := buildConfig()
	ctx := context.Background()

	store, err := cachestore.Open(ctx, cfg.CachePath)
	if err != nil {
		return fmt.Errorf("service not running and cannot open cache: %v", err)
	}
	defer store.Close()

	localStats, err := store.GetStats(ctx)
	if err != nil {
		return err
	}

	log.Infof("Cache Statistics:")
	log.Infof("  Apps: %d", localStats.AppCount)
	log.Infof("  Directories: %d", localStats.DirectoryCount)
	log.Infof("  Last update: %s", formatEpoch(localStats.LastUpdateTime))
	return nil
}

func runCacheRefresh(cmd *cobra.Command, args []string) error {
	status, err := client.Refresh()
	if err == nil {
		log.Infof("%s", status)
		return nil
	}

	cfg := buildConfig()
	ctx := context.Background()

	store, err := cachestore.Open(ctx, cfg.CachePath)
	if err != nil {
		return fmt.Errorf("service not running and cannot open cache: %v", err)
	}
	defer store.Close()

	meta, err := metastore.New(cfg.CachePath)
	if err != nil {
		meta = nil
	}
	if meta != nil {
		defer meta.Close()
	}

	log.Infof("refreshing cache...")
	return refresher.New(cfg, store, meta, catalog.NewLibrary()).Refresh(ctx)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	status, err := client.CacheClear()
	if err == nil {
		log.Infof("%s", status)
		return nil
	}

	cfg := buildConfig()
	ctx := context.Background()

	store, err := cachestore.Open(ctx, cfg.CachePath)
	if err != nil {
		return fmt.Errorf("service not running and cannot open cache: %v", err)
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		return err
	}
	log.Infof("cache cleared")
	return nil
}

func runWatchStatus(cmd *cobra.Command, args []string) error {
	status, err := client.WatchStatus()
	if err != nil {
		return err
	}

	log.Infof("Watcher status: %s", status)
	return nil
}

func runWatchStart(cmd *cobra.Command, args []string) error {
	status, err := client.WatchStart()
	if err != nil {
		return err
	}

	log.Infof("%s", status)
	return nil
}

func runWatchStop(cmd *cobra.Command, args []string) error {
	status, err := client.WatchStop()
	if err != nil {
		return err
	}

	log.Infof("%s", status)
	return nil
}

func formatEpoch(value interface{}) string {
	switch ts := value.(type) {
	case float64:
		if ts > 0 {
			return time.Unix(int64(ts), 0).Format("2006-01-02 15:04:05")
		}
	case int64:
		if ts > 0 {
			return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
		}
	}
	return "never"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}
