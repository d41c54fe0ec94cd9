package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/apimgr/prospects/src/cache"
	"github.com/apimgr/prospects/src/common/version"
	"github.com/apimgr/prospects/src/config"
	"github.com/apimgr/prospects/src/database"
	"github.com/apimgr/prospects/src/logging"
	"github.com/apimgr/prospects/src/resolve"
	"github.com/apimgr/prospects/src/schedule"
	"github.com/apimgr/prospects/src/schedule/providers"
	"github.com/apimgr/prospects/src/scheduler"
	"github.com/apimgr/prospects/src/server"
)

// CLI flags
var (
	flagVersion bool
	flagHelp    bool
	flagDebug   bool
	flagTest    string

	// Configuration overrides
	flagConfig  string
	flagMode    string
	flagData    string
	flagLog     string
	flagAddress string
	flagPort    int
	flagRefresh string
)

func init() {
	flag.BoolVar(&flagVersion, "version", false, "Show version information")
	flag.BoolVar(&flagVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&flagHelp, "help", false, "Show help message")
	flag.BoolVar(&flagHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(&flagDebug, "debug", false, "Enable development mode (verbose request logging)")
	flag.StringVar(&flagTest, "test", "", "Resolve a query against sample data and exit")

	flag.StringVar(&flagConfig, "config", "", "Path to config file")
	flag.StringVar(&flagMode, "mode", "", "Set application mode (production|development)")
	flag.StringVar(&flagData, "data", "", "Set data directory")
	flag.StringVar(&flagLog, "log", "", "Set log directory")
	flag.StringVar(&flagAddress, "address", "", "Set listen address")
	flag.IntVar(&flagPort, "port", 0, "Set listen port")
	flag.StringVar(&flagRefresh, "refresh", "", "Set schedule refresh interval (e.g. 15m)")
}

func main() {
	flag.Usage = printHelp
	flag.Parse()

	switch {
	case flagVersion:
		printVersion()
		return
	case flagHelp:
		printHelp()
		return
	case flagTest != "":
		runTest(flagTest)
		return
	}

	runServer()
}

func loadConfig() *config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if flagMode != "" {
		cfg.Server.Mode = flagMode
	}
	if flagDebug {
		cfg.Server.Mode = "development"
	}
	if flagData != "" {
		cfg.Database.DataDir = flagData
	}
	if flagLog != "" {
		cfg.Server.LogDir = flagLog
	}
	if flagAddress != "" {
		cfg.Server.Address = flagAddress
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagRefresh != "" {
		cfg.Schedule.RefreshInterval = flagRefresh
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func runServer() {
	cfg := loadConfig()
	ctx := context.Background()

	logMgr := logging.NewManager(cfg.Server.LogDir)

	db, err := database.New(&database.Config{
		Driver:  cfg.Database.Driver,
		DSN:     cfg.Database.DSN,
		DataDir: cfg.Database.DataDir,
		MaxOpen: cfg.Database.MaxOpen,
		MaxIdle: cfg.Database.MaxIdle,
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := database.NewMigrator(db).Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	repo := database.NewRepository(db)

	c, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to set up cache: %v", err)
	}

	resolver := resolve.New(cfg.Resolver.Options())

	registry := schedule.NewRegistry()
	for _, pc := range cfg.Schedule.Providers {
		if !pc.IsEnabled() {
			continue
		}
		p, err := providers.New(pc)
		if err != nil {
			log.Printf("[Startup] Skipping provider %s: %v", pc.Name, err)
			continue
		}
		registry.Register(p)
		log.Printf("[Startup] Registered provider: %s (%s)", pc.Name, pc.League)
	}
	if len(registry.All()) == 0 {
		// No providers configured; serve the bundled sample season so the
		// server is usable out of the box.
		registry.Register(providers.NewFixture(config.ProviderConfig{Name: "sample"}))
		log.Printf("[Startup] No providers configured, using sample schedule")
	}

	svc := schedule.NewService(schedule.ServiceConfig{
		FetchTimeout: cfg.Schedule.Timeout(),
	}, registry, resolver, repo, c, logMgr.Server())

	if err := svc.LoadFromStore(ctx); err != nil {
		log.Printf("[Startup] Could not load stored schedule: %v", err)
	}

	tasks := scheduler.New(repo)
	srv := server.New(cfg, resolver, svc, repo, db, c, logMgr, tasks)
	registerTasks(tasks, srv, svc, db, c, cfg)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdownCh
		log.Printf("[Server] Received %s, shutting down", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Server] Shutdown error: %v", err)
		}
		db.Close()
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// registerTasks wires the background tasks. The refresh task runs on start so
// a fresh install has a snapshot within seconds.
func registerTasks(tasks *scheduler.Scheduler, srv *server.Server, svc *schedule.Service, db *database.DB, c cache.Cache, cfg *config.Config) {
	metrics := srv.Metrics()

	tasks.Register(&scheduler.Task{
		ID:          scheduler.TaskScheduleRefresh,
		Name:        "Schedule Refresh",
		Description: "Fetch provider schedules and rebuild catalogs",
		Schedule:    "@every " + cfg.Schedule.RefreshEvery().String(),
		RunOnStart:  true,
		RunTimeout:  cfg.Schedule.Timeout() + 30*time.Second,
		Run: func(ctx context.Context) error {
			err := svc.Refresh(ctx)
			metrics.RecordRefresh(err)
			if err == nil {
				if snap, serr := svc.Snapshot(); serr == nil {
					metrics.SetSnapshotSizes(len(snap.Games), len(snap.Teams), len(snap.Prospects))
				}
			}
			return err
		},
	})

	tasks.Register(&scheduler.Task{
		ID:          scheduler.TaskHealthcheckSelf,
		Name:        "Self Healthcheck",
		Description: "Verify database and cache connectivity",
		Schedule:    "@every 5m",
		MaxRetries:  1,
		Run: func(ctx context.Context) error {
			if err := db.Ping(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if c != nil {
				if err := c.Ping(ctx); err != nil {
					return fmt.Errorf("cache: %w", err)
				}
			}
			return nil
		},
	})
}

// runTest resolves a query against the bundled sample schedule and prints the
// matches, exercising the full tokenizer/alias/catalog pipeline.
func runTest(query string) {
	cfg := loadConfig()
	resolver := resolve.New(cfg.Resolver.Options())

	fixture := providers.NewFixture(config.ProviderConfig{Name: "sample"})
	games, _ := fixture.Fetch(context.Background())

	teams := resolver.BuildTeamCatalog(games)
	prospects := resolver.BuildProspectCatalog(games)

	fmt.Printf("Query: %q\n\n", query)

	fmt.Println("Teams:")
	teamMatches := resolver.ResolveTeams(query, teams)
	if len(teamMatches) == 0 {
		fmt.Println("  (no matches)")
	}
	for i, m := range teamMatches {
		fmt.Printf("  %d. %s (%s)\n", i+1, m.Label, m.Canon)
	}

	fmt.Println("\nProspects:")
	prospectMatches := resolver.ResolveProspects(query, prospects)
	if len(prospectMatches) == 0 {
		fmt.Println("  (no matches)")
	}
	for i, m := range prospectMatches {
		if m.Rank > 0 {
			fmt.Printf("  %d. %s (#%d, %s)\n", i+1, m.Label, m.Rank, m.Canon)
		} else {
			fmt.Printf("  %d. %s (%s)\n", i+1, m.Label, m.Canon)
		}
	}
}

func printVersion() {
	binaryName := filepath.Base(os.Args[0])

	fmt.Printf("%s %s\n", binaryName, version.Version)
	fmt.Printf("Built: %s\n", version.BuildDate)
	fmt.Printf("Go: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func printHelp() {
	binaryName := filepath.Base(os.Args[0])

	fmt.Printf(`%s - Prospect Schedule Tracker

Usage:
  %s [options]             Start the server

Runtime Flags:
  --config <file>          Path to config file (YAML)
  --mode <mode>            Set application mode (production|development)
  --data <dir>             Set data directory
  --log <dir>              Set log directory
  --address <addr>         Set listen address
  --port <port>            Set listen port
  --refresh <interval>     Set schedule refresh interval (e.g. 15m)
  --debug                  Enable development mode (verbose logging)

Information:
  --help, -h               Show this help message
  --version, -v            Show version information

Setup:
  --test <query>           Resolve a query against sample data and exit

Examples:
  %s --port 9090
  %s --config /etc/prospects/config.yaml
  %s --test "kansas"
`, binaryName, binaryName, binaryName, binaryName, binaryName)
}
