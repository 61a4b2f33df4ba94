package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"legend-scanner/api"
	"legend-scanner/cache"
	"legend-scanner/config"
	"legend-scanner/database"
	"legend-scanner/database/patterns"
	"legend-scanner/database/runs"
	"legend-scanner/marketdata"
	"legend-scanner/realtime"
)

// App represents the main application
type App struct {
	config   *config.Config
	db       *database.Database
	redis    *cache.RedisClient
	store    patterns.Store
	runStore runs.Store
	hub      *realtime.Hub
	scanner  *BatchScanner
	cron     *cron.Cron
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Start starts the application
func (a *App) Start() error {
	codec := patterns.NewCursorCodec(a.config.CursorSecret)

	if a.config.MockMode {
		log.Println("🧪 Mock mode: in-memory stores + synthetic market data")
		a.store = patterns.NewMemoryStore(codec)
		a.runStore = runs.NewMemoryStore()
	} else {
		// 1. Database Connection
		fmt.Println("🗄️  Connecting to database...")
		db, err := database.Connect(
			a.config.DatabaseHost,
			a.config.DatabasePort,
			a.config.DatabaseName,
			a.config.DatabaseUser,
			a.config.DatabasePassword,
		)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		a.db = db

		patternRepo := patterns.NewRepository(db.DB(), codec)
		if err := patternRepo.InitSchema(); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
		a.store = patternRepo

		runRepo := runs.NewRepository(db.DB())
		if err := runRepo.InitSchema(); err != nil {
			return fmt.Errorf("schema initialization failed: %w", err)
		}
		a.runStore = runRepo

		// 2. Redis Connection
		fmt.Println("🧠 Connecting to Redis...")
		redisClient := cache.NewRedisClient(
			a.config.RedisHost,
			a.config.RedisPort,
			a.config.RedisPassword,
		)
		if redisClient == nil {
			fmt.Println("⚠️  Redis connection failed. Caching disabled.")
		} else {
			a.redis = redisClient
		}
	}

	// 3. Ticker universe
	universe, err := config.LoadUniverse(a.config.UniverseFile)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}
	log.Printf("🌐 Universe: %d tickers", len(universe))

	// 4. Market data source
	var fetcher marketdata.Fetcher
	if a.config.MockMode {
		fetcher = marketdata.NewMockFetcher()
	} else {
		fetcher = marketdata.NewYahooFetcher()
	}
	log.Printf("📡 Market data source: %s", fetcher.Name())

	// 5. Realtime hub
	a.hub = realtime.NewHub()
	go a.hub.Run()

	// 6. Batch scanner
	a.scanner = NewBatchScanner(fetcher, a.store, a.runStore, a.hub, universe, a.config.Scan, a.config.Detector)

	// 7. Scheduled scans
	if a.config.Scan.Schedule != "" {
		a.cron = cron.New()
		_, err := a.cron.AddFunc(a.config.Scan.Schedule, func() {
			if _, err := a.scanner.Scan(context.Background()); err != nil {
				log.Printf("⚠️  Scheduled scan failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid scan schedule %q: %w", a.config.Scan.Schedule, err)
		}
		a.cron.Start()
		log.Printf("🕒 Scheduled scans: %s", a.config.Scan.Schedule)
	}

	// 8. API server
	apiServer := api.NewServer(a.store, a.runStore, a.scanner, a.hub, a.redis)
	go func() {
		if err := apiServer.Start(a.config.Port); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	return a.gracefulShutdown(apiServer)
}

// gracefulShutdown blocks until an interrupt, then stops the server, cron
// and hub within a timeout.
func (a *App) gracefulShutdown(apiServer *api.Server) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  API shutdown: %v", err)
	}
	a.hub.Stop()
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}

	fmt.Println("👋 Shutdown complete")
	return nil
}
