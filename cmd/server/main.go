package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/commerce-pulse/internal/api"
	"github.com/ignite/commerce-pulse/internal/attribution"
	"github.com/ignite/commerce-pulse/internal/config"
	"github.com/ignite/commerce-pulse/internal/dashboard"
	"github.com/ignite/commerce-pulse/internal/klaviyo"
	"github.com/ignite/commerce-pulse/internal/pkg/distlock"
	"github.com/ignite/commerce-pulse/internal/scoring"
	"github.com/ignite/commerce-pulse/internal/snapshot"
	"github.com/ignite/commerce-pulse/internal/triplewhale"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Commerce Pulse Server (cmd/server/main.go)               ║")
	log.Println("║  Unified email + commerce analytics dashboard             ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Klaviyo client
	emailClient := klaviyo.NewClient(klaviyo.Config{
		APIKey:   cfg.Klaviyo.APIKey,
		BaseURL:  cfg.Klaviyo.BaseURL,
		Revision: cfg.Klaviyo.Revision,
		Timeout:  cfg.Klaviyo.Timeout(),
	})
	if cfg.Klaviyo.APIKey == "" {
		log.Println("Warning: no Klaviyo API key configured, dashboard will serve fallback email data")
	}

	// Initialize Triple Whale client. The transport setting selects the
	// REST API or the local Moby subprocess; both feed the same client.
	var commerceClient *triplewhale.Client
	switch cfg.TripleWhale.Transport {
	case "moby":
		moby, err := triplewhale.NewMobySource(cfg.TripleWhale.MobyCommand)
		if err != nil {
			log.Fatalf("Failed to start Moby subprocess (%s): %v", cfg.TripleWhale.MobyCommand, err)
		}
		defer moby.Close()
		commerceClient = triplewhale.NewClientWithSource(moby)
		log.Printf("Triple Whale transport: moby subprocess (%s)", cfg.TripleWhale.MobyCommand)
	default:
		commerceClient = triplewhale.NewClient(triplewhale.Config{
			APIKey:  cfg.TripleWhale.APIKey,
			BaseURL: cfg.TripleWhale.BaseURL,
			Timeout: cfg.TripleWhale.Timeout(),
		})
		log.Println("Triple Whale transport: REST API")
	}
	if cfg.TripleWhale.Transport != "moby" && cfg.TripleWhale.APIKey == "" {
		log.Println("Warning: no Triple Whale API key configured, dashboard will serve fallback commerce data")
	}

	// Initialize PostgreSQL snapshot store (optional)
	var repo *snapshot.Repo
	var snapshotDB *sql.DB
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		log.Printf("Connecting to snapshot database: ...@%s/...", extractHost(cfg.Database.URL))
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Printf("Warning: failed to open snapshot database: %v", err)
		} else {
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			if err := db.PingContext(pingCtx); err != nil {
				log.Printf("Warning: snapshot database unreachable, snapshots disabled: %v", err)
				db.Close()
			} else {
				repo = snapshot.NewRepo(db)
				snapshotDB = db
				defer db.Close()
				log.Println("Snapshot persistence enabled")
			}
			pingCancel()
		}
	} else {
		log.Println("Snapshot persistence disabled (no database configured)")
	}

	// Initialize Redis response cache (optional)
	var cache *snapshot.Cache
	var cacheRDB *redis.Client
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis unreachable at %s, response cache disabled: %v", cfg.Redis.Addr, err)
			rdb.Close()
		} else {
			cache = snapshot.NewCache(rdb, cfg.Redis.TTL())
			cacheRDB = rdb
			defer rdb.Close()
			log.Printf("Response cache enabled (TTL %s)", cfg.Redis.TTL())
		}
		pingCancel()
	} else {
		log.Println("Response cache disabled")
	}

	// Attribution engine with configured business rules
	engine := attribution.NewEngine(emailClient, commerceClient, attribution.Options{
		Window:       cfg.Attribution.Window(),
		EmailChannel: cfg.Attribution.EmailChannel,
	})

	// Score calculator thresholds
	weights := scoring.DefaultWeights()
	if cfg.Scoring.ChurnRiskThreshold > 0 {
		weights.ChurnRiskThreshold = cfg.Scoring.ChurnRiskThreshold
	}

	// Dashboard service and API routes
	svc := dashboard.New(emailClient, commerceClient, engine, weights, repo, cache)

	// Periodic snapshot collector, single writer across instances
	if repo != nil {
		lock := distlock.NewLock(cacheRDB, snapshotDB, "snapshot-writer", 5*time.Minute)
		snapshotter := dashboard.NewSnapshotter(svc, lock, time.Hour)
		go snapshotter.Start(ctx)
		log.Println("Snapshot collector started (hourly)")
	}

	handlers := api.NewHandlers(svc, repo)
	router := api.SetupRoutes(handlers)

	addr := fmt.Sprintf("%s:%d", host, port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
