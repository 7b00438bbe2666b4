/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the deal analysis API server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Connect the analysis cache (Redis if configured, else in-memory)
  4. Create API handler and start the distress rescoring scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port              HTTP server port (default: 8080)
  -db                SQLite database path (default: deals.db)
                     Use ":memory:" for in-memory database
  -redis             Redis address for the analysis cache (default: none)
  -cache-ttl         Analysis cache TTL (default: 15m)
  -rescore-interval  Distress rescoring interval, 0 disables (default: 24h)
  -workers           Distress batch parallelism, 0 = GOMAXPROCS

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close cache and database connections

EXAMPLES:
  # Run with file database
  ./server -db="./data/deals.db"

  # Shared cache across replicas, hourly rescoring
  ./server -redis=localhost:6379 -rescore-interval=1h

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Distress rescoring
  - cmd/dealforge: Batch CLI
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealforge/deal-engine/api"
	"github.com/dealforge/deal-engine/cache"
	"github.com/dealforge/deal-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "deals.db", "SQLite database path")
	redisAddr := flag.String("redis", "", "Redis address for the analysis cache (empty = in-memory)")
	cacheTTL := flag.Duration("cache-ttl", 15*time.Minute, "Analysis cache TTL")
	rescore := flag.Duration("rescore-interval", 24*time.Hour, "Distress rescoring interval (0 disables)")
	workers := flag.Int("workers", 0, "Distress batch workers (0 = GOMAXPROCS)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)
	handler.CacheTTL = *cacheTTL
	handler.Workers = *workers

	if *redisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedis(ctx, *redisAddr)
		cancel()
		if err != nil {
			log.Printf("Warning: %v; using in-memory cache", err)
		} else {
			defer rc.Close()
			handler.Cache = rc
			log.Printf("🗄️  Analysis cache: redis at %s", *redisAddr)
		}
	}

	// Start rescoring
	scheduler := api.NewDistressScheduler(handler)
	scheduler.Interval = *rescore
	scheduler.Enabled = *rescore > 0
	scheduler.Start()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
