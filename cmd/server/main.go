/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the incentive compensation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load optional .env file, parse command-line flags
  2. Initialize SQLite store
  3. Wire the hours bank and the lifecycle manager
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags take precedence; each falls back to an environment variable
  (loaded from .env when present):
    -port / PORT       HTTP server port (default: 8080)
    -db   / DB_PATH    SQLite database path (default: incentive.db)
                       Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/incentive.db"
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
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
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/incentive-engine/api"
	"github.com/warp/incentive-engine/hoursbank"
	"github.com/warp/incentive-engine/incentive"
	"github.com/warp/incentive-engine/store/sqlite"
)

func main() {
	// .env is optional; flags below still win over the environment.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "incentive.db"), "SQLite database path")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire dependencies
	bank := hoursbank.NewService(store)
	manager := incentive.NewManager(store, store, bank, incentive.SystemClock{}, logNotifier{})
	handler := api.NewHandler(manager, bank, store)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// logNotifier surfaces engine signals on the server log.
type logNotifier struct{}

func (logNotifier) Emit(_ context.Context, ev incentive.Event) {
	if ev.EmployeeID != "" {
		log.Printf("signal=%s report=%s/%s employee=%s", ev.Signal, ev.EstablishmentID, ev.Month, ev.EmployeeID)
		return
	}
	log.Printf("signal=%s report=%s/%s", ev.Signal, ev.EstablishmentID, ev.Month)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
