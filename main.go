package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prdlab/gateway-admin/internal/config"
	"github.com/prdlab/gateway-admin/internal/hub"
	"github.com/prdlab/gateway-admin/internal/policy"
	store "github.com/prdlab/gateway-admin/internal/repository"
	"github.com/prdlab/gateway-admin/internal/service"
	transport "github.com/prdlab/gateway-admin/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting gateway admin backend...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Lab max concurrency: %d", cfg.LabMaxConcurrency)
	if config.MockMode() {
		log.Printf("Mock mode enabled: all upstream calls are stubbed")
	}

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize run-admission policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize watcher hub
	h := hub.NewHub()
	go h.Run()

	// Initialize service and server
	svc := service.New(db, cfg, policyEngine, h)
	server := transport.NewServer(svc, h)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Admin API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gateway admin backend...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Gateway admin backend stopped")
}
