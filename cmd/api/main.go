// Package main provides the entry point for the ingredients API server
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/fx"

	"github.com/alchemorsel/ingredients/internal/infrastructure/config"
	"github.com/alchemorsel/ingredients/internal/infrastructure/container"
)

func main() {
	configPath := flag.String("config", os.Getenv("INGREDIENTS_CONFIG_FILE"), "path to the configuration file")
	flag.Parse()

	var cfg *config.Config

	// Create Fx application with dependency injection
	app := fx.New(
		fx.NopLogger, // Use our own logger instead of Fx's

		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
		fx.Populate(&cfg),
	)
	if err := app.Err(); err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, app.StartTimeout())
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for interrupt signal or a fatal server error
	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	fmt.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Fatalf("Failed to stop application gracefully: %v", err)
	}
}
