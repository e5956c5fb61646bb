package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/fakeapi"
	"github.com/inventorytracker/inventory-tracker/pkg/config"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

func main() {
	seed := flag.Bool("seed", false, "load demo items and cases")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation("inventory-service-fake")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("inventory-service-fake", cfg.Server.Environment).SetLevel(cfg.Log.Level)
	log.Info().Msg("starting reference inventory service")
	if config.IsProductionLike() {
		log.Warn().Str("environment", cfg.Server.Environment).Msg("in-memory reference service loses all data on restart")
	}

	store := fakeapi.NewStore(time.Now)
	if *seed {
		fakeapi.Seed(store)
		log.Info().Int("items", len(store.ListItems())).Msg("demo data loaded")
	}

	r := fakeapi.NewRouter(store, log, fakeapi.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
