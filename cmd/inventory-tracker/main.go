package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/inventorytracker/inventory-tracker/internal/inventory/barcode"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/client"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/console"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/view"
	"github.com/inventorytracker/inventory-tracker/internal/inventory/workflow"
	"github.com/inventorytracker/inventory-tracker/pkg/config"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

func main() {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation("inventory-tracker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so they never interleave with the table on stdout
	log := logger.NewWithWriter(os.Stderr, "inventory-tracker", cfg.Server.Environment).SetLevel(cfg.Log.Level)
	log.Info().Str("api", cfg.API.BaseURL).Msg("starting inventory tracker")

	out := console.NewSyncWriter(os.Stdout)
	in := bufio.NewReader(os.Stdin)

	gateway := client.New(cfg.API.BaseURL, log,
		client.WithTimeout(cfg.API.Timeout),
		client.WithUserAgent(cfg.API.UserAgent),
		client.WithNotifier(console.NewNotifier(out)),
	)

	renderer := console.NewRenderer(out)
	model := view.NewModel(gateway, log, view.WithRenderer(renderer))

	capturer := barcode.Select(cfg.Scanner, in, out, log)
	ctrl := workflow.NewController(gateway, model, capturer, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := console.New(in, out, model, ctrl, renderer, log).Run(ctx); err != nil {
		log.Error().Err(err).Msg("console stopped")
		stop()
		os.Exit(1)
	}

	log.Info().Msg("inventory tracker stopped")
}
