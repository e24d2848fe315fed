package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ccdemo/internal/app/bootstrap"
	"ccdemo/internal/platform/config"
)

// @title ccdemo words API
// @version 1.0
// @description Cursor-paginated read path over persisted words.
// @BasePath /

// Web UI process entrypoint.
// Data flow:
// 1) Load config and open the Postgres pool.
// 2) Serve the index page and word fragments.
// 3) Drain in-flight requests on SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger := bootstrap.NewLogger(cfg, "webui")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWebUI(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap webui failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("webui shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		stop()
		_ = app.Close()
		log.Fatalf("webui stopped with error: %v", err)
	}
}
