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

// Publisher process entrypoint.
// Data flow:
// 1) Load config and read the input file.
// 2) Publish every word, one confirmed message at a time.
// 3) Idle until SIGINT/SIGTERM, then close the transport.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger := bootstrap.NewLogger(cfg, "publisher")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildPublisher(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap publisher failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("publisher shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		stop()
		_ = app.Close()
		log.Fatalf("publisher stopped with error: %v", err)
	}
}
