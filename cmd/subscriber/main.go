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

// Subscriber process entrypoint.
// Data flow:
// 1) Load config, connect Postgres, ensure the words table.
// 2) Attach to the durable subscription.
// 3) Insert each word and ack it only after the insert succeeded.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger := bootstrap.NewLogger(cfg, "subscriber")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildSubscriber(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap subscriber failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("subscriber shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		stop()
		_ = app.Close()
		log.Fatalf("subscriber stopped with error: %v", err)
	}
}
