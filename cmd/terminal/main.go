package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"bioterminal/internal/app"
	"bioterminal/internal/config"
)

func main() {
	configPath := flag.String("config", "terminal.json", "Path to the terminal config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start terminal: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Terminal failed: %v", err)
	}
}
