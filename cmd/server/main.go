package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/avidalm/iptvgate/internal/server"
	"github.com/avidalm/iptvgate/internal/server/config"
)

func main() {
	// A missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	ctx := context.Background()

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := server.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)
}
