package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/aidolab/mgstudio/internal/server"
	"github.com/aidolab/mgstudio/internal/server/config"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using defaults and flags")
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
