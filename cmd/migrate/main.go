package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/quatton/aimless/pkg/alog"
	"github.com/quatton/aimless/pkg/db"
)

const usage = "usage: migrate [init|up|down|status]"

func main() {
	log := alog.NewDefault()
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	} else {
		log.Info("Loaded .env file")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var cfg db.Config
	if err := envconfig.Process("AIMLESS", &cfg); err != nil {
		log.Fatalf("failed to process env vars: %v", err)
	}

	ctx := context.Background()
	database, err := db.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	switch cmd {
	case "init":
		err = db.Init(ctx, database)
	case "up":
		log.Info("Running migrations...")
		err = db.Migrate(ctx, database, log)
	case "down":
		err = db.Rollback(ctx, database, log)
	case "status":
		err = db.Status(ctx, database, log)
	default:
		fmt.Fprintln(os.Stderr, usage)
		database.Close()
		os.Exit(2)
	}
	if err != nil {
		database.Close()
		log.Fatalf("migrate %s: %v", cmd, err)
	}
}
