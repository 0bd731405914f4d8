package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hearthstay/server/internal/config"
	"github.com/hearthstay/server/internal/database"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	opts := seed.DefaultOptions()
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	fs.IntVar(&opts.Users, "users", opts.Users, "number of fake users")
	fs.IntVar(&opts.UsagePerWidget, "usage", opts.UsagePerWidget, "usage events per active component")
	fs.IntVar(&opts.Days, "days", opts.Days, "spread usage over this many days")
	randSeed := fs.Uint64("seed", 0, "faker seed (0 = random)")

	command := "dev"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}
	_ = fs.Parse(args)

	switch command {
	case "dev", "clean":
	default:
		fmt.Println("Usage: seed [dev|clean] [-users N] [-usage N] [-days N] [-seed N]")
		fmt.Println("  dev   - Seed demo components, users and usage events")
		fmt.Println("  clean - Remove all components, usage and users (use with caution)")
		os.Exit(1)
	}

	cfg := config.Load()
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	ctx := context.Background()
	seeder := seed.NewSeeder(database.DB, *randSeed)

	if command == "clean" {
		if err := seeder.Clean(ctx); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
		log.Println("Database cleaned")
		return
	}

	res, err := seeder.SeedDev(ctx, opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d components, %d users, %d usage events", res.Components, res.Users, res.Usage)
}
