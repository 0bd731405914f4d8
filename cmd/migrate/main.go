package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hearthstay/server/internal/config"
	"github.com/hearthstay/server/internal/database"
	"github.com/hearthstay/server/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		runMigrationsUp()
	default:
		fmt.Println("Usage: migrate [up]")
		fmt.Println("  up - Create or update the ui_components, component_usages and users tables")
		os.Exit(1)
	}
}

func runMigrationsUp() {
	cfg := config.Load()
	logger.InitializeForTest()

	log.Println("Connecting to database...")
	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Printf("Database connected (%s)", cfg.Database.Driver)
	log.Println("Running migrations...")

	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("All migrations completed successfully!")
}
