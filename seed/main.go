package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/crystal-dz/storefront_api/seed/seeders"
	"github.com/crystal-dz/storefront_api/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, migrate, orders")
		dbPath   = flag.String("db", "", "SQLite file for local development (default: Postgres from DB_* env vars)")
		count    = flag.Int("count", 20, "Number of sample orders")
		hash     = flag.String("hash", "", "Print the bcrypt hash of a password for ADMIN_PASSWORD_HASH and exit")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if *hash != "" {
		hashed, err := services.HashPassword(*hash)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hashed)
		return
	}

	var dialector gorm.Dialector
	if *dbPath != "" {
		dialector = sqlite.Open(*dbPath)
	} else {
		dialector = postgres.Open(services.DatabaseDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Connected to %s database", db.Dialector.Name())

	mainSeeder := seeders.NewMainSeeder(db)

	switch *seedType {
	case "all":
		log.Println("Running migrations and sample data...")
		if err := mainSeeder.SeedAll(*count); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	case "migrate":
		if err := mainSeeder.Migrate(); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	case "orders":
		if err := mainSeeder.SeedOrdersOnly(*count); err != nil {
			log.Fatalf("Failed to seed orders: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all', 'migrate' or 'orders'", *seedType)
	}

	log.Println("Seeding operation completed successfully!")
}

func showHelp() {
	log.Println(`
Database tool for the storefront API

Usage: go run ./seed [flags]

Flags:
  -type string
        all, migrate or orders (default "all")
  -db string
        SQLite file for local development; Postgres is used when empty
  -count int
        Number of sample orders (default 20)
  -hash string
        Print a bcrypt hash for ADMIN_PASSWORD_HASH and exit

Examples:
  go run ./seed -type=migrate
  go run ./seed -db=./dev.db -count=50
  go run ./seed -hash='correct horse battery staple'

Environment Variables:
  DATABASE_URL or DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE`)
}
