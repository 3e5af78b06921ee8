package seeders

import (
	"log"

	"gorm.io/gorm"

	"github.com/crystal-dz/storefront_api/services"
)

// MainSeeder coordinates schema setup and sample data.
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll migrates the schema, installs the rate limit procedures on
// Postgres and inserts count sample orders.
func (s *MainSeeder) SeedAll(count int) error {
	if err := s.Migrate(); err != nil {
		log.Printf("Migration failed: %v", err)
		return err
	}

	if err := s.SeedOrdersOnly(count); err != nil {
		log.Printf("Order seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func (s *MainSeeder) Migrate() error {
	if err := services.Migrate(s.db); err != nil {
		return err
	}
	log.Printf("Migrated %d tables", len(services.Models()))
	return nil
}

func (s *MainSeeder) SeedOrdersOnly(count int) error {
	return NewOrderSeeder(s.db).SeedOrders(count)
}
