package seeders

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crystal-dz/storefront_api/model"
	"github.com/crystal-dz/storefront_api/services"
	"github.com/crystal-dz/storefront_api/shared"
)

type OrderSeeder struct {
	db   *gorm.DB
	rand *rand.Rand
}

func NewOrderSeeder(db *gorm.DB) *OrderSeeder {
	return &OrderSeeder{db: db, rand: rand.New(rand.NewSource(42))}
}

var sampleLocations = []struct {
	Wilaya  string
	Baladia string
}{
	{"Alger", "Bab Ezzouar"},
	{"Alger", "Hydra"},
	{"Oran", "Es Senia"},
	{"Constantine", "El Khroub"},
	{"Blida", "Boufarik"},
	{"Sétif", "El Eulma"},
	{"Tizi Ouzou", "Azazga"},
	{"Annaba", "El Bouni"},
}

var sampleNames = []string{"Amine Benali", "Sara Haddad", "Yacine Meziane", "Lina Boudiaf", "Karim Saadi", "Nour Belkacem"}
var sampleChildren = []string{"Yasmine", "Adam", "Ines", "Rayan", "Meriem", "Ilyes"}

var sampleStatuses = []string{
	shared.OrderStatusPendingCOD,
	shared.OrderStatusPendingCOD,
	shared.OrderStatusConfirmed,
	shared.OrderStatusShipped,
	shared.OrderStatusDelivered,
	shared.OrderStatusCancelled,
}

// SeedOrders inserts count orders priced with the live pricing rules. It
// does nothing if orders already exist.
func (s *OrderSeeder) SeedOrders(count int) error {
	var existing int64
	if err := s.db.Model(&model.Order{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Printf("%d orders already exist, skipping order seeding", existing)
		return nil
	}

	product := services.DefaultProduct()
	now := time.Now()
	orders := make([]model.Order, 0, count)

	for i := 0; i < count; i++ {
		id, _ := uuid.NewV7()
		loc := sampleLocations[s.rand.Intn(len(sampleLocations))]
		quantity := 1 + s.rand.Intn(3)
		createdAt := now.Add(-time.Duration(s.rand.Intn(30*24)) * time.Hour)

		orders = append(orders, model.Order{
			ID:              id.String(),
			Name:            sampleNames[s.rand.Intn(len(sampleNames))],
			Phone:           fmt.Sprintf("05%08d", s.rand.Intn(100000000)),
			Wilaya:          loc.Wilaya,
			Baladia:         loc.Baladia,
			ChildName:       sampleChildren[s.rand.Intn(len(sampleChildren))],
			ProductName:     product.Name,
			Quantity:        quantity,
			UnitPrice:       product.UnitPrice,
			DiscountPercent: services.DiscountPercent(quantity),
			TotalPrice:      services.TotalPrice(product.UnitPrice, quantity),
			Currency:        product.Currency,
			Status:          sampleStatuses[s.rand.Intn(len(sampleStatuses))],
			ClientIP:        fmt.Sprintf("41.%d.%d.%d", s.rand.Intn(256), s.rand.Intn(256), 1+s.rand.Intn(254)),
			Country:         "DZ",
			CreatedAt:       createdAt,
			UpdatedAt:       createdAt,
		})
	}

	if err := s.db.CreateInBatches(orders, 100).Error; err != nil {
		return err
	}

	log.Printf("Seeded %d sample orders", len(orders))
	return nil
}
