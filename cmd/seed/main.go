package main

import (
	"context"
	"log"

	mongoadapter "github.com/sarawakparks/park-reservations/internal/adapters/mongo"
	"github.com/sarawakparks/park-reservations/internal/config"
	"github.com/sarawakparks/park-reservations/internal/domain"
	"github.com/sarawakparks/park-reservations/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func price(v float64) *float64 { return &v }

// Seeds demo parks and merchandise when the collections are empty.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := observability.NewLogger()

	ctx := context.Background()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer client.Disconnect(ctx)
	db := client.Database(cfg.MongoDB)

	count, err := db.Collection("parks").CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Fatalf("failed to count parks: %v", err)
	}
	if count > 0 {
		logger.Info("parks collection already seeded, nothing to do")
		return
	}

	parks := mongoadapter.NewParkRepository(db, logger)
	merch := mongoadapter.NewMerchRepository(db, logger)

	demoParks := []domain.Park{
		{
			ID:          "P01",
			Name:        "Bako National Park",
			Location:    "Sarawak",
			Description: "Oldest national park.",
			MaxCapacity: 20,
			TicketPrice: price(10.00),
			Schedules: []domain.Schedule{
				{VisitDate: "2026-12-01"},
				{VisitDate: "2026-12-02"},
			},
		},
		{
			ID:          "P02",
			Name:        "Niah National Park",
			Location:    "Miri",
			Description: "Famous for caves.",
			MaxCapacity: 50,
			TicketPrice: price(15.00),
			Schedules: []domain.Schedule{
				{VisitDate: "2026-12-01"},
			},
		},
	}
	for _, p := range demoParks {
		if err := parks.InsertPark(ctx, p); err != nil {
			log.Fatalf("failed to seed park %s: %v", p.ID, err)
		}
	}

	demoMerch := []domain.Merchandise{
		{SKU: "SKU001", Name: "Park T-Shirt", Price: 25.00, StockQuantity: 100},
		{SKU: "SKU002", Name: "Souvenir Mug", Price: 15.00, StockQuantity: 50},
	}
	for _, m := range demoMerch {
		if err := merch.InsertMerch(ctx, m); err != nil {
			log.Fatalf("failed to seed merchandise %s: %v", m.SKU, err)
		}
	}

	logger.WithFields(map[string]interface{}{
		"parks":       len(demoParks),
		"merchandise": len(demoMerch),
	}).Info("seeding complete")
}
