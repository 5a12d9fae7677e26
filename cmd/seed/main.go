package main

import (
	"log"

	"carwash/internal/config"
	"carwash/internal/database"
	"carwash/internal/domain"
)

// seed migrates the schema and loads a demo instance for local development.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	const instanceID = 1

	settings := domain.DefaultBookingSettings(instanceID)
	if err := db.Where("instance_id = ?", instanceID).
		FirstOrCreate(&settings).Error; err != nil {
		log.Fatalf("seed settings: %v", err)
	}

	stations := []domain.Station{
		{InstanceID: instanceID, Name: "Bay 1", Type: domain.StationTypeUniversal, Active: true, SortOrder: 1},
		{InstanceID: instanceID, Name: "Bay 2", Type: domain.StationTypeHandWash, Active: true, SortOrder: 2},
		{InstanceID: instanceID, Name: "Tunnel", Type: domain.StationTypeAutomatic, Active: true, SortOrder: 3},
		{InstanceID: instanceID, Name: "Detailing room", Type: domain.StationTypeDetailing, Active: true, SortOrder: 4},
	}
	for i := range stations {
		st := stations[i]
		if err := db.Where("instance_id = ? AND name = ?", instanceID, st.Name).
			FirstOrCreate(&st).Error; err != nil {
			log.Fatalf("seed station %q: %v", st.Name, err)
		}
	}

	handWash := domain.StationTypeHandWash
	detailing := domain.StationTypeDetailing
	largeDur := 90
	largePrice := 80.0
	services := []domain.Service{
		{
			InstanceID: instanceID, Name: "Exterior wash",
			DurationMinutes: 30, Price: 25, Active: true,
		},
		{
			InstanceID: instanceID, Name: "Hand wash premium",
			DurationMinutes: 60, DurationLarge: &largeDur,
			Price: 55, PriceLarge: &largePrice,
			RequiredStationType: &handWash, Active: true,
		},
		{
			InstanceID: instanceID, Name: "Interior detailing",
			DurationMinutes: 120, Price: 150,
			RequiredStationType: &detailing, Active: true,
		},
		{
			InstanceID: instanceID, Name: "Wax finish",
			DurationMinutes: 15, Price: 15, Active: true,
		},
	}
	for i := range services {
		svc := services[i]
		if err := db.Where("instance_id = ? AND name = ?", instanceID, svc.Name).
			FirstOrCreate(&svc).Error; err != nil {
			log.Fatalf("seed service %q: %v", svc.Name, err)
		}
	}

	log.Printf("seeded instance %d: %d stations, %d services", instanceID, len(stations), len(services))
}
