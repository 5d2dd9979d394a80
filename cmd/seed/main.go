// Command seed puts a ring of live photographers around a fixed point and
// prints bearer tokens for them, a client and an admin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"snapbook/apperr"
	"snapbook/config"
	"snapbook/database"
	bookingRepo "snapbook/database/repository/booking"
	photographerRepo "snapbook/database/repository/photographer"
	"snapbook/models"
	"snapbook/services/availability"
	"snapbook/utils"
)

func main() {
	count := flag.Int("photographers", 10, "number of photographers to put live")
	lat := flag.Float64("lat", -1.2864, "center latitude")
	lng := flag.Float64("lng", 36.8172, "center longitude")
	radiusKm := flag.Float64("radius", 5, "spread radius in km")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	logger, err := utils.NewLogger(cfg)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	client, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	defer database.Disconnect(client)
	db := client.Database(cfg.DatabaseName)

	statuses, err := photographerRepo.NewMongoStatusRepo(db)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	bookings, err := bookingRepo.NewMongoBookingRepo(db)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	svc := availability.NewAvailabilityService(statuses, bookings, nil, logger)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = "snapbook-dev-secret"
	}
	jwt, err := utils.NewJWTManager(secret)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Linear spacing so the furthest photographer sits on the radius.
	spacing := 0.0
	if *count > 1 {
		spacing = *radiusKm / float64(*count-1)
	}
	for i := 0; i < *count; i++ {
		id := fmt.Sprintf("photographer-%d", i+1)
		distanceKm := *radiusKm - spacing*float64(i)
		angle := rand.Float64() * 2 * math.Pi
		// 1 km is roughly 0.009 degrees of latitude.
		dLat := distanceKm * 0.009 * math.Sin(angle)
		dLng := distanceKm * 0.009 * math.Cos(angle) / math.Max(math.Cos(*lat*math.Pi/180), 0.01)

		_, err := svc.GoLive(ctx, id, models.NewGeoPoint(*lat+dLat, *lng+dLng))
		if err != nil && !errors.Is(err, apperr.ErrAlreadyLive) {
			log.Fatalf("seed: go live %s: %v", id, err)
		}
		printToken(jwt, models.Actor{ID: id, Role: models.RolePhotographer})
	}
	printToken(jwt, models.Actor{ID: "client-1", Role: models.RoleClient})
	printToken(jwt, models.Actor{ID: "admin-1", Role: models.RoleAdmin})
}

func printToken(jwt *utils.JWTManager, actor models.Actor) {
	token, err := jwt.GenerateToken(actor, 7*24*time.Hour)
	if err != nil {
		log.Fatalf("seed: token for %s: %v", actor.ID, err)
	}
	fmt.Printf("%-14s %-16s %s\n", actor.Role, actor.ID, token)
}
