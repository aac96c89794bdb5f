package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/config"
	"github.com/noah-isme/exam-portal-api/internal/database"
	"github.com/noah-isme/exam-portal-api/internal/repository"
	"github.com/noah-isme/exam-portal-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "seed_admin").Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seeds := service.NewSeedService(repository.NewUserRepository(db), service.NewBcryptHasher(cfg.BcryptCost), service.NewValidator(), logger)
	result, err := seeds.SeedAdmin(ctx, service.AdminSeed{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Reset:    cfg.AdminReset,
	})
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	logger.Info().
		Bool("created", result.Created).
		Int64("removed", result.Removed).
		Str("email", result.User.Email).
		Msg("admin seeding finished")
}
