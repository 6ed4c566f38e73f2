package main

import (
	"context"
	"errors"
	"flag"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/oksasatya/social-account-service/config"
	"github.com/oksasatya/social-account-service/internal/application"
	"github.com/oksasatya/social-account-service/internal/domain/entity"
	repo "github.com/oksasatya/social-account-service/internal/domain/repository"
	pginfra "github.com/oksasatya/social-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/social-account-service/pkg/helpers"
)

var v1Agreements = []application.PublishInput{
	{Title: "서비스 이용약관", Content: "서비스 이용약관 본문", Version: "1.0", Type: entity.AgreementServices, Order: 1, IsRequired: true},
	{Title: "개인정보 수집 및 이용 동의", Content: "개인정보 처리방침 본문", Version: "1.0", Type: entity.AgreementPrivacy, Order: 2, IsRequired: true},
	{Title: "마케팅 정보 수신 동의", Content: "마케팅 정보 수신 안내", Version: "1.0", Type: entity.AgreementMarketing, Order: 3, IsRequired: false},
}

func main() {
	email := flag.String("staff-email", "admin@example.com", "staff account email")
	password := flag.String("staff-password", "admin1234", "staff account password")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	store := pginfra.NewStore(pool)

	// Agreements are only seeded into an empty registry
	active, err := store.Agreements().CountActive(ctx)
	if err != nil {
		logger.Fatalf("count agreements: %v", err)
	}
	if active == 0 {
		registry := &application.AgreementRegistry{Store: store, Logger: logger}
		for _, in := range v1Agreements {
			a, err := registry.Publish(ctx, in)
			if err != nil {
				logger.Fatalf("publish %q: %v", in.Title, err)
			}
			logger.WithField("id", a.ID).Infof("seeded agreement %q", a.Title)
		}
	} else {
		logger.Infof("%d active agreements present; skipping", active)
	}

	hash, err := helpers.HashPassword(*password)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}
	staff := &entity.User{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Email:      application.NormalizeEmail(*email),
		Password:   hash,
		IsVerified: true,
		IsActive:   true,
		IsStaff:    true,
	}
	switch err := store.Users().Create(ctx, staff); {
	case err == nil:
		logger.WithField("id", staff.ID).Infof("seeded staff user %s", staff.Email)
	case errors.Is(err, repo.ErrConflict):
		logger.Infof("staff user %s already exists", staff.Email)
	default:
		logger.Fatalf("failed to seed staff user: %v", err)
	}
}
