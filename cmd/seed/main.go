package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumb/bakeshop-backend/pkg/config"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	"github.com/sweetcrumb/bakeshop-backend/pkg/logger"
	"github.com/sweetcrumb/bakeshop-backend/pkg/security"
)

// seed fills an empty environment with a starter catalog and an optional
// admin account taken from BAKESHOP_SEED_ADMIN_EMAIL / _PASSWORD.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Error(ctx, "refusing to seed a production environment", nil)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	catalog := []models.Product{
		{
			Name:        "Classic Carrot Cake",
			Description: strPtr("Three layers of spiced carrot sponge with cream cheese frosting."),
			Price:       decimal.RequireFromString("24.00"),
			Allergens:   pq.StringArray{"gluten", "dairy", "nuts"},
			IsActive:    true,
		},
		{
			Name:        "Chocolate Brownie Box",
			Description: strPtr("Six fudgy brownies baked with dark Belgian chocolate."),
			Price:       decimal.RequireFromString("18.00"),
			Allergens:   pq.StringArray{"gluten", "dairy", "eggs"},
			IsActive:    true,
		},
		{
			Name:        "Macaron Assortment",
			Description: strPtr("Twelve assorted macarons from the day's flavors."),
			Price:       decimal.RequireFromString("22.00"),
			Allergens:   pq.StringArray{"nuts", "eggs", "dairy"},
			IsActive:    true,
		},
	}

	conn := dbClient.DB()
	for i := range catalog {
		product := &catalog[i]
		var count int64
		if err := conn.Model(&models.Product{}).Where("name = ?", product.Name).Count(&count).Error; err != nil {
			logg.Error(ctx, "failed to check existing product", err)
			os.Exit(1)
		}
		if count > 0 {
			continue
		}
		if err := conn.Create(product).Error; err != nil {
			logg.Error(ctx, "failed to seed product", err)
			os.Exit(1)
		}
		logg.Info(logg.WithField(ctx, "product", product.Name), "seeded product")
	}

	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("BAKESHOP_SEED_ADMIN_EMAIL")))
	adminPassword := os.Getenv("BAKESHOP_SEED_ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		logg.Info(ctx, "no admin credentials provided, skipping admin seed")
		return
	}

	var count int64
	if err := conn.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		logg.Error(ctx, "failed to check existing admin", err)
		os.Exit(1)
	}
	if count > 0 {
		logg.Info(ctx, "admin account already present")
		return
	}

	hash, err := security.HashPassword(adminPassword, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to hash admin password", err)
		os.Exit(1)
	}
	admin := &models.User{Email: adminEmail, PasswordHash: hash, Role: enums.UserRoleAdmin}
	if err := conn.Create(admin).Error; err != nil {
		logg.Error(ctx, "failed to seed admin", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "email", adminEmail), "seeded admin account")
}

func strPtr(value string) *string {
	return &value
}
