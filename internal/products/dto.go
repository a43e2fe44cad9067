package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
)

// ProductDTO is the catalog listing exposed over the API.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Allergens   []string        `json:"allergens"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FromModel maps the persistence model to the DTO.
func FromModel(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	allergens := []string(product.Allergens)
	if allergens == nil {
		allergens = []string{}
	}
	return &ProductDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		ImageURL:    product.ImageURL,
		Allergens:   allergens,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
	}
}

// FromModels maps a slice of products.
func FromModels(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
