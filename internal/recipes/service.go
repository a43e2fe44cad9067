package recipes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sweetcrumb/bakeshop-backend/internal/products"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
	"github.com/sweetcrumb/bakeshop-backend/pkg/spoonacular"
)

type recipeAPI interface {
	Search(ctx context.Context, query string, number int) ([]spoonacular.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*spoonacular.Recipe, error)
}

type productCreator interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
}

// RecipeDTO is the recipe shape exposed over the API.
type RecipeDTO struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	ImageURL       string  `json:"image_url,omitempty"`
	ReadyInMinutes int     `json:"ready_in_minutes"`
	Servings       int     `json:"servings"`
	Summary        string  `json:"summary,omitempty"`
	SourceURL      string  `json:"source_url,omitempty"`
	PricePerServe  float64 `json:"price_per_serving"`
}

// Service exposes recipe discovery plus admin ingestion into the catalog.
type Service interface {
	Search(ctx context.Context, query string, number int) ([]RecipeDTO, error)
	Get(ctx context.Context, id int64) (*RecipeDTO, error)
	Ingest(ctx context.Context, id int64) (*products.ProductDTO, error)
}

type service struct {
	api      recipeAPI
	products productCreator
}

// NewService constructs the recipe service.
func NewService(api recipeAPI, productRepo productCreator) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("recipe client required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{api: api, products: productRepo}, nil
}

// Search proxies free-text recipe search to the upstream API.
func (s *service) Search(ctx context.Context, query string, number int) ([]RecipeDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}

	found, err := s.api.Search(ctx, query, number)
	if err != nil {
		return nil, err
	}

	out := make([]RecipeDTO, 0, len(found))
	for _, recipe := range found {
		out = append(out, fromRecipe(recipe))
	}
	return out, nil
}

// Get proxies a recipe detail lookup to the upstream API.
func (s *service) Get(ctx context.Context, id int64) (*RecipeDTO, error) {
	recipe, err := s.api.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := fromRecipe(*recipe)
	return &dto, nil
}

// Ingest turns an upstream recipe into a catalog listing. The listing
// starts inactive so an admin can review the price before it goes live.
func (s *service) Ingest(ctx context.Context, id int64) (*products.ProductDTO, error) {
	recipe, err := s.api.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}

	price := priceFromRecipe(*recipe)
	if price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipe carries no price data")
	}

	description := stripTags(recipe.Summary)
	product := &models.Product{
		Name:     recipe.Title,
		Price:    price,
		IsActive: false,
	}
	if description != "" {
		product.Description = &description
	}
	if recipe.ImageURL != "" {
		imageURL := recipe.ImageURL
		product.ImageURL = &imageURL
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product from recipe")
	}
	return products.FromModel(created), nil
}

func fromRecipe(recipe spoonacular.Recipe) RecipeDTO {
	return RecipeDTO{
		ID:             recipe.ID,
		Title:          recipe.Title,
		ImageURL:       recipe.ImageURL,
		ReadyInMinutes: recipe.ReadyInMinutes,
		Servings:       recipe.Servings,
		Summary:        recipe.Summary,
		SourceURL:      recipe.SourceURL,
		PricePerServe:  recipe.PricePerServing,
	}
}

// priceFromRecipe converts the upstream cents-per-serving figure into a
// whole-recipe dollar price.
func priceFromRecipe(recipe spoonacular.Recipe) decimal.Decimal {
	if recipe.PricePerServing <= 0 {
		return decimal.Zero
	}
	servings := recipe.Servings
	if servings <= 0 {
		servings = 1
	}
	perServing := decimal.NewFromFloat(recipe.PricePerServing).Div(decimal.NewFromInt(100))
	return perServing.Mul(decimal.NewFromInt(int64(servings))).Round(2)
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func stripTags(value string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(value, ""))
}
