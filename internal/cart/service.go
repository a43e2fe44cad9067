package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes draft cart operations for the authenticated user.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	UpsertItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
}

type service struct {
	repo     Repository
	products productLoader
}

// NewService constructs the cart service.
func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// GetCart returns the user's draft cart, opening an empty one on first
// access.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	record, err := s.loadOrOpenDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildView(record), nil
}

// UpsertItem sets the quantity for a product line. A quantity of zero or
// less removes the line instead.
func (s *service) UpsertItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	if qty <= 0 {
		return s.removeIfPresent(ctx, userID, productID)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	record, err := s.loadOrOpenDraft(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, record.ID, productID)
	switch {
	case err == nil:
		item.Qty = qty
		if err := s.repo.SaveItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		created := &models.CartItem{CartID: record.ID, ProductID: productID, Qty: qty}
		if err := s.repo.CreateItem(ctx, created); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}

	return s.reload(ctx, userID)
}

// RemoveItem deletes a product line from the draft cart.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	record, err := s.loadOrOpenDraft(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.DeleteItem(ctx, record.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}

	return s.reload(ctx, userID)
}

func (s *service) removeIfPresent(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	record, err := s.loadOrOpenDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.DeleteItem(ctx, record.ID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return s.reload(ctx, userID)
}

func (s *service) loadOrOpenDraft(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	record, err := s.repo.FindDraftByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{UserID: userID, Status: enums.CartStatusDraft})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open cart")
	}
	return created, nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	record, err := s.repo.FindDraftByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return buildView(record), nil
}
