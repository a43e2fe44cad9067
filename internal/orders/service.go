package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
	"github.com/sweetcrumb/bakeshop-backend/pkg/pagination"
)

// ListOrdersInput narrows and pages an order listing.
type ListOrdersInput struct {
	Page   pagination.Params
	Status *enums.OrderStatus
}

// OrderListResult is a page of orders plus paging metadata.
type OrderListResult struct {
	Orders []OrderDTO      `json:"orders"`
	Page   pagination.Page `json:"page"`
}

// Service exposes order read paths and admin status management.
type Service interface {
	ListOrders(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, input ListOrdersInput) (*OrderListResult, error)
	GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo Repository
}

// NewService constructs the orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// ListOrders returns a page of orders, newest first. Customers only ever
// see their own; admins see everything.
func (s *service) ListOrders(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, input ListOrdersInput) (*OrderListResult, error) {
	filter := ListFilter{Status: input.Status}
	if actorRole != enums.UserRoleAdmin {
		filter.UserID = &actorID
	}

	page := pagination.Normalize(input.Page)
	items, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	result := &OrderListResult{
		Orders: make([]OrderDTO, 0, len(items)),
		Page:   pagination.Page{Page: page.Page, Size: page.Size, Total: total},
	}
	for i := range items {
		result.Orders = append(result.Orders, *FromModel(&items[i]))
	}
	return result, nil
}

// GetOrder loads a single order. A customer asking for someone else's
// order gets the same answer as for an order that does not exist.
func (s *service) GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if actorRole != enums.UserRoleAdmin && order.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

// UpdateStatus moves an order along its lifecycle. Complete and canceled
// are terminal; only placed orders can move.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", order.Status))
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	order.Status = next
	return FromModel(order), nil
}
