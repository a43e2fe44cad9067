package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetcrumb/bakeshop-backend/internal/cart"
	"github.com/sweetcrumb/bakeshop-backend/internal/orders"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
	"github.com/sweetcrumb/bakeshop-backend/pkg/types"
)

// RequestedTimeFormat is the wire format for the optional pickup or
// delivery time.
const RequestedTimeFormat = "15:04"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CheckoutInput carries the validated checkout payload.
type CheckoutInput struct {
	FulfillmentDate string
	RequestedTime   *string
	Method          string
	Delivery        *types.DeliveryAddress
}

// Service turns the draft cart into a placed order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error)
}

type service struct {
	tx     txRunner
	carts  cart.Repository
	orders orders.Repository
}

// NewService builds the checkout service.
func NewService(tx txRunner, carts cart.Repository, orderRepo orders.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{tx: tx, carts: carts, orders: orderRepo}, nil
}

// Execute places an order from the user's draft cart. Everything runs in
// one transaction: the order insert, the price snapshots, flipping the
// cart, and opening the next draft. The bakery takes at most one active
// order per fulfillment date; the partial unique index backs that up
// against concurrent checkouts the pre-check cannot see.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*orders.OrderDTO, error) {
	method, err := enums.ParseFulfillmentMethod(input.Method)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method must be pickup or delivery")
	}

	date, err := parseFulfillmentDate(input.FulfillmentDate)
	if err != nil {
		return nil, err
	}

	if input.RequestedTime != nil {
		if _, err := time.Parse(RequestedTimeFormat, *input.RequestedTime); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested_time must be HH:MM")
		}
	}

	delivery, err := resolveDelivery(method, input.Delivery)
	if err != nil {
		return nil, err
	}

	var placed *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		record, err := cartRepo.FindDraftByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		taken, err := orderRepo.ExistsActiveOnDate(ctx, date)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check fulfillment date")
		}
		if taken {
			return dateTakenError()
		}

		items, total, err := snapshotItems(record.Items)
		if err != nil {
			return err
		}

		order := &models.Order{
			UserID:          userID,
			FulfillmentDate: date,
			RequestedTime:   input.RequestedTime,
			Method:          method,
			Status:          enums.OrderStatusPlaced,
			Total:           total,
			Items:           items,
		}
		applyDelivery(order, delivery)

		created, err := orderRepo.Create(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err, models.ConstraintOneOrderPerDay) {
				return dateTakenError()
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		if err := cartRepo.UpdateStatus(ctx, record.ID, enums.CartStatusCheckedOut); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close cart")
		}
		if _, err := cartRepo.Create(ctx, &models.Cart{UserID: userID, Status: enums.CartStatusDraft}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open next cart")
		}

		placed = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return orders.FromModel(placed), nil
}

func parseFulfillmentDate(value string) (time.Time, error) {
	parsed, err := time.Parse(orders.FulfillmentDateFormat, value)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "fulfillment_date must be YYYY-MM-DD")
	}
	// midnight UTC keeps date equality stable across drivers
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
}

func resolveDelivery(method enums.FulfillmentMethod, address *types.DeliveryAddress) (*types.DeliveryAddress, error) {
	if method != enums.FulfillmentMethodDelivery {
		return nil, nil
	}
	if address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address required")
	}
	if missing := address.MissingFields(); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is incomplete").
			WithDetails(map[string]any{"missing_fields": missing})
	}
	return address, nil
}

func applyDelivery(order *models.Order, address *types.DeliveryAddress) {
	if address == nil {
		return
	}
	order.DeliveryName = &address.Name
	order.DeliveryLine1 = &address.Line1
	if address.Line2 != "" {
		line2 := address.Line2
		order.DeliveryLine2 = &line2
	}
	order.DeliveryCity = &address.City
	order.DeliveryState = &address.State
	order.DeliveryZip = &address.Zip
}

func snapshotItems(lines []models.CartItem) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		product := line.Product
		if product.ID == uuid.Nil {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "a product in the cart no longer exists")
		}
		if !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("%s is no longer available", product.Name))
		}
		items = append(items, models.OrderItem{
			ProductID:     product.ID,
			Qty:           line.Qty,
			PriceSnapshot: product.Price,
			Product:       product,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return items, total, nil
}

func dateTakenError() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "an order is already scheduled for this fulfillment date")
}
