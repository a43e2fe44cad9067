package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sweetcrumb/bakeshop-backend/internal/cart"
	"github.com/sweetcrumb/bakeshop-backend/internal/orders"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db"
	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
	"github.com/sweetcrumb/bakeshop-backend/pkg/types"
)

type checkoutHarness struct {
	conn   *gorm.DB
	carts  cart.Repository
	orders orders.Repository
	svc    Service
}

func newHarness(t *testing.T) *checkoutHarness {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	tables := []any{&models.User{}, &models.Product{}, &models.Cart{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{}}
	if err := conn.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// the same guard the postgres schema carries
	indexSQL := `CREATE UNIQUE INDEX uq_orders_one_per_day_active
		ON orders(fulfillment_date) WHERE status IN ('placed','complete')`
	if err := conn.Exec(indexSQL).Error; err != nil {
		t.Fatalf("create partial index: %v", err)
	}

	carts := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	svc, err := NewService(db.FromGorm(conn), carts, orderRepo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &checkoutHarness{conn: conn, carts: carts, orders: orderRepo, svc: svc}
}

func (h *checkoutHarness) seedProduct(t *testing.T, name, price string, active bool) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: decimal.RequireFromString(price), IsActive: active}
	if err := h.conn.Create(product).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func (h *checkoutHarness) seedCart(t *testing.T, userID uuid.UUID, lines map[*models.Product]int) *models.Cart {
	t.Helper()
	record := &models.Cart{UserID: userID, Status: enums.CartStatusDraft}
	if err := h.conn.Create(record).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for product, qty := range lines {
		item := &models.CartItem{CartID: record.ID, ProductID: product.ID, Qty: qty}
		if err := h.conn.Omit("Product").Create(item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return record
}

func standardCart(t *testing.T, h *checkoutHarness, userID uuid.UUID) {
	t.Helper()
	cake := h.seedProduct(t, "Classic Carrot Cake", "24.00", true)
	brownies := h.seedProduct(t, "Chocolate Brownie Box", "18.00", true)
	h.seedCart(t, userID, map[*models.Product]int{cake: 1, brownies: 2})
}

func TestExecutePlacesOrderWithSnapshots(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	cake := h.seedProduct(t, "Classic Carrot Cake", "24.00", true)
	brownies := h.seedProduct(t, "Chocolate Brownie Box", "18.00", true)
	draft := h.seedCart(t, userID, map[*models.Product]int{cake: 1, brownies: 2})

	requested := "14:30"
	order, err := h.svc.Execute(context.Background(), userID, CheckoutInput{
		FulfillmentDate: "2024-12-25",
		RequestedTime:   &requested,
		Method:          "pickup",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed, got %s", order.Status)
	}
	if !order.Total.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("expected total 60.00, got %s", order.Total)
	}
	if order.FulfillmentDate != "2024-12-25" {
		t.Fatalf("unexpected date %s", order.FulfillmentDate)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Items))
	}

	// the old cart closes and a fresh draft opens
	var closed models.Cart
	if err := h.conn.First(&closed, "id = ?", draft.ID).Error; err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if closed.Status != enums.CartStatusCheckedOut {
		t.Fatalf("expected checked_out cart, got %s", closed.Status)
	}
	fresh, err := h.carts.FindDraftByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("load new draft: %v", err)
	}
	if fresh.ID == draft.ID || len(fresh.Items) != 0 {
		t.Fatal("expected a brand new empty draft cart")
	}

	// later catalog edits must not rewrite history
	if err := h.conn.Model(&models.Product{}).Where("id = ?", cake.ID).
		Update("price", decimal.RequireFromString("99.00")).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}
	reloaded, err := h.orders.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if !reloaded.Total.Equal(decimal.RequireFromString("60.00")) {
		t.Fatalf("total must stay 60.00 after reprice, got %s", reloaded.Total)
	}
	for _, item := range reloaded.Items {
		if item.ProductID == cake.ID && !item.PriceSnapshot.Equal(decimal.RequireFromString("24.00")) {
			t.Fatalf("snapshot must stay 24.00, got %s", item.PriceSnapshot)
		}
	}
	_ = brownies
}

func TestExecuteRejectsDoubleBookedDate(t *testing.T) {
	h := newHarness(t)

	first := uuid.New()
	second := uuid.New()
	standardCart(t, h, first)
	standardCart(t, h, second)

	if _, err := h.svc.Execute(context.Background(), first, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "pickup"}); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	_, err := h.svc.Execute(context.Background(), second, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "pickup"})
	if !pkgerrors.Is(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on a taken date, got %v", err)
	}

	// the failed checkout must leave the second cart untouched
	fresh, findErr := h.carts.FindDraftByUser(context.Background(), second)
	if findErr != nil {
		t.Fatalf("load second cart: %v", findErr)
	}
	if len(fresh.Items) != 2 {
		t.Fatalf("expected cart intact after conflict, got %d items", len(fresh.Items))
	}

	// a free date goes through
	if _, err := h.svc.Execute(context.Background(), second, CheckoutInput{FulfillmentDate: "2024-12-26", Method: "pickup"}); err != nil {
		t.Fatalf("checkout on free date: %v", err)
	}
}

func TestExecuteCanceledOrderReleasesDate(t *testing.T) {
	h := newHarness(t)

	first := uuid.New()
	second := uuid.New()
	standardCart(t, h, first)
	standardCart(t, h, second)

	placed, err := h.svc.Execute(context.Background(), first, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "pickup"})
	if err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if err := h.orders.UpdateStatus(context.Background(), placed.ID, enums.OrderStatusCanceled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := h.svc.Execute(context.Background(), second, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "pickup"}); err != nil {
		t.Fatalf("canceled orders must release the date, got %v", err)
	}
}

func TestUniqueIndexBacksUpThePrecheck(t *testing.T) {
	h := newHarness(t)

	// two raw inserts model concurrent checkouts that both pass the
	// pre-check before either commits
	newRival := func() *models.Order {
		return &models.Order{
			UserID:          uuid.New(),
			FulfillmentDate: mustDate(t, "2024-12-25"),
			Method:          enums.FulfillmentMethodPickup,
			Status:          enums.OrderStatusPlaced,
			Total:           decimal.RequireFromString("10.00"),
		}
	}
	if _, err := h.orders.Create(context.Background(), newRival()); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	_, err := h.orders.Create(context.Background(), newRival())
	if err == nil {
		t.Fatal("expected unique violation on the second insert")
	}
	if !db.IsUniqueViolation(err, models.ConstraintOneOrderPerDay) {
		t.Fatalf("violation must be recognized as the one-per-day guard: %v", err)
	}
}

func TestExecuteValidatesDeliveryAddress(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()
	standardCart(t, h, userID)

	_, err := h.svc.Execute(context.Background(), userID, CheckoutInput{
		FulfillmentDate: "2024-12-25",
		Method:          "delivery",
		Delivery: &types.DeliveryAddress{
			Name:  "Pat Baker",
			Line1: "1 Flour St",
			State: "OR",
			Zip:   "97201",
		},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details, got %#v", typed.Details())
	}
	missing, _ := details["missing_fields"].([]string)
	if len(missing) != 1 || missing[0] != "city" {
		t.Fatalf("expected city flagged, got %v", missing)
	}

	_, err = h.svc.Execute(context.Background(), userID, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "delivery"})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for absent address, got %v", err)
	}

	// the cart survives every failed attempt
	fresh, findErr := h.carts.FindDraftByUser(context.Background(), userID)
	if findErr != nil || len(fresh.Items) != 2 {
		t.Fatalf("cart must be intact, err=%v", findErr)
	}
}

func TestExecuteDeliveryOrderCarriesAddress(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()
	standardCart(t, h, userID)

	order, err := h.svc.Execute(context.Background(), userID, CheckoutInput{
		FulfillmentDate: "2024-12-25",
		Method:          "delivery",
		Delivery: &types.DeliveryAddress{
			Name:  "Pat Baker",
			Line1: "1 Flour St",
			City:  "Portland",
			State: "OR",
			Zip:   "97201",
		},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if order.Delivery == nil || order.Delivery.City != "Portland" {
		t.Fatalf("expected delivery address on order, got %#v", order.Delivery)
	}
}

func TestExecuteRejectsEmptyCartAndBadInput(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	// no draft cart at all
	_, err := h.svc.Execute(context.Background(), userID, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "pickup"})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing cart, got %v", err)
	}

	// draft cart with no lines
	h.seedCart(t, userID, nil)
	_, err = h.svc.Execute(context.Background(), userID, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "pickup"})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}

	for name, input := range map[string]CheckoutInput{
		"bad date":   {FulfillmentDate: "25-12-2024", Method: "pickup"},
		"bad method": {FulfillmentDate: "2024-12-25", Method: "courier"},
		"bad time":   {FulfillmentDate: "2024-12-25", Method: "pickup", RequestedTime: strPtr("2pm")},
	} {
		if _, err := h.svc.Execute(context.Background(), userID, input); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestExecuteRejectsInactiveProductInCart(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()

	cake := h.seedProduct(t, "Classic Carrot Cake", "24.00", true)
	h.seedCart(t, userID, map[*models.Product]int{cake: 1})

	if err := h.conn.Model(&models.Product{}).Where("id = ?", cake.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := h.svc.Execute(context.Background(), userID, CheckoutInput{FulfillmentDate: "2024-12-25", Method: "pickup"})
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for retired product, got %v", err)
	}

	// nothing was placed and the cart is still a draft
	var count int64
	if err := h.conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders, got %d", count)
	}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(orders.FulfillmentDateFormat, value)
	if err != nil {
		t.Fatalf("parse date %s: %v", value, err)
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
}

func strPtr(value string) *string {
	return &value
}
