package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
	"github.com/sweetcrumb/bakeshop-backend/pkg/pagination"
)

type stubOrderRepo struct {
	byID       map[uuid.UUID]*models.Order
	lastFilter ListFilter
	lastPage   pagination.Params
	updated    map[uuid.UUID]enums.OrderStatus
}

func newStubOrderRepo(orders ...*models.Order) *stubOrderRepo {
	repo := &stubOrderRepo{
		byID:    make(map[uuid.UUID]*models.Order),
		updated: make(map[uuid.UUID]enums.OrderStatus),
	}
	for _, order := range orders {
		repo.byID[order.ID] = order
	}
	return repo
}

func (s *stubOrderRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	s.byID[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := s.byID[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrderRepo) List(_ context.Context, filter ListFilter, page pagination.Params) ([]models.Order, int64, error) {
	s.lastFilter = filter
	s.lastPage = page
	var items []models.Order
	for _, order := range s.byID {
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		items = append(items, *order)
	}
	return items, int64(len(items)), nil
}

func (s *stubOrderRepo) ExistsActiveOnDate(context.Context, time.Time) (bool, error) {
	return false, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) error {
	s.updated[id] = status
	return nil
}

func testOrder(userID uuid.UUID, status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		FulfillmentDate: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
		Method:          enums.FulfillmentMethodPickup,
		Status:          status,
		Total:           decimal.RequireFromString("60.00"),
	}
}

func newOrderService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestListOrdersScopesCustomersToOwnOrders(t *testing.T) {
	t.Parallel()

	customer := uuid.New()
	repo := newStubOrderRepo(
		testOrder(customer, enums.OrderStatusPlaced),
		testOrder(uuid.New(), enums.OrderStatusPlaced),
	)
	svc := newOrderService(t, repo)

	result, err := svc.ListOrders(context.Background(), customer, enums.UserRoleCustomer, ListOrdersInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.UserID == nil || *repo.lastFilter.UserID != customer {
		t.Fatal("customer listings must be filtered to the caller")
	}
	if len(result.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(result.Orders))
	}
	if repo.lastPage.Size != pagination.DefaultSize {
		t.Fatalf("expected default page size, got %d", repo.lastPage.Size)
	}

	adminResult, err := svc.ListOrders(context.Background(), uuid.New(), enums.UserRoleAdmin, ListOrdersInput{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if repo.lastFilter.UserID != nil {
		t.Fatal("admin listings must not be scoped to a user")
	}
	if len(adminResult.Orders) != 2 {
		t.Fatalf("expected 2 orders for admin, got %d", len(adminResult.Orders))
	}
}

func TestGetOrderHidesOtherCustomersOrders(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	order := testOrder(owner, enums.OrderStatusPlaced)
	svc := newOrderService(t, newStubOrderRepo(order))

	got, err := svc.GetOrder(context.Background(), owner, enums.UserRoleCustomer, order.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.ID != order.ID {
		t.Fatal("expected the owner's order")
	}

	_, err = svc.GetOrder(context.Background(), uuid.New(), enums.UserRoleCustomer, order.ID)
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("foreign orders must look absent, got %v", err)
	}

	asAdmin, err := svc.GetOrder(context.Background(), uuid.New(), enums.UserRoleAdmin, order.ID)
	if err != nil || asAdmin.ID != order.ID {
		t.Fatalf("admin must see every order, got %v", err)
	}
}

func TestUpdateStatusEnforcesLifecycle(t *testing.T) {
	t.Parallel()

	placed := testOrder(uuid.New(), enums.OrderStatusPlaced)
	complete := testOrder(uuid.New(), enums.OrderStatusComplete)
	canceled := testOrder(uuid.New(), enums.OrderStatusCanceled)
	repo := newStubOrderRepo(placed, complete, canceled)
	svc := newOrderService(t, repo)

	updated, err := svc.UpdateStatus(context.Background(), placed.ID, enums.OrderStatusComplete)
	if err != nil {
		t.Fatalf("complete placed order: %v", err)
	}
	if updated.Status != enums.OrderStatusComplete {
		t.Fatalf("expected complete, got %s", updated.Status)
	}
	if repo.updated[placed.ID] != enums.OrderStatusComplete {
		t.Fatal("expected status persisted")
	}

	for _, terminal := range []*models.Order{complete, canceled} {
		_, err := svc.UpdateStatus(context.Background(), terminal.ID, enums.OrderStatusPlaced)
		if !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
			t.Fatalf("terminal order %s must refuse transitions, got %v", terminal.Status, err)
		}
	}

	_, err = svc.UpdateStatus(context.Background(), placed.ID, enums.OrderStatus("boxed"))
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown status must fail validation, got %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), uuid.New(), enums.OrderStatusComplete)
	if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("missing order must 404, got %v", err)
	}
}
