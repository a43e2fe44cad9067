package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sweetcrumb/bakeshop-backend/api/middleware"
	checkoutsvc "github.com/sweetcrumb/bakeshop-backend/internal/checkout"
	ordersvc "github.com/sweetcrumb/bakeshop-backend/internal/orders"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
)

type stubCheckoutService struct {
	result *ordersvc.OrderDTO
	err    error
	input  checkoutsvc.CheckoutInput
	userID uuid.UUID
}

func (s *stubCheckoutService) Execute(_ context.Context, userID uuid.UUID, input checkoutsvc.CheckoutInput) (*ordersvc.OrderDTO, error) {
	s.userID = userID
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.UserRole) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func TestCheckoutReturnsCreatedOrder(t *testing.T) {
	userID := uuid.New()
	svc := &stubCheckoutService{result: &ordersvc.OrderDTO{
		ID:              uuid.New(),
		UserID:          userID,
		FulfillmentDate: "2024-12-25",
		Status:          enums.OrderStatusPlaced,
	}}

	body := `{"fulfillment_date":"2024-12-25","method":"pickup"}`
	req := authedRequest(http.MethodPost, "/api/v1/checkout", body, userID, enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.userID != userID {
		t.Fatal("expected caller id forwarded to service")
	}
	if svc.input.Method != "pickup" || svc.input.FulfillmentDate != "2024-12-25" {
		t.Fatalf("unexpected input %+v", svc.input)
	}

	var envelope struct {
		Data ordersvc.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed order in envelope, got %s", envelope.Data.Status)
	}
}

func TestCheckoutRejectsUnknownFields(t *testing.T) {
	svc := &stubCheckoutService{}
	body := `{"fulfillment_date":"2024-12-25","method":"pickup","surprise":true}`
	req := authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutSurfacesConflict(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "an order is already scheduled for this fulfillment date")}
	body := `{"fulfillment_date":"2024-12-25","method":"pickup"}`
	req := authedRequest(http.MethodPost, "/api/v1/checkout", body, uuid.New(), enums.UserRoleCustomer)
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict code, got %s", envelope.Error.Code)
	}
	if !strings.Contains(envelope.Error.Message, "already scheduled") {
		t.Fatalf("client-fault message should pass through, got %q", envelope.Error.Message)
	}
}

func TestCheckoutRequiresAuthContext(t *testing.T) {
	svc := &stubCheckoutService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"fulfillment_date":"2024-12-25","method":"pickup"}`))
	resp := httptest.NewRecorder()
	Checkout(svc, nil)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
