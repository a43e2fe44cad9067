package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sweetcrumb/bakeshop-backend/api/responses"
	"github.com/sweetcrumb/bakeshop-backend/api/validators"
	ordersvc "github.com/sweetcrumb/bakeshop-backend/internal/orders"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	pkgerrors "github.com/sweetcrumb/bakeshop-backend/pkg/errors"
	"github.com/sweetcrumb/bakeshop-backend/pkg/logger"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=placed complete canceled"`
}

// AdminOrderUpdateStatus moves an order along its lifecycle.
func AdminOrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(chi.URLParam(r, "orderId"), "order id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}
