package controllers

import (
	"net/http"

	"github.com/sweetcrumb/bakeshop-backend/api/responses"
	"github.com/sweetcrumb/bakeshop-backend/api/validators"
	checkoutsvc "github.com/sweetcrumb/bakeshop-backend/internal/checkout"
	"github.com/sweetcrumb/bakeshop-backend/pkg/logger"
	"github.com/sweetcrumb/bakeshop-backend/pkg/types"
)

type checkoutRequest struct {
	FulfillmentDate string                 `json:"fulfillment_date" validate:"required"`
	RequestedTime   *string                `json:"requested_time,omitempty"`
	Method          string                 `json:"method" validate:"required,oneof=pickup delivery"`
	Delivery        *types.DeliveryAddress `json:"delivery,omitempty"`
}

// Checkout places an order from the caller's draft cart.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Execute(r.Context(), userID, checkoutsvc.CheckoutInput{
			FulfillmentDate: payload.FulfillmentDate,
			RequestedTime:   payload.RequestedTime,
			Method:          payload.Method,
			Delivery:        payload.Delivery,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
