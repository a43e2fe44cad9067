package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
	"github.com/sweetcrumb/bakeshop-backend/pkg/types"
)

// FulfillmentDateFormat is the wire format for fulfillment dates.
const FulfillmentDateFormat = "2006-01-02"

// OrderItemDTO is a line item priced at the snapshot taken during checkout.
type OrderItemDTO struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Qty           int             `json:"qty"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// OrderDTO is the order shape exposed over the API.
type OrderDTO struct {
	ID              uuid.UUID               `json:"id"`
	UserID          uuid.UUID               `json:"user_id"`
	FulfillmentDate string                  `json:"fulfillment_date"`
	RequestedTime   *string                 `json:"requested_time,omitempty"`
	Method          enums.FulfillmentMethod `json:"method"`
	Delivery        *types.DeliveryAddress  `json:"delivery,omitempty"`
	Status          enums.OrderStatus       `json:"status"`
	Total           decimal.Decimal         `json:"total"`
	Items           []OrderItemDTO          `json:"items"`
	CreatedAt       time.Time               `json:"created_at"`
}

// FromModel maps the persistence model to the DTO.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		FulfillmentDate: order.FulfillmentDate.Format(FulfillmentDateFormat),
		RequestedTime:   order.RequestedTime,
		Method:          order.Method,
		Delivery:        deliveryFromModel(order),
		Status:          order.Status,
		Total:           order.Total,
		Items:           make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID:     item.ProductID,
			Name:          item.Product.Name,
			Qty:           item.Qty,
			PriceSnapshot: item.PriceSnapshot,
			LineTotal:     item.PriceSnapshot.Mul(decimal.NewFromInt(int64(item.Qty))),
		})
	}
	return dto
}

func deliveryFromModel(order *models.Order) *types.DeliveryAddress {
	if order.Method != enums.FulfillmentMethodDelivery {
		return nil
	}
	address := &types.DeliveryAddress{}
	if order.DeliveryName != nil {
		address.Name = *order.DeliveryName
	}
	if order.DeliveryLine1 != nil {
		address.Line1 = *order.DeliveryLine1
	}
	if order.DeliveryLine2 != nil {
		address.Line2 = *order.DeliveryLine2
	}
	if order.DeliveryCity != nil {
		address.City = *order.DeliveryCity
	}
	if order.DeliveryState != nil {
		address.State = *order.DeliveryState
	}
	if order.DeliveryZip != nil {
		address.Zip = *order.DeliveryZip
	}
	return address
}
