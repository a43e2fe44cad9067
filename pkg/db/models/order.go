package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
)

// ConstraintOneOrderPerDay names the partial unique index that allows at
// most one placed-or-complete order per fulfillment date. Canceled orders
// fall outside the index and release their date.
const ConstraintOneOrderPerDay = "uq_orders_one_per_day_active"

// Order is an immutable record of a completed checkout. Line items carry
// price snapshots; only Status may change afterwards.
type Order struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	FulfillmentDate time.Time               `gorm:"column:fulfillment_date;type:date;not null"`
	RequestedTime   *string                 `gorm:"column:requested_time;type:text"`
	Method          enums.FulfillmentMethod `gorm:"column:method;type:text;not null"`
	DeliveryName    *string                 `gorm:"column:delivery_name;type:text"`
	DeliveryLine1   *string                 `gorm:"column:delivery_line1;type:text"`
	DeliveryLine2   *string                 `gorm:"column:delivery_line2;type:text"`
	DeliveryCity    *string                 `gorm:"column:delivery_city;type:text"`
	DeliveryState   *string                 `gorm:"column:delivery_state;type:text"`
	DeliveryZip     *string                 `gorm:"column:delivery_zip;type:text"`
	Status          enums.OrderStatus       `gorm:"column:status;type:text;not null;default:'placed'"`
	Total           decimal.Decimal         `gorm:"column:total;type:numeric(10,2);not null"`
	Items           []OrderItem             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
