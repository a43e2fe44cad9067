package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sweetcrumb/bakeshop-backend/pkg/db/models"
	"github.com/sweetcrumb/bakeshop-backend/pkg/enums"
)

// CartItemView is a cart line priced at the product's current price.
type CartItemView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartView is the priced cart shape returned to clients. Totals always
// reflect live catalog prices; nothing is frozen until checkout.
type CartView struct {
	ID     uuid.UUID        `json:"id"`
	Status enums.CartStatus `json:"status"`
	Items  []CartItemView   `json:"items"`
	Total  decimal.Decimal  `json:"total"`
}

func buildView(record *models.Cart) *CartView {
	view := &CartView{
		ID:     record.ID,
		Status: record.Status,
		Items:  make([]CartItemView, 0, len(record.Items)),
		Total:  decimal.Zero,
	}
	for _, item := range record.Items {
		lineTotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
		view.Items = append(view.Items, CartItemView{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			UnitPrice: item.Product.Price,
			Qty:       item.Qty,
			LineTotal: lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
	}
	return view
}
