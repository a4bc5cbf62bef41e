package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/request"
)

// CartLine is one product in the cart. At most one line exists per
// product; repeated adds merge into the quantity.
type CartLine struct {
	ProductId string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image,omitempty"`
	Variant   request.Variant `json:"variant,omitempty"`
	SourceTag string          `json:"source_tag,omitempty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

type Cart struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}
