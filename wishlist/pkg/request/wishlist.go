package request

import (
	"github.com/shopspring/decimal"

	cartRequest "github.com/Alturino/storefront/cart/pkg/request"
)

type AddEntry struct {
	ProductId      string              `validate:"required" json:"product_id"`
	Name           string              `validate:"required" json:"name"`
	CanonicalPrice decimal.Decimal     `validate:"required" json:"canonical_price"`
	SalePrice      *decimal.Decimal    `json:"sale_price,omitempty"`
	Image          string              `validate:"required" json:"image"`
	Variant        cartRequest.Variant `json:"variant,omitempty"`
}
