package request

import (
	"github.com/shopspring/decimal"
)

type Variant struct {
	Size  string `json:"size,omitempty"`
	Style string `json:"style,omitempty"`
}

type AddItem struct {
	ProductId string          `validate:"required" json:"product_id"`
	Name      string          `validate:"required" json:"name"`
	UnitPrice decimal.Decimal `validate:"required" json:"unit_price"`
	Quantity  int32           `validate:"gte=0"    json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Variant   Variant         `json:"variant,omitempty"`
	SourceTag string          `json:"source_tag,omitempty"`
}

type UpdateQuantity struct {
	ProductId string `validate:"required" json:"product_id"`
	Quantity  int32  `json:"quantity"`
}
