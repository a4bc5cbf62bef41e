package response

import (
	"github.com/shopspring/decimal"
)

type Currency struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"`
}

// Projection is a display-ready price. Amount is either a fixed
// two-decimal string or the "Free" sentinel, in which case Symbol is
// empty.
type Projection struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

func (p Projection) Display() string {
	return p.Symbol + p.Amount
}
