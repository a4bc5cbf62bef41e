package response

import (
	"github.com/shopspring/decimal"

	cartRequest "github.com/Alturino/storefront/cart/pkg/request"
)

// WishlistEntry mirrors one remote wishlist record. The remote store is
// authoritative; the mirror only holds entries the remote confirmed.
type WishlistEntry struct {
	ProductId      string              `json:"product_id"`
	Name           string              `json:"name"`
	CanonicalPrice decimal.Decimal     `json:"canonical_price"`
	SalePrice      *decimal.Decimal    `json:"sale_price,omitempty"`
	Image          string              `json:"image"`
	Variant        cartRequest.Variant `json:"variant,omitempty"`
}

type Wishlist struct {
	Entries []WishlistEntry `json:"entries"`
}
