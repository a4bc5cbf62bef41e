package common

const (
	AppStorefrontService = "storefront-service"
	AppCartStore         = "cart-store"
	AppWishlistStore     = "wishlist-store"
	AppCurrencyProjector = "currency-projector"
	AppSessionSignal     = "session-signal"
	AudienceShopper      = "audience-shopper"
	IssuerUserService    = "user-service"
)
