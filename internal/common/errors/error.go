package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyAuth              = errors.New("missing authorization")
	ErrTokenInvalid           = errors.New("invalid token")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrMissingProductId       = errors.New("missing product id")
	ErrCartNotReady           = errors.New("cart store is not ready")
	ErrWishlistUnavailable    = errors.New("wishlist store unavailable")
	ErrNotInWishlist          = errors.New("product is not in wishlist")
	ErrMoveNotRemoved         = errors.New("item added to cart but not removed from wishlist")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
