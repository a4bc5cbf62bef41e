package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	cartService "github.com/Alturino/storefront/cart/service"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	commonHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/wishlist/common/otel"
	"github.com/Alturino/storefront/wishlist/service"
	"github.com/Alturino/storefront/wishlist/pkg/request"
)

type WishlistController struct {
	service *service.WishlistService
	cart    *cartService.CartService
}

func AttachWishlistController(
	mux *mux.Router,
	wishlistSvc *service.WishlistService,
	cartSvc *cartService.CartService,
) {
	controller := WishlistController{service: wishlistSvc, cart: cartSvc}

	router := mux.PathPrefix("/wishlists").Subrouter()
	router.HandleFunc("", controller.Wishlist).Methods(http.MethodGet)
	router.HandleFunc("/items", controller.Add).Methods(http.MethodPost)
	router.HandleFunc("/items/{productId}", controller.Remove).Methods(http.MethodDelete)
	router.HandleFunc("/items/{productId}/move-to-cart", controller.MoveToCart).
		Methods(http.MethodPost)
}

func statusCodeFromError(err error) int {
	switch {
	case errors.Is(err, commonErrors.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case errors.Is(err, commonErrors.ErrMissingProductId):
		return http.StatusBadRequest
	case errors.Is(err, commonErrors.ErrNotInWishlist):
		return http.StatusNotFound
	case errors.Is(err, commonErrors.ErrWishlistUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, commonErrors.ErrCartNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func (t WishlistController) Wishlist(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "WishlistController Wishlist")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistController Wishlist").
		Str(log.KeyProcess, "reading wishlist").
		Logger()

	logger.Info().Msg("reading wishlist")
	c = logger.WithContext(c)
	wishlist := t.service.Wishlist(c)
	logger.Info().Int(log.KeyWishlistEntries, len(wishlist.Entries)).Msg("read wishlist")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"data":       wishlist,
	})
}

func (t WishlistController) Add(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "WishlistController Add")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistController Add").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.AddEntry{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "validating requestbody").Logger()
	logger.Info().Msg("validating request body")
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().
		Str(log.KeyProcess, "adding wishlist entry").
		Str(log.KeyProductID, reqBody.ProductId).
		Logger()
	logger.Info().Msg("adding wishlist entry")
	c = logger.WithContext(c)
	entry, err := t.service.Add(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed adding wishlist entry with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("added wishlist entry")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("%s added to wishlist", entry.Name),
		"data":       entry,
	})
}

func (t WishlistController) Remove(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "WishlistController Remove")
	defer span.End()

	productId := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistController Remove").
		Str(log.KeyProcess, "removing wishlist entry").
		Str(log.KeyProductID, productId).
		Logger()

	logger.Info().Msg("removing wishlist entry")
	c = logger.WithContext(c)
	if err := t.service.Remove(c, productId); err != nil {
		err = fmt.Errorf("failed removing wishlist entry with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("removed wishlist entry")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "entry removed from wishlist",
	})
}

func (t WishlistController) MoveToCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "WishlistController MoveToCart")
	defer span.End()

	productId := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistController MoveToCart").
		Str(log.KeyProcess, "moving wishlist entry to cart").
		Str(log.KeyProductID, productId).
		Logger()

	logger.Info().Msg("moving wishlist entry to cart")
	c = logger.WithContext(c)
	line, err := t.service.MoveToCart(c, productId, t.cart)
	if err != nil && errors.Is(err, commonErrors.ErrMoveNotRemoved) {
		// Partial success: the cart add committed. Report it as a
		// warning, never as a failure.
		logger.Warn().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "success",
			"statusCode": http.StatusOK,
			"warning":    err.Error(),
			"data":       line,
		})
		return
	}
	if err != nil {
		err = fmt.Errorf("failed moving wishlist entry to cart with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("moved wishlist entry to cart")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("%s moved to cart", line.Name),
		"data":       line,
	})
}
