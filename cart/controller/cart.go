package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/common/otel"
	"github.com/Alturino/storefront/cart/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	commonHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

type CartController struct {
	service *service.CartService
}

func AttachCartController(mux *mux.Router, service *service.CartService) {
	controller := CartController{service: service}

	router := mux.PathPrefix("/carts").Subrouter()
	router.HandleFunc("", controller.Cart).Methods(http.MethodGet)
	router.HandleFunc("", controller.Clear).Methods(http.MethodDelete)
	router.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{productId}", controller.UpdateQuantity).Methods(http.MethodPut)
	router.HandleFunc("/items/{productId}", controller.RemoveItem).Methods(http.MethodDelete)
}

func statusCodeFromError(err error) int {
	switch {
	case errors.Is(err, commonErrors.ErrMissingProductId):
		return http.StatusBadRequest
	case errors.Is(err, commonErrors.ErrCartNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController AddItem").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.AddItem{}
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
		Str(log.KeyProcess, "adding item").
		Str(log.KeyProductID, reqBody.ProductId).
		Logger()
	logger.Info().Msg("adding item")
	c = logger.WithContext(c)
	line, err := t.service.AddItem(c, reqBody)
	if err != nil {
		err = fmt.Errorf("failed adding item with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("added item")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("%s added to cart", line.Name),
		"data":       line,
	})
}

func (t CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController UpdateQuantity").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.UpdateQuantity{}
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
	reqBody.ProductId = mux.Vars(r)["productId"]
	logger.Info().Msg("decoded request body")

	logger = logger.With().
		Str(log.KeyProcess, "updating quantity").
		Str(log.KeyProductID, reqBody.ProductId).
		Logger()
	logger.Info().Msg("updating quantity")
	c = logger.WithContext(c)
	if err := t.service.UpdateQuantity(c, reqBody); err != nil {
		err = fmt.Errorf("failed updating quantity with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("updated quantity")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "quantity updated",
	})
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	productId := mux.Vars(r)["productId"]
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController RemoveItem").
		Str(log.KeyProcess, "removing item").
		Str(log.KeyProductID, productId).
		Logger()

	logger.Info().Msg("removing item")
	c = logger.WithContext(c)
	if err := t.service.RemoveItem(c, productId); err != nil {
		err = fmt.Errorf("failed removing item with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("removed item")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "item removed from cart",
	})
}

func (t CartController) Clear(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Clear").
		Str(log.KeyProcess, "clearing cart").
		Logger()

	logger.Info().Msg("clearing cart")
	c = logger.WithContext(c)
	if err := t.service.Clear(c); err != nil {
		err = fmt.Errorf("failed clearing cart with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("cleared cart")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "cart cleared",
	})
}

func (t CartController) Cart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Cart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartController Cart").
		Str(log.KeyProcess, "reading cart").
		Logger()

	logger.Info().Msg("reading cart")
	c = logger.WithContext(c)
	cart, err := t.service.Cart(c)
	if err != nil {
		err = fmt.Errorf("failed reading cart with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": statusCodeFromError(err),
			"message":    err.Error(),
		})
		return
	}
	logger.Info().Msg("read cart")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"data":       cart,
	})
}
