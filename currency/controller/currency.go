package controller

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/currency/common/otel"
	"github.com/Alturino/storefront/currency/service"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	commonHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

type CurrencyController struct {
	projector *service.Projector
}

func AttachCurrencyController(mux *mux.Router, projector *service.Projector) {
	controller := CurrencyController{projector: projector}

	router := mux.PathPrefix("/currencies").Subrouter()
	router.HandleFunc("", controller.Currencies).Methods(http.MethodGet)
	router.HandleFunc("/toggle", controller.Toggle).Methods(http.MethodPost)
	router.HandleFunc("/project", controller.Project).Methods(http.MethodGet)
}

func (t CurrencyController) Currencies(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CurrencyController Currencies")
	defer span.End()

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"data": map[string]interface{}{
			"selected":   t.projector.Selected(),
			"currencies": t.projector.Currencies(),
		},
	})
}

func (t CurrencyController) Toggle(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CurrencyController Toggle")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CurrencyController Toggle").
		Str(log.KeyProcess, "toggling currency").
		Logger()

	logger.Info().Msg("toggling currency")
	c = logger.WithContext(c)
	currency := t.projector.Toggle(c)
	logger.Info().Str(log.KeyCurrencyCode, currency.Code).Msg("toggled currency")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("display currency is now %s", currency.Code),
		"data":       currency,
	})
}

func (t CurrencyController) Project(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CurrencyController Project")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CurrencyController Project").
		Str(log.KeyProcess, "parsing amount").
		Logger()

	rawAmount := r.URL.Query().Get("amount")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		err = fmt.Errorf("failed parsing amount=%s with error=%w", rawAmount, err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusBadRequest,
			"message":    err.Error(),
		})
		return
	}

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"data":       t.projector.Project(amount),
	})
}
