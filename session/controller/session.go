package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	commonHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/session/common/otel"
	"github.com/Alturino/storefront/session/service"
	"github.com/Alturino/storefront/session/pkg/request"
)

type SessionController struct {
	signal *service.Signal
}

func AttachSessionController(mux *mux.Router, signal *service.Signal) {
	controller := SessionController{signal: signal}

	router := mux.PathPrefix("/sessions").Subrouter()
	router.HandleFunc("", controller.Login).Methods(http.MethodPost)
	router.HandleFunc("", controller.Logout).Methods(http.MethodDelete)
}

func (t SessionController) Login(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController Login").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "decoding requestbody").Logger()
	logger.Info().Msg("decoding requestbody")
	reqBody := request.Login{}
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

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Info().Msg("logging in")
	c = logger.WithContext(c)
	shopperId, err := t.signal.Login(c, reqBody.Token)
	if err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
			"status":     "failed",
			"statusCode": http.StatusUnauthorized,
			"message":    err.Error(),
		})
		return
	}
	logger = logger.With().Str(log.KeyShopperID, shopperId).Logger()
	logger.Info().Msg("logged in")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "logged in",
		"data": map[string]interface{}{
			"shopperId": shopperId,
		},
	})
}

func (t SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController Logout").
		Str(log.KeyProcess, "logging out").
		Logger()

	logger.Info().Msg("logging out")
	c = logger.WithContext(c)
	t.signal.Logout(c)
	logger.Info().Msg("logged out")

	commonHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "logged out",
	})
}
