package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestId := r.Header.Get(inHttp.HeaderRequestId)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c, span := otel.Tracer.Start(
			r.Context(),
			"Logging",
			trace.WithAttributes(
				attribute.String(log.KeyRequestID, requestId),
				attribute.String(log.KeyRequestHost, r.Host),
				attribute.String(log.KeyRequestIp, r.RemoteAddr),
				attribute.String(log.KeyRequestMethod, r.Method),
				attribute.String(log.KeyRequestURI, r.RequestURI),
				attribute.String(log.KeyRequestURL, r.URL.String()),
			),
		)
		defer span.End()

		var buffer bytes.Buffer
		tee := io.TeeReader(r.Body, &buffer)
		requestBody := map[string]interface{}{}
		json.NewDecoder(tee).Decode(&requestBody)
		if requestBody["token"] != nil {
			requestBody["token"] = "***"
		}
		r.Body = io.NopCloser(&buffer)

		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyRequestID, requestId).
			Dict(log.KeyRequestBody, zerolog.Dict().
				Any(log.KeyRequestHeader, r.Header).
				Str(log.KeyRequestHost, r.Host).
				Str(log.KeyRequestIp, r.RemoteAddr).
				Str(log.KeyRequestMethod, r.Method).
				Str(log.KeyRequestURI, r.RequestURI).
				Str(log.KeyRequestURL, r.URL.String()).
				Any("body", requestBody)).
			Str(log.KeyTag, "Logging").Logger()

		logger.Trace().Msg("attaching request value to context")
		c = log.AttachRequestIDToContext(c, requestId)
		c = logger.WithContext(c)
		r = r.WithContext(c)
		logger.Trace().Msg("attached request value to context")

		next.ServeHTTP(w, r)
	})
}
