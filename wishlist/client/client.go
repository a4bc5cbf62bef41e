package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/config"
	commonHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/wishlist/common/otel"
	"github.com/Alturino/storefront/wishlist/pkg/request"
	"github.com/Alturino/storefront/wishlist/pkg/response"
)

const headerShopperId = "X-Shopper-Id"

// Client calls the remote wishlist API. Calls carry a client-side
// timeout so a hanging remote never blocks the caller indefinitely.
type Client struct {
	baseUrl string
	client  *http.Client
}

func NewClient(cfg config.Wishlist) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseUrl: cfg.BaseUrl,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (t *Client) List(c context.Context, shopperId string) ([]response.WishlistEntry, error) {
	c, span := otel.Tracer.Start(c, "Client List")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client List").
		Str(log.KeyShopperID, shopperId).
		Logger()

	req, err := http.NewRequestWithContext(c, http.MethodGet, t.baseUrl+"/wishlist", nil)
	if err != nil {
		err = fmt.Errorf("failed creating wishlist list request with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	t.decorate(c, req, shopperId)

	resp, err := t.client.Do(req)
	if err != nil {
		err = fmt.Errorf(
			"failed listing wishlist with error=%w",
			errors.Join(commonErrors.ErrWishlistUnavailable, err),
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf(
			"wishlist store returned status code=%d with error=%w",
			resp.StatusCode,
			commonErrors.ErrWishlistUnavailable,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	entries := []response.WishlistEntry{}
	err = json.NewDecoder(resp.Body).Decode(&entries)
	if err != nil {
		err = fmt.Errorf(
			"failed decoding wishlist with error=%w",
			errors.Join(commonErrors.ErrWishlistUnavailable, err),
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyWishlistEntries, len(entries)).Msg("listed wishlist")

	return entries, nil
}

func (t *Client) Create(
	c context.Context,
	shopperId string,
	param request.AddEntry,
) (response.WishlistEntry, error) {
	c, span := otel.Tracer.Start(c, "Client Create")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client Create").
		Str(log.KeyShopperID, shopperId).
		Str(log.KeyProductID, param.ProductId).
		Logger()

	body, err := json.Marshal(param)
	if err != nil {
		err = fmt.Errorf("failed marshaling wishlist entry with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}

	req, err := http.NewRequestWithContext(
		c,
		http.MethodPost,
		t.baseUrl+"/wishlist",
		bytes.NewBuffer(body),
	)
	if err != nil {
		err = fmt.Errorf("failed creating wishlist create request with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}
	t.decorate(c, req, shopperId)
	req.Header.Add(commonHttp.HeaderContentType, commonHttp.HeaderValueJson)

	resp, err := t.client.Do(req)
	if err != nil {
		err = fmt.Errorf(
			"failed creating wishlist entry with error=%w",
			errors.Join(commonErrors.ErrWishlistUnavailable, err),
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		err = fmt.Errorf(
			"wishlist store returned status code=%d with error=%w",
			resp.StatusCode,
			commonErrors.ErrWishlistUnavailable,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}

	created := response.WishlistEntry{}
	err = json.NewDecoder(resp.Body).Decode(&created)
	if err != nil {
		err = fmt.Errorf(
			"failed decoding created wishlist entry with error=%w",
			errors.Join(commonErrors.ErrWishlistUnavailable, err),
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}
	logger.Info().Msg("created wishlist entry")

	return created, nil
}

func (t *Client) Delete(c context.Context, shopperId string, productId string) error {
	c, span := otel.Tracer.Start(c, "Client Delete")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Client Delete").
		Str(log.KeyShopperID, shopperId).
		Str(log.KeyProductID, productId).
		Logger()

	req, err := http.NewRequestWithContext(
		c,
		http.MethodDelete,
		t.baseUrl+"/wishlist/"+productId,
		nil,
	)
	if err != nil {
		err = fmt.Errorf("failed creating wishlist delete request with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	t.decorate(c, req, shopperId)

	resp, err := t.client.Do(req)
	if err != nil {
		err = fmt.Errorf(
			"failed deleting wishlist entry with error=%w",
			errors.Join(commonErrors.ErrWishlistUnavailable, err),
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		// 404 means the remote already has no such entry, which is the
		// state the caller asked for.
		logger.Info().Msg("deleted wishlist entry")
		return nil
	default:
		err = fmt.Errorf(
			"wishlist store returned status code=%d with error=%w",
			resp.StatusCode,
			commonErrors.ErrWishlistUnavailable,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
}

func (t *Client) decorate(c context.Context, req *http.Request, shopperId string) {
	req.Header.Add(headerShopperId, shopperId)
	if requestId := log.RequestIDFromContext(c); requestId != "" {
		req.Header.Add(commonHttp.HeaderRequestId, requestId)
	}
}
