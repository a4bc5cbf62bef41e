package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/common/otel"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/notice"
	"github.com/Alturino/storefront/internal/storage"
)

type state int32

const (
	stateUninitialized state = iota
	stateLoading
	stateReady
)

type persistedCart struct {
	Lines []response.CartLine `json:"lines"`
}

// CartService owns the device-local cart. It is the only writer of its
// persisted blob and keeps at most one line per product.
type CartService struct {
	mu       sync.Mutex
	state    state
	lines    map[string]response.CartLine
	order    []string
	store    storage.Store
	key      string
	notifier notice.Publisher
}

func NewCartService(store storage.Store, key string, notifier notice.Publisher) *CartService {
	return &CartService{
		state:    stateUninitialized,
		lines:    map[string]response.CartLine{},
		store:    store,
		key:      key,
		notifier: notifier,
	}
}

// Hydrate performs the one-time storage read. The store accepts no
// operation until it completes; an unreadable or corrupt blob hydrates
// to an empty cart.
func (svc *CartService) Hydrate(c context.Context) error {
	c, span := otel.Tracer.Start(c, "CartService Hydrate")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Hydrate").
		Str(log.KeyStorageKey, svc.key).
		Logger()

	svc.mu.Lock()
	if svc.state != stateUninitialized {
		svc.mu.Unlock()
		logger.Info().Msg("cart already hydrated")
		return nil
	}
	svc.state = stateLoading
	svc.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "reading persisted cart").Logger()
	logger.Info().Msg("reading persisted cart")
	blob, err := svc.store.Get(c, svc.key)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		err = fmt.Errorf("failed reading persisted cart with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg("starting with empty cart")
		blob = nil
	}

	persisted := persistedCart{}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &persisted); err != nil {
			err = fmt.Errorf("failed unmarshaling persisted cart with error=%w", err)
			commonErrors.HandleError(err, span)
			logger.Warn().Err(err).Msg("persisted cart is corrupt, starting with empty cart")
			persisted = persistedCart{}
		}
	}

	svc.mu.Lock()
	for _, line := range persisted.Lines {
		if line.ProductId == "" || line.Quantity <= 0 {
			continue
		}
		if _, ok := svc.lines[line.ProductId]; ok {
			continue
		}
		svc.lines[line.ProductId] = line
		svc.order = append(svc.order, line.ProductId)
	}
	svc.state = stateReady
	lineCount := len(svc.lines)
	svc.mu.Unlock()

	logger.Info().Int(log.KeyCartLines, lineCount).Msg("hydrated cart")
	return nil
}

func (svc *CartService) AddItem(c context.Context, param request.AddItem) (response.CartLine, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyProductID, param.ProductId).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	if param.ProductId == "" {
		err := fmt.Errorf("failed adding item with error=%w", commonErrors.ErrMissingProductId)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartLine{}, err
	}

	quantity := param.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	svc.mu.Lock()
	if svc.state != stateReady {
		svc.mu.Unlock()
		err := fmt.Errorf("failed adding item with error=%w", commonErrors.ErrCartNotReady)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.CartLine{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "merging cart line").Logger()
	line, ok := svc.lines[param.ProductId]
	if ok {
		line.Quantity += quantity
		logger.Info().
			Int32(log.KeyMergedQuantity, line.Quantity).
			Msg("merged cart line")
	} else {
		line = response.CartLine{
			ProductId: param.ProductId,
			Name:      param.Name,
			Quantity:  quantity,
			UnitPrice: param.UnitPrice,
			Image:     param.Image,
			Variant:   param.Variant,
			SourceTag: param.SourceTag,
		}
		svc.order = append(svc.order, param.ProductId)
		logger.Info().Msg("inserted cart line")
	}
	svc.lines[param.ProductId] = line
	svc.mu.Unlock()

	svc.persist(c)
	svc.notifier.Publish(c, notice.Info(fmt.Sprintf("%s added to cart", line.Name)))

	return line, nil
}

func (svc *CartService) UpdateQuantity(c context.Context, param request.UpdateQuantity) error {
	c, span := otel.Tracer.Start(c, "CartService UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateQuantity").
		Str(log.KeyProductID, param.ProductId).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	if param.ProductId == "" {
		err := fmt.Errorf("failed updating quantity with error=%w", commonErrors.ErrMissingProductId)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	svc.mu.Lock()
	if svc.state != stateReady {
		svc.mu.Unlock()
		err := fmt.Errorf("failed updating quantity with error=%w", commonErrors.ErrCartNotReady)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	line, ok := svc.lines[param.ProductId]
	if !ok {
		svc.mu.Unlock()
		logger.Info().Msg("product not in cart, nothing to update")
		return nil
	}

	removed := false
	if param.Quantity <= 0 {
		svc.deleteLineLocked(param.ProductId)
		removed = true
		logger.Info().Msg("quantity reached zero, removed cart line")
	} else {
		line.Quantity = param.Quantity
		svc.lines[param.ProductId] = line
		logger.Info().Msg("updated cart line quantity")
	}
	svc.mu.Unlock()

	svc.persist(c)
	if removed {
		svc.notifier.Publish(c, notice.Info(fmt.Sprintf("%s removed from cart", line.Name)))
		return nil
	}
	svc.notifier.Publish(c, notice.Info(fmt.Sprintf("%s quantity updated", line.Name)))
	return nil
}

func (svc *CartService) RemoveItem(c context.Context, productId string) error {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyProductID, productId).
		Logger()

	if productId == "" {
		err := fmt.Errorf("failed removing item with error=%w", commonErrors.ErrMissingProductId)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	svc.mu.Lock()
	if svc.state != stateReady {
		svc.mu.Unlock()
		err := fmt.Errorf("failed removing item with error=%w", commonErrors.ErrCartNotReady)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	line, ok := svc.lines[productId]
	if !ok {
		svc.mu.Unlock()
		logger.Info().Msg("product not in cart, nothing to remove")
		return nil
	}
	svc.deleteLineLocked(productId)
	svc.mu.Unlock()

	logger.Info().Msg("removed cart line")
	svc.persist(c)
	svc.notifier.Publish(c, notice.Info(fmt.Sprintf("%s removed from cart", line.Name)))
	return nil
}

func (svc *CartService) Clear(c context.Context) error {
	c, span := otel.Tracer.Start(c, "CartService Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService Clear").
		Str(log.KeyStorageKey, svc.key).
		Logger()

	svc.mu.Lock()
	if svc.state != stateReady {
		svc.mu.Unlock()
		err := fmt.Errorf("failed clearing cart with error=%w", commonErrors.ErrCartNotReady)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	svc.lines = map[string]response.CartLine{}
	svc.order = nil
	svc.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "erasing persisted cart").Logger()
	logger.Info().Msg("erasing persisted cart")
	if err := svc.store.Delete(c, svc.key); err != nil {
		err = fmt.Errorf("failed erasing persisted cart with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		svc.notifier.Publish(c, notice.Warning("cart cleared but device storage could not be erased"))
		return nil
	}
	logger.Info().Msg("erased persisted cart")

	svc.notifier.Publish(c, notice.Info("cart cleared"))
	return nil
}

// Cart returns a snapshot in insertion order.
func (svc *CartService) Cart(c context.Context) (response.Cart, error) {
	_, span := otel.Tracer.Start(c, "CartService Cart")
	defer span.End()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.state != stateReady {
		err := fmt.Errorf("failed reading cart with error=%w", commonErrors.ErrCartNotReady)
		commonErrors.HandleError(err, span)
		return response.Cart{}, err
	}

	lines := make([]response.CartLine, 0, len(svc.order))
	total := decimal.Zero
	for _, productId := range svc.order {
		line := svc.lines[productId]
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}
	return response.Cart{Lines: lines, Total: total}, nil
}

func (svc *CartService) deleteLineLocked(productId string) {
	delete(svc.lines, productId)
	for i, id := range svc.order {
		if id == productId {
			svc.order = append(svc.order[:i], svc.order[i+1:]...)
			break
		}
	}
}

// persist write-throughs the current line set. A write failure leaves
// the in-memory mutation applied and is surfaced as a warning.
func (svc *CartService) persist(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService persist").
		Str(log.KeyStorageKey, svc.key).
		Logger()

	svc.mu.Lock()
	persisted := persistedCart{Lines: make([]response.CartLine, 0, len(svc.order))}
	for _, productId := range svc.order {
		persisted.Lines = append(persisted.Lines, svc.lines[productId])
	}
	svc.mu.Unlock()

	blob, err := json.Marshal(persisted)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
		svc.notifier.Publish(c, notice.Warning("cart change could not be saved to device storage"))
		return
	}

	if err := svc.store.Set(c, svc.key, blob); err != nil {
		err = fmt.Errorf("failed persisting cart with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
		svc.notifier.Publish(c, notice.Warning("cart change could not be saved to device storage"))
		return
	}
	logger.Trace().Msg("persisted cart")
}
