package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	cartRequest "github.com/Alturino/storefront/cart/pkg/request"
	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/notice"
	"github.com/Alturino/storefront/wishlist/common/otel"
	"github.com/Alturino/storefront/wishlist/pkg/request"
	"github.com/Alturino/storefront/wishlist/pkg/response"
)

const sourceTagWishlist = "wishlist"

// RemoteStore is the authoritative per-shopper wishlist. The mirror is
// only ever written after one of these calls confirms.
type RemoteStore interface {
	List(c context.Context, shopperId string) ([]response.WishlistEntry, error)
	Create(c context.Context, shopperId string, param request.AddEntry) (response.WishlistEntry, error)
	Delete(c context.Context, shopperId string, productId string) error
}

// IdentitySource is the authentication signal gating every mutation.
type IdentitySource interface {
	Identity() (string, bool)
}

// CartStore is the device-local side of the move-to-cart workflow.
type CartStore interface {
	AddItem(c context.Context, param cartRequest.AddItem) (cartResponse.CartLine, error)
}

// WishlistService mirrors the remote wishlist for the authenticated
// shopper. The mirror is cleared wholesale on logout and replaced
// wholesale on fetch; it is never incrementally merged from a read.
type WishlistService struct {
	mu      sync.RWMutex
	entries map[string]response.WishlistEntry
	order   []string
	// gen invalidates in-flight remote results: bumped on every clear,
	// so a call that confirmed before a logout cannot write the mirror
	// after it.
	gen      uint64
	remote   RemoteStore
	signal   IdentitySource
	notifier notice.Publisher
}

func NewWishlistService(
	remote RemoteStore,
	signal IdentitySource,
	notifier notice.Publisher,
) *WishlistService {
	return &WishlistService{
		entries:  map[string]response.WishlistEntry{},
		remote:   remote,
		signal:   signal,
		notifier: notifier,
	}
}

// FetchAll replaces the mirror with the remote collection. On failure
// the mirror is left empty rather than stale.
func (svc *WishlistService) FetchAll(c context.Context) error {
	c, span := otel.Tracer.Start(c, "WishlistService FetchAll")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistService FetchAll").
		Logger()

	shopperId, ok := svc.signal.Identity()
	if !ok {
		err := fmt.Errorf(
			"failed fetching wishlist with error=%w",
			commonErrors.ErrAuthenticationRequired,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Str(log.KeyShopperID, shopperId).Logger()

	svc.mu.RLock()
	startGen := svc.gen
	svc.mu.RUnlock()

	logger = logger.With().Str(log.KeyProcess, "listing remote wishlist").Logger()
	logger.Info().Msg("listing remote wishlist")
	entries, err := svc.remote.List(c, shopperId)
	if err != nil {
		err = fmt.Errorf("failed fetching wishlist with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		svc.clear()
		return err
	}
	logger.Info().Int(log.KeyWishlistEntries, len(entries)).Msg("listed remote wishlist")

	svc.mu.Lock()
	if svc.gen != startGen {
		// The session changed while the call was in flight; the mirror
		// was cleared and the result belongs to the previous session.
		svc.mu.Unlock()
		logger.Info().Msg("session changed while fetching, discarded remote result")
		return nil
	}
	svc.entries = make(map[string]response.WishlistEntry, len(entries))
	svc.order = svc.order[:0]
	for _, entry := range entries {
		if entry.ProductId == "" {
			continue
		}
		if _, exists := svc.entries[entry.ProductId]; exists {
			continue
		}
		svc.entries[entry.ProductId] = entry
		svc.order = append(svc.order, entry.ProductId)
	}
	svc.mu.Unlock()

	return nil
}

func (svc *WishlistService) Add(
	c context.Context,
	param request.AddEntry,
) (response.WishlistEntry, error) {
	c, span := otel.Tracer.Start(c, "WishlistService Add")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistService Add").
		Str(log.KeyProductID, param.ProductId).
		Logger()

	if param.ProductId == "" {
		err := fmt.Errorf(
			"failed adding wishlist entry with error=%w",
			commonErrors.ErrMissingProductId,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}

	shopperId, ok := svc.signal.Identity()
	if !ok {
		err := fmt.Errorf(
			"failed adding wishlist entry with error=%w",
			commonErrors.ErrAuthenticationRequired,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}
	logger = logger.With().Str(log.KeyShopperID, shopperId).Logger()

	svc.mu.RLock()
	startGen := svc.gen
	existing, present := svc.entries[param.ProductId]
	svc.mu.RUnlock()
	if present {
		logger.Info().Msg("product already in wishlist")
		return existing, nil
	}

	logger = logger.With().Str(log.KeyProcess, "creating remote wishlist entry").Logger()
	logger.Info().Msg("creating remote wishlist entry")
	created, err := svc.remote.Create(c, shopperId, param)
	if err != nil {
		err = fmt.Errorf("failed adding wishlist entry with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.WishlistEntry{}, err
	}
	logger.Info().Msg("created remote wishlist entry")

	svc.mu.Lock()
	if svc.gen != startGen {
		svc.mu.Unlock()
		logger.Info().Msg("session changed while creating, discarded remote result")
		return created, nil
	}
	if _, exists := svc.entries[created.ProductId]; !exists {
		svc.entries[created.ProductId] = created
		svc.order = append(svc.order, created.ProductId)
	}
	svc.mu.Unlock()

	svc.notifier.Publish(c, notice.Info(fmt.Sprintf("%s added to wishlist", created.Name)))
	return created, nil
}

func (svc *WishlistService) Remove(c context.Context, productId string) error {
	c, span := otel.Tracer.Start(c, "WishlistService Remove")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistService Remove").
		Str(log.KeyProductID, productId).
		Logger()

	if productId == "" {
		err := fmt.Errorf(
			"failed removing wishlist entry with error=%w",
			commonErrors.ErrMissingProductId,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	shopperId, ok := svc.signal.Identity()
	if !ok {
		err := fmt.Errorf(
			"failed removing wishlist entry with error=%w",
			commonErrors.ErrAuthenticationRequired,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Str(log.KeyShopperID, shopperId).Logger()

	svc.mu.RLock()
	startGen := svc.gen
	entry, present := svc.entries[productId]
	svc.mu.RUnlock()
	if !present {
		logger.Info().Msg("product not in wishlist, nothing to remove")
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "deleting remote wishlist entry").Logger()
	logger.Info().Msg("deleting remote wishlist entry")
	err := svc.remote.Delete(c, shopperId, productId)
	if err != nil {
		err = fmt.Errorf("failed removing wishlist entry with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted remote wishlist entry")

	svc.mu.Lock()
	if svc.gen != startGen {
		svc.mu.Unlock()
		logger.Info().Msg("session changed while deleting, discarded remote result")
		return nil
	}
	delete(svc.entries, productId)
	for i, id := range svc.order {
		if id == productId {
			svc.order = append(svc.order[:i], svc.order[i+1:]...)
			break
		}
	}
	svc.mu.Unlock()

	svc.notifier.Publish(c, notice.Info(fmt.Sprintf("%s removed from wishlist", entry.Name)))
	return nil
}

// IsPresent is a pure local lookup against the mirror.
func (svc *WishlistService) IsPresent(productId string) bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	_, ok := svc.entries[productId]
	return ok
}

// Wishlist returns a snapshot of the mirror in insertion order.
func (svc *WishlistService) Wishlist(c context.Context) response.Wishlist {
	_, span := otel.Tracer.Start(c, "WishlistService Wishlist")
	defer span.End()

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	entries := make([]response.WishlistEntry, 0, len(svc.order))
	for _, productId := range svc.order {
		entries = append(entries, svc.entries[productId])
	}
	return response.Wishlist{Entries: entries}
}

// MoveToCart adds the wishlist entry to the cart, then removes it from
// the wishlist. The cart add commits first and is never rolled back; a
// failed remove leaves the item in both collections and is surfaced as
// a warning, not a hard error.
func (svc *WishlistService) MoveToCart(
	c context.Context,
	productId string,
	cart CartStore,
) (cartResponse.CartLine, error) {
	c, span := otel.Tracer.Start(c, "WishlistService MoveToCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistService MoveToCart").
		Str(log.KeyProductID, productId).
		Logger()

	if _, ok := svc.signal.Identity(); !ok {
		err := fmt.Errorf(
			"failed moving wishlist entry to cart with error=%w",
			commonErrors.ErrAuthenticationRequired,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return cartResponse.CartLine{}, err
	}

	svc.mu.RLock()
	entry, present := svc.entries[productId]
	svc.mu.RUnlock()
	if !present {
		err := fmt.Errorf(
			"failed moving wishlist entry to cart with error=%w",
			commonErrors.ErrNotInWishlist,
		)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return cartResponse.CartLine{}, err
	}

	unitPrice := entry.CanonicalPrice
	if entry.SalePrice != nil && entry.SalePrice.IsPositive() &&
		entry.SalePrice.LessThan(entry.CanonicalPrice) {
		unitPrice = *entry.SalePrice
	}

	logger = logger.With().Str(log.KeyProcess, "adding entry to cart").Logger()
	logger.Info().Msg("adding entry to cart")
	line, err := cart.AddItem(c, cartRequest.AddItem{
		ProductId: entry.ProductId,
		Name:      entry.Name,
		UnitPrice: unitPrice,
		Quantity:  1,
		Image:     entry.Image,
		Variant:   entry.Variant,
		SourceTag: sourceTagWishlist,
	})
	if err != nil {
		err = fmt.Errorf("failed moving wishlist entry to cart with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return cartResponse.CartLine{}, err
	}
	logger.Info().Msg("added entry to cart")

	logger = logger.With().Str(log.KeyProcess, "removing entry from wishlist").Logger()
	logger.Info().Msg("removing entry from wishlist")
	if err := svc.Remove(c, productId); err != nil {
		// The cart add already committed. The item stays in both
		// collections until a later remove succeeds.
		err = fmt.Errorf("%w with error=%v", commonErrors.ErrMoveNotRemoved, err)
		commonErrors.HandleError(err, span)
		logger.Warn().Err(err).Msg(err.Error())
		svc.notifier.Publish(c, notice.Warning(
			fmt.Sprintf("%s was added to your cart but is still on your wishlist", entry.Name),
		))
		return line, err
	}
	logger.Info().Msg("removed entry from wishlist")

	svc.notifier.Publish(c, notice.Info(fmt.Sprintf("%s moved to cart", entry.Name)))
	return line, nil
}

// OnLogin refreshes the mirror for the new identity.
func (svc *WishlistService) OnLogin(c context.Context, shopperId string) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistService OnLogin").
		Str(log.KeyShopperID, shopperId).
		Logger()

	logger.Info().Msg("fetching wishlist for new identity")
	c = logger.WithContext(c)
	if err := svc.FetchAll(c); err != nil {
		logger.Warn().Err(err).Msg("failed fetching wishlist, mirror left empty")
		svc.notifier.Publish(c, notice.Warning("your wishlist could not be loaded"))
		return
	}
	logger.Info().Msg("fetched wishlist for new identity")
}

// OnLogout clears the mirror immediately and unconditionally so one
// shopper's wishlist never leaks into the next session on a shared
// device.
func (svc *WishlistService) OnLogout(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "WishlistService OnLogout").
		Logger()

	svc.clear()
	logger.Info().Msg("cleared wishlist mirror")
}

func (svc *WishlistService) clear() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.entries = map[string]response.WishlistEntry{}
	svc.order = nil
	svc.gen++
}

