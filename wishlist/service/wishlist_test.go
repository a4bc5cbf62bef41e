package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartRequest "github.com/Alturino/storefront/cart/pkg/request"
	cartResponse "github.com/Alturino/storefront/cart/pkg/response"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/notice"
	"github.com/Alturino/storefront/wishlist/pkg/request"
	"github.com/Alturino/storefront/wishlist/pkg/response"
)

var errRemoteDown = errors.New("remote wishlist is down")

type fakeIdentity struct {
	shopperId string
	loggedIn  bool
}

func (f *fakeIdentity) Identity() (string, bool) {
	return f.shopperId, f.loggedIn
}

type fakeRemote struct {
	mu      sync.Mutex
	entries []response.WishlistEntry

	listErr   error
	createErr error
	deleteErr error
	hang      bool

	// gate, when set, blocks remote calls until closed; started signals
	// that a call reached the gate.
	gate    chan struct{}
	started chan struct{}

	listCalls   int
	createCalls int
	deleteCalls int
}

func (f *fakeRemote) List(c context.Context, _ string) ([]response.WishlistEntry, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	f.waitForGate()
	if f.hang {
		<-c.Done()
		return nil, c.Err()
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]response.WishlistEntry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeRemote) Create(
	c context.Context,
	_ string,
	param request.AddEntry,
) (response.WishlistEntry, error) {
	f.mu.Lock()
	f.createCalls++
	f.mu.Unlock()
	f.waitForGate()
	if f.hang {
		<-c.Done()
		return response.WishlistEntry{}, c.Err()
	}
	if f.createErr != nil {
		return response.WishlistEntry{}, f.createErr
	}
	entry := response.WishlistEntry{
		ProductId:      param.ProductId,
		Name:           param.Name,
		CanonicalPrice: param.CanonicalPrice,
		SalePrice:      param.SalePrice,
		Image:          param.Image,
		Variant:        param.Variant,
	}
	f.mu.Lock()
	f.entries = append(f.entries, entry)
	f.mu.Unlock()
	return entry, nil
}

func (f *fakeRemote) waitForGate() {
	if f.gate == nil {
		return
	}
	f.started <- struct{}{}
	<-f.gate
}

func (f *fakeRemote) Delete(c context.Context, _ string, productId string) error {
	f.mu.Lock()
	f.deleteCalls++
	f.mu.Unlock()
	f.waitForGate()
	if f.hang {
		<-c.Done()
		return c.Err()
	}
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, entry := range f.entries {
		if entry.ProductId == productId {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			break
		}
	}
	return nil
}

type fakeCart struct {
	mu    sync.Mutex
	lines []cartRequest.AddItem
	err   error
}

func (f *fakeCart) AddItem(
	_ context.Context,
	param cartRequest.AddItem,
) (cartResponse.CartLine, error) {
	if f.err != nil {
		return cartResponse.CartLine{}, f.err
	}
	f.mu.Lock()
	f.lines = append(f.lines, param)
	f.mu.Unlock()
	return cartResponse.CartLine{
		ProductId: param.ProductId,
		Name:      param.Name,
		Quantity:  param.Quantity,
		UnitPrice: param.UnitPrice,
		Image:     param.Image,
		Variant:   param.Variant,
		SourceTag: param.SourceTag,
	}, nil
}

func addEntryRequest(productId string, name string, canonical float64) request.AddEntry {
	return request.AddEntry{
		ProductId:      productId,
		Name:           name,
		CanonicalPrice: decimal.NewFromFloat(canonical),
		Image:          "https://cdn.example.com/" + productId + ".webp",
	}
}

func newLoggedInService(remote *fakeRemote) (*WishlistService, *notice.Recorder) {
	recorder := notice.NewRecorder()
	signal := &fakeIdentity{shopperId: "shopper-1", loggedIn: true}
	return NewWishlistService(remote, signal, recorder), recorder
}

func TestAddRequiresAuthentication(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	recorder := notice.NewRecorder()
	svc := NewWishlistService(remote, &fakeIdentity{}, recorder)

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.ErrorIs(t, err, commonErrors.ErrAuthenticationRequired)
	assert.Zero(t, remote.createCalls)
	assert.Empty(t, svc.Wishlist(context.Background()).Entries)
}

func TestAddMirrorsOnlyAfterRemoteConfirms(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{createErr: errRemoteDown}
	svc, _ := newLoggedInService(remote)

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.Error(t, err)
	assert.False(t, svc.IsPresent("product-1"))

	remote.createErr = nil
	entry, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)
	assert.Equal(t, "product-1", entry.ProductId)
	assert.True(t, svc.IsPresent("product-1"))
}

func TestAddExistingEntrySkipsRemote(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, _ := newLoggedInService(remote)

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)

	assert.Equal(t, 1, remote.createCalls)
	assert.Len(t, svc.Wishlist(context.Background()).Entries, 1)
}

func TestRemoveRemoteFailureKeepsMirror(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, _ := newLoggedInService(remote)

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)

	remote.deleteErr = errRemoteDown
	err = svc.Remove(context.Background(), "product-1")
	require.Error(t, err)
	assert.True(t, svc.IsPresent("product-1"))
}

func TestRemoveAbsentEntrySkipsRemote(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, _ := newLoggedInService(remote)

	require.NoError(t, svc.Remove(context.Background(), "product-404"))
	assert.Zero(t, remote.deleteCalls)
}

func TestFetchAllFailureLeavesMirrorEmptyNotStale(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, _ := newLoggedInService(remote)

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)
	require.True(t, svc.IsPresent("product-1"))

	remote.listErr = errRemoteDown
	err = svc.FetchAll(context.Background())
	require.Error(t, err)
	assert.Empty(t, svc.Wishlist(context.Background()).Entries)
}

func TestFetchAllReplacesMirrorWholesale(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{entries: []response.WishlistEntry{
		{ProductId: "product-2", Name: "Area Rug", CanonicalPrice: decimal.NewFromInt(1200)},
		{ProductId: "product-3", Name: "Bookshelf", CanonicalPrice: decimal.NewFromInt(900)},
	}}
	svc, _ := newLoggedInService(remote)

	require.NoError(t, svc.FetchAll(context.Background()))

	wishlist := svc.Wishlist(context.Background())
	require.Len(t, wishlist.Entries, 2)
	assert.Equal(t, "product-2", wishlist.Entries[0].ProductId)
	assert.Equal(t, "product-3", wishlist.Entries[1].ProductId)
}

func TestRemoteTimeoutIsARemoteFailure(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{hang: true}
	svc, _ := newLoggedInService(remote)

	c, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Add(c, addEntryRequest("product-1", "Desk Lamp", 350))
	require.Error(t, err)
	assert.False(t, svc.IsPresent("product-1"))
}

func TestLogoutDuringFetchLeavesMirrorEmpty(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		entries: []response.WishlistEntry{
			{ProductId: "product-1", Name: "Desk Lamp", CanonicalPrice: decimal.NewFromInt(350)},
		},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	svc, _ := newLoggedInService(remote)

	done := make(chan error, 1)
	go func() { done <- svc.FetchAll(context.Background()) }()
	<-remote.started

	// Logout lands while the remote list is still in flight; its result
	// must not repopulate the cleared mirror.
	svc.OnLogout(context.Background())
	close(remote.gate)

	require.NoError(t, <-done)
	assert.Empty(t, svc.Wishlist(context.Background()).Entries)
}

func TestLogoutDuringAddLeavesMirrorEmpty(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	svc, _ := newLoggedInService(remote)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
		done <- err
	}()
	<-remote.started

	svc.OnLogout(context.Background())
	close(remote.gate)

	require.NoError(t, <-done)
	assert.False(t, svc.IsPresent("product-1"))
	assert.Empty(t, svc.Wishlist(context.Background()).Entries)
}

func TestOnLogoutClearsMirror(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, _ := newLoggedInService(remote)

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)

	svc.OnLogout(context.Background())
	assert.Empty(t, svc.Wishlist(context.Background()).Entries)
}

func TestOnLoginRefetchesMirror(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{entries: []response.WishlistEntry{
		{ProductId: "product-2", Name: "Area Rug", CanonicalPrice: decimal.NewFromInt(1200)},
	}}
	svc, _ := newLoggedInService(remote)

	svc.OnLogin(context.Background(), "shopper-1")
	assert.True(t, svc.IsPresent("product-2"))
	assert.Equal(t, 1, remote.listCalls)
}

func TestOnLoginFetchFailurePublishesWarning(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{listErr: errRemoteDown}
	svc, recorder := newLoggedInService(remote)

	svc.OnLogin(context.Background(), "shopper-1")
	assert.Empty(t, svc.Wishlist(context.Background()).Entries)

	notices := recorder.Notices()
	require.NotEmpty(t, notices)
	assert.Equal(t, notice.LevelWarning, notices[len(notices)-1].Level)
}

func TestMoveToCart(t *testing.T) {
	t.Parallel()

	salePrice := decimal.NewFromInt(250)
	tests := []struct {
		name      string
		entry     request.AddEntry
		wantPrice decimal.Decimal
	}{
		{
			name:      "given entry without sale price should charge canonical price",
			entry:     addEntryRequest("product-1", "Desk Lamp", 350),
			wantPrice: decimal.NewFromInt(350),
		},
		{
			name: "given entry with lower sale price should charge sale price",
			entry: request.AddEntry{
				ProductId:      "product-1",
				Name:           "Desk Lamp",
				CanonicalPrice: decimal.NewFromInt(350),
				SalePrice:      &salePrice,
				Image:          "https://cdn.example.com/product-1.webp",
			},
			wantPrice: decimal.NewFromInt(250),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			remote := &fakeRemote{}
			svc, _ := newLoggedInService(remote)
			cart := &fakeCart{}

			_, err := svc.Add(context.Background(), tt.entry)
			require.NoError(t, err)

			line, err := svc.MoveToCart(context.Background(), tt.entry.ProductId, cart)
			require.NoError(t, err)

			assert.Equal(t, tt.entry.ProductId, line.ProductId)
			require.Len(t, cart.lines, 1)
			assert.EqualValues(t, 1, cart.lines[0].Quantity)
			assert.True(t, tt.wantPrice.Equal(cart.lines[0].UnitPrice))
			assert.Equal(t, "wishlist", cart.lines[0].SourceTag)
			assert.False(t, svc.IsPresent(tt.entry.ProductId))
		})
	}
}

func TestMoveToCartAbsentEntry(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, _ := newLoggedInService(remote)
	cart := &fakeCart{}

	_, err := svc.MoveToCart(context.Background(), "product-404", cart)
	require.ErrorIs(t, err, commonErrors.ErrNotInWishlist)
	assert.Empty(t, cart.lines)
}

func TestMoveToCartFailedCartAddLeavesWishlistIntact(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, _ := newLoggedInService(remote)
	cart := &fakeCart{err: commonErrors.ErrCartNotReady}

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)

	_, err = svc.MoveToCart(context.Background(), "product-1", cart)
	require.ErrorIs(t, err, commonErrors.ErrCartNotReady)
	assert.True(t, svc.IsPresent("product-1"))
	assert.Zero(t, remote.deleteCalls)
}

func TestMoveToCartFailedRemoveIsPartialSuccess(t *testing.T) {
	t.Parallel()

	remote := &fakeRemote{}
	svc, recorder := newLoggedInService(remote)
	cart := &fakeCart{}

	_, err := svc.Add(context.Background(), addEntryRequest("product-1", "Desk Lamp", 350))
	require.NoError(t, err)

	remote.deleteErr = errRemoteDown
	line, err := svc.MoveToCart(context.Background(), "product-1", cart)
	require.ErrorIs(t, err, commonErrors.ErrMoveNotRemoved)

	// The cart add committed and is not rolled back.
	assert.Equal(t, "product-1", line.ProductId)
	require.Len(t, cart.lines, 1)
	assert.True(t, svc.IsPresent("product-1"))

	notices := recorder.Notices()
	require.NotEmpty(t, notices)
	assert.Equal(t, notice.LevelWarning, notices[len(notices)-1].Level)
}
