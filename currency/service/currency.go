package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/currency/pkg/response"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
)

// FreeAmount is the projection for any non-positive amount. Business
// rule, not an error path.
const FreeAmount = "Free"

var (
	ErrBaseRateNotOne  = errors.New("base currency rate must be exactly 1")
	ErrNonPositiveRate = errors.New("currency rate must be positive")
)

// Projector converts canonical base-currency amounts into the selected
// display currency. It never mutates the canonical value.
type Projector struct {
	mu         sync.RWMutex
	currencies []response.Currency
	selected   int
}

func NewProjector(c context.Context, cfg config.Currency) (*Projector, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "NewProjector").
		Logger()

	altRate, err := decimal.NewFromString(cfg.AltRate)
	if err != nil {
		err = fmt.Errorf("failed parsing alt currency rate with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}

	base := response.Currency{Code: cfg.BaseCode, Symbol: cfg.BaseSymbol, Rate: decimal.NewFromInt(1)}
	alt := response.Currency{Code: cfg.AltCode, Symbol: cfg.AltSymbol, Rate: altRate}
	return newProjector(base, alt)
}

func newProjector(currencies ...response.Currency) (*Projector, error) {
	if len(currencies) == 0 {
		return nil, errors.New("at least one currency is required")
	}
	if !currencies[0].Rate.Equal(decimal.NewFromInt(1)) {
		return nil, ErrBaseRateNotOne
	}
	for _, currency := range currencies {
		if !currency.Rate.IsPositive() {
			return nil, fmt.Errorf("%w: %s", ErrNonPositiveRate, currency.Code)
		}
	}
	return &Projector{currencies: currencies}, nil
}

func (p *Projector) Selected() response.Currency {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currencies[p.selected]
}

func (p *Projector) Currencies() []response.Currency {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]response.Currency, len(p.currencies))
	copy(out, p.currencies)
	return out
}

// Toggle advances to the next configured currency and returns it.
func (p *Projector) Toggle(c context.Context) response.Currency {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Projector Toggle").
		Logger()

	p.mu.Lock()
	p.selected = (p.selected + 1) % len(p.currencies)
	currency := p.currencies[p.selected]
	p.mu.Unlock()

	logger.Info().Str(log.KeyCurrencyCode, currency.Code).Msg("toggled display currency")
	return currency
}

// Project is the single conversion call site: every displayed price,
// including the discount badge, goes through here.
func (p *Projector) Project(amount decimal.Decimal) response.Projection {
	if !amount.IsPositive() {
		return response.Projection{Amount: FreeAmount}
	}
	currency := p.Selected()
	converted := amount.Mul(currency.Rate).Round(2)
	return response.Projection{
		Symbol: currency.Symbol,
		Amount: converted.StringFixed(2),
	}
}

// ProjectDiscount projects the savings between the canonical price and
// a sale price. A sale at or above the canonical price projects the
// Free sentinel, meaning there is nothing to save.
func (p *Projector) ProjectDiscount(canonical, sale decimal.Decimal) response.Projection {
	return p.Project(canonical.Sub(sale))
}
