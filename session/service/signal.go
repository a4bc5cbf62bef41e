package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/common"
	inErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/session/common/otel"
)

// Listener is notified synchronously on authentication transitions.
// OnLogout must clear any per-shopper state unconditionally before it
// returns; OnLogin may refresh remote mirrors.
type Listener interface {
	OnLogin(c context.Context, shopperId string)
	OnLogout(c context.Context)
}

// Signal holds the process-wide shopper identity that gates every
// wishlist mutation.
type Signal struct {
	mu        sync.RWMutex
	secretKey string
	shopperId string
	listeners []Listener
}

func NewSignal(secretKey string) *Signal {
	return &Signal{secretKey: secretKey}
}

func (s *Signal) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Identity reports the authenticated shopper, if any.
func (s *Signal) Identity() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shopperId, s.shopperId != ""
}

func (s *Signal) Login(c context.Context, token string) (string, error) {
	c, span := otel.Tracer.Start(c, "Signal Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Signal Login").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "verifying token").Logger()
	logger.Info().Msg("verifying token")
	shopperId, err := s.verifyToken(token)
	if err != nil {
		err = fmt.Errorf("failed verifying token with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger = logger.With().Str(log.KeyShopperID, shopperId).Logger()
	logger.Info().Msg("verified token")

	s.mu.Lock()
	previous := s.shopperId
	s.shopperId = shopperId
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	logger = logger.With().Str(log.KeyProcess, "notifying listeners").Logger()
	logger.Info().Msg("notifying listeners")
	c = logger.WithContext(c)
	if previous != "" && previous != shopperId {
		// Shared device: another shopper was signed in. Their state must
		// be gone before the new identity's state is fetched.
		for _, l := range listeners {
			l.OnLogout(c)
		}
	}
	for _, l := range listeners {
		l.OnLogin(c, shopperId)
	}
	logger.Info().Msg("notified listeners")

	return shopperId, nil
}

func (s *Signal) Logout(c context.Context) {
	c, span := otel.Tracer.Start(c, "Signal Logout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Signal Logout").
		Str(log.KeyProcess, "clearing identity").
		Logger()

	s.mu.Lock()
	s.shopperId = ""
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	logger.Info().Msg("cleared identity")

	logger = logger.With().Str(log.KeyProcess, "notifying listeners").Logger()
	logger.Info().Msg("notifying listeners")
	c = logger.WithContext(c)
	for _, l := range listeners {
		l.OnLogout(c)
	}
	logger.Info().Msg("notified listeners")
}

func (s *Signal) verifyToken(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	jwtToken, err := jwt.ParseWithClaims(token,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.secretKey), nil
		},
		jwt.WithAudience(common.AudienceShopper),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(common.IssuerUserService),
	)
	if err != nil {
		return "", fmt.Errorf("failed parsing with claims with error=%w", err)
	}
	if !jwtToken.Valid {
		return "", inErrors.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return "", inErrors.ErrTokenInvalid
	}
	return claims.Subject, nil
}
