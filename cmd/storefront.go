package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	cartController "github.com/Alturino/storefront/cart/controller"
	cartService "github.com/Alturino/storefront/cart/service"
	currencyController "github.com/Alturino/storefront/currency/controller"
	currencyService "github.com/Alturino/storefront/currency/service"
	"github.com/Alturino/storefront/internal/common"
	commonErrors "github.com/Alturino/storefront/internal/common/errors"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/notice"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/storage"
	sessionController "github.com/Alturino/storefront/session/controller"
	sessionService "github.com/Alturino/storefront/session/service"
	wishlistClient "github.com/Alturino/storefront/wishlist/client"
	wishlistController "github.com/Alturino/storefront/wishlist/controller"
	wishlistService "github.com/Alturino/storefront/wishlist/service"
)

func RunStorefrontService(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunStorefrontService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, common.AppStorefrontService).
		Str(log.KeyTag, "main RunStorefrontService").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, common.AppStorefrontService)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		c = logger.WithContext(c)
		err = otel.ShutdownOtel(c, otelShutdowns)
		if err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing storage").Logger()
	logger.Info().Msg("initializing storage")
	c = logger.WithContext(c)
	var store storage.Store
	switch cfg.Storage.Backend {
	case "redis":
		cache := storage.NewCacheClient(c, cfg.Cache)
		defer func() {
			logger.Info().Msg("shutting down cache")
			if err := cache.Close(); err != nil {
				err = fmt.Errorf("failed shutting down cache with error=%w", err)
				commonErrors.HandleError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown cache")
		}()
		store = storage.NewRedisStore(cache)
	default:
		fileStore, err := storage.NewFileStore(c, cfg.Storage.Path)
		if err != nil {
			err = fmt.Errorf("failed initializing file storage with error=%w", err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		store = fileStore
	}
	logger.Info().Msg("initialized storage")

	notifier := notice.NewLogPublisher()

	logger = logger.With().Str(log.KeyProcess, "initializing cart service").Logger()
	logger.Info().Msg("initializing cart service")
	c = logger.WithContext(c)
	cartSvc := cartService.NewCartService(store, cfg.Storage.CartKey, notifier)
	if err := cartSvc.Hydrate(c); err != nil {
		err = fmt.Errorf("failed hydrating cart with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized cart service")

	logger = logger.With().Str(log.KeyProcess, "initializing session signal").Logger()
	logger.Info().Msg("initializing session signal")
	signal := sessionService.NewSignal(cfg.Application.SecretKey)
	logger.Info().Msg("initialized session signal")

	logger = logger.With().Str(log.KeyProcess, "initializing wishlist service").Logger()
	logger.Info().Msg("initializing wishlist service")
	remote := wishlistClient.NewClient(cfg.Wishlist)
	wishlistSvc := wishlistService.NewWishlistService(remote, signal, notifier)
	signal.Subscribe(wishlistSvc)
	logger.Info().Msg("initialized wishlist service")

	logger = logger.With().Str(log.KeyProcess, "initializing currency projector").Logger()
	logger.Info().Msg("initializing currency projector")
	c = logger.WithContext(c)
	projector, err := currencyService.NewProjector(c, cfg.Currency)
	if err != nil {
		err = fmt.Errorf("failed initializing currency projector with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized currency projector")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(common.AppStorefrontService),
		middleware.Logging,
		middleware.RecoverPanic,
	)
	sessionController.AttachSessionController(router, signal)
	cartController.AttachCartController(router, cartSvc)
	wishlistController.AttachWishlistController(router, wishlistSvc, cartSvc)
	currencyController.AttachCurrencyController(router, projector)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			commonErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		commonErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}
