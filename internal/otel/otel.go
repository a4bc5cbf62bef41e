package otel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel/metric"
	"github.com/Alturino/storefront/internal/otel/trace"
)

type ShutdownFunc func(context.Context) error

func newPropagator() propagation.TextMapPropagator {
	propagator := propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
	return propagator
}

func InitOtelSdk(c context.Context, cfg config.Otel) (shutdownFuncs []ShutdownFunc, err error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "InitOtelSdk").
		Logger()

	endpoint := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	logger.Info().
		Str(log.KeyProcess, "Init Propagator").
		Msg("initializing otel propagator")
	propagator := newPropagator()
	otel.SetTextMapPropagator(propagator)
	logger.Info().
		Str(log.KeyProcess, "Init Propagator").
		Msg("initialized otel propagator")

	logger.Info().
		Str(log.KeyProcess, "Init TracerProvider").
		Msg("initializing otel tracerProvider")
	tracerProvider, err := trace.InitTracerProvider(c, endpoint)
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "Init TracerProvider").
			Msgf("failed initializing otel tracerProvider with error=%s", err.Error())
		return nil, err
	}
	otel.SetTracerProvider(tracerProvider)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	logger.Info().
		Str(log.KeyProcess, "Init TracerProvider").
		Msg("initialized otel tracerProvider")

	logger.Info().
		Str(log.KeyProcess, "Init MeterProvider").
		Msg("initializing meterProvider")
	meterProvider, err := metric.InitMeterProvider(c, endpoint)
	if err != nil {
		logger.Error().
			Err(err).
			Str(log.KeyProcess, "Init MeterProvider").
			Msgf("failed initializing otel meterProvider with error=%s", err.Error())
		return shutdownFuncs, err
	}
	otel.SetMeterProvider(meterProvider)
	shutdownFuncs = append(shutdownFuncs, meterProvider.Shutdown)
	logger.Info().
		Str(log.KeyProcess, "Init MeterProvider").
		Msg("initialized meterProvider")

	return shutdownFuncs, nil
}

func ShutdownOtel(c context.Context, shutdownFuncs []ShutdownFunc) error {
	var wg sync.WaitGroup
	var err error
	for _, shutdown := range shutdownFuncs {
		shutdown := shutdown
		wg.Add(1)
		go func() {
			defer wg.Done()
			if shutdownErr := shutdown(c); shutdownErr != nil {
				err = errors.Join(err, shutdownErr)
			}
		}()
	}
	wg.Wait()
	return err
}
