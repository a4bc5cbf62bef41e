package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/Alturino/storefront/internal/common"
)

var Tracer = otel.Tracer(common.AppCartStore)
