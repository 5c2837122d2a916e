package credential

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce    sync.Once
	refreshCounter metric.Int64Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/finamgo/finam-trade-go/credential")

		var err error
		refreshCounter, err = meter.Int64Counter(
			"session.token.refresh",
			metric.WithDescription("Session token exchange attempts"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

func recordRefresh(ctx context.Context, status string) {
	if refreshCounter == nil {
		return
	}
	refreshCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("refresh.status", status)),
	)
}
