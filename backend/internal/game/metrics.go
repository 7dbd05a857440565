package game

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "x-course/backend/internal/game"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics инструменты игрового цикла. Без установленного провайдера
// otel они ничего не делают. Методы допускают nil получатель.
type Metrics struct {
	ticks        metric.Int64Counter
	tickDuration metric.Float64Histogram
	systemErrors metric.Int64Counter
	frames       metric.Int64Counter
	aborted      metric.Int64Counter
	objects      metric.Int64ObservableGauge
}

// NewMetrics создает инструменты. objectCount, если задан, публикуется как gauge.
func NewMetrics(objectCount func() int64) (*Metrics, error) {
	m := meter()
	metrics := &Metrics{}
	var err error

	metrics.ticks, err = m.Int64Counter(
		"course.ticks",
		metric.WithDescription("Total ticks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	metrics.tickDuration, err = m.Float64Histogram(
		"course.tick.duration",
		metric.WithDescription("Tick execution time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	metrics.systemErrors, err = m.Int64Counter(
		"course.system.errors",
		metric.WithDescription("Tick system failures and panics"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating system errors counter: %w", err)
	}

	metrics.frames, err = m.Int64Counter(
		"course.frames",
		metric.WithDescription("Simulation frames stepped"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	metrics.aborted, err = m.Int64Counter(
		"course.frames.aborted",
		metric.WithDescription("Simulation frames aborted by engine errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating aborted frames counter: %w", err)
	}

	if objectCount != nil {
		metrics.objects, err = m.Int64ObservableGauge(
			"course.objects",
			metric.WithDescription("Objects currently registered on the course"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(objectCount())
				return nil
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("creating objects gauge: %w", err)
		}
	}

	return metrics, nil
}

func (m *Metrics) recordTick(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Add(ctx, 1)
	m.tickDuration.Record(ctx, float64(d)/float64(time.Millisecond))
}

func (m *Metrics) recordSystemError(ctx context.Context, system string) {
	if m == nil {
		return
	}
	m.systemErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("system", system)))
}

func (m *Metrics) recordFrame(ctx context.Context) {
	if m == nil {
		return
	}
	m.frames.Add(ctx, 1)
}

func (m *Metrics) recordAbort(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.aborted.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
