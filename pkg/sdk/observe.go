package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// sdkMetrics holds the client's prometheus collectors.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ftsearch",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Total client operations by type and status (ok, server error code, cancelled, transport).",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ftsearch",
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "Client operation duration in seconds, including the HTTP round trip.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("ftsearch client: metric already registered with incompatible type: %T",
					are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("ftsearch client: register metric: %w", err)
	}
	return nil
}

// observer logs and counts client operations. A nil observer is a no-op.
type observer struct {
	logger  *zap.Logger
	metrics *sdkMetrics
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}
	if o.logger == nil {
		return
	}
	fields := []zap.Field{zap.String("op", op), zap.Duration("duration", dur)}
	switch status {
	case statusOK:
		o.logger.Debug("Operation completed", fields...)
	case statusTransport, statusCancelled:
		o.logger.Warn("Operation failed", append(fields, zap.String("status", status), zap.Error(err))...)
	default:
		// the server answered; a rejected request is the caller's concern
		o.logger.Debug("Operation rejected", append(fields, zap.String("status", status), zap.Error(err))...)
	}
}

// Operation statuses besides server error codes.
const (
	statusOK        = "ok"
	statusCancelled = "cancelled"
	statusTransport = "transport"
)

// statusOf labels err by the server error code when the server answered,
// otherwise by whether the caller gave up or the round trip failed.
func statusOf(err error) string {
	if err == nil {
		return statusOK
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return statusCancelled
	}
	return statusTransport
}
