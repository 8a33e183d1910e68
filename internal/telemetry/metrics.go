package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "gymledger"

// Metrics holds the business counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	notificationsCreated metric.Int64Counter
	jobRuns              metric.Int64Counter
	jobDuration          metric.Float64Histogram
	paymentsRecorded     metric.Int64Counter
	paymentAmount        metric.Int64Counter
}

// NewMetrics creates the instruments on the global meter provider.
// Call it after Initialize so the instruments bind to the configured readers.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	notificationsCreated, err := meter.Int64Counter(
		"gym.notifications.created",
		metric.WithDescription("Notifications inserted by the daily job"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications counter: %w", err)
	}

	jobRuns, err := meter.Int64Counter(
		"gym.notification_job.runs",
		metric.WithDescription("Notification job runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job runs counter: %w", err)
	}

	jobDuration, err := meter.Float64Histogram(
		"gym.notification_job.duration",
		metric.WithDescription("Notification job duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job duration histogram: %w", err)
	}

	paymentsRecorded, err := meter.Int64Counter(
		"gym.payments.recorded",
		metric.WithDescription("Payments recorded through renewal"),
		metric.WithUnit("{payment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payments counter: %w", err)
	}

	paymentAmount, err := meter.Int64Counter(
		"gym.payments.amount",
		metric.WithDescription("Sum of recorded payment amounts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment amount counter: %w", err)
	}

	return &Metrics{
		notificationsCreated: notificationsCreated,
		jobRuns:              jobRuns,
		jobDuration:          jobDuration,
		paymentsRecorded:     paymentsRecorded,
		paymentAmount:        paymentAmount,
	}, nil
}

// NotificationsCreated records inserted notifications of one kind
func (m *Metrics) NotificationsCreated(ctx context.Context, kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.notificationsCreated.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// JobRun records one notification job run
func (m *Metrics) JobRun(ctx context.Context, outcome string, seconds float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.jobRuns.Add(ctx, 1, attrs)
	m.jobDuration.Record(ctx, seconds, attrs)
}

// PaymentRecorded records a payment and whether the plan was extended
func (m *Metrics) PaymentRecorded(ctx context.Context, amount int64, planExtended bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("plan_extended", planExtended))
	m.paymentsRecorded.Add(ctx, 1, attrs)
	m.paymentAmount.Add(ctx, amount, attrs)
}
