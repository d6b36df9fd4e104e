// Package telemetry provides the ambient observability layer around
// privileged VCS operations and the CI poll loop: a handful of Prometheus
// counters (adapted from the teacher's pkg/orchestrator/metrics.go batch-job
// counters) and an optional OpenTelemetry tracer (adapted from the
// teacher's pkg/acp/observability.TracerProvider). Both are nil-safe,
// best-effort collaborators — nothing here may block or reorder the
// audit-then-execute guarantees the core depends on, and none of this is
// ever serialized into an audit record.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/ixado-dev/ixado/pkg/guard"

// Metrics holds the four counters/gauges the specification calls for:
// privileged action decisions, CI poll transitions, CI reruns, and audit
// log rotations.
type Metrics struct {
	PrivilegedActionsTotal *prometheus.CounterVec
	CIPollTransitionsTotal prometheus.Counter
	CIPollRerunsTotal      prometheus.Counter
	AuditRotationsTotal    prometheus.Counter
}

// NewMetrics registers the counters against reg. A nil reg registers them
// against a private, never-scraped registry instead of the global default,
// so callers (including every test in this repository) that don't care
// about metrics never need to manage a real Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		PrivilegedActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ixado",
			Name:      "privileged_actions_total",
			Help:      "Count of privileged VCS actions, labeled by authorization decision (allow/deny).",
		}, []string{"decision"}),
		CIPollTransitionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ixado",
			Name:      "ci_poll_transitions_total",
			Help:      "Count of CI poll observations whose overall state or fingerprint changed.",
		}),
		CIPollRerunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ixado",
			Name:      "ci_poll_reruns_total",
			Help:      "Count of CI poll transitions from a terminal overall back to PENDING.",
		}),
		AuditRotationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ixado",
			Name:      "audit_rotations_total",
			Help:      "Count of audit log rotations triggered by the size threshold.",
		}),
	}
}

// RecordPrivilegedAction increments the per-decision counter. A nil
// Metrics is a no-op, so components can hold an optional *Metrics field
// without a presence check at every call site.
func (m *Metrics) RecordPrivilegedAction(decision string) {
	if m == nil {
		return
	}
	m.PrivilegedActionsTotal.WithLabelValues(decision).Inc()
}

// RecordPollTransition increments the poll-transition counter.
func (m *Metrics) RecordPollTransition() {
	if m == nil {
		return
	}
	m.CIPollTransitionsTotal.Inc()
}

// RecordPollRerun increments the rerun counter.
func (m *Metrics) RecordPollRerun() {
	if m == nil {
		return
	}
	m.CIPollRerunsTotal.Inc()
}

// RecordAuditRotation increments the audit-rotation counter.
func (m *Metrics) RecordAuditRotation() {
	if m == nil {
		return
	}
	m.AuditRotationsTotal.Inc()
}

// tracerProvider is the OpenTelemetry provider StartSpan draws its tracer
// from. Defaults to a no-op provider so the core never needs a real
// collector; embedding applications install a real one with
// SetTracerProvider before constructing the privileged wrapper.
var tracerProvider trace.TracerProvider = noop.NewTracerProvider()

// SetTracerProvider installs tp as the global tracer provider for this
// package. Passing nil restores the no-op provider.
func SetTracerProvider(tp trace.TracerProvider) {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	tracerProvider = tp
}

// StartSpan starts a span named name, wrapping one privileged operation or
// one CI poll iteration, and returns the derived context alongside it. The
// span must be ended by the caller.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := tracerProvider.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// NewRequestID mints a correlation id linking the authorize-span and the
// executed-span of a single gated operation, the same way the teacher's IPC
// layer stamps outbound push events with a fresh uuid.
func NewRequestID() string {
	return uuid.New().String()
}

// Attribute key names shared by the privileged-action and CI-poll spans.
var (
	AttrAction    = attribute.Key("ixado.action")
	AttrTarget    = attribute.Key("ixado.target")
	AttrDecision  = attribute.Key("ixado.decision")
	AttrPRNumber  = attribute.Key("ixado.pr_number")
	AttrRequestID = attribute.Key("ixado.request_id")
)
