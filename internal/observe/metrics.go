// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/pdiddy/policy-engine/pkg/types"
)

const meterName = "github.com/pdiddy/policy-engine"

// Metric instrument names.
const (
	ToolCallsName    = "policy_engine.tool.calls"
	ToolDurationName = "policy_engine.tool.duration"
	SourceErrorsName = "policy_engine.source.errors"
)

// Tool call status attribute values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the OTel instruments recorded by the instrumented tool
// invoker and the search aggregator. Safe for concurrent use.
type Metrics struct {
	// ToolCalls counts tool invocations by tool and status.
	ToolCalls metric.Int64Counter

	// ToolDuration records tool latency in seconds by tool.
	ToolDuration metric.Float64Histogram

	// SourceErrors counts failed upstream sources by source and code.
	SourceErrors metric.Int64Counter
}

// latencyBuckets are histogram boundaries in seconds. Upstream calls with
// retries can take tens of seconds.
var latencyBuckets = []float64{
	0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolCalls, err = m.Int64Counter(ToolCallsName,
		metric.WithDescription("Tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}
	if met.ToolDuration, err = m.Float64Histogram(ToolDurationName,
		metric.WithDescription("Latency of tool invocations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SourceErrors, err = m.Int64Counter(SourceErrorsName,
		metric.WithDescription("Failed upstream sources by source and error code."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordToolCall records one invocation of tool.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string, seconds float64) {
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	))
	m.ToolDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("tool", tool)))
}

// SourceError counts one failed source. It satisfies policy.ErrorObserver.
func (m *Metrics) SourceError(ctx context.Context, source string, code types.ErrorCode) {
	m.SourceErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("code", string(code)),
	))
}
