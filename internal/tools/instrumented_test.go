// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/policy-engine/internal/calllog"
	"github.com/pdiddy/policy-engine/internal/observe"
	"github.com/pdiddy/policy-engine/pkg/types"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []calllog.Entry
	err     error
}

func (m *memRecorder) Record(_ context.Context, e calllog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return m.err
}

func toolCallCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != observe.ToolCallsName {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				tool, _ := dp.Attributes.Value(attribute.Key("tool"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				counts[tool.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestInstrumented(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	rec := &memRecorder{}
	inv := &Instrumented{
		Next:     builtinRegistry(t),
		Metrics:  metrics,
		Logger:   zap.New(core),
		Recorder: rec,
	}
	ctx := context.Background()

	env, err := inv.Invoke(ctx, "add", json.RawMessage(`{"a":1,"b":1}`))
	require.NoError(t, err)
	assert.True(t, env.OK)

	env, err = inv.Invoke(ctx, "add", json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	assert.False(t, env.OK)

	env, err = inv.Invoke(ctx, "missing", nil)
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Equal(t, types.CodeNotFound, env.Error.Code)

	assert.Equal(t, map[string]int64{"add/ok": 1, "add/error": 1, "missing/error": 1}, toolCallCounts(t, reader))

	entries := logs.FilterMessage("tool call").All()
	require.Len(t, entries, 3)
	assert.Equal(t, "add", entries[0].ContextMap()["tool"])
	assert.Equal(t, "BAD_INPUT", entries[1].ContextMap()["code"])

	require.Len(t, rec.entries, 3)
	assert.True(t, rec.entries[0].OK)
	assert.Equal(t, `{"a":1,"b":1}`, rec.entries[0].Input)
	assert.Equal(t, "BAD_INPUT", rec.entries[1].Code)
	assert.Equal(t, "missing", rec.entries[2].Tool)
	assert.Equal(t, env.Meta.RequestID, rec.entries[2].RequestID)

	assert.Equal(t, builtinRegistry(t).Specs(), inv.Specs())
}

func TestInstrumented_RecorderFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	inv := &Instrumented{
		Next:     builtinRegistry(t),
		Logger:   zap.New(core),
		Recorder: &memRecorder{err: errors.New("disk full")},
	}

	env, err := inv.Invoke(context.Background(), "health", nil)
	require.NoError(t, err)
	assert.True(t, env.OK)
	assert.Equal(t, 1, logs.FilterMessage("recording tool call").Len())
}
