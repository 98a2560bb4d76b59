// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/policy-engine/internal/calllog"
	"github.com/pdiddy/policy-engine/internal/observe"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// Recorder persists one entry per tool call. *calllog.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, e calllog.Entry) error
}

// Instrumented wraps an Invoker with metrics, logging, and an optional call
// log. It does not change the envelope returned by Next.
type Instrumented struct {
	Next     Invoker
	Metrics  *observe.Metrics
	Logger   *zap.Logger
	Recorder Recorder
}

// Invoke calls Next and records the outcome.
func (in *Instrumented) Invoke(ctx context.Context, name string, input json.RawMessage) (types.Envelope, error) {
	start := time.Now()
	env, err := in.Next.Invoke(ctx, name, input)
	elapsed := time.Since(start)

	status := observe.StatusOK
	if err != nil || !env.OK {
		status = observe.StatusError
	}
	if in.Metrics != nil {
		in.Metrics.RecordToolCall(ctx, name, status, elapsed.Seconds())
	}

	fields := []zap.Field{
		zap.String("tool", name),
		zap.Bool("ok", env.OK),
		zap.Duration("duration", elapsed),
		zap.String("request_id", env.Meta.RequestID),
	}
	if env.Error != nil {
		fields = append(fields, zap.String("code", string(env.Error.Code)))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	in.logger().Info("tool call", fields...)

	if in.Recorder != nil {
		entry := calllog.Entry{
			RequestID:  env.Meta.RequestID,
			Tool:       name,
			OK:         env.OK,
			Input:      string(input),
			DurationMS: elapsed.Milliseconds(),
			CreatedAt:  start,
		}
		if env.Error != nil {
			entry.Code = string(env.Error.Code)
			entry.Message = env.Error.Message
		}
		if rerr := in.Recorder.Record(context.WithoutCancel(ctx), entry); rerr != nil {
			in.logger().Warn("recording tool call", zap.String("tool", name), zap.Error(rerr))
		}
	}
	return env, err
}

// Specs returns Next's specs.
func (in *Instrumented) Specs() []Spec {
	return in.Next.Specs()
}

func (in *Instrumented) logger() *zap.Logger {
	if in.Logger == nil {
		return zap.NewNop()
	}
	return in.Logger
}
