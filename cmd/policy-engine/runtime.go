// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pdiddy/policy-engine/internal/calllog"
	"github.com/pdiddy/policy-engine/internal/observe"
	"github.com/pdiddy/policy-engine/internal/tools"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// runtime is the wired tool stack shared by serve and the in-process
// subcommands.
type runtime struct {
	deps     tools.Deps
	registry *tools.Registry
	invoker  tools.Invoker
	provider *observe.Provider
	calls    *calllog.Store
}

// newRuntime builds upstream clients and the tool registry. The registry is
// wrapped in an instrumented invoker; metrics and the call log are attached
// only when configured.
func newRuntime(ctx context.Context, c types.Config, log *zap.Logger) (*runtime, error) {
	rt := &runtime{deps: tools.NewDeps(c, log)}

	inst := &tools.Instrumented{Logger: log}
	if c.Metrics.Enabled {
		p, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
		if err != nil {
			return nil, err
		}
		rt.provider = p
		m, err := observe.NewMetrics(p.MeterProvider)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
		inst.Metrics = m
		rt.deps.Aggregator.Observer = m
	}
	if c.CallLog.Path != "" {
		store, err := calllog.Open(c.CallLog.Path)
		if err != nil {
			rt.Close(ctx)
			return nil, err
		}
		rt.calls = store
		inst.Recorder = store
	}

	reg, err := tools.NewCatalogRegistry(rt.deps)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	rt.registry = reg
	inst.Next = reg
	rt.invoker = inst
	return rt, nil
}

// Close releases the call log and flushes metrics.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.calls != nil {
		errs = append(errs, rt.calls.Close())
	}
	if rt.provider != nil {
		errs = append(errs, rt.provider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
