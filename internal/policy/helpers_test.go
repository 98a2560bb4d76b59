// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/policy-engine/internal/httputil"
	"github.com/pdiddy/policy-engine/pkg/types"
)

func init() {
	// Use tiny delays so retry tests finish quickly.
	httputil.RetryBaseDelay = 1 * time.Millisecond
	httputil.RetryAfterUnit = 1 * time.Millisecond
}

// countingTransport fails every request and records how many were attempted.
type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("unexpected network call")
}

// stubSource is an in-memory Source.
type stubSource struct {
	name  string
	items []types.SearchItem
	err   error
	delay time.Duration
	calls atomic.Int32
	last  Query
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, q Query) ([]types.SearchItem, error) {
	s.calls.Add(1)
	s.last = q
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]types.SearchItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func dated(title, date string) types.SearchItem {
	return types.SearchItem{Title: title, Date: date}
}

func searchData(t *testing.T, env types.Envelope) types.SearchData {
	t.Helper()
	require.True(t, env.OK, "envelope error: %+v", env.Error)
	data, ok := env.Data.(types.SearchData)
	require.True(t, ok, "data is %T", env.Data)
	return data
}

func titles(items []types.SearchItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func statusErr(code int, header ...string) *httputil.StatusError {
	h := http.Header{}
	for i := 0; i+1 < len(header); i += 2 {
		h.Set(header[i], header[i+1])
	}
	return &httputil.StatusError{StatusCode: code, Header: h, Body: "upstream body"}
}
