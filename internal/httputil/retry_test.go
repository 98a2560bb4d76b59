// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use tiny delays so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
	RetryAfterUnit = 1 * time.Millisecond
}

func newGet(t *testing.T, u string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, u, nil)
	require.NoError(t, err)
	return req
}

func TestSend_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := Send(context.Background(), ts.Client(), newGet(t, ts.URL), 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSend_RetriesServerErrorThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := Send(context.Background(), ts.Client(), newGet(t, ts.URL), 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSend_ExhaustsAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down for maintenance"))
	}))
	defer ts.Close()

	_, err := Send(context.Background(), ts.Client(), newGet(t, ts.URL), 3)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "1", se.Header.Get("Retry-After"))
	assert.Equal(t, "down for maintenance", se.Body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSend_DefaultMaxAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := Send(context.Background(), ts.Client(), newGet(t, ts.URL), 0)
	require.Error(t, err)
	assert.Equal(t, int32(DefaultMaxAttempts), atomic.LoadInt32(&calls))
}

func TestSend_ClientErrorsAreNotRetried(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests} {
		var calls int32
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(status)
		}))

		_, err := Send(context.Background(), ts.Client(), newGet(t, ts.URL), 3)
		ts.Close()

		var se *StatusError
		require.True(t, errors.As(err, &se), "status %d", status)
		assert.Equal(t, status, se.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "status %d", status)
	}
}

func TestSend_ReplaysPostBody(t *testing.T) {
	var calls int32
	var bodies []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"query":"x"}`))
	require.NoError(t, err)

	resp, err := Send(context.Background(), ts.Client(), req, 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, []string{`{"query":"x"}`, `{"query":"x"}`}, bodies)
}

func TestSend_ContextCancelledDuringWait(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := Send(ctx, ts.Client(), newGet(t, ts.URL), 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSend_TransportErrorIsRetried(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	u := ts.URL
	ts.Close()

	var calls int32
	_, err := Do(context.Background(), 3, func(ctx context.Context) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		return http.DefaultClient.Do(req)
	})
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCheckResponse_RedactsQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := Send(context.Background(), ts.Client(), newGet(t, ts.URL+"/search?api_key=secret"), 1)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.NotContains(t, se.URL, "secret")
	assert.Equal(t, "HTTP 401", se.Error())
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"2", 2 * RetryAfterUnit, true},
		{"1.9", 1 * RetryAfterUnit, true},
		{"", 0, false},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := retryAfter(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackoff(t *testing.T) {
	hdr := func(v string) http.Header {
		h := http.Header{}
		if v != "" {
			h.Set("Retry-After", v)
		}
		return h
	}
	tests := []struct {
		name    string
		err     error
		attempt int
		want    time.Duration
		retry   bool
	}{
		{"503 waits the hint", &StatusError{StatusCode: 503, Header: hdr("7")}, 1, 7 * RetryAfterUnit, true},
		{"503 unparseable hint falls back", &StatusError{StatusCode: 503, Header: hdr("soon")}, 2, 4 * RetryBaseDelay, true},
		{"503 without hint", &StatusError{StatusCode: 503, Header: hdr("")}, 1, 2 * RetryBaseDelay, true},
		{"502 exponential", &StatusError{StatusCode: 502, Header: hdr("")}, 1, 2 * RetryBaseDelay, true},
		{"500 ignores hint", &StatusError{StatusCode: 500, Header: hdr("9")}, 3, 8 * RetryBaseDelay, true},
		{"429 not retried", &StatusError{StatusCode: 429, Header: hdr("7")}, 1, 0, false},
		{"404 not retried", &StatusError{StatusCode: 404, Header: hdr("")}, 1, 0, false},
		{"cancelled not retried", context.Canceled, 1, 0, false},
		{"plain error not retried", errors.New("boom"), 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, retry := backoff(tt.err, tt.attempt)
			if retry != tt.retry || got != tt.want {
				t.Errorf("backoff(%v, %d) = %v, %v; want %v, %v", tt.err, tt.attempt, got, retry, tt.want, tt.retry)
			}
		})
	}
}
