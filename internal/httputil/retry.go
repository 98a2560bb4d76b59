// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the upstream clients.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RetryBaseDelay is the base of the exponential backoff. Attempt n (1-based)
// waits 2^n * RetryBaseDelay. Tests override this to avoid real sleeps.
var RetryBaseDelay = time.Second

// RetryAfterUnit scales a Retry-After header value. Tests override it.
var RetryAfterUnit = time.Second

// DefaultMaxAttempts is the retry budget used when a caller passes zero.
const DefaultMaxAttempts = 3

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 64 << 10

// StatusError is returned for any non-2xx upstream response. The body is
// read (up to 64 KiB) and the response closed before it is returned.
type StatusError struct {
	StatusCode int
	Header     http.Header
	Body       string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// CheckResponse returns resp unchanged for 2xx statuses. Otherwise it drains
// and closes the body and returns a *StatusError.
func CheckResponse(resp *http.Response) (*http.Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(body),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		se.URL = redact(resp.Request.URL)
	}
	return nil, se
}

// redact strips the query string so API keys never reach error text.
func redact(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	return c.String()
}

// Do runs op up to maxAttempts times. A 503 with a numeric Retry-After waits
// that many seconds; other 5xx responses and transport failures wait with
// exponential backoff. Any other error is returned immediately. After the
// last attempt the final error is returned. If ctx is cancelled during a
// wait, Do returns ctx.Err().
func Do[T any](ctx context.Context, maxAttempts int, op func(context.Context) (T, error)) (T, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var zero T
	for attempt := 1; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		wait, retry := backoff(err, attempt)
		if !retry || attempt >= maxAttempts {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	exp := time.Duration(1<<attempt) * RetryBaseDelay

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusServiceUnavailable:
			if d, ok := retryAfter(se.Header.Get("Retry-After")); ok {
				return d, true
			}
			return exp, true
		case se.StatusCode >= 500:
			return exp, true
		default:
			return 0, false
		}
	}

	var ne net.Error
	var ue *url.Error
	if errors.As(err, &ne) || errors.As(err, &ue) {
		return exp, true
	}
	return 0, false
}

// retryAfter parses a delay-seconds Retry-After value. Fractional seconds
// are truncated. HTTP-date values are not supported and fall back to
// exponential backoff.
func retryAfter(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return time.Duration(int64(f)) * RetryAfterUnit, true
}

// Send issues req through client with the retry policy of [Do]. The request
// is cloned for every attempt; a request body is replayed via GetBody, so
// bodies must come from http.NewRequest with a bytes or strings reader.
// The returned response always has a 2xx status.
func Send(ctx context.Context, client *http.Client, req *http.Request, maxAttempts int) (*http.Response, error) {
	return Do(ctx, maxAttempts, func(ctx context.Context) (*http.Response, error) {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			r.Body = body
		}
		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}
		return CheckResponse(resp)
	})
}
