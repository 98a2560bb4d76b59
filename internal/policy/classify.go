// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/pdiddy/policy-engine/internal/httputil"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// requestIDHeader is set by api.data.gov on every proxied response.
const requestIDHeader = "X-Api-Umbrella-Request-Id"

// Classify maps an upstream failure to an ErrorInfo plus whatever response
// headers explain it. The meta is nil for failures that never reached the
// upstream.
func Classify(err error) (*types.ErrorInfo, *types.UpstreamMeta) {
	var se *httputil.StatusError
	if errors.As(err, &se) {
		return classifyStatus(se)
	}

	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return &types.ErrorInfo{Code: types.CodeMissingConfig, Message: ErrMissingAPIKey.Error()}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &types.ErrorInfo{Code: types.CodeUpstreamError, Message: "request cancelled or timed out", Detail: err.Error()}, nil
	}

	var ne net.Error
	var ue *url.Error
	if errors.As(err, &ne) || errors.As(err, &ue) {
		return &types.ErrorInfo{Code: types.CodeUpstreamError, Message: "upstream request failed", Detail: err.Error()}, nil
	}
	return &types.ErrorInfo{Code: types.CodeInternal, Message: err.Error()}, nil
}

func classifyStatus(se *httputil.StatusError) (*types.ErrorInfo, *types.UpstreamMeta) {
	h := se.Header
	if h == nil {
		h = http.Header{}
	}
	meta := &types.UpstreamMeta{RequestID: h.Get(requestIDHeader)}
	info := &types.ErrorInfo{Detail: se.Body}

	switch {
	case se.StatusCode == http.StatusTooManyRequests:
		info.Code = types.CodeRateLimited
		info.Message = "Rate limit exceeded"
		meta.RateLimitRemaining = h.Get("X-RateLimit-Remaining")
		meta.RateLimitLimit = h.Get("X-RateLimit-Limit")
	case se.StatusCode == http.StatusUnauthorized, se.StatusCode == http.StatusForbidden:
		info.Code = types.CodeBadAuth
		info.Message = "Authentication or authorization failed"
	case se.StatusCode == http.StatusServiceUnavailable:
		info.Code = types.CodeUpstreamUnavailable
		info.Message = "Upstream service unavailable; try again later"
		meta.RetryAfter = h.Get("Retry-After")
	default:
		info.Code = types.CodeUpstreamError
		info.Message = fmt.Sprintf("HTTP %d", se.StatusCode)
	}
	return info, meta
}
