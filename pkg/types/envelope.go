// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures exchanged by tools,
// transports, and the CLI.
//
// Every tool returns an [Envelope]. A successful envelope carries Data and no
// Error; a failed one always carries an Error. Meta is present on both.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrorCode is the stable, machine-readable error classification surfaced in
// ErrorInfo.Code.
type ErrorCode string

const (
	CodeBadInput            ErrorCode = "BAD_INPUT"
	CodeMissingConfig       ErrorCode = "MISSING_CONFIG"
	CodeUpstreamError       ErrorCode = "UPSTREAM_ERROR"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeBadAuth             ErrorCode = "BAD_AUTH"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeInternal            ErrorCode = "INTERNAL"
)

// FetchedAtLayout is the UTC timestamp layout used for Meta.FetchedAt.
const FetchedAtLayout = "2006-01-02T15:04:05Z"

// ErrorInfo describes a failed operation.
type ErrorInfo struct {
	Code    ErrorCode `json:"code" yaml:"code"`
	Message string    `json:"message" yaml:"message"`
	Detail  string    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Error implements the error interface so an ErrorInfo can travel through
// ordinary error returns before it is placed in an envelope.
func (e *ErrorInfo) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an ErrorInfo with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *ErrorInfo {
	return &ErrorInfo{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Meta is the per-call metadata attached to every envelope.
type Meta struct {
	RequestID  string `json:"request_id" yaml:"request_id"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
	FetchedAt  string `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`

	// Source names the operation or upstream that produced the envelope.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// OffsetMark and Count are reported by paged upstream searches.
	OffsetMark string `json:"offset_mark,omitempty" yaml:"offset_mark,omitempty"`
	Count      *int   `json:"count,omitempty" yaml:"count,omitempty"`
}

// NewMeta returns Meta with a fresh request id and the time elapsed since start.
func NewMeta(start time.Time) Meta {
	return Meta{
		RequestID:  uuid.NewString(),
		DurationMS: time.Since(start).Milliseconds(),
	}
}

// StampedMeta is NewMeta plus the current UTC time in FetchedAt.
func StampedMeta(start time.Time) Meta {
	m := NewMeta(start)
	m.FetchedAt = time.Now().UTC().Format(FetchedAtLayout)
	return m
}

// Envelope is the uniform result wrapper returned by every tool.
type Envelope struct {
	OK    bool       `json:"ok" yaml:"ok"`
	Data  any        `json:"data,omitempty" yaml:"data,omitempty"`
	Error *ErrorInfo `json:"error,omitempty" yaml:"error,omitempty"`
	Meta  Meta       `json:"meta" yaml:"meta"`
}

// Success wraps data in an ok envelope.
func Success(data any, meta Meta) Envelope {
	return Envelope{OK: true, Data: data, Meta: meta}
}

// Failure wraps err in a failed envelope.
func Failure(err *ErrorInfo, meta Meta) Envelope {
	return Envelope{OK: false, Error: err, Meta: meta}
}
