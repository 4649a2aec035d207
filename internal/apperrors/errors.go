// Package apperrors defines the gateway's single tagged error kind,
// collapsing the exception-driven flow of the source system into
// result values, per spec.md §9 "Exception-driven error flow" and the
// taxonomy in spec.md §7. Modeled on the teacher's pkg/errors.AppError.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is one of the seven error categories spec.md §7 defines.
type Kind string

const (
	KindInvalidRequest   Kind = "invalid_request"
	KindNotFound         Kind = "not_found"
	KindAuthError        Kind = "auth_error"
	KindRateLimited      Kind = "rate_limited"
	KindUpstreamSemantic Kind = "upstream_semantic"
	KindUpstreamTransient Kind = "upstream_transient"
	KindInternal         Kind = "internal"
)

// HTTPStatus maps a Kind to the status code spec.md §7 assigns it.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidRequest:
		return 400
	case KindNotFound:
		return 404
	case KindAuthError:
		return 401
	case KindRateLimited:
		return 429
	case KindUpstreamSemantic:
		return 400
	case KindUpstreamTransient:
		return 502
	default:
		return 500
	}
}

// OpenAIType maps a Kind to the OpenAI error envelope's `type` field
// (spec.md §7).
func (k Kind) OpenAIType() string {
	switch k {
	case KindInvalidRequest, KindUpstreamSemantic:
		return "invalid_request_error"
	case KindAuthError:
		return "authentication_error"
	case KindRateLimited:
		return "rate_limit_error"
	default:
		return "api_error"
	}
}

// AppError is the gateway's uniform error type. Every layer returns
// these (or wraps an underlying error into one) instead of panicking;
// only unrecoverable bugs reach a panic/recover boundary.
type AppError struct {
	Kind    Kind
	Message string
	Code    string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New builds an AppError with no code and no wrapped cause.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Newf is New with fmt.Sprintf formatting.
func Newf(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause while tagging it with kind.
func Wrap(kind Kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// WithCode returns a copy of e with Code set, for responses that carry
// a machine-readable code alongside the message (e.g. "invalid_parent").
func (e *AppError) WithCode(code string) *AppError {
	cp := *e
	cp.Code = code
	return &cp
}

// As extracts an *AppError from err, defaulting to KindInternal if err
// isn't already tagged — every boundary that talks to the outside
// world should funnel through this so nothing leaks untagged.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return &AppError{Kind: KindInternal, Message: "internal error", Err: err}
}

// Is reports whether err is (or wraps) an AppError of kind k.
func Is(err error, k Kind) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind == k
	}
	return false
}
