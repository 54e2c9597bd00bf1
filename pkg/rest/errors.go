// Package rest implements the REST collaborator: typed get/post/patch/put/
// delete calls, multipart attachment uploads, and a fixed error-
// classification scheme derived from HTTP status codes.
package rest

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a REST failure by HTTP status.
type ErrorKind int

const (
	// KindResponse is the fallback classification for any status not
	// named explicitly below; StatusCode carries the raw code.
	KindResponse ErrorKind = iota
	KindBadRequest
	KindInvalidToken
	KindNotPermitted
	KindNotFound
	KindRateLimited
	KindGatewayUnavailable
)

// String returns a short label for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindInvalidToken:
		return "invalid_token"
	case KindNotPermitted:
		return "not_permitted"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindGatewayUnavailable:
		return "gateway_unavailable"
	default:
		return "response"
	}
}

// APIError is returned for any non-2xx REST response. It carries the
// classification, the raw status code, and the platform's own JSON error
// body when present ({code, message}).
type APIError struct {
	Kind       ErrorKind
	StatusCode int

	// Code and Message are populated from a JSON {code, message} response
	// body when the platform sends one; both are zero-value otherwise.
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("rest: %s (status %d, code %d): %s", e.Kind, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("rest: %s (status %d)", e.Kind, e.StatusCode)
}

// classifyStatus maps an HTTP status to an ErrorKind: 400→BadRequest,
// 401→InvalidToken, 403→NotPermitted, 404→NotFound, 429→RateLimited,
// 502→GatewayUnavailable, other→Response(code).
func classifyStatus(status int) ErrorKind {
	switch status {
	case 400:
		return KindBadRequest
	case 401:
		return KindInvalidToken
	case 403:
		return KindNotPermitted
	case 404:
		return KindNotFound
	case 429:
		return KindRateLimited
	case 502:
		return KindGatewayUnavailable
	default:
		return KindResponse
	}
}

// ErrRequest wraps transport-level failures (dial, write, read) that never
// produced an HTTP response at all.
var ErrRequest = errors.New("rest: request failed")

// IsNotFound reports whether err is an [*APIError] classified as
// [KindNotFound].
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindNotFound
	}
	return false
}
