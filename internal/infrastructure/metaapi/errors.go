package metaapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies upstream failures so callers can react differently:
// auth errors mark the connection, not-found errors skip one entity, and
// transient errors are retried.
type ErrorKind string

const (
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindPermission ErrorKind = "permission"
	KindRateLimit  ErrorKind = "rate_limit"
	KindTransient  ErrorKind = "transient"
)

// Graph API error codes that matter for classification.
const (
	codeAPIUnknown        = 1
	codeAPIService        = 2
	codeTooManyCalls      = 4
	codePermissionGeneric = 10
	codeRateLimitApp      = 17
	codeAccessExpired     = 190
	codePermissionScope   = 200
	codeNotFoundAlias     = 803
	codeRateLimitCustom   = 613
	codeRateLimitBusiness = 80004
)

// APIError is a typed upstream error.
type APIError struct {
	Kind       ErrorKind
	HTTPStatus int
	Code       int
	Subcode    int
	Message    string
	TraceID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meta api %s error (http %d, code %d): %s", e.Kind, e.HTTPStatus, e.Code, e.Message)
}

// Retryable reports whether the failure is worth retrying with backoff.
func (e *APIError) Retryable() bool {
	return e.Kind == KindRateLimit || e.Kind == KindTransient
}

// classifyError maps an HTTP status plus Graph error body onto a kind.
func classifyError(httpStatus int, body *errorBody) *APIError {
	apiErr := &APIError{HTTPStatus: httpStatus, Kind: KindTransient}
	if body != nil {
		apiErr.Code = body.Code
		apiErr.Subcode = body.ErrorSubcode
		apiErr.Message = body.Message
		apiErr.TraceID = body.FBTraceID
	}

	switch apiErr.Code {
	case codeAccessExpired:
		apiErr.Kind = KindAuth
		return apiErr
	case codePermissionGeneric, codePermissionScope:
		apiErr.Kind = KindPermission
		return apiErr
	case codeNotFoundAlias:
		apiErr.Kind = KindNotFound
		return apiErr
	case codeTooManyCalls, codeRateLimitApp, codeRateLimitCustom, codeRateLimitBusiness:
		apiErr.Kind = KindRateLimit
		return apiErr
	case codeAPIUnknown, codeAPIService:
		apiErr.Kind = KindTransient
		return apiErr
	}

	switch {
	case httpStatus == http.StatusUnauthorized:
		apiErr.Kind = KindAuth
	case httpStatus == http.StatusForbidden:
		apiErr.Kind = KindPermission
	case httpStatus == http.StatusNotFound:
		apiErr.Kind = KindNotFound
	case httpStatus == http.StatusTooManyRequests:
		apiErr.Kind = KindRateLimit
	case httpStatus >= 500:
		apiErr.Kind = KindTransient
	default:
		// Unclassified 4xx: do not retry blindly.
		apiErr.Kind = KindPermission
	}
	return apiErr
}

// AsAPIError extracts an APIError when err carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAuthError reports whether err is a credential failure.
func IsAuthError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindAuth
}

// IsNotFoundError reports whether err means the entity is gone upstream.
func IsNotFoundError(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == KindNotFound
}
