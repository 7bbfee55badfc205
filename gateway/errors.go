// Package gateway defines the error taxonomy shared by every failure path
// in the authentication gateway.
package gateway

import (
	"errors"
	"fmt"
)

// Gateway error codes. These are stable machine-readable tags returned to
// callers; descriptions may echo provider-supplied text.
const (
	CodeInvalidRequest       = "invalid_request"
	CodeAuthenticationFailed = "authentication_failed"
	CodeInvalidGrant         = "invalid_grant"
	CodeTokenError           = "token_error"
	CodeServerError          = "server_error"
	CodeUpstreamTimeout      = "upstream_timeout"
	CodeCancelled            = "cancelled"
)

// Error is the result shape produced by every failure path in the gateway.
// Code is one of the Code* constants above.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is implements errors.Is; two gateway errors match when their codes match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a gateway error with the given code and description.
func New(code, description string) *Error {
	return &Error{
		Code:        code,
		Description: description,
	}
}

// InvalidRequest reports caller-supplied input missing required fields.
// It never reaches the identity provider.
func InvalidRequest(description string) *Error {
	return New(CodeInvalidRequest, description)
}

// AuthenticationFailed reports that the identity provider rejected the
// supplied credentials.
func AuthenticationFailed(description string) *Error {
	if description == "" {
		description = "Invalid credentials"
	}
	return New(CodeAuthenticationFailed, description)
}

// InvalidGrant reports that the identity provider rejected a refresh token
// as invalid or expired. The caller must re-authenticate from scratch.
func InvalidGrant(description string) *Error {
	if description == "" {
		description = "Invalid or expired refresh token"
	}
	return New(CodeInvalidGrant, description)
}

// TokenError reports that the provider returned HTTP success but no usable
// access token, an upstream contract violation.
func TokenError() *Error {
	return New(CodeTokenError, "Failed to get access token")
}

// ServerError reports an unexpected failure caught at the boundary. The
// internal cause is logged, never returned to the caller.
func ServerError(description string) *Error {
	if description == "" {
		description = "An unexpected error occurred"
	}
	return New(CodeServerError, description)
}

// UpstreamTimeout reports that the exchange call exceeded its deadline.
func UpstreamTimeout() *Error {
	return New(CodeUpstreamTimeout, "Identity provider did not respond in time")
}

// Cancelled reports that the caller abandoned the request before the
// exchange completed.
func Cancelled() *Error {
	return New(CodeCancelled, "Request cancelled")
}

// AsError extracts a *Error from err, or nil when err is not one.
func AsError(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return nil
}

// IsCode reports whether err is a gateway error carrying the given code.
func IsCode(err error, code string) bool {
	gwErr := AsError(err)
	return gwErr != nil && gwErr.Code == code
}
