package keycloak

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/keyfront/keyfront/gateway"
)

// grantKind distinguishes the two exchange paths. A failed refresh is
// semantically a bad-grant condition, not a bad-password condition, so the
// two paths use different fallback codes.
type grantKind int

const (
	grantPassword grantKind = iota
	grantRefresh
)

// translate converts a raw token-endpoint response into the gateway's result
// shape. Transport failure is checked before payload-content failure;
// payload-content failure is checked before returning success.
func translate(statusCode int, body []byte, kind grantKind) (*TokenResult, error) {
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, translateError(body, kind)
	}

	var token tokenEndpointResponse
	if err := json.Unmarshal(body, &token); err != nil {
		// Malformed success body is an unexpected upstream failure; the
		// service boundary maps it to server_error.
		return nil, fmt.Errorf("parse token response: %w", err)
	}

	// A successful transport status is not sufficient evidence of a usable
	// token.
	if token.AccessToken == "" {
		return nil, gateway.TokenError()
	}

	return token.toResult(), nil
}

// translateError parses the provider's error body, falling back to a generic
// per-path error when the body is not parseable.
func translateError(body []byte, kind grantKind) *gateway.Error {
	var provider errorResponse
	description := ""
	if err := json.Unmarshal(body, &provider); err == nil {
		description = provider.ErrorDescription
	}

	if kind == grantRefresh {
		return gateway.InvalidGrant(description)
	}
	return gateway.AuthenticationFailed(description)
}
