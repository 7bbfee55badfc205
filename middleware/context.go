package middleware

import (
	"context"

	"github.com/keyfront/keyfront/authz"
	"github.com/keyfront/keyfront/keycloak"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"

	// ClaimsKey is the context key for validated token claims
	ClaimsKey contextKey = "claims"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetPrincipalFromContext retrieves the authenticated principal from context
func GetPrincipalFromContext(ctx context.Context) *authz.Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if principal, ok := val.(*authz.Principal); ok {
			return principal
		}
	}
	return nil
}

// WithPrincipal adds an authenticated principal to the context
func WithPrincipal(ctx context.Context, principal *authz.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetClaimsFromContext retrieves validated token claims from context
func GetClaimsFromContext(ctx context.Context) *keycloak.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*keycloak.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds validated token claims to the context
func WithClaims(ctx context.Context, claims *keycloak.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
