package services

import (
	"context"
	"time"

	"github.com/keyfront/keyfront/authz"
	"github.com/keyfront/keyfront/cache"
	"github.com/keyfront/keyfront/gateway"
	"github.com/keyfront/keyfront/keycloak"
	"go.uber.org/zap"
)

// userInfoTTL bounds how long a projected user-info view may be served from
// cache.
const userInfoTTL = 5 * time.Minute

// TokenExchanger performs the OAuth2 grant exchanges against the identity
// provider's token endpoint.
type TokenExchanger interface {
	Login(ctx context.Context, username, password string) (*keycloak.TokenResult, error)
	Refresh(ctx context.Context, refreshToken string) (*keycloak.TokenResult, error)
}

// UserInfoResponse is the identity view projected from a validated
// principal.
type UserInfoResponse struct {
	Username           string        `json:"username"`
	IsAuthenticated    bool          `json:"is_authenticated"`
	AuthenticationType string        `json:"authentication_type"`
	Email              string        `json:"email"`
	GivenName          string        `json:"given_name"`
	FamilyName         string        `json:"family_name"`
	Roles              []string      `json:"roles"`
	Claims             []authz.Claim `json:"claims"`
}

// LogoutResponse acknowledges a logout. The gateway holds no session state,
// so logout is a client-side acknowledgement only.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TokenValidationResponse reports the outcome of validating a bearer token.
type TokenValidationResponse struct {
	IsValid   bool   `json:"is_valid"`
	Username  string `json:"username,omitempty"`
	IssuedAt  string `json:"issued_at,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Issuer    string `json:"issuer,omitempty"`
}

// AccountService fronts the identity provider for credential and refresh
// exchanges and projects validated principals into caller-facing views.
// Unexpected failures are caught here and mapped to server_error; internal
// details are logged, never returned.
type AccountService struct {
	exchanger TokenExchanger
	cache     cache.Cache
	logger    *zap.Logger
}

// NewAccountService creates an account service. The cache is optional; pass
// nil to disable user-info memoization.
func NewAccountService(exchanger TokenExchanger, c cache.Cache, logger *zap.Logger) *AccountService {
	return &AccountService{
		exchanger: exchanger,
		cache:     c,
		logger:    logger,
	}
}

// Login exchanges user credentials for provider-issued tokens.
func (s *AccountService) Login(ctx context.Context, username, password string) (*keycloak.TokenResult, error) {
	result, err := s.exchanger.Login(ctx, username, password)
	if err != nil {
		gwErr := gateway.AsError(err)
		if gwErr == nil {
			s.logger.Error("unexpected failure during login",
				zap.String("username", username),
				zap.Error(err))
			return nil, gateway.ServerError("An error occurred during login")
		}
		s.logger.Warn("login failed",
			zap.String("username", username),
			zap.String("code", gwErr.Code))
		return nil, gwErr
	}

	s.logger.Info("user logged in", zap.String("username", username))
	return result, nil
}

// Refresh exchanges a refresh token for new provider-issued tokens.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*keycloak.TokenResult, error) {
	result, err := s.exchanger.Refresh(ctx, refreshToken)
	if err != nil {
		gwErr := gateway.AsError(err)
		if gwErr == nil {
			s.logger.Error("unexpected failure during token refresh", zap.Error(err))
			return nil, gateway.ServerError("An error occurred during token refresh")
		}
		s.logger.Warn("token refresh failed", zap.String("code", gwErr.Code))
		return nil, gwErr
	}

	s.logger.Info("token refreshed")
	return result, nil
}

// Logout acknowledges a logout and drops any cached user-info view for the
// principal. There is no session to destroy; token revocation is the
// provider's concern.
func (s *AccountService) Logout(ctx context.Context, principal *authz.Principal) *LogoutResponse {
	if principal != nil && s.cache != nil {
		s.cache.Remove(ctx, userInfoKey(principal.Username))
	}
	return &LogoutResponse{
		Success: true,
		Message: "Logged out successfully",
	}
}

// UserInfo projects a validated principal into the caller-facing identity
// view, memoized through the cache when one is configured. Cache
// unavailability never fails the request.
func (s *AccountService) UserInfo(ctx context.Context, principal *authz.Principal) *UserInfoResponse {
	key := userInfoKey(principal.Username)

	if s.cache != nil {
		var cached UserInfoResponse
		if s.cache.Get(ctx, key, &cached) {
			return &cached
		}
	}

	info := &UserInfoResponse{
		Username:           principal.Username,
		IsAuthenticated:    principal.IsAuthenticated,
		AuthenticationType: principal.AuthType,
		Email:              principal.FirstClaim(authz.ClaimTypeEmail),
		GivenName:          principal.FirstClaim(authz.ClaimTypeGivenName),
		FamilyName:         principal.FirstClaim(authz.ClaimTypeFamilyName),
		Roles:              principal.Roles(),
		Claims:             principal.Claims,
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, info, userInfoTTL)
	}

	return info
}

// TokenValidation projects validated claims into the validation view.
func (s *AccountService) TokenValidation(claims *keycloak.Claims) *TokenValidationResponse {
	if claims == nil {
		return &TokenValidationResponse{IsValid: false}
	}

	resp := &TokenValidationResponse{
		IsValid:  true,
		Username: claims.PreferredUsername,
		Issuer:   claims.Issuer,
	}
	if claims.IssuedAt != nil {
		resp.IssuedAt = claims.IssuedAt.UTC().Format(time.RFC3339)
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func userInfoKey(username string) string {
	return "userinfo:" + username
}
