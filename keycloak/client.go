package keycloak

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/keyfront/keyfront/gateway"
	"go.uber.org/zap"
)

// defaultScope is requested on every credentials exchange.
const defaultScope = "openid profile email roles"

// DefaultExchangeTimeout bounds the upstream token-endpoint call when the
// config does not specify one.
const DefaultExchangeTimeout = 10 * time.Second

// ClientConfig holds the identity-provider coordinates for the exchange
// client.
type ClientConfig struct {
	// URL is the provider's base URL, e.g. https://keycloak.example.com.
	URL string
	// Realm names the provider realm tokens are issued against.
	Realm string
	// ClientID identifies this gateway to the provider. Required.
	ClientID string
	// ClientSecret is sent when the provider client is confidential.
	ClientSecret string
	// Timeout bounds each exchange call. Defaults to DefaultExchangeTimeout.
	Timeout time.Duration
}

// Client exchanges user credentials or refresh tokens for provider-issued
// tokens at the realm's OpenID Connect token endpoint. It is safe for
// concurrent use; the underlying HTTP client is shared across requests.
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a token exchange client. A missing URL, realm, or client
// ID is a configuration error, not a per-request error.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("keycloak: URL is required")
	}
	if cfg.Realm == "" {
		return nil, errors.New("keycloak: realm is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("keycloak: client ID is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultExchangeTimeout
	}

	tokenURL := fmt.Sprintf(
		"%s/realms/%s/protocol/openid-connect/token",
		strings.TrimSuffix(cfg.URL, "/"),
		cfg.Realm,
	)

	return &Client{
		tokenURL:     tokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}, nil
}

// Login exchanges username and password for a token via the password grant.
// Blank input fails with invalid_request before any network call.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResult, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, gateway.InvalidRequest("Username and password are required")
	}

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {c.clientID},
		"username":   {username},
		"password":   {password},
		"scope":      {defaultScope},
	}

	return c.exchange(ctx, form, grantPassword)
}

// Refresh exchanges a refresh token for a new token via the refresh_token
// grant. The token is opaque to the gateway; it is forwarded, never
// inspected. A blank token fails with invalid_request before any network
// call.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, gateway.InvalidRequest("Refresh token is required")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"refresh_token": {refreshToken},
	}

	return c.exchange(ctx, form, grantRefresh)
}

// exchange issues exactly one POST to the token endpoint and translates the
// raw response. There are no retries; a single upstream failure is a single
// reported failure.
func (c *Client) exchange(ctx context.Context, form url.Values, kind grantKind) (*TokenResult, error) {
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Warn("token endpoint request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("grant_type", form.Get("grant_type")))
	}

	return translate(resp.StatusCode, body, kind)
}

// classifyTransportError distinguishes deadline and cancellation outcomes
// from other network failures, which surface as server_error at the service
// boundary.
func (c *Client) classifyTransportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return gateway.UpstreamTimeout()
	case errors.Is(ctx.Err(), context.Canceled):
		return gateway.Cancelled()
	default:
		return fmt.Errorf("token request failed: %w", err)
	}
}
