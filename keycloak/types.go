package keycloak

// TokenResult is the gateway's view of a successful token exchange. It is
// only constructed when the provider supplied a non-empty access token.
type TokenResult struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in,omitempty"`
	Scope            string `json:"scope,omitempty"`
}

// tokenEndpointResponse is the provider's JSON success body at the token
// endpoint.
type tokenEndpointResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	Scope            string `json:"scope"`
}

func (r *tokenEndpointResponse) toResult() *TokenResult {
	return &TokenResult{
		AccessToken:      r.AccessToken,
		RefreshToken:     r.RefreshToken,
		TokenType:        r.TokenType,
		ExpiresIn:        r.ExpiresIn,
		RefreshExpiresIn: r.RefreshExpiresIn,
		Scope:            r.Scope,
	}
}

// errorResponse is the provider's JSON error body.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
