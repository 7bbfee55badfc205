package keycloak

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
	"github.com/keyfront/keyfront/authz"
)

// Claims is the decoded payload of a provider-issued token. Registered
// claims are validated by the Validator; the remaining fields are
// application-level identity attributes.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string      `json:"preferred_username"`
	Email             string      `json:"email"`
	GivenName         string      `json:"given_name"`
	FamilyName        string      `json:"family_name"`
	Roles             stringList  `json:"roles"`
	RealmAccess       RealmAccess `json:"realm_access"`
}

// RealmAccess is the provider-specific realm-role container. Not every token
// carries one, and tokens from differently configured realms may carry
// unexpected shapes; decoding is tolerant so a missing or malformed
// realm_access never fails token validation.
type RealmAccess struct {
	Roles []string
}

func (r *RealmAccess) UnmarshalJSON(data []byte) error {
	var raw struct {
		Roles []any `json:"roles"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, v := range raw.Roles {
		if s, ok := v.(string); ok && s != "" {
			r.Roles = append(r.Roles, s)
		}
	}
	return nil
}

// stringList decodes a JSON string array, silently dropping anything else.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

// NewPrincipal builds the per-request principal from validated claims. The
// principal's role set is the union of roles already present on the token
// and realm roles hoisted by ProjectRealmRoles; duplicates across the two
// sources are preserved in claim order.
func NewPrincipal(claims *Claims) *authz.Principal {
	p := &authz.Principal{
		Username:        claims.PreferredUsername,
		IsAuthenticated: true,
		AuthType:        "Bearer",
	}

	if claims.Subject != "" {
		p.AddClaim(authz.ClaimTypeSubject, claims.Subject)
	}
	if claims.PreferredUsername != "" {
		p.AddClaim(authz.ClaimTypeUsername, claims.PreferredUsername)
	}
	if claims.Email != "" {
		p.AddClaim(authz.ClaimTypeEmail, claims.Email)
	}
	if claims.GivenName != "" {
		p.AddClaim(authz.ClaimTypeGivenName, claims.GivenName)
	}
	if claims.FamilyName != "" {
		p.AddClaim(authz.ClaimTypeFamilyName, claims.FamilyName)
	}
	for _, role := range claims.Roles {
		p.AddClaim(authz.ClaimTypeRole, role)
	}

	ProjectRealmRoles(claims, p)
	return p
}

// ProjectRealmRoles hoists the provider-specific realm_access.roles values
// into the principal's generic role-claim set. It runs only after token
// validation; it performs no cryptographic checks of its own. Missing or
// unexpected payload shapes are ignored, never an error.
func ProjectRealmRoles(claims *Claims, principal *authz.Principal) {
	if claims == nil || principal == nil {
		return
	}
	for _, role := range claims.RealmAccess.Roles {
		principal.AddClaim(authz.ClaimTypeRole, role)
	}
}
