package authz

// Well-known claim types used by the gateway. Claim types follow the token
// payload field names except for ClaimTypeRole, which collects both generic
// role claims and realm roles hoisted during projection.
const (
	ClaimTypeRole       = "role"
	ClaimTypeEmail      = "email"
	ClaimTypeGivenName  = "given_name"
	ClaimTypeFamilyName = "family_name"
	ClaimTypeUsername   = "preferred_username"
	ClaimTypeSubject    = "sub"
)

// Claim is a single (type, value) pair carried by a principal.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Principal is the authenticated identity constructed for a single request
// from a validated token. It is built once per request and discarded when
// the request completes.
//
// Claims preserve insertion order. Role claims are intentionally not
// deduplicated: a role present on the token and hoisted again from realm
// roles appears twice, matching original claim order.
type Principal struct {
	Username        string  `json:"username"`
	IsAuthenticated bool    `json:"is_authenticated"`
	AuthType        string  `json:"auth_type"`
	Claims          []Claim `json:"claims"`
}

// AddClaim appends a claim to the principal's claim set.
func (p *Principal) AddClaim(claimType, value string) {
	p.Claims = append(p.Claims, Claim{Type: claimType, Value: value})
}

// Roles returns the values of all role claims in claim order.
func (p *Principal) Roles() []string {
	var roles []string
	for _, c := range p.Claims {
		if c.Type == ClaimTypeRole {
			roles = append(roles, c.Value)
		}
	}
	return roles
}

// FirstClaim returns the value of the first claim of the given type, or the
// empty string when the principal carries none.
func (p *Principal) FirstClaim(claimType string) string {
	for _, c := range p.Claims {
		if c.Type == claimType {
			return c.Value
		}
	}
	return ""
}
