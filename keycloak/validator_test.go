package keycloak

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to generate an RSA key pair
func generateTestKeyPair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return privateKey, &privateKey.PublicKey
}

// Test helper to serve a JWKS for the given public key
func newFakeJWKSServer(t *testing.T, publicKey *rsa.PublicKey, kid string) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var fetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)

		nBytes := publicKey.N.Bytes()
		eBytes := big.NewInt(int64(publicKey.E)).Bytes()

		jwks := JWKS{
			Keys: []JWK{
				{
					Kid: kid,
					Kty: "RSA",
					Alg: "RS256",
					Use: "sig",
					N:   base64.RawURLEncoding.EncodeToString(nBytes),
					E:   base64.RawURLEncoding.EncodeToString(eBytes),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(server.Close)

	return server, &fetches
}

type tokenOverrides struct {
	issuer   string
	audience []string
	expires  time.Time
	claims   map[string]any
}

// Test helper to mint a signed realm token
func mintToken(t *testing.T, privateKey *rsa.PrivateKey, kid string, o tokenOverrides) string {
	t.Helper()

	if o.expires.IsZero() {
		o.expires = time.Now().Add(time.Hour)
	}

	payload := jwt.MapClaims{
		"iss":                o.issuer,
		"aud":                o.audience,
		"sub":                "1234-5678",
		"exp":                o.expires.Unix(),
		"iat":                time.Now().Unix(),
		"preferred_username": "alice",
	}
	for k, v := range o.claims {
		payload[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, payload)
	token.Header["kid"] = kid

	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}

// newValidatorAgainst points a validator at a fake JWKS server and returns
// the issuer it will expect.
func newValidatorAgainst(serverURL string) (*Validator, string) {
	v := NewValidator(ValidatorConfig{
		URL:      serverURL,
		Realm:    "test-realm",
		ClientID: "test-client",
	})
	// JWKS lives at {issuer}/protocol/openid-connect/certs; the fake server
	// answers every path, so only the issuer needs to line up.
	v.jwksURL = serverURL
	return v, serverURL + "/realms/test-realm"
}

func TestValidateToken_Success(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
		issuer:   issuer,
		audience: []string{"test-client"},
		claims: map[string]any{
			"email":        "alice@example.com",
			"realm_access": map[string]any{"roles": []string{"user", "admin"}},
		},
	})

	claims, err := validator.ValidateToken(context.Background(), tokenString)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.PreferredUsername)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"user", "admin"}, claims.RealmAccess.Roles)
}

func TestValidateToken_AcceptsAccountAudience(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
		issuer:   issuer,
		audience: []string{"account"},
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.NoError(t, err)
}

func TestValidateToken_RejectsWrongIssuer(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, _ := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
		issuer:   "https://evil.example.com/realms/test-realm",
		audience: []string{"test-client"},
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestValidateToken_RejectsWrongAudience(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
		issuer:   issuer,
		audience: []string{"other-client"},
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrInvalidAudience)
}

func TestValidateToken_RejectsExpiredToken(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
		issuer:   issuer,
		audience: []string{"test-client"},
		expires:  time.Now().Add(-time.Hour),
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_RejectsTamperedSignature(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	otherKey, _ := generateTestKeyPair(t)
	tokenString := mintToken(t, otherKey, "kid-1", tokenOverrides{
		issuer:   issuer,
		audience: []string{"test-client"},
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_UnknownKid(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-unknown", tokenOverrides{
		issuer:   issuer,
		audience: []string{"test-client"},
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_GarbageTokens(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	server, _ := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, _ := newValidatorAgainst(server.URL)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := validator.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestValidator_JWKSFetchedOncePerKid(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, fetches := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	for i := 0; i < 3; i++ {
		tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
			issuer:   issuer,
			audience: []string{"test-client"},
		})
		_, err := validator.ValidateToken(context.Background(), tokenString)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), fetches.Load())
}

func TestValidator_InvalidateCacheForcesRefetch(t *testing.T) {
	privateKey, publicKey := generateTestKeyPair(t)
	server, fetches := newFakeJWKSServer(t, publicKey, "kid-1")
	validator, issuer := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
		issuer:   issuer,
		audience: []string{"test-client"},
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	require.NoError(t, err)

	validator.InvalidateCache()

	_, err = validator.ValidateToken(context.Background(), tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetches.Load())
}

func TestValidator_JWKSFetchFailure(t *testing.T) {
	privateKey, _ := generateTestKeyPair(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	validator, issuer := newValidatorAgainst(server.URL)

	tokenString := mintToken(t, privateKey, "kid-1", tokenOverrides{
		issuer:   issuer,
		audience: []string{"test-client"},
	})

	_, err := validator.ValidateToken(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
