package generates

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/errors"
	"github.com/grantflow/oauth2/models"
)

// JWTAccessClaims jwt claims
type JWTAccessClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id,omitempty"`
	Scope    string `json:"scope,omitempty"` // Space-separated scopes per RFC 6749
}

// NewJWTIssuer create to generate the jwt access token instance
func NewJWTIssuer(kid string, key []byte, method jwt.SigningMethod) *JWTIssuer {
	return &JWTIssuer{
		SignedKeyID:  kid,
		SignedKey:    key,
		SignedMethod: method,
		AccessTTL:    DefaultAccessTTL,
	}
}

// JWTIssuer generate the jwt access token
type JWTIssuer struct {
	SignedKeyID    string
	SignedKey      []byte
	SignedMethod   jwt.SigningMethod
	AccessTTL      time.Duration
	IncludeRefresh bool
}

// Issue mints a signed JWT access token for the grant's client and scope.
// The token is still registered in the token store so that introspection and
// revocation keep working.
func (a *JWTIssuer) Issue(_ context.Context, grant oauth2.GrantInfo) (oauth2.TokenInfo, error) {
	ttl := a.AccessTTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &JWTAccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{grant.GetClientID()},
			Subject:   grant.GetClientID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ClientID: grant.GetClientID(),
		Scope:    grant.GetScope(),
	}

	token := jwt.NewWithClaims(a.SignedMethod, claims)
	if a.SignedKeyID != "" {
		token.Header["kid"] = a.SignedKeyID
	}
	var key interface{}
	if a.isEs() {
		v, err := jwt.ParseECPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return nil, err
		}
		key = v
	} else if a.isRsOrPS() {
		v, err := jwt.ParseRSAPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return nil, err
		}
		key = v
	} else if a.isHs() {
		key = a.SignedKey
	} else if a.isEd() {
		v, err := jwt.ParseEdPrivateKeyFromPEM(a.SignedKey)
		if err != nil {
			return nil, err
		}
		key = v
	} else {
		return nil, errors.New("unsupported sign method")
	}

	access, err := token.SignedString(key)
	if err != nil {
		return nil, err
	}

	info := &models.AccessToken{
		Access:    access,
		TokenType: oauth2.Bearer,
		ClientID:  grant.GetClientID(),
		Scope:     grant.GetScope(),
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	if a.IncludeRefresh {
		info.Refresh = generateRefresh(access)
	}
	return info, nil
}

func (a *JWTIssuer) isEs() bool {
	return strings.HasPrefix(a.SignedMethod.Alg(), "ES")
}

func (a *JWTIssuer) isRsOrPS() bool {
	isRs := strings.HasPrefix(a.SignedMethod.Alg(), "RS")
	isPs := strings.HasPrefix(a.SignedMethod.Alg(), "PS")
	return isRs || isPs
}

func (a *JWTIssuer) isHs() bool { return strings.HasPrefix(a.SignedMethod.Alg(), "HS") }
func (a *JWTIssuer) isEd() bool { return strings.HasPrefix(a.SignedMethod.Alg(), "Ed") }
