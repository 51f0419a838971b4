package models

import (
	"time"

	oauth2 "github.com/grantflow/oauth2"
)

// AccessToken an issued access token; never mutated after creation
type AccessToken struct {
	Access    string           `json:"access"`
	TokenType oauth2.TokenType `json:"token_type"`
	ClientID  string           `json:"client_id"`
	Scope     string           `json:"scope"`
	Refresh   string           `json:"refresh,omitempty"`
	IssuedAt  time.Time        `json:"issued_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// GetAccess access token value
func (t *AccessToken) GetAccess() string {
	return t.Access
}

// GetTokenType token type
func (t *AccessToken) GetTokenType() oauth2.TokenType {
	return t.TokenType
}

// GetClientID the client the token was issued to
func (t *AccessToken) GetClientID() string {
	return t.ClientID
}

// GetScope the granted scope
func (t *AccessToken) GetScope() string {
	return t.Scope
}

// GetRefresh refresh token value, if one was issued
func (t *AccessToken) GetRefresh() string {
	return t.Refresh
}

// GetIssuedAt issue time
func (t *AccessToken) GetIssuedAt() time.Time {
	return t.IssuedAt
}

// GetExpiresAt expiry time
func (t *AccessToken) GetExpiresAt() time.Time {
	return t.ExpiresAt
}

// Expired reports whether the token is past its expiry.
func (t *AccessToken) Expired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}
