package models

import "time"

// AuthorizationGrant binds a single-use authorization code to the client,
// redirect URI and scope it was issued for.
type AuthorizationGrant struct {
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Scope       string    `json:"scope"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// GetCode authorization code
func (g *AuthorizationGrant) GetCode() string {
	return g.Code
}

// GetClientID the client the grant was issued to
func (g *AuthorizationGrant) GetClientID() string {
	return g.ClientID
}

// GetRedirectURI the redirect URI bound at authorization time
func (g *AuthorizationGrant) GetRedirectURI() string {
	return g.RedirectURI
}

// GetScope the approved scope
func (g *AuthorizationGrant) GetScope() string {
	return g.Scope
}

// GetIssuedAt issue time
func (g *AuthorizationGrant) GetIssuedAt() time.Time {
	return g.IssuedAt
}

// GetExpiresAt expiry time
func (g *AuthorizationGrant) GetExpiresAt() time.Time {
	return g.ExpiresAt
}

// Expired reports whether the grant is past its expiry.
func (g *AuthorizationGrant) Expired() bool {
	return !g.ExpiresAt.IsZero() && time.Now().After(g.ExpiresAt)
}
