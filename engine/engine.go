// Package engine implements the OAuth 2.0 protocol core: the authorization
// endpoint, the token endpoint and the token validation operations, with all
// request validation, error mapping and redirect construction. Storage,
// code/token generation and client authentication are injected collaborators.
package engine

import (
	"log/slog"

	oauth2 "github.com/grantflow/oauth2"
)

// Config engine configuration parameters
type Config struct {
	// AllowInsecureTransport disables the HTTPS requirement. Intended for
	// tests and local development only.
	AllowInsecureTransport bool
}

// NewConfig creates a default configuration.
func NewConfig() *Config {
	return &Config{}
}

// Engine provides the core OAuth 2.0 server operations. It holds no mutable
// state of its own; concurrency correctness rests on the stores.
type Engine struct {
	cfg           *Config
	clients       oauth2.ClientStore
	grants        oauth2.GrantStore
	tokens        oauth2.TokenStore
	authorizer    oauth2.Authorizer
	issuer        oauth2.AccessIssuer
	authenticator oauth2.ClientAuthenticator
	logger        *slog.Logger
}

// New creates an engine with the given configuration.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Engine{cfg: cfg, logger: slog.Default()}
}

// MapClientStorage sets the client registry.
func (e *Engine) MapClientStorage(cs oauth2.ClientStore) {
	e.clients = cs
}

// MapGrantStorage sets the authorization grant store.
func (e *Engine) MapGrantStorage(gs oauth2.GrantStore) {
	e.grants = gs
}

// MustGrantStorage sets the authorization grant store, panicking on a
// construction error.
func (e *Engine) MustGrantStorage(gs oauth2.GrantStore, err error) {
	if err != nil {
		panic(err)
	}
	e.grants = gs
}

// MapTokenStorage sets the access token store.
func (e *Engine) MapTokenStorage(ts oauth2.TokenStore) {
	e.tokens = ts
}

// MustTokenStorage sets the access token store, panicking on a construction
// error.
func (e *Engine) MustTokenStorage(ts oauth2.TokenStore, err error) {
	if err != nil {
		panic(err)
	}
	e.tokens = ts
}

// MapAuthorizer sets the authorization grant generator.
func (e *Engine) MapAuthorizer(a oauth2.Authorizer) {
	e.authorizer = a
}

// MapAccessIssuer sets the access token generator.
func (e *Engine) MapAccessIssuer(ai oauth2.AccessIssuer) {
	e.issuer = ai
}

// MapClientAuthenticator sets the token endpoint client authenticator.
// It may be left nil, in which case no client authentication is performed
// and enforcement falls to the grant binding checks.
func (e *Engine) MapClientAuthenticator(ca oauth2.ClientAuthenticator) {
	e.authenticator = ca
}

// SetLogger sets the structured logger.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}
