// Package oauth2 defines the collaborator interfaces of the authorization
// server: registries and stores for clients, grants and tokens, and the
// pluggable strategies that mint authorization codes and access tokens.
// The protocol orchestration itself lives in the engine package.
package oauth2

import (
	"context"
	"net/http"
	"time"
)

type (
	// ClientInfo the registered client information
	ClientInfo interface {
		GetID() string
		GetSecret() string
		GetRedirectURIs() []string
	}

	// ClientStore resolves a client identifier to its registration.
	// A nil ClientInfo with a nil error means the client is unknown.
	ClientStore interface {
		GetByID(ctx context.Context, id string) (ClientInfo, error)
	}

	// GrantInfo an authorization grant bound to a client, redirect URI and
	// scope, identified by a single-use code
	GrantInfo interface {
		GetCode() string
		GetClientID() string
		GetRedirectURI() string
		GetScope() string
		GetIssuedAt() time.Time
		GetExpiresAt() time.Time
	}

	// GrantStore persists authorization grants keyed by code. Consume is
	// delete-on-read and MUST be atomic with respect to concurrent callers:
	// of two concurrent redemptions of the same code exactly one receives
	// the grant, the other nil.
	GrantStore interface {
		Create(ctx context.Context, grant GrantInfo) error
		Consume(ctx context.Context, code string) (GrantInfo, error)
	}

	// TokenInfo an issued access token
	TokenInfo interface {
		GetAccess() string
		GetTokenType() TokenType
		GetClientID() string
		GetScope() string
		GetRefresh() string
		GetIssuedAt() time.Time
		GetExpiresAt() time.Time
	}

	// TokenStore persists issued access tokens keyed by token value.
	// Expiry is the store's responsibility, enforced at lookup: an expired
	// or unknown token is returned as nil with a nil error.
	TokenStore interface {
		Create(ctx context.Context, token TokenInfo) error
		GetByAccess(ctx context.Context, access string) (TokenInfo, error)
	}

	// GrantRequest carries the validated parameters of an authorization
	// request into grant generation
	GrantRequest struct {
		ClientID    string
		RedirectURI string
		Scope       string
		Request     *http.Request
	}

	// Authorizer mints a fresh authorization grant for a validated
	// authorization request. The code must be opaque and unguessable.
	Authorizer interface {
		GenerateGrant(ctx context.Context, gr *GrantRequest) (GrantInfo, error)
	}

	// AccessIssuer mints an access token for a consumed grant, bound to the
	// grant's client and scope
	AccessIssuer interface {
		Issue(ctx context.Context, grant GrantInfo) (TokenInfo, error)
	}

	// ClientAuthenticator authenticates the caller at the token endpoint.
	// An empty client id with a nil error means no authentication was
	// attempted; a non-nil error means authentication was attempted and
	// failed.
	ClientAuthenticator interface {
		Authenticate(r *http.Request) (clientID string, err error)
	}
)
