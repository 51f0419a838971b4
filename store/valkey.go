package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

// tokenHash returns a stable hex sha256 for a token string.
func tokenHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// NewValkeyGrantStore creates a Valkey-backed grant store.
// addr example: "127.0.0.1:6379"; prefix helps namespace keys.
func NewValkeyGrantStore(addr string, prefix string) (*ValkeyGrantStore, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "oauth2:"
	}
	return &ValkeyGrantStore{client: cli, prefix: prefix}, nil
}

// ValkeyGrantStore stores authorization grants in Valkey (Redis-compatible).
// Consume uses GETDEL, so concurrent redemptions of the same code see
// exactly one winner even across server instances.
type ValkeyGrantStore struct {
	client valkey.Client
	prefix string
}

func (gs *ValkeyGrantStore) key(code string) string { return gs.prefix + "grant:" + code }

// Create stores the grant JSON under grant:<code> with the grant's TTL.
func (gs *ValkeyGrantStore) Create(ctx context.Context, grant oauth2.GrantInfo) error {
	jv, err := json.Marshal(&models.AuthorizationGrant{
		Code:        grant.GetCode(),
		ClientID:    grant.GetClientID(),
		RedirectURI: grant.GetRedirectURI(),
		Scope:       grant.GetScope(),
		IssuedAt:    grant.GetIssuedAt(),
		ExpiresAt:   grant.GetExpiresAt(),
	})
	if err != nil {
		return err
	}
	ttl := time.Until(grant.GetExpiresAt())
	return gs.client.Do(ctx, gs.client.B().Set().Key(gs.key(grant.GetCode())).Value(string(jv)).Ex(ttl).Build()).Error()
}

// Consume atomically removes and returns the grant stored under code.
func (gs *ValkeyGrantStore) Consume(ctx context.Context, code string) (oauth2.GrantInfo, error) {
	res := gs.client.Do(ctx, gs.client.B().Getdel().Key(gs.key(code)).Build())
	if err := res.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	jv, err := res.ToString()
	if err != nil {
		return nil, err
	}
	var grant models.AuthorizationGrant
	if err := json.Unmarshal([]byte(jv), &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Close releases the client connections.
func (gs *ValkeyGrantStore) Close() {
	gs.client.Close()
}

// NewValkeyTokenStore creates a Valkey-backed token store.
func NewValkeyTokenStore(addr string, prefix string) (*ValkeyTokenStore, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "oauth2:"
	}
	return &ValkeyTokenStore{client: cli, prefix: prefix}, nil
}

// ValkeyTokenStore stores access tokens in Valkey. Tokens are keyed by the
// sha256 of the access value so long JWTs stay within key size limits and
// raw credentials never appear in the keyspace.
type ValkeyTokenStore struct {
	client valkey.Client
	prefix string
}

func (ts *ValkeyTokenStore) key(access string) string {
	return ts.prefix + "access:" + tokenHash(access)
}

// Create stores the token JSON under access:<sha256(access)> with the
// token's TTL.
func (ts *ValkeyTokenStore) Create(ctx context.Context, token oauth2.TokenInfo) error {
	jv, err := json.Marshal(&models.AccessToken{
		Access:    token.GetAccess(),
		TokenType: token.GetTokenType(),
		ClientID:  token.GetClientID(),
		Scope:     token.GetScope(),
		Refresh:   token.GetRefresh(),
		IssuedAt:  token.GetIssuedAt(),
		ExpiresAt: token.GetExpiresAt(),
	})
	if err != nil {
		return err
	}
	ttl := time.Until(token.GetExpiresAt())
	return ts.client.Do(ctx, ts.client.B().Set().Key(ts.key(token.GetAccess())).Value(string(jv)).Ex(ttl).Build()).Error()
}

// GetByAccess returns the token stored under access, or (nil, nil) when it
// is unknown or expired.
func (ts *ValkeyTokenStore) GetByAccess(ctx context.Context, access string) (oauth2.TokenInfo, error) {
	res := ts.client.Do(ctx, ts.client.B().Get().Key(ts.key(access)).Build())
	if err := res.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	jv, err := res.ToString()
	if err != nil {
		return nil, err
	}
	var token models.AccessToken
	if err := json.Unmarshal([]byte(jv), &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Close releases the client connections.
func (ts *ValkeyTokenStore) Close() {
	ts.client.Close()
}
