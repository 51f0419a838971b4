package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidwall/buntdb"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

// NewMemoryTokenStore create a buntdb token store kept in memory
func NewMemoryTokenStore() (*TokenStore, error) {
	return NewFileTokenStore(":memory:")
}

// NewFileTokenStore create a buntdb token store persisted to a file
func NewFileTokenStore(filename string) (*TokenStore, error) {
	db, err := buntdb.Open(filename)
	if err != nil {
		return nil, err
	}
	return &TokenStore{db: db}, nil
}

// TokenStore access token store backed by buntdb. Expiry is enforced by the
// database TTL, so lookups after expiry behave as unknown tokens.
type TokenStore struct {
	db *buntdb.DB
}

// Create registers the token under its access value.
func (ts *TokenStore) Create(_ context.Context, token oauth2.TokenInfo) error {
	data, err := json.Marshal(&models.AccessToken{
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
	return ts.db.Update(func(tx *buntdb.Tx) error {
		var opts *buntdb.SetOptions
		if exp := token.GetExpiresAt(); !exp.IsZero() {
			opts = &buntdb.SetOptions{Expires: true, TTL: time.Until(exp)}
		}
		_, _, err := tx.Set(token.GetAccess(), string(data), opts)
		return err
	})
}

// GetByAccess returns the token stored under access, or (nil, nil) when it
// is unknown or expired.
func (ts *TokenStore) GetByAccess(_ context.Context, access string) (oauth2.TokenInfo, error) {
	var data string
	err := ts.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(access)
		if err != nil {
			return err
		}
		data = v
		return nil
	})
	if err == buntdb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var token models.AccessToken
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Close releases the underlying database.
func (ts *TokenStore) Close() error {
	return ts.db.Close()
}
