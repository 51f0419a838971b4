package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tidwall/buntdb"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

// NewMemoryGrantStore create a buntdb grant store kept in memory
func NewMemoryGrantStore() (*GrantStore, error) {
	return NewFileGrantStore(":memory:")
}

// NewFileGrantStore create a buntdb grant store persisted to a file
func NewFileGrantStore(filename string) (*GrantStore, error) {
	db, err := buntdb.Open(filename)
	if err != nil {
		return nil, err
	}
	return &GrantStore{db: db}, nil
}

// GrantStore authorization grant store backed by buntdb. Consumption deletes
// the grant inside a single write transaction, so concurrent redemptions of
// the same code see exactly one winner.
type GrantStore struct {
	db *buntdb.DB
}

// Create registers the grant under its code, expiring with the grant itself.
func (gs *GrantStore) Create(_ context.Context, grant oauth2.GrantInfo) error {
	data, err := json.Marshal(&models.AuthorizationGrant{
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
	return gs.db.Update(func(tx *buntdb.Tx) error {
		var opts *buntdb.SetOptions
		if exp := grant.GetExpiresAt(); !exp.IsZero() {
			opts = &buntdb.SetOptions{Expires: true, TTL: time.Until(exp)}
		}
		_, _, err := tx.Set(grant.GetCode(), string(data), opts)
		return err
	})
}

// Consume removes and returns the grant stored under code. A missing,
// expired or already consumed code yields (nil, nil).
func (gs *GrantStore) Consume(_ context.Context, code string) (oauth2.GrantInfo, error) {
	var data string
	err := gs.db.Update(func(tx *buntdb.Tx) error {
		v, err := tx.Get(code)
		if err != nil {
			return err
		}
		data = v
		_, err = tx.Delete(code)
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var grant models.AuthorizationGrant
	if err := json.Unmarshal([]byte(data), &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Close releases the underlying database.
func (gs *GrantStore) Close() error {
	return gs.db.Close()
}
