package store

import (
	"context"
	"encoding/json"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

// OpenPostgres opens a gorm connection for the client registry.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// NewDBClientStore create client store backed by Postgres
func NewDBClientStore(db *gorm.DB) *DBClientStore { return &DBClientStore{DB: db} }

// DBClientStore persistent client registry; the redirect URI list is stored
// as a jsonb column
type DBClientStore struct{ DB *gorm.DB }

// Upsert creates or updates a client registration.
func (s *DBClientStore) Upsert(ctx context.Context, c *models.Client) error {
	b, err := json.Marshal(c.RedirectURIs)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Exec(
		`INSERT INTO oauth2_clients(id, secret, redirect_uris)
		 VALUES(?,?,?::jsonb)
		 ON CONFLICT(id) DO UPDATE SET secret=excluded.secret, redirect_uris=excluded.redirect_uris, updated_at=CURRENT_TIMESTAMP`,
		c.ID, c.Secret, string(b),
	).Error
}

// Delete removes a client registration.
func (s *DBClientStore) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Exec(`DELETE FROM oauth2_clients WHERE id=?`, id).Error
}

// GetByID implements oauth2.ClientStore backed by the database.
func (s *DBClientStore) GetByID(ctx context.Context, id string) (oauth2.ClientInfo, error) {
	var row struct {
		ID           string
		Secret       string
		RedirectURIs string
	}
	if err := s.DB.WithContext(ctx).Raw(
		`SELECT id, secret, redirect_uris::text AS redirect_uris FROM oauth2_clients WHERE id=?`, id,
	).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	var uris []string
	_ = json.Unmarshal([]byte(row.RedirectURIs), &uris)
	return &models.Client{ID: row.ID, Secret: row.Secret, RedirectURIs: uris}, nil
}

// List returns a page of clients ordered by id.
func (s *DBClientStore) List(ctx context.Context, offset, limit int) ([]models.Client, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	var rows []struct {
		ID           string
		Secret       string
		RedirectURIs string
	}
	if err := s.DB.WithContext(ctx).Raw(
		`SELECT id, secret, redirect_uris::text AS redirect_uris FROM oauth2_clients ORDER BY id LIMIT ? OFFSET ?`,
		limit, offset,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(rows))
	for _, r := range rows {
		var uris []string
		_ = json.Unmarshal([]byte(r.RedirectURIs), &uris)
		out = append(out, models.Client{ID: r.ID, Secret: r.Secret, RedirectURIs: uris})
	}
	return out, nil
}
