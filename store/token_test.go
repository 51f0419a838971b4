package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

func testToken(access string) *models.AccessToken {
	now := time.Now()
	return &models.AccessToken{
		Access:    access,
		TokenType: oauth2.Bearer,
		ClientID:  "c1",
		Scope:     "read write",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestTokenStore_RoundTrip(t *testing.T) {
	ts, err := NewMemoryTokenStore()
	require.NoError(t, err)
	defer ts.Close()
	ctx := context.Background()

	require.NoError(t, ts.Create(ctx, testToken("tok-1")))

	token, err := ts.GetByAccess(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, token)
	require.Equal(t, "tok-1", token.GetAccess())
	require.Equal(t, oauth2.Bearer, token.GetTokenType())
	require.Equal(t, "c1", token.GetClientID())
	require.Equal(t, "read write", token.GetScope())

	// Lookups do not consume.
	again, err := ts.GetByAccess(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestTokenStore_UnknownAccess(t *testing.T) {
	ts, err := NewMemoryTokenStore()
	require.NoError(t, err)
	defer ts.Close()

	token, err := ts.GetByAccess(context.Background(), "never-issued")
	require.NoError(t, err)
	require.Nil(t, token)
}

func TestTokenStore_ExpiredAccess(t *testing.T) {
	ts, err := NewMemoryTokenStore()
	require.NoError(t, err)
	defer ts.Close()
	ctx := context.Background()

	token := testToken("tok-short")
	token.ExpiresAt = time.Now().Add(50 * time.Millisecond)
	require.NoError(t, ts.Create(ctx, token))

	time.Sleep(100 * time.Millisecond)

	got, err := ts.GetByAccess(ctx, "tok-short")
	require.NoError(t, err)
	require.Nil(t, got)
}
