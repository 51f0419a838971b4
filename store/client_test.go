package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grantflow/oauth2/models"
)

func TestClientStore(t *testing.T) {
	cs := NewClientStore()
	ctx := context.Background()

	require.NoError(t, cs.Set("c1", &models.Client{
		ID:           "c1",
		Secret:       "s1",
		RedirectURIs: []string{"https://client.example/cb"},
	}))

	client, err := cs.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, client)
	require.Equal(t, "c1", client.GetID())
	require.Equal(t, "s1", client.GetSecret())
	require.Equal(t, []string{"https://client.example/cb"}, client.GetRedirectURIs())

	unknown, err := cs.GetByID(ctx, "ghost")
	require.NoError(t, err)
	require.Nil(t, unknown)
}

func TestNewClientStoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.yaml")
	register := `clients:
  - id: web-app
    secret: web-secret
    redirect_uris:
      - https://web.example/cb
  - id: native-app
    secret: native-secret
    redirect_uris:
      - https://native.example/a
      - https://native.example/b
`
	require.NoError(t, os.WriteFile(path, []byte(register), 0o600))

	cs, err := NewClientStoreFromFile(path)
	require.NoError(t, err)
	ctx := context.Background()

	web, err := cs.GetByID(ctx, "web-app")
	require.NoError(t, err)
	require.NotNil(t, web)
	require.Equal(t, "web-secret", web.GetSecret())
	require.Equal(t, []string{"https://web.example/cb"}, web.GetRedirectURIs())

	native, err := cs.GetByID(ctx, "native-app")
	require.NoError(t, err)
	require.NotNil(t, native)
	require.Len(t, native.GetRedirectURIs(), 2)
}

func TestNewClientStoreFromFile_Missing(t *testing.T) {
	_, err := NewClientStoreFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
