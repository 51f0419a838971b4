// Package store provides the client, grant and token storage backends:
// in-memory and file-seeded client registries, buntdb-backed grant and token
// stores for single-node deployments, Valkey-backed stores for shared
// deployments and a Postgres client registry.
package store

import (
	"context"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

// NewClientStore create client store (memory)
func NewClientStore() *ClientStore {
	return &ClientStore{
		data: make(map[string]oauth2.ClientInfo),
	}
}

// ClientStore client information store (in-memory)
type ClientStore struct {
	sync.RWMutex
	data map[string]oauth2.ClientInfo
}

// GetByID according to the ID for the client information
func (cs *ClientStore) GetByID(_ context.Context, id string) (oauth2.ClientInfo, error) {
	cs.RLock()
	defer cs.RUnlock()

	if c, ok := cs.data[id]; ok {
		return c, nil
	}
	return nil, nil
}

// Set set client information
func (cs *ClientStore) Set(id string, cli oauth2.ClientInfo) (err error) {
	cs.Lock()
	defer cs.Unlock()

	cs.data[id] = cli
	return
}

// registerFile the shape of a client registration YAML file
type registerFile struct {
	Clients []struct {
		ID           string   `koanf:"id"`
		Secret       string   `koanf:"secret"`
		RedirectURIs []string `koanf:"redirect_uris"`
	} `koanf:"clients"`
}

// NewClientStoreFromFile loads the client registry from a YAML file of the
// form:
//
//	clients:
//	  - id: my-client
//	    secret: my-secret
//	    redirect_uris:
//	      - https://client.example/cb
func NewClientStoreFromFile(path string) (*ClientStore, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, err
	}
	var reg registerFile
	if err := k.Unmarshal("", &reg); err != nil {
		return nil, err
	}

	cs := NewClientStore()
	for _, c := range reg.Clients {
		_ = cs.Set(c.ID, &models.Client{
			ID:           c.ID,
			Secret:       c.Secret,
			RedirectURIs: c.RedirectURIs,
		})
	}
	return cs, nil
}
