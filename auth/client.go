// Package auth implements client authentication for the token endpoint.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/errors"
)

// ClientCredentials the credentials a client presented with the request
type ClientCredentials struct {
	ID     string
	Secret string
}

// ClientBasicHandler reads client credentials from the Authorization Basic
// header.
func ClientBasicHandler(r *http.Request) (*ClientCredentials, error) {
	id, secret, ok := r.BasicAuth()
	if !ok {
		return nil, nil
	}
	return &ClientCredentials{ID: id, Secret: secret}, nil
}

// ClientFormHandler reads client credentials from the form body.
func ClientFormHandler(r *http.Request) (*ClientCredentials, error) {
	if r.PostForm == nil {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
	}
	id := r.PostForm.Get("client_id")
	if id == "" {
		return nil, nil
	}
	return &ClientCredentials{ID: id, Secret: r.PostForm.Get("client_secret")}, nil
}

// NewClientSecretAuthenticator creates an authenticator backed by the client
// registry.
func NewClientSecretAuthenticator(clients oauth2.ClientStore) *ClientSecretAuthenticator {
	return &ClientSecretAuthenticator{Clients: clients}
}

// ClientSecretAuthenticator authenticates confidential clients by their
// registered secret, read from the Basic header or, failing that, from the
// form body. Registered secrets may be stored as bcrypt hashes.
type ClientSecretAuthenticator struct {
	Clients oauth2.ClientStore
}

// Authenticate resolves and verifies the client identity carried by the
// request. An empty client id with a nil error means the request carried no
// client credentials at all.
func (a *ClientSecretAuthenticator) Authenticate(r *http.Request) (string, error) {
	creds, err := ClientBasicHandler(r)
	if err == nil && creds == nil {
		creds, err = ClientFormHandler(r)
	}
	if err != nil {
		return "", errors.Describe(errors.ErrInvalidRequest, "Malformed client credentials")
	}
	if creds == nil {
		return "", nil
	}

	client, err := a.Clients.GetByID(r.Context(), creds.ID)
	if err != nil {
		return "", errors.Describe(errors.ErrServerError, "Client could not be retrieved")
	}
	if client == nil {
		return "", errors.Describe(errors.ErrUnauthorizedClient,
			"Client authentication failed")
	}

	if !secretMatches(client.GetSecret(), creds.Secret) {
		return "", errors.Describe(errors.ErrUnauthorizedClient,
			"Client authentication failed")
	}
	return client.GetID(), nil
}

func secretMatches(registered, presented string) bool {
	if registered == "" {
		return presented == ""
	}
	if strings.HasPrefix(registered, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(registered), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(registered), []byte(presented)) == 1
}
