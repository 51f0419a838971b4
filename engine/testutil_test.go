package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

type fakeClientStore struct {
	clients map[string]*models.Client
}

func (s *fakeClientStore) GetByID(_ context.Context, id string) (oauth2.ClientInfo, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

type fakeGrantStore struct {
	mu     sync.Mutex
	grants map[string]oauth2.GrantInfo
	failed bool
}

func (s *fakeGrantStore) Create(_ context.Context, grant oauth2.GrantInfo) error {
	if s.failed {
		return fmt.Errorf("store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants == nil {
		s.grants = make(map[string]oauth2.GrantInfo)
	}
	s.grants[grant.GetCode()] = grant
	return nil
}

func (s *fakeGrantStore) Consume(_ context.Context, code string) (oauth2.GrantInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grant, ok := s.grants[code]
	if !ok {
		return nil, nil
	}
	delete(s.grants, code)
	return grant, nil
}

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]oauth2.TokenInfo
}

func (s *fakeTokenStore) Create(_ context.Context, token oauth2.TokenInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[string]oauth2.TokenInfo)
	}
	s.tokens[token.GetAccess()] = token
	return nil
}

func (s *fakeTokenStore) GetByAccess(_ context.Context, access string) (oauth2.TokenInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[access]
	if !ok {
		return nil, nil
	}
	return t, nil
}

type fakeAuthorizer struct {
	mu   sync.Mutex
	next int
}

func (a *fakeAuthorizer) GenerateGrant(_ context.Context, req *oauth2.GrantRequest) (oauth2.GrantInfo, error) {
	a.mu.Lock()
	a.next++
	code := fmt.Sprintf("code-%d", a.next)
	a.mu.Unlock()
	now := time.Now()
	return &models.AuthorizationGrant{
		Code:        code,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		IssuedAt:    now,
		ExpiresAt:   now.Add(10 * time.Minute),
	}, nil
}

type fakeIssuer struct {
	mu     sync.Mutex
	next   int
	failed bool
}

func (i *fakeIssuer) Issue(_ context.Context, grant oauth2.GrantInfo) (oauth2.TokenInfo, error) {
	if i.failed {
		return nil, fmt.Errorf("signer unavailable")
	}
	i.mu.Lock()
	i.next++
	access := fmt.Sprintf("access-%d", i.next)
	i.mu.Unlock()
	now := time.Now()
	return &models.AccessToken{
		Access:    access,
		TokenType: oauth2.Bearer,
		ClientID:  grant.GetClientID(),
		Scope:     grant.GetScope(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}, nil
}

// fakeAuthenticator resolves the client from the form without checking a
// secret.
type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(r *http.Request) (string, error) {
	if r.PostForm == nil {
		_ = r.ParseForm()
	}
	return r.PostForm.Get("client_id"), nil
}

func newTestEngine() (*Engine, *fakeGrantStore, *fakeTokenStore) {
	grants := &fakeGrantStore{}
	tokens := &fakeTokenStore{}
	e := New(NewConfig())
	e.MapClientStorage(&fakeClientStore{clients: map[string]*models.Client{
		"c1": {ID: "c1", Secret: "s1", RedirectURIs: []string{"https://client.example/cb"}},
		"c2": {ID: "c2", Secret: "s2", RedirectURIs: []string{"https://client.example/a", "https://client.example/b"}},
	}})
	e.MapGrantStorage(grants)
	e.MapTokenStorage(tokens)
	e.MapAuthorizer(&fakeAuthorizer{})
	e.MapAccessIssuer(&fakeIssuer{})
	e.MapClientAuthenticator(fakeAuthenticator{})
	return e, grants, tokens
}

func authorizeRequest(query url.Values) *http.Request {
	return httptest.NewRequest(http.MethodGet, "https://server.example/oauth/authorize?"+query.Encode(), nil)
}

func tokenRequest(form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "https://server.example/oauth/token",
		strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// obtainCode drives a successful authorization and returns the issued code.
func obtainCode(e *Engine, query url.Values) (string, error) {
	redirect, status, desc := e.Authorize(authorizeRequest(query), true)
	if status != 0 {
		return "", fmt.Errorf("authorize failed: status %d, %s", status, desc)
	}
	u, err := url.Parse(redirect)
	if err != nil {
		return "", err
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("no code in redirect %q", redirect)
	}
	return code, nil
}
