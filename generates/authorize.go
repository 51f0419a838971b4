// Package generates provides the default authorization code and access token
// generators.
package generates

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

// DefaultCodeTTL how long an authorization code stays redeemable
const DefaultCodeTTL = 10 * time.Minute

// NewCodeAuthorizer create to generate the authorize code instance
func NewCodeAuthorizer() *CodeAuthorizer {
	return &CodeAuthorizer{CodeTTL: DefaultCodeTTL}
}

// CodeAuthorizer generate the authorize code
type CodeAuthorizer struct {
	CodeTTL time.Duration
}

// GenerateGrant mints an authorization grant with an unguessable code bound
// to the client, redirect URI and scope of the request.
func (a *CodeAuthorizer) GenerateGrant(_ context.Context, req *oauth2.GrantRequest) (oauth2.GrantInfo, error) {
	ttl := a.CodeTTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	now := time.Now()
	return &models.AuthorizationGrant{
		Code:        generateCode(req.ClientID),
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}, nil
}

func generateCode(clientID string) string {
	id := uuid.NewMD5(uuid.Must(uuid.NewRandom()), []byte(clientID))
	code := base64.URLEncoding.EncodeToString([]byte(id.String()))
	return strings.ToUpper(strings.TrimRight(code, "="))
}
