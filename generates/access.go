package generates

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/models"
)

// DefaultAccessTTL how long an issued access token stays valid
const DefaultAccessTTL = time.Hour

// NewBearerIssuer create to generate the opaque bearer token instance
func NewBearerIssuer() *BearerIssuer {
	return &BearerIssuer{AccessTTL: DefaultAccessTTL}
}

// BearerIssuer generates opaque bearer tokens backed entirely by the token
// store.
type BearerIssuer struct {
	AccessTTL      time.Duration
	IncludeRefresh bool
}

// Issue mints an access token carrying the grant's client and scope.
func (g *BearerIssuer) Issue(_ context.Context, grant oauth2.GrantInfo) (oauth2.TokenInfo, error) {
	ttl := g.AccessTTL
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	now := time.Now()

	buf := bytes.NewBufferString(grant.GetClientID())
	buf.WriteString(uuid.New().String())
	access := base64.URLEncoding.EncodeToString([]byte(
		uuid.NewMD5(uuid.Must(uuid.NewRandom()), buf.Bytes()).String()))
	access = strings.ToUpper(strings.TrimRight(access, "="))

	token := &models.AccessToken{
		Access:    access,
		TokenType: oauth2.Bearer,
		ClientID:  grant.GetClientID(),
		Scope:     grant.GetScope(),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if g.IncludeRefresh {
		token.Refresh = generateRefresh(access)
	}
	return token, nil
}

func generateRefresh(access string) string {
	t := uuid.NewSHA1(uuid.Must(uuid.NewRandom()), []byte(access)).String()
	refresh := base64.URLEncoding.EncodeToString([]byte(t))
	return strings.ToUpper(strings.TrimRight(refresh, "="))
}
