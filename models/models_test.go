package models

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	oauth2 "github.com/grantflow/oauth2"
)

func TestAuthorizationGrant(t *testing.T) {
	Convey("Test authorization grant model", t, func() {
		now := time.Now()
		grant := &AuthorizationGrant{
			Code:        "code-1",
			ClientID:    "c1",
			RedirectURI: "https://client.example/cb",
			Scope:       "read write",
			IssuedAt:    now,
			ExpiresAt:   now.Add(10 * time.Minute),
		}

		So(grant.GetCode(), ShouldEqual, "code-1")
		So(grant.GetClientID(), ShouldEqual, "c1")
		So(grant.GetRedirectURI(), ShouldEqual, "https://client.example/cb")
		So(grant.GetScope(), ShouldEqual, "read write")
		So(grant.GetIssuedAt(), ShouldEqual, now)
		So(grant.Expired(), ShouldBeFalse)

		Convey("A grant past its expiry reports expired", func() {
			grant.ExpiresAt = now.Add(-time.Minute)
			So(grant.Expired(), ShouldBeTrue)
		})

		Convey("A grant without expiry never expires", func() {
			grant.ExpiresAt = time.Time{}
			So(grant.Expired(), ShouldBeFalse)
		})
	})
}

func TestAccessToken(t *testing.T) {
	Convey("Test access token model", t, func() {
		now := time.Now()
		token := &AccessToken{
			Access:    "tok-1",
			TokenType: oauth2.Bearer,
			ClientID:  "c1",
			Scope:     "read",
			Refresh:   "ref-1",
			IssuedAt:  now,
			ExpiresAt: now.Add(time.Hour),
		}

		So(token.GetAccess(), ShouldEqual, "tok-1")
		So(token.GetTokenType(), ShouldEqual, oauth2.Bearer)
		So(token.GetClientID(), ShouldEqual, "c1")
		So(token.GetScope(), ShouldEqual, "read")
		So(token.GetRefresh(), ShouldEqual, "ref-1")
		So(token.Expired(), ShouldBeFalse)

		Convey("A token past its expiry reports expired", func() {
			token.ExpiresAt = now.Add(-time.Minute)
			So(token.Expired(), ShouldBeTrue)
		})
	})
}
