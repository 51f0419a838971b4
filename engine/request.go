package engine

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/grantflow/oauth2/errors"
)

// AuthorizeRequest the authorization endpoint parameters, taken strictly from
// the query string
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
}

func newAuthorizeRequest(params url.Values) *AuthorizeRequest {
	return &AuthorizeRequest{
		ResponseType: params.Get("response_type"),
		ClientID:     params.Get("client_id"),
		RedirectURI:  params.Get("redirect_uri"),
		Scope:        params.Get("scope"),
		State:        params.Get("state"),
	}
}

// AuthorizeResponse the successful authorization result used to build the
// redirect
type AuthorizeResponse struct {
	Code  string
	State string
}

// AccessTokenRequest the token endpoint parameters, taken strictly from the
// request body
type AccessTokenRequest struct {
	GrantType   string
	Code        string
	RedirectURI string
}

// AccessTokenResponse the token endpoint success body
type AccessTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// checkRequest applies the shared validation pass: the request must arrive
// over a secure transport, must use POST when the operation mandates it, and
// no parameter may be repeated.
func (e *Engine) checkRequest(r *http.Request, params url.Values, postOnly bool) error {
	if !e.cfg.AllowInsecureTransport && !isSecureTransport(r) {
		return errors.Describe(errors.ErrInvalidRequest,
			"Transport layer security must be used for this request")
	}
	if postOnly && r.Method != http.MethodPost {
		return errors.Describe(errors.ErrInvalidRequest,
			"HTTP POST method must be used for this request")
	}
	for key, values := range params {
		if len(values) > 1 {
			return errors.Describe(errors.ErrInvalidRequest,
				fmt.Sprintf("Parameter %q is repeated", key))
		}
	}
	return nil
}

func isSecureTransport(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.URL.Scheme, "https") {
		return true
	}
	// behind a TLS-terminating proxy
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// bodyParams returns the form parameters carried in the request body only;
// the query string is never consulted by the token endpoint.
func bodyParams(r *http.Request) url.Values {
	if r.PostForm == nil {
		_ = r.ParseForm()
	}
	return r.PostForm
}

func missingParameter(name string) error {
	return errors.Describe(errors.ErrInvalidRequest,
		fmt.Sprintf("Missing request parameter: %s", name))
}

// scopeSatisfied reports whether every element of the space-separated
// required scope appears in the granted scope. An empty requirement is
// always satisfied.
func scopeSatisfied(granted, required string) bool {
	if required == "" {
		return true
	}
	have := make(map[string]struct{})
	for _, s := range strings.Fields(granted) {
		have[s] = struct{}{}
	}
	for _, s := range strings.Fields(required) {
		if _, ok := have[s]; !ok {
			return false
		}
	}
	return true
}
