package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/errors"
)

// Authorize handles an authorization request. The caller is expected to have
// authenticated the resource owner and obtained their consent; the outcome is
// passed in as clientAuthorized.
//
// Exactly one of the two outcomes is populated: a redirect URI carrying the
// code (or the error) and the echoed state, or a direct HTTP status with a
// plain description for the failures where the redirect target cannot be
// trusted (unknown client, ambiguous redirect URI).
func (e *Engine) Authorize(r *http.Request, clientAuthorized bool) (redirectURI string, status int, errDesc string) {
	ctx := r.Context()
	e.logger.Debug("starting authorization request")

	// Parameters are taken from the query string only.
	params := r.URL.Query()
	authReq := newAuthorizeRequest(params)

	if err := e.checkRequest(r, params, false); err != nil {
		return e.redirectAfterAuthorize(ctx, authReq, nil, err)
	}

	for _, p := range []string{"response_type", "client_id"} {
		if !params.Has(p) {
			e.logger.Error("missing request parameter", "parameter", p)
			return e.redirectAfterAuthorize(ctx, authReq, nil, missingParameter(p))
		}
	}

	if !clientAuthorized {
		return e.redirectAfterAuthorize(ctx, authReq, nil,
			errors.Describe(errors.ErrAccessDenied, "User has declined authorization"))
	}

	if authReq.ResponseType != oauth2.Code.String() {
		return e.redirectAfterAuthorize(ctx, authReq, nil,
			errors.Describe(errors.ErrUnsupportedResponseType,
				fmt.Sprintf("Response type %q is not supported", authReq.ResponseType)))
	}

	// An invalid client is reported directly: the redirect target cannot be
	// trusted yet.
	client, clientErr := e.validClient(ctx, authReq.ClientID, authReq.RedirectURI)
	if clientErr != "" {
		e.logger.Error("invalid client", "client_id", authReq.ClientID, "reason", clientErr)
		return "", http.StatusBadRequest, clientErr
	}

	// redirect_uri must be included in the request if the client has more
	// than one registered.
	if len(client.GetRedirectURIs()) != 1 && authReq.RedirectURI == "" {
		e.logger.Error("authorization request without a return URI", "client_id", authReq.ClientID)
		return "", http.StatusBadRequest,
			"An authorization request has been made without a return URI"
	}

	grant, err := e.authorizer.GenerateGrant(ctx, &oauth2.GrantRequest{
		ClientID:    client.GetID(),
		RedirectURI: authReq.RedirectURI,
		Scope:       authReq.Scope,
		Request:     r,
	})
	if err != nil {
		e.logger.Error("generating grant failed", "error", err)
		return e.redirectAfterAuthorize(ctx, authReq, nil,
			errors.Describe(errors.ErrServerError, "Authorization grant could not be created"))
	}

	if err := e.grants.Create(ctx, grant); err != nil {
		e.logger.Error("registering grant failed", "error", err)
		return e.redirectAfterAuthorize(ctx, authReq, nil,
			errors.Describe(errors.ErrServerError, "Authorization grant could not be created"))
	}

	e.logger.Debug("redirecting back after successful authorization")
	return e.redirectAfterAuthorize(ctx, authReq,
		&AuthorizeResponse{Code: grant.GetCode(), State: authReq.State}, nil)
}

// validClient checks that the client is registered, has at least one redirect
// URI and, when the request names one, that it is among those registered.
// The returned string is empty when the client is valid.
func (e *Engine) validClient(ctx context.Context, clientID, redirectURI string) (oauth2.ClientInfo, string) {
	client, err := e.clients.GetByID(ctx, clientID)
	if err != nil || client == nil {
		return nil, fmt.Sprintf("Client %q is not registered", clientID)
	}
	uris := client.GetRedirectURIs()
	if len(uris) == 0 {
		return nil, fmt.Sprintf("Client %q has no registered redirect URI", clientID)
	}
	if redirectURI != "" {
		registered := false
		for _, u := range uris {
			if u == redirectURI {
				registered = true
				break
			}
		}
		if !registered {
			return nil, fmt.Sprintf("Redirect URI is not registered for client %q", clientID)
		}
	}
	return client, ""
}

// redirectAfterAuthorize converts the authorization outcome, success or
// protocol error, into the redirect back to the client. When the redirect
// target itself cannot be resolved the failure is reported directly instead.
func (e *Engine) redirectAfterAuthorize(ctx context.Context, authReq *AuthorizeRequest, authResp *AuthorizeResponse, cause error) (string, int, string) {
	if authResp == nil && cause == nil {
		cause = errors.Describe(errors.ErrServerError, "Internal server error")
	}

	// Resolve the redirect target: the requested URI, or the client's only
	// registered one.
	target := authReq.RedirectURI
	if target == "" {
		client, err := e.clients.GetByID(ctx, authReq.ClientID)
		if err == nil && client != nil && len(client.GetRedirectURIs()) > 0 {
			target = client.GetRedirectURIs()[0]
		}
	}
	if target == "" {
		desc := "An authorization request has been made without a return URI"
		if cause != nil {
			desc = errors.ToResponse(cause).Description
		}
		return "", http.StatusBadRequest, desc
	}

	var params [][2]string
	if cause != nil {
		resp := errors.ToResponse(cause)
		e.logger.Error("redirecting back after error",
			"error", resp.Error.Error(), "description", resp.Description)
		params = [][2]string{
			{"error", resp.Error.Error()},
			{"error_description", resp.Description},
		}
	} else {
		params = [][2]string{{"code", authResp.Code}}
	}

	return makeCombinedURL(target, params, authReq.State), 0, ""
}

// makeCombinedURL constructs the redirect URL from the base URL and the query
// parameters. The code/error parameters are percent-encoded; the state value
// is appended verbatim as received, for wire compatibility with existing
// clients. A state containing "&" or "#" therefore corrupts the URL; callers
// were always expected not to do that.
func makeCombinedURL(baseURL string, params [][2]string, state string) string {
	u := strings.TrimRight(baseURL, "?")
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	if len(params) > 0 {
		pairs := make([]string, 0, len(params))
		for _, p := range params {
			pairs = append(pairs, p[0]+"="+url.QueryEscape(p[1]))
		}
		u += sep + strings.Join(pairs, "&")
		sep = "&"
	}
	if state != "" {
		u += sep + "state=" + state
	}
	return u
}
