package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/errors"
)

// IssueToken handles a token request: it exchanges an authorization code for
// an access token. The response body is returned as JSON together with the
// HTTP status to send it with; protocol errors are encoded as
// {"error": ..., "error_description": ...} with the status mapped from the
// error code. When token generation itself fails the body is nil and errDesc
// carries a plain description instead.
func (e *Engine) IssueToken(r *http.Request) (body []byte, status int, errDesc string) {
	ctx := r.Context()
	e.logger.Debug("starting access token request")

	// Parameters are taken from the request body only.
	params := bodyParams(r)

	if err := e.checkRequest(r, params, true); err != nil {
		return e.errorTokenResponse(err)
	}

	var clientID string
	if e.authenticator != nil {
		id, err := e.authenticator.Authenticate(r)
		if err != nil {
			return e.errorTokenResponse(err)
		}
		clientID = id
	}
	if clientID == "" {
		e.logger.Warn("client authentication not performed")
	}

	for _, p := range []string{"grant_type", "code"} {
		if !params.Has(p) {
			e.logger.Error("missing request parameter", "parameter", p)
			return e.errorTokenResponse(missingParameter(p))
		}
	}

	tokReq := &AccessTokenRequest{
		GrantType:   params.Get("grant_type"),
		Code:        params.Get("code"),
		RedirectURI: params.Get("redirect_uri"),
	}

	token, err := e.exchangeGrant(ctx, tokReq, clientID)
	if err != nil {
		return e.errorTokenResponse(err)
	}
	if token == nil {
		// Token generation failed for a non-protocol reason; the cause has
		// already been logged.
		return nil, http.StatusInternalServerError, "Access token generation failed."
	}

	resp := &AccessTokenResponse{
		AccessToken:  token.GetAccess(),
		TokenType:    token.GetTokenType().String(),
		RefreshToken: token.GetRefresh(),
	}
	if exp := token.GetExpiresAt(); !exp.IsZero() {
		resp.ExpiresIn = int64(time.Until(exp) / time.Second)
	}

	body, merr := json.Marshal(resp)
	if merr != nil {
		e.logger.Error("encoding token response failed", "error", merr)
		return e.errorTokenResponse(errors.ErrServerError)
	}
	e.logger.Debug("issued access token", "client_id", token.GetClientID())
	return body, http.StatusOK, ""
}

// exchangeGrant consumes the authorization code and mints the access token.
// The code is consumed before anything else is checked so that a failed
// exchange still invalidates it. A nil token with a nil error means token
// generation itself failed.
func (e *Engine) exchangeGrant(ctx context.Context, tokReq *AccessTokenRequest, clientID string) (oauth2.TokenInfo, error) {
	grant, err := e.grants.Consume(ctx, tokReq.Code)
	if err != nil {
		e.logger.Error("consuming grant failed", "error", err)
		return nil, errors.Describe(errors.ErrServerError,
			"Authorization grant could not be retrieved")
	}
	if grant == nil || grantExpired(grant) {
		return nil, errors.Describe(errors.ErrInvalidGrant,
			"Invalid or expired authorization code")
	}

	if tokReq.GrantType != oauth2.AuthorizationCode.String() {
		return nil, errors.Describe(errors.ErrUnsupportedGrantType,
			fmt.Sprintf("Grant type %q is not supported", tokReq.GrantType))
	}

	if grant.GetRedirectURI() != tokReq.RedirectURI {
		return nil, errors.Describe(errors.ErrInvalidGrant,
			"Redirect URI does not match the authorization request")
	}

	// Bind the grant to the authenticated client, when one was resolved.
	if clientID != "" && grant.GetClientID() != clientID {
		return nil, errors.Describe(errors.ErrInvalidGrant,
			"Authorization grant was issued to a different client")
	}

	token, err := e.issuer.Issue(ctx, grant)
	if err != nil {
		e.logger.Error("generating access token failed", "error", err)
		return nil, nil
	}

	if err := e.tokens.Create(ctx, token); err != nil {
		e.logger.Error("registering access token failed", "error", err)
		return nil, errors.Describe(errors.ErrServerError,
			"Access token could not be registered")
	}
	return token, nil
}

func grantExpired(grant oauth2.GrantInfo) bool {
	exp := grant.GetExpiresAt()
	return !exp.IsZero() && time.Now().After(exp)
}

// errorTokenResponse encodes a protocol error as the token endpoint error
// body with its mapped HTTP status.
func (e *Engine) errorTokenResponse(cause error) ([]byte, int, string) {
	resp := errors.ToResponse(cause)
	e.logger.Error("access token request failed",
		"error", resp.Error.Error(), "description", resp.Description)

	data := map[string]string{"error": resp.Error.Error()}
	if resp.Description != "" {
		data["error_description"] = resp.Description
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, http.StatusInternalServerError, "Internal server error"
	}
	return body, resp.StatusCode, ""
}
