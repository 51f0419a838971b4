package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/errors"
)

// CheckToken verifies an access token taken from the request parameters
// (query or body) against the token store. requiredScope, when non-empty,
// takes precedence over a scope parameter carried in the request. The JSON
// body reports the check outcome as {"status": ..., "error": ...}.
func (e *Engine) CheckToken(r *http.Request, requiredScope string) (body []byte, status int) {
	if r.Form == nil {
		_ = r.ParseForm()
	}

	scope := requiredScope
	if scope == "" {
		scope = r.Form.Get("scope")
	}

	var cause error
	access := r.Form.Get("access_token")
	if access == "" {
		cause = errors.Describe(errors.ErrInvalidRequest,
			"Missing request parameter: access_token")
	} else {
		_, cause = e.lookupToken(r.Context(), access, scope)
	}

	status = http.StatusOK
	data := map[string]any{}
	if cause != nil {
		resp := errors.ToResponse(cause)
		e.logger.Error("token check failed",
			"error", resp.Error.Error(), "description", resp.Description)
		status = resp.StatusCode
		data["error"] = resp.Error.Error()
	}
	data["status"] = status

	body, err := json.Marshal(data)
	if err != nil {
		return nil, http.StatusInternalServerError
	}
	return body, status
}

// GetRegisteredToken validates the bearer token carried in the Authorization
// header and returns the stored token for use by a resource server. The
// header must be of the form "Bearer <token>"; any other scheme or shape is
// rejected as invalid_request without a store lookup.
func (e *Engine) GetRegisteredToken(r *http.Request, requiredScope string) (token oauth2.TokenInfo, status int, errDesc string) {
	header := r.Header.Get("Authorization")
	parts := strings.Fields(header)

	var cause error
	switch {
	case header == "":
		cause = errors.Describe(errors.ErrInvalidRequest,
			"Missing Authorization header")
	case len(parts) != 2:
		cause = errors.Describe(errors.ErrInvalidRequest,
			"Malformed Authorization header")
	case parts[0] != oauth2.Bearer.String():
		cause = errors.Describe(errors.ErrInvalidRequest,
			"Authorization header token type must be Bearer")
	default:
		token, cause = e.lookupToken(r.Context(), parts[1], requiredScope)
	}

	if cause != nil {
		resp := errors.ToResponse(cause)
		e.logger.Error("bearer token rejected",
			"error", resp.Error.Error(), "description", resp.Description)
		return nil, resp.StatusCode, resp.Description
	}
	return token, http.StatusOK, ""
}

// IsRegisteredClient checks that the client_id carried in the request
// parameters names a registered client. A nil response means the client is
// registered.
func (e *Engine) IsRegisteredClient(r *http.Request) *errors.Response {
	if r.Form == nil {
		_ = r.ParseForm()
	}
	clientID := r.Form.Get("client_id")
	if clientID == "" {
		return errors.NewResponse(errors.ErrInvalidRequest,
			"Missing request parameter: client_id")
	}
	if _, desc := e.validClient(r.Context(), clientID, ""); desc != "" {
		e.logger.Error("client registration check failed",
			"client_id", clientID, "reason", desc)
		return errors.NewResponse(errors.ErrUnauthorizedClient, desc)
	}
	return nil
}

// lookupToken resolves an access token value against the token store and
// checks the granted scope covers the required one.
func (e *Engine) lookupToken(ctx context.Context, access, requiredScope string) (oauth2.TokenInfo, error) {
	token, err := e.tokens.GetByAccess(ctx, access)
	if err != nil {
		e.logger.Error("token lookup failed", "error", err)
		return nil, errors.Describe(errors.ErrServerError,
			"Access token could not be retrieved")
	}
	if token == nil || tokenExpired(token) {
		return nil, errors.Describe(errors.ErrInvalidToken,
			"Invalid or expired access token")
	}
	if !scopeSatisfied(token.GetScope(), requiredScope) {
		return nil, errors.Describe(errors.ErrInsufficientScope,
			"Token does not cover the required scope")
	}
	return token, nil
}

func tokenExpired(token oauth2.TokenInfo) bool {
	exp := token.GetExpiresAt()
	return !exp.IsZero() && time.Now().After(exp)
}
