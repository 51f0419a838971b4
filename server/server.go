// Package server exposes the authorization engine over HTTP: the authorize,
// token and check_token endpoints, plus a gin middleware for resource
// servers.
package server

import (
	"log/slog"
	"net/http"

	"github.com/grantflow/oauth2/engine"
	"github.com/grantflow/oauth2/errors"
)

// UserConsentHandler reports whether the resource owner authorized the
// client. The handler may instead take over the response entirely (e.g.
// redirect to a login page) and return ErrConsentPending.
type UserConsentHandler func(w http.ResponseWriter, r *http.Request) (authorized bool, err error)

// ErrConsentPending is returned by a UserConsentHandler that has written its
// own response and expects the client to come back later.
var ErrConsentPending = errors.New("consent pending")

// NewServer create authorization server
func NewServer(e *engine.Engine) *Server {
	return &Server{
		engine: e,
		logger: slog.Default(),
	}
}

// Server the HTTP layer over the authorization engine
type Server struct {
	engine *engine.Engine

	// UserConsentHandler supplies the resource owner's decision for the
	// authorize endpoint. When nil the request is treated as authorized;
	// deployments relying on that must gate the endpoint behind their own
	// authentication layer.
	UserConsentHandler UserConsentHandler

	logger *slog.Logger
}

// SetLogger sets the structured logger.
func (s *Server) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetUserConsentHandler sets the resource owner consent hook.
func (s *Server) SetUserConsentHandler(h UserConsentHandler) {
	s.UserConsentHandler = h
}

// HandleAuthorizeRequest the authorization request handling
func (s *Server) HandleAuthorizeRequest(w http.ResponseWriter, r *http.Request) error {
	authorized := true
	if s.UserConsentHandler != nil {
		var err error
		authorized, err = s.UserConsentHandler(w, r)
		if err == ErrConsentPending {
			return nil
		}
		if err != nil {
			s.logger.Error("consent handler failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return err
		}
	}

	redirect, status, desc := s.engine.Authorize(r, authorized)
	if status != 0 {
		http.Error(w, desc, status)
		return nil
	}

	w.Header().Set("Location", redirect)
	w.WriteHeader(http.StatusFound)
	return nil
}

// HandleTokenRequest the access token request handling
func (s *Server) HandleTokenRequest(w http.ResponseWriter, r *http.Request) error {
	body, status, desc := s.engine.IssueToken(r)
	if body == nil {
		http.Error(w, desc, status)
		return nil
	}

	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// HandleCheckTokenRequest the token introspection request handling
func (s *Server) HandleCheckTokenRequest(w http.ResponseWriter, r *http.Request) error {
	body, status := s.engine.CheckToken(r, "")
	if body == nil {
		http.Error(w, "Internal server error", status)
		return nil
	}

	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}
