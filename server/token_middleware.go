package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenMiddleware validates the bearer token carried in the Authorization
// header and sets client_id and scopes in the gin context. requiredScope,
// when non-empty, must be covered by the token's granted scope.
// This middleware should run first, before any handler-specific checks.
func (s *Server) TokenMiddleware(requiredScope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, status, desc := s.engine.GetRegisteredToken(c.Request, requiredScope)
		if token == nil {
			errCode := "invalid_request"
			if status == http.StatusForbidden {
				errCode = "invalid_token"
			}
			c.AbortWithStatusJSON(status, gin.H{
				"error":             errCode,
				"error_description": desc,
			})
			return
		}

		c.Set("client_id", token.GetClientID())
		c.Set("scopes", strings.Fields(token.GetScope()))
		c.Next()
	}
}
