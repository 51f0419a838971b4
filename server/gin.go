package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NewGinEngine builds a Gin router and registers the default OAuth2 routes.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(parseFormMiddleware())

	r.GET("/oauth/authorize", ginFrom(s.HandleAuthorizeRequest))
	r.POST("/oauth/authorize", ginFrom(s.HandleAuthorizeRequest))

	r.POST("/oauth/token", ginFrom(s.HandleTokenRequest))

	r.GET("/oauth/check_token", ginFrom(s.HandleCheckTokenRequest))
	r.POST("/oauth/check_token", ginFrom(s.HandleCheckTokenRequest))

	return r
}

func ginFrom(h func(http.ResponseWriter, *http.Request) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = h(c.Writer, c.Request)
		c.Abort()
	}
}

// parseFormMiddleware ensures r.ParseForm() is called for urlencoded/multipart requests so r.FormValue works.
func parseFormMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := c.Request
		ct := r.Header.Get("Content-Type")
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if ct != "" {
				if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
					_ = r.ParseForm()
				}
			}
		}
		c.Next()
	}
}
