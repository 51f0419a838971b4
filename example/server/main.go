package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-session/session/v3"
	"github.com/golang-jwt/jwt/v5"

	oauth2 "github.com/grantflow/oauth2"
	"github.com/grantflow/oauth2/auth"
	"github.com/grantflow/oauth2/engine"
	"github.com/grantflow/oauth2/generates"
	"github.com/grantflow/oauth2/migrate"
	"github.com/grantflow/oauth2/models"
	"github.com/grantflow/oauth2/server"
	"github.com/grantflow/oauth2/store"
)

var (
	idvar       string
	secretvar   string
	redirectvar string
)

func init() {
	flag.StringVar(&idvar, "i", "222222", "The client id being passed in")
	flag.StringVar(&secretvar, "s", "22222222", "The client secret being passed in")
	flag.StringVar(&redirectvar, "r", "http://localhost:9098/callback", "The redirect url of the client")
}

func main() {
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := server.GetConfig()

	// Optionally run DB migrations before the server starts.
	// Configure via environment variables (see migrate.RunFromEnv docs):
	// MIGRATE_ON_START=1 MIGRATE_DRIVER=sqlite MIGRATE_DSN=./oauth2.db
	if err := migrate.RunFromEnv(); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	ecfg := engine.NewConfig()
	ecfg.AllowInsecureTransport = cfg.AllowInsecureTransport
	e := engine.New(ecfg)
	e.SetLogger(logger)

	// Client registry: a YAML register file when configured, else the flags.
	var clients oauth2.ClientStore
	if cfg.ClientsFile != "" {
		cs, err := store.NewClientStoreFromFile(cfg.ClientsFile)
		if err != nil {
			log.Fatalf("loading client register: %v", err)
		}
		logger.Info("loaded client register", "file", cfg.ClientsFile)
		clients = cs
	} else {
		cs := store.NewClientStore()
		_ = cs.Set(idvar, &models.Client{
			ID:           idvar,
			Secret:       secretvar,
			RedirectURIs: []string{redirectvar},
		})
		logger.Info("registered client", "client_id", idvar, "redirect_uri", redirectvar)
		clients = cs
	}
	e.MapClientStorage(clients)

	// Grant and token stores: prefer Valkey when configured, else memory.
	if cfg.Valkey.Addr != "" {
		gs, err := store.NewValkeyGrantStore(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			log.Fatalf("valkey grant store: %v", err)
		}
		ts, err := store.NewValkeyTokenStore(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			log.Fatalf("valkey token store: %v", err)
		}
		e.MapGrantStorage(gs)
		e.MapTokenStorage(ts)
		logger.Info("using valkey stores", "addr", cfg.Valkey.Addr)
	} else {
		e.MustGrantStorage(store.NewMemoryGrantStore())
		e.MustTokenStorage(store.NewMemoryTokenStore())
	}

	authorizer := generates.NewCodeAuthorizer()
	if cfg.CodeTTL > 0 {
		authorizer.CodeTTL = cfg.CodeTTL
	}
	e.MapAuthorizer(authorizer)

	// Access tokens: signed JWTs when configured, else opaque bearer tokens.
	if cfg.JWT.Enabled {
		issuer := generates.NewJWTIssuer(cfg.JWT.KeyID, []byte(cfg.JWT.Secret), jwt.SigningMethodHS512)
		if cfg.TokenTTL > 0 {
			issuer.AccessTTL = cfg.TokenTTL
		}
		e.MapAccessIssuer(issuer)
	} else {
		issuer := generates.NewBearerIssuer()
		if cfg.TokenTTL > 0 {
			issuer.AccessTTL = cfg.TokenTTL
		}
		e.MapAccessIssuer(issuer)
	}

	e.MapClientAuthenticator(auth.NewClientSecretAuthenticator(clients))

	srv := server.NewServer(e)
	srv.SetLogger(logger)
	srv.SetUserConsentHandler(userConsentHandler)

	r := server.NewGinEngine(srv)
	r.GET("/login", func(c *gin.Context) { loginHandler(c.Writer, c.Request) })
	r.POST("/login", func(c *gin.Context) { loginHandler(c.Writer, c.Request) })
	r.GET("/test", srv.TokenMiddleware(""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"client_id": c.GetString("client_id"),
			"scopes":    c.GetStringSlice("scopes"),
			"time":      time.Now().Unix(),
		})
	})

	logger.Info("server is running", "listen", cfg.Listen)
	logger.Info("authorization endpoint", "path", "/oauth/authorize")
	logger.Info("token endpoint", "path", "/oauth/token")
	log.Fatal(r.Run(cfg.Listen))
}

// userConsentHandler treats a logged-in session as consent; anonymous
// visitors are parked at the login page with the authorization query saved
// for the return trip.
func userConsentHandler(w http.ResponseWriter, r *http.Request) (bool, error) {
	st, err := session.Start(r.Context(), w, r)
	if err != nil {
		return false, err
	}

	if _, ok := st.Get("LoggedInUserID"); !ok {
		st.Set("ReturnUri", r.URL.RawQuery)
		_ = st.Save()

		w.Header().Set("Location", "/login")
		w.WriteHeader(http.StatusFound)
		return false, server.ErrConsentPending
	}

	st.Delete("LoggedInUserID")
	_ = st.Save()
	return true, nil
}

func loginHandler(w http.ResponseWriter, r *http.Request) {
	st, err := session.Start(r.Context(), w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodPost {
		if r.Form == nil {
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}

		if r.Form.Get("username") == "test" && r.Form.Get("password") == "test" {
			st.Set("LoggedInUserID", r.Form.Get("username"))
			_ = st.Save()

			location := "/oauth/authorize"
			if v, ok := st.Get("ReturnUri"); ok {
				if q, ok := v.(string); ok && q != "" {
					location += "?" + q
				}
			}
			st.Delete("ReturnUri")
			_ = st.Save()

			w.Header().Set("Location", location)
			w.WriteHeader(http.StatusFound)
			return
		}
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<h1>Login</h1>
<form method="post">
  <input name="username" placeholder="username (test)">
  <input name="password" type="password" placeholder="password (test)">
  <button type="submit">Sign in</button>
</form>`)
}
