package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"golang.org/x/oauth2"
)

var (
	authBaseURL  = env("OAUTH2_AUTH_BASE_URL", "http://localhost:9096")
	clientPort   = env("OAUTH2_CLIENT_PORT", "9098")
	stateToken   = env("OAUTH2_STATE", "xyz")
	globalConfig oauth2.Config
	globalToken  *oauth2.Token
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	globalConfig = oauth2.Config{
		ClientID:     env("OAUTH2_CLIENT_ID", "222222"),
		ClientSecret: env("OAUTH2_CLIENT_SECRET", "22222222"),
		Scopes:       []string{"read"},
		RedirectURL:  fmt.Sprintf("http://localhost:%s/callback", clientPort),
		Endpoint: oauth2.Endpoint{
			AuthURL:  authBaseURL + "/oauth/authorize",
			TokenURL: authBaseURL + "/oauth/token",
		},
	}

	http.HandleFunc("/", handleIndex)
	http.HandleFunc("/callback", handleCallback)
	http.HandleFunc("/try", handleTry)

	log.Printf("Example client running at http://localhost:%s", clientPort)
	log.Printf("Authorization server: %s", authBaseURL)
	log.Fatal(http.ListenAndServe(":"+clientPort, nil))
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	u := globalConfig.AuthCodeURL(stateToken)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<h1>Example Client</h1>
<ul>
  <li><a href="%s">Authorize</a></li>
  <li><a href="/try">Call the protected resource</a></li>
</ul>`, u)
}

func handleCallback(w http.ResponseWriter, r *http.Request) {
	if errCode := r.URL.Query().Get("error"); errCode != "" {
		http.Error(w, fmt.Sprintf("authorization failed: %s (%s)",
			errCode, r.URL.Query().Get("error_description")), http.StatusBadRequest)
		return
	}
	if state := r.URL.Query().Get("state"); state != stateToken {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "no code in callback", http.StatusBadRequest)
		return
	}

	token, err := globalConfig.Exchange(context.Background(), code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	globalToken = token

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(token)
}

func handleTry(w http.ResponseWriter, r *http.Request) {
	if globalToken == nil {
		http.Error(w, "authorize first", http.StatusBadRequest)
		return
	}

	client := globalConfig.Client(context.Background(), globalToken)
	resp, err := client.Get(authBaseURL + "/test")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
