package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

func decodeTokenBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatalf("decoding token response %q: %v", body, err)
	}
	return data
}

func TestIssueToken_ExchangesCode(t *testing.T) {
	e, _, tokens := newTestEngine()

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "c1")
	query.Set("scope", "read")
	code, err := obtainCode(e, query)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", "c1")

	body, status, desc := e.IssueToken(tokenRequest(form))
	if status != http.StatusOK {
		t.Fatalf("status = %d (%s), body %s", status, desc, body)
	}
	data := decodeTokenBody(t, body)
	access, _ := data["access_token"].(string)
	if access == "" {
		t.Fatal("empty access_token")
	}
	if data["token_type"] != "Bearer" {
		t.Errorf("token_type = %v, want Bearer", data["token_type"])
	}
	if data["expires_in"].(float64) <= 0 {
		t.Errorf("expires_in = %v", data["expires_in"])
	}

	stored, err := tokens.GetByAccess(tokenRequest(form).Context(), access)
	if err != nil || stored == nil {
		t.Fatalf("issued token was not registered: %v", err)
	}
	if stored.GetClientID() != "c1" {
		t.Errorf("token bound to %q, want c1", stored.GetClientID())
	}
	if stored.GetScope() != "read" {
		t.Errorf("token scope %q, want read", stored.GetScope())
	}
}

func TestIssueToken_ReplayedCodeRejected(t *testing.T) {
	e, _, _ := newTestEngine()

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "c1")
	code, err := obtainCode(e, query)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", "c1")

	if _, status, _ := e.IssueToken(tokenRequest(form)); status != http.StatusOK {
		t.Fatalf("first exchange failed with status %d", status)
	}

	body, status, _ := e.IssueToken(tokenRequest(form))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if data := decodeTokenBody(t, body); data["error"] != "invalid_grant" {
		t.Errorf("error = %v, want invalid_grant", data["error"])
	}
}

func TestIssueToken_ConcurrentRedemptionSingleWinner(t *testing.T) {
	e, _, _ := newTestEngine()

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "c1")
	code, err := obtainCode(e, query)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", "c1")

	const n = 8
	statuses := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, statuses[i], _ = e.IssueToken(tokenRequest(form))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, s := range statuses {
		if s == http.StatusOK {
			won++
		} else if s != http.StatusBadRequest {
			t.Errorf("unexpected status %d", s)
		}
	}
	if won != 1 {
		t.Errorf("%d redemptions succeeded, want exactly 1", won)
	}
}

func TestIssueToken_RequiresPost(t *testing.T) {
	e, _, _ := newTestEngine()

	r := httptest.NewRequest(http.MethodGet,
		"https://server.example/oauth/token?grant_type=authorization_code&code=x", nil)
	body, status, _ := e.IssueToken(r)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if data := decodeTokenBody(t, body); data["error"] != "invalid_request" {
		t.Errorf("error = %v, want invalid_request", data["error"])
	}
}

func TestIssueToken_MissingParameters(t *testing.T) {
	e, _, _ := newTestEngine()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")

	body, status, _ := e.IssueToken(tokenRequest(form))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	data := decodeTokenBody(t, body)
	if data["error"] != "invalid_request" {
		t.Errorf("error = %v, want invalid_request", data["error"])
	}
	if data["error_description"] != "Missing request parameter: code" {
		t.Errorf("error_description = %v", data["error_description"])
	}
}

func TestIssueToken_UnknownCode(t *testing.T) {
	e, _, _ := newTestEngine()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", "never-issued")

	body, status, _ := e.IssueToken(tokenRequest(form))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if data := decodeTokenBody(t, body); data["error"] != "invalid_grant" {
		t.Errorf("error = %v, want invalid_grant", data["error"])
	}
}

func TestIssueToken_UnsupportedGrantType(t *testing.T) {
	e, _, _ := newTestEngine()

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "c1")
	code, err := obtainCode(e, query)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("code", code)

	body, status, _ := e.IssueToken(tokenRequest(form))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if data := decodeTokenBody(t, body); data["error"] != "unsupported_grant_type" {
		t.Errorf("error = %v, want unsupported_grant_type", data["error"])
	}

	// The code was consumed by the failed exchange.
	form.Set("grant_type", "authorization_code")
	body, status, _ = e.IssueToken(tokenRequest(form))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if data := decodeTokenBody(t, body); data["error"] != "invalid_grant" {
		t.Errorf("error = %v, want invalid_grant", data["error"])
	}
}

func TestIssueToken_RedirectURIMismatch(t *testing.T) {
	e, _, _ := newTestEngine()

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "c2")
	query.Set("redirect_uri", "https://client.example/a")
	code, err := obtainCode(e, query)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "https://client.example/b")

	body, status, _ := e.IssueToken(tokenRequest(form))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if data := decodeTokenBody(t, body); data["error"] != "invalid_grant" {
		t.Errorf("error = %v, want invalid_grant", data["error"])
	}
}

func TestIssueToken_ClientBindingMismatch(t *testing.T) {
	e, _, _ := newTestEngine()

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "c1")
	code, err := obtainCode(e, query)
	if err != nil {
		t.Fatal(err)
	}

	// c2 presents c1's code.
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", "c2")

	body, status, _ := e.IssueToken(tokenRequest(form))
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	if data := decodeTokenBody(t, body); data["error"] != "invalid_grant" {
		t.Errorf("error = %v, want invalid_grant", data["error"])
	}
}

func TestIssueToken_RepeatedParameterRejected(t *testing.T) {
	e, _, _ := newTestEngine()

	r := httptest.NewRequest(http.MethodPost, "https://server.example/oauth/token",
		strings.NewReader("grant_type=authorization_code&code=a&code=b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, _ := e.IssueToken(r)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
	data := decodeTokenBody(t, body)
	if data["error"] != "invalid_request" {
		t.Errorf("error = %v, want invalid_request", data["error"])
	}
	if data["error_description"] != `Parameter "code" is repeated` {
		t.Errorf("error_description = %v", data["error_description"])
	}
}

func TestIssueToken_GenerationFailure(t *testing.T) {
	e, _, _ := newTestEngine()
	e.MapAccessIssuer(&fakeIssuer{failed: true})

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "c1")
	code, err := obtainCode(e, query)
	if err != nil {
		t.Fatal(err)
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	body, status, desc := e.IssueToken(tokenRequest(form))
	if body != nil {
		t.Errorf("unexpected body %s", body)
	}
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if desc != "Access token generation failed." {
		t.Errorf("description = %q", desc)
	}
}
