package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, rq *http.Request) {
		if err := rq.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		switch rq.FormValue("grant_type") {
		case "refresh_token":
			if rq.FormValue("refresh_token") != "refresh-me" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}

		case "authorization_code":
			if rq.FormValue("code") != "qwerty" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}

		default:
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":"%v","token_type":"Bearer","refresh_token":"refresh-me","expires_in":3600}`, accessToken)
	}))

	t.Cleanup(srv.Close)

	return srv
}

func writeCredentials(t *testing.T, dir, tokenURL string) string {
	file := filepath.Join(dir, "cred.json")
	if err := os.WriteFile(file, credentials(t, tokenURL), 0600); err != nil {
		t.Fatalf("Error writing credentials file (%v)", err)
	}

	return file
}

func credentials(t *testing.T, tokenURL string) []byte {
	credentials := map[string]any{
		"installed": map[string]any{
			"client_id":     "qwerty.apps.googleusercontent.com",
			"client_secret": "uiop",
			"auth_uri":      "https://accounts.example.com/o/oauth2/auth",
			"token_uri":     tokenURL,
			"redirect_uris": []string{"http://localhost"},
		},
	}

	b, err := json.Marshal(credentials)
	if err != nil {
		t.Fatalf("Error creating credentials (%v)", err)
	}

	return b
}

func clearEnv(t *testing.T) {
	t.Setenv(ENV_TOKENS, "")
	t.Setenv(ENV_CREDENTIALS, "")
}

func noBrowser(t *testing.T) func(string) error {
	return func(url string) error {
		t.Fatalf("Unexpected interactive authorisation (%v)", url)
		return nil
	}
}

func TestTokenFileLayouts(t *testing.T) {
	expiry := time.Date(2026, time.March, 1, 12, 30, 45, 0, time.UTC)

	tests := map[string]string{
		"oauth2":      `{"access_token":"abc","token_type":"Bearer","refresh_token":"def","expiry":"2026-03-01T12:30:45Z"}`,
		"google-auth": `{"token":"abc","refresh_token":"def","token_uri":"https://oauth2.googleapis.com/token","client_id":"id","client_secret":"secret","expiry":"2026-03-01T12:30:45.000000Z"}`,
	}

	for layout, v := range tests {
		var f tokenFile
		if err := json.Unmarshal([]byte(v), &f); err != nil {
			t.Fatalf("%v: error decoding token (%v)", layout, err)
		}

		token := f.Token()
		if token.AccessToken != "abc" {
			t.Errorf("%v: incorrect access token - expected:%v, got:%v", layout, "abc", token.AccessToken)
		}

		if token.RefreshToken != "def" {
			t.Errorf("%v: incorrect refresh token - expected:%v, got:%v", layout, "def", token.RefreshToken)
		}

		if !token.Expiry.Equal(expiry) {
			t.Errorf("%v: incorrect expiry - expected:%v, got:%v", layout, expiry, token.Expiry)
		}
	}
}

func TestTokenFileWithInvalidExpiry(t *testing.T) {
	f := tokenFile{AuthToken: "abc", RefreshToken: "def", Expiry: "tomorrow"}

	if token := f.Token(); token.Valid() {
		t.Errorf("Expected token with unparseable expiry to be invalid")
	}
}

func TestSaveToken(t *testing.T) {
	file := filepath.Join(t.TempDir(), "auth", "token.json")
	token := &oauth2.Token{
		AccessToken:  "abc",
		TokenType:    "Bearer",
		RefreshToken: "def",
		Expiry:       time.Date(2026, time.March, 1, 12, 30, 45, 0, time.UTC),
	}

	conf := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: "https://oauth2.example.com/token"},
	}

	if err := SaveToken(file, token, conf); err != nil {
		t.Fatalf("Error saving token (%v)", err)
	}

	info, err := os.Stat(file)
	if err != nil {
		t.Fatalf("Error reading tokens file (%v)", err)
	} else if info.Mode().Perm() != 0600 {
		t.Errorf("Incorrect tokens file permissions - expected:%v, got:%v", os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := LoadToken(file)
	if err != nil {
		t.Fatalf("Error loading token (%v)", err)
	}

	if loaded.AccessToken != token.AccessToken || loaded.RefreshToken != token.RefreshToken || !loaded.Expiry.Equal(token.Expiry) {
		t.Errorf("Incorrect token\n   expected: %+v\n   got:      %+v", token, loaded)
	}

	f, err := loadTokenFile(file)
	if err != nil {
		t.Fatalf("Error loading tokens file (%v)", err)
	}

	if f.ClientID != "id" || f.ClientSecret != "secret" || f.TokenURI != "https://oauth2.example.com/token" {
		t.Errorf("Tokens file missing client details: %+v", f)
	}
}

func TestTokenSourceWithValidToken(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	tokens := filepath.Join(dir, "token.json")
	token := &oauth2.Token{
		AccessToken: "valid",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}

	if err := SaveToken(tokens, token, nil); err != nil {
		t.Fatalf("Error saving token (%v)", err)
	}

	cfg := Config{
		Credentials: writeCredentials(t, dir, "https://oauth2.example.com/token"),
		Tokens:      tokens,
		Browser:     noBrowser(t),
	}

	ts, err := TokenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if tok, err := ts.Token(); err != nil {
		t.Fatalf("Unexpected error retrieving token (%v)", err)
	} else if tok.AccessToken != "valid" {
		t.Errorf("Incorrect access token - expected:%v, got:%v", "valid", tok.AccessToken)
	}
}

func TestTokenSourceRefreshesAndSavesExpiredToken(t *testing.T) {
	clearEnv(t)

	srv := tokenServer(t, "refreshed")
	dir := t.TempDir()
	tokens := filepath.Join(dir, "token.json")
	token := &oauth2.Token{
		AccessToken:  "expired",
		TokenType:    "Bearer",
		RefreshToken: "refresh-me",
		Expiry:       time.Now().Add(-time.Hour),
	}

	if err := SaveToken(tokens, token, nil); err != nil {
		t.Fatalf("Error saving token (%v)", err)
	}

	cfg := Config{
		Credentials: writeCredentials(t, dir, srv.URL),
		Tokens:      tokens,
		Browser:     noBrowser(t),
	}

	ts, err := TokenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if tok, err := ts.Token(); err != nil {
		t.Fatalf("Unexpected error refreshing token (%v)", err)
	} else if tok.AccessToken != "refreshed" {
		t.Errorf("Incorrect access token - expected:%v, got:%v", "refreshed", tok.AccessToken)
	}

	if saved, err := LoadToken(tokens); err != nil {
		t.Fatalf("Error loading saved token (%v)", err)
	} else if saved.AccessToken != "refreshed" {
		t.Errorf("Refreshed token not saved - expected:%v, got:%v", "refreshed", saved.AccessToken)
	}
}

func TestTokenSourceFromEnvironment(t *testing.T) {
	srv := tokenServer(t, "from-env")

	t.Setenv(ENV_CREDENTIALS, "")
	t.Setenv(ENV_TOKENS, fmt.Sprintf(`{"refresh_token":"refresh-me","client_id":"id","client_secret":"secret","token_uri":"%v"}`, srv.URL))

	cfg := Config{
		Credentials: filepath.Join(t.TempDir(), "missing.json"),
		Tokens:      filepath.Join(t.TempDir(), "token.json"),
		Browser:     noBrowser(t),
	}

	ts, err := TokenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if tok, err := ts.Token(); err != nil {
		t.Fatalf("Unexpected error retrieving token (%v)", err)
	} else if tok.AccessToken != "from-env" {
		t.Errorf("Incorrect access token - expected:%v, got:%v", "from-env", tok.AccessToken)
	}

	if _, err := os.Stat(cfg.Tokens); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Token from environment should not be saved to the tokens file (%v)", err)
	}
}

func TestTokenSourceWithCredentialsFromEnvironment(t *testing.T) {
	file := tokenServer(t, "from-file")
	env := tokenServer(t, "from-env")
	dir := t.TempDir()

	t.Setenv(ENV_CREDENTIALS, string(credentials(t, env.URL)))
	t.Setenv(ENV_TOKENS, "")

	tokens := filepath.Join(dir, "token.json")
	if err := os.WriteFile(tokens, []byte(`{"refresh_token":"refresh-me"}`), 0600); err != nil {
		t.Fatalf("Error writing tokens file (%v)", err)
	}

	cfg := Config{
		Credentials: writeCredentials(t, dir, file.URL),
		Tokens:      tokens,
		Browser:     noBrowser(t),
	}

	ts, err := TokenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if tok, err := ts.Token(); err != nil {
		t.Fatalf("Unexpected error retrieving token (%v)", err)
	} else if tok.AccessToken != "from-env" {
		t.Errorf("Incorrect access token - expected:%v, got:%v", "from-env", tok.AccessToken)
	}
}

func TestTokenSourceWithServiceAccount(t *testing.T) {
	clearEnv(t)

	var grants atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, rq *http.Request) {
		if err := rq.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if rq.FormValue("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" || rq.FormValue("assertion") == "" {
			http.Error(w, `{"error":"unsupported_grant_type"}`, http.StatusBadRequest)
			return
		}

		grants.Add(1)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"robot","token_type":"Bearer","expires_in":3600}`)
	}))

	t.Cleanup(srv.Close)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Error generating key (%v)", err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("Error encoding key (%v)", err)
	}

	secrets, err := json.Marshal(map[string]any{
		"type":           "service_account",
		"client_email":   "robot@example.iam.gserviceaccount.com",
		"private_key_id": "12345",
		"private_key":    string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		"token_uri":      srv.URL,
	})
	if err != nil {
		t.Fatalf("Error creating credentials (%v)", err)
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "service.json")
	if err := os.WriteFile(file, secrets, 0600); err != nil {
		t.Fatalf("Error writing credentials (%v)", err)
	}

	cfg := Config{
		Credentials: file,
		Tokens:      filepath.Join(dir, "token.json"),
		Browser:     noBrowser(t),
	}

	ts, err := TokenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if tok, err := ts.Token(); err != nil {
		t.Fatalf("Unexpected error retrieving token (%v)", err)
	} else if tok.AccessToken != "robot" {
		t.Errorf("Incorrect access token - expected:%v, got:%v", "robot", tok.AccessToken)
	}

	if N := grants.Load(); N != 1 {
		t.Errorf("Expected 1 JWT grant request, got %v", N)
	}

	if _, err := os.Stat(cfg.Tokens); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Service account token should not be saved to the tokens file (%v)", err)
	}
}

func TestTokenSourceIgnoresNonObjectTokenInEnvironment(t *testing.T) {
	srv := tokenServer(t, "from-file")
	dir := t.TempDir()

	t.Setenv(ENV_CREDENTIALS, "")
	t.Setenv(ENV_TOKENS, `["not","a","token"]`)

	tokens := filepath.Join(dir, "token.json")
	if err := os.WriteFile(tokens, []byte(`{"refresh_token":"refresh-me"}`), 0600); err != nil {
		t.Fatalf("Error writing tokens file (%v)", err)
	}

	cfg := Config{
		Credentials: writeCredentials(t, dir, srv.URL),
		Tokens:      tokens,
		Browser:     noBrowser(t),
	}

	ts, err := TokenSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if tok, err := ts.Token(); err != nil {
		t.Fatalf("Unexpected error retrieving token (%v)", err)
	} else if tok.AccessToken != "from-file" {
		t.Errorf("Incorrect access token - expected:%v, got:%v", "from-file", tok.AccessToken)
	}
}

func TestTokenSourceIgnoresInvalidEnvironment(t *testing.T) {
	t.Setenv(ENV_CREDENTIALS, "{not json")
	t.Setenv(ENV_TOKENS, "")

	cfg := Config{
		Credentials: filepath.Join(t.TempDir(), "missing.json"),
		Tokens:      filepath.Join(t.TempDir(), "token.json"),
		Browser:     noBrowser(t),
	}

	if _, err := TokenSource(context.Background(), cfg); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Expected ErrNoCredentials, got %v", err)
	}
}

func TestAuthorise(t *testing.T) {
	clearEnv(t)

	srv := tokenServer(t, "authorised")
	dir := t.TempDir()

	browser := func(consent string) error {
		u, err := url.Parse(consent)
		if err != nil {
			return err
		}

		redirect := u.Query().Get("redirect_uri")
		state := u.Query().Get("state")

		if u.Query().Get("access_type") != "offline" {
			t.Errorf("Expected offline access in consent URL %v", consent)
		}

		rs, err := http.Get(fmt.Sprintf("%v?state=%v&code=qwerty", redirect, url.QueryEscape(state)))
		if err != nil {
			return err
		}

		return rs.Body.Close()
	}

	cfg := Config{
		Credentials: writeCredentials(t, dir, srv.URL),
		Tokens:      filepath.Join(dir, "auth", "token.json"),
		Browser:     browser,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := Authorise(ctx, cfg)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if token.AccessToken != "authorised" {
		t.Errorf("Incorrect access token - expected:%v, got:%v", "authorised", token.AccessToken)
	}

	if saved, err := LoadToken(cfg.Tokens); err != nil {
		t.Fatalf("Error loading saved token (%v)", err)
	} else if saved.AccessToken != "authorised" || saved.RefreshToken != "refresh-me" {
		t.Errorf("Incorrect saved token: %+v", saved)
	}
}

func TestAuthoriseWithServiceAccount(t *testing.T) {
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "service.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account","client_email":"robot@example.iam.gserviceaccount.com"}`), 0600); err != nil {
		t.Fatalf("Error writing credentials (%v)", err)
	}

	if _, err := Authorise(context.Background(), Config{Credentials: file}); err == nil {
		t.Errorf("Expected error authorising service account credentials")
	}
}
