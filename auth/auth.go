// Package auth resolves the OAuth2 credentials used to access the Google Sheets API.
//
// Credentials are taken from (in order of precedence):
//
//   - the GOOGLE_SERVICE_CREDS and GOOGLE_SERVICE_TOKEN environment variables (JSON)
//   - the client secrets ('credentials') and tokens files
//   - an interactive authorisation in the browser, the resulting token being saved to the
//     tokens file
//
// Service account client secrets are used directly and do not require a tokens file.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

const (
	AUTH_FOLDER = "auth"

	DEFAULT_CREDENTIALS = AUTH_FOLDER + "/cred.json"
	DEFAULT_TOKENS      = AUTH_FOLDER + "/token.json"

	ENV_TOKENS      = "GOOGLE_SERVICE_TOKEN"
	ENV_CREDENTIALS = "GOOGLE_SERVICE_CREDS"
)

var DefaultScopes = []string{sheets.SpreadsheetsScope}

var ErrNoCredentials = errors.New("no OAuth2 client credentials")

type Config struct {
	Credentials string
	Tokens      string
	Scopes      []string

	// Browser is invoked with the consent URL during an interactive authorisation. Defaults
	// to opening the URL with the platform browser.
	Browser func(url string) error
	Logger  *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		Credentials: DEFAULT_CREDENTIALS,
		Tokens:      DEFAULT_TOKENS,
		Scopes:      DefaultScopes,
	}
}

func (c Config) scopes() []string {
	if len(c.Scopes) == 0 {
		return DefaultScopes
	}

	return c.Scopes
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}

	return c.Logger
}

// NewClient returns an HTTP client that authorises requests with the resolved credentials.
func NewClient(ctx context.Context, cfg Config) (*http.Client, error) {
	ts, err := TokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return oauth2.NewClient(ctx, ts), nil
}

// TokenSource resolves the credentials and returns a token source that refreshes expired tokens,
// saving refreshed tokens back to the tokens file.
func TokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	log := cfg.logger()

	secrets, err := clientSecrets(cfg)
	if err != nil {
		return nil, err
	}

	if isServiceAccount(secrets) {
		jwt, err := google.JWTConfigFromJSON(secrets, cfg.scopes()...)
		if err != nil {
			return nil, fmt.Errorf("invalid service account credentials (%w)", err)
		}

		log.Debug("using service account credentials", zap.String("email", jwt.Email))

		return jwt.TokenSource(ctx), nil
	}

	stored, persist, err := storedToken(cfg)
	if err != nil {
		return nil, err
	}

	conf, err := oauthConfig(secrets, stored, cfg.scopes())
	if err != nil {
		return nil, err
	}

	var token *oauth2.Token
	if stored != nil {
		token = stored.Token()
	}

	if token == nil || (!token.Valid() && token.RefreshToken == "") {
		log.Info("no usable token - requesting authorisation")

		if token, err = login(ctx, conf, cfg); err != nil {
			return nil, err
		}

		persist = cfg.Tokens != ""
		if persist {
			if err := SaveToken(cfg.Tokens, token, conf); err != nil {
				log.Warn("unable to save token", zap.String("file", cfg.Tokens), zap.Error(err))
			}
		}
	}

	if !persist {
		return conf.TokenSource(ctx, token), nil
	}

	return &savingTokenSource{
		base:    conf.TokenSource(ctx, token),
		file:    cfg.Tokens,
		conf:    conf,
		current: token,
		log:     log,
	}, nil
}

// Authorise runs the interactive authorisation unconditionally and saves the token to the
// tokens file.
func Authorise(ctx context.Context, cfg Config) (*oauth2.Token, error) {
	secrets, err := clientSecrets(cfg)
	if err != nil {
		return nil, err
	} else if isServiceAccount(secrets) {
		return nil, fmt.Errorf("service account credentials do not require authorisation")
	}

	conf, err := oauthConfig(secrets, nil, cfg.scopes())
	if err != nil {
		return nil, err
	}

	token, err := login(ctx, conf, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Tokens != "" {
		if err := SaveToken(cfg.Tokens, token, conf); err != nil {
			return nil, err
		}

		cfg.logger().Info("saved token", zap.String("file", cfg.Tokens))
	}

	return token, nil
}

func clientSecrets(cfg Config) ([]byte, error) {
	if b := fromEnv(ENV_CREDENTIALS, cfg.logger()); b != nil {
		return b, nil
	}

	if cfg.Credentials == "" {
		return nil, nil
	}

	b, err := os.ReadFile(cfg.Credentials)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return b, nil
}

func storedToken(cfg Config) (*tokenFile, bool, error) {
	if b := fromEnv(ENV_TOKENS, cfg.logger()); b != nil {
		var t tokenFile
		if err := json.Unmarshal(b, &t); err != nil {
			cfg.logger().Warn("ignoring invalid token in environment variable", zap.String("variable", ENV_TOKENS), zap.Error(err))
		} else {
			return &t, false, nil
		}
	}

	if cfg.Tokens == "" {
		return nil, false, nil
	}

	t, err := loadTokenFile(cfg.Tokens)
	if errors.Is(err, os.ErrNotExist) {
		return nil, true, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("invalid tokens file %v (%w)", cfg.Tokens, err)
	}

	return t, true, nil
}

func oauthConfig(secrets []byte, stored *tokenFile, scopes []string) (*oauth2.Config, error) {
	if secrets != nil {
		conf, err := google.ConfigFromJSON(secrets, scopes...)
		if err != nil {
			return nil, fmt.Errorf("invalid client credentials (%w)", err)
		}

		return conf, nil
	}

	if stored != nil && stored.ClientID != "" {
		endpoint := google.Endpoint
		if stored.TokenURI != "" {
			endpoint.TokenURL = stored.TokenURI
		}

		return &oauth2.Config{
			ClientID:     stored.ClientID,
			ClientSecret: stored.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       scopes,
		}, nil
	}

	return nil, ErrNoCredentials
}

func isServiceAccount(secrets []byte) bool {
	var v struct {
		Type string `json:"type"`
	}

	if secrets == nil || json.Unmarshal(secrets, &v) != nil {
		return false
	}

	return v.Type == "service_account"
}

func ensureDir(file string) error {
	if dir := filepath.Dir(file); dir != "" && dir != "." {
		return os.MkdirAll(dir, 0700)
	}

	return nil
}
