package auth

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// tokenFile is the on-disk token layout. It reads both the golang.org/x/oauth2 token fields and the
// google-auth 'authorized user' fields ('token', 'token_uri', etc) and always writes the client
// ID and secret alongside the token so that the file can be used without the client secrets.
type tokenFile struct {
	AccessToken  string   `json:"access_token,omitempty"`
	AuthToken    string   `json:"token,omitempty"`
	TokenType    string   `json:"token_type,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
}

func (t tokenFile) Token() *oauth2.Token {
	token := oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}

	if token.AccessToken == "" {
		token.AccessToken = t.AuthToken
	}

	if t.Expiry != "" {
		if expiry, err := time.Parse(time.RFC3339Nano, t.Expiry); err == nil {
			token.Expiry = expiry
		} else {
			token.Expiry = time.Unix(1, 0)
		}
	}

	return &token
}

// LoadToken reads a token from a tokens file.
func LoadToken(file string) (*oauth2.Token, error) {
	t, err := loadTokenFile(file)
	if err != nil {
		return nil, err
	}

	return t.Token(), nil
}

// SaveToken writes a token (and the client ID and secret from the configuration) to a tokens file,
// creating the containing folder if necessary.
func SaveToken(file string, token *oauth2.Token, conf *oauth2.Config) error {
	t := tokenFile{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
	}

	if !token.Expiry.IsZero() {
		t.Expiry = token.Expiry.UTC().Format(time.RFC3339Nano)
	}

	if conf != nil {
		t.ClientID = conf.ClientID
		t.ClientSecret = conf.ClientSecret
		t.TokenURI = conf.Endpoint.TokenURL
		t.Scopes = conf.Scopes
	}

	if err := ensureDir(file); err != nil {
		return err
	}

	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")

	return encoder.Encode(t)
}

func loadTokenFile(file string) (*tokenFile, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	var t tokenFile
	if err := json.NewDecoder(f).Decode(&t); err != nil {
		return nil, err
	}

	return &t, nil
}

// savingTokenSource saves refreshed tokens to the tokens file.
type savingTokenSource struct {
	base    oauth2.TokenSource
	file    string
	conf    *oauth2.Config
	current *oauth2.Token
	log     *zap.Logger
	sync.Mutex
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.Lock()
	defer s.Unlock()

	if s.current == nil || token.AccessToken != s.current.AccessToken {
		s.current = token
		if err := SaveToken(s.file, token, s.conf); err != nil {
			s.log.Warn("unable to save refreshed token", zap.String("file", s.file), zap.Error(err))
		} else {
			s.log.Info("saved refreshed token", zap.String("file", s.file))
		}
	}

	return token, nil
}
