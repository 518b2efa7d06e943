package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const page = `<html><body><p>%v</p><p>You can close this window.</p></body></html>`

// login runs the 'installed application' authorisation flow, i.e. a loopback HTTP server on a
// random port receives the authorisation code after the user has granted access in the browser.
func login(ctx context.Context, conf *oauth2.Config, cfg Config) (*oauth2.Token, error) {
	log := cfg.logger()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("unable to start authorisation callback listener (%w)", err)
	}

	config := *conf
	config.RedirectURL = fmt.Sprintf("http://127.0.0.1:%v/", listener.Addr().(*net.TCPAddr).Port)

	state, err := nonce()
	if err != nil {
		listener.Close()
		return nil, err
	}

	authorised := make(chan string, 1)
	failed := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		if rq.FormValue("state") != state {
			http.Error(w, "Invalid authorisation state", http.StatusBadRequest)
			return
		}

		if reason := rq.FormValue("error"); reason != "" {
			fmt.Fprintf(w, page, "Authorisation failed")
			select {
			case failed <- fmt.Errorf("authorisation refused (%v)", reason):
			default:
			}
			return
		}

		code := rq.FormValue("code")
		if code == "" {
			http.Error(w, "Missing authorisation code", http.StatusBadRequest)
			return
		}

		fmt.Fprintf(w, page, "Authorisation complete")
		select {
		case authorised <- code:
		default:
		}
	})

	srv := &http.Server{
		Handler: mux,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Warn("authorisation callback server", zap.Error(err))
		}
	}()

	defer func() {
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Warn("authorisation callback server shutdown", zap.Error(err))
		}
	}()

	// ... CTRL-C handler
	interrupt := make(chan os.Signal, 1)

	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	// ... open consent page
	url := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	browser := cfg.Browser
	if browser == nil {
		browser = openBrowser
	}

	if err := browser(url); err != nil {
		fmt.Printf("Could not open the authorisation page in your browser - please open the following link manually:\n\n  %v\n\n", url)
	}

	// ... wait for authorisation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case <-interrupt:
		return nil, fmt.Errorf("authorisation cancelled")

	case err := <-failed:
		return nil, err

	case code := <-authorised:
		token, err := config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token (%w)", err)
		}

		log.Info("authorised")

		return token, nil
	}
}

func nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
