package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/config"
	"github.com/abhishek19273/flight-booking-sub000/internal/infrastructure/oauth"
	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.AuthClientID == "" || cfg.AuthAuthorizeURL == "" || cfg.AuthTokenURL == "" {
		log.Fatal("AUTH_CLIENT_ID, AUTH_AUTHORIZE_URL and AUTH_TOKEN_URL must be set")
	}

	callback, err := url.Parse(cfg.AuthRedirectURL)
	if err != nil {
		log.Fatalf("invalid AUTH_REDIRECT_URL: %v", err)
	}

	provider := oauth.NewTokenProvider(oauth.Settings{
		ClientID:     cfg.AuthClientID,
		ClientSecret: cfg.AuthClientSecret,
		AuthorizeURL: cfg.AuthAuthorizeURL,
		TokenURL:     cfg.AuthTokenURL,
		RedirectURL:  cfg.AuthRedirectURL,
	}, logger.NewLoggerWithLevel("warn"))

	state := uuid.NewString()

	// Start an HTTP server to handle the OAuth callback
	http.HandleFunc(callback.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		token, err := provider.ExchangeCode(context.Background(), r.URL.Query().Get("code"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		tokenJSON, err := oauth.TokenToJSON(token)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		fmt.Printf("\n%s\n\nSet AUTH_REFRESH_TOKEN=%s\n\n", tokenJSON, token.RefreshToken)

		fmt.Fprintf(w, "Authentication successful! You can close this window.")
		os.Exit(0)
	})

	fmt.Printf("Open this URL in your browser:\n%s\n", provider.GenerateAuthURL(state))

	log.Fatal(http.ListenAndServe(callback.Host, nil))
}
