package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhishek19273/flight-booking-sub000/pkg/logger"

	"golang.org/x/oauth2"
)

// ErrNoCredentials is returned by ForceRefresh when there is nothing to refresh with
var ErrNoCredentials = errors.New("no refresh token configured")

// Settings for the identity provider
type Settings struct {
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	RedirectURL  string
	RefreshToken string
	// AccessToken is used as-is when no token endpoint is configured
	AccessToken string
	Scopes      []string
}

// TokenProvider hands out bearer tokens for the flight backend.
// It refreshes through the identity provider when a refresh token is configured.
type TokenProvider struct {
	config *oauth2.Config
	logger logger.Logger

	mu           sync.Mutex
	source       oauth2.TokenSource
	refreshToken string
	static       string
}

// NewTokenProvider creates a token provider. With neither a refresh token nor
// an access token configured it yields an empty token and requests go out anonymously.
func NewTokenProvider(settings Settings, logger logger.Logger) *TokenProvider {
	config := &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  settings.AuthorizeURL,
			TokenURL: settings.TokenURL,
		},
		RedirectURL: settings.RedirectURL,
		Scopes:      settings.Scopes,
	}

	p := &TokenProvider{
		config:       config,
		logger:       logger,
		refreshToken: settings.RefreshToken,
		static:       settings.AccessToken,
	}
	if p.canRefresh() {
		p.source = p.newSource(context.Background())
	}
	return p
}

func (p *TokenProvider) canRefresh() bool {
	return p.refreshToken != "" && p.config.Endpoint.TokenURL != ""
}

func (p *TokenProvider) newSource(ctx context.Context) oauth2.TokenSource {
	token := &oauth2.Token{
		RefreshToken: p.refreshToken,
		Expiry:       time.Now(), // Force refresh
	}
	return oauth2.ReuseTokenSource(nil, p.config.TokenSource(context.WithoutCancel(ctx), token))
}

// Token returns the current access token, refreshing it if expired
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	source := p.source
	static := p.static
	p.mu.Unlock()

	if source == nil {
		return static, nil
	}

	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	p.remember(token)
	return token.AccessToken, nil
}

// ForceRefresh discards the cached access token and obtains a new one.
// Used after the backend rejects a token with 401.
func (p *TokenProvider) ForceRefresh(ctx context.Context) (string, error) {
	p.mu.Lock()
	if !p.canRefresh() {
		p.mu.Unlock()
		return "", ErrNoCredentials
	}
	p.source = p.newSource(ctx)
	source := p.source
	p.mu.Unlock()

	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}
	p.remember(token)
	p.logger.Info("Access token refreshed", "expiry", token.Expiry)
	return token.AccessToken, nil
}

// remember keeps a rotated refresh token for the next forced refresh
func (p *TokenProvider) remember(token *oauth2.Token) {
	if token.RefreshToken == "" {
		return
	}
	p.mu.Lock()
	p.refreshToken = token.RefreshToken
	p.mu.Unlock()
}

// GenerateAuthURL generates a URL for the user to authorize the application
func (p *TokenProvider) GenerateAuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode exchanges an authorization code for a token
func (p *TokenProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	p.logger.Info("Refresh token obtained", "expiry", token.Expiry)
	return token, nil
}

// TokenToJSON converts a token to JSON
func TokenToJSON(token *oauth2.Token) (string, error) {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
