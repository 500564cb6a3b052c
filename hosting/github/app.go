package github

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gh "github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
)

const (
	// appJWTLifetime stays under the ten minute ceiling GitHub enforces.
	appJWTLifetime = 9 * time.Minute
	appJWTSkew     = time.Minute
)

// WithAppCredentials authenticates as a GitHub App installation. The app JWT is
// exchanged for an installation token, which is refreshed when it expires.
// It takes precedence over WithToken.
func WithAppCredentials(appID, installationID int64, privateKeyPEM []byte) Option {
	return func(c *Client) error {
		if appID <= 0 {
			return fmt.Errorf("app id must be positive, got %d", appID)
		}
		if installationID <= 0 {
			return fmt.Errorf("installation id must be positive, got %d", installationID)
		}
		key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
		if err != nil {
			return fmt.Errorf("parse app private key: %w", err)
		}
		c.app = &appCredentials{appID: appID, installationID: installationID, key: key}
		return nil
	}
}

type appCredentials struct {
	appID          int64
	installationID int64
	key            *rsa.PrivateKey
}

// AppTokenSource mints installation tokens for a GitHub App.
type AppTokenSource struct {
	ctx   context.Context
	api   *gh.Client
	creds *appCredentials
	now   func() time.Time
}

var _ oauth2.TokenSource = (*AppTokenSource)(nil)

// NewAppTokenSource returns a token source for the app installation. baseURL may
// be empty for github.com. Tokens are not cached; wrap the source with
// oauth2.ReuseTokenSource for that.
func NewAppTokenSource(
	ctx context.Context,
	appID, installationID int64,
	privateKeyPEM []byte,
	baseURL string,
	httpClient *http.Client,
) (*AppTokenSource, error) {
	c := &Client{}
	if err := WithAppCredentials(appID, installationID, privateKeyPEM)(c); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	return newAppTokenSource(ctx, c.app, baseURL, httpClient)
}

func newAppTokenSource(
	ctx context.Context,
	creds *appCredentials,
	baseURL string,
	httpClient *http.Client,
) (*AppTokenSource, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	api := gh.NewClient(httpClient)
	if baseURL != "" {
		var err error
		api, err = api.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("github: invalid base URL %q: %w", baseURL, err)
		}
	}
	return &AppTokenSource{ctx: ctx, api: api, creds: creds, now: time.Now}, nil
}

// Token implements oauth2.TokenSource.
func (s *AppTokenSource) Token() (*oauth2.Token, error) {
	signed, err := s.appJWT()
	if err != nil {
		return nil, err
	}

	tok, _, err := s.api.WithAuthToken(signed).Apps.CreateInstallationToken(s.ctx, s.creds.installationID, nil)
	if err != nil {
		return nil, fmt.Errorf("github: create installation token for %d: %w", s.creds.installationID, err)
	}
	if tok.GetToken() == "" {
		return nil, fmt.Errorf("github: empty installation token for %d", s.creds.installationID)
	}

	return &oauth2.Token{
		AccessToken: tok.GetToken(),
		TokenType:   "Bearer",
		Expiry:      tok.GetExpiresAt().Time,
	}, nil
}

func (s *AppTokenSource) appJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatInt(s.creds.appID, 10),
		IssuedAt:  jwt.NewNumericDate(now.Add(-appJWTSkew)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.creds.key)
	if err != nil {
		return "", fmt.Errorf("github: sign app jwt: %w", err)
	}
	return signed, nil
}
