package gitremote

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// AuthProvider resolves the authentication method for a remote URL.
// A nil method means the remote is accessed anonymously.
type AuthProvider interface {
	Method(remoteURL string) (transport.AuthMethod, error)
}

// HTTPSAuthProvider authenticates HTTPS remotes with basic auth.
type HTTPSAuthProvider struct {
	auth *http.BasicAuth

	// AllowedHosts restricts authentication to matching hosts.
	// Supports a single leading "*." wildcard, e.g. "*.github.com".
	AllowedHosts []string
}

// NewHTTPSTokenProvider creates an HTTPS provider for token authentication.
// Git hosting services accept the token as the password of any username.
func NewHTTPSTokenProvider(token string) *HTTPSAuthProvider {
	return &HTTPSAuthProvider{
		auth: &http.BasicAuth{
			Username: "token",
			Password: token,
		},
	}
}

// WithAllowedHosts sets the allowed hosts for this provider.
func (p *HTTPSAuthProvider) WithAllowedHosts(hosts ...string) *HTTPSAuthProvider {
	p.AllowedHosts = hosts
	return p
}

// Method implements AuthProvider. Hosts outside AllowedHosts get no credentials.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *HTTPSAuthProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	parsedURL, err := url.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("HTTPS auth provider only supports https:// URLs, got %s", parsedURL.Scheme)
	}

	if len(p.AllowedHosts) > 0 && !p.isHostAllowed(parsedURL.Hostname()) {
		return nil, nil
	}

	return p.auth, nil
}

func (p *HTTPSAuthProvider) isHostAllowed(host string) bool {
	for _, pattern := range p.AllowedHosts {
		if host == pattern {
			return true
		}
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
		}
	}
	return false
}
