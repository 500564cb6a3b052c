// Package registry probes OCI image registries for tagged manifests.
//
// Probes go through oras-go's remote repository, which issues a manifest HEAD request
// with both the OCI and Docker manifest media types accepted.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// UserAgent is sent with every registry request.
const UserAgent = "versions-management"

// Client checks tag existence on image registries.
type Client struct {
	auth      *auth.Client
	plainHTTP bool
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPlainHTTP talks to registries over HTTP instead of HTTPS.
func WithPlainHTTP(plain bool) Option {
	return func(c *Client) {
		c.plainHTTP = plain
	}
}

// WithCredentials authenticates against host (host[:port]) with basic credentials.
// Other registries are accessed anonymously.
func WithCredentials(host, username, password string) Option {
	return func(c *Client) {
		c.auth.Credential = auth.StaticCredential(host, auth.Credential{
			Username: username,
			Password: password,
		})
	}
}

// WithHTTPClient sets the HTTP client used for registry requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.auth.Client = client
	}
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New returns a Client. Requests are retried with oras' default retry policy and bearer
// tokens are cached across probes.
func New(opts ...Option) *Client {
	c := &Client{
		auth: &auth.Client{
			Client: retry.DefaultClient,
			Header: http.Header{"User-Agent": []string{UserAgent}},
			Cache:  auth.NewCache(),
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Exists reports whether image (e.g. "quay.io/org/app") has a manifest tagged tag.
// A missing manifest is reported as false; every other failure is returned as an error.
func (c *Client) Exists(ctx context.Context, image, tag string) (bool, error) {
	if image == "" || tag == "" {
		return false, fmt.Errorf("registry: image and tag are required")
	}

	repo, err := c.repository(image)
	if err != nil {
		return false, err
	}

	ref := image + ":" + tag
	desc, err := repo.Resolve(ctx, tag)
	if err != nil {
		if errors.Is(err, errdef.ErrNotFound) {
			c.logger.Debug("manifest not found", "reference", ref)
			return false, nil
		}
		return false, mapError(ref, err)
	}

	c.logger.Debug("manifest found", "reference", ref, "digest", desc.Digest.String())
	return true, nil
}

func (c *Client) repository(image string) (*remote.Repository, error) {
	if strings.ContainsAny(image, "@") {
		return nil, fmt.Errorf("registry: invalid image %q: digest not allowed", image)
	}

	repo, err := remote.NewRepository(image)
	if err != nil {
		return nil, fmt.Errorf("registry: invalid image %q: %w", image, err)
	}
	repo.Client = c.auth
	repo.PlainHTTP = c.plainHTTP

	return repo, nil
}

// mapError adds the failing reference and classifies authentication and cancellation.
func mapError(ref string, err error) error {
	if errors.Is(err, auth.ErrBasicCredentialNotFound) {
		return fmt.Errorf("registry: %s: authentication failed: %w", ref, err)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("registry: %s: registry unreachable: %w", ref, err)
	}

	return fmt.Errorf("registry: resolve %s: %w", ref, err)
}
