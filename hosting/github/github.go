// Package github implements hosting.Client on top of the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"

	"github.com/openshift-assisted/versions-management/hosting"
)

const (
	// DefaultMaxReleasePages bounds how many release pages ListReleases walks.
	DefaultMaxReleasePages = 5

	// DefaultTimeout is the HTTP client timeout used when no client is supplied.
	DefaultTimeout = 30 * time.Second

	releasesPerPage = 100
	maxCommitsPage  = 100
)

// Option configures a Client.
type Option func(*Client) error

// WithToken authenticates every request with a static token.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		c.baseURL = baseURL
		return nil
	}
}

// WithHTTPClient overrides the transport used for API calls. Token authentication
// is layered on top of it.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = client
		return nil
	}
}

// WithMaxReleasePages overrides DefaultMaxReleasePages.
func WithMaxReleasePages(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("max release pages must be positive, got %d", n)
		}
		c.maxReleasePages = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// Client is a hosting.Client backed by the GitHub REST API.
type Client struct {
	api             *gh.Client
	token           string
	app             *appCredentials
	baseURL         string
	httpClient      *http.Client
	maxReleasePages int
	logger          *slog.Logger
}

var _ hosting.Client = (*Client)(nil)

// New creates a GitHub client.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{
		maxReleasePages: DefaultMaxReleasePages,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("github: %w", err)
		}
	}

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	switch {
	case c.app != nil:
		src, err := newAppTokenSource(ctx, c.app, c.baseURL, httpClient)
		if err != nil {
			return nil, err
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, src))
	case c.token != "":
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}))
	}

	api := gh.NewClient(httpClient)
	if c.baseURL != "" {
		var err error
		api, err = api.WithEnterpriseURLs(c.baseURL, c.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github: invalid base URL %q: %w", c.baseURL, err)
		}
	}
	c.api = api

	return c, nil
}

// Repository implements hosting.Client. No request is made until the handle is used.
//
//nolint:ireturn // returns the hosting.Repository contract.
func (c *Client) Repository(_ context.Context, fullName string) (hosting.Repository, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github: repository %q is not in org/repo form", fullName)
	}
	return &Repository{
		client: c,
		owner:  owner,
		name:   name,
		logger: c.logger.With("repository", fullName),
	}, nil
}

// Repository is a handle on one GitHub repository.
type Repository struct {
	client *Client
	owner  string
	name   string
	logger *slog.Logger
}

var _ hosting.Repository = (*Repository)(nil)

// ListReleases implements hosting.Repository. GitHub returns releases newest first.
func (r *Repository) ListReleases(ctx context.Context) ([]hosting.Release, error) {
	opts := &gh.ListOptions{PerPage: releasesPerPage}

	var releases []hosting.Release
	for page := 0; page < r.client.maxReleasePages; page++ {
		batch, resp, err := r.client.api.Repositories.ListReleases(ctx, r.owner, r.name, opts)
		if err != nil {
			return nil, r.wrap(err, "list releases")
		}
		for _, rel := range batch {
			releases = append(releases, hosting.Release{
				TagName:    rel.GetTagName(),
				Prerelease: rel.GetPrerelease(),
				Target:     rel.GetTargetCommitish(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	r.logger.Debug("listed releases", "count", len(releases))
	return releases, nil
}

// ListCommits implements hosting.Repository.
func (r *Repository) ListCommits(ctx context.Context, limit int) ([]hosting.Commit, error) {
	if limit <= 0 {
		return nil, nil
	}

	perPage := min(limit, maxCommitsPage)
	opts := &gh.CommitsListOptions{ListOptions: gh.ListOptions{PerPage: perPage}}

	commits := make([]hosting.Commit, 0, limit)
	for len(commits) < limit {
		batch, resp, err := r.client.api.Repositories.ListCommits(ctx, r.owner, r.name, opts)
		if err != nil {
			return nil, r.wrap(err, "list commits")
		}
		for _, c := range batch {
			if len(commits) == limit {
				break
			}
			commits = append(commits, hosting.Commit{SHA: c.GetSHA()})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return commits, nil
}

// TagExists implements hosting.Repository. A 404 on the tag reference means the tag
// does not exist; every other failure is returned.
func (r *Repository) TagExists(ctx context.Context, tag string) (bool, error) {
	_, resp, err := r.client.api.Git.GetRef(ctx, r.owner, r.name, "tags/"+tag)
	if err == nil {
		return true, nil
	}
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, r.wrap(err, "get tag ref "+tag)
}

// CreateTag implements hosting.Repository.
func (r *Repository) CreateTag(ctx context.Context, tag, message, targetSHA string) (string, error) {
	created, _, err := r.client.api.Git.CreateTag(ctx, r.owner, r.name, &gh.Tag{
		Tag:     gh.Ptr(tag),
		Message: gh.Ptr(message),
		Object: &gh.GitObject{
			Type: gh.Ptr("commit"),
			SHA:  gh.Ptr(targetSHA),
		},
	})
	if err != nil {
		return "", r.wrap(err, "create tag "+tag)
	}
	return created.GetSHA(), nil
}

// CreateTagRef implements hosting.Repository.
func (r *Repository) CreateTagRef(ctx context.Context, tag, tagSHA string) error {
	_, _, err := r.client.api.Git.CreateRef(ctx, r.owner, r.name, &gh.Reference{
		Ref:    gh.Ptr("refs/tags/" + tag),
		Object: &gh.GitObject{SHA: gh.Ptr(tagSHA)},
	})
	if err != nil {
		return r.wrap(err, "create tag ref "+tag)
	}
	return nil
}

func (r *Repository) wrap(err error, op string) error {
	return fmt.Errorf("github: %s/%s: %s: %w", r.owner, r.name, op, err)
}
