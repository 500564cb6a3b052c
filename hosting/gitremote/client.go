// Package gitremote implements hosting.Client against plain git remotes using go-git.
//
// Each repository is cloned bare into memory on first use and kept for the life of
// the client. Releases are derived from tags, newest first by tag or commit time, and
// a tag counts as a prerelease when its name parses as a semantic version with a
// pre-release component. Tag existence is checked against the remote's reference
// advertisement, so it never depends on a stale clone. Tags are created as annotated
// tag objects in the clone and published by pushing refs/tags/<tag>.
package gitremote

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/openshift-assisted/versions-management/hosting"
)

const (
	// DefaultBaseURL is the remote prefix repositories are resolved against.
	DefaultBaseURL = "https://github.com"

	// DefaultRemoteName is the remote name used for operations.
	DefaultRemoteName = "origin"
)

// Signature identifies the tagger of created tags.
type Signature struct {
	Name  string
	Email string
}

// DefaultTagger is used when no tagger is configured.
var DefaultTagger = Signature{Name: "versions-management", Email: "versions-management@users.noreply.github.com"}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the prefix repository URLs are built from: <base>/<org>/<repo>.git.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithAuth sets the authentication provider.
func WithAuth(auth AuthProvider) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithTagger sets the identity recorded on created tags.
func WithTagger(sig Signature) Option {
	return func(c *Client) {
		c.tagger = sig
	}
}

// WithStorerCacheSize sets the object cache size of each clone, in KiB.
func WithStorerCacheSize(size int) Option {
	return func(c *Client) {
		c.cacheSize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClock overrides the time source used for tag timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client is a hosting.Client over git remotes.
type Client struct {
	baseURL   string
	auth      AuthProvider
	tagger    Signature
	cacheSize int
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	repos map[string]*Repository
}

var _ hosting.Client = (*Client)(nil)

// New creates a git remote client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		tagger:    DefaultTagger,
		cacheSize: DefaultStorerCacheSize,
		logger:    slog.Default(),
		now:       time.Now,
		repos:     make(map[string]*Repository),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Repository implements hosting.Client. Handles are cached per full name, so
// concurrent callers share one clone.
//
//nolint:ireturn // returns the hosting.Repository contract.
func (c *Client) Repository(_ context.Context, fullName string) (hosting.Repository, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return nil, WrapErrorf(ErrInvalidRef, "repository %q is not in org/repo form", fullName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.repos[fullName]; ok {
		return r, nil
	}

	r := &Repository{
		client: c,
		url:    c.baseURL + "/" + fullName + ".git",
		logger: c.logger.With("repository", fullName),
	}
	c.repos[fullName] = r
	return r, nil
}

// Repository is a handle on one remote repository.
type Repository struct {
	client *Client
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	repo *git.Repository
}

var _ hosting.Repository = (*Repository)(nil)

// URL returns the remote URL of the repository.
func (r *Repository) URL() string {
	return r.url
}

// ListReleases implements hosting.Repository.
func (r *Repository) ListReleases(ctx context.Context) ([]hosting.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	repo, err := r.open(ctx)
	if err != nil {
		return nil, err
	}

	refs, err := repo.Tags()
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}

	type dated struct {
		release hosting.Release
		when    time.Time
	}

	var releases []dated
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		commit, when, err := peelTag(repo, ref)
		if err != nil {
			r.logger.Debug("skipping tag that does not point at a commit", "tag", ref.Name().Short(), "error", err)
			return nil
		}
		name := ref.Name().Short()
		releases = append(releases, dated{
			release: hosting.Release{
				TagName:    name,
				Prerelease: isPrerelease(name),
				Target:     commit.Hash.String(),
			},
			when: when,
		})
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to iterate tags")
	}

	slices.SortStableFunc(releases, func(a, b dated) int {
		return cmp.Or(b.when.Compare(a.when), strings.Compare(b.release.TagName, a.release.TagName))
	})

	out := make([]hosting.Release, len(releases))
	for i, d := range releases {
		out[i] = d.release
	}
	return out, nil
}

// ListCommits implements hosting.Repository. Commits follow HEAD's history in
// committer time order.
func (r *Repository) ListCommits(ctx context.Context, limit int) ([]hosting.Commit, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	repo, err := r.open(ctx)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, WrapError(err, "failed to resolve HEAD")
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, WrapError(err, "failed to walk history")
	}
	defer iter.Close()

	commits := make([]hosting.Commit, 0, limit)
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, hosting.Commit{SHA: c.Hash.String()})
		if len(commits) == limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, WrapError(err, "failed to walk history")
	}
	return commits, nil
}

// TagExists implements hosting.Repository by listing the remote's references.
func (r *Repository) TagExists(ctx context.Context, tag string) (bool, error) {
	if tag == "" {
		return false, WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	auth, err := r.authMethod()
	if err != nil {
		return false, err
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: DefaultRemoteName,
		URLs: []string{r.url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	if err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return false, nil
		}
		return false, mapTransportError(err, "failed to list remote references")
	}

	want := plumbing.NewTagReferenceName(tag)
	for _, ref := range refs {
		if ref.Name() == want {
			return true, nil
		}
	}
	return false, nil
}

// CreateTag implements hosting.Repository. The tag object and a local reference are
// written to the clone; nothing is sent to the remote until CreateTagRef.
func (r *Repository) CreateTag(ctx context.Context, tag, message, targetSHA string) (string, error) {
	if tag == "" {
		return "", WrapError(ErrInvalidRef, "tag name cannot be empty")
	}
	if !plumbing.IsHash(targetSHA) {
		return "", WrapErrorf(ErrInvalidRef, "target %q is not a commit hash", targetSHA)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	repo, err := r.open(ctx)
	if err != nil {
		return "", err
	}

	target := plumbing.NewHash(targetSHA)
	if _, err := repo.CommitObject(target); err != nil {
		return "", WrapErrorf(ErrResolveFailed, "commit %s not found", targetSHA)
	}

	ref, err := repo.CreateTag(tag, target, &git.CreateTagOptions{
		Tagger: &object.Signature{
			Name:  r.client.tagger.Name,
			Email: r.client.tagger.Email,
			When:  r.client.now(),
		},
		Message: message,
	})
	if err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return "", WrapErrorf(ErrTagExists, "tag %s", tag)
		}
		return "", WrapError(err, "failed to create annotated tag")
	}

	r.logger.Debug("created tag object", "tag", tag, "target", targetSHA, "object", ref.Hash().String())
	return ref.Hash().String(), nil
}

// CreateTagRef implements hosting.Repository by pushing refs/tags/<tag>.
func (r *Repository) CreateTagRef(ctx context.Context, tag, tagSHA string) error {
	if tag == "" {
		return WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	repo, err := r.open(ctx)
	if err != nil {
		return err
	}

	name := plumbing.NewTagReferenceName(tag)
	local, err := repo.Reference(name, false)
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		if !plumbing.IsHash(tagSHA) {
			return WrapErrorf(ErrTagMissing, "tag %s", tag)
		}
		if err := repo.Storer.SetReference(plumbing.NewHashReference(name, plumbing.NewHash(tagSHA))); err != nil {
			return WrapError(err, "failed to set tag reference")
		}
	case err != nil:
		return WrapError(err, "failed to read tag reference")
	case local.Hash().String() != tagSHA:
		return WrapErrorf(ErrInvalidRef, "tag %s points at %s, not %s", tag, local.Hash(), tagSHA)
	}

	auth, err := r.authMethod()
	if err != nil {
		return err
	}

	spec := config.RefSpec(name.String() + ":" + name.String())
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: DefaultRemoteName,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return mapTransportError(err, "failed to push tag "+tag)
	}
	return nil
}

// open returns the clone, cloning on first use. Callers hold r.mu.
func (r *Repository) open(ctx context.Context) (*git.Repository, error) {
	if r.repo != nil {
		return r.repo, nil
	}

	auth, err := r.authMethod()
	if err != nil {
		return nil, err
	}

	repo, err := git.CloneContext(ctx, newMemoryStorage(r.client.cacheSize), nil, &git.CloneOptions{
		URL:        r.url,
		RemoteName: DefaultRemoteName,
		Auth:       auth,
		Tags:       git.AllTags,
	})
	if err != nil {
		return nil, mapTransportError(err, "failed to clone repository")
	}

	r.logger.Debug("cloned repository", "url", r.url)
	r.repo = repo
	return repo, nil
}

func (r *Repository) authMethod() (transport.AuthMethod, error) {
	if r.client.auth == nil {
		return nil, nil
	}
	method, err := r.client.auth.Method(r.url)
	if err != nil {
		return nil, WrapError(err, "failed to get authentication method")
	}
	return method, nil
}

// peelTag resolves a tag reference to its commit and the time the release was made:
// the tagger time for annotated tags, the committer time otherwise.
func peelTag(repo *git.Repository, ref *plumbing.Reference) (*object.Commit, time.Time, error) {
	tagObj, err := repo.TagObject(ref.Hash())
	switch {
	case err == nil:
		commit, err := tagObj.Commit()
		if err != nil {
			return nil, time.Time{}, err
		}
		return commit, tagObj.Tagger.When, nil
	case errors.Is(err, plumbing.ErrObjectNotFound):
		commit, err := repo.CommitObject(ref.Hash())
		if err != nil {
			return nil, time.Time{}, err
		}
		return commit, commit.Committer.When, nil
	default:
		return nil, time.Time{}, err
	}
}

// isPrerelease reports whether a tag name is a semantic version with a pre-release part.
// Names that are not semantic versions are treated as full releases.
func isPrerelease(tag string) bool {
	v, err := semver.NewVersion(tag)
	if err != nil {
		return false
	}
	return v.Prerelease() != ""
}

func mapTransportError(err error, msg string) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return WrapError(ErrAuthRequired, msg)
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return fmt.Errorf("%s: repository not found: %w", msg, err)
	default:
		return WrapError(err, msg)
	}
}
