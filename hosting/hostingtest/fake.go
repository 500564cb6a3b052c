// Package hostingtest provides an in-memory hosting.Client for tests.
package hostingtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/openshift-assisted/versions-management/hosting"
)

// Call records one mutating or probing call on a FakeRepository.
type Call struct {
	Op   string
	Args []string
}

// FakeClient hands out FakeRepository handles by full name. Unknown names fail.
type FakeClient struct {
	mu    sync.Mutex
	repos map[string]*FakeRepository
}

// NewFakeClient returns an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{repos: make(map[string]*FakeRepository)}
}

// Add registers a repository under fullName and returns it for further setup.
func (c *FakeClient) Add(fullName string) *FakeRepository {
	c.mu.Lock()
	defer c.mu.Unlock()

	repo := &FakeRepository{
		Tags:    make(map[string]string),
		Objects: make(map[string]string),
	}
	c.repos[fullName] = repo
	return repo
}

// Repository implements hosting.Client.
func (c *FakeClient) Repository(_ context.Context, fullName string) (hosting.Repository, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	repo, ok := c.repos[fullName]
	if !ok {
		return nil, fmt.Errorf("repository %q not found", fullName)
	}
	return repo, nil
}

// FakeRepository is a scripted hosting.Repository.
//
// Tags maps tag names to tag object SHAs; Objects maps created tag object SHAs to
// their target commit. The *Err fields make the matching operation fail.
type FakeRepository struct {
	mu sync.Mutex

	Releases []hosting.Release
	Commits  []hosting.Commit
	Tags     map[string]string
	Objects  map[string]string

	ListReleasesErr error
	ListCommitsErr  error
	TagExistsErr    error
	CreateTagErr    error
	CreateTagRefErr error

	Calls []Call
}

func (r *FakeRepository) record(op string, args ...string) {
	r.Calls = append(r.Calls, Call{Op: op, Args: args})
}

// CallsTo returns the recorded calls of op.
func (r *FakeRepository) CallsTo(op string) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ListReleases implements hosting.Repository.
func (r *FakeRepository) ListReleases(context.Context) ([]hosting.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record("ListReleases")
	if r.ListReleasesErr != nil {
		return nil, r.ListReleasesErr
	}
	return append([]hosting.Release(nil), r.Releases...), nil
}

// ListCommits implements hosting.Repository.
func (r *FakeRepository) ListCommits(_ context.Context, limit int) ([]hosting.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record("ListCommits", fmt.Sprint(limit))
	if r.ListCommitsErr != nil {
		return nil, r.ListCommitsErr
	}
	commits := r.Commits
	if len(commits) > limit {
		commits = commits[:limit]
	}
	return append([]hosting.Commit(nil), commits...), nil
}

// TagExists implements hosting.Repository.
func (r *FakeRepository) TagExists(_ context.Context, tag string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record("TagExists", tag)
	if r.TagExistsErr != nil {
		return false, r.TagExistsErr
	}
	_, ok := r.Tags[tag]
	return ok, nil
}

// CreateTag implements hosting.Repository. The returned SHA is derived from the tag name.
func (r *FakeRepository) CreateTag(_ context.Context, tag, message, targetSHA string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record("CreateTag", tag, message, targetSHA)
	if r.CreateTagErr != nil {
		return "", r.CreateTagErr
	}
	sha := "tagobj-" + tag
	r.Objects[sha] = targetSHA
	return sha, nil
}

// CreateTagRef implements hosting.Repository.
func (r *FakeRepository) CreateTagRef(_ context.Context, tag, tagSHA string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.record("CreateTagRef", tag, tagSHA)
	if r.CreateTagRefErr != nil {
		return r.CreateTagRefErr
	}
	if _, ok := r.Objects[tagSHA]; !ok {
		return fmt.Errorf("tag object %s not found", tagSHA)
	}
	r.Tags[tag] = tagSHA
	return nil
}

// FakeImages is an in-memory image registry keyed by "image:tag".
type FakeImages struct {
	mu     sync.Mutex
	tags   map[string]bool
	Err    error
	Probes []string
}

// NewFakeImages returns a registry publishing the given "image:tag" references.
func NewFakeImages(refs ...string) *FakeImages {
	f := &FakeImages{tags: make(map[string]bool)}
	for _, ref := range refs {
		f.tags[ref] = true
	}
	return f
}

// Exists reports whether image:tag was published.
func (f *FakeImages) Exists(_ context.Context, image, tag string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ref := image + ":" + tag
	f.Probes = append(f.Probes, ref)
	if f.Err != nil {
		return false, f.Err
	}
	return f.tags[ref], nil
}
