// Package hosting defines the code-hosting contract the resolver and the tag
// reconciliation engine consume.
//
// Two backends implement it: hosting/github talks to the GitHub REST API and
// hosting/gitremote works against any git remote through go-git.
package hosting

import (
	"context"
	"net/url"
	"strings"
)

// Release is a published release of a repository.
type Release struct {
	// TagName is the tag the release was published from.
	TagName string

	// Prerelease marks releases that are not meant for general consumption.
	Prerelease bool

	// Target is the commit or branch the release tag points at, when known.
	Target string
}

// Commit is a commit on the repository's default branch.
type Commit struct {
	SHA string
}

// Client hands out repository handles.
type Client interface {
	// Repository returns a handle for fullName in "org/repo" form.
	Repository(ctx context.Context, fullName string) (Repository, error)
}

// Repository is a handle on one hosted repository.
type Repository interface {
	// ListReleases returns releases newest first.
	ListReleases(ctx context.Context) ([]Release, error)

	// ListCommits returns at most limit commits of the default branch, newest first.
	ListCommits(ctx context.Context, limit int) ([]Commit, error)

	// TagExists reports whether refs/tags/<tag> exists. A missing tag is not an error.
	TagExists(ctx context.Context, tag string) (bool, error)

	// CreateTag creates an annotated tag object pointing at the commit targetSHA and
	// returns the tag object's SHA. It does not create the tag reference.
	CreateTag(ctx context.Context, tag, message, targetSHA string) (string, error)

	// CreateTagRef creates refs/tags/<tag> pointing at the tag object tagSHA.
	CreateTagRef(ctx context.Context, tag, tagSHA string) error
}

// FullName derives the "org/repo" form of a repository URL.
//
// The scheme, host and any ".git" suffix are dropped, and path segments beyond the
// second are ignored, so "https://github.com/org/repo/extra" becomes "org/repo".
// scp-like URLs ("git@github.com:org/repo.git"), URLs without a scheme
// ("github.com/org/repo") and bare "org/repo" names are accepted. A leading segment
// containing a dot or a colon is taken for a host.
func FullName(repositoryURL string) string {
	path := strings.TrimSpace(repositoryURL)

	switch {
	case strings.Contains(path, "://"):
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		} else {
			path = path[strings.Index(path, "://")+3:]
			if i := strings.Index(path, "/"); i >= 0 {
				path = path[i:]
			}
		}
	case strings.Contains(path, "@") && strings.Contains(path, ":"):
		path = path[strings.Index(path, ":")+1:]
	}

	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) > 2 && strings.ContainsAny(segments[0], ".:") {
		segments = segments[1:]
	}
	if len(segments) > 2 {
		segments = segments[:2]
	}
	if n := len(segments); n > 0 {
		segments[n-1] = strings.TrimSuffix(segments[n-1], ".git")
	}
	return strings.Join(segments, "/")
}
