package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openshift-assisted/versions-management/discovery"
	"github.com/openshift-assisted/versions-management/fs"
	"github.com/openshift-assisted/versions-management/fs/billy"
	"github.com/openshift-assisted/versions-management/fs/minio"
	"github.com/openshift-assisted/versions-management/hosting"
	"github.com/openshift-assisted/versions-management/hosting/github"
	"github.com/openshift-assisted/versions-management/hosting/gitremote"
	"github.com/openshift-assisted/versions-management/internal/envconf"
	"github.com/openshift-assisted/versions-management/reconcile"
	"github.com/openshift-assisted/versions-management/registry"
	"github.com/openshift-assisted/versions-management/resolver"
	"github.com/openshift-assisted/versions-management/testrun"
)

// config is the process configuration read from the environment.
type config struct {
	SnapshotsFile  string
	ComponentsFile string
	VersionsFile   string

	Playbook  string
	Inventory string

	GovernedPrefix string
	Width          int
	CommitLookback int

	GitHubToken  string
	GitHubAPIURL string
	GitBaseURL   string

	GitHubAppID             int64
	GitHubAppInstallationID int64
	GitHubAppPrivateKey     string

	GitTaggerName  string
	GitTaggerEmail string
	GitCacheSize   int

	RegistryHost      string
	RegistryUsername  string
	RegistryPassword  string
	RegistryPlainHTTP bool

	S3        minio.Config
	S3Prefix  string
	S3Timeout time.Duration
}

func loadConfig() (*config, error) {
	cfg := &config{
		SnapshotsFile:  envconf.String("RELEASE_CANDIDATES_FILE", "release-candidates.yaml"),
		ComponentsFile: envconf.String("COMPONENTS_FILE", "components.yaml"),
		VersionsFile:   envconf.String("VERSIONS_FILE", "versions.yaml"),

		Playbook:  envconf.String("ANSIBLE_PLAYBOOK", testrun.DefaultPlaybook),
		Inventory: envconf.String("ANSIBLE_INVENTORY", testrun.DefaultInventory),

		GovernedPrefix: envconf.String("GOVERNED_PREFIX", reconcile.DefaultGovernedPrefix),

		GitHubToken:  envconf.String("GITHUB_TOKEN", ""),
		GitHubAPIURL: envconf.String("GITHUB_API_URL", ""),
		GitBaseURL:   envconf.String("GIT_BASE_URL", gitremote.DefaultBaseURL),

		GitHubAppPrivateKey: envconf.String("GITHUB_APP_PRIVATE_KEY", ""),

		GitTaggerName:  envconf.String("GIT_TAGGER_NAME", gitremote.DefaultTagger.Name),
		GitTaggerEmail: envconf.String("GIT_TAGGER_EMAIL", gitremote.DefaultTagger.Email),

		RegistryHost:     envconf.String("REGISTRY_HOST", "quay.io"),
		RegistryUsername: envconf.String("REGISTRY_USERNAME", ""),
		RegistryPassword: envconf.String("REGISTRY_PASSWORD", ""),

		S3: minio.Config{
			Endpoint:  envconf.String("S3_ENDPOINT", "s3.amazonaws.com"),
			Bucket:    envconf.String("S3_BUCKET", ""),
			AccessKey: envconf.String("S3_ACCESS_KEY", ""),
			SecretKey: envconf.String("S3_SECRET_KEY", ""),
			Region:    envconf.String("S3_REGION", ""),
		},
		S3Prefix: envconf.String("S3_PREFIX", ""),
	}

	var err error
	if cfg.Width, err = envconf.Int("DISCOVERY_WIDTH", discovery.DefaultWidth); err != nil {
		return nil, err
	}
	if cfg.CommitLookback, err = envconf.Int("COMMIT_LOOKBACK", resolver.DefaultCommitLookback); err != nil {
		return nil, err
	}
	if cfg.GitCacheSize, err = envconf.Int("GIT_OBJECT_CACHE_KIB", gitremote.DefaultStorerCacheSize); err != nil {
		return nil, err
	}
	if cfg.GitHubAppID, err = envconf.Int64("GITHUB_APP_ID", 0); err != nil {
		return nil, err
	}
	if cfg.GitHubAppInstallationID, err = envconf.Int64("GITHUB_APP_INSTALLATION_ID", 0); err != nil {
		return nil, err
	}
	if cfg.RegistryPlainHTTP, err = envconf.Bool("REGISTRY_PLAIN_HTTP", false); err != nil {
		return nil, err
	}
	if cfg.S3.UseSSL, err = envconf.Bool("S3_USE_SSL", true); err != nil {
		return nil, err
	}
	if cfg.S3Timeout, err = envconf.Duration("S3_TIMEOUT", minio.DefaultTimeout); err != nil {
		return nil, err
	}

	return cfg, nil
}

// usesGitHubApp reports whether GitHub App credentials replace GITHUB_TOKEN.
func (c *config) usesGitHubApp() bool {
	return c.GitHubAppID != 0 || c.GitHubAppInstallationID != 0 || c.GitHubAppPrivateKey != ""
}

// environment builds the collaborators of the commands. Tests replace the factories.
type environment struct {
	cfg    *config
	logger *slog.Logger

	newFilesystem func(ctx context.Context) (fs.Filesystem, error)
	newHosting    func(ctx context.Context, backend string) (hosting.Client, error)
	newImages     func() resolver.ImageChecker
	newRunner     func() testrun.Runner
}

func newEnvironment(cfg *config, logger *slog.Logger) *environment {
	e := &environment{cfg: cfg, logger: logger}
	e.newFilesystem = e.filesystem
	e.newHosting = e.hosting
	e.newImages = e.images
	e.newRunner = e.runner
	return e
}

// filesystem returns the bucket when S3_BUCKET is set and the working directory otherwise.
func (e *environment) filesystem(ctx context.Context) (fs.Filesystem, error) {
	if e.cfg.S3.Bucket == "" {
		return billy.NewBaseOSFS(), nil
	}

	bucket, err := minio.New(e.cfg.S3, minio.WithPrefix(e.cfg.S3Prefix), minio.WithTimeout(e.cfg.S3Timeout))
	if err != nil {
		return nil, err
	}
	if err := bucket.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	e.logger.Debug("using object storage", "endpoint", e.cfg.S3.Endpoint, "bucket", e.cfg.S3.Bucket)
	return bucket, nil
}

func (e *environment) hosting(ctx context.Context, backend string) (hosting.Client, error) {
	switch backend {
	case "github":
		opts := []github.Option{
			github.WithToken(e.cfg.GitHubToken),
			github.WithLogger(e.logger),
		}
		if e.cfg.GitHubAPIURL != "" {
			opts = append(opts, github.WithBaseURL(e.cfg.GitHubAPIURL))
		}
		if e.cfg.usesGitHubApp() {
			opts = append(opts, github.WithAppCredentials(
				e.cfg.GitHubAppID, e.cfg.GitHubAppInstallationID, []byte(e.cfg.GitHubAppPrivateKey)))
		}
		client, err := github.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "git":
		opts := []gitremote.Option{
			gitremote.WithBaseURL(e.cfg.GitBaseURL),
			gitremote.WithLogger(e.logger),
			gitremote.WithTagger(gitremote.Signature{Name: e.cfg.GitTaggerName, Email: e.cfg.GitTaggerEmail}),
			gitremote.WithStorerCacheSize(e.cfg.GitCacheSize),
		}
		token := e.cfg.GitHubToken
		if e.cfg.usesGitHubApp() {
			src, err := github.NewAppTokenSource(ctx, e.cfg.GitHubAppID, e.cfg.GitHubAppInstallationID,
				[]byte(e.cfg.GitHubAppPrivateKey), e.cfg.GitHubAPIURL, nil)
			if err != nil {
				return nil, err
			}
			tok, err := src.Token()
			if err != nil {
				return nil, err
			}
			token = tok.AccessToken
		}
		if token != "" {
			opts = append(opts, gitremote.WithAuth(gitremote.NewHTTPSTokenProvider(token)))
		}
		return gitremote.New(opts...), nil
	default:
		return nil, fmt.Errorf("unknown hosting backend %q", backend)
	}
}

func (e *environment) images() resolver.ImageChecker {
	opts := []registry.Option{
		registry.WithPlainHTTP(e.cfg.RegistryPlainHTTP),
		registry.WithLogger(e.logger),
	}
	if e.cfg.RegistryUsername != "" {
		opts = append(opts, registry.WithCredentials(e.cfg.RegistryHost, e.cfg.RegistryUsername, e.cfg.RegistryPassword))
	}
	return registry.New(opts...)
}

func (e *environment) runner() testrun.Runner {
	return testrun.NewAnsibleRunner(testrun.WithRunnerLogger(e.logger))
}
