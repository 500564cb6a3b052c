// Package minio implements fs.Filesystem on top of S3-compatible object storage.
//
// Every file is a single object; paths map to object keys under an optional prefix.
// Reads download the whole object and writes upload it in one PutObject call, which
// matches the whole-document semantics the stores rely on.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	parentfs "github.com/openshift-assisted/versions-management/fs"
)

// DefaultTimeout bounds each object operation.
const DefaultTimeout = 30 * time.Second

// MinioFS stores files as objects in a single bucket.
type MinioFS struct {
	client  *minio.Client
	bucket  string
	prefix  string
	timeout time.Duration
}

var _ parentfs.Filesystem = (*MinioFS)(nil)

// Option configures a MinioFS.
type Option func(*MinioFS)

// WithPrefix stores every object under prefix.
func WithPrefix(prefix string) Option {
	return func(m *MinioFS) {
		m.prefix = strings.Trim(prefix, "/")
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *MinioFS) {
		m.timeout = d
	}
}

// Config holds the connection settings for New.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// New connects to the object store described by cfg.
func New(cfg Config, opts ...Option) (*MinioFS, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio: endpoint and bucket are required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client for %q: %w", cfg.Endpoint, err)
	}

	return NewWithClient(client, cfg.Bucket, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *minio.Client, bucket string, opts ...Option) *MinioFS {
	m := &MinioFS{
		client:  client,
		bucket:  bucket,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *MinioFS) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("minio: bucket exists %q: %w", m.bucket, translateError(err))
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio: make bucket %q: %w", m.bucket, translateError(err))
	}
	return nil
}

// Exists implements Filesystem.Exists.
func (m *MinioFS) Exists(name string) (bool, error) {
	ctx, cancel := m.context()
	defer cancel()

	_, err := m.client.StatObject(ctx, m.bucket, m.key(name), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if err = translateError(err); errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("minio: stat %q: %w", name, err)
}

// ReadFile implements Filesystem.ReadFile.
func (m *MinioFS) ReadFile(name string) ([]byte, error) {
	ctx, cancel := m.context()
	defer cancel()

	obj, err := m.client.GetObject(ctx, m.bucket, m.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio: readfile %q: %w", name, translateError(err))
	}
	defer func() {
		_ = obj.Close()
	}()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("minio: readfile %q: %w", name, translateError(err))
	}
	return data, nil
}

// WriteFile implements Filesystem.WriteFile. The permission bits are ignored.
func (m *MinioFS) WriteFile(name string, data []byte, _ os.FileMode) error {
	ctx, cancel := m.context()
	defer cancel()

	_, err := m.client.PutObject(
		ctx,
		m.bucket,
		m.key(name),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType(name, data),
		},
	)
	if err != nil {
		return fmt.Errorf("minio: writefile %q: %w", name, translateError(err))
	}
	return nil
}

func (m *MinioFS) context() (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), m.timeout)
}

// key maps a file path to its object key.
func (m *MinioFS) key(name string) string {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if m.prefix == "" {
		return clean
	}
	return m.prefix + "/" + clean
}

// contentType sniffs data and falls back to the file extension when the content is
// only recognised as plain text or binary.
func contentType(name string, data []byte) string {
	mt := mimetype.Detect(data)
	if !mt.Is("text/plain") && !mt.Is("application/octet-stream") {
		return mt.String()
	}

	switch path.Ext(name) {
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return mt.String()
	}
}

// translateError maps S3 error responses onto io/fs sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", iofs.ErrNotExist, err)
	case resp.Code == "AccessDenied" || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", iofs.ErrPermission, err)
	default:
		return err
	}
}
