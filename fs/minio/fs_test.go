package minio

import (
	"errors"
	iofs "io/fs"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		path   string
		want   string
	}{
		{name: "no prefix", path: "release-candidates.yaml", want: "release-candidates.yaml"},
		{name: "leading slash", path: "/hack/versions.yaml", want: "hack/versions.yaml"},
		{name: "prefix", prefix: "/ci/", path: "versions.yaml", want: "ci/versions.yaml"},
		{name: "dot segments", prefix: "ci", path: "./a/../versions.yaml", want: "ci/versions.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWithClient(nil, "bucket", WithPrefix(tt.prefix))
			assert.Equal(t, tt.want, m.key(tt.path))
		})
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "no such key",
			err:  minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound},
			want: iofs.ErrNotExist,
		},
		{
			name: "head not found",
			err:  minio.ErrorResponse{StatusCode: http.StatusNotFound},
			want: iofs.ErrNotExist,
		},
		{
			name: "access denied",
			err:  minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden},
			want: iofs.ErrPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(translateError(tt.err), tt.want))
		})
	}

	var resp minio.ErrorResponse
	assert.True(t, errors.As(translateError(minio.ErrorResponse{Code: "NoSuchKey", Message: "gone"}), &resp))
	assert.Equal(t, "gone", resp.Message)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateError(other))
	assert.NoError(t, translateError(nil))
}

func TestContentType(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{name: "yaml by extension", file: "versions.yaml", data: []byte("versions: []\n"), want: "application/yaml"},
		{name: "sniffed json", file: "versions.yaml", data: []byte(`{"versions": []}`), want: "application/json"},
		{name: "plain text", file: "notes", data: []byte("hello\n"), want: "text/plain; charset=utf-8"},
		{name: "binary", file: "blob", data: []byte{0x00, 0x01, 0x02}, want: "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentType(tt.file, tt.data))
		})
	}
}
