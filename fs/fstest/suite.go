// Package fstest provides a conformance test suite for fs.Filesystem backends.
//
// Example usage:
//
//	func TestMyProvider(t *testing.T) {
//	    fstest.TestSuite(t, func() fs.Filesystem {
//	        return myprovider.New()
//	    })
//	}
package fstest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/openshift-assisted/versions-management/fs"
)

// TestSuite runs all conformance tests against a filesystem.
// The newFS function should return a fresh, empty filesystem for each test.
func TestSuite(t *testing.T, newFS func() fs.Filesystem) {
	t.Run("ExistsNotExist", func(t *testing.T) {
		testExistsNotExist(t, newFS())
	})
	t.Run("WriteRead", func(t *testing.T) {
		testWriteRead(t, newFS())
	})
	t.Run("Overwrite", func(t *testing.T) {
		testOverwrite(t, newFS())
	})
	t.Run("NestedPath", func(t *testing.T) {
		testNestedPath(t, newFS())
	})
	t.Run("ReadNotExist", func(t *testing.T) {
		testReadNotExist(t, newFS())
	})
}

func testExistsNotExist(t *testing.T, filesystem fs.Filesystem) {
	ok, err := filesystem.Exists("missing.yaml")
	if err != nil {
		t.Fatalf("Exists(%q): got error %v, want nil", "missing.yaml", err)
	}
	if ok {
		t.Errorf("Exists(%q) = true, want false", "missing.yaml")
	}
}

func testWriteRead(t *testing.T, filesystem fs.Filesystem) {
	want := []byte("snapshots: []\n")

	if err := filesystem.WriteFile("doc.yaml", want, 0o644); err != nil {
		t.Fatalf("WriteFile(%q): got error %v, want nil", "doc.yaml", err)
	}

	ok, err := filesystem.Exists("doc.yaml")
	if err != nil || !ok {
		t.Fatalf("Exists(%q) = %v, %v; want true, nil", "doc.yaml", ok, err)
	}

	got, err := filesystem.ReadFile("doc.yaml")
	if err != nil {
		t.Fatalf("ReadFile(%q): got error %v, want nil", "doc.yaml", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadFile(%q): got %q, want %q", "doc.yaml", got, want)
	}
}

func testOverwrite(t *testing.T, filesystem fs.Filesystem) {
	if err := filesystem.WriteFile("doc.yaml", []byte("a much longer first version\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := filesystem.WriteFile("doc.yaml", []byte("short\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := filesystem.ReadFile("doc.yaml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "short\n" {
		t.Errorf("ReadFile after overwrite: got %q, want %q", got, "short\n")
	}
}

func testNestedPath(t *testing.T, filesystem fs.Filesystem) {
	if err := filesystem.WriteFile("hack/versions/doc.yaml", []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile(nested): got error %v, want nil", err)
	}
	got, err := filesystem.ReadFile("hack/versions/doc.yaml")
	if err != nil {
		t.Fatalf("ReadFile(nested): got error %v, want nil", err)
	}
	if string(got) != "x" {
		t.Errorf("ReadFile(nested): got %q, want %q", got, "x")
	}
}

func testReadNotExist(t *testing.T, filesystem fs.Filesystem) {
	_, err := filesystem.ReadFile("missing.yaml")
	if err == nil {
		t.Fatalf("ReadFile(%q): got nil error, want not-exist", "missing.yaml")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile(%q): got %v, want error wrapping fs.ErrNotExist", "missing.yaml", err)
	}
}
