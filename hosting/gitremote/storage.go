package gitremote

import (
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// DefaultStorerCacheSize is the default size of the LRU object cache, in KiB.
const DefaultStorerCacheSize = 16 * 1024

// newMemoryStorage creates bare git storage on an in-memory billy filesystem with an
// LRU object cache.
func newMemoryStorage(cacheSize int) *filesystem.Storage {
	if cacheSize <= 0 {
		cacheSize = DefaultStorerCacheSize
	}

	objCache := cache.NewObjectLRU(cache.FileSize(cacheSize) * cache.KiByte)
	return filesystem.NewStorage(memfs.New(), objCache)
}
