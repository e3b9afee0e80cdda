package credcache

import (
	"crypto/rand"
	"io"
	"os"

	"github.com/cryptboot/bootunlock/interfaces"
)

// Erase overwrites the cache's backing files the given number of times
// with random bytes and removes them, then forgets all in-memory entries.
// An invalid iteration count falls back to the default; the files are
// destroyed regardless. Erase never reports failure to the caller so that
// boot-sequence progress is not blocked by a non-critical cleanup step; an
// empty cache is recreated lazily on next use.
func (c *Cache) Erase(iterations int) {
	if iterations < 1 {
		iterations = interfaces.DefaultEraseIterations
	}

	for _, path := range []string{c.cachePath(), c.seedPath()} {
		if err := overwriteAndRemove(path, iterations); err != nil && !os.IsNotExist(err) {
			c.log.Warn("could not fully erase cache file", "path", path, "err", err)
		}
	}

	c.entries = nil
	c.loaded = false
}

func overwriteAndRemove(path string, iterations int) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		// Still try to unlink; leaving the file behind is worse.
		return os.Remove(path)
	}

	junk := make([]byte, info.Size())
	for i := 0; i < iterations; i++ {
		if _, err := io.ReadFull(rand.Reader, junk); err != nil {
			break
		}
		if _, err := f.WriteAt(junk, 0); err != nil {
			break
		}
		f.Sync()
	}
	f.Close()

	return os.Remove(path)
}
