package credcache

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForEachInsertionOrder(t *testing.T) {
	c := Open(t.TempDir(), testLogger())
	c.Append("first")
	c.Append("second")
	c.Append("third")

	var tried []string
	matched := c.ForEach(func(pw string) bool {
		tried = append(tried, pw)
		return pw == "second"
	})

	assert.True(t, matched)
	assert.Equal(t, []string{"first", "second"}, tried, "must stop at first success")
}

func TestForEachNoMatch(t *testing.T) {
	c := Open(t.TempDir(), testLogger())
	c.Append("alpha")
	c.Append("alpha") // duplicates are allowed

	var tried int
	matched := c.ForEach(func(string) bool {
		tried++
		return false
	})

	assert.False(t, matched)
	assert.Equal(t, 2, tried)
}

func TestForEachEmptyCache(t *testing.T) {
	c := Open(t.TempDir(), testLogger())
	matched := c.ForEach(func(string) bool {
		t.Fatal("try must not be called for an empty cache")
		return false
	})
	assert.False(t, matched)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	c := Open(dir, testLogger())
	c.Append("one")
	c.Append("two")

	// Simulates the boot script restarting within the same session.
	reopened := Open(dir, testLogger())
	var got []string
	reopened.ForEach(func(pw string) bool {
		got = append(got, pw)
		return false
	})
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestBackingFileHoldsNoPlaintext(t *testing.T) {
	dir := t.TempDir()
	secret := "hunter2-very-secret-passphrase"

	c := Open(dir, testLogger())
	c.Append(secret)

	sealed, err := os.ReadFile(filepath.Join(dir, cacheFileName))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(sealed), secret))
}

func TestEraseDestroysBackingStorage(t *testing.T) {
	dir := t.TempDir()

	c := Open(dir, testLogger())
	c.Append("secret")
	c.Erase(3)

	_, err := os.Stat(filepath.Join(dir, cacheFileName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, seedFileName))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, c.Len())

	reopened := Open(dir, testLogger())
	assert.Equal(t, 0, reopened.Len())
}

func TestEraseInvalidIterationCount(t *testing.T) {
	dir := t.TempDir()

	c := Open(dir, testLogger())
	c.Append("secret")
	c.Erase(-5)

	_, err := os.Stat(filepath.Join(dir, cacheFileName))
	assert.True(t, os.IsNotExist(err), "erase must destroy storage regardless of iteration count validity")
}

func TestEraseWithoutBackingFiles(t *testing.T) {
	c := Open(t.TempDir(), testLogger())
	c.Erase(10) // must not panic or create anything
	assert.Equal(t, 0, c.Len())
}

func TestCacheRecreatedAfterErase(t *testing.T) {
	dir := t.TempDir()

	c := Open(dir, testLogger())
	c.Append("before")
	c.Erase(1)
	c.Append("after")

	reopened := Open(dir, testLogger())
	var got []string
	reopened.ForEach(func(pw string) bool {
		got = append(got, pw)
		return false
	})
	assert.Equal(t, []string{"after"}, got)
}
