package credcache

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	cacheFileName = "credentials.enc"
	seedFileName  = "session.seed"
	seedLength    = 32
)

// Cache is the session credential cache. It is single-writer: there is
// exactly one control thread during early boot, so no locking is needed.
type Cache struct {
	runDir  string
	log     *slog.Logger
	entries []string
	loaded  bool
}

// Open returns a cache backed by files under runDir. The backing files are
// created lazily on first append.
func Open(runDir string, log *slog.Logger) *Cache {
	return &Cache{runDir: runDir, log: log}
}

func (c *Cache) cachePath() string { return filepath.Join(c.runDir, cacheFileName) }
func (c *Cache) seedPath() string  { return filepath.Join(c.runDir, seedFileName) }

// Append records a passphrase that just unlocked a volume and persists it
// for reuse within this boot session. Persistence failures are absorbed;
// the entry stays usable in memory either way.
func (c *Cache) Append(passphrase string) {
	c.load()
	c.entries = append(c.entries, passphrase)
	if err := c.save(); err != nil {
		c.log.Warn("could not persist credential cache", "err", err)
	}
}

// ForEach tries cached passphrases in insertion order, stopping at the
// first one for which try returns true. It reports whether any matched.
func (c *Cache) ForEach(try func(passphrase string) bool) bool {
	c.load()
	for _, passphrase := range c.entries {
		if try(passphrase) {
			return true
		}
	}
	return false
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.load()
	return len(c.entries)
}

func (c *Cache) load() {
	if c.loaded {
		return
	}
	c.loaded = true

	sealed, err := os.ReadFile(c.cachePath())
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("could not read credential cache", "err", err)
		}
		return
	}

	seed, err := c.readSeed(false)
	if err != nil {
		c.log.Warn("credential cache present but session seed unreadable, discarding", "err", err)
		return
	}

	plaintext, err := openEnvelope(seed, sealed)
	if err != nil {
		c.log.Warn("could not unseal credential cache, discarding", "err", err)
		return
	}

	var entries []string
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		c.log.Warn("malformed credential cache, discarding", "err", err)
		return
	}
	c.entries = entries
}

func (c *Cache) save() error {
	seed, err := c.readSeed(true)
	if err != nil {
		return fmt.Errorf("could not obtain session seed: %w", err)
	}

	plaintext, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("could not encode credential cache: %w", err)
	}

	sealed, err := sealEnvelope(seed, plaintext)
	if err != nil {
		return fmt.Errorf("could not seal credential cache: %w", err)
	}

	if err := os.MkdirAll(c.runDir, 0700); err != nil {
		return fmt.Errorf("could not create run directory: %w", err)
	}
	return os.WriteFile(c.cachePath(), sealed, 0600)
}

// readSeed returns the per-session seed, generating and persisting a fresh
// one when create is set and no valid seed exists yet.
func (c *Cache) readSeed(create bool) ([]byte, error) {
	seed, err := os.ReadFile(c.seedPath())
	if err == nil && len(seed) == seedLength {
		return seed, nil
	}
	if !create {
		if err == nil {
			return nil, fmt.Errorf("session seed has invalid length %d", len(seed))
		}
		return nil, err
	}

	seed = make([]byte, seedLength)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("could not generate session seed: %w", err)
	}
	if err := os.MkdirAll(c.runDir, 0700); err != nil {
		return nil, fmt.Errorf("could not create run directory: %w", err)
	}
	if err := os.WriteFile(c.seedPath(), seed, 0600); err != nil {
		return nil, fmt.Errorf("could not persist session seed: %w", err)
	}
	return seed, nil
}
