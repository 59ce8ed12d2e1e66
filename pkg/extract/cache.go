package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Cache stores raw oracle responses keyed by content hash so that
// re-ingesting unchanged text (notably the commit pass of a reingest)
// is served locally instead of paying a second oracle round trip.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenCache opens (or creates) a badger-backed response cache at path.
func OpenCache(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening extraction cache at %s: %w", path, err)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached response for the text/context pair, if any.
func (c *Cache) Get(text, contextNote string) (string, bool) {
	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(text, contextNote))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			value = string(v)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return value, true
}

// Put records a response. Failures are logged and ignored; the cache
// is an optimization, not a source of truth.
func (c *Cache) Put(text, contextNote, response string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(text, contextNote), []byte(response))
	})
	if err != nil {
		c.logger.Warn("failed to cache oracle response", "error", err)
	}
}

func cacheKey(text, contextNote string) []byte {
	sum := sha256.Sum256([]byte(text + "\x00" + contextNote))
	return []byte("extract:" + hex.EncodeToString(sum[:]))
}

// cachedResponse consults the cache when one is configured.
func (e *Extractor) cachedResponse(text, contextNote string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	raw, ok := e.cache.Get(text, contextNote)
	if ok {
		e.logger.Debug("extraction served from cache")
	}
	return raw, ok
}

func (e *Extractor) storeResponse(text, contextNote, response string) {
	if e.cache == nil {
		return
	}
	e.cache.Put(text, contextNote, response)
}
