package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/preciz/chunx"
)

// Cache stores chunking results keyed by a request fingerprint, so repeated
// requests for the same text and settings skip tokenization and embedding.
type Cache interface {
	// GetChunks retrieves a cached result by key. Returns nil on a miss.
	GetChunks(ctx context.Context, key string) ([]chunx.Chunk, error)

	// SetChunks stores a result with TTL.
	SetChunks(ctx context.Context, key string, chunks []chunx.Chunk, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// Key fingerprints a chunking request from its strategy, settings and source
// text.
func Key(strategy chunx.Strategy, cfg chunx.Config, text string) string {
	h := sha256.New()
	_ = json.NewEncoder(h).Encode(struct {
		Strategy chunx.Strategy `json:"strategy"`
		Config   chunx.Config   `json:"config"`
	}{strategy, cfg})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
