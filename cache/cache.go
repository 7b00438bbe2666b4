/*
Package cache stores computed deal analyses keyed by their inputs.

PURPOSE:
  Calculators are pure, so identical inputs always give identical results.
  The API caches the encoded result under a hash of the deal type and the
  canonical inputs JSON and skips the calculation on a hit.

BACKENDS:
  Memory: process-local map with per-entry expiry (default, tests)
  Redis:  shared across API replicas, expiry delegated to Redis

SEE ALSO:
  - api/handlers.go: analyze endpoints read and fill the cache
*/
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dealforge/deal-engine/deals"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-value store with expiry. A zero ttl means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "dealforge:analysis:"

// Key derives the cache key for a deal type and its canonical inputs JSON.
func Key(t deals.DealType, inputsJSON []byte) string {
	h := sha256.New()
	h.Write([]byte(t))
	h.Write([]byte{0})
	h.Write(inputsJSON)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
