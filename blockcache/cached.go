package blockcache

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

// CacheConfig tunes the ristretto admission policy sitting in front of a
// Cache. Mirrors the three knobs the teacher's own go.mod pulled in
// ristretto for but never used; config.CacheTuning supplies sane
// defaults for these at module load time.
type CacheConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

// Cached wraps an underlying Cache with a bounded, concurrent read-through
// cache, grounded on the teacher's BufferPool (load-on-miss, evict-on-
// pressure) but delegating eviction to ristretto's admission policy
// instead of a hand-rolled LRU list. Writes always go to the underlying
// Cache synchronously and update the cache entry; NotifyAllocate/
// NotifyDeallocate evict the corresponding entry so a reused block number
// is never served stale bytes from before it was freed.
type Cached struct {
	under     Cache
	cache     *ristretto.Cache[uint64, []byte]
	blockSize int
}

// NewCached wraps under with a ristretto-backed read cache configured per
// cfg. Each cached block's cost is its byte length, so MaxCost bounds
// total cached bytes rather than entry count.
func NewCached(under Cache, cfg CacheConfig) (*Cached, error) {
	rc, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("blockcache: create ristretto cache: %w", err)
	}
	return &Cached{under: under, cache: rc, blockSize: under.BlockSize()}, nil
}

func (c *Cached) BlockSize() int { return c.under.BlockSize() }
func (c *Cached) NumBlocks() int { return c.under.NumBlocks() }

func (c *Cached) Read(block uint64, buf []byte) error {
	if cached, ok := c.cache.Get(block); ok {
		if len(cached) != len(buf) {
			return fmt.Errorf("blockcache: cached block %d size mismatch", block)
		}
		copy(buf, cached)
		return nil
	}

	if err := c.under.Read(block, buf); err != nil {
		return err
	}

	stored := make([]byte, len(buf))
	copy(stored, buf)
	c.cache.Set(block, stored, int64(len(stored)))
	c.cache.Wait()
	return nil
}

func (c *Cached) Write(block uint64, buf []byte) error {
	if err := c.under.Write(block, buf); err != nil {
		return err
	}
	stored := make([]byte, len(buf))
	copy(stored, buf)
	c.cache.Set(block, stored, int64(len(stored)))
	c.cache.Wait()
	return nil
}

func (c *Cached) NotifyAllocate(block uint64) {
	c.cache.Del(block)
	c.under.NotifyAllocate(block)
}

func (c *Cached) NotifyDeallocate(block uint64) {
	c.cache.Del(block)
	c.under.NotifyDeallocate(block)
}

// Close waits for pending ristretto buffer operations to drain and closes
// the underlying Cache if it supports it.
func (c *Cached) Close() error {
	c.cache.Close()
	if closer, ok := c.under.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
