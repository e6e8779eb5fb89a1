package blockcache

import "testing"

func testCacheConfig() CacheConfig {
	return CacheConfig{NumCounters: 1000, MaxCost: 1 << 16, BufferItems: 64}
}

func TestCachedReadThroughAndInvalidate(t *testing.T) {
	under := NewMemory(32, 4)
	c, err := NewCached(under, testCacheConfig())
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	defer c.Close()

	buf := make([]byte, 32)
	copy(buf, []byte("cached payload"))
	if err := c.Write(1, buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, 32)
	if err := c.Read(1, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:14]) != "cached payload" {
		t.Fatalf("got %q", got[:14])
	}

	// Mutate the underlying substrate directly, bypassing the cache, then
	// confirm NotifyDeallocate forces a re-read from the substrate.
	fresh := make([]byte, 32)
	copy(fresh, []byte("after invalidate"))
	if err := under.Write(1, fresh); err != nil {
		t.Fatalf("under.Write: %v", err)
	}

	stale := make([]byte, 32)
	if err := c.Read(1, stale); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(stale[:14]) != "cached payload" {
		t.Fatalf("expected stale cached value before invalidation, got %q", stale[:14])
	}

	c.NotifyDeallocate(1)

	refreshed := make([]byte, 32)
	if err := c.Read(1, refreshed); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(refreshed[:16]) != "after invalidate" {
		t.Fatalf("expected refreshed value after invalidation, got %q", refreshed[:16])
	}
}

func TestCachedDelegatesGeometry(t *testing.T) {
	under := NewMemory(48, 6)
	c, err := NewCached(under, testCacheConfig())
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}
	defer c.Close()

	if c.BlockSize() != 48 || c.NumBlocks() != 6 {
		t.Fatalf("geometry mismatch: %d/%d", c.BlockSize(), c.NumBlocks())
	}
}
