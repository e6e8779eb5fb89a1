package btree

import (
	"testing"

	"blocktree/blockcache"
)

func TestAllocateDeallocateLIFO(t *testing.T) {
	bt, _ := newTestTree(t)

	priorHead := bt.superblock.FreeListHead

	b1, err := bt.allocate()
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if b1 != priorHead {
		t.Fatalf("allocate() = %d, want old free list head %d", b1, priorHead)
	}
	headAfterAllocate := bt.superblock.FreeListHead

	// deallocate rejects a block that still reads as Unallocated, so give
	// the allocated block real contents first, as the engine always does.
	if err := Serialize(newLeaf(testKeySize, testValueSize, testBlockSize), bt.cache, b1); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if err := bt.deallocate(b1); err != nil {
		t.Fatalf("deallocate: %v", err)
	}
	if bt.superblock.FreeListHead != b1 {
		t.Fatalf("free list head after deallocate = %d, want %d", bt.superblock.FreeListHead, b1)
	}

	b2, err := bt.allocate()
	if err != nil {
		t.Fatalf("allocate after deallocate: %v", err)
	}
	if b2 != b1 {
		t.Fatalf("allocate() after deallocate = %d, want %d (LIFO)", b2, b1)
	}
	if bt.superblock.FreeListHead != headAfterAllocate {
		t.Fatalf("free list head not restored to %d, got %d", headAfterAllocate, bt.superblock.FreeListHead)
	}
}

func TestAllocateExhaustionReturnsNoSpace(t *testing.T) {
	cache := blockcache.NewMemory(testBlockSize, 2)
	bt, err := New(testKeySize, testValueSize, cache)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := bt.Attach(0, true); err != nil {
		t.Fatalf("Attach(create): %v", err)
	}

	if _, err := bt.allocate(); !isCode(err, NoSpace) {
		t.Fatalf("allocate on a 2-block index = %v, want NoSpace", err)
	}
}
