// Package blockcache provides the block-addressable storage substrate that
// the btree package consumes as a collaborator, treated as external and
// specified only by the interface below; the concrete implementations in
// this package (Memory, File, Cached) exist so the engine has something to
// run against in tests, benchmarks, and the cmd/ tools, not because the
// B-tree's invariants depend on any one of them.
package blockcache

import "errors"

// ErrOutOfRange is returned by Read/Write when the block number is not a
// valid index into the substrate.
var ErrOutOfRange = errors.New("blockcache: block number out of range")

// Cache is the block cache collaborator interface: a pinning/flushing
// layer exposing read, write, and advisory allocation notifications over
// a fixed-size, fixed-count array of blocks.
type Cache interface {
	// BlockSize returns the fixed size in bytes of every block.
	BlockSize() int
	// NumBlocks returns the total number of addressable blocks.
	NumBlocks() int
	// Read fills buf (which must be exactly BlockSize() long) with the
	// contents of block. Fails with ErrOutOfRange on a bad block number
	// or an I/O-specific error on substrate failure.
	Read(block uint64, buf []byte) error
	// Write stores buf (which must be exactly BlockSize() long) as the
	// contents of block. Writes are always whole-block.
	Write(block uint64, buf []byte) error
	// NotifyAllocate is an advisory callback issued after a block has
	// been handed out by the allocator.
	NotifyAllocate(block uint64)
	// NotifyDeallocate is an advisory callback issued after a block has
	// been returned to the free list.
	NotifyDeallocate(block uint64)
}
