// Package btree implements a persistent, block-backed B-tree index that
// maps fixed-width keys to fixed-width values over a blockcache.Cache
// substrate: the node codec, the free-list block allocator, and the
// index engine's attach/detach/lookup/insert/update/display/sanity-check
// operations.
package btree

import (
	"blocktree/blockcache"

	"github.com/google/uuid"
)

// BTree is the index engine. One BTree instance owns one superblock
// (block 0) and one root block (block 1, whose block number never
// changes even across root splits) for the lifetime of an Attach/Detach
// pair.
type BTree struct {
	cache     blockcache.Cache
	keySize   int
	valueSize int
	blockSize int
	numBlocks int

	// instanceID has no on-disk meaning; it is purely a diagnostic
	// handle so multiple attached indexes in the same process can be
	// told apart in logs. See InstanceID.
	instanceID uuid.UUID

	superblock *Node
}

// New constructs a BTree over cache with the given fixed key and value
// widths. Geometry is validated against cache's block size: the index
// refuses to operate if a single block cannot hold at least one leaf
// entry and at least one interior key, since no split could ever make
// progress otherwise.
//
// A "unique" construction flag was considered and intentionally
// dropped rather than threaded through and ignored: uniqueness is
// unconditionally enforced by Insert, so there is nothing for the flag
// to toggle. See DESIGN.md's Open Question decisions.
func New(keySize, valueSize int, cache blockcache.Cache) (*BTree, error) {
	if keySize <= 0 || valueSize <= 0 {
		return nil, newErr(BadConfig, "key size and value size must be positive")
	}
	blockSize := cache.BlockSize()
	numBlocks := cache.NumBlocks()

	if leafCapacity(keySize, valueSize, blockSize) < 1 {
		return nil, newErr(BadConfig, "block size too small to hold a single leaf entry")
	}
	if interiorCapacity(keySize, blockSize) < 1 {
		return nil, newErr(BadConfig, "block size too small to hold a single interior key")
	}
	if numBlocks < 2 {
		return nil, newErr(BadConfig, "need at least 2 blocks (superblock + root)")
	}

	return &BTree{
		cache:      cache,
		keySize:    keySize,
		valueSize:  valueSize,
		blockSize:  blockSize,
		numBlocks:  numBlocks,
		instanceID: uuid.New(),
	}, nil
}

// Attach initializes (create=true) or reopens (create=false) the index.
// initBlock must be 0: the superblock always lives at block 0.
func (bt *BTree) Attach(initBlock uint64, create bool) error {
	if initBlock != 0 {
		return newErr(BadConfig, "init_block must be 0")
	}

	if create {
		return bt.attachCreate()
	}
	return bt.attachExisting()
}

func (bt *BTree) attachCreate() error {
	sb := &Node{
		Kind:         SuperblockKind,
		RootBlock:    1,
		KeySize:      bt.keySize,
		ValueSize:    bt.valueSize,
		BlockSize:    bt.blockSize,
		FreeListHead: 0,
	}
	if bt.numBlocks > 2 {
		sb.FreeListHead = 2
	}
	bt.superblock = sb

	root := newInterior(RootNodeKind, bt.keySize, bt.valueSize, bt.blockSize)
	root.RootBlock = 1

	if err := Serialize(sb, bt.cache, 0); err != nil {
		return err
	}
	bt.cache.NotifyAllocate(0)

	if err := Serialize(root, bt.cache, 1); err != nil {
		return err
	}
	bt.cache.NotifyAllocate(1)

	for b := uint64(2); b < uint64(bt.numBlocks); b++ {
		free := &Node{
			Kind:      Unallocated,
			KeySize:   bt.keySize,
			ValueSize: bt.valueSize,
			BlockSize: bt.blockSize,
		}
		if b+1 < uint64(bt.numBlocks) {
			free.FreeListHead = b + 1
		}
		if err := Serialize(free, bt.cache, b); err != nil {
			return err
		}
	}

	return nil
}

func (bt *BTree) attachExisting() error {
	sb, err := Deserialize(bt.cache, 0)
	if err != nil {
		return err
	}
	if sb.Kind != SuperblockKind {
		return newErr(BadConfig, "block 0 is not a superblock")
	}
	if sb.KeySize != bt.keySize || sb.ValueSize != bt.valueSize {
		return newErr(BadConfig, "stored geometry does not match configured key/value size")
	}
	bt.superblock = sb
	return nil
}

// Detach serializes the superblock back to block 0. No other teardown
// is required: the engine never retains block references across calls.
func (bt *BTree) Detach() error {
	return Serialize(bt.superblock, bt.cache, 0)
}

func (bt *BTree) rootBlock() uint64 { return bt.superblock.RootBlock }

// InstanceID returns the diagnostic handle assigned to this BTree when
// it was constructed with New. It has no on-disk meaning; it exists so
// logs and tooling can tell apart multiple indexes attached within the
// same process.
func (bt *BTree) InstanceID() uuid.UUID { return bt.instanceID }
