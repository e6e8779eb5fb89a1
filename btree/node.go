package btree

// Kind tags the five node variants a block can hold: Superblock,
// RootNode, InteriorNode, LeafNode, and Unallocated. Zero is Unallocated
// so a freshly zero-filled block (before any write ever reaches it) reads
// back as unallocated rather than as some other kind by accident.
type Kind uint8

const (
	Unallocated Kind = iota
	SuperblockKind
	RootNodeKind
	InteriorNodeKind
	LeafNodeKind
)

func (k Kind) String() string {
	switch k {
	case Unallocated:
		return "Unallocated"
	case SuperblockKind:
		return "Superblock"
	case RootNodeKind:
		return "Root"
	case InteriorNodeKind:
		return "Interior"
	case LeafNodeKind:
		return "Leaf"
	default:
		return "Unknown"
	}
}

// ptrSize is the on-disk width of a child/free-list pointer: a block
// number stored as a little-endian uint64.
const ptrSize = 8

// headerSize is the fixed width, in bytes, of every node's header. See
// codec.go for the exact field layout.
const headerSize = 1 + 4 + 8 + 8 + 4 + 4 + 4

// Node is the in-memory, decoded view of one block: a header shared by
// all kinds, plus a kind-gated body. Every kind shares this one struct
// (rather than five Go types) to mirror the original BTreeNode's single
// tagged union, and the teacher's own single Node type for both internal
// and leaf pages.
type Node struct {
	Kind Kind

	// RootBlock and FreeListHead are replicated header fields. RootBlock
	// is carried on every node for convenience, so a node can be
	// identified as belonging to a particular tree without consulting
	// the superblock; FreeListHead is meaningful only on the
	// Superblock (free-list head) and on Unallocated blocks (next-free
	// pointer).
	RootBlock    uint64
	FreeListHead uint64

	NumKeys int

	KeySize   int
	ValueSize int
	BlockSize int

	// keys holds NumKeys entries for LeafNodeKind, RootNodeKind, and
	// InteriorNodeKind.
	keys [][]byte
	// vals holds NumKeys entries for LeafNodeKind only.
	vals [][]byte
	// ptrs holds NumKeys+1 entries for RootNodeKind and
	// InteriorNodeKind only. A zero entry is the null-child sentinel;
	// the only node that may ever hold one is an as-yet-empty root.
	ptrs []uint64
}

// newLeaf builds an empty, unattached leaf node of the given geometry.
func newLeaf(keySize, valueSize, blockSize int) *Node {
	return &Node{
		Kind:      LeafNodeKind,
		KeySize:   keySize,
		ValueSize: valueSize,
		BlockSize: blockSize,
	}
}

// newInterior builds an empty, unattached interior node of the given
// geometry. kind must be RootNodeKind or InteriorNodeKind.
func newInterior(kind Kind, keySize, valueSize, blockSize int) *Node {
	return &Node{
		Kind:      kind,
		KeySize:   keySize,
		ValueSize: valueSize,
		BlockSize: blockSize,
		ptrs:      []uint64{0},
	}
}

// IsLeaf reports whether n stores key/value pairs directly.
func (n *Node) IsLeaf() bool { return n.Kind == LeafNodeKind }

// IsInteriorShaped reports whether n stores keys+children (root or
// interior).
func (n *Node) IsInteriorShaped() bool {
	return n.Kind == RootNodeKind || n.Kind == InteriorNodeKind
}

// LeafCapacity is the maximum number of key/value pairs a block of this
// geometry can hold when used as a leaf.
func (n *Node) LeafCapacity() int {
	return leafCapacity(n.KeySize, n.ValueSize, n.BlockSize)
}

// InteriorCapacity is the maximum number of keys a block of this
// geometry can hold when used as an interior/root node.
func (n *Node) InteriorCapacity() int {
	return interiorCapacity(n.KeySize, n.BlockSize)
}

func leafCapacity(keySize, valueSize, blockSize int) int {
	avail := blockSize - headerSize
	if avail <= 0 {
		return 0
	}
	return avail / (keySize + valueSize)
}

func interiorCapacity(keySize, blockSize int) int {
	avail := blockSize - headerSize - ptrSize
	if avail <= 0 {
		return 0
	}
	return avail / (keySize + ptrSize)
}

// GetKey returns a copy of the key at index i. Valid for leaf, root, and
// interior nodes; i must be in [0, NumKeys).
func (n *Node) GetKey(i int) ([]byte, error) {
	if i < 0 || i >= n.NumKeys {
		return nil, newErr(Size, "key index out of bounds")
	}
	out := make([]byte, len(n.keys[i]))
	copy(out, n.keys[i])
	return out, nil
}

// SetKey overwrites the key at index i. i must be in [0, NumKeys) and key
// must be exactly KeySize bytes.
func (n *Node) SetKey(i int, key []byte) error {
	if i < 0 || i >= n.NumKeys {
		return newErr(Size, "key index out of bounds")
	}
	if len(key) != n.KeySize {
		return newErr(Size, "key length mismatch")
	}
	cp := make([]byte, len(key))
	copy(cp, key)
	n.keys[i] = cp
	return nil
}

// GetVal returns a copy of the value at index i. Valid for leaf nodes
// only; i must be in [0, NumKeys).
func (n *Node) GetVal(i int) ([]byte, error) {
	if !n.IsLeaf() {
		return nil, newErr(Size, "GetVal on non-leaf node")
	}
	if i < 0 || i >= n.NumKeys {
		return nil, newErr(Size, "value index out of bounds")
	}
	out := make([]byte, len(n.vals[i]))
	copy(out, n.vals[i])
	return out, nil
}

// SetVal overwrites the value at index i. Valid for leaf nodes only; i
// must be in [0, NumKeys) and val must be exactly ValueSize bytes.
func (n *Node) SetVal(i int, val []byte) error {
	if !n.IsLeaf() {
		return newErr(Size, "SetVal on non-leaf node")
	}
	if i < 0 || i >= n.NumKeys {
		return newErr(Size, "value index out of bounds")
	}
	if len(val) != n.ValueSize {
		return newErr(Size, "value length mismatch")
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	n.vals[i] = cp
	return nil
}

// GetPtr returns the child pointer at index i. Valid for root/interior
// nodes only; i must be in [0, NumKeys].
func (n *Node) GetPtr(i int) (uint64, error) {
	if !n.IsInteriorShaped() {
		return 0, newErr(Size, "GetPtr on non-interior node")
	}
	if i < 0 || i > n.NumKeys {
		return 0, newErr(Size, "ptr index out of bounds")
	}
	return n.ptrs[i], nil
}

// SetPtr overwrites the child pointer at index i. Valid for root/interior
// nodes only; i must be in [0, NumKeys].
func (n *Node) SetPtr(i int, p uint64) error {
	if !n.IsInteriorShaped() {
		return newErr(Size, "SetPtr on non-interior node")
	}
	if i < 0 || i > n.NumKeys {
		return newErr(Size, "ptr index out of bounds")
	}
	n.ptrs[i] = p
	return nil
}
