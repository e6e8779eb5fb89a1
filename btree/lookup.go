package btree

import "bytes"

// descendIndex picks which child pointer to follow from an interior/root
// node while searching for key: scan keys ascending, recurse into the
// first child whose separator is >= key; if none exists, recurse into
// the last (rightmost) child.
func descendIndex(n *Node, key []byte) int {
	for i := 0; i < n.NumKeys; i++ {
		if bytes.Compare(key, n.keys[i]) <= 0 {
			return i
		}
	}
	return n.NumKeys
}

// findLeaf walks from block down to the leaf that would hold key,
// returning that leaf and its block number. A nil leaf with a nil error
// means the descent hit a null child pointer, i.e. the subtree that
// would hold key does not exist yet (only possible at an empty root).
func (bt *BTree) findLeaf(block uint64, key []byte) (*Node, uint64, error) {
	for {
		n, err := Deserialize(bt.cache, block)
		if err != nil {
			return nil, 0, err
		}

		switch n.Kind {
		case LeafNodeKind:
			return n, block, nil
		case RootNodeKind, InteriorNodeKind:
			i := descendIndex(n, key)
			child := n.ptrs[i]
			if child == 0 {
				return nil, 0, nil
			}
			block = child
		default:
			return nil, 0, newErr(Insane, "unexpected node kind during descent")
		}
	}
}

// leafFind returns the index of key within leaf's key array, or -1 if
// absent.
func leafFind(leaf *Node, key []byte) int {
	for i := 0; i < leaf.NumKeys; i++ {
		if bytes.Equal(leaf.keys[i], key) {
			return i
		}
	}
	return -1
}

// Lookup returns the value associated with key, or a NonExistent error
// if key is not present.
func (bt *BTree) Lookup(key []byte) ([]byte, error) {
	if len(key) != bt.keySize {
		return nil, newErr(Size, "key length mismatch")
	}

	leaf, _, err := bt.findLeaf(bt.rootBlock(), key)
	if err != nil {
		return nil, err
	}
	if leaf == nil {
		return nil, newErr(NonExistent, "key not found")
	}

	i := leafFind(leaf, key)
	if i < 0 {
		return nil, newErr(NonExistent, "key not found")
	}
	return leaf.vals[i], nil
}
