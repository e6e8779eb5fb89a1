package btree

import (
	"encoding/binary"

	"blocktree/blockcache"
)

// Header layout (33 bytes), grounded on the teacher's node_codec.go but
// widened to carry the full node header (root block, free-list head,
// and replicated geometry) rather than just id/type/numKeys:
//
//	offset  size  field
//	0       1     kind
//	1       4     numKeys (uint32 LE)
//	5       8     rootBlock (uint64 LE)
//	13      8     freeListHead (uint64 LE)
//	21      4     keySize (uint32 LE)
//	25      4     valueSize (uint32 LE)
//	29      4     blockSize (uint32 LE)
//
// Body starts at offset 33:
//   - Leaf:           numKeys * (key bytes), then numKeys * (value bytes)
//   - Root/Interior:  numKeys * (key bytes), then (numKeys+1) * (ptr uint64 LE)
//   - Superblock/Unallocated: header only
const (
	offKind         = 0
	offNumKeys      = 1
	offRootBlock    = 5
	offFreeListHead = 13
	offKeySize      = 21
	offValueSize    = 25
	offBlockSize    = 29
)

// Deserialize reads block from cache and decodes it into a Node.
func Deserialize(cache blockcache.Cache, block uint64) (*Node, error) {
	buf := make([]byte, cache.BlockSize())
	if err := cache.Read(block, buf); err != nil {
		return nil, wrapErr(Disk, "read block", err)
	}
	return decodeNode(buf)
}

func decodeNode(buf []byte) (*Node, error) {
	if len(buf) < headerSize {
		return nil, newErr(Size, "block shorter than header")
	}

	kind := Kind(buf[offKind])
	switch kind {
	case Unallocated, SuperblockKind, RootNodeKind, InteriorNodeKind, LeafNodeKind:
	default:
		return nil, newErr(Insane, "unknown node kind")
	}

	n := &Node{
		Kind:         kind,
		NumKeys:      int(binary.LittleEndian.Uint32(buf[offNumKeys:])),
		RootBlock:    binary.LittleEndian.Uint64(buf[offRootBlock:]),
		FreeListHead: binary.LittleEndian.Uint64(buf[offFreeListHead:]),
		KeySize:      int(binary.LittleEndian.Uint32(buf[offKeySize:])),
		ValueSize:    int(binary.LittleEndian.Uint32(buf[offValueSize:])),
		BlockSize:    int(binary.LittleEndian.Uint32(buf[offBlockSize:])),
	}

	offset := headerSize

	switch kind {
	case LeafNodeKind:
		n.keys = make([][]byte, n.NumKeys)
		for i := 0; i < n.NumKeys; i++ {
			if offset+n.KeySize > len(buf) {
				return nil, newErr(Size, "block overflow reading key")
			}
			key := make([]byte, n.KeySize)
			copy(key, buf[offset:offset+n.KeySize])
			n.keys[i] = key
			offset += n.KeySize
		}
		n.vals = make([][]byte, n.NumKeys)
		for i := 0; i < n.NumKeys; i++ {
			if offset+n.ValueSize > len(buf) {
				return nil, newErr(Size, "block overflow reading value")
			}
			val := make([]byte, n.ValueSize)
			copy(val, buf[offset:offset+n.ValueSize])
			n.vals[i] = val
			offset += n.ValueSize
		}
	case RootNodeKind, InteriorNodeKind:
		n.keys = make([][]byte, n.NumKeys)
		for i := 0; i < n.NumKeys; i++ {
			if offset+n.KeySize > len(buf) {
				return nil, newErr(Size, "block overflow reading key")
			}
			key := make([]byte, n.KeySize)
			copy(key, buf[offset:offset+n.KeySize])
			n.keys[i] = key
			offset += n.KeySize
		}
		n.ptrs = make([]uint64, n.NumKeys+1)
		for i := 0; i <= n.NumKeys; i++ {
			if offset+ptrSize > len(buf) {
				return nil, newErr(Size, "block overflow reading ptr")
			}
			n.ptrs[i] = binary.LittleEndian.Uint64(buf[offset:])
			offset += ptrSize
		}
	}

	return n, nil
}

// Serialize encodes n and writes it to block via cache. Writes are always
// whole-block: the buffer is always exactly cache.BlockSize() bytes, with
// unused trailing bytes zero-filled.
func Serialize(n *Node, cache blockcache.Cache, block uint64) error {
	buf, err := encodeNode(n, cache.BlockSize())
	if err != nil {
		return err
	}
	if err := cache.Write(block, buf); err != nil {
		return wrapErr(Disk, "write block", err)
	}
	return nil
}

func encodeNode(n *Node, blockSize int) ([]byte, error) {
	buf := make([]byte, blockSize)

	buf[offKind] = byte(n.Kind)
	binary.LittleEndian.PutUint32(buf[offNumKeys:], uint32(n.NumKeys))
	binary.LittleEndian.PutUint64(buf[offRootBlock:], n.RootBlock)
	binary.LittleEndian.PutUint64(buf[offFreeListHead:], n.FreeListHead)
	binary.LittleEndian.PutUint32(buf[offKeySize:], uint32(n.KeySize))
	binary.LittleEndian.PutUint32(buf[offValueSize:], uint32(n.ValueSize))
	binary.LittleEndian.PutUint32(buf[offBlockSize:], uint32(n.BlockSize))

	offset := headerSize

	switch n.Kind {
	case LeafNodeKind:
		for i := 0; i < n.NumKeys; i++ {
			if offset+n.KeySize > len(buf) {
				return nil, newErr(Size, "leaf key does not fit in block")
			}
			copy(buf[offset:offset+n.KeySize], n.keys[i])
			offset += n.KeySize
		}
		for i := 0; i < n.NumKeys; i++ {
			if offset+n.ValueSize > len(buf) {
				return nil, newErr(Size, "leaf value does not fit in block")
			}
			copy(buf[offset:offset+n.ValueSize], n.vals[i])
			offset += n.ValueSize
		}
	case RootNodeKind, InteriorNodeKind:
		for i := 0; i < n.NumKeys; i++ {
			if offset+n.KeySize > len(buf) {
				return nil, newErr(Size, "interior key does not fit in block")
			}
			copy(buf[offset:offset+n.KeySize], n.keys[i])
			offset += n.KeySize
		}
		for i := 0; i <= n.NumKeys; i++ {
			if offset+ptrSize > len(buf) {
				return nil, newErr(Size, "interior ptr does not fit in block")
			}
			binary.LittleEndian.PutUint64(buf[offset:], n.ptrs[i])
			offset += ptrSize
		}
	}

	return buf, nil
}
