package blockcache

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// File is a fixed-offset, file-backed block substrate, grounded on the
// teacher's OnDiskPager: block N lives at byte offset N*blockSize, the
// block count is fixed at open time (unlike the teacher's bump allocator,
// the B-tree's free list already owns allocation, so File just exposes a
// flat, preallocated array of blocks over the file).
type File struct {
	mu        sync.RWMutex
	file      *os.File
	blockSize int
	numBlocks int
}

// OpenFile opens (creating if necessary) a file-backed substrate with
// exactly numBlocks blocks of blockSize bytes each. If the file is
// shorter than numBlocks*blockSize it is extended and zero-filled; if
// longer, only the first numBlocks*blockSize bytes are addressed.
func OpenFile(path string, blockSize, numBlocks int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("blockcache: open %s: %w", path, err)
	}

	want := int64(blockSize) * int64(numBlocks)
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockcache: stat %s: %w", path, err)
	}
	if stat.Size() < want {
		if err := f.Truncate(want); err != nil {
			f.Close()
			return nil, fmt.Errorf("blockcache: truncate %s: %w", path, err)
		}
	}

	return &File{file: f, blockSize: blockSize, numBlocks: numBlocks}, nil
}

func (f *File) BlockSize() int { return f.blockSize }
func (f *File) NumBlocks() int { return f.numBlocks }

func (f *File) Read(block uint64, buf []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if block >= uint64(f.numBlocks) {
		return ErrOutOfRange
	}
	if len(buf) != f.blockSize {
		return fmt.Errorf("blockcache: buf length %d != block size %d", len(buf), f.blockSize)
	}

	offset := int64(block) * int64(f.blockSize)
	n, err := f.file.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return fmt.Errorf("blockcache: read block %d: %w", block, err)
	}
	if n < len(buf) {
		log.Printf("blockcache: short read on block %d (%d/%d bytes), zero-filling tail", block, n, len(buf))
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
	}
	return nil
}

func (f *File) Write(block uint64, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if block >= uint64(f.numBlocks) {
		return ErrOutOfRange
	}
	if len(buf) != f.blockSize {
		return fmt.Errorf("blockcache: buf length %d != block size %d", len(buf), f.blockSize)
	}

	offset := int64(block) * int64(f.blockSize)
	if _, err := f.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("blockcache: write block %d: %w", block, err)
	}
	return nil
}

// NotifyAllocate and NotifyDeallocate are no-ops for File: it has no
// secondary cache to invalidate. Cached wraps File (or any Cache) when
// notification-driven invalidation is needed.
func (f *File) NotifyAllocate(block uint64)   {}
func (f *File) NotifyDeallocate(block uint64) {}

// Sync flushes pending writes to the underlying medium.
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Sync()
}

// Close syncs and closes the underlying file.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.file.Sync(); err != nil {
		f.file.Close()
		return fmt.Errorf("blockcache: sync before close: %w", err)
	}
	return f.file.Close()
}
