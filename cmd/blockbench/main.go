// blockbench measures insert and lookup throughput of the btree engine
// over an in-memory block cache and, when -file is given, a file-backed
// one, grounded on
// neurodb's cmd/benchmark's pattern of timing back-to-back runs and
// reporting an operations-per-second conclusion.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"blocktree/blockcache"
	"blocktree/btree"
)

func main() {
	n := flag.Int("n", 20000, "number of keys to insert and look up")
	keySize := flag.Int("key-size", 8, "key width in bytes")
	valueSize := flag.Int("value-size", 8, "value width in bytes")
	blockSize := flag.Int("block-size", 4096, "block size in bytes")
	filePath := flag.String("file", "", "if set, also benchmark a file-backed cache at this path")
	flag.Parse()

	if *keySize < 8 {
		log.Fatalf("key-size must be at least 8 (benchmark keys are uint64 counters)")
	}

	fmt.Printf("blocktree benchmark (n=%d, key_size=%d, value_size=%d, block_size=%d)\n",
		*n, *keySize, *valueSize, *blockSize)
	fmt.Println("---------------------------------------------------")

	numBlocks := estimateNumBlocks(*n, *keySize, *valueSize, *blockSize)

	fmt.Println(">> memory cache")
	runBenchmark(blockcache.NewMemory(*blockSize, numBlocks), *n, *keySize, *valueSize)

	if *filePath != "" {
		fmt.Println("\n>> file cache:", *filePath)
		cache, err := blockcache.OpenFile(*filePath, *blockSize, numBlocks)
		if err != nil {
			log.Fatalf("open file cache: %v", err)
		}
		runBenchmark(cache, *n, *keySize, *valueSize)
		if err := cache.Close(); err != nil {
			log.Fatalf("close file cache: %v", err)
		}
		if err := os.Remove(*filePath); err != nil {
			log.Printf("remove %s: %v", *filePath, err)
		}
	}
}

// estimateNumBlocks sizes the backing store generously: enough leaves for
// n entries plus room for interior levels and the free-list pool they
// come from.
func estimateNumBlocks(n, keySize, valueSize, blockSize int) int {
	leafCap := maxInt(1, (blockSize-41)/(keySize+valueSize))
	leaves := n/leafCap + 1
	return 4*leaves + 16
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func runBenchmark(cache blockcache.Cache, n, keySize, valueSize int) {
	bt, err := btree.New(keySize, valueSize, cache)
	if err != nil {
		log.Fatalf("new btree: %v", err)
	}
	if err := bt.Attach(0, true); err != nil {
		log.Fatalf("attach: %v", err)
	}

	key := make([]byte, keySize)
	value := make([]byte, valueSize)

	start := time.Now()
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint64(key[:8], uint64(i))
		if err := bt.Insert(key, value); err != nil {
			log.Fatalf("insert %d: %v", i, err)
		}
	}
	insertDuration := time.Since(start)
	fmt.Printf("   insert: %v | %.0f ops/sec\n", insertDuration, float64(n)/insertDuration.Seconds())

	start = time.Now()
	for i := 0; i < n; i++ {
		binary.BigEndian.PutUint64(key[:8], uint64(i))
		if _, err := bt.Lookup(key); err != nil {
			log.Fatalf("lookup %d: %v", i, err)
		}
	}
	lookupDuration := time.Since(start)
	fmt.Printf("   lookup: %v | %.0f ops/sec\n", lookupDuration, float64(n)/lookupDuration.Seconds())

	if err := bt.Detach(); err != nil {
		log.Fatalf("detach: %v", err)
	}
}
