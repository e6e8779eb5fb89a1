// blocktreectl is an interactive REPL over a file-backed index, grounded
// on DaemonDB's own db> REPL loop: insert, lookup, update, delete,
// display and sanity-check a tree without writing a program against the
// btree package directly.
//
// Usage: go run ./cmd/blocktreectl -db path/to/index.bin [-create] [-config path/to/blocktree.yaml]
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"blocktree/blockcache"
	"blocktree/btree"
	"blocktree/config"

	"github.com/dustin/go-humanize"
)

func main() {
	dbPath := flag.String("db", "blocktree.db", "path to the index file")
	configPath := flag.String("config", "", "path to a blocktree.yaml config file (default search: configs/blocktree.yaml, blocktree.yaml)")
	create := flag.Bool("create", false, "create a new index at -db instead of attaching an existing one")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cache, err := openCache(*dbPath, cfg)
	if err != nil {
		log.Fatalf("open block cache: %v", err)
	}
	defer func() {
		if closer, ok := cache.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Printf("close block cache: %v", err)
			}
		}
	}()

	bt, err := btree.New(cfg.Geometry.KeySize, cfg.Geometry.ValueSize, cache)
	if err != nil {
		log.Fatalf("new btree: %v", err)
	}
	if err := bt.Attach(0, *create); err != nil {
		log.Fatalf("attach: %v", err)
	}
	defer func() {
		if err := bt.Detach(); err != nil {
			log.Printf("detach: %v", err)
		}
	}()

	info, err := os.Stat(*dbPath)
	if err == nil {
		fmt.Printf("attached %s (%s), key_size=%d value_size=%d block_size=%d instance=%s\n",
			*dbPath, humanize.Bytes(uint64(info.Size())), cfg.Geometry.KeySize, cfg.Geometry.ValueSize, cfg.Geometry.BlockSize, bt.InstanceID())
	}

	repl(bt)
}

func openCache(path string, cfg *config.Config) (blockcache.Cache, error) {
	file, err := blockcache.OpenFile(path, cfg.Geometry.BlockSize, cfg.Geometry.NumBlocks)
	if err != nil {
		return nil, err
	}
	return blockcache.NewCached(file, blockcache.CacheConfig{
		NumCounters: cfg.Cache.NumCounters,
		MaxCost:     cfg.Cache.MaxCost,
		BufferItems: cfg.Cache.BufferItems,
	})
}

func repl(bt *btree.BTree) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: insert <hexkey> <hexval> | lookup <hexkey> | update <hexkey> <hexval> | delete <hexkey> | display depth|dot|sorted | sanity | exit")

	for {
		fmt.Print("blocktree> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			break
		}

		fields := strings.Fields(line)
		if err := dispatch(bt, fields); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func dispatch(bt *btree.BTree, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "insert":
		if len(fields) != 3 {
			return fmt.Errorf("usage: insert <hexkey> <hexval>")
		}
		key, value, err := decodePair(fields[1], fields[2])
		if err != nil {
			return err
		}
		return bt.Insert(key, value)

	case "lookup":
		if len(fields) != 2 {
			return fmt.Errorf("usage: lookup <hexkey>")
		}
		key, err := hex.DecodeString(fields[1])
		if err != nil {
			return fmt.Errorf("bad hex key: %w", err)
		}
		value, err := bt.Lookup(key)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(value))
		return nil

	case "update":
		if len(fields) != 3 {
			return fmt.Errorf("usage: update <hexkey> <hexval>")
		}
		key, value, err := decodePair(fields[1], fields[2])
		if err != nil {
			return err
		}
		return bt.Update(key, value)

	case "delete":
		if len(fields) != 2 {
			return fmt.Errorf("usage: delete <hexkey>")
		}
		key, err := hex.DecodeString(fields[1])
		if err != nil {
			return fmt.Errorf("bad hex key: %w", err)
		}
		return bt.Delete(key)

	case "display":
		mode := btree.Depth
		if len(fields) == 2 {
			switch fields[1] {
			case "depth":
				mode = btree.Depth
			case "dot":
				mode = btree.DepthDot
			case "sorted":
				mode = btree.SortedKeyval
			default:
				return fmt.Errorf("unknown display mode %q", fields[1])
			}
		}
		return bt.Display(os.Stdout, mode)

	case "sanity":
		if err := bt.SanityCheck(); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func decodePair(keyHex, valHex string) ([]byte, []byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("bad hex key: %w", err)
	}
	value, err := hex.DecodeString(valHex)
	if err != nil {
		return nil, nil, fmt.Errorf("bad hex value: %w", err)
	}
	return key, value, nil
}
