package btree

import (
	"testing"

	"blocktree/blockcache"

	"github.com/google/uuid"
)

// Small geometry chosen so a handful of inserts exercises leaf and
// interior splits: leafCapacity(4,4,128)=11, interiorCapacity(4,128)=7.
const (
	testKeySize   = 4
	testValueSize = 4
	testBlockSize = 128
	testNumBlocks = 64
)

func u32key(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func newTestTree(t *testing.T) (*BTree, blockcache.Cache) {
	t.Helper()
	cache := blockcache.NewMemory(testBlockSize, testNumBlocks)
	bt, err := New(testKeySize, testValueSize, cache)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := bt.Attach(0, true); err != nil {
		t.Fatalf("Attach(create): %v", err)
	}
	return bt, cache
}

func TestInsertLookupRoundTrip(t *testing.T) {
	bt, _ := newTestTree(t)

	for i := uint32(0); i < 40; i++ {
		if err := bt.Insert(u32key(i), u32key(i*7+1)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}

	for i := uint32(0); i < 40; i++ {
		got, err := bt.Lookup(u32key(i))
		if err != nil {
			t.Fatalf("Lookup(%d): %v", i, err)
		}
		want := u32key(i*7 + 1)
		if string(got) != string(want) {
			t.Fatalf("Lookup(%d) = %x, want %x", i, got, want)
		}
	}
}

func TestUpdateOverwritesValue(t *testing.T) {
	bt, _ := newTestTree(t)

	key := u32key(5)
	if err := bt.Insert(key, u32key(1)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := bt.Update(key, u32key(2)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := bt.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if string(got) != string(u32key(2)) {
		t.Fatalf("Lookup after Update = %x, want %x", got, u32key(2))
	}
}

func TestUpdateNonExistentKey(t *testing.T) {
	bt, _ := newTestTree(t)
	if err := bt.Update(u32key(1), u32key(1)); !isCode(err, NonExistent) {
		t.Fatalf("Update of absent key = %v, want NonExistent", err)
	}
}

func TestInsertDuplicateConflict(t *testing.T) {
	bt, _ := newTestTree(t)

	key := u32key(3)
	if err := bt.Insert(key, u32key(1)); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := bt.Insert(key, u32key(2)); !isCode(err, Conflict) {
		t.Fatalf("second Insert = %v, want Conflict", err)
	}

	got, err := bt.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if string(got) != string(u32key(1)) {
		t.Fatalf("Lookup after rejected duplicate = %x, want original value", got)
	}
}

func TestInsertWidthMismatch(t *testing.T) {
	bt, _ := newTestTree(t)
	if err := bt.Insert([]byte{1, 2, 3}, u32key(1)); !isCode(err, Size) {
		t.Fatalf("short key Insert = %v, want Size", err)
	}
	if err := bt.Insert(u32key(1), []byte{1, 2, 3}); !isCode(err, Size) {
		t.Fatalf("short value Insert = %v, want Size", err)
	}
}

func TestLookupZeroKeyRoot(t *testing.T) {
	bt, _ := newTestTree(t)
	if _, err := bt.Lookup(u32key(1)); !isCode(err, NonExistent) {
		t.Fatalf("Lookup on empty tree = %v, want NonExistent", err)
	}
}

func TestDetachReattach(t *testing.T) {
	cache := blockcache.NewMemory(testBlockSize, testNumBlocks)

	bt, err := New(testKeySize, testValueSize, cache)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := bt.Attach(0, true); err != nil {
		t.Fatalf("Attach(create): %v", err)
	}
	for i := uint32(0); i < 25; i++ {
		if err := bt.Insert(u32key(i), u32key(i+100)); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := bt.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	bt2, err := New(testKeySize, testValueSize, cache)
	if err != nil {
		t.Fatalf("New (reopen): %v", err)
	}
	if err := bt2.Attach(0, false); err != nil {
		t.Fatalf("Attach(create=false): %v", err)
	}
	for i := uint32(0); i < 25; i++ {
		got, err := bt2.Lookup(u32key(i))
		if err != nil {
			t.Fatalf("Lookup(%d) after reattach: %v", i, err)
		}
		if string(got) != string(u32key(i+100)) {
			t.Fatalf("Lookup(%d) after reattach = %x, want %x", i, got, u32key(i+100))
		}
	}
}

func TestAttachExistingGeometryMismatch(t *testing.T) {
	cache := blockcache.NewMemory(testBlockSize, testNumBlocks)
	bt, err := New(testKeySize, testValueSize, cache)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := bt.Attach(0, true); err != nil {
		t.Fatalf("Attach(create): %v", err)
	}

	bt2, err := New(testKeySize, testValueSize+4, cache)
	if err != nil {
		t.Fatalf("New (mismatched): %v", err)
	}
	if err := bt2.Attach(0, false); !isCode(err, BadConfig) {
		t.Fatalf("Attach with mismatched geometry = %v, want BadConfig", err)
	}
}

func TestInstanceIDIsUniquePerBTree(t *testing.T) {
	cache1 := blockcache.NewMemory(testBlockSize, testNumBlocks)
	bt1, err := New(testKeySize, testValueSize, cache1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if bt1.InstanceID() == uuid.Nil {
		t.Fatal("InstanceID() is nil after New")
	}

	cache2 := blockcache.NewMemory(testBlockSize, testNumBlocks)
	bt2, err := New(testKeySize, testValueSize, cache2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if bt1.InstanceID() == bt2.InstanceID() {
		t.Fatal("two BTree instances got the same InstanceID()")
	}
}

func TestDeleteUnimplemented(t *testing.T) {
	bt, _ := newTestTree(t)
	if err := bt.Delete(u32key(1)); !isCode(err, Unimpl) {
		t.Fatalf("Delete = %v, want Unimpl", err)
	}
}
