package blockcache

import (
	"path/filepath"
	"testing"
)

func TestFileReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	f, err := OpenFile(path, 128, 8)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 128)
	copy(buf, []byte("persisted payload"))
	if err := f.Write(3, buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got := make([]byte, 128)
	if err := f.Read(3, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:17]) != "persisted payload" {
		t.Fatalf("got %q", got[:17])
	}
}

func TestFileReopenPreservesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")

	f1, err := OpenFile(path, 64, 4)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	buf := make([]byte, 64)
	copy(buf, []byte("survives reopen"))
	if err := f1.Write(1, buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f2, err := OpenFile(path, 64, 4)
	if err != nil {
		t.Fatalf("reopen OpenFile: %v", err)
	}
	defer f2.Close()

	got := make([]byte, 64)
	if err := f2.Read(1, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:15]) != "survives reopen" {
		t.Fatalf("got %q", got[:15])
	}
}

func TestFileOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	f, err := OpenFile(path, 32, 2)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	if err := f.Read(9, make([]byte, 32)); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}
