package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "fydesk.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, 1, PurposeHelperAddress); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	if err := s.Put(ctx, 1, PurposeHelperAddress, "0xabc"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, 42161, PurposeHelperAddress, "0xdef"); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Entries are scoped by chain.
	value, ok, err := s.Get(ctx, 1, PurposeHelperAddress)
	if err != nil || !ok || value != "0xabc" {
		t.Fatalf("get chain 1: %q ok=%v err=%v", value, ok, err)
	}
	value, ok, err = s.Get(ctx, 42161, PurposeHelperAddress)
	if err != nil || !ok || value != "0xdef" {
		t.Fatalf("get chain 42161: %q ok=%v err=%v", value, ok, err)
	}

	// A new store over the same file sees the persisted entries.
	reopened := NewFileStore(path)
	value, ok, err = reopened.Get(ctx, 1, PurposeHelperAddress)
	if err != nil || !ok || value != "0xabc" {
		t.Fatalf("reopened get: %q ok=%v err=%v", value, ok, err)
	}

	if err := reopened.Delete(ctx, 1, PurposeHelperAddress); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := reopened.Get(ctx, 1, PurposeHelperAddress); ok {
		t.Fatal("deleted entry still present")
	}
	if _, ok, _ := reopened.Get(ctx, 42161, PurposeHelperAddress); !ok {
		t.Fatal("delete must not touch other chains")
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fydesk.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.Put(ctx, 1, PurposeInflightTransfer, "0x01"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, 1, PurposeInflightTransfer, "0x02"); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, ok, err := s.Get(ctx, 1, PurposeInflightTransfer)
	if err != nil || !ok || value != "0x02" {
		t.Fatalf("get: %q ok=%v err=%v", value, ok, err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Put(ctx, 1, PurposeVaultPrefix+"303132333435", "0x0102"); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, ok, err := s.Get(ctx, 1, PurposeVaultPrefix+"303132333435")
	if err != nil || !ok || value != "0x0102" {
		t.Fatalf("get: %q ok=%v err=%v", value, ok, err)
	}
	if err := s.Delete(ctx, 1, PurposeVaultPrefix+"303132333435"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, 1, PurposeVaultPrefix+"303132333435"); ok {
		t.Fatal("deleted entry still present")
	}
}
