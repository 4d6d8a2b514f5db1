package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

func newTestEngine(t *testing.T) *BadgerEngine {
	t.Helper()
	cfg := DefaultKVConfig(t.TempDir())
	cfg.Badger.SyncWrites = false // speed up tests

	engine, err := NewBadgerEngine(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewBadgerEngine() error = %v", err)
	}
	t.Cleanup(func() {
		if err := engine.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return engine
}

func TestBadgerEngine_SetGet(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Set(ctx, []byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := engine.Get(ctx, []byte("k1"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get() = %q, want %q", got, "v1")
	}
}

func TestBadgerEngine_GetMissing(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Get(context.Background(), []byte("absent"))
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestBadgerEngine_Delete(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Set(ctx, []byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := engine.Delete(ctx, []byte("k1")); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := engine.Get(ctx, []byte("k1")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrKeyNotFound", err)
	}

	// Deleting an absent key is not an error.
	if err := engine.Delete(ctx, []byte("absent")); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}
}

func TestBadgerEngine_Scan(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("dev:%d", i)
		if err := engine.Set(ctx, []byte(key), []byte("v")); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}
	if err := engine.Set(ctx, []byte("akey:x"), []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	count := 0
	err := engine.Scan(ctx, []byte("dev:"), func(key, value []byte) bool {
		count++
		return true
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if count != 5 {
		t.Errorf("Scan() visited %d keys, want 5", count)
	}

	// Early stop.
	count = 0
	err = engine.Scan(ctx, []byte("dev:"), func(key, value []byte) bool {
		count++
		return count < 2
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Scan() with early stop visited %d keys, want 2", count)
	}
}

func TestBadgerEngine_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	cfg := DefaultKVConfig(dir)
	cfg.Badger.SyncWrites = false

	engine, err := NewBadgerEngine(cfg, logger)
	if err != nil {
		t.Fatalf("NewBadgerEngine() error = %v", err)
	}
	if err := engine.Set(ctx, []byte("k1"), []byte("survives")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	engine, err = NewBadgerEngine(cfg, logger)
	if err != nil {
		t.Fatalf("NewBadgerEngine() reopen error = %v", err)
	}
	defer engine.Close()

	got, err := engine.Get(ctx, []byte("k1"))
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(got) != "survives" {
		t.Errorf("Get() after reopen = %q, want %q", got, "survives")
	}
}

func TestBadgerEngine_ClosedErrors(t *testing.T) {
	cfg := DefaultKVConfig(t.TempDir())
	cfg.Badger.SyncWrites = false

	engine, err := NewBadgerEngine(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewBadgerEngine() error = %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Double close is a no-op.
	if err := engine.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	ctx := context.Background()
	if _, err := engine.Get(ctx, []byte("k")); !errors.Is(err, ErrClosed) {
		t.Errorf("Get() on closed engine error = %v, want ErrClosed", err)
	}
	if err := engine.Set(ctx, []byte("k"), []byte("v")); !errors.Is(err, ErrClosed) {
		t.Errorf("Set() on closed engine error = %v, want ErrClosed", err)
	}
}

func TestBadgerEngine_Stats(t *testing.T) {
	engine := newTestEngine(t)

	stats, err := engine.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats == nil {
		t.Fatal("Stats() returned nil")
	}
}
