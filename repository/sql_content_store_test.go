package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestSQLStore(t *testing.T) *SQLContentStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := NewSQLContentStore(db)
	if err := store.InitSchema(context.Background()); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	return store
}

func TestSQLContentStoreRoundTrip(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	if got, err := store.Get(ctx, "trending"); err != nil || got != nil {
		t.Fatalf("Get on empty store = %v, %v; want nil, nil", got, err)
	}

	if err := store.Set(ctx, "trending", []byte("first"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(ctx, "trending")
	if err != nil || string(got) != "first" {
		t.Fatalf("Get = %q, %v; want %q", got, err, "first")
	}

	// Set on an existing key upserts.
	if err := store.Set(ctx, "trending", []byte("second"), 0); err != nil {
		t.Fatalf("Set (upsert): %v", err)
	}
	got, _ = store.Get(ctx, "trending")
	if string(got) != "second" {
		t.Fatalf("Get after upsert = %q, want %q", got, "second")
	}
}

func TestSQLContentStoreKeysDeleteClear(t *testing.T) {
	store := newTestSQLStore(t)
	ctx := context.Background()

	_ = store.Set(ctx, "trending", []byte("a"), 0)
	_ = store.Set(ctx, "category_tv", []byte("b"), 0)

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "category_tv" || keys[1] != "trending" {
		t.Fatalf("Keys = %v, want [category_tv trending]", keys)
	}

	if err := store.Delete(ctx, "category_tv"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := store.Get(ctx, "category_tv"); got != nil {
		t.Fatalf("Get after Delete = %q, want nil", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	keys, _ = store.Keys(ctx)
	if len(keys) != 0 {
		t.Fatalf("Keys after Clear = %v, want empty", keys)
	}
}
