package repository

import (
	"context"
	"testing"
)

func TestMemoryContentStoreRoundTrip(t *testing.T) {
	store := NewMemoryContentStore()
	ctx := context.Background()

	if got, err := store.Get(ctx, "trending"); err != nil || got != nil {
		t.Fatalf("Get on empty store = %v, %v; want nil, nil", got, err)
	}

	if err := store.Set(ctx, "trending", []byte(`{"data":[],"timestamp":1}`), 0); err != nil {
		t.Fatalf("Set unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "trending")
	if err != nil {
		t.Fatalf("Get unexpected error: %v", err)
	}
	if string(got) != `{"data":[],"timestamp":1}` {
		t.Fatalf("Get returned %q", got)
	}

	// The stored value must not alias the caller's slice.
	got[0] = 'X'
	again, _ := store.Get(ctx, "trending")
	if string(again) != `{"data":[],"timestamp":1}` {
		t.Fatal("mutating a returned value changed the stored entry")
	}
}

func TestMemoryContentStoreDelete(t *testing.T) {
	store := NewMemoryContentStore()
	ctx := context.Background()

	_ = store.Set(ctx, "category_tv", []byte("a"), 0)
	if err := store.Delete(ctx, "category_tv"); err != nil {
		t.Fatalf("Delete unexpected error: %v", err)
	}
	if got, _ := store.Get(ctx, "category_tv"); got != nil {
		t.Fatalf("Get after Delete = %q, want nil", got)
	}

	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, "category_tv"); err != nil {
		t.Fatalf("Delete of absent key: %v", err)
	}
}

func TestMemoryContentStoreKeysAndClear(t *testing.T) {
	store := NewMemoryContentStore()
	ctx := context.Background()

	_ = store.Set(ctx, "trending", []byte("a"), 0)
	_ = store.Set(ctx, "category_tv", []byte("b"), 0)
	_ = store.Set(ctx, "search_sad movies", []byte("c"), 0)

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys unexpected error: %v", err)
	}
	want := []string{"category_tv", "search_sad movies", "trending"}
	if len(keys) != len(want) {
		t.Fatalf("Keys returned %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys returned %v, want sorted %v", keys, want)
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear unexpected error: %v", err)
	}
	keys, _ = store.Keys(ctx)
	if len(keys) != 0 {
		t.Fatalf("Keys after Clear = %v, want empty", keys)
	}
}
