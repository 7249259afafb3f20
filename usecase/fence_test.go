package usecase

import (
	"sync"
	"testing"
)

func TestSlotFenceOrdering(t *testing.T) {
	fence := newSlotFence()

	first := fence.Next("trending")
	second := fence.Next("trending")

	if first >= second {
		t.Fatalf("sequence numbers not increasing: %d then %d", first, second)
	}
	if fence.Latest("trending", first) {
		t.Error("stale sequence number still reported latest")
	}
	if !fence.Latest("trending", second) {
		t.Error("newest sequence number not reported latest")
	}
}

func TestSlotFenceSlotsAreIndependent(t *testing.T) {
	fence := newSlotFence()

	trending := fence.Next("trending")
	fence.Next("category_tv")

	if !fence.Latest("trending", trending) {
		t.Error("issuing on one slot invalidated another slot")
	}
}

func TestSlotFenceConcurrentIssue(t *testing.T) {
	fence := newSlotFence()

	const goroutines = 32
	seqs := make([]uint64, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seqs[i] = fence.Next("search_x")
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, goroutines)
	for _, s := range seqs {
		if seen[s] {
			t.Fatalf("duplicate sequence number %d issued", s)
		}
		seen[s] = true
	}
}
