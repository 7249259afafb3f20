package usecase

import "sync"

// slotFence hands out a monotonically increasing sequence number per logical
// slot (one slot per cache key). A fetch takes a number before calling the
// backend and only writes its result back if that number is still the newest
// issued for the slot, so a slow older response never clobbers a newer one.
type slotFence struct {
	mu   sync.Mutex
	seqs map[string]uint64
}

func newSlotFence() *slotFence {
	return &slotFence{seqs: make(map[string]uint64)}
}

// Next issues the next sequence number for slot.
func (f *slotFence) Next(slot string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seqs[slot]++
	return f.seqs[slot]
}

// Latest reports whether seq is still the newest number issued for slot.
func (f *slotFence) Latest(slot string, seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seqs[slot] == seq
}
