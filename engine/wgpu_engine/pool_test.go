package wgpu_engine

import (
	"testing"
)

func TestPoolSizeClass(t *testing.T) {
	tests := []struct {
		size    uint64
		numBits uint32
		want    uint64
	}{
		{0, 1, 2},
		{1, 1, 2},
		{2, 1, 2},
		{3, 1, 3},
		{4, 1, 4},
		{5, 1, 6},
		{6, 1, 6},
		{7, 1, 8},
		{1024, 1, 1024},
		{1025, 1, 1536},
		{100, 2, 112},
	}
	for _, tt := range tests {
		if got := poolSizeClass(tt.size, tt.numBits); got != tt.want {
			t.Errorf("poolSizeClass(%d, %d) = %d, want %d", tt.size, tt.numBits, got, tt.want)
		}
	}
}

func TestPoolSizeClassNeverShrinks(t *testing.T) {
	for size := uint64(1); size < 1<<20; size = size*3 + 1 {
		got := poolSizeClass(size, 1)
		if got < size {
			t.Errorf("poolSizeClass(%d, 1) = %d, smaller than requested", size, got)
		}
	}
}

func TestUniformRingStage(t *testing.T) {
	var ring uniformRing
	ring.staged = make([]byte, 4*uniformSlotSize)

	first := ring.stage(0, []byte{1, 2, 3})
	if first != 0 {
		t.Errorf("first slot offset = %d, want 0", first)
	}
	third := ring.stage(2, []byte{9, 8})
	if third != 2*uniformSlotSize {
		t.Errorf("third slot offset = %d, want %d", third, 2*uniformSlotSize)
	}
	if ring.staged[0] != 1 || ring.staged[2] != 3 {
		t.Errorf("first slot not staged: % x", ring.staged[:4])
	}
	if ring.staged[2*uniformSlotSize] != 9 || ring.staged[2*uniformSlotSize+1] != 8 {
		t.Errorf("third slot not staged")
	}
	// slots are independent
	if ring.staged[uniformSlotSize] != 0 {
		t.Errorf("unstaged slot is dirty")
	}
}
