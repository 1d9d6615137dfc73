package mem

import (
	"slices"
	"testing"
)

func TestMakeAndNew(t *testing.T) {
	a := NewArena()
	p := Make(a, 42)
	if *p != 42 {
		t.Errorf("got %d, want 42", *p)
	}
	q := New[int](a)
	if *q != 0 {
		t.Errorf("New returned non-zero value %d", *q)
	}
	if p == q {
		t.Error("distinct allocations share memory")
	}
}

func TestAppendDoesNotAlias(t *testing.T) {
	a := NewArena()
	s1 := Varargs(a, 1, 2, 3)
	s2 := Varargs(a, 7, 8, 9)
	s1 = Append(a, s1, 4, 5, 6, 7, 8, 9, 10)
	if want := []int{7, 8, 9}; !slices.Equal(s2, want) {
		t.Errorf("neighboring slice clobbered: got %v, want %v", s2, want)
	}
	if want := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}; !slices.Equal(s1, want) {
		t.Errorf("got %v, want %v", s1, want)
	}
}

func TestResetZeroesMemory(t *testing.T) {
	a := NewArena()
	for i := 0; i < 100; i++ {
		*New[int](a) = i + 1
	}
	a.Reset()
	for i := 0; i < 100; i++ {
		if v := *New[int](a); v != 0 {
			t.Fatalf("allocation %d after Reset holds stale value %d", i, v)
		}
	}
}

func TestAllocSkipsFullSlabs(t *testing.T) {
	a := NewArena()
	for i := 0; i < slabElems; i++ {
		New[int](a)
	}
	New[int](a)
	p := poolFor[int](a)
	if p.cur != 1 {
		t.Errorf("cur = %d after filling the first slab, want 1", p.cur)
	}
	a.Reset()
	if p.cur != 0 {
		t.Errorf("cur = %d after Reset, want 0", p.cur)
	}
	if q := New[int](a); q != &p.slabs[0].data[0] {
		t.Error("allocation after Reset does not reuse the first slab")
	}
}

func TestLargeAllocation(t *testing.T) {
	a := NewArena()
	s := NewSlice[[]byte](a, slabElems*2, slabElems*2)
	if len(s) != slabElems*2 {
		t.Fatalf("got len %d, want %d", len(s), slabElems*2)
	}
}

func TestSortedMap(t *testing.T) {
	a := NewArena()
	var m SortedMap[uint64, string]
	m.Insert(a, 30, "c")
	m.Insert(a, 10, "a")
	m.Insert(a, 20, "b")

	if v, ok := m.Get(20); !ok || v != "b" {
		t.Errorf("Get(20) = %q, %v", v, ok)
	}
	if _, ok := m.Get(15); ok {
		t.Error("Get(15) found a missing key")
	}

	m.Insert(a, 20, "bb")
	if v, _ := m.Get(20); v != "bb" {
		t.Errorf("overwrite: got %q, want %q", v, "bb")
	}

	if !m.Delete(10) {
		t.Error("Delete(10) = false on live key")
	}
	if m.Delete(10) {
		t.Error("Delete(10) = true on dead key")
	}
	if _, ok := m.Get(10); ok {
		t.Error("Get(10) found a deleted key")
	}

	var keys []uint64
	for k, v := range m.All() {
		keys = append(keys, k)
		if v == "" {
			t.Errorf("key %d has empty value", k)
		}
	}
	if want := []uint64{20, 30}; !slices.Equal(keys, want) {
		t.Errorf("All keys = %v, want %v", keys, want)
	}

	m.Insert(a, 10, "a2")
	if v, ok := m.Get(10); !ok || v != "a2" {
		t.Errorf("reinsert after delete: got %q, %v", v, ok)
	}
}
