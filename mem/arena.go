// Package mem provides allocation with frame lifetime. Command recording
// produces many small, short-lived values every frame; allocating them from an
// arena and recycling the memory with Reset keeps steady-state frames free of
// garbage collector pressure.
package mem

import (
	"cmp"
	"iter"
	"reflect"
	"sort"

	"golang.org/x/exp/constraints"
)

// Arena allocates values that live until the next call to Reset. It keeps one
// pool of slabs per element type, so recording a scene of similar shape every
// frame stops allocating once slab capacity has grown to fit it.
//
// An Arena must not be used concurrently.
type Arena struct {
	pools map[reflect.Type]pool
}

func NewArena() *Arena {
	return &Arena{
		pools: make(map[reflect.Type]pool),
	}
}

// Reset recycles all memory handed out by the arena. Values obtained before
// Reset must not be used afterwards.
func (a *Arena) Reset() {
	for _, p := range a.pools {
		p.reset()
	}
}

func New[T any](a *Arena) *T {
	return &poolFor[T](a).alloc(1)[0]
}

func Make[T any](a *Arena, v T) *T {
	ptr := New[T](a)
	*ptr = v
	return ptr
}

func NewSlice[T ~[]E, E any](a *Arena, len, cap int) T {
	if cap == 0 {
		return nil
	}
	return T(poolFor[E](a).alloc(cap)[:len])
}

func MakeSlice[T ~[]E, E any](a *Arena, values T) T {
	s := NewSlice[T, E](a, len(values), len(values))
	copy(s, values)
	return s
}

func Varargs[E any](a *Arena, values ...E) []E {
	return MakeSlice[[]E, E](a, values)
}

func Append[T ~[]E, E any](a *Arena, s T, data ...E) T {
	s = growSlice(a, s, len(data))
	return append(s, data...)
}

func Grow[T ~[]E, E any](a *Arena, s T, n int) T {
	if n -= cap(s) - len(s); n > 0 {
		s = growSlice(a, s, n)
	}
	return s
}

func growSlice[T ~[]E, E any](a *Arena, s T, n int) T {
	const growThreshold = 256
	newLen := len(s) + n
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = n
	}
	if newCap == cap(s) {
		return s
	}
	s2 := NewSlice[T, E](a, len(s), newCap)
	copy(s2, s)
	return s2
}

type pool interface {
	reset()
}

func poolFor[T any](a *Arena) *typedPool[T] {
	// We cannot use TypeOf(*new(T)) when T is an interface type, because that
	// passes a nil interface to TypeOf, which returns nil.
	var t *T
	typ := reflect.TypeOf(t).Elem()
	if p, ok := a.pools[typ]; ok {
		return p.(*typedPool[T])
	}
	p := &typedPool[T]{}
	a.pools[typ] = p
	return p
}

const slabElems = 4096

type typedPool[T any] struct {
	slabs []slab[T]
	// Index of the first slab that may still have room.
	cur int
}

type slab[T any] struct {
	data []T
	used int
}

func (p *typedPool[T]) alloc(n int) []T {
	for p.cur < len(p.slabs) && p.slabs[p.cur].used == len(p.slabs[p.cur].data) {
		p.cur++
	}
	for i := p.cur; i < len(p.slabs); i++ {
		sl := &p.slabs[i]
		if len(sl.data)-sl.used >= n {
			// Slab memory is cleared on reset, so this is zeroed.
			out := sl.data[sl.used : sl.used+n : sl.used+n]
			sl.used += n
			return out
		}
	}
	p.slabs = append(p.slabs, slab[T]{
		data: make([]T, max(slabElems, n)),
		used: n,
	})
	sl := &p.slabs[len(p.slabs)-1]
	return sl.data[:n:n]
}

func (p *typedPool[T]) reset() {
	for i := range p.slabs {
		sl := &p.slabs[i]
		// Clear memory so it doesn't keep Go pointers alive.
		clear(sl.data[:sl.used])
		sl.used = 0
	}
	p.cur = 0
}

// SortedMap is a flat sorted map with tombstone deletion. Its entries live in
// an arena; the map itself is cheap enough to keep across frames.
type SortedMap[K constraints.Ordered, V any] struct {
	entries []sortedMapEntry[K, V]
}

type sortedMapEntry[K constraints.Ordered, V any] struct {
	key     K
	value   V
	deleted bool
}

func (m *SortedMap[K, V]) find(key K) (*sortedMapEntry[K, V], bool) {
	idx, ok := sort.Find(len(m.entries), func(i int) int {
		return cmp.Compare(key, m.entries[i].key)
	})
	if !ok {
		return nil, false
	}
	return &m.entries[idx], true
}

func (m *SortedMap[K, V]) Insert(a *Arena, key K, value V) {
	idx := sort.Search(len(m.entries), func(i int) bool {
		return key <= m.entries[i].key
	})

	if idx == len(m.entries) || m.entries[idx].key != key {
		m.entries = insert(a, m.entries, idx, sortedMapEntry[K, V]{key, value, false})
	} else {
		e := &m.entries[idx]
		e.value = value
		e.deleted = false
	}
}

func (m *SortedMap[K, V]) Get(key K) (V, bool) {
	if e, ok := m.find(key); ok && !e.deleted {
		return e.value, true
	}
	return *new(V), false
}

func (m *SortedMap[K, V]) Delete(key K) bool {
	if e, ok := m.find(key); ok {
		wasDeleted := e.deleted
		e.deleted = true
		return !wasDeleted
	}
	return false
}

func (m *SortedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.entries {
			if e.deleted {
				continue
			}
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

func insert[S ~[]E, E any](a *Arena, s S, i int, v E) S {
	if i == len(s) {
		return Append(a, s, v)
	}

	if cap(s) > len(s) {
		s = s[:len(s)+1]
		copy(s[i+1:], s[i:])
		s[i] = v
		return s
	}
	s2 := NewSlice[S](a, len(s)+1, (len(s)+1)*2)
	copy(s2, s[:i])
	s2[i] = v
	copy(s2[i+1:], s[i:])
	return s2
}
