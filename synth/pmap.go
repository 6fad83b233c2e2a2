package synth

// pmap is a minimal copy-on-write persistent map. The reference design
// uses `rpds::HashTrieMapSync`, a structurally-shared hash array mapped
// trie so cloning a published state is O(1) and only the touched path
// is copied on the next write. Go has no such data structure in its
// standard library and none of the retrieved pack's dependencies
// supply one; rolling a full HAMT is a large amount of machinery for a
// control-plane path that runs at batch rate (at most a few hundred
// times a second, never per-sample), so pmap instead copies the whole
// backing map on every write. This is asymptotically worse but the
// practical map sizes here (a process's live mount count) make the
// difference unmeasurable, and it keeps the persistence guarantee that
// matters: a published State snapshot already handed to the audio
// thread is never mutated by a later batch. Recorded as a resolved
// Open Question in DESIGN.md.
type pmap[K comparable, V any] struct {
	entries map[K]V
}

func newPmap[K comparable, V any]() pmap[K, V] {
	return pmap[K, V]{entries: map[K]V{}}
}

func (m pmap[K, V]) get(k K) (V, bool) {
	v, ok := m.entries[k]
	return v, ok
}

func (m pmap[K, V]) len() int { return len(m.entries) }

// with returns a new map equal to m plus k=v, leaving m itself
// untouched.
func (m pmap[K, V]) with(k K, v V) pmap[K, V] {
	next := make(map[K]V, len(m.entries)+1)
	for ek, ev := range m.entries {
		next[ek] = ev
	}
	next[k] = v
	return pmap[K, V]{entries: next}
}

// without returns a new map equal to m minus k, leaving m itself
// untouched.
func (m pmap[K, V]) without(k K) pmap[K, V] {
	if _, ok := m.entries[k]; !ok {
		return m
	}
	next := make(map[K]V, len(m.entries))
	for ek, ev := range m.entries {
		if ek == k {
			continue
		}
		next[ek] = ev
	}
	return pmap[K, V]{entries: next}
}

// each calls fn for every entry in an unspecified order. fn must not
// mutate m (it cannot; m is a value receiver over an immutable map).
func (m pmap[K, V]) each(fn func(k K, v V)) {
	for k, v := range m.entries {
		fn(k, v)
	}
}
