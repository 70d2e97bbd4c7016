package indexkey

// IndexHandle is a shared, non-owning reference to an IndexKey interned in
// a Pool. Two handles referring to the same interned key compare equal by
// identity (a plain Go pointer comparison) -- there is no need to compare
// the underlying keys field-by-field once they have gone through a Pool.
// Handles are cheap to copy; ownership of the pointed-to IndexKey is
// shared across every Configuration that holds the handle.
type IndexHandle = *IndexKey

// Pool is a content-addressed store of IndexKeys: interning the same key
// twice returns the same handle, so configurations built from interned
// handles can compare and hash by identity instead of deep key equality.
//
// A Pool is owned by exactly one Enumerator run (spec §5); it is not safe
// for concurrent use.
type Pool struct {
	byCanon map[string]IndexHandle
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{byCanon: make(map[string]IndexHandle)}
}

// Intern returns the existing handle for an equal key, or inserts key and
// returns a freshly minted handle. intern(k1) == intern(k2) iff k1 == k2,
// for the lifetime of the pool.
func (p *Pool) Intern(key IndexKey) IndexHandle {
	canon := key.Canonical()
	if h, ok := p.byCanon[canon]; ok {
		return h
	}
	h := &key
	p.byCanon[canon] = h
	return h
}

// Lookup is a non-inserting lookup.
func (p *Pool) Lookup(key IndexKey) (IndexHandle, bool) {
	h, ok := p.byCanon[key.Canonical()]
	return h, ok
}

// Size returns the number of distinct keys interned so far.
func (p *Pool) Size() int {
	return len(p.byCanon)
}
