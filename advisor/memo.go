package advisor

import (
	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/stmt"
)

// memoKey identifies one (Configuration, statement) cost lookup. Statement
// identity is the statement's pointer, per spec §4.4; Configuration identity
// is its canonical string, which is already insertion-order independent.
type memoKey struct {
	stmtPtr *stmt.Statement
	canon   string
}

// Memo caches CostOracle results for the lifetime of one Enumerator run
// (spec §3: "Lifetime equals the Enumerator instance"). It is not safe for
// concurrent use.
type Memo struct {
	entries map[memoKey]float64
}

// NewMemo returns an empty memo.
func NewMemo() *Memo {
	return &Memo{entries: make(map[memoKey]float64)}
}

func (m *Memo) key(s *stmt.Statement, cfg *indexkey.Configuration) memoKey {
	return memoKey{stmtPtr: s, canon: cfg.Canonical()}
}

// Get returns the cached cost for (s, cfg), if present.
func (m *Memo) Get(s *stmt.Statement, cfg *indexkey.Configuration) (float64, bool) {
	v, ok := m.entries[m.key(s, cfg)]
	return v, ok
}

// Put records the cost for (s, cfg).
func (m *Memo) Put(s *stmt.Statement, cfg *indexkey.Configuration, cost float64) {
	m.entries[m.key(s, cfg)] = cost
}

// Len returns the number of distinct (statement, configuration) pairs
// currently memoized.
func (m *Memo) Len() int {
	return len(m.entries)
}
