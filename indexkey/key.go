// Package indexkey implements the advisor's data model of hypothetical
// indexes: IndexKey, the content-addressed IndexPool that interns them into
// IndexHandles, and Configuration, the set of handles the rest of the
// advisor searches over.
package indexkey

import (
	"fmt"
	"strconv"
	"strings"
)

// IndexKey is an immutable value identifying one hypothetical index: a
// database, a table within it, and an ordered, duplicate-free list of
// column ids. Column order is significant -- (a,b) and (b,a) are distinct
// keys.
type IndexKey struct {
	DBID    int
	TableID int
	Columns []int
}

// New builds an IndexKey, panicking if the columns list is empty or
// contains a duplicate -- violating either invariant is a programming
// error in the caller, not a recoverable input condition.
func New(dbID, tableID int, columns ...int) IndexKey {
	if len(columns) == 0 {
		panic("indexkey: columns must be non-empty")
	}
	seen := make(map[int]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			panic(fmt.Sprintf("indexkey: duplicate column %d", c))
		}
		seen[c] = true
	}
	cols := make([]int, len(columns))
	copy(cols, columns)
	return IndexKey{DBID: dbID, TableID: tableID, Columns: cols}
}

// Canonical returns the "db/table/c1,c2,..." form that defines equality,
// hashing and the total order used to tie-break the search.
func (k IndexKey) Canonical() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(k.DBID))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(k.TableID))
	b.WriteByte('/')
	for i, c := range k.Columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}

// Equal reports whether two keys are the same db/table/ordered-columns.
func (k IndexKey) Equal(other IndexKey) bool {
	return k.Canonical() == other.Canonical()
}

// Less defines the total order over keys used for deterministic tie-break
// output; it is unrelated to set equality (spec §4.2).
func (k IndexKey) Less(other IndexKey) bool {
	return k.Canonical() < other.Canonical()
}

// Compatible reports whether two keys could be merged: same database and
// table.
func (k IndexKey) Compatible(other IndexKey) bool {
	return k.DBID == other.DBID && k.TableID == other.TableID
}

// Merge concatenates k's columns with other's columns that are not already
// present, preserving order (spec §3). It panics if the two keys are not
// compatible -- callers must check Compatible first, exactly like the
// crossproduct step in the Enumerator does.
func Merge(a, b IndexKey) IndexKey {
	if !a.Compatible(b) {
		panic("indexkey: cannot merge incompatible keys")
	}
	present := make(map[int]bool, len(a.Columns)+len(b.Columns))
	cols := make([]int, 0, len(a.Columns)+len(b.Columns))
	for _, c := range a.Columns {
		if !present[c] {
			present[c] = true
			cols = append(cols, c)
		}
	}
	for _, c := range b.Columns {
		if !present[c] {
			present[c] = true
			cols = append(cols, c)
		}
	}
	return IndexKey{DBID: a.DBID, TableID: a.TableID, Columns: cols}
}
