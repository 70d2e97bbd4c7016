package indexkey

import (
	"sort"
	"strings"
)

// Configuration is a set of IndexHandles, iterated in a deterministic order
// (sorted by each member's canonical string). Equality and hashing are
// pure functions of the set of member identities -- insertion order never
// matters.
type Configuration struct {
	members map[IndexHandle]struct{}
}

// NewConfiguration builds a configuration from zero or more handles.
func NewConfiguration(handles ...IndexHandle) *Configuration {
	c := &Configuration{members: make(map[IndexHandle]struct{}, len(handles))}
	for _, h := range handles {
		c.Add(h)
	}
	return c
}

// Add inserts h; a no-op if h is already a member.
func (c *Configuration) Add(h IndexHandle) {
	if c.members == nil {
		c.members = make(map[IndexHandle]struct{})
	}
	c.members[h] = struct{}{}
}

// Remove deletes h; a no-op if h is absent.
func (c *Configuration) Remove(h IndexHandle) {
	delete(c.members, h)
}

// Size returns the number of members.
func (c *Configuration) Size() int {
	return len(c.members)
}

// Contains reports whether h is a member.
func (c *Configuration) Contains(h IndexHandle) bool {
	_, ok := c.members[h]
	return ok
}

// ToList returns the members in canonical order (spec §3: sorted by
// canonical string).
func (c *Configuration) ToList() []IndexHandle {
	list := make([]IndexHandle, 0, len(c.members))
	for h := range c.members {
		list = append(list, h)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Canonical() < list[j].Canonical()
	})
	return list
}

// Clone returns a shallow copy -- the handles themselves are shared (they
// are owned by the pool), only set membership is duplicated.
func (c *Configuration) Clone() *Configuration {
	clone := &Configuration{members: make(map[IndexHandle]struct{}, len(c.members))}
	for h := range c.members {
		clone.members[h] = struct{}{}
	}
	return clone
}

// Difference returns the members of c that are not in other. Per spec §8
// property 3: Difference(other) ∩ other = ∅ and Difference(other) ⊆ c.
func (c *Configuration) Difference(other *Configuration) *Configuration {
	result := &Configuration{members: make(map[IndexHandle]struct{})}
	for h := range c.members {
		if !other.Contains(h) {
			result.members[h] = struct{}{}
		}
	}
	return result
}

// UnionWith mutates c in place to be the union of c and other.
func (c *Configuration) UnionWith(other *Configuration) {
	if c.members == nil {
		c.members = make(map[IndexHandle]struct{}, len(other.members))
	}
	for h := range other.members {
		c.members[h] = struct{}{}
	}
}

// Union returns a new configuration holding every member of every operand,
// without mutating any of them.
func Union(configs ...*Configuration) *Configuration {
	result := NewConfiguration()
	for _, c := range configs {
		result.UnionWith(c)
	}
	return result
}

// Equal reports set equality: same members, regardless of insertion order.
func (c *Configuration) Equal(other *Configuration) bool {
	if c.Size() != other.Size() {
		return false
	}
	for h := range c.members {
		if !other.Contains(h) {
			return false
		}
	}
	return true
}

// Canonical is the concatenation of members' canonical strings in
// canonical order; it defines Configuration identity for display and memo
// guarding purposes.
func (c *Configuration) Canonical() string {
	list := c.ToList()
	parts := make([]string, len(list))
	for i, h := range list {
		parts[i] = h.Canonical()
	}
	return strings.Join(parts, "|")
}

// Hash implements spec §9's "Configuration hashing under set semantics"
// note: XOR of each member's string hash, so two configurations equal as
// sets hash identically regardless of insertion order (unlike hashing the
// concatenated canonical string, which is order-sensitive without a sort).
func (c *Configuration) Hash() uint64 {
	var h uint64
	for handle := range c.members {
		h ^= fnv64a(handle.Canonical())
	}
	return h
}

// Less defines the total order used only for tie-breaking in enumeration
// and deterministic test output (spec §4.2): first by size ascending, then
// by canonical string ascending.
func (c *Configuration) Less(other *Configuration) bool {
	if c.Size() != other.Size() {
		return c.Size() < other.Size()
	}
	return c.Canonical() < other.Canonical()
}

func (c *Configuration) String() string {
	return "{" + strings.Join(canonList(c), ", ") + "}"
}

func canonList(c *Configuration) []string {
	list := c.ToList()
	out := make([]string, len(list))
	for i, h := range list {
		out[i] = h.Canonical()
	}
	return out
}

// fnv64a is the 64-bit FNV-1a hash, used to combine member canonical
// strings order-independently via XOR.
func fnv64a(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}
