// Package advisor implements the core two-phase index selection algorithm:
// an exhaustive seed over small subsets of admissible indexes, followed by
// greedy extension, evaluated against a what-if CostOracle. It is the
// Go re-expression of the auto-admin style algorithm from Chaudhuri and
// Narasayya's "An Efficient Cost-Driven Index Selection Tool for Microsoft
// SQL Server" (VLDB 1997), grounded on this repository's own earlier
// auto-admin implementation and on Peloton's IndexSelection (GetBestIndexes
// / Enumerate / ExhaustiveEnumeration / GreedySearch / Crossproduct).
package advisor

import (
	"fmt"
	"math"

	"github.com/sqltune/idxadvisor/extractor"
	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/logx"
	"github.com/sqltune/idxadvisor/optimizer"
	"github.com/sqltune/idxadvisor/stmt"
)

// Enumerator is the single-invocation search described by the core module:
// no persistent state machine, a fresh computation each BestIndexes call.
// The IndexPool and Memo are owned exclusively by one Enumerator run.
type Enumerator struct {
	Oracle optimizer.CostOracle
	Pool   *indexkey.Pool
	Knobs  Knobs

	memo *Memo
}

// BestIndexes implements the public entry point: for each query in the
// workload, extract its admissible columns, grow them into multi-column
// candidates, run the two-phase search, and union the per-query results.
func (e *Enumerator) BestIndexes(workload stmt.Workload) (*indexkey.Configuration, error) {
	if err := e.Knobs.Validate(); err != nil {
		return nil, err
	}
	if len(workload.Queries) == 0 {
		logx.Debugf("advisor: empty workload, returning empty configuration")
		return indexkey.NewConfiguration(), nil
	}
	if e.Pool == nil {
		e.Pool = indexkey.NewPool()
	}
	if e.memo == nil {
		e.memo = NewMemo()
	}

	result := indexkey.NewConfiguration()
	for _, q := range workload.Queries {
		admissible, err := extractor.Extract(e.Pool, q, e.Knobs.IncludeUpdatedColumns)
		if err != nil {
			return nil, err
		}
		candidates := e.growMultiColumn(admissible)
		perQuery := []*stmt.Statement{q}
		cq, err := e.enumerate(candidates, perQuery, workload.DBName)
		if err != nil {
			return nil, err
		}
		logx.Debugf("advisor: query %q -> %d candidate(s), %d selected", q.Text, candidates.Size(), cq.Size())
		result.UnionWith(cq)
	}
	return result, nil
}

// growMultiColumn implements spec §4.5.1: starting from the single-column
// admissible set s1, repeatedly cross-product the previous generation
// against s1 to build wider merged indexes, up to Knobs.MaxCols columns,
// and returns the union of every generation (including s1 itself).
func (e *Enumerator) growMultiColumn(s1 *indexkey.Configuration) *indexkey.Configuration {
	result := s1.Clone()
	current := s1
	for width := 2; width <= e.Knobs.MaxCols; width++ {
		next := crossproduct(e.Pool, current, s1)
		if next.Size() == 0 {
			break
		}
		result.UnionWith(next)
		current = next
	}
	return result
}

// crossproduct merges every compatible (same table) pair of handles drawn
// from a and b, interning the result so repeated merges resolve to the same
// handle. Self-merges (merge(h,h) == h) are skipped.
func crossproduct(pool *indexkey.Pool, a, b *indexkey.Configuration) *indexkey.Configuration {
	out := indexkey.NewConfiguration()
	for _, x := range a.ToList() {
		for _, y := range b.ToList() {
			if !x.Compatible(*y) {
				continue
			}
			merged := indexkey.Merge(*x, *y)
			if merged.Canonical() == x.Canonical() {
				continue
			}
			out.Add(pool.Intern(merged))
		}
	}
	return out
}

// enumerate implements spec §4.5.2's two-phase search for one query
// (candidates already include the original admissible columns plus every
// multi-column generation grown from them).
func (e *Enumerator) enumerate(candidates *indexkey.Configuration, queries []*stmt.Statement, dbName string) (*indexkey.Configuration, error) {
	handles := candidates.ToList()
	seed, err := e.exhaustiveSeed(handles, queries, dbName)
	if err != nil {
		return nil, err
	}
	return e.greedyExtend(seed, handles, queries, dbName)
}

// exhaustiveSeed enumerates every non-empty subset of candidates with size
// at most Knobs.MinEnumerateCount (spec §4.5.3's breadth-first running/result
// expansion), evaluates each via cost, and returns the cheapest -- ties
// broken by canonical string, per spec §4.5.2.
func (e *Enumerator) exhaustiveSeed(candidates []indexkey.IndexHandle, queries []*stmt.Statement, dbName string) (*indexkey.Configuration, error) {
	m := e.Knobs.MinEnumerateCount
	subsets := generateSubsetsUpToSize(candidates, m)

	var best *indexkey.Configuration
	var bestCost float64
	for _, sub := range subsets {
		c, err := e.cost(sub, queries, dbName)
		if err != nil {
			return nil, err
		}
		if best == nil || c < bestCost || (c == bestCost && sub.Canonical() < best.Canonical()) {
			best = sub
			bestCost = c
		}
	}
	if best == nil {
		return indexkey.NewConfiguration(), nil
	}
	return best, nil
}

// generateSubsetsUpToSize breadth-first expands candidates into every
// non-empty subset of size <= m, deduplicated by canonical string. A subset
// stops growing once it reaches size m.
func generateSubsetsUpToSize(candidates []indexkey.IndexHandle, m int) []*indexkey.Configuration {
	empty := indexkey.NewConfiguration()
	running := map[string]*indexkey.Configuration{empty.Canonical(): empty}
	result := map[string]*indexkey.Configuration{}

	for _, h := range candidates {
		snapshot := make([]*indexkey.Configuration, 0, len(running))
		for _, t := range running {
			snapshot = append(snapshot, t)
		}
		for _, t := range snapshot {
			next := t.Clone()
			next.Add(h)
			canon := next.Canonical()
			if next.Size() >= m {
				result[canon] = next
			} else {
				running[canon] = next
			}
		}
	}
	for canon, t := range running {
		if t.Size() == 0 {
			continue
		}
		result[canon] = t
	}

	out := make([]*indexkey.Configuration, 0, len(result))
	for _, v := range result {
		out = append(out, v)
	}
	return out
}

// greedyExtend implements spec §4.5.2 step 2: repeatedly add the remaining
// handle that most improves cost, stopping when no handle strictly improves
// it or the configuration reaches Knobs.NumIndexes members.
func (e *Enumerator) greedyExtend(seed *indexkey.Configuration, candidates []indexkey.IndexHandle, queries []*stmt.Statement, dbName string) (*indexkey.Configuration, error) {
	current := seed.Clone()
	remaining := remainingHandles(candidates, current)

	currentCost, err := e.cost(current, queries, dbName)
	if err != nil {
		return nil, err
	}

	for len(remaining) > 0 && current.Size() < e.Knobs.NumIndexes {
		bestCost := currentCost
		var bestHandle indexkey.IndexHandle
		improved := false

		for _, h := range remaining {
			trial := current.Clone()
			trial.Add(h)
			c, err := e.cost(trial, queries, dbName)
			if err != nil {
				return nil, err
			}
			if c < bestCost {
				bestCost = c
				bestHandle = h
				improved = true
			}
		}

		if !improved {
			break
		}
		current.Add(bestHandle)
		remaining = removeHandle(remaining, bestHandle)
		currentCost = bestCost
	}

	return current, nil
}

// remainingHandles returns the members of candidates not already in cfg, in
// the canonical order candidates was built in.
func remainingHandles(candidates []indexkey.IndexHandle, cfg *indexkey.Configuration) []indexkey.IndexHandle {
	out := make([]indexkey.IndexHandle, 0, len(candidates))
	for _, h := range candidates {
		if !cfg.Contains(h) {
			out = append(out, h)
		}
	}
	return out
}

func removeHandle(handles []indexkey.IndexHandle, target indexkey.IndexHandle) []indexkey.IndexHandle {
	out := make([]indexkey.IndexHandle, 0, len(handles))
	for _, h := range handles {
		if h != target {
			out = append(out, h)
		}
	}
	return out
}

// cost sums the oracle's per-statement cost for cfg over queries, consulting
// and populating the memo so the oracle is invoked at most once per
// (configuration, statement) pair (spec §8 invariant 6).
func (e *Enumerator) cost(cfg *indexkey.Configuration, queries []*stmt.Statement, dbName string) (float64, error) {
	var total float64
	for _, q := range queries {
		if c, ok := e.memo.Get(q, cfg); ok {
			total += c
			continue
		}
		res, err := e.Oracle.EstimateCost(q, cfg, dbName)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", optimizer.ErrOracle, err)
		}
		if math.IsNaN(res.Cost) || math.IsInf(res.Cost, 0) {
			return 0, fmt.Errorf("%w: oracle returned a non-finite cost for %q", optimizer.ErrOracle, q.Text)
		}
		e.memo.Put(q, cfg, res.Cost)
		total += res.Cost
	}
	return total, nil
}

// PruneUselessIndexes removes any handle whose presence alone never reduces
// the cost of any single query in the workload, compared to the empty
// configuration (spec §4.5.4). It is optional and not called by
// BestIndexes; applying it twice is a no-op.
func (e *Enumerator) PruneUselessIndexes(candidates *indexkey.Configuration, queries []*stmt.Statement, dbName string) (*indexkey.Configuration, error) {
	if e.memo == nil {
		e.memo = NewMemo()
	}
	empty := indexkey.NewConfiguration()
	out := indexkey.NewConfiguration()

	for _, h := range candidates.ToList() {
		singleton := indexkey.NewConfiguration(h)
		useful := false
		for _, q := range queries {
			without, err := e.cost(empty, []*stmt.Statement{q}, dbName)
			if err != nil {
				return nil, err
			}
			with, err := e.cost(singleton, []*stmt.Statement{q}, dbName)
			if err != nil {
				return nil, err
			}
			if with < without {
				useful = true
				break
			}
		}
		if useful {
			out.Add(h)
		}
	}
	return out, nil
}
