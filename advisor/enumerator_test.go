package advisor

import (
	"errors"
	"testing"

	"github.com/sqltune/idxadvisor/extractor"
	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/optimizer"
	"github.com/sqltune/idxadvisor/stmt"
)

// db=1, table t has oid 10, columns a=100, b=101, c=102 (spec §8 scenario setup).
func col(id int) stmt.ColumnRef {
	return stmt.ColumnRef{Column: stmt.ColumnID{DBID: 1, TableID: 10, ColumnID: id}, Bound: true}
}

func lit(text string) stmt.Value { return stmt.Value{Text: text} }

func defaultKnobs() Knobs {
	return Knobs{MaxCols: 2, MinEnumerateCount: 2, NumIndexes: 3}
}

func mustCanon(t *testing.T, cfg *indexkey.Configuration, want ...indexkey.IndexKey) {
	t.Helper()
	if cfg.Size() != len(want) {
		t.Fatalf("expected %d index/es, got %d: %v", len(want), cfg.Size(), cfg)
	}
	for i, h := range cfg.ToList() {
		if h.Canonical() != want[i].Canonical() {
			t.Fatalf("expected %v at position %d, got %v", want[i].Canonical(), i, h.Canonical())
		}
	}
}

// Scenario 1: single-column WHERE.
func TestBestIndexesSingleColumnWhere(t *testing.T) {
	q := &stmt.Statement{
		Kind:  stmt.KindSelect,
		Text:  "select * from t where a = 1",
		Where: stmt.Compare{Op: stmt.OpEQ, LHS: col(100), RHS: lit("1")},
	}
	workload := stmt.Workload{DBName: "shop", Queries: []*stmt.Statement{q}}

	oracle := optimizer.NewMockOracle(0)
	pool := indexkey.NewPool()
	a := pool.Intern(indexkey.New(1, 10, 100))
	oracle.Set(q, indexkey.NewConfiguration(), 100)
	oracle.Set(q, indexkey.NewConfiguration(a), 10)

	e := &Enumerator{Oracle: oracle, Pool: pool, Knobs: defaultKnobs()}
	got, err := e.BestIndexes(workload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustCanon(t, got, indexkey.New(1, 10, 100))
}

// Scenario 2: composite AND, where the 2-column merge discovered during
// multi-column growth beats every alternative.
func TestBestIndexesCompositeFromAnd(t *testing.T) {
	q := &stmt.Statement{
		Kind: stmt.KindSelect,
		Text: "select * from t where a = 1 and b = 2",
		Where: stmt.AndOr{
			Left:  stmt.Compare{Op: stmt.OpEQ, LHS: col(100), RHS: lit("1")},
			Right: stmt.Compare{Op: stmt.OpEQ, LHS: col(101), RHS: lit("2")},
		},
	}
	workload := stmt.Workload{DBName: "shop", Queries: []*stmt.Statement{q}}

	pool := indexkey.NewPool()
	a := pool.Intern(indexkey.New(1, 10, 100))
	b := pool.Intern(indexkey.New(1, 10, 101))
	ab := pool.Intern(indexkey.Merge(*a, *b))

	oracle := optimizer.NewMockOracle(60) // "others >= 60"
	oracle.Set(q, indexkey.NewConfiguration(), 100)
	oracle.Set(q, indexkey.NewConfiguration(a), 60)
	oracle.Set(q, indexkey.NewConfiguration(b), 70)
	oracle.Set(q, indexkey.NewConfiguration(ab), 5)

	e := &Enumerator{Oracle: oracle, Pool: pool, Knobs: defaultKnobs()}
	got, err := e.BestIndexes(workload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustCanon(t, got, indexkey.Merge(indexkey.New(1, 10, 100), indexkey.New(1, 10, 101)))
}

// Scenario 3: ORDER BY benefit.
func TestBestIndexesOrderByBenefit(t *testing.T) {
	q := &stmt.Statement{
		Kind:    stmt.KindSelect,
		Text:    "select a from t order by c",
		OrderBy: []stmt.ColumnRef{col(102)},
	}
	workload := stmt.Workload{DBName: "shop", Queries: []*stmt.Statement{q}}

	pool := indexkey.NewPool()
	c := pool.Intern(indexkey.New(1, 10, 102))
	oracle := optimizer.NewMockOracle(50)
	oracle.Set(q, indexkey.NewConfiguration(), 50)
	oracle.Set(q, indexkey.NewConfiguration(c), 5)

	e := &Enumerator{Oracle: oracle, Pool: pool, Knobs: defaultKnobs()}
	got, err := e.BestIndexes(workload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustCanon(t, got, indexkey.New(1, 10, 102))
}

// Scenario 4: unsupported expression fails the whole invocation.
func TestBestIndexesUnsupportedExpression(t *testing.T) {
	q := &stmt.Statement{
		Kind:  stmt.KindSelect,
		Text:  "select * from t where f(a) = 1",
		Where: stmt.Compare{Op: stmt.OpEQ, LHS: stmt.Other{Kind: "FuncCall"}, RHS: lit("1")},
	}
	workload := stmt.Workload{DBName: "shop", Queries: []*stmt.Statement{q}}

	e := &Enumerator{Oracle: optimizer.NewMockOracle(0), Knobs: defaultKnobs()}
	_, err := e.BestIndexes(workload)
	if !errors.Is(err, extractor.ErrUnsupportedExpression) {
		t.Fatalf("expected ErrUnsupportedExpression, got %v", err)
	}
}

// Scenario 5: greedy stops once no candidate improves cost further.
func TestBestIndexesGreedyStopsWithoutImprovement(t *testing.T) {
	q1 := &stmt.Statement{
		Kind:  stmt.KindSelect,
		Text:  "select * from t where a = 1",
		Where: stmt.Compare{Op: stmt.OpEQ, LHS: col(100), RHS: lit("1")},
	}
	q2 := &stmt.Statement{
		Kind:  stmt.KindSelect,
		Text:  "select * from t where b = 2",
		Where: stmt.Compare{Op: stmt.OpEQ, LHS: col(101), RHS: lit("2")},
	}
	workload := stmt.Workload{DBName: "shop", Queries: []*stmt.Statement{q1, q2}}

	pool := indexkey.NewPool()
	a := pool.Intern(indexkey.New(1, 10, 100))
	b := pool.Intern(indexkey.New(1, 10, 101))
	c := pool.Intern(indexkey.New(1, 10, 102))
	ab := pool.Intern(indexkey.Merge(*a, *b))

	oracle := optimizer.NewMockOracle(50)
	for _, q := range []*stmt.Statement{q1, q2} {
		oracle.Set(q, indexkey.NewConfiguration(), 50)
		oracle.Set(q, indexkey.NewConfiguration(a), 20)
		oracle.Set(q, indexkey.NewConfiguration(b), 20)
		oracle.Set(q, indexkey.NewConfiguration(a, b), 20)
		oracle.Set(q, indexkey.NewConfiguration(ab), 20)
		oracle.Set(q, indexkey.NewConfiguration(a, b, c), 20)
		oracle.Set(q, indexkey.NewConfiguration(a, c), 20)
		oracle.Set(q, indexkey.NewConfiguration(b, c), 20)
	}

	e := &Enumerator{Oracle: oracle, Pool: pool, Knobs: defaultKnobs()}
	got, err := e.BestIndexes(workload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Contains(c) {
		t.Fatalf("expected column c not to be selected once it stops improving cost, got %v", got)
	}
	if !got.Contains(a) || !got.Contains(b) {
		t.Fatalf("expected both a and b selected, got %v", got)
	}
}

// Scenario 6: per-query result size never exceeds k.
func TestBestIndexesRespectsKPerQuery(t *testing.T) {
	where := stmt.Expr(stmt.Compare{Op: stmt.OpEQ, LHS: col(100), RHS: lit("1")})
	for _, extra := range []stmt.ColumnRef{col(101), col(102), col(103), col(104)} {
		where = stmt.AndOr{Left: where, Right: stmt.Compare{Op: stmt.OpEQ, LHS: extra, RHS: lit("1")}}
	}
	q := &stmt.Statement{Kind: stmt.KindSelect, Text: "select * from t where a=1 and b=1 and c=1 and d=1 and e=1", Where: where}
	workload := stmt.Workload{DBName: "shop", Queries: []*stmt.Statement{q}}

	for _, k := range []int{2, 5} {
		pool := indexkey.NewPool()
		oracle := optimizer.NewMockOracle(0)

		// monotonically improving: cost = 100 - 10*size(config), floor 0.
		handles := make([]indexkey.IndexHandle, 0, 5)
		for _, id := range []int{100, 101, 102, 103, 104} {
			handles = append(handles, pool.Intern(indexkey.New(1, 10, id)))
		}
		registerMonotone(oracle, q, handles)

		e := &Enumerator{Oracle: oracle, Pool: pool, Knobs: Knobs{MaxCols: 1, MinEnumerateCount: 2, NumIndexes: k}}
		got, err := e.BestIndexes(workload)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if got.Size() > k {
			t.Fatalf("k=%d: expected per-query result size <= %d, got %d", k, k, got.Size())
		}
	}
}

// registerMonotone assigns decreasing costs as more handles are present, so
// the greedy phase always has an improving choice up to len(handles).
func registerMonotone(oracle *optimizer.MockOracle, q *stmt.Statement, handles []indexkey.IndexHandle) {
	costFor := func(n int) float64 { return 100 - 10*float64(n) }

	for mask := 0; mask < 1<<len(handles); mask++ {
		var subset []indexkey.IndexHandle
		for i, h := range handles {
			if mask&(1<<i) != 0 {
				subset = append(subset, h)
			}
		}
		oracle.Set(q, indexkey.NewConfiguration(subset...), costFor(len(subset)))
	}
}

func TestEmptyWorkloadReturnsEmptyConfiguration(t *testing.T) {
	e := &Enumerator{Oracle: optimizer.NewMockOracle(0), Knobs: defaultKnobs()}
	got, err := e.BestIndexes(stmt.Workload{DBName: "shop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Size() != 0 {
		t.Fatalf("expected empty configuration, got %v", got)
	}
}

func TestInvalidKnobsRejected(t *testing.T) {
	q := &stmt.Statement{Kind: stmt.KindSelect, Text: "select 1"}
	workload := stmt.Workload{DBName: "shop", Queries: []*stmt.Statement{q}}
	e := &Enumerator{Oracle: optimizer.NewMockOracle(0), Knobs: Knobs{MaxCols: 2, MinEnumerateCount: 3, NumIndexes: 2}}
	_, err := e.BestIndexes(workload)
	if !errors.Is(err, ErrInvalidKnobs) {
		t.Fatalf("expected ErrInvalidKnobs, got %v", err)
	}
}
