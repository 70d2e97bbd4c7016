// Package optimizer supplies the what-if CostOracle the advisor asks to
// price a (query, hypothetical configuration) pair (spec §4.4). The real
// oracle talks to a running TiDB server's hypothetical-index support; tests
// use an in-memory stand-in instead.
package optimizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/stmt"
)

// ErrOracle wraps any failure the underlying what-if optimizer reports,
// whether a connection error or a cost the enumerator cannot trust (NaN/Inf).
var ErrOracle = errors.New("optimizer: oracle error")

// CostResult is what a CostOracle returns for one (statement, configuration)
// evaluation.
type CostResult struct {
	Cost      float64
	PlanOpaque string // EXPLAIN output, kept around for diagnostics only
}

// CostOracle estimates what a statement would cost to run under a
// hypothetical Configuration, without ever materializing any index (spec
// §4.4). Implementations must be deterministic for a fixed (stmt,
// Configuration) pair within one advisor run; the advisor package memoizes
// on top of that assumption and never relies on an oracle for additional
// caching.
type CostOracle interface {
	EstimateCost(s *stmt.Statement, cfg *indexkey.Configuration, dbName string) (CostResult, error)
}

// WhatIfOptimizerStats records how much work an oracle implementation has
// done, for diagnostics the same way the teacher's what-if optimizer
// reports Execute/CreateOrDropHypoIndex/GetCost counters.
type WhatIfOptimizerStats struct {
	ExecuteCount             int
	ExecuteTime              time.Duration
	CreateOrDropHypoIdxCount int
	CreateOrDropHypoIdxTime  time.Duration
	GetCostCount             int
	GetCostTime              time.Duration
}

// Format renders the statistics as a single line.
func (s WhatIfOptimizerStats) Format() string {
	return fmt.Sprintf(`Execute(count/time): (%v/%v), CreateOrDropHypoIndex: (%v/%v), GetCost: (%v/%v)`,
		s.ExecuteCount, s.ExecuteTime, s.CreateOrDropHypoIdxCount, s.CreateOrDropHypoIdxTime, s.GetCostCount, s.GetCostTime)
}
