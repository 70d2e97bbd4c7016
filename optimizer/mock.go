package optimizer

import (
	"fmt"

	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/stmt"
)

// MockOracle is a deterministic, in-memory CostOracle for tests. Costs are
// keyed by (statement pointer, configuration canonical string), so two
// statements with the same text are distinct; any unregistered pair
// returns DefaultCost.
type MockOracle struct {
	DefaultCost float64
	costs       map[string]float64
	Calls       int
}

// NewMockOracle returns a MockOracle whose unregistered pairs cost
// defaultCost.
func NewMockOracle(defaultCost float64) *MockOracle {
	return &MockOracle{DefaultCost: defaultCost, costs: make(map[string]float64)}
}

// Set registers the cost of running s under cfg.
func (m *MockOracle) Set(s *stmt.Statement, cfg *indexkey.Configuration, cost float64) {
	m.costs[mockKey(s, cfg)] = cost
}

func mockKey(s *stmt.Statement, cfg *indexkey.Configuration) string {
	return fmt.Sprintf("%p|%s", s, cfg.Canonical())
}

// EstimateCost implements CostOracle.
func (m *MockOracle) EstimateCost(s *stmt.Statement, cfg *indexkey.Configuration, dbName string) (CostResult, error) {
	m.Calls++
	if c, ok := m.costs[mockKey(s, cfg)]; ok {
		return CostResult{Cost: c}, nil
	}
	return CostResult{Cost: m.DefaultCost}, nil
}
