package optimizer

import (
	"testing"

	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/stmt"
)

func TestMockOracleDefaultCost(t *testing.T) {
	m := NewMockOracle(100)
	s := &stmt.Statement{Text: "select 1"}
	cfg := indexkey.NewConfiguration()
	res, err := m.EstimateCost(s, cfg, "shop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cost != 100 {
		t.Fatalf("expected default cost 100, got %v", res.Cost)
	}
}

func TestMockOracleRegisteredCost(t *testing.T) {
	m := NewMockOracle(100)
	s := &stmt.Statement{Text: "select 1"}
	pool := indexkey.NewPool()
	h := pool.Intern(indexkey.New(1, 10, 100))
	cfg := indexkey.NewConfiguration(h)

	m.Set(s, cfg, 5)
	res, err := m.EstimateCost(s, cfg, "shop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cost != 5 {
		t.Fatalf("expected registered cost 5, got %v", res.Cost)
	}

	empty := indexkey.NewConfiguration()
	res, err = m.EstimateCost(s, empty, "shop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Cost != 100 {
		t.Fatalf("expected default cost for an unregistered configuration, got %v", res.Cost)
	}
}

func TestMockOracleKeyedByStatementIdentity(t *testing.T) {
	m := NewMockOracle(100)
	s1 := &stmt.Statement{Text: "select 1"}
	s2 := &stmt.Statement{Text: "select 1"} // same text, different identity
	cfg := indexkey.NewConfiguration()

	m.Set(s1, cfg, 1)
	res, _ := m.EstimateCost(s2, cfg, "shop")
	if res.Cost != 100 {
		t.Fatalf("expected s2 to be unaffected by s1's registration, got %v", res.Cost)
	}
}

func TestStatsFormat(t *testing.T) {
	s := WhatIfOptimizerStats{ExecuteCount: 3, GetCostCount: 2}
	out := s.Format()
	if out == "" {
		t.Fatalf("expected non-empty formatted stats")
	}
}
