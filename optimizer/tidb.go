package optimizer

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sqltune/idxadvisor/catalog"
	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/logx"
	"github.com/sqltune/idxadvisor/stmt"
)

// TiDBCostOracle is the CostOracle backed by a live TiDB connection's
// hypothetical-index support (`create index ... type hypo`, `explain
// format='verbose'`). It holds one session so hypothetical indexes created
// for one EstimateCost call do not leak into another.
type TiDBCostOracle struct {
	db    *sql.DB
	cat   catalog.Catalog
	stats WhatIfOptimizerStats
	debug bool
}

// NewTiDBCostOracle opens a connection to dsn. cat is used to translate the
// interned IndexKeys in a Configuration back into table/column names for the
// generated DDL.
func NewTiDBCostOracle(dsn string, cat catalog.Catalog) (*TiDBCostOracle, error) {
	logx.Debugf("optimizer: connecting to %v", dsn)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %v: %v", ErrOracle, dsn, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: ping %v: %v", ErrOracle, dsn, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &TiDBCostOracle{db: db, cat: cat}, nil
}

// SetDebug prints every statement sent to the server, mirroring the
// teacher's what-if optimizer debug flag.
func (o *TiDBCostOracle) SetDebug(flag bool) { o.debug = flag }

// Stats returns the accumulated statistics.
func (o *TiDBCostOracle) Stats() WhatIfOptimizerStats { return o.stats }

// ResetStats zeroes the accumulated statistics.
func (o *TiDBCostOracle) ResetStats() { o.stats = WhatIfOptimizerStats{} }

// Close releases the underlying connection.
func (o *TiDBCostOracle) Close() error { return o.db.Close() }

func (o *TiDBCostOracle) record(start time.Time, dur *time.Duration, count *int) {
	*dur += time.Since(start)
	*count++
}

func (o *TiDBCostOracle) exec(sqlText string) error {
	defer o.record(time.Now(), &o.stats.ExecuteTime, &o.stats.ExecuteCount)
	if o.debug {
		fmt.Println(sqlText)
	}
	_, err := o.db.Exec(sqlText)
	if err != nil {
		logx.Errorf("optimizer: %v executing %v", err, sqlText)
	}
	return err
}

// EstimateCost creates every index in cfg as a hypothetical index, asks TiDB
// for the verbose plan of s, and drops the hypothetical indexes again
// regardless of outcome.
func (o *TiDBCostOracle) EstimateCost(s *stmt.Statement, cfg *indexkey.Configuration, dbName string) (CostResult, error) {
	if err := o.exec("use " + dbName); err != nil {
		return CostResult{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	type createdIndex struct {
		name   string
		handle indexkey.IndexHandle
	}
	created := make([]createdIndex, 0, cfg.Size())
	defer func() {
		for _, c := range created {
			_ = o.dropHypoIndex(c.handle, c.name)
		}
	}()

	for i, h := range cfg.ToList() {
		name, createStmt, err := o.hypoIndexDDL(h, i)
		if err != nil {
			return CostResult{}, err
		}
		if err := o.exec(createStmt); err != nil {
			return CostResult{}, fmt.Errorf("%w: create hypo index: %v", ErrOracle, err)
		}
		created = append(created, createdIndex{name: name, handle: h})
	}

	defer o.record(time.Now(), &o.stats.GetCostTime, &o.stats.GetCostCount)
	rows, err := o.db.Query("explain format = 'verbose' " + s.Text)
	if err != nil {
		return CostResult{}, fmt.Errorf("%w: explain: %v", ErrOracle, err)
	}
	defer rows.Close()

	var plan strings.Builder
	var rootCost float64
	haveCost := false
	for rows.Next() {
		var id, estRows, estCost, task, obj, opInfo string
		if err := rows.Scan(&id, &estRows, &estCost, &task, &obj, &opInfo); err != nil {
			return CostResult{}, fmt.Errorf("%w: scan explain row: %v", ErrOracle, err)
		}
		fmt.Fprintf(&plan, "%v\t%v\t%v\t%v\t%v\t%v\n", id, estRows, estCost, task, obj, opInfo)
		if !haveCost {
			if c, parseErr := strconv.ParseFloat(estCost, 64); parseErr == nil {
				rootCost = c
				haveCost = true
			}
		}
	}
	if err := rows.Err(); err != nil {
		return CostResult{}, fmt.Errorf("%w: %v", ErrOracle, err)
	}
	if !haveCost {
		return CostResult{}, fmt.Errorf("%w: no cost reported for %q", ErrOracle, s.Text)
	}
	return CostResult{Cost: rootCost, PlanOpaque: plan.String()}, nil
}

func (o *TiDBCostOracle) hypoIndexDDL(h indexkey.IndexHandle, ordinal int) (name, ddl string, err error) {
	dbName, tableName, ok := o.cat.TableName(h.TableID)
	if !ok {
		return "", "", fmt.Errorf("%w: unknown table id %d", ErrOracle, h.TableID)
	}
	colNames := make([]string, 0, len(h.Columns))
	for _, colID := range h.Columns {
		colName, ok := o.cat.ColumnName(h.TableID, colID)
		if !ok {
			return "", "", fmt.Errorf("%w: unknown column id %d on table %d", ErrOracle, colID, h.TableID)
		}
		colNames = append(colNames, colName)
	}
	idxName := fmt.Sprintf("hypo_idx_%d_%d", h.TableID, ordinal)
	ddl = fmt.Sprintf("create index %v type hypo on %v.%v (%v)",
		idxName, dbName, tableName, strings.Join(colNames, ", "))
	return idxName, ddl, nil
}

func (o *TiDBCostOracle) dropHypoIndex(h indexkey.IndexHandle, name string) error {
	dbName, tableName, ok := o.cat.TableName(h.TableID)
	if !ok {
		return fmt.Errorf("%w: unknown table id %d", ErrOracle, h.TableID)
	}
	return o.exec(fmt.Sprintf("drop hypo index %v on %v.%v", name, dbName, tableName))
}
