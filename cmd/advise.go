package cmd

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sqltune/idxadvisor/advisor"
	"github.com/sqltune/idxadvisor/catalog"
	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/optimizer"
	"github.com/sqltune/idxadvisor/stmt"
)

type adviseCmdOpt struct {
	maxNumIndexes     int
	maxIndexWidth     int
	minEnumerateCount int

	dsn          string
	schemaName   string
	workloadPath string
	queries      string
	logLevel     string
}

// NewAdviseCmd builds the `advise` command: load a workload (schema.sql +
// queries), run binder -> advisor.Enumerator.BestIndexes against a live
// TiDB's what-if oracle, and print/save the recommended CREATE INDEX DDL
// plus a before/after cost comparison, matching the teacher's
// cmd.PrintAndSaveAdviseResult.
func NewAdviseCmd() *cobra.Command {
	var opt adviseCmdOpt
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "advise some indexes for the specified workload",
		Long:  `advise some indexes for the specified workload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setLogLevel(opt.logLevel)

			cat, queries, err := loadWorkload(opt.schemaName, opt.workloadPath)
			if err != nil {
				return err
			}
			queries = filterByAlias(queries, opt.queries)

			oracle, err := optimizer.NewTiDBCostOracle(opt.dsn, cat)
			if err != nil {
				return err
			}
			defer oracle.Close()

			workload := stmt.Workload{DBName: opt.schemaName}
			for _, q := range queries {
				workload.Queries = append(workload.Queries, q.Stmt)
			}

			e := &advisor.Enumerator{
				Oracle: oracle,
				Pool:   indexkey.NewPool(),
				Knobs: advisor.Knobs{
					MaxCols:           opt.maxIndexWidth,
					MinEnumerateCount: opt.minEnumerateCount,
					NumIndexes:        opt.maxNumIndexes,
				},
			}
			recommended, err := e.BestIndexes(workload)
			if err != nil {
				return err
			}

			savePath := path.Join(opt.workloadPath, "advise-result")
			return printAndSaveAdviseResult(savePath, cat, recommended, queries, oracle)
		},
	}

	cmd.Flags().IntVar(&opt.maxNumIndexes, "max-num-indexes", 3, "max number of indexes to recommend per query")
	cmd.Flags().IntVar(&opt.maxIndexWidth, "max-index-width", 2, "the max number of columns in a recommended index")
	cmd.Flags().IntVar(&opt.minEnumerateCount, "min-enumerate-count", 2, "the exhaustive-enumeration ceiling m")

	cmd.Flags().StringVar(&opt.dsn, "dsn", "root:@tcp(127.0.0.1:4000)/test", "dsn")
	cmd.Flags().StringVar(&opt.schemaName, "schema-name", "test", "the schema (database) name to run all queries on the workload")
	cmd.Flags().StringVar(&opt.workloadPath, "workload-info-path", "", "workload info path")
	cmd.Flags().StringVar(&opt.queries, "queries", "", "queries to consider, e.g. 'q1,q2'")
	cmd.Flags().StringVar(&opt.logLevel, "log-level", "info", "log level")
	return cmd
}

// printAndSaveAdviseResult prints the recommended DDL and a per-query
// before/after cost ratio, saving both to savePath -- the teacher's
// PrintAndSaveAdviseResult pattern, re-expressed against indexkey.Configuration.
func printAndSaveAdviseResult(savePath string, cat catalog.Catalog, recommended *indexkey.Configuration, queries []loadedQuery, oracle optimizer.CostOracle) error {
	fmt.Println("===================== index advisor result =====================")
	defer fmt.Println("===================== index advisor result =====================")
	if savePath != "" {
		if err := os.MkdirAll(savePath, 0777); err != nil {
			return err
		}
	}

	handles := recommended.ToList()
	var ddlContent strings.Builder
	for _, h := range handles {
		ddl, err := createIndexDDL(cat, h)
		if err != nil {
			return err
		}
		ddlContent.WriteString(ddl)
		ddlContent.WriteString(";\n")
	}
	fmt.Println(ddlContent.String())
	if savePath != "" {
		if err := saveContentTo(path.Join(savePath, "ddl.sql"), ddlContent.String()); err != nil {
			return err
		}
	}

	empty := indexkey.NewConfiguration()
	diffs := make([]costDiff, 0, len(queries))
	for _, q := range queries {
		before, err := oracle.EstimateCost(q.Stmt, empty, q.Stmt.DBName)
		if err != nil {
			return err
		}
		after, err := oracle.EstimateCost(q.Stmt, recommended, q.Stmt.DBName)
		if err != nil {
			return err
		}
		diffs = append(diffs, costDiff{alias: q.Alias, beforeCost: before.Cost, afterCost: after.Cost})
	}
	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].ratio() < diffs[j].ratio()
	})

	var totBefore, totAfter float64
	var summary strings.Builder
	for _, d := range diffs {
		line := fmt.Sprintf("Alias: %s  before=%.2E  after=%.2E  ratio=%.2f\n", d.alias, d.beforeCost, d.afterCost, d.ratio())
		fmt.Print(line)
		summary.WriteString(line)
		totBefore += d.beforeCost
		totAfter += d.afterCost
	}
	fmt.Printf("total cost ratio: %.2E/%.2E=%.2f\n", totAfter, totBefore, totAfter/totBefore)
	if savePath != "" {
		return saveContentTo(path.Join(savePath, "summary.txt"), summary.String())
	}
	return nil
}

// costDiff is one query's before/after cost pair, sorted by ascending
// after/before ratio so the queries index selection helped most show up
// first.
type costDiff struct {
	alias                 string
	beforeCost, afterCost float64
}

func (d costDiff) ratio() float64 {
	if d.beforeCost == 0 {
		return 0
	}
	return d.afterCost / d.beforeCost
}

func createIndexDDL(cat catalog.Catalog, h indexkey.IndexHandle) (string, error) {
	dbName, tableName, ok := cat.TableName(h.TableID)
	if !ok {
		return "", fmt.Errorf("cmd: unknown table id %d", h.TableID)
	}
	colNames := make([]string, 0, len(h.Columns))
	for _, colID := range h.Columns {
		colName, ok := cat.ColumnName(h.TableID, colID)
		if !ok {
			return "", fmt.Errorf("cmd: unknown column id %d on table %d", colID, h.TableID)
		}
		colNames = append(colNames, colName)
	}
	idxName := fmt.Sprintf("idx_%s", strings.Join(colNames, "_"))
	return fmt.Sprintf("create index %s on %s.%s (%s)", idxName, dbName, tableName, strings.Join(colNames, ", ")), nil
}
