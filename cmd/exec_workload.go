package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path"
	"sort"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/sqltune/idxadvisor/optimizer"
	"github.com/sqltune/idxadvisor/stmt"
)

type execWorkloadCmdOpt struct {
	dsn          string
	schemaName   string
	workloadPath string
	prefix       string
	queries      string
	repeats      int
}

// NewExecWorkloadCmd builds the `exec-workload` command: run every SELECT in
// the workload against a live TiDB several times via EXPLAIN ANALYZE and
// report the mean of the three middle execution times, matching the teacher's
// cmd/exec_workload.go.
func NewExecWorkloadCmd() *cobra.Command {
	var opt execWorkloadCmdOpt
	cmd := &cobra.Command{
		Use:   "exec-workload",
		Short: "exec all queries in the specified workload",
		Long:  `exec all queries in the specified workload and collect their execution times`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, queries, err := loadWorkload(opt.schemaName, opt.workloadPath)
			if err != nil {
				return err
			}
			queries = filterByAlias(queries, opt.queries)

			db, err := sql.Open("mysql", opt.dsn)
			if err != nil {
				return fmt.Errorf("cmd: open %v: %w", opt.dsn, err)
			}
			defer db.Close()
			if _, err := db.Exec("use " + opt.schemaName); err != nil {
				return fmt.Errorf("cmd: use %v: %w", opt.schemaName, err)
			}

			sort.Slice(queries, func(i, j int) bool { return queries[i].Alias < queries[j].Alias })

			savePath := path.Join(opt.workloadPath, "exec-workload-result")
			if err := os.MkdirAll(savePath, 0777); err != nil {
				return err
			}

			var summary, totExecTime string
			var tot time.Duration
			for _, q := range queries {
				if q.Stmt.Kind != stmt.KindSelect {
					continue
				}
				avg, execTimes, err := repeatedExplainAnalyze(db, q.Stmt.Text, opt.repeats)
				if err != nil {
					return fmt.Errorf("cmd: %v: %w", q.Alias, err)
				}
				tot += avg

				content := fmt.Sprintf("Alias: %s\nAvgTime: %v\nExecTimes: %v\nSQL:\n%s\n", q.Alias, avg, execTimes, q.Stmt.Text)
				if err := saveContentTo(path.Join(savePath, fmt.Sprintf("%s%s.txt", opt.prefix, q.Alias)), content); err != nil {
					return err
				}
				summary += fmt.Sprintf("%s %v\n", q.Alias, avg)
				fmt.Println(q.Alias, avg)
			}
			totExecTime = fmt.Sprintf("TotalExecutionTime: %v\n", tot)
			fmt.Print(totExecTime)
			summary += totExecTime
			return saveContentTo(path.Join(savePath, fmt.Sprintf("%ssummary.txt", opt.prefix)), summary)
		},
	}

	cmd.Flags().StringVar(&opt.dsn, "dsn", "root:@tcp(127.0.0.1:4000)/test", "dsn")
	cmd.Flags().StringVar(&opt.schemaName, "schema-name", "test", "the schema(database) name to run all queries on the workload")
	cmd.Flags().StringVar(&opt.workloadPath, "workload-info-path", "", "workload info path")
	cmd.Flags().StringVar(&opt.prefix, "prefix", "exec", "output file name prefix")
	cmd.Flags().StringVar(&opt.queries, "queries", "", "queries to consider, e.g. 'q1,q2'")
	cmd.Flags().IntVar(&opt.repeats, "repeats", 5, "number of times to run each query (at least 5) before averaging the middle three runs")
	return cmd
}

// repeatedExplainAnalyze runs sqlText n times (at least 5) and returns the
// mean of the three middle runs after sorting by duration (the teacher's
// exec_workload.go averaging convention, which discards the fastest and
// slowest runs).
func repeatedExplainAnalyze(db *sql.DB, sqlText string, n int) (time.Duration, []time.Duration, error) {
	if n < 5 {
		n = 5
	}
	times := make([]time.Duration, 0, n)
	for i := 0; i < n; i++ {
		d, err := optimizer.ExplainAnalyze(db, sqlText)
		if err != nil {
			return 0, nil, err
		}
		times = append(times, d)
	}
	sorted := append([]time.Duration(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	avg := (sorted[mid-1] + sorted[mid] + sorted[mid+1]) / 3
	return avg, times, nil
}
