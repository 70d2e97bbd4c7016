package optimizer

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ExplainAnalyze runs the query against db and returns the root operator's
// reported execution time, mirroring the teacher's
// TiDBWhatIfOptimizer.ExplainAnalyze + Plan.ExecTime: the root row's
// "execution info" column embeds "time:3.15ms, loops:1, ...".
func ExplainAnalyze(db *sql.DB, sqlText string) (time.Duration, error) {
	rows, err := db.Query("explain analyze format = 'verbose' " + sqlText)
	if err != nil {
		return 0, fmt.Errorf("%w: explain analyze: %v", ErrOracle, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, fmt.Errorf("%w: explain analyze returned no rows for %q", ErrOracle, sqlText)
	}
	// | id | estRows | estCost | actRows | task | access object | execution info | operator info | memory | disk |
	var id, estRows, estCost, actRows, task, obj, execInfo, opInfo, mem, disk string
	if err := rows.Scan(&id, &estRows, &estCost, &actRows, &task, &obj, &execInfo, &opInfo, &mem, &disk); err != nil {
		return 0, fmt.Errorf("%w: scan explain analyze row: %v", ErrOracle, err)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOracle, err)
	}

	b := strings.Index(execInfo, "time:")
	if b < 0 {
		return 0, fmt.Errorf("%w: no time: field in execution info %q", ErrOracle, execInfo)
	}
	execInfo = execInfo[b+len("time:"):]
	e := strings.Index(execInfo, ",")
	if e < 0 {
		e = len(execInfo)
	}
	d, err := time.ParseDuration(execInfo[:e])
	if err != nil {
		return 0, fmt.Errorf("%w: parse execution time %q: %v", ErrOracle, execInfo[:e], err)
	}
	return d, nil
}
