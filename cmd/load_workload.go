package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/sqltune/idxadvisor/logx"
)

type loadWorkloadCmdOpt struct {
	dsn          string
	schemaName   string
	workloadPath string
}

// NewLoadWorkloadCmd builds the `load-workload` command: create the target
// schema on a live TiDB instance, run schema.sql against it, and load any
// column-statistics dump under workloadPath/stats -- matching the teacher's
// cmd/load_workload.go so the `advise` command's what-if oracle sees
// realistic cardinalities.
func NewLoadWorkloadCmd() *cobra.Command {
	var opt loadWorkloadCmdOpt
	cmd := &cobra.Command{
		Use:   "load-workload",
		Short: "load tables and related statistics of the specified workload into your cluster",
		Long:  `load tables and related statistics of the specified workload into your cluster`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sql.Open("mysql", opt.dsn)
			if err != nil {
				return fmt.Errorf("cmd: open %v: %w", opt.dsn, err)
			}
			defer db.Close()
			return loadWorkloadInto(db, opt.schemaName, opt.workloadPath)
		},
	}

	cmd.Flags().StringVar(&opt.dsn, "dsn", "root:@tcp(127.0.0.1:4000)/test", "dsn")
	cmd.Flags().StringVar(&opt.schemaName, "schema-name", "test", "the schema(database) name to run all queries on the workload")
	cmd.Flags().StringVar(&opt.workloadPath, "workload-info-path", "", "workload info path")
	return cmd
}

func loadWorkloadInto(db *sql.DB, schemaName, workloadPath string) error {
	if _, err := db.Exec("create database if not exists " + schemaName); err != nil {
		return fmt.Errorf("cmd: create database %v: %w", schemaName, err)
	}
	if _, err := db.Exec("use " + schemaName); err != nil {
		return fmt.Errorf("cmd: use %v: %w", schemaName, err)
	}

	schemaStmts, err := parseRawSQLsFromFile(path.Join(workloadPath, "schema.sql"))
	if err != nil {
		return fmt.Errorf("cmd: read schema.sql: %w", err)
	}
	for _, s := range schemaStmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("cmd: execute %q: %w", s, err)
		}
	}

	statsDir := path.Join(workloadPath, "stats")
	statsFiles, err := os.ReadDir(statsDir)
	if os.IsNotExist(err) {
		logx.Debugf("cmd: no stats dir at %v, skipping", statsDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("cmd: read stats dir: %w", err)
	}
	for _, f := range statsFiles {
		absPath, err := filepath.Abs(path.Join(statsDir, f.Name()))
		if err != nil {
			return fmt.Errorf("cmd: resolve %v: %w", f.Name(), err)
		}
		mysql.RegisterLocalFile(absPath)
		if _, err := db.Exec(fmt.Sprintf("load stats '%s'", absPath)); err != nil {
			return fmt.Errorf("cmd: load stats %v: %w", absPath, err)
		}
	}
	return nil
}
