// Package cmd wires the core advisor packages (binder, catalog, extractor,
// advisor, optimizer) into a cobra CLI, mirroring the teacher's own
// cmd/advise_offline.go, cmd/load_workload.go and cmd/exec_workload.go.
package cmd

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/sqltune/idxadvisor/binder"
	"github.com/sqltune/idxadvisor/catalog"
	"github.com/sqltune/idxadvisor/logx"
	"github.com/sqltune/idxadvisor/stmt"
)

// loadedQuery pairs a bound statement with the alias it was loaded under
// (q1, q2, ... for a flat queries.sql, or the file stem for a queries/ dir),
// matching the teacher's workload.SQL.Alias convention.
type loadedQuery struct {
	Alias string
	Stmt  *stmt.Statement
}

// loadWorkload reads workloadPath/schema.sql (one or more CREATE TABLE
// statements) and either workloadPath/queries/*.sql or workloadPath/queries.sql
// (teacher's two supported layouts), binding every query against a fresh
// catalog built from the schema.
func loadWorkload(dbName, workloadPath string) (*catalog.InMemoryCatalog, []loadedQuery, error) {
	cat := catalog.NewInMemoryCatalog()

	schemaStmts, err := parseRawSQLsFromFile(path.Join(workloadPath, "schema.sql"))
	if err != nil {
		return nil, nil, fmt.Errorf("cmd: read schema.sql: %w", err)
	}
	for _, ddl := range schemaStmts {
		if _, err := binder.BindCreateTable(cat, dbName, ddl); err != nil {
			return nil, nil, fmt.Errorf("cmd: bind %q: %w", ddl, err)
		}
	}

	var rawQueries, aliases []string
	queriesDir := path.Join(workloadPath, "queries")
	if exist, isDir := fileExists(queriesDir); exist && isDir {
		rawQueries, aliases, err = parseRawSQLsFromDir(queriesDir)
		if err != nil {
			return nil, nil, fmt.Errorf("cmd: read queries dir: %w", err)
		}
	} else {
		rawQueries, err = parseRawSQLsFromFile(path.Join(workloadPath, "queries.sql"))
		if err != nil {
			return nil, nil, fmt.Errorf("cmd: read queries.sql: %w", err)
		}
		for i := range rawQueries {
			aliases = append(aliases, fmt.Sprintf("q%d", i+1))
		}
	}

	queries := make([]loadedQuery, 0, len(rawQueries))
	for i, text := range rawQueries {
		bound, err := binder.Bind(cat, dbName, text)
		if err != nil {
			return nil, nil, fmt.Errorf("cmd: bind %q: %w", text, err)
		}
		queries = append(queries, loadedQuery{Alias: aliases[i], Stmt: bound})
	}
	return cat, queries, nil
}

// filterByAlias keeps only the queries whose alias is in want, matching the
// teacher's `--queries q1,q2` flag.
func filterByAlias(queries []loadedQuery, want string) []loadedQuery {
	if want == "" {
		return queries
	}
	wanted := make(map[string]bool)
	for _, a := range strings.Split(want, ",") {
		wanted[strings.TrimSpace(a)] = true
	}
	out := queries[:0:0]
	for _, q := range queries {
		if wanted[q.Alias] {
			out = append(out, q)
		}
	}
	return out
}

func fileExists(filename string) (exist, isDir bool) {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false, false
	}
	if err != nil {
		return false, false
	}
	return true, info.IsDir()
}

// parseRawSQLsFromFile splits a semicolon-separated SQL script into
// individual statements, skipping blank lines and `--` comments, exactly
// like the teacher's utils.ParseRawSQLsFromFile.
func parseRawSQLsFromFile(fpath string) ([]string, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	var filtered []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		filtered = append(filtered, line)
	}
	content := strings.Join(filtered, "\n")

	var sqls []string
	for _, raw := range strings.Split(content, ";") {
		raw = strings.TrimSpace(raw)
		if raw != "" {
			sqls = append(sqls, raw)
		}
	}
	return sqls, nil
}

// parseRawSQLsFromDir reads every *.sql file in dirPath as one statement,
// returning its content and file stem (q1.sql -> "q1"), like the teacher's
// utils.ParseRawSQLsFromDir.
func parseRawSQLsFromDir(dirPath string) (sqls, aliases []string, err error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		content, err := os.ReadFile(path.Join(dirPath, e.Name()))
		if err != nil {
			return nil, nil, err
		}
		sqls = append(sqls, strings.TrimSpace(string(content)))
		aliases = append(aliases, strings.TrimSuffix(e.Name(), ".sql"))
	}
	return sqls, aliases, nil
}

func saveContentTo(fpath, content string) error {
	return os.WriteFile(fpath, []byte(content), 0644)
}

func setLogLevel(level string) {
	if level != "" {
		logx.SetLevel(level)
	}
}
