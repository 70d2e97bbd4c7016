// Package binder turns raw SQL text into the bound stmt.Statement shape the
// rest of the advisor works with, resolving every column reference against a
// catalog.Catalog so stmt.ColumnRef.Bound is trustworthy (spec §4.1/§9).
package binder

import (
	"errors"
	"fmt"

	"github.com/pingcap/parser"
	"github.com/pingcap/parser/ast"
	"github.com/pingcap/parser/opcode"
	driver "github.com/pingcap/tidb/types/parser_driver"

	"github.com/sqltune/idxadvisor/catalog"
	"github.com/sqltune/idxadvisor/stmt"
)

// ErrUnsupportedStatement is returned for statement kinds the binder does
// not know how to translate (anything other than SELECT/INSERT/UPDATE/DELETE).
var ErrUnsupportedStatement = errors.New("binder: unsupported statement")

// ErrUnknownTable is returned when a DML statement references a table the
// catalog has no record of; the binder never invents table ids.
var ErrUnknownTable = errors.New("binder: unknown table")

// Bind parses sqlText, resolves it against cat in the context of dbName (the
// database in effect when the statement runs), and returns the bound
// stmt.Statement. Column references that cannot be resolved are returned
// with Bound=false rather than failing the parse; extractor decides whether
// that is fatal for the operation at hand.
func Bind(cat catalog.Catalog, dbName, sqlText string) (*stmt.Statement, error) {
	node, err := parseOne(sqlText)
	if err != nil {
		return nil, fmt.Errorf("binder: parse %q: %w", sqlText, err)
	}

	switch x := node.(type) {
	case *ast.SelectStmt:
		return bindSelect(cat, dbName, sqlText, x)
	case *ast.UpdateStmt:
		return bindUpdate(cat, dbName, sqlText, x)
	case *ast.DeleteStmt:
		return bindDelete(cat, dbName, sqlText, x)
	case *ast.InsertStmt:
		return bindInsert(cat, dbName, sqlText, x)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedStatement, node)
	}
}

// BindCreateTable parses a CREATE TABLE statement and registers the table
// and its columns into cat, returning the assigned table id. Column ids are
// assigned in declaration order (spec §4.5).
func BindCreateTable(cat catalog.MutableCatalog, dbName, ddl string) (int, error) {
	node, err := parseOne(ddl)
	if err != nil {
		return 0, fmt.Errorf("binder: parse %q: %w", ddl, err)
	}
	create, ok := node.(*ast.CreateTableStmt)
	if !ok {
		return 0, fmt.Errorf("%w: expected CREATE TABLE, got %T", ErrUnsupportedStatement, node)
	}

	dbID := cat.RegisterDB(dbName)
	tableID := cat.RegisterTable(dbID, create.Table.Name.O)
	for _, col := range create.Cols {
		cat.RegisterColumn(tableID, col.Name.Name.O)
	}
	return tableID, nil
}

func parseOne(sqlText string) (ast.StmtNode, error) {
	p := parser.New()
	return p.ParseOneStmt(sqlText, "", "")
}

func tableIDFromRefs(cat catalog.Catalog, dbName string, refs *ast.TableRefsClause) (int, int, error) {
	if refs == nil || refs.TableRefs == nil {
		return 0, 0, fmt.Errorf("%w: no table reference", ErrUnknownTable)
	}
	tn, ok := refs.TableRefs.Left.(*ast.TableSource)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unsupported FROM clause shape", ErrUnsupportedStatement)
	}
	name, ok := tn.Source.(*ast.TableName)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unsupported FROM clause shape", ErrUnsupportedStatement)
	}
	db := dbName
	if name.Schema.O != "" {
		db = name.Schema.O
	}
	dbID, tableID, ok := cat.ResolveTable(db, name.Name.O)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s.%s", ErrUnknownTable, db, name.Name.O)
	}
	return dbID, tableID, nil
}

func bindColumnRef(cat catalog.Catalog, dbID, tableID int, name *ast.ColumnNameExpr) stmt.ColumnRef {
	colName := name.Name.Name.O
	colID, ok := cat.ResolveColumn(tableID, colName)
	if !ok {
		return stmt.ColumnRef{Name: colName, Bound: false}
	}
	return stmt.ColumnRef{
		Column: stmt.ColumnID{DBID: dbID, TableID: tableID, ColumnID: colID},
		Bound:  true,
		Name:   colName,
	}
}

func bindExpr(cat catalog.Catalog, dbID, tableID int, e ast.ExprNode) stmt.Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *ast.BinaryOperationExpr:
		switch x.Op {
		case opcode.LogicAnd:
			return stmt.AndOr{Or: false, Left: bindExpr(cat, dbID, tableID, x.L), Right: bindExpr(cat, dbID, tableID, x.R)}
		case opcode.LogicOr:
			return stmt.AndOr{Or: true, Left: bindExpr(cat, dbID, tableID, x.L), Right: bindExpr(cat, dbID, tableID, x.R)}
		default:
			op, ok := compareOp(x.Op)
			if !ok {
				return stmt.Other{Kind: x.Op.String()}
			}
			return stmt.Compare{Op: op, LHS: bindExpr(cat, dbID, tableID, x.L), RHS: bindExpr(cat, dbID, tableID, x.R)}
		}
	case *ast.ColumnNameExpr:
		return bindColumnRef(cat, dbID, tableID, x)
	case *ast.PatternInExpr:
		return stmt.Compare{Op: stmt.OpIn, LHS: bindExpr(cat, dbID, tableID, x.Expr), RHS: stmt.Other{Kind: "InList"}}
	case *ast.PatternLikeExpr:
		op := stmt.OpLike
		if x.Not {
			op = stmt.OpNotLike
		}
		return stmt.Compare{Op: op, LHS: bindExpr(cat, dbID, tableID, x.Expr), RHS: bindExpr(cat, dbID, tableID, x.Pattern)}
	case *driver.ValueExpr:
		return stmt.Value{Text: fmt.Sprintf("%v", x.GetValue())}
	default:
		return stmt.Other{Kind: fmt.Sprintf("%T", e)}
	}
}

func compareOp(op opcode.Op) (stmt.CompareOp, bool) {
	switch op {
	case opcode.EQ:
		return stmt.OpEQ, true
	case opcode.NE:
		return stmt.OpNE, true
	case opcode.LT:
		return stmt.OpLT, true
	case opcode.LE:
		return stmt.OpLE, true
	case opcode.GT:
		return stmt.OpGT, true
	case opcode.GE:
		return stmt.OpGE, true
	default:
		return 0, false
	}
}

func bindColumnRefs(cat catalog.Catalog, dbID, tableID int, items []*ast.ByItem) []stmt.ColumnRef {
	var out []stmt.ColumnRef
	for _, item := range items {
		if col, ok := item.Expr.(*ast.ColumnNameExpr); ok {
			out = append(out, bindColumnRef(cat, dbID, tableID, col))
		}
	}
	return out
}

func bindSelect(cat catalog.Catalog, dbName, text string, x *ast.SelectStmt) (*stmt.Statement, error) {
	dbID, tableID, err := tableIDFromRefs(cat, dbName, x.From)
	if err != nil {
		return nil, err
	}
	s := &stmt.Statement{
		Kind:    stmt.KindSelect,
		DBName:  dbName,
		TableID: tableID,
		Text:    text,
		Where:   bindExpr(cat, dbID, tableID, x.Where),
	}
	if x.OrderBy != nil {
		s.OrderBy = bindColumnRefs(cat, dbID, tableID, x.OrderBy.Items)
	}
	if x.GroupBy != nil {
		s.GroupBy = bindColumnRefs(cat, dbID, tableID, x.GroupBy.Items)
	}
	return s, nil
}

func bindUpdate(cat catalog.Catalog, dbName, text string, x *ast.UpdateStmt) (*stmt.Statement, error) {
	dbID, tableID, err := tableIDFromRefs(cat, dbName, x.TableRefs)
	if err != nil {
		return nil, err
	}
	s := &stmt.Statement{
		Kind:    stmt.KindUpdate,
		DBName:  dbName,
		TableID: tableID,
		Text:    text,
		Where:   bindExpr(cat, dbID, tableID, x.Where),
	}
	for _, a := range x.List {
		ref := bindColumnRef(cat, dbID, tableID, &ast.ColumnNameExpr{Name: a.Column})
		s.Assignments = append(s.Assignments, stmt.AssignedColumn{Column: ref.Column, Bound: ref.Bound})
	}
	return s, nil
}

func bindDelete(cat catalog.Catalog, dbName, text string, x *ast.DeleteStmt) (*stmt.Statement, error) {
	dbID, tableID, err := tableIDFromRefs(cat, dbName, x.TableRefs)
	if err != nil {
		return nil, err
	}
	return &stmt.Statement{
		Kind:    stmt.KindDelete,
		DBName:  dbName,
		TableID: tableID,
		Text:    text,
		Where:   bindExpr(cat, dbID, tableID, x.Where),
	}, nil
}

func bindInsert(cat catalog.Catalog, dbName, text string, x *ast.InsertStmt) (*stmt.Statement, error) {
	s := &stmt.Statement{
		Kind:   stmt.KindInsert,
		DBName: dbName,
		Text:   text,
	}
	if sel, ok := x.Select.(*ast.SelectStmt); ok {
		inner, err := bindSelect(cat, dbName, text, sel)
		if err != nil {
			return nil, err
		}
		s.InsertSelect = inner
		s.TableID = inner.TableID
	}
	return s, nil
}
