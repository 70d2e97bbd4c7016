// Package stmt models a bound SQL statement: the output of the parser and
// binder the advisor treats as an external collaborator (see spec §1, §9).
// A real binder lives in the sibling binder package; this package only
// defines the shape AdmissibleExtractor and the Enumerator walk.
package stmt

import "fmt"

// ColumnID is a resolved column reference: a column_id that belongs to
// table_id, which belongs to db_id.
type ColumnID struct {
	DBID     int
	TableID  int
	ColumnID int
}

func (c ColumnID) String() string {
	return fmt.Sprintf("%d/%d/%d", c.DBID, c.TableID, c.ColumnID)
}

// CompareOp is one of the predicate operators admissibility cares about.
type CompareOp int

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
	OpLike
	OpNotLike
	OpIn
)

func (op CompareOp) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	case OpLike:
		return "LIKE"
	case OpNotLike:
		return "NOT LIKE"
	case OpIn:
		return "IN"
	default:
		return "?"
	}
}

// Expr is a tagged-variant expression tree node (spec §9: "Expression-tree
// traversal without inheritance"). It is sealed to this package's concrete
// types via the unexported exprNode method.
type Expr interface {
	exprNode()
}

// AndOr is a boolean conjunction/disjunction of two sub-expressions.
type AndOr struct {
	Or          bool // false = AND, true = OR
	Left, Right Expr
}

func (AndOr) exprNode() {}

// Compare is a binary comparison. Exactly one of LHS/RHS is a ColumnRef in
// an admissible comparison; callers that build these directly (e.g. tests)
// are not required to maintain that invariant themselves since the
// extractor validates it.
type Compare struct {
	Op       CompareOp
	LHS, RHS Expr
}

func (Compare) exprNode() {}

// ColumnRef is a reference to a column. Bound is false when the parser
// could not resolve it to a (db,table,column) triple.
type ColumnRef struct {
	Column ColumnID
	Bound  bool
	Name   string // original textual name, for error messages only
}

func (ColumnRef) exprNode() {}

// Value is a literal or parameter placeholder; its contents are opaque to
// the advisor.
type Value struct {
	Text string
}

func (Value) exprNode() {}

// Other is any expression kind the advisor does not recognize. Where
// admissibility extraction expects a predicate (an AND/OR child, or a
// comparison with no column side) it triggers ErrUnsupportedExpression; as
// the non-column side of a comparison it is accepted like a Value.
type Other struct {
	Kind string
}

func (Other) exprNode() {}

// Kind distinguishes the statement forms admissibility rules differ on.
type Kind int

const (
	KindSelect Kind = iota
	KindInsert
	KindUpdate
	KindDelete
)

// AssignedColumn is a `SET col = expr` target in an UPDATE statement.
type AssignedColumn struct {
	Column ColumnID
	Bound  bool
}

// Statement is a bound SQL statement. A *Statement's pointer identity is
// its memoization key (spec §4.4, §9): two Statement values built from the
// same text are distinct statements unless they are the same pointer.
type Statement struct {
	Kind    Kind
	DBName  string
	TableID int
	Text    string // original SQL text, kept for the cost oracle/DDL only

	Where   Expr
	GroupBy []ColumnRef
	OrderBy []ColumnRef

	// Assignments holds UPDATE's SET targets; only consulted when
	// Knobs.IncludeUpdatedColumns is set (spec §9, Open Question 1).
	Assignments []AssignedColumn

	// InsertSelect is the inner SELECT of an `INSERT ... SELECT` statement
	// (spec §4.3 rule 5). Nil for every other statement kind.
	InsertSelect *Statement
}

// Workload is an ordered sequence of bound statements against one database.
type Workload struct {
	DBName  string
	Queries []*Statement
}
