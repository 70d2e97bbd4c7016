// Package extractor implements AdmissibleExtractor: the walk over a bound
// SQL statement that emits the set of single-column hypothetical indexes
// that could plausibly help it (spec §4.3).
package extractor

import (
	"errors"
	"fmt"

	"github.com/sqltune/idxadvisor/indexkey"
	"github.com/sqltune/idxadvisor/stmt"
)

// ErrUnboundColumn is returned when a column reference inside the
// statement lacks a resolved (db,table,column) triple.
var ErrUnboundColumn = errors.New("extractor: unbound column reference")

// ErrUnsupportedExpression is returned when the WHERE clause contains an
// expression kind outside the admissible comparison/AND/OR grammar, or a
// comparison that does not have exactly one column side and one
// non-column side.
var ErrUnsupportedExpression = errors.New("extractor: unsupported expression")

// Extract walks stmt and returns the Configuration of single-column
// IndexHandles admissible per spec §4.3's six rules. includeUpdatedColumns
// enables the design-note rule (spec §9, Open Question 1) that an UPDATE's
// SET-target columns are also admissible, alongside its WHERE predicate.
func Extract(pool *indexkey.Pool, s *stmt.Statement, includeUpdatedColumns bool) (*indexkey.Configuration, error) {
	out := indexkey.NewConfiguration()

	switch s.Kind {
	case stmt.KindSelect:
		if err := walkWhere(pool, s.Where, out); err != nil {
			return nil, err
		}
		if err := addColumnRefs(pool, s.GroupBy, out); err != nil {
			return nil, err
		}
		if err := addColumnRefs(pool, s.OrderBy, out); err != nil {
			return nil, err
		}
	case stmt.KindDelete:
		if err := walkWhere(pool, s.Where, out); err != nil {
			return nil, err
		}
	case stmt.KindUpdate:
		if err := walkWhere(pool, s.Where, out); err != nil {
			return nil, err
		}
		if includeUpdatedColumns {
			for _, a := range s.Assignments {
				if !a.Bound {
					return nil, fmt.Errorf("%w: assigned column in UPDATE", ErrUnboundColumn)
				}
				addColumn(pool, a.Column, out)
			}
		}
	case stmt.KindInsert:
		if s.InsertSelect != nil {
			if err := walkWhere(pool, s.InsertSelect.Where, out); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: unknown statement kind", ErrUnsupportedExpression)
	}

	return out, nil
}

// walkWhere recurses over a WHERE expression tree per spec §4.3's
// "Predicate traversal": AND/OR recurse into both children; comparison
// nodes contribute the column side and must have exactly one column child
// and one non-column child; any other expression kind is a hard error.
func walkWhere(pool *indexkey.Pool, e stmt.Expr, out *indexkey.Configuration) error {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case stmt.AndOr:
		if err := walkWhere(pool, x.Left, out); err != nil {
			return err
		}
		return walkWhere(pool, x.Right, out)
	case stmt.Compare:
		lCol, lIsCol := x.LHS.(stmt.ColumnRef)
		rCol, rIsCol := x.RHS.(stmt.ColumnRef)
		switch {
		case lIsCol && !rIsCol:
			return addBoundColumnRef(pool, lCol, out)
		case rIsCol && !lIsCol:
			return addBoundColumnRef(pool, rCol, out)
		default:
			// zero or two column children: not a supported `Column OP Expr`
			// comparison shape.
			return fmt.Errorf("%w: comparison must have exactly one column side", ErrUnsupportedExpression)
		}
	default:
		return fmt.Errorf("%w: %T in WHERE clause", ErrUnsupportedExpression, e)
	}
}

func addColumnRefs(pool *indexkey.Pool, refs []stmt.ColumnRef, out *indexkey.Configuration) error {
	for _, r := range refs {
		if err := addBoundColumnRef(pool, r, out); err != nil {
			return err
		}
	}
	return nil
}

func addBoundColumnRef(pool *indexkey.Pool, r stmt.ColumnRef, out *indexkey.Configuration) error {
	if !r.Bound {
		return fmt.Errorf("%w: %q", ErrUnboundColumn, r.Name)
	}
	addColumn(pool, r.Column, out)
	return nil
}

func addColumn(pool *indexkey.Pool, col stmt.ColumnID, out *indexkey.Configuration) {
	key := indexkey.New(col.DBID, col.TableID, col.ColumnID)
	out.Add(pool.Intern(key))
}
