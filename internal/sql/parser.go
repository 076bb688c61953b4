// Package sql translates single-statement SQL onto the four CRUD calls.
//
//	SELECT * FROM t WHERE k = 'a'       -> Get(a)
//	INSERT INTO t VALUES ('a', '1')     -> Insert(a, 1)
//	UPDATE t SET v = '2' WHERE k = 'a'  -> Update(a, 2)
//	DELETE FROM t WHERE k = 'a'         -> Delete(a)
//
// Table and column names are not interpreted.
package sql

import (
	"github.com/blastrain/vitess-sqlparser/sqlparser"
	"github.com/juju/errors"
)

// ParseToPlan parses a SQL string and returns the CRUD call it maps to.
// Malformed statements are NotValid; well-formed statements with no CRUD
// mapping are NotSupported.
func ParseToPlan(sql string) (PlanNode, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return nil, errors.NewNotValid(err, "statement")
	}

	switch s := stmt.(type) {
	case *sqlparser.Select:
		return buildGetPlan(s)
	case *sqlparser.Insert:
		return buildInsertPlan(s)
	case *sqlparser.Update:
		return buildUpdatePlan(s)
	case *sqlparser.Delete:
		return buildDeletePlan(s)
	default:
		return nil, errors.NotSupportedf("statement %T", stmt)
	}
}

func buildGetPlan(stmt *sqlparser.Select) (PlanNode, error) {
	if len(stmt.From) != 1 {
		return nil, errors.NotSupportedf("SELECT over %d tables", len(stmt.From))
	}
	if _, ok := stmt.From[0].(*sqlparser.AliasedTableExpr); !ok {
		return nil, errors.NotSupportedf("FROM clause %q", sqlparser.String(stmt.From[0]))
	}
	key, err := keyFromWhere(stmt.Where)
	if err != nil {
		return nil, errors.Annotate(err, "SELECT")
	}
	return &GetNode{Key: key}, nil
}

func buildInsertPlan(stmt *sqlparser.Insert) (PlanNode, error) {
	rows, ok := stmt.Rows.(sqlparser.Values)
	if !ok {
		return nil, errors.NotSupportedf("INSERT from SELECT")
	}
	if len(rows) != 1 {
		return nil, errors.NotSupportedf("INSERT of %d rows", len(rows))
	}
	row := rows[0]
	if len(row) != 2 {
		return nil, errors.NotValidf("INSERT row of %d values (want key, value)", len(row))
	}

	key, err := literal(row[0])
	if err != nil {
		return nil, errors.Annotate(err, "INSERT key")
	}
	value, err := literal(row[1])
	if err != nil {
		return nil, errors.Annotate(err, "INSERT value")
	}
	return &InsertNode{Key: key, Value: value}, nil
}

func buildUpdatePlan(stmt *sqlparser.Update) (PlanNode, error) {
	if len(stmt.Exprs) != 1 {
		return nil, errors.NotSupportedf("UPDATE of %d columns", len(stmt.Exprs))
	}
	value, err := literal(stmt.Exprs[0].Expr)
	if err != nil {
		return nil, errors.Annotate(err, "UPDATE value")
	}
	key, err := keyFromWhere(stmt.Where)
	if err != nil {
		return nil, errors.Annotate(err, "UPDATE")
	}
	return &UpdateNode{Key: key, Value: value}, nil
}

func buildDeletePlan(stmt *sqlparser.Delete) (PlanNode, error) {
	key, err := keyFromWhere(stmt.Where)
	if err != nil {
		return nil, errors.Annotate(err, "DELETE")
	}
	return &DeleteNode{Key: key}, nil
}

// keyFromWhere accepts only a point lookup: <column> = <literal>.
func keyFromWhere(where *sqlparser.Where) (string, error) {
	if where == nil {
		return "", errors.NotSupportedf("statement without WHERE")
	}
	cmp, ok := where.Expr.(*sqlparser.ComparisonExpr)
	if !ok || cmp.Operator != sqlparser.EqualStr {
		return "", errors.NotSupportedf("predicate %q", sqlparser.String(where.Expr))
	}
	if _, ok := cmp.Left.(*sqlparser.ColName); !ok {
		return "", errors.NotSupportedf("predicate %q", sqlparser.String(where.Expr))
	}
	return literal(cmp.Right)
}

// literal returns the text of a string or number constant.
func literal(expr sqlparser.Expr) (string, error) {
	val, ok := expr.(*sqlparser.SQLVal)
	if !ok {
		return "", errors.NotValidf("expression %q (want a literal)", sqlparser.String(expr))
	}
	switch val.Type {
	case sqlparser.StrVal, sqlparser.IntVal, sqlparser.FloatVal:
		return string(val.Val), nil
	}
	return "", errors.NotValidf("literal %q", sqlparser.String(expr))
}
