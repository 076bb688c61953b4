package sql

import (
	"testing"

	"github.com/juju/errors"
)

func TestParseToPlan(t *testing.T) {
	tests := []struct {
		sql  string
		want string
		typ  NodeType
	}{
		{"SELECT * FROM t WHERE k = 'a'", "Get(a)", NodeGet},
		{"select v from records where k = 'key 1'", "Get(key 1)", NodeGet},
		{"INSERT INTO t VALUES ('a', '1')", "Insert(a, 1)", NodeInsert},
		{"INSERT INTO t (k, v) VALUES ('a', 42)", "Insert(a, 42)", NodeInsert},
		{"INSERT INTO t VALUES ('a', '')", "Insert(a, )", NodeInsert},
		{"UPDATE t SET v = '2' WHERE k = 'a'", "Update(a, 2)", NodeUpdate},
		{"DELETE FROM t WHERE k = 'a'", "Delete(a)", NodeDelete},
	}

	for _, tt := range tests {
		plan, err := ParseToPlan(tt.sql)
		if err != nil {
			t.Errorf("ParseToPlan(%q) failed: %v", tt.sql, err)
			continue
		}
		if plan.Type() != tt.typ {
			t.Errorf("ParseToPlan(%q): want type %v, got %v", tt.sql, tt.typ, plan.Type())
		}
		if plan.String() != tt.want {
			t.Errorf("ParseToPlan(%q): want %s, got %s", tt.sql, tt.want, plan.String())
		}
	}
}

func TestParseToPlanRejects(t *testing.T) {
	notSupported := []string{
		"SELECT * FROM t",
		"SELECT * FROM t WHERE k > 'a'",
		"SELECT * FROM t WHERE k = 'a' AND v = 'b'",
		"SELECT * FROM t, u WHERE k = 'a'",
		"INSERT INTO t VALUES ('a', '1'), ('b', '2')",
		"INSERT INTO t SELECT * FROM u",
		"UPDATE t SET v = '2', w = '3' WHERE k = 'a'",
		"DELETE FROM t",
		"SHOW TABLES",
	}
	for _, sql := range notSupported {
		_, err := ParseToPlan(sql)
		if !errors.IsNotSupported(err) {
			t.Errorf("ParseToPlan(%q): want NotSupported, got %v", sql, err)
		}
		if !IsBadStatement(err) {
			t.Errorf("IsBadStatement(%q) = false", sql)
		}
	}

	notValid := []string{
		"SELEC * FROM t",
		"INSERT INTO t VALUES ('a')",
		"INSERT INTO t VALUES ('a', '1', '2')",
		"UPDATE t SET v = w WHERE k = 'a'",
		"DELETE FROM t WHERE k = other",
	}
	for _, sql := range notValid {
		_, err := ParseToPlan(sql)
		if !errors.IsNotValid(err) {
			t.Errorf("ParseToPlan(%q): want NotValid, got %v", sql, err)
		}
	}
}
