package sql

import (
	"github.com/juju/errors"

	"github.com/myuser/astrobase/internal/storage"
)

// Execute runs a plan against the backend. The returned string is what the
// CRUD call returned: the value for Get and Delete, empty otherwise. Backend
// errors are passed through unchanged so callers can classify them.
func Execute(plan PlanNode, backend storage.Backend) (string, error) {
	switch n := plan.(type) {
	case *GetNode:
		return backend.Get(n.Key)
	case *InsertNode:
		return "", backend.Insert(n.Key, n.Value)
	case *UpdateNode:
		return "", backend.Update(n.Key, n.Value)
	case *DeleteNode:
		return backend.Delete(n.Key)
	default:
		return "", errors.NotSupportedf("plan node %T", plan)
	}
}

// Run parses and executes a single statement.
func Run(sql string, backend storage.Backend) (PlanNode, string, error) {
	plan, err := ParseToPlan(sql)
	if err != nil {
		return nil, "", err
	}
	out, err := Execute(plan, backend)
	return plan, out, err
}

// IsBadStatement reports whether err came from parsing rather than from the
// backend.
func IsBadStatement(err error) bool {
	return errors.IsNotValid(err) || errors.IsNotSupported(err)
}
