package sql

import "fmt"

type NodeType int

const (
	NodeGet NodeType = iota
	NodeInsert
	NodeUpdate
	NodeDelete
)

func (t NodeType) String() string {
	switch t {
	case NodeGet:
		return "get"
	case NodeInsert:
		return "insert"
	case NodeUpdate:
		return "update"
	case NodeDelete:
		return "delete"
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// PlanNode is one CRUD call produced from a statement.
type PlanNode interface {
	Type() NodeType
	String() string
}

type GetNode struct {
	Key string
}

func (n *GetNode) Type() NodeType { return NodeGet }
func (n *GetNode) String() string { return fmt.Sprintf("Get(%s)", n.Key) }

type InsertNode struct {
	Key   string
	Value string
}

func (n *InsertNode) Type() NodeType { return NodeInsert }
func (n *InsertNode) String() string { return fmt.Sprintf("Insert(%s, %s)", n.Key, n.Value) }

type UpdateNode struct {
	Key   string
	Value string
}

func (n *UpdateNode) Type() NodeType { return NodeUpdate }
func (n *UpdateNode) String() string { return fmt.Sprintf("Update(%s, %s)", n.Key, n.Value) }

type DeleteNode struct {
	Key string
}

func (n *DeleteNode) Type() NodeType { return NodeDelete }
func (n *DeleteNode) String() string { return fmt.Sprintf("Delete(%s)", n.Key) }
