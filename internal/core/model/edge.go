package model

import "fmt"

// Edge is a directed parent -> child relation between two structures.
type Edge struct {
	From ID `json:"from"`
	To   ID `json:"to"`
}

func NewEdge(from, to ID) Edge {
	return Edge{From: from, To: to}
}

// Key is the stable "from__to" identifier also used by the network payload.
func (e Edge) Key() string {
	return fmt.Sprintf("%s__%s", e.From, e.To)
}
