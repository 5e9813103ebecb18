package junit

import "github.com/ethpandaops/junitoor/pkg/run"

// Groups partitions executions by item id, keeping the order in which ids
// were first seen and the run order within each group.
type Groups struct {
	order []string
	byID  map[string][]*run.Execution
}

// Group partitions executions by the id of the item they ran.
func Group(executions []run.Execution) *Groups {
	g := &Groups{
		byID: make(map[string][]*run.Execution, len(executions)),
	}

	for i := range executions {
		exec := &executions[i]
		id := exec.ItemID()

		if _, ok := g.byID[id]; !ok {
			g.order = append(g.order, id)
		}

		g.byID[id] = append(g.byID[id], exec)
	}

	return g
}

// IDs returns item ids in first-seen order.
func (g *Groups) IDs() []string {
	return g.order
}

// Executions returns the executions of an item, or nil when it never ran.
func (g *Groups) Executions(id string) []*run.Execution {
	return g.byID[id]
}

// Len returns the number of groups.
func (g *Groups) Len() int {
	return len(g.order)
}
