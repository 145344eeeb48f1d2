// Package gridflow maps cell-level power onto HV grid nodes and solves the
// linearized (DC) power-flow equations for scenario sets, reporting line
// loadings and congestion.
package gridflow

import (
	"fmt"

	"gridcast/internal/model"
)

// TopologyError marks a singular or disconnected network. Fatal for the
// affected scenario (or for simulator construction); the simulator never
// guesses a default.
type TopologyError struct {
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("gridflow: topology error: %s", e.Reason)
}

// index is the arena-style view of one immutable topology: nodes and lines
// addressed by position, ids resolved once up front.
type index struct {
	topo  *model.Topology
	slack model.NodeID

	nodePos  map[model.NodeID]int
	slackPos int

	// adjacent lines per node, by line position
	adjacency map[model.NodeID][]int
}

func buildIndex(topo *model.Topology) (*index, error) {
	if topo == nil || len(topo.Nodes) == 0 {
		return nil, &TopologyError{Reason: "no nodes"}
	}

	ix := &index{
		topo:      topo,
		slack:     topo.SlackNode(),
		nodePos:   make(map[model.NodeID]int, len(topo.Nodes)),
		adjacency: map[model.NodeID][]int{},
	}
	for i, n := range topo.Nodes {
		if _, dup := ix.nodePos[n.ID]; dup {
			return nil, &TopologyError{Reason: fmt.Sprintf("duplicate node %q", n.ID)}
		}
		ix.nodePos[n.ID] = i
	}

	slackPos, ok := ix.nodePos[ix.slack]
	if !ok {
		return nil, &TopologyError{Reason: fmt.Sprintf("slack node %q not in topology", ix.slack)}
	}
	ix.slackPos = slackPos

	for li, l := range topo.Lines {
		if _, ok := ix.nodePos[l.From]; !ok {
			return nil, &TopologyError{Reason: fmt.Sprintf("line %q references unknown node %q", l.ID, l.From)}
		}
		if _, ok := ix.nodePos[l.To]; !ok {
			return nil, &TopologyError{Reason: fmt.Sprintf("line %q references unknown node %q", l.ID, l.To)}
		}
		if l.Susceptance <= 0 {
			return nil, &TopologyError{Reason: fmt.Sprintf("line %q has non-positive susceptance", l.ID)}
		}
		ix.adjacency[l.From] = append(ix.adjacency[l.From], li)
		ix.adjacency[l.To] = append(ix.adjacency[l.To], li)
	}

	if err := ix.checkConnected(); err != nil {
		return nil, err
	}
	return ix, nil
}

// checkConnected verifies every node is reachable from the slack. A node
// the solve cannot see has no defined angle, so this fails hard instead of
// producing a silently wrong solution.
func (ix *index) checkConnected() error {
	visited := make([]bool, len(ix.topo.Nodes))
	queue := []int{ix.slackPos}
	visited[ix.slackPos] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, li := range ix.adjacency[ix.topo.Nodes[cur].ID] {
			l := ix.topo.Lines[li]
			for _, other := range []model.NodeID{l.From, l.To} {
				pos := ix.nodePos[other]
				if !visited[pos] {
					visited[pos] = true
					queue = append(queue, pos)
				}
			}
		}
	}
	for i, seen := range visited {
		if !seen {
			return &TopologyError{Reason: fmt.Sprintf("node %q not connected to slack", ix.topo.Nodes[i].ID)}
		}
	}
	return nil
}

// AdjacentLines returns the ids of lines touching a node.
func (ix *index) AdjacentLines(node model.NodeID) []string {
	lis := ix.adjacency[node]
	out := make([]string, 0, len(lis))
	for _, li := range lis {
		out = append(out, ix.topo.Lines[li].ID)
	}
	return out
}
