package gridflow

import (
	"errors"
	"math"
	"sort"

	"go.uber.org/zap"

	"gridcast/internal/model"
)

// NodeWeight is one share of a cell's power allocated to a node.
type NodeWeight struct {
	Node   model.NodeID `json:"node"`
	Weight float64      `json:"weight"`
}

// NodePoint is a node with projected grid coordinates, in the same CRS as
// the cells.
type NodePoint struct {
	ID   model.NodeID
	X, Y float64
}

// AllocationScheme decides how one cell's power is split across nodes.
// Returned weights must sum to 1; an empty result leaves the cell unmapped.
type AllocationScheme interface {
	Name() string
	Allocate(cell model.GridCell, nodes []NodePoint) []NodeWeight
}

// NearestNode assigns each cell fully to its closest node (the default).
type NearestNode struct{}

func (NearestNode) Name() string { return "nearest" }

func (NearestNode) Allocate(cell model.GridCell, nodes []NodePoint) []NodeWeight {
	if len(nodes) == 0 {
		return nil
	}
	best := 0
	bestDist := math.Inf(1)
	for i, n := range nodes {
		d := sqDist(cell.CentroidX, cell.CentroidY, n.X, n.Y)
		// Strict less keeps the first node on ties, so the allocation is
		// stable for a fixed topology order.
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return []NodeWeight{{Node: nodes[best].ID, Weight: 1}}
}

// InverseDistance splits each cell across its K nearest nodes with weights
// proportional to 1/distance.
type InverseDistance struct {
	// Neighbors is the number of nodes to spread across (default 2).
	Neighbors int
}

func (InverseDistance) Name() string { return "inverse_distance" }

func (s InverseDistance) Allocate(cell model.GridCell, nodes []NodePoint) []NodeWeight {
	if len(nodes) == 0 {
		return nil
	}
	k := s.Neighbors
	if k < 1 {
		k = 2
	}
	if k > len(nodes) {
		k = len(nodes)
	}

	type cand struct {
		idx  int
		dist float64
	}
	cands := make([]cand, len(nodes))
	for i, n := range nodes {
		cands[i] = cand{i, math.Sqrt(sqDist(cell.CentroidX, cell.CentroidY, n.X, n.Y))}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	cands = cands[:k]

	// A node sitting on the centroid takes the whole cell.
	for _, c := range cands {
		if c.dist == 0 {
			return []NodeWeight{{Node: nodes[c.idx].ID, Weight: 1}}
		}
	}

	var sum float64
	for _, c := range cands {
		sum += 1 / c.dist
	}
	out := make([]NodeWeight, 0, k)
	for _, c := range cands {
		out = append(out, NodeWeight{Node: nodes[c.idx].ID, Weight: (1 / c.dist) / sum})
	}
	return out
}

// SchemeByName resolves a configured scheme name.
func SchemeByName(name string, neighbors int) (AllocationScheme, error) {
	switch name {
	case "", "nearest":
		return NearestNode{}, nil
	case "inverse_distance":
		return InverseDistance{Neighbors: neighbors}, nil
	default:
		return nil, errors.New("gridflow: unknown allocation scheme: " + name)
	}
}

// Mapper aggregates cell-level power onto nodes through a static
// cell-to-node weight table built once per run.
type Mapper struct {
	table map[model.CellID][]NodeWeight
	log   *zap.Logger

	// unmapped collects cells without an allocation, each reported once
	// per run regardless of how many scenarios touch them.
	unmapped map[model.CellID]struct{}
}

// NewMapper builds the allocation table for the given cells. project maps
// node lat/lon into the cells' projected CRS (the spatial grid provides
// it). Cells snap through the scheme; topology nodes are shared across all
// cells.
func NewMapper(cells []model.GridCell, nodes []model.GridNode, scheme AllocationScheme, project func(lat, lon float64) (x, y float64), log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	pts := make([]NodePoint, 0, len(nodes))
	for _, n := range nodes {
		x, y := project(n.Lat, n.Lon)
		pts = append(pts, NodePoint{ID: n.ID, X: x, Y: y})
	}

	table := make(map[model.CellID][]NodeWeight, len(cells))
	for _, c := range cells {
		if ws := scheme.Allocate(c, pts); len(ws) > 0 {
			table[c.ID] = ws
		}
	}
	return &Mapper{table: table, log: log, unmapped: map[model.CellID]struct{}{}}
}

// Allocation returns the weight row for one cell (nil when unmapped).
func (m *Mapper) Allocation(cell model.CellID) []NodeWeight {
	return m.table[cell]
}

// Map produces the nodal injections for one scenario by weighted summation
// of per-cell power. Cells without an allocation contribute zero; they are
// recorded for the run's unmapped report, never silently dropped.
func (m *Mapper) Map(scenario string, cellPowerMW map[model.CellID]float64) []model.NodalInjection {
	byNode := map[model.NodeID]float64{}
	for cell, p := range cellPowerMW {
		ws, ok := m.table[cell]
		if !ok {
			if _, seen := m.unmapped[cell]; !seen {
				m.unmapped[cell] = struct{}{}
				m.log.Warn("cell has no node allocation", zap.String("cell", string(cell)))
			}
			continue
		}
		for _, w := range ws {
			byNode[w.Node] += p * w.Weight
		}
	}

	nodes := make([]model.NodeID, 0, len(byNode))
	for n := range byNode {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	out := make([]model.NodalInjection, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, model.NodalInjection{Node: n, Scenario: scenario, PowerMW: byNode[n]})
	}
	return out
}

// Unmapped returns the cells seen without an allocation, sorted, each once.
func (m *Mapper) Unmapped() []model.CellID {
	out := make([]model.CellID, 0, len(m.unmapped))
	for c := range m.unmapped {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sqDist(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}
