package model

import "fmt"

// CellID identifies one cell of the fixed forecast grid.
// IDs are stable across runs for a given grid definition.
type CellID string

// GridCell is one tile of the regular projected grid. Cells are created
// once at grid-definition time and never mutated afterwards.
//
// Coordinates are metres in the grid's projected CRS. The bounding box is
// the cell polygon (the grid is a regular tiling, so the polygon is always
// an axis-aligned square).
type GridCell struct {
	ID        CellID
	Col, Row  int
	CentroidX float64
	CentroidY float64
	MinX      float64
	MinY      float64
	MaxX      float64
	MaxY      float64
}

// MakeCellID builds the canonical id for a (col, row) pair.
func MakeCellID(col, row int) CellID {
	return CellID(fmt.Sprintf("c%04d_%04d", col, row))
}
