// Package spatial implements the fixed forecast grid: a regular tiling of
// the configured domain in a local projected CRS, with nearest-centroid
// snapping of lat/lon points onto cell ids.
package spatial

import (
	"errors"
	"fmt"
	"math"

	"gridcast/internal/model"
)

// ErrOutOfDomain is returned for points outside the grid extent. Fatal for
// the point, never for the run.
var ErrOutOfDomain = errors.New("spatial: point outside grid extent")

const earthRadiusM = 6371000.0

// Point is a geographic coordinate (WGS84 degrees).
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Params defines one grid. The projection is a fixed local equirectangular
// mapping anchored at the domain origin; it is a closed-form pure function,
// so identical inputs always map to identical cell ids.
type Params struct {
	// OriginLat/OriginLon is the south-west corner of the extent.
	OriginLat float64
	OriginLon float64
	// MaxLat/MaxLon is the north-east corner.
	MaxLat float64
	MaxLon float64
	// CellSizeM is the tile edge length in metres (default 2000).
	CellSizeM float64
}

// DefaultCellSizeM is the 2x2 km production grid resolution.
const DefaultCellSizeM = 2000.0

// Grid is an immutable grid definition. Cells are addressed by (col, row)
// and identified by stable string ids.
type Grid struct {
	params Params

	cols, rows int
	cosLat     float64 // projection scale factor at the origin latitude
}

// NewGrid validates params and fixes the tiling.
func NewGrid(p Params) (*Grid, error) {
	if p.CellSizeM == 0 {
		p.CellSizeM = DefaultCellSizeM
	}
	if p.CellSizeM <= 0 {
		return nil, fmt.Errorf("spatial: cell size must be > 0, got %v", p.CellSizeM)
	}
	if p.MaxLat <= p.OriginLat || p.MaxLon <= p.OriginLon {
		return nil, fmt.Errorf("spatial: extent (%v,%v)-(%v,%v) is empty",
			p.OriginLat, p.OriginLon, p.MaxLat, p.MaxLon)
	}

	g := &Grid{
		params: p,
		cosLat: math.Cos(p.OriginLat * math.Pi / 180),
	}
	maxX, maxY := g.project(p.MaxLat, p.MaxLon)
	g.cols = int(math.Ceil(maxX / p.CellSizeM))
	g.rows = int(math.Ceil(maxY / p.CellSizeM))
	if g.cols < 1 || g.rows < 1 {
		return nil, fmt.Errorf("spatial: extent smaller than one cell")
	}
	return g, nil
}

// Cols and Rows report the tiling dimensions.
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// CellSizeM is the tile edge length in metres.
func (g *Grid) CellSizeM() float64 { return g.params.CellSizeM }

// project maps lat/lon onto grid-local metres, x east and y north of the
// origin corner.
func (g *Grid) project(lat, lon float64) (x, y float64) {
	x = earthRadiusM * (lon - g.params.OriginLon) * math.Pi / 180 * g.cosLat
	y = earthRadiusM * (lat - g.params.OriginLat) * math.Pi / 180
	return x, y
}

// Project exposes the grid projection for consumers that need distances in
// the same CRS as the cells (e.g. the cell-to-node allocation).
func (g *Grid) Project(lat, lon float64) (x, y float64) {
	return g.project(lat, lon)
}

// CellOf snaps a point to its nearest-centroid cell. Points outside the
// extent return ErrOutOfDomain.
func (g *Grid) CellOf(lat, lon float64) (model.GridCell, error) {
	x, y := g.project(lat, lon)
	if x < 0 || y < 0 {
		return model.GridCell{}, fmt.Errorf("%w: lat=%v lon=%v", ErrOutOfDomain, lat, lon)
	}
	col := int(x / g.params.CellSizeM)
	row := int(y / g.params.CellSizeM)
	if col >= g.cols || row >= g.rows {
		return model.GridCell{}, fmt.Errorf("%w: lat=%v lon=%v", ErrOutOfDomain, lat, lon)
	}
	return g.Cell(col, row), nil
}

// Cell materializes the cell at (col, row). Callers must pass indices in
// range; CellOf and CellsIn only produce in-range indices.
func (g *Grid) Cell(col, row int) model.GridCell {
	s := g.params.CellSizeM
	minX := float64(col) * s
	minY := float64(row) * s
	return model.GridCell{
		ID:        model.MakeCellID(col, row),
		Col:       col,
		Row:       row,
		CentroidX: minX + s/2,
		CentroidY: minY + s/2,
		MinX:      minX,
		MinY:      minY,
		MaxX:      minX + s,
		MaxY:      minY + s,
	}
}

// CellsIn returns all cells whose centroid lies inside the polygon. The
// polygon is given as geographic vertices; closing the ring is optional.
// Result order is row-major and therefore deterministic.
func (g *Grid) CellsIn(polygon []Point) []model.GridCell {
	if len(polygon) < 3 {
		return nil
	}

	// Project the ring once, then scan the bounding box of the polygon
	// instead of the whole grid.
	px := make([]float64, len(polygon))
	py := make([]float64, len(polygon))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, pt := range polygon {
		px[i], py[i] = g.project(pt.Lat, pt.Lon)
		minX = math.Min(minX, px[i])
		minY = math.Min(minY, py[i])
		maxX = math.Max(maxX, px[i])
		maxY = math.Max(maxY, py[i])
	}

	s := g.params.CellSizeM
	colLo := clampInt(int(minX/s), 0, g.cols-1)
	colHi := clampInt(int(maxX/s), 0, g.cols-1)
	rowLo := clampInt(int(minY/s), 0, g.rows-1)
	rowHi := clampInt(int(maxY/s), 0, g.rows-1)

	var out []model.GridCell
	for row := rowLo; row <= rowHi; row++ {
		for col := colLo; col <= colHi; col++ {
			c := g.Cell(col, row)
			if pointInRing(c.CentroidX, c.CentroidY, px, py) {
				out = append(out, c)
			}
		}
	}
	return out
}

// pointInRing is the even-odd ray casting test.
func pointInRing(x, y float64, px, py []float64) bool {
	inside := false
	n := len(px)
	j := n - 1
	for i := 0; i < n; i++ {
		if (py[i] > y) != (py[j] > y) &&
			x < (px[j]-px[i])*(y-py[i])/(py[j]-py[i])+px[i] {
			inside = !inside
		}
		j = i
	}
	return inside
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
