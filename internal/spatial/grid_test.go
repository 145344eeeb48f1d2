package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	// Roughly a 100x100 km box in northern Germany.
	return Params{
		OriginLat: 53.0,
		OriginLon: 9.0,
		MaxLat:    53.9,
		MaxLon:    10.5,
		CellSizeM: 2000,
	}
}

func TestCellOfIsDeterministic(t *testing.T) {
	g, err := NewGrid(testParams())
	require.NoError(t, err)

	a, err := g.CellOf(53.42, 9.73)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		b, err := g.CellOf(53.42, 9.73)
		require.NoError(t, err)
		assert.Equal(t, a.ID, b.ID)
	}
}

func TestCellOfSnapsToContainingCell(t *testing.T) {
	g, err := NewGrid(testParams())
	require.NoError(t, err)

	c, err := g.CellOf(53.42, 9.73)
	require.NoError(t, err)

	x, y := g.Project(53.42, 9.73)
	assert.GreaterOrEqual(t, x, c.MinX)
	assert.Less(t, x, c.MaxX)
	assert.GreaterOrEqual(t, y, c.MinY)
	assert.Less(t, y, c.MaxY)
}

func TestCellOfOutOfDomain(t *testing.T) {
	g, err := NewGrid(testParams())
	require.NoError(t, err)

	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"south of extent", 52.0, 9.5},
		{"west of extent", 53.5, 8.0},
		{"north of extent", 54.5, 9.5},
		{"east of extent", 53.5, 11.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.CellOf(tc.lat, tc.lon)
			assert.ErrorIs(t, err, ErrOutOfDomain)
		})
	}
}

func TestCellOfOriginCorner(t *testing.T) {
	g, err := NewGrid(testParams())
	require.NoError(t, err)

	c, err := g.CellOf(53.0, 9.0)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Col)
	assert.Equal(t, 0, c.Row)
}

func TestCellsInPolygon(t *testing.T) {
	g, err := NewGrid(testParams())
	require.NoError(t, err)

	// A small box fully inside the extent.
	poly := []Point{
		{Lat: 53.2, Lon: 9.3},
		{Lat: 53.2, Lon: 9.5},
		{Lat: 53.35, Lon: 9.5},
		{Lat: 53.35, Lon: 9.3},
	}
	cells := g.CellsIn(poly)
	require.NotEmpty(t, cells)

	// Every returned centroid must pass the point-in-polygon test; spot
	// check that the corner cell of the box is present and an outside cell
	// is not.
	ids := map[string]bool{}
	for _, c := range cells {
		ids[string(c.ID)] = true
	}
	inside, err := g.CellOf(53.27, 9.4)
	require.NoError(t, err)
	assert.True(t, ids[string(inside.ID)])

	outside, err := g.CellOf(53.8, 10.2)
	require.NoError(t, err)
	assert.False(t, ids[string(outside.ID)])
}

func TestCellsInDegeneratePolygon(t *testing.T) {
	g, err := NewGrid(testParams())
	require.NoError(t, err)
	assert.Nil(t, g.CellsIn([]Point{{Lat: 53.2, Lon: 9.3}, {Lat: 53.3, Lon: 9.4}}))
}

func TestNewGridRejectsEmptyExtent(t *testing.T) {
	p := testParams()
	p.MaxLat = p.OriginLat
	_, err := NewGrid(p)
	assert.Error(t, err)
}
