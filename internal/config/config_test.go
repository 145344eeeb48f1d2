package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalYAML = `
grid:
  origin_lat: 53.0
  origin_lon: 9.0
  max_lat: 53.9
  max_lon: 10.5
`

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", minimalYAML)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2000.0, c.Grid.CellSizeM)
	assert.Equal(t, 10, c.Forecast.MinMembers)
	assert.Equal(t, []string{"p10", "p50", "p90"}, c.Flow.Quantiles)
	assert.Equal(t, 5, c.Siting.TopCandidates)
	assert.NoError(t, c.TurbineParams().Validate())
	assert.NoError(t, c.PVParams().Validate())
}

func TestLoadTurbineFileMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "turbine.yaml", `
turbine:
  name: fleet-3mw
  hub_height_m: 100
  cut_in_ms: 3.5
  rated_ms: 13
  cut_out_ms: 25
`)
	path := writeFile(t, dir, "config.yaml", minimalYAML+`
turbine_file: turbine.yaml
turbine:
  hub_height_m: 140
`)

	c, err := Load(path)
	require.NoError(t, err)
	// Explicit override wins, the rest comes from the file.
	assert.Equal(t, 140.0, c.Turbine.HubHeightM)
	assert.Equal(t, "fleet-3mw", c.Turbine.Name)
	assert.Equal(t, 13.0, c.Turbine.RatedMS)
}

func TestLoadRejectsInvalidGrid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
grid:
  origin_lat: 53.0
  origin_lon: 9.0
  max_lat: 52.0
  max_lon: 10.0
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownQuantile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", minimalYAML+`
flow:
  quantiles: [p10, p42]
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownAllocationScheme(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", minimalYAML+`
allocation:
  scheme: voronoi
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMergeTurbine(t *testing.T) {
	base := TurbineConfig{Name: "a", HubHeightM: 100, CutInMS: 3, RatedMS: 12, CutOutMS: 25}
	out := MergeTurbine(base, TurbineConfig{RatedMS: 14})
	assert.Equal(t, "a", out.Name)
	assert.Equal(t, 14.0, out.RatedMS)
	assert.Equal(t, 100.0, out.HubHeightM)
}
