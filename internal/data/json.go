// Package data bridges the computation core to the file formats the
// surrounding tooling produces and consumes: JSON loaders for the
// harmonized upstream inputs, CSV writers for the outputs, and an
// in-memory run store for the API.
package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gridcast/internal/model"
	"gridcast/internal/spatial"
)

// WeatherFile is the JSON shape of one harmonized forecast run.
type WeatherFile struct {
	RunTime time.Time             `json:"run_time"`
	Samples []model.WeatherSample `json:"samples"`
}

// BuildWeatherSet turns the file shape into the lookup view the converter
// consumes. The API uses it for inline payloads as well.
func (f WeatherFile) BuildWeatherSet() (*model.WeatherSet, error) {
	if f.RunTime.IsZero() {
		return nil, errors.New("weather: run_time missing")
	}
	set := model.NewWeatherSet(f.RunTime)
	for _, s := range f.Samples {
		set.Add(s)
	}
	return set, nil
}

// LoadWeatherJSON reads one run's weather fields into a WeatherSet.
func LoadWeatherJSON(path string) (*model.WeatherSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f WeatherFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("weather file %s: %w", path, err)
	}
	set, err := f.BuildWeatherSet()
	if err != nil {
		return nil, fmt.Errorf("weather file %s: %w", path, err)
	}
	return set, nil
}

// AssetFile is the JSON shape of one registry snapshot.
type AssetFile struct {
	Assets []model.Asset `json:"assets"`
}

// LoadAssetsJSON reads a registry snapshot.
func LoadAssetsJSON(path string) ([]model.Asset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f AssetFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("asset file %s: %w", path, err)
	}
	return f.Assets, nil
}

// AssignCells snaps every asset onto the grid. Assets outside the grid
// extent are returned separately; downstream stages skip them because an
// out-of-domain location is fatal for the asset, not the run.
func AssignCells(grid *spatial.Grid, assets []model.Asset) (assigned, outOfDomain []model.Asset, err error) {
	for _, a := range assets {
		cell, cerr := grid.CellOf(a.Lat, a.Lon)
		if cerr != nil {
			if errors.Is(cerr, spatial.ErrOutOfDomain) {
				outOfDomain = append(outOfDomain, a)
				continue
			}
			return nil, nil, cerr
		}
		a.Cell = cell.ID
		assigned = append(assigned, a)
	}
	return assigned, outOfDomain, nil
}

// LoadTopologyJSON reads one HV topology snapshot.
func LoadTopologyJSON(path string) (*model.Topology, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t model.Topology
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("topology file %s: %w", path, err)
	}
	return &t, nil
}

// ActualsFile is the JSON shape of the aggregated feed-in actuals.
type ActualsFile struct {
	Actuals []model.ActualSample `json:"actuals"`
}

// LoadActualsJSON reads the calibration actuals.
func LoadActualsJSON(path string) ([]model.ActualSample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ActualsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("actuals file %s: %w", path, err)
	}
	return f.Actuals, nil
}
