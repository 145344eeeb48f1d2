package model

import (
	"sort"
	"time"
)

// Variable names one meteorological field on the harmonized grid.
type Variable string

const (
	// Wind components, valid at one or more model levels (metres AGL).
	VarWindU Variable = "wind_u"
	VarWindV Variable = "wind_v"

	// Surface fields (level 0).
	VarDirectIrradiance  Variable = "irradiance_direct"  // W/m^2
	VarDiffuseIrradiance Variable = "irradiance_diffuse" // W/m^2
	VarTemperature       Variable = "temperature"        // K, 2m
)

// MemberID indexes one ensemble member. The deterministic run uses a
// sentinel value and is never counted in ensemble statistics.
type MemberID int

// MemberDeterministic marks the single deterministic (non-ensemble) run.
const MemberDeterministic MemberID = -1

// EnsembleSize is the number of perturbed members delivered per run.
const EnsembleSize = 20

// Members returns the ensemble member ids 0..EnsembleSize-1.
func Members() []MemberID {
	out := make([]MemberID, EnsembleSize)
	for i := range out {
		out[i] = MemberID(i)
	}
	return out
}

// WeatherSample is one scalar value of a harmonized weather field.
// For a given (cell, variable, level, lead hour) there are at most
// EnsembleSize+1 samples: the members plus the deterministic run.
type WeatherSample struct {
	Cell     CellID    `json:"cell"`
	Variable Variable  `json:"variable"`
	LevelM   float64   `json:"level_m"` // metres AGL; 0 for surface fields
	LeadHour int       `json:"lead_hour"`
	Member   MemberID  `json:"member"` // -1 = deterministic
	Value    float64   `json:"value"`
}

type sampleKey struct {
	cell     CellID
	variable Variable
	levelM   float64
	leadHour int
	member   MemberID
}

type levelKey struct {
	cell     CellID
	variable Variable
	leadHour int
	member   MemberID
}

// WeatherSet is the read-only lookup view of one forecast run's weather
// fields. It is built once by the loader; consumers only query it.
type WeatherSet struct {
	runTime time.Time

	values map[sampleKey]float64
	levels map[levelKey][]float64

	cells     map[CellID]struct{}
	leadHours map[int]struct{}
}

// NewWeatherSet creates an empty set for one forecast run time (UTC).
func NewWeatherSet(runTime time.Time) *WeatherSet {
	return &WeatherSet{
		runTime:   runTime.UTC(),
		values:    map[sampleKey]float64{},
		levels:    map[levelKey][]float64{},
		cells:     map[CellID]struct{}{},
		leadHours: map[int]struct{}{},
	}
}

// Add inserts one sample. Later duplicates overwrite earlier ones, matching
// the upstream convention of keeping the freshest value per key.
func (w *WeatherSet) Add(s WeatherSample) {
	k := sampleKey{s.Cell, s.Variable, s.LevelM, s.LeadHour, s.Member}
	_, seen := w.values[k]
	w.values[k] = s.Value
	if !seen {
		lk := levelKey{s.Cell, s.Variable, s.LeadHour, s.Member}
		w.levels[lk] = insertSorted(w.levels[lk], s.LevelM)
	}
	w.cells[s.Cell] = struct{}{}
	w.leadHours[s.LeadHour] = struct{}{}
}

// RunTime is the forecast initialization time (UTC).
func (w *WeatherSet) RunTime() time.Time { return w.runTime }

// Value looks up one sample; ok is false when the value is missing.
func (w *WeatherSet) Value(cell CellID, v Variable, levelM float64, leadHour int, member MemberID) (float64, bool) {
	val, ok := w.values[sampleKey{cell, v, levelM, leadHour, member}]
	return val, ok
}

// Levels returns the sorted model levels available for a variable at one
// (cell, lead hour, member).
func (w *WeatherSet) Levels(cell CellID, v Variable, leadHour int, member MemberID) []float64 {
	return w.levels[levelKey{cell, v, leadHour, member}]
}

// Cells returns all cell ids present in the set, sorted.
func (w *WeatherSet) Cells() []CellID {
	out := make([]CellID, 0, len(w.cells))
	for c := range w.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LeadHours returns all lead hours present in the set, sorted ascending.
func (w *WeatherSet) LeadHours() []int {
	out := make([]int, 0, len(w.leadHours))
	for h := range w.leadHours {
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}

// Len is the number of stored samples.
func (w *WeatherSet) Len() int { return len(w.values) }

func insertSorted(levels []float64, l float64) []float64 {
	i := sort.SearchFloat64s(levels, l)
	if i < len(levels) && levels[i] == l {
		return levels
	}
	levels = append(levels, 0)
	copy(levels[i+1:], levels[i:])
	levels[i] = l
	return levels
}
