package model

// Technology distinguishes the two supported generation technologies.
type Technology string

const (
	TechWind Technology = "wind"
	TechPV   Technology = "pv"
)

// Asset is one row of the registry snapshot used by a run. The snapshot is
// immutable for the duration of the run; inactive assets are excluded from
// all aggregation.
type Asset struct {
	ID         string     `json:"id"`
	Technology Technology `json:"technology"`
	CapacityMW float64    `json:"capacity_mw"`
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	Active     bool       `json:"active"`

	// Cell is derived by snapping (Lat, Lon) onto the grid. Empty until
	// assignment; assets that fall outside the grid extent keep it empty
	// and are skipped.
	Cell CellID `json:"cell,omitempty"`
}
