// Package power converts harmonized ensemble weather fields into per-cell
// wind and PV power estimates. Conversion runs per (cell, lead hour,
// member); a missing input variable yields an UNAVAILABLE estimate for that
// unit, never a silent zero, and never aborts sibling units.
package power

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"gridcast/internal/model"
)

// Converter turns one run's WeatherSet plus an asset registry snapshot into
// PowerEstimates for every ensemble member and the deterministic run.
type Converter struct {
	turbine TurbineParams
	pv      PVParams
	workers int
	log     *zap.Logger
}

// NewConverter validates the conversion parameters. A nil logger disables
// logging.
func NewConverter(turbine TurbineParams, pv PVParams, log *zap.Logger) (*Converter, error) {
	if err := turbine.Validate(); err != nil {
		return nil, fmt.Errorf("turbine params invalid: %w", err)
	}
	if err := pv.Validate(); err != nil {
		return nil, fmt.Errorf("pv params invalid: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		turbine: turbine,
		pv:      pv,
		workers: runtime.GOMAXPROCS(0),
		log:     log,
	}, nil
}

// RunStats summarizes one conversion run.
type RunStats struct {
	Cells       int `json:"cells"`
	Estimates   int `json:"estimates"`
	Unavailable int `json:"unavailable"`
}

type cellCapacity struct {
	windMW float64
	pvMW   float64
}

// ConvertRun produces one PowerEstimate per (cell, technology, lead hour,
// member) for every cell that carries active capacity. Cells are processed
// in parallel; each worker reduces into its own slice and the partials are
// merged once at the end, so no accumulator is shared.
//
// Cancellation is honored at cell boundaries; a cancelled run returns the
// context error and no estimates.
func (c *Converter) ConvertRun(ctx context.Context, weather *model.WeatherSet, assets []model.Asset) ([]model.PowerEstimate, RunStats, error) {
	caps := capacityByCell(assets)
	cells := make([]model.CellID, 0, len(caps))
	for cell := range caps {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })

	leads := weather.LeadHours()
	members := append(model.Members(), model.MemberDeterministic)

	perCell := make([][]model.PowerEstimate, len(cells))
	var (
		wg       sync.WaitGroup
		nextMu   sync.Mutex
		next     int
		ctxErrMu sync.Mutex
		ctxErr   error
	)

	workers := c.workers
	if workers > len(cells) {
		workers = len(cells)
	}
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := ctx.Err(); err != nil {
					ctxErrMu.Lock()
					ctxErr = err
					ctxErrMu.Unlock()
					return
				}
				nextMu.Lock()
				i := next
				next++
				nextMu.Unlock()
				if i >= len(cells) {
					return
				}
				perCell[i] = c.convertCell(weather, cells[i], caps[cells[i]], leads, members)
			}
		}()
	}
	wg.Wait()

	if ctxErr != nil {
		return nil, RunStats{}, ctxErr
	}

	stats := RunStats{Cells: len(cells)}
	var out []model.PowerEstimate
	for _, ests := range perCell {
		for _, e := range ests {
			if !e.Available() {
				stats.Unavailable++
			}
			out = append(out, e)
		}
	}
	stats.Estimates = len(out)

	c.log.Info("conversion run complete",
		zap.Time("run_time", weather.RunTime()),
		zap.Int("cells", stats.Cells),
		zap.Int("estimates", stats.Estimates),
		zap.Int("unavailable", stats.Unavailable),
	)
	return out, stats, nil
}

func (c *Converter) convertCell(weather *model.WeatherSet, cell model.CellID, cap cellCapacity, leads []int, members []model.MemberID) []model.PowerEstimate {
	var out []model.PowerEstimate
	runTime := weather.RunTime()
	for _, lead := range leads {
		for _, member := range members {
			if cap.windMW > 0 {
				out = append(out, c.windEstimate(weather, cell, cap.windMW, runTime, lead, member))
			}
			if cap.pvMW > 0 {
				out = append(out, c.pvEstimate(weather, cell, cap.pvMW, runTime, lead, member))
			}
		}
	}
	return out
}

func (c *Converter) windEstimate(weather *model.WeatherSet, cell model.CellID, capMW float64, runTime time.Time, lead int, member model.MemberID) model.PowerEstimate {
	est := model.PowerEstimate{
		Cell:       cell,
		Technology: model.TechWind,
		RunTime:    runTime,
		LeadHour:   lead,
		Member:     member,
		Quality:    model.QualityUnavailable,
	}

	tempK, okTemp := weather.Value(cell, model.VarTemperature, 0, lead, member)
	if !okTemp {
		return est
	}

	levels := weather.Levels(cell, model.VarWindU, lead, member)
	var (
		usable []float64
		speeds []float64
	)
	for _, levelM := range levels {
		u, okU := weather.Value(cell, model.VarWindU, levelM, lead, member)
		v, okV := weather.Value(cell, model.VarWindV, levelM, lead, member)
		if !okU || !okV {
			continue
		}
		usable = append(usable, levelM)
		speeds = append(speeds, densityCorrect(math.Hypot(u, v), tempK))
	}
	if len(usable) == 0 {
		return est
	}

	hub := hubHeightSpeed(usable, speeds, c.turbine.HubHeightM)
	est.PowerMW = capMW * c.turbine.CapacityFactor(hub)
	est.Quality = model.QualityOK
	return est
}

func (c *Converter) pvEstimate(weather *model.WeatherSet, cell model.CellID, capMW float64, runTime time.Time, lead int, member model.MemberID) model.PowerEstimate {
	est := model.PowerEstimate{
		Cell:       cell,
		Technology: model.TechPV,
		RunTime:    runTime,
		LeadHour:   lead,
		Member:     member,
		Quality:    model.QualityUnavailable,
	}

	direct, okDir := weather.Value(cell, model.VarDirectIrradiance, 0, lead, member)
	diffuse, okDif := weather.Value(cell, model.VarDiffuseIrradiance, 0, lead, member)
	tempK, okTemp := weather.Value(cell, model.VarTemperature, 0, lead, member)
	if !okDir || !okDif || !okTemp {
		return est
	}

	est.PowerMW = c.pv.ACPower(capMW, direct, diffuse, tempK)
	est.Quality = model.QualityOK
	return est
}

// capacityByCell sums active capacity per cell and technology. Inactive
// assets and assets without a cell assignment are skipped.
func capacityByCell(assets []model.Asset) map[model.CellID]cellCapacity {
	out := map[model.CellID]cellCapacity{}
	for _, a := range assets {
		if !a.Active || a.Cell == "" || a.CapacityMW <= 0 {
			continue
		}
		c := out[a.Cell]
		switch a.Technology {
		case model.TechWind:
			c.windMW += a.CapacityMW
		case model.TechPV:
			c.pvMW += a.CapacityMW
		}
		out[a.Cell] = c
	}
	return out
}
