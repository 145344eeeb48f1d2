// Package pipeline wires the computation stages end to end: snap assets to
// the grid, convert weather to power, reduce the ensemble to quantiles, map
// cells onto nodes, solve flows and site storage. The CLI and the API both
// run through it.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"gridcast/internal/config"
	"gridcast/internal/data"
	"gridcast/internal/forecast"
	"gridcast/internal/gridflow"
	"gridcast/internal/model"
	"gridcast/internal/power"
	"gridcast/internal/siting"
	"gridcast/internal/spatial"
)

// Pipeline holds the per-process stages built once from config.
type Pipeline struct {
	cfg  *config.Config
	grid *spatial.Grid
	conv *power.Converter
	agg  *forecast.Aggregator
	log  *zap.Logger
}

// New builds a pipeline from a validated config. A nil logger disables
// logging.
func New(cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	grid, err := spatial.NewGrid(cfg.GridParams())
	if err != nil {
		return nil, err
	}
	conv, err := power.NewConverter(cfg.TurbineParams(), cfg.PVParams(), log)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:  cfg,
		grid: grid,
		conv: conv,
		agg:  forecast.New(cfg.Forecast.MinMembers),
		log:  log,
	}, nil
}

// Grid exposes the pipeline's grid (the CLI uses it for cell lookups).
func (p *Pipeline) Grid() *spatial.Grid { return p.grid }

// ForecastRun is the output of one forecast pass.
type ForecastRun struct {
	Forecasts   []model.InfeedForecast   `json:"forecasts"`
	Stats       power.RunStats           `json:"stats"`
	Calibration *model.CalibrationReport `json:"calibration,omitempty"`

	// OutOfDomain lists assets whose location falls outside the grid
	// extent. They are skipped, not fatal.
	OutOfDomain []model.Asset `json:"out_of_domain,omitempty"`
}

// Forecast runs weather-to-power conversion and ensemble aggregation for
// one forecast run. When actuals are provided the quantiles are also scored
// against them.
func (p *Pipeline) Forecast(ctx context.Context, weather *model.WeatherSet, assets []model.Asset, actuals []model.ActualSample) (*ForecastRun, error) {
	assigned, outside, err := data.AssignCells(p.grid, assets)
	if err != nil {
		return nil, err
	}
	for _, a := range outside {
		p.log.Warn("asset outside grid extent, skipped",
			zap.String("asset", a.ID),
			zap.Float64("lat", a.Lat),
			zap.Float64("lon", a.Lon),
		)
	}

	estimates, stats, err := p.conv.ConvertRun(ctx, weather, assigned)
	if err != nil {
		return nil, err
	}

	run := &ForecastRun{
		Forecasts:   p.agg.Aggregate(estimates),
		Stats:       stats,
		OutOfDomain: outside,
	}
	if len(actuals) > 0 {
		run.Calibration = forecast.Calibrate(run.Forecasts, actuals)
	}
	return run, nil
}

// FlowRun is the output of one flow pass: the quantile forecasts it was
// built from plus the solved scenarios.
type FlowRun struct {
	Forecasts []model.InfeedForecast `json:"forecasts"`
	Flows     []model.FlowResult     `json:"flows"`
	Unmapped  []model.CellID         `json:"unmapped,omitempty"`

	// ScenarioErrors holds per-scenario solve failures. Siblings of a
	// failed scenario still complete.
	ScenarioErrors map[string]error `json:"-"`
}

// Flow forecasts, maps the quantile scenarios onto the topology and solves
// DC power flow for each.
func (p *Pipeline) Flow(ctx context.Context, weather *model.WeatherSet, assets []model.Asset, topo *model.Topology) (*FlowRun, error) {
	fr, err := p.Forecast(ctx, weather, assets, nil)
	if err != nil {
		return nil, err
	}

	sim, err := gridflow.NewSimulator(topo, p.cfg.Flow.BalanceToleranceMW, p.log)
	if err != nil {
		return nil, err
	}
	scenarios, mapper, err := p.buildScenarios(fr.Forecasts, assets, topo)
	if err != nil {
		return nil, err
	}

	results, errs := sim.SolveSet(ctx, scenarios)

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	run := &FlowRun{
		Forecasts:      fr.Forecasts,
		Unmapped:       mapper.Unmapped(),
		ScenarioErrors: errs,
	}
	for _, name := range names {
		run.Flows = append(run.Flows, results[name].Flows...)
	}
	return run, nil
}

// SitingRun is the output of one siting pass.
type SitingRun struct {
	Candidates []model.StorageCandidate `json:"candidates"`
	Unmapped   []model.CellID           `json:"unmapped,omitempty"`

	ScenarioErrors map[string]error `json:"-"`
}

// Site forecasts, builds the flow scenarios and runs the storage siting
// loop over them.
func (p *Pipeline) Site(ctx context.Context, weather *model.WeatherSet, assets []model.Asset, topo *model.Topology) (*SitingRun, error) {
	fr, err := p.Forecast(ctx, weather, assets, nil)
	if err != nil {
		return nil, err
	}

	sim, err := gridflow.NewSimulator(topo, p.cfg.Flow.BalanceToleranceMW, p.log)
	if err != nil {
		return nil, err
	}
	scenarios, mapper, err := p.buildScenarios(fr.Forecasts, assets, topo)
	if err != nil {
		return nil, err
	}

	opt, err := siting.New(sim, p.cfg.SitingParams(), p.log)
	if err != nil {
		return nil, err
	}
	candidates, errs, err := opt.Run(ctx, scenarios, p.nearbyCapacity(mapper, assets))
	if err != nil {
		return nil, err
	}
	return &SitingRun{
		Candidates:     candidates,
		Unmapped:       mapper.Unmapped(),
		ScenarioErrors: errs,
	}, nil
}

// buildScenarios turns the quantile forecasts into one injection scenario
// per (lead hour, configured quantile), mapped onto nodes.
func (p *Pipeline) buildScenarios(forecasts []model.InfeedForecast, assets []model.Asset, topo *model.Topology) (map[string]map[model.NodeID]float64, *gridflow.Mapper, error) {
	scheme, err := gridflow.SchemeByName(p.cfg.Allocation.Scheme, p.cfg.Allocation.Neighbors)
	if err != nil {
		return nil, nil, err
	}
	mapper := gridflow.NewMapper(p.assetCells(assets), topo.Nodes, scheme, p.grid.Project, p.log)

	byLead := map[int]map[model.CellID]model.InfeedForecast{}
	for _, f := range forecasts {
		cells, ok := byLead[f.LeadHour]
		if !ok {
			cells = map[model.CellID]model.InfeedForecast{}
			byLead[f.LeadHour] = cells
		}
		cells[f.Cell] = f
	}

	scenarios := map[string]map[model.NodeID]float64{}
	for lead, cells := range byLead {
		for _, q := range p.cfg.Flow.Quantiles {
			name := fmt.Sprintf("h%02d_%s", lead, q)
			cellPower := make(map[model.CellID]float64, len(cells))
			for cell, f := range cells {
				cellPower[cell] = quantileValue(f, q)
			}
			injections := map[model.NodeID]float64{}
			for _, inj := range mapper.Map(name, cellPower) {
				injections[inj.Node] = inj.PowerMW
			}
			scenarios[name] = injections
		}
	}
	return scenarios, mapper, nil
}

// nearbyCapacity distributes each asset's installed capacity onto nodes
// through the same allocation table the injections use. It is a ranking
// tie-breaker only.
func (p *Pipeline) nearbyCapacity(mapper *gridflow.Mapper, assets []model.Asset) map[model.NodeID]float64 {
	out := map[model.NodeID]float64{}
	for _, a := range assets {
		if !a.Active || a.CapacityMW <= 0 {
			continue
		}
		cell, err := p.grid.CellOf(a.Lat, a.Lon)
		if err != nil {
			continue
		}
		for _, w := range mapper.Allocation(cell.ID) {
			out[w.Node] += a.CapacityMW * w.Weight
		}
	}
	return out
}

// assetCells collects the distinct grid cells carrying registry capacity.
func (p *Pipeline) assetCells(assets []model.Asset) []model.GridCell {
	seen := map[model.CellID]model.GridCell{}
	for _, a := range assets {
		if !a.Active || a.CapacityMW <= 0 {
			continue
		}
		cell, err := p.grid.CellOf(a.Lat, a.Lon)
		if err != nil {
			continue
		}
		seen[cell.ID] = cell
	}
	ids := make([]model.CellID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]model.GridCell, 0, len(ids))
	for _, id := range ids {
		out = append(out, seen[id])
	}
	return out
}

func quantileValue(f model.InfeedForecast, q string) float64 {
	switch q {
	case "p10":
		return f.P10MW
	case "p90":
		return f.P90MW
	default:
		return f.P50MW
	}
}
