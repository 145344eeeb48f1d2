// Package config loads and validates the YAML run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gridcast/internal/forecast"
	"gridcast/internal/gridflow"
	"gridcast/internal/power"
	"gridcast/internal/siting"
	"gridcast/internal/spatial"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Grid GridConfig `yaml:"grid"`

	// Optional: load turbine parameters from a separate YAML (e.g.
	// examples/turbines/*.yaml). Explicit fields in Turbine override the
	// file.
	TurbineFile string        `yaml:"turbine_file"`
	Turbine     TurbineConfig `yaml:"turbine"`

	PV         PVConfig         `yaml:"pv"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	Allocation AllocationConfig `yaml:"allocation"`
	Flow       FlowConfig       `yaml:"flow"`
	Siting     SitingConfig     `yaml:"siting"`
}

type GridConfig struct {
	OriginLat float64 `yaml:"origin_lat"`
	OriginLon float64 `yaml:"origin_lon"`
	MaxLat    float64 `yaml:"max_lat"`
	MaxLon    float64 `yaml:"max_lon"`
	CellSizeM float64 `yaml:"cell_size_m"`
}

type TurbineConfig struct {
	Name       string  `yaml:"name"`
	HubHeightM float64 `yaml:"hub_height_m"`
	CutInMS    float64 `yaml:"cut_in_ms"`
	RatedMS    float64 `yaml:"rated_ms"`
	CutOutMS   float64 `yaml:"cut_out_ms"`
}

type PVConfig struct {
	TiltDeg          float64 `yaml:"tilt_deg"`
	DirectGain       float64 `yaml:"direct_gain"`
	TempCoeffPerK    float64 `yaml:"temp_coeff_per_k"`
	PerformanceRatio float64 `yaml:"performance_ratio"`
}

type ForecastConfig struct {
	// MinMembers below which a forecast is flagged DEGRADED.
	MinMembers int `yaml:"min_members"`
}

type AllocationConfig struct {
	// Scheme is "nearest" (default) or "inverse_distance".
	Scheme    string `yaml:"scheme"`
	Neighbors int    `yaml:"neighbors"`
}

type FlowConfig struct {
	// Quantiles selects which forecast quantiles become flow scenarios.
	Quantiles []string `yaml:"quantiles"`

	BalanceToleranceMW float64 `yaml:"balance_tolerance_mw"`
}

type SitingConfig struct {
	TopCandidates  int  `yaml:"top_candidates"`
	StopOnVerified bool `yaml:"stop_on_verified"`
}

// Load reads, merges, defaults and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config without defaulting or validation.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.TurbineFile != "" {
		turbinePath := c.TurbineFile
		if !filepath.IsAbs(turbinePath) {
			// Prefer paths relative to the config file directory, falling
			// back to the path as given (relative to cwd).
			cand := filepath.Join(filepath.Dir(path), turbinePath)
			if _, err := os.Stat(cand); err == nil {
				turbinePath = cand
			}
		}
		loaded, err := loadTurbineFile(turbinePath)
		if err != nil {
			return nil, err
		}
		c.Turbine = MergeTurbine(loaded, c.Turbine)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Grid.CellSizeM == 0 {
		c.Grid.CellSizeM = spatial.DefaultCellSizeM
	}
	if c.Turbine.HubHeightM == 0 && c.Turbine.CutInMS == 0 && c.Turbine.RatedMS == 0 && c.Turbine.CutOutMS == 0 {
		def := power.DefaultTurbine()
		c.Turbine = TurbineConfig{
			HubHeightM: def.HubHeightM,
			CutInMS:    def.CutInMS,
			RatedMS:    def.RatedMS,
			CutOutMS:   def.CutOutMS,
		}
	}
	if c.PV == (PVConfig{}) {
		def := power.DefaultPV()
		c.PV = PVConfig{
			TiltDeg:          def.TiltDeg,
			DirectGain:       def.DirectGain,
			TempCoeffPerK:    def.TempCoeffPerK,
			PerformanceRatio: def.PerformanceRatio,
		}
	}
	if c.Forecast.MinMembers == 0 {
		c.Forecast.MinMembers = forecast.DefaultMinMembers
	}
	if len(c.Flow.Quantiles) == 0 {
		c.Flow.Quantiles = []string{"p10", "p50", "p90"}
	}
	if c.Flow.BalanceToleranceMW == 0 {
		c.Flow.BalanceToleranceMW = gridflow.DefaultBalanceToleranceMW
	}
	if c.Siting.TopCandidates == 0 {
		c.Siting.TopCandidates = siting.DefaultTopCandidates
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := spatial.NewGrid(c.GridParams()); err != nil {
		return fmt.Errorf("grid config invalid: %w", err)
	}
	if err := c.TurbineParams().Validate(); err != nil {
		return fmt.Errorf("turbine config invalid: %w", err)
	}
	if err := c.PVParams().Validate(); err != nil {
		return fmt.Errorf("pv config invalid: %w", err)
	}
	if c.Forecast.MinMembers < 1 {
		return errors.New("forecast.min_members must be >= 1")
	}
	if _, err := gridflow.SchemeByName(c.Allocation.Scheme, c.Allocation.Neighbors); err != nil {
		return fmt.Errorf("allocation config invalid: %w", err)
	}
	for _, q := range c.Flow.Quantiles {
		switch q {
		case "p10", "p50", "p90":
		default:
			return fmt.Errorf("flow.quantiles: unknown quantile %q", q)
		}
	}
	if c.Siting.TopCandidates < 1 {
		return errors.New("siting.top_candidates must be >= 1")
	}
	return nil
}

func (c *Config) GridParams() spatial.Params {
	return spatial.Params{
		OriginLat: c.Grid.OriginLat,
		OriginLon: c.Grid.OriginLon,
		MaxLat:    c.Grid.MaxLat,
		MaxLon:    c.Grid.MaxLon,
		CellSizeM: c.Grid.CellSizeM,
	}
}

func (c *Config) TurbineParams() power.TurbineParams {
	return power.TurbineParams{
		HubHeightM: c.Turbine.HubHeightM,
		CutInMS:    c.Turbine.CutInMS,
		RatedMS:    c.Turbine.RatedMS,
		CutOutMS:   c.Turbine.CutOutMS,
	}
}

func (c *Config) PVParams() power.PVParams {
	return power.PVParams{
		TiltDeg:          c.PV.TiltDeg,
		DirectGain:       c.PV.DirectGain,
		TempCoeffPerK:    c.PV.TempCoeffPerK,
		PerformanceRatio: c.PV.PerformanceRatio,
	}
}

func (c *Config) SitingParams() siting.Params {
	return siting.Params{
		TopCandidates:  c.Siting.TopCandidates,
		StopOnVerified: c.Siting.StopOnVerified,
	}
}

type turbineFileWrapper struct {
	Turbine TurbineConfig `yaml:"turbine"`
}

func loadTurbineFile(path string) (TurbineConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return TurbineConfig{}, err
	}
	var w turbineFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return TurbineConfig{}, err
	}
	return w.Turbine, nil
}

// MergeTurbine overlays non-zero fields from override onto base. Used when
// loading a turbine file and applying explicit overrides from the config
// or an API request.
func MergeTurbine(base, override TurbineConfig) TurbineConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.HubHeightM != 0 {
		out.HubHeightM = override.HubHeightM
	}
	if override.CutInMS != 0 {
		out.CutInMS = override.CutInMS
	}
	if override.RatedMS != 0 {
		out.RatedMS = override.RatedMS
	}
	if override.CutOutMS != 0 {
		out.CutOutMS = override.CutOutMS
	}
	return out
}
