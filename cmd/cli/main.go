package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gridcast/internal/config"
	"gridcast/internal/data"
	"gridcast/internal/logging"
	"gridcast/internal/model"
	"gridcast/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "forecast":
		cmdForecast(os.Args[2:])
	case "flow":
		cmdFlow(os.Args[2:])
	case "site":
		cmdSite(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli forecast --weather run.json --assets assets.json --config examples/config.yaml --out results/forecast.csv")
	fmt.Println("  cli flow     --weather run.json --assets assets.json --topology topology.json --config examples/config.yaml --out results/flows.csv")
	fmt.Println("  cli site     --weather run.json --assets assets.json --topology topology.json --config examples/config.yaml --out results/candidates.csv")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - forecast outputs P10/P50/P90 per (cell, lead hour); pass --actuals for calibration scoring")
	fmt.Println("  - flow solves DC power flow for each quantile scenario and reports congested lines")
	fmt.Println("  - site ranks, sizes and verifies storage candidates against the congestion pattern")
}

func newPipeline(cfgPath string) *pipeline.Pipeline {
	if cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	log, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	p, err := pipeline.New(cfg, log)
	if err != nil {
		panic(err)
	}
	return p
}

func cmdForecast(args []string) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	weatherPath := fs.String("weather", "", "Path to harmonized weather JSON")
	assetsPath := fs.String("assets", "", "Path to asset registry JSON")
	actualsPath := fs.String("actuals", "", "Optional: path to aggregated actuals JSON for calibration")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/forecast.csv", "Output CSV path")
	_ = fs.Parse(args)

	p := newPipeline(*cfgPath)
	weather, err := data.LoadWeatherJSON(*weatherPath)
	if err != nil {
		panic(err)
	}
	assets, err := data.LoadAssetsJSON(*assetsPath)
	if err != nil {
		panic(err)
	}

	var actuals []model.ActualSample
	if *actualsPath != "" {
		actuals, err = data.LoadActualsJSON(*actualsPath)
		if err != nil {
			panic(err)
		}
	}

	run, err := p.Forecast(context.Background(), weather, assets, actuals)
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := data.WriteForecastCSV(*outPath, run.Forecasts); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %d rows to %s\n", len(run.Forecasts), *outPath)
	fmt.Printf("Cells=%d estimates=%d unavailable=%d skipped_assets=%d\n",
		run.Stats.Cells, run.Stats.Estimates, run.Stats.Unavailable, len(run.OutOfDomain))
	if run.Calibration != nil {
		fmt.Printf("Calibration: samples=%d coverage=%.3f sharpness=%.1fMW MAE=%.1fMW RMSE=%.1fMW\n",
			run.Calibration.Samples,
			run.Calibration.Coverage,
			run.Calibration.SharpnessMW,
			run.Calibration.MAEMW,
			run.Calibration.RMSEMW,
		)
	}
}

func cmdFlow(args []string) {
	fs := flag.NewFlagSet("flow", flag.ExitOnError)
	weatherPath := fs.String("weather", "", "Path to harmonized weather JSON")
	assetsPath := fs.String("assets", "", "Path to asset registry JSON")
	topoPath := fs.String("topology", "", "Path to HV topology JSON")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/flows.csv", "Output CSV path")
	_ = fs.Parse(args)

	p := newPipeline(*cfgPath)
	weather, assets, topo := loadFlowInputs(*weatherPath, *assetsPath, *topoPath)

	run, err := p.Flow(context.Background(), weather, assets, topo)
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := data.WriteFlowCSV(*outPath, run.Flows); err != nil {
		panic(err)
	}

	congested := 0
	for _, f := range run.Flows {
		if f.Congested {
			congested++
		}
	}
	fmt.Printf("Wrote %d rows to %s (%d congested)\n", len(run.Flows), *outPath, congested)
	for _, cell := range run.Unmapped {
		fmt.Printf("warning: cell %s has no node allocation\n", cell)
	}
	for name, err := range run.ScenarioErrors {
		fmt.Printf("warning: scenario %s failed: %v\n", name, err)
	}
}

func cmdSite(args []string) {
	fs := flag.NewFlagSet("site", flag.ExitOnError)
	weatherPath := fs.String("weather", "", "Path to harmonized weather JSON")
	assetsPath := fs.String("assets", "", "Path to asset registry JSON")
	topoPath := fs.String("topology", "", "Path to HV topology JSON")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/candidates.csv", "Output CSV path")
	_ = fs.Parse(args)

	p := newPipeline(*cfgPath)
	weather, assets, topo := loadFlowInputs(*weatherPath, *assetsPath, *topoPath)

	run, err := p.Site(context.Background(), weather, assets, topo)
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := data.WriteCandidateCSV(*outPath, run.Candidates); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %d candidates to %s\n", len(run.Candidates), *outPath)
	fmt.Printf("%-4s %-12s %-10s %-8s %-10s %-10s %-8s\n", "rank", "node", "score", "freq", "rating", "residual", "quality")
	for _, c := range run.Candidates {
		fmt.Printf("%-4d %-12s %-10.2f %-8.2f %-10.1f %-10.1f %-8s\n",
			c.Rank,
			c.Node,
			c.Score,
			c.CongestionFrequency,
			c.RatingMW,
			c.ResidualSeverityMW,
			c.Quality,
		)
	}
}

func loadFlowInputs(weatherPath, assetsPath, topoPath string) (*model.WeatherSet, []model.Asset, *model.Topology) {
	weather, err := data.LoadWeatherJSON(weatherPath)
	if err != nil {
		panic(err)
	}
	assets, err := data.LoadAssetsJSON(assetsPath)
	if err != nil {
		panic(err)
	}
	topo, err := data.LoadTopologyJSON(topoPath)
	if err != nil {
		panic(err)
	}
	return weather, assets, topo
}
