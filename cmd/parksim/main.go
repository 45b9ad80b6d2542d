// cmd/parksim/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/classify"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/config"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/dispatch"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/evaluate"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/feed"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/forecast"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/ingest"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/logging"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/parking"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/report"
	"github.com/Jincan-LI-HUB/2026-MCM-Simulation-Problem-B/internal/series"
)

func main() {
	lg, logFile := logging.Init()
	defer logFile.Close()

	cfg, err := config.LoadEnvAndFiles()
	if err != nil {
		lg.Error("config load failed", "error", err)
		os.Exit(1)
	}
	lg.Info("starting parksim",
		"input", cfg.HallCallsPath, "fleet", cfg.Fleet,
		"classifier", cfg.Classifier, "outputDir", cfg.OutputDir)

	if err := run(cfg, lg); err != nil {
		lg.Error("run aborted", "error", err)
		os.Exit(1)
	}
	lg.Info("done")
}

func run(cfg *config.AppConfig, lg *slog.Logger) error {
	calls, err := ingest.LoadFile(cfg.HallCallsPath)
	if err != nil {
		return err
	}
	lg.Info("hall calls loaded", "calls", len(calls))

	width := time.Duration(cfg.DecisionMinutes) * time.Minute
	builder := series.NewBuilder(width)
	slots, err := builder.Build(calls)
	if err != nil {
		return err
	}
	lg.Info("slot series built", "slots", len(slots), "width", width)

	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = parking.Names()
	}

	// Traffic-state labels over the training timeline. Besides the
	// configured classifier, each dynamic variant gets the classifier it is
	// named after, so their demand tables diverge within one run.
	feats := classify.FromSlots(slots, cfg.LobbyFloor)
	classifiers, err := fitClassifiers(cfg, strategies, feats)
	if err != nil {
		return err
	}
	primary := classifiers[cfg.Classifier]
	states := classify.Label(primary, feats)
	lg.Info("timeline labeled", "classifier", primary.Name(), "variants", len(classifiers))

	// Demand forecaster; the simulation degrades gracefully without it.
	model := forecast.New(width)
	if err := model.Fit(slots); err != nil {
		if !errors.Is(err, forecast.ErrInsufficientData) {
			return fmt.Errorf("forecast fit: %w", err)
		}
		lg.Warn("forecaster disabled", "error", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return err
	}

	if model.Fitted() {
		stateNames := make([]string, len(states))
		for i, s := range states {
			stateNames[i] = string(s)
		}
		bt := model.Backtest(slots, stateNames)
		if err := writeFile(cfg.OutputDir, "report_table_forecast.csv", func(f *os.File) error {
			return report.WriteForecastCSV(f, bt)
		}); err != nil {
			return err
		}
		lg.Info("forecast backtest written",
			"modelMAE", bt.Model.MAE, "baselineMAE", bt.Baseline.MAE, "n", bt.Model.N)
	}

	// One learned floor-demand table per classifier variant.
	demands := make(map[string]map[classify.State]map[int]float64, len(classifiers))
	for name, c := range classifiers {
		demands[name] = classify.FloorDemand(slots, classify.Label(c, feats))
	}

	minFloor, maxFloor := series.FloorRange(calls)
	pcfg := parking.Config{
		LobbyFloor: cfg.LobbyFloor,
		LobbyMax:   cfg.LobbyMax,
		MidMax:     cfg.MidMax,
		MinFloor:   minFloor,
		MaxFloor:   maxFloor,
	}
	params := dispatch.Params{
		Fleet:           cfg.Fleet,
		LobbyFloor:      cfg.LobbyFloor,
		SecondsPerFloor: cfg.SecondsPerFloor,
		DoorTime:        cfg.DoorTime,
		DecisionEvery:   width,
		HistorySlots:    cfg.HistorySlots,
	}

	scenarios := dispatch.DefaultScenarios(cfg.LobbyFloor, cfg.BurstCalls, cfg.BurstMins)

	publisher := feed.New(cfg.KafkaBrokers, cfg.ResultsTopic, lg)
	defer publisher.Close()

	windowOrder := []evaluate.Window{
		evaluate.WindowOverall, evaluate.WindowPeak,
		evaluate.WindowTransition, evaluate.WindowHighLoad,
	}

	var allRows []evaluate.Summary
	baseWindows := make(map[evaluate.Window][]evaluate.Summary)

	for _, sc := range scenarios {
		// Fresh rng per scenario so each transform is reproducible on its own.
		rng := rand.New(rand.NewSource(cfg.RandomSeed))
		scCalls, scParams := sc.Apply(calls, params, rng)
		lg.Info("scenario prepared", "scenario", sc.Name, "calls", len(scCalls))

		// State tags, floor history, and forecast inputs must come from the
		// transformed stream, not the base one.
		timelines, scSlots, err := scenarioTimelines(builder, classifiers, scCalls, cfg.LobbyFloor)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		forecastFn := scenarioForecast(model, scSlots, width)

		byStrategy := make(map[string][]dispatch.Outcome, len(strategies))
		var scenarioLog []dispatch.Outcome
		for _, name := range strategies {
			strat, err := parking.New(name, pcfg)
			if err != nil {
				return err
			}
			cname := classifierFor(name, cfg.Classifier)
			sim := dispatch.NewSimulator(scParams, strat, timelines[cname], forecastFn, demands[cname], lg)
			outs := sim.Run(sc.Name, scCalls)
			byStrategy[name] = outs
			scenarioLog = append(scenarioLog, outs...)
		}

		if err := writeFile(cfg.OutputDir, "call_metrics_"+sc.Name+".csv", func(f *os.File) error {
			return report.WriteCallLog(f, scenarioLog)
		}); err != nil {
			return err
		}

		// The first configured strategy is the threshold reference: each
		// window's long-wait cutoff is its P95 over the same calls.
		refParts := evaluate.Partition(byStrategy[strategies[0]], timelines[cfg.Classifier])
		for _, name := range strategies {
			parts := evaluate.Partition(byStrategy[name], timelines[cfg.Classifier])
			for _, window := range windowOrder {
				threshold := cfg.LongWait
				if cfg.AdaptiveLW {
					threshold = evaluate.LongWaitThreshold(refParts[window], cfg.LongWait)
				}
				row := evaluate.Summarize(name, sc.Name, window, parts[window], threshold)
				allRows = append(allRows, row)
				if sc.Name == "base" && window != evaluate.WindowOverall {
					baseWindows[window] = append(baseWindows[window], row)
				}
			}
		}
	}

	if err := writeFile(cfg.OutputDir, "report_table_strategies.csv", func(f *os.File) error {
		return report.WriteSummaryCSV(f, allRows)
	}); err != nil {
		return err
	}
	if err := writeFile(cfg.OutputDir, "latex_table_windows.tex", func(f *os.File) error {
		return report.WriteLaTeX(f,
			"Parking strategy performance under operationally critical windows.",
			"tab:strategy-windows", baseWindows, windowOrder)
	}); err != nil {
		return err
	}

	if err := publisher.Publish(context.Background(), allRows); err != nil {
		lg.Warn("results publish failed", "error", err)
	}

	lg.Info("reports written", "rows", len(allRows), "dir", cfg.OutputDir)
	return nil
}

// fitClassifiers fits the configured classifier plus the variant each
// configured dynamic strategy is named after, keyed by classifier name.
func fitClassifiers(cfg *config.AppConfig, strategies []string, feats []classify.SlotFeatures) (map[string]classify.Classifier, error) {
	need := map[string]bool{cfg.Classifier: true}
	for _, s := range strategies {
		switch s {
		case parking.StrategyDynamicRule:
			need["rule"] = true
		case parking.StrategyDynamicKMeans:
			need["kmeans"] = true
		}
	}

	out := make(map[string]classify.Classifier, len(need))
	for name := range need {
		var c classify.Classifier
		if name == "kmeans" {
			kc := classify.NewKMeansClassifier(classify.DefaultClusters)
			kc.Seed = cfg.RandomSeed
			c = kc
		} else {
			c = classify.NewRuleClassifier()
		}
		if err := c.Fit(feats); err != nil {
			return nil, fmt.Errorf("classifier %s fit: %w", name, err)
		}
		out[name] = c
	}
	return out, nil
}

// classifierFor names the classifier whose labeling a strategy consults.
func classifierFor(strategy, configured string) string {
	switch strategy {
	case parking.StrategyDynamicRule:
		return "rule"
	case parking.StrategyDynamicKMeans:
		return "kmeans"
	default:
		return configured
	}
}

// scenarioTimelines rebuilds the slot series from a scenario's call stream
// and relabels it with each already-fitted classifier.
func scenarioTimelines(builder *series.Builder, classifiers map[string]classify.Classifier, calls []series.HallCall, lobbyFloor int) (map[string]*dispatch.Timeline, []series.TimeSlot, error) {
	slots, err := builder.Build(calls)
	if err != nil {
		return nil, nil, err
	}
	feats := classify.FromSlots(slots, lobbyFloor)
	out := make(map[string]*dispatch.Timeline, len(classifiers))
	for name, c := range classifiers {
		out[name] = &dispatch.Timeline{Width: builder.Width, Slots: slots, States: classify.Label(c, feats)}
	}
	return out, slots, nil
}

// scenarioForecast closes the fitted model over one scenario's observed
// slot counts; nil disables forecasting for the run.
func scenarioForecast(model *forecast.Model, slots []series.TimeSlot, width time.Duration) dispatch.ForecastFn {
	if !model.Fitted() {
		return nil
	}
	counts := make(map[time.Time]float64, len(slots))
	for _, s := range slots {
		counts[s.Start] = float64(s.Count)
	}
	return func(epoch time.Time) float64 {
		prev := epoch.Add(-width).Truncate(width)
		y, ok := counts[prev]
		if !ok {
			return 0
		}
		_, yhat := model.Predict(prev, y)
		return yhat
	}
}

func writeFile(dir, name string, fn func(*os.File) error) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
