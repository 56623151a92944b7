// Package main tunes steering and whisker parameters with CMA-ES so chasers catch
// evaders often while every agent keeps moving smoothly around obstacles.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/whiskers/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 18000, "Simulation duration in ticks per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	stepSize := flag.Float64("step", 0.3, "Initial CMA-ES step size in normalized parameter space")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(*configPath, *outputDir, *maxTicks, *seeds, *maxEvals, *population, *stepSize); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outputDir string, maxTicks, numSeeds, maxEvals, population int, stepSize float64) error {
	if outputDir == "" {
		return errMissingOutput
	}
	baseCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, int32(maxTicks), evalSeeds(numSeeds), configPath)

	journal, err := newJournal(outputDir, params)
	if err != nil {
		return err
	}
	defer journal.Close()

	if population == 0 {
		population = 4 + 3*params.Dim()/2
	}
	slog.Info("starting CMA-ES",
		"params", params.Dim(),
		"population", population,
		"max_evals", maxEvals,
		"seeds", numSeeds,
		"ticks_per_run", maxTicks,
	)

	start := time.Now()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			values := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(values)
			quality := evaluator.LastQuality()
			if err := journal.Record(fitness, quality, values); err != nil {
				slog.Error("failed to write journal", "error", err)
			}

			n := journal.Evals()
			elapsed := time.Since(start)
			slog.Info("evaluation",
				"eval", n,
				"fitness", fitness,
				"quality", quality,
				"best", journal.BestFitness(),
				"elapsed", elapsed.Round(time.Second),
				"eta", (time.Duration(maxEvals-n) * elapsed / time.Duration(n)).Round(time.Second),
			)
			return fitness
		},
	}

	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))
	result, err := optimize.Minimize(problem, initX,
		&optimize.Settings{FuncEvaluations: maxEvals},
		&optimize.CmaEsChol{InitStepSize: stepSize, Population: population},
	)
	if err != nil {
		slog.Warn("optimization ended early", "error", err)
	}

	best := journal.BestValues()
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return errNoEvaluations
	}

	attrs := []any{"evals", journal.Evals(), "fitness", journal.BestFitness(), "took", time.Since(start).Round(time.Second)}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Path, best[i])
	}
	slog.Info("optimization complete", attrs...)

	params.ApplyToConfig(baseCfg, best)
	out := filepath.Join(outputDir, "best_config.yaml")
	if err := baseCfg.WriteYAML(out); err != nil {
		return err
	}
	slog.Info("best config saved", "path", out)
	return nil
}

// evalSeeds returns the fixed seeds every parameter vector is scored on.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}
