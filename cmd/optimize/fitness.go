package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/whiskers/config"
	"github.com/pthm-cable/whiskers/game"
	"github.com/pthm-cable/whiskers/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	configPath  string
	statsWindow float64

	mu          sync.Mutex
	bestFitness float64
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Every run starts from the config at
// configPath (empty = defaults).
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, configPath string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		configPath:  configPath,
		statsWindow: 5.0,
		bestFitness: math.Inf(1),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	captures    int
	simSeconds  float64
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
	err         error
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
}

// failedFitness is returned for parameter vectors the simulation rejects.
const failedFitness = 1e6

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is evader captures per simulated minute, discounted by up to 20% for
// smooth, unobstructed motion.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result := fe.runSimulation(x, s)
			if result.err != nil {
				results[idx] = seedResult{fitness: failedFitness}
				return
			}
			quality := computeQuality(result.windowStats)
			results[idx] = seedResult{
				fitness: computeFitness(result, quality),
				quality: quality,
			}
		}(i, seed)
	}
	wg.Wait()

	// Aggregate results
	fitness := make([]float64, len(results))
	quality := make([]float64, len(results))
	for i, r := range results {
		fitness[i] = r.fitness
		quality[i] = r.quality
	}
	avgFitness := stat.Mean(fitness, nil)

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastQuality = stat.Mean(quality, nil)
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation executes a single headless simulation run.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	result := &runResult{}

	cfg, err := config.Load(fe.configPath)
	if err != nil {
		result.err = err
		return result
	}
	fe.params.ApplyToConfig(cfg, x)

	sim, err := game.NewSim(game.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		result.err = err
		return result
	}
	defer sim.Close()

	for sim.Tick() < fe.maxTicks {
		sim.Step()
	}

	result.captures = sim.Captures()
	result.simSeconds = float64(sim.Tick()) * cfg.Physics.DT
	return result
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: capturesPerMinute × (1 − 0.2 × quality) − 0.01 × quality
// The small additive term ranks zero-capture runs by quality.
func computeFitness(r *runResult, quality float64) float64 {
	if r.simSeconds <= 0 {
		return failedFitness
	}
	perMinute := float64(r.captures) / r.simSeconds * 60
	return perMinute*(1.0-0.2*quality) - 0.01*quality
}

// Quality component weights.
const (
	qualityWeightCruise   = 0.4
	qualityWeightObstacle = 0.3
	qualityWeightSpeed    = 0.3

	qualityWarmupWindows = 1 // skip first N windows (warmup)
)

// computeQuality computes motion quality ∈ [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var cruiseSum, obstacleSum float64
	speeds := make([]float64, 0, len(valid))
	for _, w := range valid {
		agents := float64(w.Chasers + w.Evaders)
		if agents == 0 {
			continue
		}

		// 1. Turning that settles: time spent cruising or at rest rather than braking
		cruiseSum += w.CruiseFrac + w.IdleFrac

		// 2. Few whisker contacts per agent per second
		windowSec := float64(w.WindowEndTick-w.WindowStartTick) / float64(w.WindowEndTick) * w.SimTimeSec
		if windowSec > 0 {
			rate := float64(w.Detections) / agents / windowSec
			obstacleSum += math.Exp(-rate)
		}

		speeds = append(speeds, w.SpeedMean)
	}
	if len(speeds) == 0 {
		return 0
	}
	n := float64(len(speeds))

	// 3. Steady speed across windows (coefficient of variation)
	speedScore := 0.0
	if mean, std := stat.MeanStdDev(speeds, nil); mean > 0 && !math.IsNaN(std) {
		speedScore = math.Exp(-std / mean)
	} else if mean > 0 {
		speedScore = 1
	}

	quality := qualityWeightCruise*cruiseSum/n +
		qualityWeightObstacle*obstacleSum/n +
		qualityWeightSpeed*speedScore

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
