package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/gocarina/gocsv"
)

var (
	errMissingOutput = errors.New("-output is required")
	errNoEvaluations = errors.New("no parameter vector was evaluated")
)

// EvalRow is one row of evals.csv.
type EvalRow struct {
	Eval    int     `csv:"eval"`
	Fitness float64 `csv:"fitness"`
	Quality float64 `csv:"quality"`
	Best    bool    `csv:"best"` // improved on every earlier evaluation
}

// ParamRow is one row of params.csv: a single parameter of one evaluation.
type ParamRow struct {
	Eval  int     `csv:"eval"`
	Name  string  `csv:"name"`
	Path  string  `csv:"path"`
	Value float64 `csv:"value"`
}

// journal records every evaluation and remembers the best parameter vector.
type journal struct {
	params *ParamVector
	evals  *os.File
	values *os.File

	count       int
	bestFitness float64
	best        []float64
}

func newJournal(dir string, params *ParamVector) (*journal, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	evals, err := os.Create(filepath.Join(dir, "evals.csv"))
	if err != nil {
		return nil, err
	}
	values, err := os.Create(filepath.Join(dir, "params.csv"))
	if err != nil {
		evals.Close()
		return nil, err
	}
	return &journal{
		params:      params,
		evals:       evals,
		values:      values,
		bestFitness: math.Inf(1),
	}, nil
}

// Record appends one evaluation. values are the clamped parameters actually simulated.
func (j *journal) Record(fitness, quality float64, values []float64) error {
	j.count++
	improved := fitness < j.bestFitness
	if improved {
		j.bestFitness = fitness
		j.best = slices.Clone(values)
	}

	rows := make([]ParamRow, len(values))
	for i, v := range values {
		spec := j.params.Specs[i]
		rows[i] = ParamRow{Eval: j.count, Name: spec.Name, Path: spec.Path, Value: v}
	}
	evalRows := []EvalRow{{Eval: j.count, Fitness: fitness, Quality: quality, Best: improved}}

	if j.count == 1 {
		if err := gocsv.Marshal(evalRows, j.evals); err != nil {
			return err
		}
		return gocsv.Marshal(rows, j.values)
	}
	if err := gocsv.MarshalWithoutHeaders(evalRows, j.evals); err != nil {
		return err
	}
	return gocsv.MarshalWithoutHeaders(rows, j.values)
}

// Evals returns the number of recorded evaluations.
func (j *journal) Evals() int { return j.count }

// BestFitness returns the lowest fitness recorded, +Inf before the first Record.
func (j *journal) BestFitness() float64 { return j.bestFitness }

// BestValues returns the parameters of the best evaluation, nil before the first Record.
func (j *journal) BestValues() []float64 { return j.best }

// Close closes both files.
func (j *journal) Close() error {
	return errors.Join(j.evals.Close(), j.values.Close())
}
