// Ray fan preview tool - prints the whisker layout for a configuration as CSV.
//
// Usage: go run ./cmd/rayfan -config config.yaml -resolution 2 -semi-cone 45
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/whiskers/config"
	"github.com/pthm-cable/whiskers/curve"
	"github.com/pthm-cable/whiskers/whiskers"
)

// Ray is one row of the output.
type Ray struct {
	Index      int     `csv:"index"`
	Angle      float64 `csv:"angle"` // degrees, positive is left of forward
	Proportion float64 `csv:"proportion"`
	Length     float64 `csv:"length"`
	EndX       float64 `csv:"end_x"`
	EndY       float64 `csv:"end_y"`
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	resolution := flag.Int("resolution", 0, "Rays on each side between the centre and the edge")
	semiCone := flag.Float64("semi-cone", 0, "Half-width of the fan in degrees")
	rng := flag.Float64("range", 0, "Maximum ray length")
	minRange := flag.Float64("min-range", 0, "Length every ray has before the curves apply")
	leftCurve := flag.String("left", "", "Left proportion curve as from,to ease-in-out (empty = config)")
	rightCurve := flag.String("right", "", "Right proportion curve as from,to ease-in-out (empty = config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	g := whiskers.Geometry{
		Resolution:      cfg.Whiskers.Resolution,
		SemiConeDegrees: cfg.Whiskers.SemiConeDegrees,
		Range:           cfg.Whiskers.Range,
		MinimumRange:    cfg.Whiskers.MinimumRange,
	}
	// Only flags given on the command line override the config.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "resolution":
			g.Resolution = *resolution
		case "semi-cone":
			g.SemiConeDegrees = *semiCone
		case "range":
			g.Range = *rng
		case "min-range":
			g.MinimumRange = *minRange
		}
	})

	left, err := easeFlag(*leftCurve, cfg.Derived.WhiskerLeft)
	if err != nil {
		slog.Error("bad -left curve", "error", err)
		os.Exit(1)
	}
	right, err := easeFlag(*rightCurve, cfg.Derived.WhiskerRight)
	if err != nil {
		slog.Error("bad -right curve", "error", err)
		os.Exit(1)
	}

	if err := write(os.Stdout, g, left, right); err != nil {
		slog.Error("failed to write ray fan", "error", err)
		os.Exit(1)
	}
}

// write prints one CSV row per ray.
func write(w io.Writer, g whiskers.Geometry, left, right curve.Curve) error {
	rays, err := layout(g, left, right)
	if err != nil {
		return err
	}
	return gocsv.Marshal(rays, w)
}

// layout computes the rays of g.
func layout(g whiskers.Geometry, left, right curve.Curve) ([]Ray, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	ends := whiskers.ComputeRayEnds(g, left, right)
	rays := make([]Ray, len(ends))
	for i, e := range ends {
		p := whiskers.Proportion(g, left, right, i)
		rays[i] = Ray{
			Index:      i,
			Angle:      g.RayAngle(i),
			Proportion: p,
			Length:     g.MinimumRange + p*(g.Range-g.MinimumRange),
			EndX:       e.End.X,
			EndY:       e.End.Y,
		}
	}
	return rays, nil
}

// easeFlag parses "from,to" into an ease-in-out curve. An empty value keeps def.
func easeFlag(v string, def curve.Curve) (curve.Curve, error) {
	if v == "" {
		return def, nil
	}
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("want from,to, got %q", v)
	}
	from, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, err
	}
	to, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, err
	}
	return curve.Spec{Kind: "ease_in_out", From: from, To: to}.Build()
}
