package game

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/physics"
)

// placeObstacles scatters static circles and boxes inside the spawn margin.
func (s *Sim) placeObstacles() error {
	oc := s.cfg.Obstacles
	layer := s.cfg.Derived.ObstacleLayer

	add := func(c physics.Collider) error {
		id, err := s.colliders.AddStatic(c)
		if err != nil {
			return fmt.Errorf("placing obstacle: %w", err)
		}
		c.ID = id
		s.obstacles = append(s.obstacles, c)
		return nil
	}

	for i := 0; i < oc.Circles; i++ {
		size := s.randomSize()
		if err := add(physics.Collider{
			Layers: layer,
			Shape:  physics.ShapeCircle,
			Center: s.randomPoint(size),
			Radius: size,
		}); err != nil {
			return err
		}
	}

	for i := 0; i < oc.Boxes; i++ {
		half := r2.Vec{X: s.randomSize(), Y: s.randomSize()}
		if err := add(physics.Collider{
			Layers:   layer,
			Shape:    physics.ShapeBox,
			Center:   s.randomPoint(max(half.X, half.Y)),
			HalfSize: half,
		}); err != nil {
			return err
		}
	}
	return nil
}

// randomSize returns an obstacle radius or half extent.
func (s *Sim) randomSize() float64 {
	oc := s.cfg.Obstacles
	return oc.MinSize + s.rng.Float64()*(oc.MaxSize-oc.MinSize)
}

// randomPoint returns a point at least margin+clearance from every edge.
func (s *Sim) randomPoint(clearance float64) r2.Vec {
	w, h := s.cfg.World.Width, s.cfg.World.Height
	m := s.cfg.Population.SpawnMargin + clearance
	if 2*m >= w || 2*m >= h {
		return r2.Vec{X: w / 2, Y: h / 2}
	}
	return r2.Vec{
		X: m + s.rng.Float64()*(w-2*m),
		Y: m + s.rng.Float64()*(h-2*m),
	}
}

// blocked reports whether a circle at p overlaps any static obstacle.
func (s *Sim) blocked(p r2.Vec, radius float64) bool {
	for i := range s.obstacles {
		o := &s.obstacles[i]
		switch o.Shape {
		case physics.ShapeCircle:
			if r2.Norm(r2.Sub(p, o.Center)) < o.Radius+radius {
				return true
			}
		case physics.ShapeBox:
			d := r2.Sub(p, o.Center)
			if math.Abs(d.X) < o.HalfSize.X+radius && math.Abs(d.Y) < o.HalfSize.Y+radius {
				return true
			}
		}
	}
	return false
}

// spawnPoint finds a free spot for an agent, giving up after a few attempts.
func (s *Sim) spawnPoint(radius float64) r2.Vec {
	const attempts = 32
	var p r2.Vec
	for range attempts {
		p = s.randomPoint(radius)
		if !s.blocked(p, radius) {
			return p
		}
	}
	return p
}
