package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/whiskers/components"
)

// ThreatSystem assigns chaser targets and evader threats.
//
// Evaders react to the nearest opponent inside the detection radius. Chasers keep their
// target while it is alive and otherwise pick the nearest opponent anywhere in the world.
type ThreatSystem struct {
	agents   *ecs.Filter2[components.Position, components.Agent]
	evaders  *ecs.Filter3[components.Position, components.Agent, components.Threat]
	chasers  *ecs.Filter3[components.Position, components.Agent, components.Target]
	posMap   *ecs.Map[components.Position]
	agentMap *ecs.Map[components.Agent]

	grid      *SpatialGrid
	radius    float64
	opponents map[uint8]uint8 // archetype -> archetype it reacts to

	byArchetype map[uint8][]ecs.Entity
	neighbors   []Neighbor
}

// NewThreatSystem creates a threat system. opponents maps an archetype index to the
// archetype index it chases or evades.
func NewThreatSystem(w *ecs.World, grid *SpatialGrid, detectionRadius float64, opponents map[uint8]uint8) *ThreatSystem {
	return &ThreatSystem{
		agents:      ecs.NewFilter2[components.Position, components.Agent](w),
		evaders:     ecs.NewFilter3[components.Position, components.Agent, components.Threat](w),
		chasers:     ecs.NewFilter3[components.Position, components.Agent, components.Target](w),
		posMap:      ecs.NewMap[components.Position](w),
		agentMap:    ecs.NewMap[components.Agent](w),
		grid:        grid,
		radius:      detectionRadius,
		opponents:   opponents,
		byArchetype: make(map[uint8][]ecs.Entity),
	}
}

// Update rebuilds the spatial index and refreshes every Threat and Target.
func (s *ThreatSystem) Update(w *ecs.World) {
	s.grid.Clear()
	for k := range s.byArchetype {
		s.byArchetype[k] = s.byArchetype[k][:0]
	}

	query := s.agents.Query()
	for query.Next() {
		e := query.Entity()
		pos, agent := query.Get()
		s.grid.Insert(e, pos.X, pos.Y)
		s.byArchetype[agent.Archetype] = append(s.byArchetype[agent.Archetype], e)
	}

	evaders := s.evaders.Query()
	for evaders.Next() {
		e := evaders.Entity()
		pos, agent, threat := evaders.Get()
		*threat = components.Threat{}

		opp, ok := s.opponents[agent.Archetype]
		if !ok {
			continue
		}
		s.neighbors = s.grid.QueryRadiusInto(s.neighbors[:0], pos.X, pos.Y, s.radius, e, s.posMap)
		best := math.MaxFloat64
		for _, n := range s.neighbors {
			if n.DistSq >= best {
				continue
			}
			if a := s.agentMap.Get(n.E); a != nil && a.Archetype == opp {
				best = n.DistSq
				threat.Entity = n.E
			}
		}
		if !threat.Entity.IsZero() {
			threat.Distance = math.Sqrt(best)
		}
	}

	chasers := s.chasers.Query()
	for chasers.Next() {
		e := chasers.Entity()
		pos, agent, target := chasers.Get()
		if !target.Entity.IsZero() && w.Alive(target.Entity) {
			continue
		}
		target.Entity = ecs.Entity{}

		opp, ok := s.opponents[agent.Archetype]
		if !ok {
			continue
		}
		best := math.MaxFloat64
		for _, cand := range s.byArchetype[opp] {
			if cand == e {
				continue
			}
			cp := s.posMap.Get(cand)
			dx, dy := cp.X-pos.X, cp.Y-pos.Y
			if d := dx*dx + dy*dy; d < best {
				best = d
				target.Entity = cand
			}
		}
	}
}
