package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/components"
	"github.com/pthm-cable/whiskers/physics"
	"github.com/pthm-cable/whiskers/steering"
)

// minHeadingSpeed is the speed below which an evader's velocity doesn't define a heading.
const minHeadingSpeed = 1e-3

// SteeringSystem runs the steering controllers for every agent.
//
// Chasers face their target with Align and accelerate along their heading, faster the
// better they are aligned. Evaders take their linear velocity from Evade and Align to
// its heading. Whisker hits rotate the goal away from the nearest obstacle.
type SteeringSystem struct {
	filter     *ecs.Filter5[components.Position, components.Velocity, components.Rotation, components.Agent, components.Steering]
	posMap     *ecs.Map[components.Position]
	velMap     *ecs.Map[components.Velocity]
	targetMap  *ecs.Map[components.Target]
	threatMap  *ecs.Map[components.Threat]
	sensorsMap *ecs.Map[components.Sensors]

	align      *steering.Align
	evade      *steering.Evade
	avoidAngle float64
	dt         float64
}

// NewSteeringSystem creates a steering system.
func NewSteeringSystem(w *ecs.World, align *steering.Align, evade *steering.Evade, avoidAngle, dt float64) *SteeringSystem {
	return &SteeringSystem{
		filter:     ecs.NewFilter5[components.Position, components.Velocity, components.Rotation, components.Agent, components.Steering](w),
		posMap:     ecs.NewMap[components.Position](w),
		velMap:     ecs.NewMap[components.Velocity](w),
		targetMap:  ecs.NewMap[components.Target](w),
		threatMap:  ecs.NewMap[components.Threat](w),
		sensorsMap: ecs.NewMap[components.Sensors](w),
		align:      align,
		evade:      evade,
		avoidAngle: avoidAngle,
		dt:         dt,
	}
}

// Update runs the steering system.
func (s *SteeringSystem) Update(w *ecs.World) {
	query := s.filter.Query()
	for query.Next() {
		e := query.Entity()
		pos, vel, rot, agent, st := query.Get()

		body := components.BodyRef{Pos: pos, Vel: vel, Rot: rot}
		req := steering.RequestFromBody(body, agent.Caps, s.dt)

		st.Avoid = 0
		if s.sensorsMap.Has(e) {
			if sens := s.sensorsMap.Get(e); sens.Whiskers != nil {
				st.Avoid = sens.Whiskers.AvoidanceSide()
			}
		}

		var res steering.Result
		switch agent.Behavior {
		case components.BehaviorChase:
			res, st.Arrival = s.chase(w, e, req, st)
		case components.BehaviorEvade:
			res, st.Arrival = s.flee(w, e, req, st)
		}

		res.Apply(body)
		st.Linear = res.Linear
		st.Angular = res.Angular
	}
}

func (s *SteeringSystem) chase(w *ecs.World, e ecs.Entity, req steering.Request, st *components.Steering) (steering.Result, steering.ArrivalState) {
	var goal *steering.Pose
	if t := s.targetOf(w, e); !t.IsZero() {
		goal = steering.Face(req.Position, s.posMap.Get(t).Vec())
	}
	if goal == nil {
		res := steering.Result{Linear: steering.Approach(req, r2.Vec{})}
		return res, st.Arrival
	}

	goal.Orientation += float64(st.Avoid) * s.avoidAngle
	st.Goal = goal.Orientation

	res, next := s.align.Step(st.Arrival, req, goal)

	// Throttle by alignment: full speed when facing the goal, none when facing away.
	alignment := math.Max(0, math.Cos(steering.DeltaAngle(req.Orientation, goal.Orientation)*math.Pi/180))
	desired := r2.Scale(req.MaxSpeed*alignment, physics.Forward(req.Orientation))
	res.Linear = steering.Approach(req, desired)
	return res, next
}

func (s *SteeringSystem) flee(w *ecs.World, e ecs.Entity, req steering.Request, st *components.Steering) (steering.Result, steering.ArrivalState) {
	var threat *steering.Pose
	var threatVel r2.Vec
	if t := s.threatOf(w, e); !t.IsZero() {
		threat = &steering.Pose{Position: s.posMap.Get(t).Vec()}
		threatVel = s.velMap.Get(t).Vec()
	}

	linear := s.evade.Step(threat, threatVel, req).Linear
	if threat == nil {
		// nothing to run from: coast to a stop
		linear = steering.Approach(req, r2.Vec{})
	}

	var goal *steering.Pose
	if r2.Norm(linear) > minHeadingSpeed {
		goal = &steering.Pose{Orientation: physics.Bearing(r2.Vec{}, linear)}
		if st.Avoid != 0 {
			turn := float64(st.Avoid) * s.avoidAngle
			goal.Orientation += turn
			linear = physics.Rotate(linear, turn)
		}
		st.Goal = goal.Orientation
	}

	res, next := s.align.Step(st.Arrival, req, goal)
	res.Linear = linear
	return res, next
}

// targetOf returns e's live chase target, or the zero entity.
func (s *SteeringSystem) targetOf(w *ecs.World, e ecs.Entity) ecs.Entity {
	if !s.targetMap.Has(e) {
		return ecs.Entity{}
	}
	return liveOrZero(w, s.targetMap.Get(e).Entity)
}

// threatOf returns the live entity e is evading, or the zero entity.
func (s *SteeringSystem) threatOf(w *ecs.World, e ecs.Entity) ecs.Entity {
	if !s.threatMap.Has(e) {
		return ecs.Entity{}
	}
	return liveOrZero(w, s.threatMap.Get(e).Entity)
}

func liveOrZero(w *ecs.World, e ecs.Entity) ecs.Entity {
	if e.IsZero() || !w.Alive(e) {
		return ecs.Entity{}
	}
	return e
}
