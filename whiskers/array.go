package whiskers

import (
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/whiskers/curve"
	"github.com/pthm-cable/whiskers/physics"
)

// Slot is one ray probe. Origin and Target are in the array's local frame.
type Slot struct {
	Index  int
	Origin r2.Vec
	Target r2.Vec
	Layers physics.LayerMask

	hit    physics.Hit
	hasHit bool
}

// LastHit returns the result of the slot's most recent cast.
func (s *Slot) LastHit() (physics.Hit, bool) {
	return s.hit, s.hasHit
}

// cast probes the world and reports whether the slot went from clear to hit.
func (s *Slot) cast(frame physics.Frame, caster physics.Raycaster) bool {
	was := s.hasHit
	s.hit, s.hasHit = caster.Raycast(frame.TransformPoint(s.Origin), frame.TransformPoint(s.Target), s.Layers)
	return s.hasHit && !was
}

// DetectedHit pairs a hit with the index of the ray that produced it.
type DetectedHit struct {
	Hit   physics.Hit
	Index int
}

// Config configures a new Array.
type Config struct {
	Geometry
	Layers physics.LayerMask
	Left   curve.Curve // proportion curve for rays left of centre
	Right  curve.Curve // proportion curve for the centre ray and rays to its right
	Logger *slog.Logger
}

// Array owns the sensor slots of one fan.
//
// Geometry setters only mark the fan dirty. The next Tick recomputes the ray ends;
// slots are repositioned in place when the ray count is unchanged, otherwise the slot
// set is rebuilt. While frozen, rebuilds are deferred until the first tick after Thaw.
type Array struct {
	geometry    Geometry
	left, right curve.Curve
	layers      physics.LayerMask
	log         *slog.Logger

	ends  []RayEnds
	slots []Slot

	dirty          bool
	pendingRebuild bool
	frozen         bool

	detectedCount int // distinct colliders seen on the last tick
	listeners     listeners
}

// New creates an Array and populates its slots.
func New(cfg Config) (*Array, error) {
	if err := cfg.Geometry.Validate(); err != nil {
		return nil, err
	}
	if cfg.Left == nil || cfg.Right == nil {
		return nil, fmt.Errorf("whiskers: left and right proportion curves are required")
	}
	a := &Array{
		geometry: cfg.Geometry,
		left:     cfg.Left,
		right:    cfg.Right,
		layers:   cfg.Layers,
		log:      cfg.Logger,
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.layers == 0 {
		a.layers = physics.AllLayers
	}
	a.recompute()
	a.Populate()
	return a, nil
}

// Geometry returns the requested geometry. Slots may lag behind it while frozen.
func (a *Array) Geometry() Geometry { return a.geometry }

// SetResolution changes the number of rays to 2*n+3.
func (a *Array) SetResolution(n int) error {
	if n < 0 {
		return ErrNegativeResolution
	}
	if n != a.geometry.Resolution {
		a.geometry.Resolution = n
		a.dirty = true
	}
	return nil
}

// SetSemiConeDegrees changes the half-width of the fan.
func (a *Array) SetSemiConeDegrees(deg float64) {
	if deg != a.geometry.SemiConeDegrees {
		a.geometry.SemiConeDegrees = deg
		a.dirty = true
	}
}

// SetRange changes the maximum ray length. It may not drop below the minimum range.
func (a *Array) SetRange(r float64) error {
	if r < a.geometry.MinimumRange {
		return fmt.Errorf("whiskers: range %.4f is below minimum range %.4f", r, a.geometry.MinimumRange)
	}
	if r != a.geometry.Range {
		a.geometry.Range = r
		a.dirty = true
	}
	return nil
}

// SetMinimumRange changes the length every ray has before the proportion curves apply.
// It must lie in [0, Range].
func (a *Array) SetMinimumRange(r float64) error {
	if r < 0 {
		return fmt.Errorf("whiskers: minimum range %.4f is negative", r)
	}
	if r > a.geometry.Range {
		return fmt.Errorf("whiskers: minimum range %.4f exceeds range %.4f", r, a.geometry.Range)
	}
	if r != a.geometry.MinimumRange {
		a.geometry.MinimumRange = r
		a.dirty = true
	}
	return nil
}

// SetGeometry replaces the whole geometry at once, so range and minimum range can move
// past each other. Nothing changes when g is invalid.
func (a *Array) SetGeometry(g Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g != a.geometry {
		a.geometry = g
		a.dirty = true
	}
	return nil
}

// SetCurves replaces the proportion curves.
func (a *Array) SetCurves(left, right curve.Curve) {
	if left == nil || right == nil {
		return
	}
	a.left, a.right = left, right
	a.dirty = true
}

// SetLayers changes the layer filter of every slot immediately.
func (a *Array) SetLayers(mask physics.LayerMask) {
	a.layers = mask
	for i := range a.slots {
		a.slots[i].Layers = mask
	}
}

// Freeze marks the array as being in a phase where its slot set must not change.
func (a *Array) Freeze() { a.frozen = true }

// Thaw lifts Freeze; a deferred rebuild happens on the next Tick.
func (a *Array) Thaw() { a.frozen = false }

// Frozen reports whether structural rebuilds are currently deferred.
func (a *Array) Frozen() bool { return a.frozen }

// RebuildPending reports whether a structural rebuild is waiting for a safe tick.
func (a *Array) RebuildPending() bool { return a.pendingRebuild }

// Ends returns the current ray ends.
func (a *Array) Ends() []RayEnds { return slices.Clone(a.ends) }

// Count returns the number of live slots.
func (a *Array) Count() int { return len(a.slots) }

// Slots returns a copy of the live slots.
func (a *Array) Slots() []Slot { return slices.Clone(a.slots) }

// Populate tears down every slot and creates a fresh set from the current ray ends.
// It reports false when the array is frozen and the rebuild was deferred.
func (a *Array) Populate() bool {
	if a.frozen {
		a.pendingRebuild = true
		return false
	}
	if a.dirty {
		a.recompute()
	}

	a.teardown()
	for i, e := range a.ends {
		a.slots = append(a.slots, Slot{Index: i, Origin: e.Start, Target: e.End, Layers: a.layers})
	}
	a.pendingRebuild = false
	return true
}

// Restore adopts slots produced elsewhere, e.g. by reloading a saved agent. Their hit
// state is discarded. If they don't match the geometry, a rebuild is scheduled.
func (a *Array) Restore(slots []Slot) {
	a.teardown()
	for _, s := range slots {
		s.hit, s.hasHit = physics.Hit{}, false
		a.slots = append(a.slots, s)
	}
	if len(a.slots) != a.geometry.Count() {
		a.pendingRebuild = true
	}
}

func (a *Array) teardown() {
	clear(a.slots)
	a.slots = a.slots[:0]
	if a.detectedCount > 0 {
		a.detectedCount = 0
		a.listeners.emitUndetected()
	}
}

func (a *Array) recompute() {
	a.ends = appendRayEnds(a.ends[:0], a.geometry, a.left, a.right)
	a.dirty = false
}

// refresh applies pending geometry before a cast.
func (a *Array) refresh() {
	if a.dirty {
		a.recompute()
		if len(a.ends) == len(a.slots) && !a.pendingRebuild {
			for i := range a.slots {
				a.slots[i].Origin = a.ends[i].Start
				a.slots[i].Target = a.ends[i].End
			}
			return
		}
		a.pendingRebuild = true
	}
	if a.pendingRebuild && !a.frozen {
		a.Populate()
		a.log.Debug("whisker slots rebuilt", "count", len(a.slots))
	} else if a.pendingRebuild {
		a.log.Debug("whisker rebuild deferred", "want", len(a.ends), "have", len(a.slots))
	}
}

// Tick applies pending geometry, casts every slot in frame, and raises notifications:
// one detected per slot that went from clear to hit, and one undetected when the set of
// detected colliders becomes empty.
func (a *Array) Tick(frame physics.Frame, caster physics.Raycaster) {
	a.refresh()

	for i := range a.slots {
		if a.slots[i].cast(frame, caster) {
			a.listeners.emitDetected(a.slots[i].hit)
		}
	}

	count := len(a.DetectedSet())
	if a.detectedCount > 0 && count == 0 {
		a.listeners.emitUndetected()
	}
	a.detectedCount = count
}

// AnyDetected reports whether any slot hit something on the last tick.
func (a *Array) AnyDetected() bool {
	for i := range a.slots {
		if a.slots[i].hasHit {
			return true
		}
	}
	return false
}

// DetectedSet returns the distinct colliders hit on the last tick, sorted.
func (a *Array) DetectedSet() []physics.ColliderID {
	var ids []physics.ColliderID
	for i := range a.slots {
		if a.slots[i].hasHit {
			ids = append(ids, a.slots[i].hit.Collider)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// DetectedHits returns every hit with its ray index, in ascending index order.
func (a *Array) DetectedHits() []DetectedHit {
	var hits []DetectedHit
	for i := range a.slots {
		if a.slots[i].hasHit {
			hits = append(hits, DetectedHit{Hit: a.slots[i].hit, Index: a.slots[i].Index})
		}
	}
	return hits
}

// AvoidanceSide suggests a turn away from the nearest hit: +1 left, -1 right, 0 when
// nothing is detected. A centre hit turns toward the half with fewer hits, left on a tie.
func (a *Array) AvoidanceSide() int {
	center := len(a.slots) / 2
	nearest := -1
	var nearestDist float64
	left, right := 0, 0
	for i := range a.slots {
		s := &a.slots[i]
		if !s.hasHit {
			continue
		}
		switch {
		case s.Index < center:
			left++
		case s.Index > center:
			right++
		}
		if nearest < 0 || s.hit.Distance < nearestDist {
			nearest = s.Index
			nearestDist = s.hit.Distance
		}
	}
	switch {
	case nearest < 0:
		return 0
	case nearest < center:
		return -1
	case nearest > center:
		return 1
	case left > right:
		return -1
	default:
		return 1
	}
}

// OnDetected registers fn for slot clear-to-hit transitions.
func (a *Array) OnDetected(fn func(physics.Hit)) Subscription {
	return a.listeners.addDetected(fn)
}

// OnUndetected registers fn for the detected set becoming empty.
func (a *Array) OnUndetected(fn func()) Subscription {
	return a.listeners.addUndetected(fn)
}

// Unsubscribe removes a listener. It reports whether the subscription was registered.
func (a *Array) Unsubscribe(s Subscription) bool {
	return a.listeners.remove(s)
}
