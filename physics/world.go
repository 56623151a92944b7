package physics

import (
	"fmt"
	"math"
	"slices"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r2"
)

// Shape is the geometry of a collider.
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeBox          // axis-aligned
)

// Collider is a static or dynamic collision volume.
type Collider struct {
	ID       ColliderID
	Layers   LayerMask
	Shape    Shape
	Center   r2.Vec
	Radius   float64 // circle
	HalfSize r2.Vec  // box
}

// Bounds implements rtreego.Spatial.
func (c *Collider) Bounds() rtreego.Rect {
	min, max := c.aabb()
	return rectFromPoints(min, max)
}

func (c *Collider) aabb() (min, max r2.Vec) {
	ext := c.HalfSize
	if c.Shape == ShapeCircle {
		ext = r2.Vec{X: c.Radius, Y: c.Radius}
	}
	return r2.Sub(c.Center, ext), r2.Add(c.Center, ext)
}

// WorldOptions configures query behaviour.
type WorldOptions struct {
	// QueriesStartInColliders makes rays that start inside a collider report it at the origin.
	// When false those colliders are ignored, so an agent's sensors don't see its own body.
	QueriesStartInColliders bool
}

// Tree branching factors, same heuristic for both trees.
const (
	treeMinChildren = 25
	treeMaxChildren = 50
)

// World is an in-memory collider set. Static colliders live in one R-tree built as they
// are added; dynamic colliders are replaced wholesale each tick.
type World struct {
	opts    WorldOptions
	static  *rtreego.Rtree
	dynamic *rtreego.Rtree
	nextID  ColliderID

	dynamicBuf []Collider
	candidates []rtreego.Spatial
}

// NewWorld creates an empty world.
func NewWorld(opts WorldOptions) *World {
	return &World{
		opts:    opts,
		static:  rtreego.NewTree(2, treeMinChildren, treeMaxChildren),
		dynamic: rtreego.NewTree(2, treeMinChildren, treeMaxChildren),
		nextID:  1,
	}
}

// Allocate reserves a collider ID for a dynamic collider.
func (w *World) Allocate() ColliderID {
	id := w.nextID
	w.nextID++
	return id
}

// AddStatic inserts a static collider and returns its ID.
func (w *World) AddStatic(c Collider) (ColliderID, error) {
	switch c.Shape {
	case ShapeCircle:
		if c.Radius <= 0 {
			return 0, fmt.Errorf("physics: circle radius %.4f must be positive", c.Radius)
		}
	case ShapeBox:
		if c.HalfSize.X <= 0 || c.HalfSize.Y <= 0 {
			return 0, fmt.Errorf("physics: box half size %v must be positive", c.HalfSize)
		}
	default:
		return 0, fmt.Errorf("physics: unknown shape %d", c.Shape)
	}
	c.ID = w.Allocate()
	w.static.Insert(&c)
	return c.ID, nil
}

// SetDynamic replaces the dynamic collider set. IDs must come from Allocate.
func (w *World) SetDynamic(colliders []Collider) {
	w.dynamicBuf = append(w.dynamicBuf[:0], colliders...)
	spatials := make([]rtreego.Spatial, 0, len(w.dynamicBuf))
	for i := range w.dynamicBuf {
		if w.dynamicBuf[i].Shape == ShapeCircle && w.dynamicBuf[i].Radius <= 0 {
			continue
		}
		spatials = append(spatials, &w.dynamicBuf[i])
	}
	w.dynamic = rtreego.NewTree(2, treeMinChildren, treeMaxChildren, spatials...)
}

// StaticCount returns the number of static colliders.
func (w *World) StaticCount() int { return w.static.Size() }

// Raycast implements Raycaster.
func (w *World) Raycast(from, to r2.Vec, mask LayerMask) (Hit, bool) {
	seg := r2.Sub(to, from)
	length := r2.Norm(seg)
	if length == 0 {
		return Hit{}, false
	}
	dir := r2.Scale(1/length, seg)

	bb := rectFromPoints(
		r2.Vec{X: math.Min(from.X, to.X), Y: math.Min(from.Y, to.Y)},
		r2.Vec{X: math.Max(from.X, to.X), Y: math.Max(from.Y, to.Y)},
	)
	w.candidates = w.candidates[:0]
	w.candidates = append(w.candidates, w.static.SearchIntersect(bb)...)
	w.candidates = append(w.candidates, w.dynamic.SearchIntersect(bb)...)

	var best Hit
	found := false
	for _, s := range w.candidates {
		c := s.(*Collider)
		if !mask.Contains(c.Layers) {
			continue
		}
		h, ok := w.intersect(c, from, dir, length)
		if !ok {
			continue
		}
		if !found || h.Distance < best.Distance || (h.Distance == best.Distance && h.Collider < best.Collider) {
			best = h
			found = true
		}
	}
	if found {
		best.Fraction = best.Distance / length
	}
	return best, found
}

func (w *World) intersect(c *Collider, origin, dir r2.Vec, length float64) (Hit, bool) {
	var (
		t      float64
		normal r2.Vec
		ok     bool
		inside bool
	)
	switch c.Shape {
	case ShapeCircle:
		t, normal, inside, ok = rayCircle(origin, dir, length, c.Center, c.Radius)
	case ShapeBox:
		t, normal, inside, ok = rayBox(origin, dir, length, c.Center, c.HalfSize)
	}
	if !ok {
		return Hit{}, false
	}
	if inside && !w.opts.QueriesStartInColliders {
		return Hit{}, false
	}
	return Hit{
		Collider: c.ID,
		Point:    r2.Add(origin, r2.Scale(t, dir)),
		Normal:   normal,
		Distance: t,
	}, true
}

func rayCircle(o, u r2.Vec, length float64, center r2.Vec, radius float64) (t float64, normal r2.Vec, inside, ok bool) {
	m := r2.Sub(o, center)
	b := r2.Dot(m, u)
	c := r2.Dot(m, m) - radius*radius
	if c <= 0 {
		return 0, r2.Scale(-1, u), true, true
	}
	if b > 0 {
		return 0, r2.Vec{}, false, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, r2.Vec{}, false, false
	}
	t = -b - math.Sqrt(disc)
	if t > length {
		return 0, r2.Vec{}, false, false
	}
	p := r2.Add(o, r2.Scale(t, u))
	return t, r2.Unit(r2.Sub(p, center)), false, true
}

func rayBox(o, u r2.Vec, length float64, center, half r2.Vec) (t float64, normal r2.Vec, inside, ok bool) {
	min, max := r2.Sub(center, half), r2.Add(center, half)
	if o.X >= min.X && o.X <= max.X && o.Y >= min.Y && o.Y <= max.Y {
		return 0, r2.Scale(-1, u), true, true
	}

	tmin, tmax := 0.0, length
	axes := [2]struct{ o, u, lo, hi float64 }{
		{o.X, u.X, min.X, max.X},
		{o.Y, u.Y, min.Y, max.Y},
	}
	for i, a := range axes {
		if math.Abs(a.u) < 1e-12 {
			if a.o < a.lo || a.o > a.hi {
				return 0, r2.Vec{}, false, false
			}
			continue
		}
		t1 := (a.lo - a.o) / a.u
		t2 := (a.hi - a.o) / a.u
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			normal = r2.Vec{}
			if i == 0 {
				normal.X = sign
			} else {
				normal.Y = sign
			}
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, r2.Vec{}, false, false
		}
	}
	return tmin, normal, false, true
}

// OverlapBox returns the IDs of colliders matching mask that overlap the rectangle of the
// given size centred at local point center in frame. IDs are sorted ascending.
func (w *World) OverlapBox(frame Frame, center, size r2.Vec, mask LayerMask) []ColliderID {
	if size.X <= 0 || size.Y <= 0 {
		return nil
	}
	half := r2.Scale(0.5, size)
	corners := [4]r2.Vec{
		frame.TransformPoint(r2.Add(center, r2.Vec{X: -half.X, Y: -half.Y})),
		frame.TransformPoint(r2.Add(center, r2.Vec{X: half.X, Y: -half.Y})),
		frame.TransformPoint(r2.Add(center, r2.Vec{X: half.X, Y: half.Y})),
		frame.TransformPoint(r2.Add(center, r2.Vec{X: -half.X, Y: half.Y})),
	}
	min, max := corners[0], corners[0]
	for _, p := range corners[1:] {
		min = r2.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y)}
		max = r2.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y)}
	}
	bb := rectFromPoints(min, max)

	w.candidates = w.candidates[:0]
	w.candidates = append(w.candidates, w.static.SearchIntersect(bb)...)
	w.candidates = append(w.candidates, w.dynamic.SearchIntersect(bb)...)

	var ids []ColliderID
	for _, s := range w.candidates {
		c := s.(*Collider)
		if !mask.Contains(c.Layers) {
			continue
		}
		if overlapsOriented(c, frame, center, half, corners) {
			ids = append(ids, c.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

func overlapsOriented(c *Collider, frame Frame, center, half r2.Vec, corners [4]r2.Vec) bool {
	switch c.Shape {
	case ShapeCircle:
		local := r2.Sub(frame.InverseTransformPoint(c.Center), center)
		closest := r2.Vec{X: clamp(local.X, -half.X, half.X), Y: clamp(local.Y, -half.Y, half.Y)}
		return r2.Norm(r2.Sub(local, closest)) <= c.Radius
	case ShapeBox:
		min, max := c.aabb()
		boxCorners := [4]r2.Vec{min, {X: max.X, Y: min.Y}, max, {X: min.X, Y: max.Y}}
		axes := [4]r2.Vec{
			{X: 1, Y: 0},
			{X: 0, Y: 1},
			frame.TransformDirection(r2.Vec{X: 1, Y: 0}),
			frame.TransformDirection(r2.Vec{X: 0, Y: 1}),
		}
		for _, axis := range axes {
			aMin, aMax := project(corners, axis)
			bMin, bMax := project(boxCorners, axis)
			if aMax < bMin || bMax < aMin {
				return false
			}
		}
		return true
	}
	return false
}

func project(pts [4]r2.Vec, axis r2.Vec) (lo, hi float64) {
	lo = r2.Dot(pts[0], axis)
	hi = lo
	for _, p := range pts[1:] {
		d := r2.Dot(p, axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// rtreego rejects zero-length rects, so degenerate extents are padded.
const rectPad = 1e-6

func rectFromPoints(min, max r2.Vec) rtreego.Rect {
	w := math.Max(max.X-min.X, rectPad)
	h := math.Max(max.Y-min.Y, rectPad)
	r, err := rtreego.NewRect(rtreego.Point{min.X, min.Y}, []float64{w, h})
	if err != nil {
		// unreachable: lengths are padded positive
		panic(err)
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
