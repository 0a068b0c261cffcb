// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tracer_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/raytracing/hook"
	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/rtlog"
	"github.com/cpmech/raytracing/study"
	"github.com/cpmech/raytracing/tracer"
)

func newSilentLog() *rtlog.Logger {
	l := rtlog.New(0, nil)
	l.Silent = true
	return l
}

// countingHook counts how many segments a ray traverses, the hook
// Scenario 1 (spec §8) is built around.
type countingHook struct{ n int }

func (h *countingHook) OnSegment(ctx *hook.SegmentContext) error {
	h.n++
	return nil
}

// TestScenario1_OneDTraversal drives spec.md §8 Scenario 1: a unit
// segment split into two lin2 elements at x=0.5, an unbounded ray
// starting inside the first element and exiting the external
// boundary at x=1.
func TestScenario1_OneDTraversal(t *testing.T) {
	m := mesh.Build1DTwoSegments()
	elems := []mesh.Element{m.Element(0), m.Element(1)}

	s := study.New(study.Config{}, newSilentLog())
	s.SetElements(elems)
	counter := &countingHook{}
	s.RegisterSegmentHook(0, "counter", counter)
	s.RegisterBoundaryHook(2, "kill", hook.KillingBC{})
	require.NoError(t, s.InitialSetup())

	pool := study.NewPool(s, 0, 1, 1, 0)
	r := pool.AcquireUniqueRay()
	require.NoError(t, r.SetStart([3]float64{0.1, 0, 0}))
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	require.NoError(t, r.SetStartingElem(m.Element(0), -1))

	tr := tracer.New(0, 0, s, nil, nil, newSilentLog())
	result := tr.Trace(r)

	require.Equal(t, tracer.OutcomeCompleted, result.Outcome)
	assert.Equal(t, 2, counter.n)
	assert.Equal(t, 2, r.Intersections())
	assert.InDelta(t, 0.9, r.Distance(), 1e-9)
	assert.False(t, r.ShouldContinue())
	p := r.CurrentPoint()
	assert.InDelta(t, 1.0, p[0], 1e-9)
}

// noopSegmentHook satisfies the per-subdomain coverage check (spec
// §4.E phase 2) for a scenario that needs no per-segment accumulation.
type noopSegmentHook struct{}

func (noopSegmentHook) OnSegment(ctx *hook.SegmentContext) error { return nil }

// uSquaredIntegral is the Scenario 2 per-segment integrand: u=1
// everywhere, so each segment contributes its own length into
// r.Data()[0] (no JxW quadrature weighting needed since u is constant).
type uSquaredIntegral struct{ dataIdx int }

func (k *uSquaredIntegral) OnSegment(ctx *hook.SegmentContext) error {
	ctx.Data()[k.dataIdx] += ctx.Length()
	return nil
}

// TestScenario2_LineIntegral drives spec.md §8 Scenario 2: a ray from
// (0,0,0) to (1,1,0) across a 2x2 quad mesh of the unit square,
// integrating u^2=1 along the path; the total should equal the
// diagonal's length, sqrt(2).
func TestScenario2_LineIntegral(t *testing.T) {
	m := mesh.Build2x2Quads()
	elems := make([]mesh.Element, 4)
	for i := range elems {
		elems[i] = m.Element(i)
	}

	s := study.New(study.Config{}, newSilentLog())
	s.SetElements(elems)
	k := &uSquaredIntegral{dataIdx: 0}
	s.RegisterSegmentHook(0, "integral", k)
	s.RegisterBoundaryHook(10, "kill", hook.KillingBC{})
	require.NoError(t, s.InitialSetup())

	pool := study.NewPool(s, 0, 1, 1, 0)
	r := pool.AcquireUniqueRay()
	require.NoError(t, r.SetStart([3]float64{0, 0, 0}))
	require.NoError(t, r.SetStartingDirection([3]float64{1, 1, 0}))
	require.NoError(t, r.SetStartingEndPoint([3]float64{1, 1, 0}))
	start, ok := m.Locate(0, [3]float64{0, 0, 0})
	require.True(t, ok)
	require.NoError(t, r.SetStartingElem(start, -1))

	tr := tracer.New(0, 0, s, nil, nil, newSilentLog())
	result := tr.Trace(r)

	require.Equal(t, tracer.OutcomeCompleted, result.Outcome)
	assert.InDelta(t, math.Sqrt2, r.Data()[0], 1e-6)
}

// TestScenario3_ReflectingCorner drives spec.md §8 Scenario 3: a
// single quad covering the unit square with a reflecting boundary
// hook on every side; the ray bounces until max_distance is reached.
func TestScenario3_ReflectingCorner(t *testing.T) {
	m := mesh.BuildUnitSquareOneQuad()
	elems := []mesh.Element{m.Element(0)}

	s := study.New(study.Config{}, newSilentLog())
	s.SetElements(elems)
	s.RegisterSegmentHook(0, "noop", noopSegmentHook{})
	reflect := &hook.ReflectingBC{Normal: func(ctx *hook.BoundaryContext) [3]float64 {
		return normalFor(m, ctx)
	}}
	s.RegisterBoundaryHook(1, "reflect", reflect)
	require.NoError(t, s.InitialSetup())

	pool := study.NewPool(s, 0, 1, 1, 0)
	r := pool.AcquireUniqueRay()
	require.NoError(t, r.SetStart([3]float64{0.5, 0.5, 0}))
	require.NoError(t, r.SetStartingDirection([3]float64{1, 1, 0}))
	require.NoError(t, r.SetStartingMaxDistance(10))
	require.NoError(t, r.SetStartingElem(m.Element(0), -1))

	tr := tracer.New(0, 0, s, nil, nil, newSilentLog())
	result := tr.Trace(r)

	require.Equal(t, tracer.OutcomeCompleted, result.Outcome)
	assert.GreaterOrEqual(t, r.Intersections(), 7)
	assert.InDelta(t, 10.0, r.Distance(), 1e-6)
}

// crossingHook counts how many times a conforming internal boundary is
// crossed, without killing or redirecting the ray.
type crossingHook struct{ n int }

func (h *crossingHook) OnBoundary(ctx *hook.BoundaryContext) error {
	h.n++
	return nil
}

// TestTrace_InternalBoundaryHookFires drives a ray straight across the
// subdomain seam of Build2x2QuadsTwoSubdomains: the internal boundary
// hook on id 5 must run exactly once, for the single side it shares
// between cell 0 and cell 1, and the ray must keep tracing into cell 1
// afterward rather than terminate at the seam.
func TestTrace_InternalBoundaryHookFires(t *testing.T) {
	m := mesh.Build2x2QuadsTwoSubdomains()
	elems := make([]mesh.Element, 4)
	for i := range elems {
		elems[i] = m.Element(i)
	}

	s := study.New(study.Config{}, newSilentLog())
	s.SetElements(elems)
	s.RegisterSegmentHook(0, "noop0", noopSegmentHook{})
	s.RegisterSegmentHook(1, "noop1", noopSegmentHook{})
	seam := &crossingHook{}
	s.RegisterBoundaryHook(5, "seam", seam)
	s.RegisterBoundaryHook(10, "kill", hook.KillingBC{})
	require.NoError(t, s.InitialSetup())

	pool := study.NewPool(s, 0, 1, 1, 0)
	r := pool.AcquireUniqueRay()
	require.NoError(t, r.SetStart([3]float64{0.1, 0.25, 0}))
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	start, ok := m.Locate(0, [3]float64{0.1, 0.25, 0})
	require.True(t, ok)
	require.NoError(t, r.SetStartingElem(start, -1))

	tr := tracer.New(0, 0, s, nil, nil, newSilentLog())
	result := tr.Trace(r)

	require.Equal(t, tracer.OutcomeCompleted, result.Outcome)
	assert.Equal(t, 1, seam.n)
	assert.False(t, r.ShouldContinue())
}

// normalFor returns the outward normal of the quad side the boundary
// context's intersection point currently sits on, so the reflecting
// hook can bounce the ray regardless of which of the four sides it hit.
func normalFor(m *mesh.InMesh, ctx *hook.BoundaryContext) [3]float64 {
	p := ctx.Point()
	const tol = 1e-6
	switch {
	case math.Abs(p[1]) < tol:
		return [3]float64{0, -1, 0}
	case math.Abs(p[1]-1) < tol:
		return [3]float64{0, 1, 0}
	case math.Abs(p[0]) < tol:
		return [3]float64{-1, 0, 0}
	default:
		return [3]float64{1, 0, 0}
	}
}
