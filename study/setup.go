// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package study

import (
	"fmt"
	"math"

	"github.com/cpmech/gosl/la"

	"github.com/cpmech/raytracing/geom"
	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/neighbor"
	"github.com/cpmech/raytracing/rterrors"
)

// InitialSetup runs the eight setup phases of spec §4.E and freezes the
// data/aux-data tables. Call once elements and hooks are registered.
func (s *Study) InitialSetup() error {
	s.mu.Lock()
	s.frozen = true
	s.mu.Unlock()
	return s.runSetupPhases()
}

// MeshChanged reruns all eight setup phases (including the coverage,
// dependency and quadrature phases) and rebuilds the neighbor resolver,
// without touching
// the already-frozen data/aux-data tables or hook registrations (spec
// §4.E: "called on initialSetup and again on meshChanged").
func (s *Study) MeshChanged() error {
	return s.runSetupPhases()
}

func (s *Study) runSetupPhases() error {
	s.mu.Lock()
	elems := append([]mesh.Element(nil), s.elems...)
	s.mu.Unlock()

	// phase 1: elem_index, dense over the element range.
	s.rebuildElemIndex(elems)

	// phase 2: coverage check.
	if !s.cfg.SkipCoverageCheck {
		seen := make(map[int]bool)
		for _, e := range elems {
			sid := e.SubdomainID()
			if seen[sid] {
				continue
			}
			seen[sid] = true
			if !s.hasRayKernels(sid) {
				return rterrors.ConfigError{Stage: "coverage check", Reason: fmt.Sprintf("subdomain %d has no active segment hook", sid)}
			}
		}
	}

	// phase 3: dependency check.
	if err := s.checkDependencies(); err != nil {
		return err
	}

	// phase 4: traceable element-type check.
	for _, e := range elems {
		if geom.Get(e.Type()) == nil {
			return rterrors.ConfigError{Stage: "traceable element-type check", Reason: fmt.Sprintf("element %d has unregistered type %q", e.ID(), e.Type())}
		}
		if !e.IsActive() {
			return rterrors.ConfigError{Stage: "traceable element-type check", Reason: fmt.Sprintf("element %d is inactive and cannot seed a trace (AMR-enabled mesh requires every seed element to be a leaf)", e.ID())}
		}
	}

	// phase 5: internal sideset scan.
	if err := s.scanInternalSidesets(elems); err != nil {
		return err
	}

	// phase 6: non-planar side scan in 3D.
	s.scanNonPlanarSides(elems)

	// phase 7: subdomain hmax reduction.
	s.reduceSubdomainHmax(elems)

	// phase 8: 1D Gauss quadrature for segment reinit.
	s.buildQuadrature()

	s.mu.Lock()
	s.resolver = neighbor.NewResolver(elems)
	s.mu.Unlock()
	return nil
}

func (s *Study) rebuildElemIndex(elems []mesh.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elemIndex = make(map[int]int, len(elems))
	for i, e := range elems {
		s.elemIndex[e.ID()] = i
	}
}

func (s *Study) checkDependencies() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := func(name string) bool { return s.segHookNames[name] || s.boundHookNames[name] }
	for _, regs := range s.segHooks {
		for _, r := range regs {
			for _, dep := range r.dependsOn {
				if !known(dep) {
					return rterrors.ConfigError{Stage: "dependency check", Reason: fmt.Sprintf("segment hook %q depends on unregistered hook %q", r.name, dep)}
				}
			}
		}
	}
	for _, regs := range s.boundHooks {
		for _, r := range regs {
			for _, dep := range r.dependsOn {
				if !known(dep) {
					return rterrors.ConfigError{Stage: "dependency check", Reason: fmt.Sprintf("boundary hook %q depends on unregistered hook %q", r.name, dep)}
				}
			}
		}
	}
	return nil
}

// scanInternalSidesets requires that a boundary id carrying an active
// boundary hook, when it occurs on exactly two (elem,side) entries —
// i.e. it sits between two elements rather than on the mesh's true
// exterior — separates two different subdomains. This walks BoundaryIDs
// rather than mesh.Element.Neighbor directly because a side can carry
// both (a conforming neighbor and a boundary id, for an internal
// sideset the tracer still dispatches hooks on); grouping occurrences of
// the same boundary id finds the pairing regardless of whether either
// side also resolves a Neighbor, and a true external side naturally
// shows up as a single occurrence and is skipped.
func (s *Study) scanInternalSidesets(elems []mesh.Element) error {
	s.mu.Lock()
	active := make(map[int]bool, len(s.boundHooks))
	for bid, regs := range s.boundHooks {
		if len(regs) > 0 {
			active[bid] = true
		}
	}
	s.mu.Unlock()
	if len(active) == 0 {
		return nil
	}
	type occurrence struct {
		elem mesh.Element
		side int
	}
	byBoundary := make(map[int][]occurrence)
	for _, e := range elems {
		g := geom.Get(e.Type())
		if g == nil {
			continue
		}
		for side := 0; side < g.Nsides; side++ {
			for _, bid := range e.BoundaryIDs(side) {
				if active[bid] {
					byBoundary[bid] = append(byBoundary[bid], occurrence{elem: e, side: side})
				}
			}
		}
	}
	for bid, occs := range byBoundary {
		if len(occs) != 2 {
			continue
		}
		if occs[0].elem.SubdomainID() == occs[1].elem.SubdomainID() {
			return rterrors.ConfigError{Stage: "internal sideset scan", Reason: fmt.Sprintf("boundary %d sits between two elements of the same subdomain %d", bid, occs[0].elem.SubdomainID())}
		}
	}
	return nil
}

// scanNonPlanarSides warns (does not fail) when a quadrilateral cell
// face is non-planar beyond cfg.NonPlanarTol.
func (s *Study) scanNonPlanarSides(elems []mesh.Element) {
	tol := s.cfg.NonPlanarTol
	if tol <= 0 {
		tol = 1e-6
	}
	for _, e := range elems {
		g := geom.Get(e.Type())
		if g == nil || g.Kind != geom.KindCell {
			continue
		}
		for side := 0; side < g.Nsides; side++ {
			verts := g.SideLocalV[side]
			if len(verts) != 4 {
				continue
			}
			v0 := e.VertexCoord(verts[0])
			v1 := e.VertexCoord(verts[1])
			v2 := e.VertexCoord(verts[2])
			v3 := e.VertexCoord(verts[3])
			n := cross3(sub3(v1, v0), sub3(v2, v0))
			d := dot3(n, sub3(v3, v0))
			nn := la.VecNorm(n[:])
			if nn < 1e-300 {
				continue
			}
			if math.Abs(d)/nn > tol {
				if s.log != nil {
					s.log.Warnf("element %d side %d is non-planar (deviation %.3e)", e.ID(), side, math.Abs(d)/nn)
				}
			}
		}
	}
}

// reduceSubdomainHmax computes each subdomain's max element diameter
// across this rank's local elements only and warns on extreme hmax
// ratios. No cross-rank all-reduce of the result is performed, here or
// in package parallel.
func (s *Study) reduceSubdomainHmax(elems []mesh.Element) {
	maxBySub := make(map[int]float64)
	minBySub := make(map[int]float64)
	for _, e := range elems {
		sid := e.SubdomainID()
		h := e.Hmax()
		if cur, ok := maxBySub[sid]; !ok || h > cur {
			maxBySub[sid] = h
		}
		if cur, ok := minBySub[sid]; !ok || h < cur {
			minBySub[sid] = h
		}
	}
	ratioWarn := s.cfg.HmaxRatioWarn
	if ratioWarn <= 0 {
		ratioWarn = 100
	}
	s.mu.Lock()
	s.subHmax = maxBySub
	s.mu.Unlock()
	for sid, max := range maxBySub {
		min := minBySub[sid]
		if min > 0 && max/min > ratioWarn {
			if s.log != nil {
				s.log.Warnf("subdomain %d hmax/hmin ratio %.1f exceeds %.1f", sid, max/min, ratioWarn)
			}
		}
	}
}

// buildQuadrature builds the 1D Gauss-Legendre rule on [-1,1] used to
// place quadrature points along a segment during FieldSource reinit,
// stored la.MatAlloc-style as a 2-row matrix (points, weights).
func (s *Study) buildQuadrature() {
	order := s.cfg.QuadratureOrder
	if order <= 0 {
		order = 2
	}
	pts, wts := gaussLegendre(order)
	m := la.MatAlloc(2, len(pts))
	copy(m[0], pts)
	copy(m[1], wts)
	s.mu.Lock()
	s.quadPoints = m
	s.quadBuilt = true
	s.mu.Unlock()
}

// gaussLegendre returns the classic n-point Gauss-Legendre points and
// weights on [-1,1] for n in [1,5]; n outside that range falls back to
// n=5, which is enough precision for the linear/bilinear segment
// integrands this core's example kernels evaluate.
func gaussLegendre(n int) (pts, wts []float64) {
	switch n {
	case 1:
		return []float64{0}, []float64{2}
	case 2:
		p := 1 / math.Sqrt(3)
		return []float64{-p, p}, []float64{1, 1}
	case 3:
		p := math.Sqrt(3.0 / 5.0)
		return []float64{-p, 0, p}, []float64{5.0 / 9.0, 8.0 / 9.0, 5.0 / 9.0}
	case 4:
		p1 := math.Sqrt((3.0 - 2.0*math.Sqrt(6.0/5.0)) / 7.0)
		p2 := math.Sqrt((3.0 + 2.0*math.Sqrt(6.0/5.0)) / 7.0)
		w1 := (18.0 + math.Sqrt(30.0)) / 36.0
		w2 := (18.0 - math.Sqrt(30.0)) / 36.0
		return []float64{-p2, -p1, p1, p2}, []float64{w2, w1, w1, w2}
	default:
		p1 := 1.0 / 3.0 * math.Sqrt(5.0-2.0*math.Sqrt(10.0/7.0))
		p2 := 1.0 / 3.0 * math.Sqrt(5.0+2.0*math.Sqrt(10.0/7.0))
		w0 := 128.0 / 225.0
		w1 := (322.0 + 13.0*math.Sqrt(70.0)) / 900.0
		w2 := (322.0 - 13.0*math.Sqrt(70.0)) / 900.0
		return []float64{-p2, -p1, 0, p1, p2}, []float64{w2, w1, w0, w1, w2}
	}
}
