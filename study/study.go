// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package study is the per-rank owner of the global tables a trace run
// needs: registered data/aux-data names, segment/boundary hook
// registries keyed by subdomain/boundary id, the neighbor resolver, the
// per-subdomain hmax table, and the bookkeeping counters (spec §4.E).
// It implements tracer.HookSource so a *Study can be handed straight to
// tracer.New.
package study

import (
	"fmt"
	"sync"

	"github.com/cpmech/gosl/la"

	"github.com/cpmech/raytracing/geom"
	"github.com/cpmech/raytracing/hook"
	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/neighbor"
	"github.com/cpmech/raytracing/rterrors"
	"github.com/cpmech/raytracing/rtlog"
)

// Config holds the setup-time switches a harness populates (spec_full
// "AMBIENT STACK / Config": a plain struct, no file format — parsing a
// config file is explicitly out of scope).
type Config struct {
	Tolerant          bool    // geometric failures warn-and-terminate instead of halting the run
	SkipCoverageCheck bool    // disables setup phase 2's subdomain coverage requirement
	QuadratureOrder   int     // 1D Gauss order for segment reinit; 0 defaults to 2
	HmaxRatioWarn     float64 // subdomain hmax_max/hmax_min ratio that triggers a warning; 0 defaults to 100
	NonPlanarTol      float64 // coplanarity tolerance for the 3D non-planar side scan; 0 defaults to 1e-6
}

type registeredSegHook struct {
	name      string
	h         hook.SegmentHook
	dependsOn []string
}

type registeredBoundHook struct {
	name      string
	h         hook.BoundaryHook
	dependsOn []string
}

// Counters is the Study-wide bookkeeping spec §4.E asks for: total/max
// per-ray figures accumulated as rays complete.
type Counters struct {
	TotalProcessorCrossings int
	TotalIntersections      int
	MaxIntersections        int
	TotalDistance           float64
	MaxDistance             float64
	TotalTrajectoryChanges  int
	RaysCompleted           int
}

// Study is the per-rank global-table owner described by spec §4.E.
type Study struct {
	mu sync.Mutex

	cfg Config
	log *rtlog.Logger

	elems     []mesh.Element
	elemIndex map[int]int

	dataNames []string
	dataIndex map[string]int
	auxNames  []string
	auxIndex  map[string]int
	frozen    bool

	segHooks     map[int][]registeredSegHook
	boundHooks   map[int][]registeredBoundHook
	segHookNames map[string]bool
	boundHookNames map[string]bool

	resolver *neighbor.Resolver
	subHmax  map[int]float64

	normalCaches map[int]map[normalKey][3]float64 // tid -> cache

	quadPoints  [][]float64 // la.MatAlloc(2, n): row 0 = points, row 1 = weights
	quadBuilt   bool

	counters Counters

	DebugRayIDs map[int64]bool
}

type normalKey struct {
	elem, side int
}

// New constructs an empty Study. Call SetElements then InitialSetup
// before tracing.
func New(cfg Config, log *rtlog.Logger) *Study {
	return &Study{
		cfg:            cfg,
		log:            log,
		elemIndex:      make(map[int]int),
		dataIndex:      make(map[string]int),
		auxIndex:       make(map[string]int),
		segHooks:       make(map[int][]registeredSegHook),
		boundHooks:     make(map[int][]registeredBoundHook),
		segHookNames:   make(map[string]bool),
		boundHookNames: make(map[string]bool),
		subHmax:        make(map[int]float64),
		normalCaches:   make(map[int]map[normalKey][3]float64),
		DebugRayIDs:    make(map[int64]bool),
	}
}

// SetElements installs (or replaces, on a mesh change) the rank's local
// element set. Call InitialSetup/MeshChanged afterward.
func (s *Study) SetElements(elems []mesh.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elems = elems
}

// --- data/aux-data registration (spec §4.E, supplemented by
// original_source's "duplicate registration returns the same index") --

// RegisterRayData appends a new per-ray data slot and returns its
// index. Before InitialSetup, re-registering an existing name returns
// the same index rather than erroring (original_source/RayTracingStudy.C).
// Once the study has been frozen by InitialSetup every call fails,
// including a repeat of an already registered name; it also fails if
// name is already registered as aux-data.
func (s *Study) RegisterRayData(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return 0, rterrors.ConfigError{Stage: "registerRayData", Reason: fmt.Sprintf("cannot register %q after initialSetup", name)}
	}
	if idx, ok := s.dataIndex[name]; ok {
		return idx, nil
	}
	if _, ok := s.auxIndex[name]; ok {
		return 0, rterrors.ConfigError{Stage: "registerRayData", Reason: fmt.Sprintf("%q is already registered as aux-data", name)}
	}
	idx := len(s.dataNames)
	s.dataNames = append(s.dataNames, name)
	s.dataIndex[name] = idx
	return idx, nil
}

// RegisterRayAuxData is RegisterRayData's counterpart for the aux-data
// table.
func (s *Study) RegisterRayAuxData(name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return 0, rterrors.ConfigError{Stage: "registerRayAuxData", Reason: fmt.Sprintf("cannot register %q after initialSetup", name)}
	}
	if idx, ok := s.auxIndex[name]; ok {
		return idx, nil
	}
	if _, ok := s.dataIndex[name]; ok {
		return 0, rterrors.ConfigError{Stage: "registerRayAuxData", Reason: fmt.Sprintf("%q is already registered as ray data", name)}
	}
	idx := len(s.auxNames)
	s.auxNames = append(s.auxNames, name)
	s.auxIndex[name] = idx
	return idx, nil
}

// NData/NAuxData size a freshly acquired ray's vectors.
func (s *Study) NData() int    { return len(s.dataNames) }
func (s *Study) NAuxData() int { return len(s.auxNames) }

// --- hook registration --------------------------------------------------

// RegisterSegmentHook adds h as an active segment kernel on subdomainID.
// dependsOn names other hooks (by the name passed to this or
// RegisterBoundaryHook) that must also be registered; checked at
// InitialSetup, not here, since registration order is not significant.
func (s *Study) RegisterSegmentHook(subdomainID int, name string, h hook.SegmentHook, dependsOn ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segHooks[subdomainID] = append(s.segHooks[subdomainID], registeredSegHook{name: name, h: h, dependsOn: dependsOn})
	s.segHookNames[name] = true
}

// RegisterBoundaryHook adds h as an active boundary kernel on
// boundaryID.
func (s *Study) RegisterBoundaryHook(boundaryID int, name string, h hook.BoundaryHook, dependsOn ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boundHooks[boundaryID] = append(s.boundHooks[boundaryID], registeredBoundHook{name: name, h: h, dependsOn: dependsOn})
	s.boundHookNames[name] = true
}

// hasRayKernels reports whether subdomainID has at least one active
// segment hook (spec §4.E coverage check).
func (s *Study) hasRayKernels(subdomainID int) bool {
	return len(s.segHooks[subdomainID]) > 0
}

// SegmentHooksFor implements tracer.HookSource. Ray-associated hook
// filtering (spec §4.E's optional [ray_id] parameter) is not
// implemented: the tracer.HookSource interface this study serves does
// not thread a ray id through, so every hook registered on the
// subdomain applies to every ray that enters it. A study wanting
// per-ray hook subsets would need a richer HookSource method and is
// left as a documented simplification (see DESIGN.md).
func (s *Study) SegmentHooksFor(subdomainID int) []hook.SegmentHook {
	regs := s.segHooks[subdomainID]
	out := make([]hook.SegmentHook, len(regs))
	for i, r := range regs {
		out[i] = r.h
	}
	return out
}

// BoundaryHooksFor implements tracer.HookSource.
func (s *Study) BoundaryHooksFor(boundaryID int) []hook.BoundaryHook {
	regs := s.boundHooks[boundaryID]
	out := make([]hook.BoundaryHook, len(regs))
	for i, r := range regs {
		out[i] = r.h
	}
	return out
}

// Resolver implements tracer.HookSource.
func (s *Study) Resolver() *neighbor.Resolver { return s.resolver }

// Tolerant implements tracer.HookSource.
func (s *Study) Tolerant() bool { return s.cfg.Tolerant }

// SubdomainSetup implements tracer.HookSource: it runs once whenever a
// tracer's current subdomain changes, and here only validates that
// setup has populated an hmax entry for it.
func (s *Study) SubdomainSetup(subdomainID int) error {
	if _, ok := s.subHmax[subdomainID]; !ok {
		return rterrors.ConfigError{Stage: "subdomain setup", Reason: fmt.Sprintf("subdomain %d has no hmax entry; was InitialSetup called?", subdomainID)}
	}
	return nil
}

// SubdomainHmax reads the precomputed per-subdomain diameter.
func (s *Study) SubdomainHmax(sid int) (float64, bool) {
	v, ok := s.subHmax[sid]
	return v, ok
}

// GetSideNormal is the lazy per-thread normal cache spec §4.E asks the
// study to own, independent of any one tracer's own cache (a Tracer
// already keeps its own per-(elem,side) cache since it is itself
// one-per-thread; this method exists for callers — tests, or a harness
// not going through package tracer — that want the same cached lookup
// keyed explicitly by a thread id).
func (s *Study) GetSideNormal(elem mesh.Element, side, tid int) [3]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	cache, ok := s.normalCaches[tid]
	if !ok {
		cache = make(map[normalKey][3]float64)
		s.normalCaches[tid] = cache
	}
	k := normalKey{elem.ID(), side}
	if n, ok := cache[k]; ok {
		return n
	}
	n := computeOutwardNormal(elem, side)
	cache[k] = n
	return n
}

// Counters returns a snapshot of the per-rank bookkeeping totals.
func (s *Study) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// RecordCompletedRay folds one finished ray's counters into the
// Study-wide totals (spec §4.E "Bookkeeping").
func (s *Study) RecordCompletedRay(crossings, intersections, trajChanges int, distance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.TotalProcessorCrossings += crossings
	s.counters.TotalIntersections += intersections
	s.counters.TotalTrajectoryChanges += trajChanges
	s.counters.TotalDistance += distance
	s.counters.RaysCompleted++
	if intersections > s.counters.MaxIntersections {
		s.counters.MaxIntersections = intersections
	}
	if distance > s.counters.MaxDistance {
		s.counters.MaxDistance = distance
	}
}

// QuadPoints/QuadWeights expose the 1D Gauss rule built at setup phase
// 8, stored as a la.MatAlloc(2, n) matrix (row 0 points, row 1
// weights) — the same allocation idiom gofem's shp.Shape scratchpad
// fields use for small fixed-size numeric tables.
func (s *Study) QuadPoints() []float64  { return s.quadPoints[0] }
func (s *Study) QuadWeights() []float64 { return s.quadPoints[1] }

func computeOutwardNormal(elem mesh.Element, side int) [3]float64 {
	g := geom.Get(elem.Type())
	if g == nil {
		return [3]float64{}
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
	var mid [3]float64
	for _, v := range verts {
		c := elem.VertexCoord(v)
		mid[0] += c[0]
		mid[1] += c[1]
		mid[2] += c[2]
	}
	nv := float64(len(verts))
	mid = [3]float64{mid[0] / nv, mid[1] / nv, mid[2] / nv}
	var c [3]float64
	for i := 0; i < g.Nverts; i++ {
		x := elem.VertexCoord(i)
		c[0] += x[0]
		c[1] += x[1]
		c[2] += x[2]
	}
	nn := float64(g.Nverts)
	c = [3]float64{c[0] / nn, c[1] / nn, c[2] / nn}
	if dot3(n, sub3(mid, c)) < 0 {
		n = scale3(n, -1)
	}
	return normalize3(n)
}

func sub3(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func dot3(a, b [3]float64) float64    { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}
func scale3(v [3]float64, s float64) [3]float64 { return [3]float64{v[0] * s, v[1] * s, v[2] * s} }
func normalize3(v [3]float64) [3]float64 {
	n := la.VecNorm(v[:])
	if n < 1e-300 {
		return v
	}
	return scale3(v, 1/n)
}
