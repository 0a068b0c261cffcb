// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import (
	"math"

	"github.com/cpmech/raytracing/geom"
)

// Vert holds vertex data, grounded on gofem's inp.Vert (stripped of the
// tag/partition bookkeeping that only the FE solver needed).
type Vert struct {
	ID int
	C  [3]float64
}

// Cell holds cell (element) data, grounded on gofem's inp.Cell. Part is
// the owning MPI rank, renamed from gofem's partition-id field; Sub is
// the subdomain id segment hooks dispatch on.
type Cell struct {
	ID    int
	Type  string // geometry key, e.g. "hex8"
	Verts []int  // global vertex ids, local order
	Sub   int    // subdomain id
	Part  int    // owning rank

	neighbors []neighborSlot // [nsides]
	hmax      float64
	active    bool
	children  []*Cell // non-nil only for a refined (non-active) cell
}

type neighborSlot struct {
	cell       *Cell
	boundaryID []int
}

// InMesh is a minimal in-memory mesh: flat vertex/cell arrays plus
// precomputed side adjacency. It exists only so the core is testable;
// a real embedding supplies its own Element/PointLocator, per spec §1.
type InMesh struct {
	Verts []*Vert
	Cells []*Cell
	ndim  int
}

// elementView adapts *Cell to the Element interface. A *Cell is not an
// Element itself so that InMesh stays a plain data holder, matching the
// separation gofem draws between inp.Cell (data) and fem.Elem
// (behavior).
type elementView struct {
	m *InMesh
	c *Cell
}

var _ Element = (*elementView)(nil)

func (e *elementView) ID() int          { return e.c.ID }
func (e *elementView) Type() string     { return e.c.Type }
func (e *elementView) SubdomainID() int { return e.c.Sub }
func (e *elementView) Hmax() float64    { return e.c.hmax }
func (e *elementView) Nverts() int      { return len(e.c.Verts) }
func (e *elementView) RankOwner() int   { return e.c.Part }
func (e *elementView) IsActive() bool   { return e.c.active }

func (e *elementView) VertexCoord(local int) [3]float64 {
	return e.m.Verts[e.c.Verts[local]].C
}

func (e *elementView) VertexID(local int) int {
	return e.c.Verts[local]
}

func (e *elementView) Neighbor(side int) (Element, bool) {
	slot := e.c.neighbors[side]
	if slot.cell == nil || !slot.cell.active {
		return nil, false
	}
	return &elementView{m: e.m, c: slot.cell}, true
}

func (e *elementView) BoundaryIDs(side int) []int {
	return e.c.neighbors[side].boundaryID
}

func (e *elementView) ActiveDescendant(p [3]float64) Element {
	c := e.c
	for !c.active && len(c.children) > 0 {
		found := c.children[0]
		for _, ch := range c.children {
			if cellContains(e.m, ch, p) {
				found = ch
				break
			}
		}
		c = found
	}
	return &elementView{m: e.m, c: c}
}

func cellContains(m *InMesh, c *Cell, p [3]float64) bool {
	g := geom.Get(c.Type)
	if g == nil {
		return false
	}
	// cheap bounding-box containment test; sufficient for the
	// axis-aligned structured fixtures the in-memory mesh builds.
	lo, hi := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}, [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < g.Nverts; i++ {
		x := m.Verts[c.Verts[i]].C
		for d := 0; d < 3; d++ {
			if x[d] < lo[d] {
				lo[d] = x[d]
			}
			if x[d] > hi[d] {
				hi[d] = x[d]
			}
		}
	}
	const tol = 1e-9
	for d := 0; d < 3; d++ {
		if p[d] < lo[d]-tol || p[d] > hi[d]+tol {
			return false
		}
	}
	return true
}

// Element returns the Element view of cell id, or nil if out of range.
func (m *InMesh) Element(id int) Element {
	if id < 0 || id >= len(m.Cells) {
		return nil
	}
	return &elementView{m: m, c: m.Cells[id]}
}

// Locate implements PointLocator by bounding-box containment over
// locally-owned (Part == rank) active cells — adequate for the
// structured fixtures used in tests; a production mesh would use a
// spatial index instead.
func (m *InMesh) Locate(rank int, p [3]float64) (Element, bool) {
	for _, c := range m.Cells {
		if c.Part != rank || !c.active {
			continue
		}
		if cellContains(m, c, p) {
			return &elementView{m: m, c: c}, true
		}
	}
	return nil, false
}

// LocatorForRank adapts Locate to the PointLocator interface for a
// fixed rank, since PointLocator.Locate takes no rank argument (each
// rank only ever locates within its own partition).
func (m *InMesh) LocatorForRank(rank int) PointLocator {
	return rankLocator{m: m, rank: rank}
}

type rankLocator struct {
	m    *InMesh
	rank int
}

func (r rankLocator) Locate(p [3]float64) (Element, bool) { return r.m.Locate(r.rank, p) }

// SetBoundary tags side of cell id as an external/internal boundary
// carrying the given boundary ids (neighbor left nil for external).
func (m *InMesh) SetBoundary(cellID, side int, boundaryIDs ...int) {
	m.Cells[cellID].neighbors[side].boundaryID = boundaryIDs
}

// computeHmax fills c.hmax as the max pairwise vertex distance, a
// cheap stand-in for gofem's shp-based element-diameter computation.
func (m *InMesh) computeHmax(c *Cell) {
	max := 0.0
	for i := 0; i < len(c.Verts); i++ {
		for j := i + 1; j < len(c.Verts); j++ {
			d := dist3(m.Verts[c.Verts[i]].C, m.Verts[c.Verts[j]].C)
			if d > max {
				max = d
			}
		}
	}
	c.hmax = max
}

func dist3(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
