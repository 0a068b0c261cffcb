// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import (
	"sort"

	"github.com/cpmech/raytracing/geom"
)

// newInMesh returns an empty mesh; addCell sizes each cell's neighbor
// slots per the element type's side count.
func newInMesh() *InMesh {
	return &InMesh{}
}

func (m *InMesh) addVert(id int, c [3]float64) {
	m.Verts = append(m.Verts, &Vert{ID: id, C: c})
}

func (m *InMesh) addCell(id int, typ string, verts []int, sub, part int) *Cell {
	g := geom.Get(typ)
	c := &Cell{ID: id, Type: typ, Verts: verts, Sub: sub, Part: part, active: true}
	c.neighbors = make([]neighborSlot, g.Nsides)
	m.Cells = append(m.Cells, c)
	return c
}

// linkNeighbors connects every pair of cells that share a full side
// (same set of vertex ids), mirroring the vertex-to-element adjacency
// gofem's inp.Mesh derives at ReadMsh time. Unmatched sides are left
// nil (external boundary); SetBoundary adds their boundary tags.
func (m *InMesh) linkNeighbors() {
	type sideKey struct {
		key  string
		cell *Cell
		side int
	}
	var sides []sideKey
	for _, c := range m.Cells {
		g := geom.Get(c.Type)
		for s := 0; s < g.Nsides; s++ {
			ids := make([]int, len(g.SideLocalV[s]))
			for i, lv := range g.SideLocalV[s] {
				ids[i] = c.Verts[lv]
			}
			sort.Ints(ids)
			sides = append(sides, sideKey{key: keyOf(ids), cell: c, side: s})
		}
	}
	byKey := make(map[string][]sideKey)
	for _, sk := range sides {
		byKey[sk.key] = append(byKey[sk.key], sk)
	}
	for _, group := range byKey {
		if len(group) != 2 {
			continue // boundary side, or non-conforming (left for AMR wiring)
		}
		a, b := group[0], group[1]
		a.cell.neighbors[a.side].cell = b.cell
		b.cell.neighbors[b.side].cell = a.cell
	}
	for _, c := range m.Cells {
		m.computeHmax(c)
	}
}

func keyOf(ids []int) string {
	s := ""
	for _, id := range ids {
		s += string(rune('A' + id%26))
		s += string(rune('a' + (id/26)%26))
	}
	return s
}

// Build1DTwoSegments builds the Scenario-1 fixture: [0,1] split into two
// lin2 elements at x=0.5, single rank, single subdomain.
func Build1DTwoSegments() *InMesh {
	m := newInMesh()
	m.addVert(0, [3]float64{0, 0, 0})
	m.addVert(1, [3]float64{0.5, 0, 0})
	m.addVert(2, [3]float64{1, 0, 0})
	m.addCell(0, "lin2", []int{0, 1}, 0, 0)
	m.addCell(1, "lin2", []int{1, 2}, 0, 0)
	m.linkNeighbors()
	m.SetBoundary(0, 0, 1) // x=0 boundary
	m.SetBoundary(1, 1, 2) // x=1 boundary
	return m
}

// Build2x2Quads builds a 2x2 grid of qua4 elements over [0,1]^2, single
// rank, single subdomain — the Scenario-2 fixture.
func Build2x2Quads() *InMesh {
	m := newInMesh()
	n := 3 // 3x3 vertices
	id := 0
	vid := make([][]int, n)
	for i := range vid {
		vid[i] = make([]int, n)
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			m.addVert(id, [3]float64{float64(i) / 2, float64(j) / 2, 0})
			vid[j][i] = id
			id++
		}
	}
	cid := 0
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			verts := []int{vid[j][i], vid[j][i+1], vid[j+1][i+1], vid[j+1][i]}
			m.addCell(cid, "qua4", verts, 0, 0)
			cid++
		}
	}
	m.linkNeighbors()
	for c := 0; c < 2; c++ { // bottom row: y=0 boundary on side 0
		m.SetBoundary(c, 0, 10)
	}
	for c := 0; c < 2; c++ { // top row: y=1 boundary on side 2
		m.SetBoundary(2+c, 2, 10)
	}
	m.SetBoundary(0, 3, 10)  // left column: x=0 on side 3
	m.SetBoundary(2, 3, 10)
	m.SetBoundary(1, 1, 10)  // right column: x=1 on side 1
	m.SetBoundary(3, 1, 10)
	return m
}

// Build2x2QuadsTwoSubdomains builds the same 2x2 unit-square grid as
// Build2x2Quads but splits it into two subdomains along x=0.5 (left
// column sub 0, right column sub 1) and tags the internal side between
// them with boundary id 5, in addition to the usual exterior tags on
// boundary id 10 — the fixture an internal boundary hook needs a
// conforming neighbor AND a boundary id on the same side to dispatch on.
func Build2x2QuadsTwoSubdomains() *InMesh {
	m := Build2x2Quads()
	m.Cells[1].Sub = 1
	m.Cells[3].Sub = 1
	m.SetBoundary(0, 1, 5) // cell 0's right side, shared with cell 1
	m.SetBoundary(1, 3, 5) // cell 1's left side, shared with cell 0
	m.SetBoundary(2, 1, 5) // cell 2's right side, shared with cell 3
	m.SetBoundary(3, 3, 5) // cell 3's left side, shared with cell 2
	return m
}

// BuildUnitSquareOneQuad builds the Scenario-3 fixture: a single qua4
// covering the unit square, all four sides carrying boundary id 1.
func BuildUnitSquareOneQuad() *InMesh {
	m := newInMesh()
	m.addVert(0, [3]float64{0, 0, 0})
	m.addVert(1, [3]float64{1, 0, 0})
	m.addVert(2, [3]float64{1, 1, 0})
	m.addVert(3, [3]float64{0, 1, 0})
	m.addCell(0, "qua4", []int{0, 1, 2, 3}, 0, 0)
	m.linkNeighbors()
	for s := 0; s < 4; s++ {
		m.SetBoundary(0, s, 1)
	}
	return m
}

// Build4HexStrip builds a 4x1x1 strip of hex8 elements over [0,4]x[0,1]x[0,1],
// one cell per rank — the Scenario-4 cross-rank-handoff fixture.
func Build4HexStrip() *InMesh {
	m := newInMesh()
	nx := 5
	id := 0
	vid := make([]int, nx*2*2)
	idx := func(i, j, k int) int { return i*4 + j*2 + k }
	for i := 0; i < nx; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				m.addVert(id, [3]float64{float64(i), float64(j), float64(k)})
				vid[idx(i, j, k)] = id
				id++
			}
		}
	}
	for i := 0; i < nx-1; i++ {
		verts := []int{
			vid[idx(i, 0, 0)], vid[idx(i+1, 0, 0)], vid[idx(i+1, 1, 0)], vid[idx(i, 1, 0)],
			vid[idx(i, 0, 1)], vid[idx(i+1, 0, 1)], vid[idx(i+1, 1, 1)], vid[idx(i, 1, 1)],
		}
		m.addCell(i, "hex8", verts, 0, i)
	}
	m.linkNeighbors()
	m.SetBoundary(0, 0, 1)    // x=0 face (local side 0, {0,4,7,3} — all verts at x=i)
	m.SetBoundary(nx-2, 1, 2) // x=4 face (local side 1, {1,2,6,5} — all verts at x=i+1)
	return m
}

// Build2x2x2HexBlock builds a 2x2x2 hex8 block over [0,1]^3 partitioned
// one octant per rank (rank = cell index) — the Scenario-5 claim
// fixture.
func Build2x2x2HexBlock() *InMesh {
	m := newInMesh()
	n := 3
	vid := make([][][]int, n)
	for i := range vid {
		vid[i] = make([][]int, n)
		for j := range vid[i] {
			vid[i][j] = make([]int, n)
		}
	}
	id := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				m.addVert(id, [3]float64{float64(i) / 2, float64(j) / 2, float64(k) / 2})
				vid[i][j][k] = id
				id++
			}
		}
	}
	cid := 0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			for k := 0; k < 2; k++ {
				verts := []int{
					vid[i][j][k], vid[i+1][j][k], vid[i+1][j+1][k], vid[i][j+1][k],
					vid[i][j][k+1], vid[i+1][j][k+1], vid[i+1][j+1][k+1], vid[i][j+1][k+1],
				}
				m.addCell(cid, "hex8", verts, 0, cid)
				cid++
			}
		}
	}
	m.linkNeighbors()
	return m
}
