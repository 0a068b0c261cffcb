// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package neighbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/raytracing/mesh"
)

func allElements(m *mesh.InMesh, n int) []mesh.Element {
	out := make([]mesh.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, m.Element(i))
	}
	return out
}

func TestPointNeighbors_2x2Quads(t *testing.T) {
	m := mesh.Build2x2Quads()
	r := NewResolver(allElements(m, 4))
	seed := m.Element(0)
	hits := r.PointNeighbors(seed, [3]float64{0.5, 0.25, 0}, 1e-6)
	require.NotNil(t, hits)
}

func TestVertexNeighbors_sharedCorner_cached(t *testing.T) {
	m := mesh.Build2x2Quads()
	r := NewResolver(allElements(m, 4))
	seed := m.Element(0)
	centerVertID := 4 // shared center vertex of the 2x2 grid
	centerPoint := [3]float64{0.5, 0.5, 0}
	first := r.VertexNeighbors(seed, centerVertID, centerPoint, 1e-6)
	assert.True(t, len(first) >= 1)
	second := r.VertexNeighbors(seed, centerVertID, centerPoint, 1e-6)
	assert.Equal(t, first, second)
}

func TestInvalidateCache_clearsResults(t *testing.T) {
	m := mesh.Build2x2Quads()
	r := NewResolver(allElements(m, 4))
	seed := m.Element(0)
	_ = r.VertexNeighbors(seed, 4, [3]float64{0.5, 0.5, 0}, 1e-6)
	assert.NotEmpty(t, r.nodeCache)
	r.InvalidateCache()
	assert.Empty(t, r.nodeCache)
	assert.Empty(t, r.edgeCache)
}

func TestEdgeNeighbors_sharedEdge(t *testing.T) {
	m := mesh.Build2x2Quads()
	r := NewResolver(allElements(m, 4))
	seed := m.Element(0)
	// the shared edge between cell 0 and cell 1 runs along vertices 1,4
	covers := r.EdgeNeighbors(seed, 1, 4, [3]float64{0.5, 0, 0}, [3]float64{0.5, 0.5, 0}, 1e-6)
	assert.NotEmpty(t, covers)
}
