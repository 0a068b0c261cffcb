// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import "math"

// ExtremaState tags what kind of element feature a ray's exit landed on.
type ExtremaState int

const (
	NotAtExtrema ExtremaState = iota
	AtVertex                  // V1 valid, V2 invalid
	AtEdge                    // both V1 and V2 valid
)

// invalidVert marks an unset local vertex index in an Extrema pair.
const invalidVert = -1

// Extrema is the tagged pair (v1, v2) of local vertex indices described
// in spec §3 "Element extrema". ElemExtrema.h in original_source treats
// validity as a per-(element,point) predicate rather than a permanent
// property of the pair, which ValidFor below reproduces.
type Extrema struct {
	State  ExtremaState
	V1, V2 int // local vertex indices; V2 == invalidVert unless State == AtEdge
}

// None is the not-at-extrema sentinel.
func None() Extrema { return Extrema{State: NotAtExtrema, V1: invalidVert, V2: invalidVert} }

// Vertex builds an at-vertex Extrema.
func Vertex(v int) Extrema { return Extrema{State: AtVertex, V1: v, V2: invalidVert} }

// Edge builds an at-edge Extrema. Vertex order is not significant.
func Edge(v1, v2 int) Extrema { return Extrema{State: AtEdge, V1: v1, V2: v2} }

func (e Extrema) IsVertex() bool { return e.State == AtVertex }
func (e Extrema) IsEdge() bool   { return e.State == AtEdge }
func (e Extrema) IsSet() bool    { return e.State != NotAtExtrema }

// ValidFor reports whether the named vertex/edge of g actually contains
// p (within tol, relative to the element's length scale hmax). This is
// the "valid for element/point" check from spec §3: validity is judged
// per point, not baked into the Extrema value itself.
func (e Extrema) ValidFor(g *ElementGeometry, x [][]float64, p []float64, tol, hmax float64) bool {
	switch e.State {
	case AtVertex:
		return pointNearVertex(x, e.V1, p, tol*hmax)
	case AtEdge:
		a := vertexCoord(x, e.V1)
		b := vertexCoord(x, e.V2)
		return SegmentContains(a, b, p, tol)
	default:
		return false
	}
}

func vertexCoord(x [][]float64, v int) []float64 {
	ndim := len(x)
	c := make([]float64, ndim)
	for i := 0; i < ndim; i++ {
		c[i] = x[i][v]
	}
	return c
}

func pointNearVertex(x [][]float64, v int, p []float64, tol float64) bool {
	c := vertexCoord(x, v)
	d := 0.0
	for i := range c {
		diff := c[i] - p[i]
		d += diff * diff
	}
	return math.Sqrt(d) <= tol
}
