// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestLineLine2D_simpleCross(tst *testing.T) {
	chk.PrintTitle("Test LineLine2D: simple crossing")
	u0 := [2]float64{0, 0.5}
	r := [2]float64{1, 0}
	v0 := [2]float64{0.5, 0}
	v1 := [2]float64{0.5, 1}
	h := LineLine2D(u0, r, 1.0, v0, v1, TolTight)
	if !h.Found {
		tst.Fatal("expected a hit")
	}
	chk.Scalar(tst, "distance", 1e-9, h.Distance, 0.5)
	if h.Extrema.IsSet() {
		tst.Fatal("mid-edge hit should not report a vertex")
	}
}

func TestLineLine2D_parallelMiss(tst *testing.T) {
	u0 := [2]float64{0, 0}
	r := [2]float64{1, 0}
	v0 := [2]float64{0, 1}
	v1 := [2]float64{1, 1}
	h := LineLine2D(u0, r, 1.0, v0, v1, TolTight)
	if h.Found {
		tst.Fatal("parallel segments must not intersect")
	}
}

func TestLineLine2D_vertexHit(tst *testing.T) {
	u0 := [2]float64{0, -1}
	r := [2]float64{1, 1}
	v0 := [2]float64{1, 0}
	v1 := [2]float64{2, 0}
	h := LineLine2D(u0, r, 1.414213562, v0, v1, TolTight)
	if !h.Found || !h.Extrema.IsVertex() || h.Extrema.V1 != 0 {
		tst.Fatalf("expected a vertex-0 hit, got %+v", h)
	}
}

func TestRayTriangle3D_centerHit(tst *testing.T) {
	chk.PrintTitle("Test RayTriangle3D: center hit")
	v0 := [3]float64{0, 0, 0}
	v1 := [3]float64{1, 0, 0}
	v2 := [3]float64{0, 1, 0}
	origin := [3]float64{0.2, 0.2, -1}
	dir := [3]float64{0, 0, 1}
	h := RayTriangle3D(origin, dir, v0, v1, v2, 1.0, TolTight)
	if !h.Found {
		tst.Fatal("expected a hit")
	}
	chk.Scalar(tst, "distance", 1e-8, h.Distance, 1.0)
	if h.Extrema.IsSet() {
		tst.Fatal("interior hit should not be at extrema")
	}
}

func TestRayTriangle3D_vertexHit(tst *testing.T) {
	v0 := [3]float64{0, 0, 0}
	v1 := [3]float64{1, 0, 0}
	v2 := [3]float64{0, 1, 0}
	origin := [3]float64{0, 0, -1}
	dir := [3]float64{0, 0, 1}
	h := RayTriangle3D(origin, dir, v0, v1, v2, 1.0, TolTight)
	if !h.Found || !h.Extrema.IsVertex() || h.Extrema.V1 != 0 {
		tst.Fatalf("expected vertex-0 hit, got %+v", h)
	}
}

func TestRayQuad3D_diagonalIsNotRealEdge(tst *testing.T) {
	v00 := [3]float64{0, 0, 0}
	v10 := [3]float64{1, 0, 0}
	v11 := [3]float64{1, 1, 0}
	v01 := [3]float64{0, 1, 0}
	origin := [3]float64{0.5, 0.5, -1}
	dir := [3]float64{0, 0, 1}
	h := RayQuad3D(origin, dir, v00, v10, v11, v01, 1.0, TolTight)
	if !h.Found {
		tst.Fatal("expected a hit on the diagonal")
	}
	if h.Extrema.IsSet() {
		tst.Fatal("diagonal hit must not be reported as a real edge")
	}
}

func TestSegmentContains(tst *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{2, 0, 0}
	if !SegmentContains(a, b, []float64{1, 0, 0}, TolTight) {
		tst.Fatal("midpoint must be contained")
	}
	if SegmentContains(a, b, []float64{3, 0, 0}, TolTight) {
		tst.Fatal("point beyond b must not be contained")
	}
	if SegmentContains(a, b, []float64{1, 0.5, 0}, TolTight) {
		tst.Fatal("off-segment point must not be contained")
	}
}

func TestElementGeometryFactory(tst *testing.T) {
	for _, name := range []string{"lin2", "tri3", "qua4", "tet4", "hex8"} {
		if Get(name) == nil {
			tst.Fatalf("expected %q to be registered", name)
		}
	}
	if Get("bogus") != nil {
		tst.Fatal("unregistered type must return nil")
	}
	if NumSides("hex8") != 6 {
		tst.Fatalf("hex8 must have 6 sides, got %d", NumSides("hex8"))
	}
	if NumSides("bogus") != -1 {
		tst.Fatal("unknown type must return -1")
	}
}
