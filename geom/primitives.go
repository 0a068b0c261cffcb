// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"math"

	"github.com/cpmech/gosl/la"
)

// Tight and loose geometric tolerances, per spec §4.A.
const (
	TolTight = 1.0e-8
	TolLoose = 1.0e-5
)

// Hit is the outcome of a line/triangle/quad intersection test.
type Hit struct {
	Found    bool
	Distance float64 // parametric distance along the ray direction (already rescaled by hmax where relevant)
	Extrema  Extrema // vertex/edge flag, local to the side being tested
}

// LineLine2D intersects segment u0->u0+r against segment v0->v1, per
// spec §4.A. tau is the tolerance, length the magnitude of r (so the
// caller controls whether r is already a unit vector or not).
func LineLine2D(u0 [2]float64, r [2]float64, length float64, v0, v1 [2]float64, tau float64) Hit {
	s := [2]float64{v1[0] - v0[0], v1[1] - v0[1]}
	rxs := cross2(r, s)
	if math.Abs(rxs) < tau {
		return Hit{} // parallel or colinear: miss
	}
	qmp := [2]float64{v0[0] - u0[0], v0[1] - u0[1]}
	t := cross2(qmp, s) / rxs
	u := cross2(qmp, r) / rxs
	if t <= -tau || t > 1+tau || u <= -tau || u > 1+tau {
		return Hit{}
	}
	h := Hit{Found: true, Distance: t * length}
	if u < tau {
		h.Extrema = Vertex(0) // hit v0
	} else if u > 1-tau {
		h.Extrema = Vertex(1) // hit v1
	}
	return h
}

func cross2(a, b [2]float64) float64 { return a[0]*b[1] - a[1]*b[0] }

// RayTriangle3D implements Möller–Trumbore with the two precision
// adjustments from spec §4.A: the triangle is rescaled by 1/hmax before
// forming edge1/edge2 (and the reported distance rescaled back), and the
// u/v barycentric tests are done against tau*det without dividing by
// det. origin and dir are in original (un-rescaled) coordinates; dir
// need not be unit length, but the returned Distance is in the same
// units as dir.
func RayTriangle3D(origin, dir, v0, v1, v2 [3]float64, hmax, tau float64) Hit {
	inv := 1.0 / hmax
	o := scale3(origin, inv)
	a := scale3(v0, inv)
	b := scale3(v1, inv)
	c := scale3(v2, inv)

	edge1 := sub3(b, a)
	edge2 := sub3(c, a)
	pvec := cross3(dir, edge2)
	det := dot3(edge1, pvec)
	if math.Abs(det) < tau {
		return Hit{}
	}
	tvec := sub3(o, a)
	u := dot3(tvec, pvec)
	qvec := cross3(tvec, edge1)
	v := dot3(dir, qvec)

	// sign-preserving tests against tau*det (do not divide by det yet)
	ad := math.Abs(det)
	if det > 0 {
		if u < -tau*ad || v < -tau*ad || u+v > det+tau*ad {
			return Hit{}
		}
	} else {
		if u > tau*ad || v > tau*ad || u+v < det-tau*ad {
			return Hit{}
		}
	}

	t := dot3(edge2, qvec) / det
	h := Hit{Found: true, Distance: t * hmax}

	// corner classification, per spec §4.A
	uu, vv := u/det, v/det
	switch {
	case math.Abs(uu) < tau && math.Abs(vv) < tau:
		h.Extrema = Vertex(0) // v0
	case math.Abs(uu-1) < tau:
		h.Extrema = Vertex(1) // v1
	case math.Abs(vv-1) < tau:
		h.Extrema = Vertex(2) // v2
	case math.Abs(uu) < tau:
		h.Extrema = Edge(0, 2) // on edge v0-v2
	case math.Abs(vv) < tau:
		h.Extrema = Edge(0, 1) // on edge v0-v1
	case math.Abs(uu+vv-1) < tau:
		h.Extrema = Edge(1, 2) // on edge v1-v2
	}
	return h
}

// RayQuad3D splits the quad (v00, v10, v11, v01) into triangles
// (v00,v10,v11) and (v11,v01,v00), per spec §4.A, and keeps the closer
// valid hit. If the winning hit is reported at the diagonal edge
// (v00,v11), the extrema flag is cleared (it is not a real element
// edge) but the face hit itself is kept.
func RayQuad3D(origin, dir, v00, v10, v11, v01 [3]float64, hmax, tau float64) Hit {
	h1 := RayTriangle3D(origin, dir, v00, v10, v11, hmax, tau)
	h2 := RayTriangle3D(origin, dir, v11, v01, v00, hmax, tau)

	pick := func(h Hit, local [3]int) Hit {
		// local maps the triangle's (0,1,2) vertex indices back to the
		// quad's (v00,v10,v11,v01) indexing, so extrema line up with
		// the caller's SideLocalV ordering.
		if !h.Found {
			return h
		}
		switch h.Extrema.State {
		case AtVertex:
			h.Extrema = Vertex(local[h.Extrema.V1])
		case AtEdge:
			a, b := local[h.Extrema.V1], local[h.Extrema.V2]
			if (a == 0 && b == 2) || (a == 2 && b == 0) {
				h.Extrema = None() // diagonal v00-v11: not a real edge
			} else {
				h.Extrema = Edge(a, b)
			}
		}
		return h
	}
	h1 = pick(h1, [3]int{0, 1, 2})
	h2 = pick(h2, [3]int{2, 3, 0})

	switch {
	case h1.Found && h2.Found:
		if h1.Distance <= h2.Distance {
			return h1
		}
		return h2
	case h1.Found:
		return h1
	default:
		return h2
	}
}

// SegmentContains tests whether p lies on segment a->b, per spec §4.A:
// a sign test plus a length-sum test, each scaled by tau*L.
func SegmentContains(a, b, p []float64, tau float64) bool {
	n := len(a)
	pa := make([]float64, n)
	pb := make([]float64, n)
	ab := make([]float64, n)
	for i := 0; i < n; i++ {
		pa[i] = p[i] - a[i]
		pb[i] = p[i] - b[i]
		ab[i] = b[i] - a[i]
	}
	L := la.VecNorm(ab)
	dot := 0.0
	for i := 0; i < n; i++ {
		dot += pa[i] * pb[i]
	}
	if dot > tau*L {
		return false
	}
	sum := la.VecNorm(pa) + la.VecNorm(pb)
	return math.Abs(sum-L) <= tau*L
}

// Dist3 returns the Euclidean distance between two points, exported
// for collaborators (package neighbor) that need point-proximity tests
// outside the intersection kernels.
func Dist3(a, b [3]float64) float64 {
	d := sub3(a, b)
	return math.Sqrt(dot3(d, d))
}

func scale3(v [3]float64, s float64) [3]float64 { return [3]float64{v[0] * s, v[1] * s, v[2] * s} }
func sub3(a, b [3]float64) [3]float64           { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func dot3(a, b [3]float64) float64              { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
