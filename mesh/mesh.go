// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mesh defines the narrow read-only interfaces the ray-tracing
// core consumes from the mesh data structure, the FE variable evaluator,
// and the point locator — all of which spec.md §1 places outside the
// core. It also ships one small in-memory Mesh implementation
// (grounded on gofem's inp.Mesh / inp.Cell / inp.Vert, stripped of
// anything solver-specific) so the core is buildable and testable
// without a real FE mesh library.
package mesh

// Element is the per-element view the tracer and neighbor resolver
// need: geometry, adjacency, and the subdomain/boundary tagging used to
// dispatch hooks. Mesh is the sole owner of Element identity; the core
// never constructs one.
type Element interface {
	ID() int
	Type() string // geometry key, e.g. "hex8"; looked up in package geom
	SubdomainID() int
	Hmax() float64 // per-element diameter; builds subdomain_hmax at setup and scales the tracer's hit tolerances

	// Nverts returns the number of vertices and VertexCoord their
	// coordinates in local order (matching geom.ElementGeometry.SideLocalV).
	Nverts() int
	VertexCoord(local int) [3]float64
	VertexID(local int) int // global vertex id, for neighbor/extrema caching

	// Neighbor returns the element across side, and whether that side
	// is a conforming, active neighbor. ok == false means either an
	// external boundary (BoundaryIDs non-empty) or a non-conforming
	// interface that must be resolved via ActiveDescendant.
	Neighbor(side int) (elem Element, ok bool)

	// BoundaryIDs returns the (possibly empty) boundary ids tagged on
	// side, used by the study to find registered boundary hooks.
	BoundaryIDs(side int) []int

	// IsActive reports whether this element is a leaf in the AMR tree.
	// A non-active element is an ancestor only consulted during the
	// extrema/neighbor walk.
	IsActive() bool

	// ActiveDescendant returns the active leaf of this element's AMR
	// subtree that contains point p, for descending across a
	// non-conforming interface (spec §4.D step g).
	ActiveDescendant(p [3]float64) Element

	// RankOwner returns the MPI rank that owns this element. Used by
	// the tracer/executor to detect off-rank handoffs.
	RankOwner() int
}

// PointLocator resolves a point to the element that contains it,
// restricted to locally-owned elements (spec §4.F "Claim"). Returns
// ok == false if no local element contains p.
type PointLocator interface {
	Locate(p [3]float64) (elem Element, ok bool)
}

// FieldSource is the FE variable evaluator collaborator (spec §1,
// explicitly out of scope): it reinitializes field data at quadrature
// points along a segment and returns the named field's value there.
// Segment hooks consume it; the core never implements it.
type FieldSource interface {
	ReinitSegment(elem Element, start, end [3]float64) error
	Value(name string, qp int) float64
}

// Accumulator is the shared, mutex-guarded residual/Jacobian cache that
// segment kernels producing FE contributions write into (spec §5,
// "Shared, locked" resources). The core only ever calls Add; it never
// reads the cache back.
type Accumulator interface {
	Add(elem Element, contribution []float64)
}
