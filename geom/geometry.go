// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom implements the tracer's geometric substrate: per-element-
// type exit-face support tables (adapted from gofem's shp shape-function
// tables, stripped to only what the tracer needs), line/triangle/quad
// intersection routines, segment containment, and the tagged element-
// extrema descriptor.
package geom

// Kind is the runtime element-type dispatch tag the tracer switches on
// once per step (spec §4.D "Element-type dispatch").
type Kind int

const (
	KindEdge Kind = iota // 1D: segments (lin2, lin3, ...)
	KindFace             // 2D: triangles, quads
	KindCell             // 3D: tets, hexes, prisms, pyramids
)

// ElementGeometry holds the exit-face and extrema support tables for one
// element type. This is the subset of gofem's shp.Shape that the ray
// tracer needs: it keeps NatCoords/Nverts/VtkCode and gofem's FaceLocalV
// (here named SideLocalV) (the
// structural facts about where vertices, edges and faces sit) but drops
// ShpFunc/dSdR/the Jacobian scratchpad, since evaluating shape functions
// at quadrature points is the FE collaborator's job, not the tracer's.
type ElementGeometry struct {
	Type       string      // e.g. "hex8", "tri6", "lin2"
	Kind       Kind        // dispatch tag
	Nverts     int         // number of vertices
	Nsides     int         // number of sides (faces in 3D, edges in 2D, endpoints in 1D)
	VtkCode    int         // VTK cell code, carried for exporters
	SideLocalV [][]int     // local vertex indices per side, e.g. hex8 face 0 = {0,4,7,3}
	NatCoords  [][]float64 // [gndim][nverts] natural coordinates of each vertex
}

// factory mirrors shp.Get's map[string]*Shape registry pattern.
var factory = make(map[string]*ElementGeometry)

// Register adds a geometry descriptor to the factory. Called from init()
// in lins.go/tris.go/quads.go/tets.go/hexs.go, one file per family,
// exactly as gofem's shp package registers each Shape.
func Register(g *ElementGeometry) {
	factory[g.Type] = g
}

// Get returns a registered ElementGeometry, or nil if geoType is unknown.
func Get(geoType string) *ElementGeometry {
	return factory[geoType]
}

// NumSides returns the number of sides for a cell type, or -1 if unknown
// (mirrors shp.GetNverts's sentinel convention).
func NumSides(cellType string) int {
	g, ok := factory[cellType]
	if !ok {
		return -1
	}
	return g.Nsides
}
