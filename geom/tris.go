// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// 2D triangle types. Sides are edges; grounded on shp/tris.go's
// FaceLocalV tables (here renamed SideLocalV: a 2D element's "faces" are
// the tracer's exit "sides").
func init() {
	Register(&ElementGeometry{
		Type: "tri3", Kind: KindFace, Nverts: 3, Nsides: 3, VtkCode: 5,
		SideLocalV: [][]int{{0, 1}, {1, 2}, {2, 0}},
		NatCoords: [][]float64{
			{0, 1, 0},
			{0, 0, 1},
		},
	})
	Register(&ElementGeometry{
		Type: "tri6", Kind: KindFace, Nverts: 6, Nsides: 3, VtkCode: 22,
		SideLocalV: [][]int{{0, 1, 3}, {1, 2, 4}, {2, 0, 5}},
		NatCoords: [][]float64{
			{0, 1, 0, 0.5, 0.5, 0},
			{0, 0, 1, 0, 0.5, 0.5},
		},
	})
}
