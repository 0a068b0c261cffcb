// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// 2D quadrilateral types, grounded on shp/quads.go's FaceLocalV tables.
func init() {
	Register(&ElementGeometry{
		Type: "qua4", Kind: KindFace, Nverts: 4, Nsides: 4, VtkCode: 9,
		SideLocalV: [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		NatCoords: [][]float64{
			{-1, 1, 1, -1},
			{-1, -1, 1, 1},
		},
	})
	Register(&ElementGeometry{
		Type: "qua8", Kind: KindFace, Nverts: 8, Nsides: 4, VtkCode: 23,
		SideLocalV: [][]int{{0, 1, 4}, {1, 2, 5}, {2, 3, 6}, {3, 0, 7}},
		NatCoords: [][]float64{
			{-1, 1, 1, -1, 0, 1, 0, -1},
			{-1, -1, 1, 1, -1, 0, 1, 0},
		},
	})
}
