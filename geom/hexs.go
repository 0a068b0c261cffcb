// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// 3D hexahedron types, grounded on shp/hexs.go's FaceLocalV tables. Each
// face has 4 corner vertices (possibly plus mid-edge nodes for hex20);
// the ray-quad routine only needs the 4 corners, taken as the first four
// entries of each SideLocalV row.
func init() {
	Register(&ElementGeometry{
		Type: "hex8", Kind: KindCell, Nverts: 8, Nsides: 6, VtkCode: 12,
		SideLocalV: [][]int{
			{0, 4, 7, 3}, {1, 2, 6, 5}, {0, 1, 5, 4},
			{2, 3, 7, 6}, {0, 3, 2, 1}, {4, 5, 6, 7},
		},
		NatCoords: [][]float64{
			{-1, 1, 1, -1, -1, 1, 1, -1},
			{-1, -1, 1, 1, -1, -1, 1, 1},
			{-1, -1, -1, -1, 1, 1, 1, 1},
		},
	})
	Register(&ElementGeometry{
		Type: "hex20", Kind: KindCell, Nverts: 20, Nsides: 6, VtkCode: 25,
		SideLocalV: [][]int{
			{0, 4, 7, 3, 16, 15, 19, 11}, {1, 2, 6, 5, 9, 18, 13, 17},
			{0, 1, 5, 4, 8, 17, 12, 16}, {2, 3, 7, 6, 10, 19, 14, 18},
			{0, 3, 2, 1, 11, 10, 9, 8}, {4, 5, 6, 7, 12, 13, 14, 15},
		},
		NatCoords: [][]float64{
			{-1, 1, 1, -1, -1, 1, 1, -1, 0, 1, 0, -1, 0, 1, 0, -1, -1, 1, 1, -1},
			{-1, -1, 1, 1, -1, -1, 1, 1, -1, 0, 1, 0, -1, 0, 1, 0, -1, -1, 1, 1},
			{-1, -1, -1, -1, 1, 1, 1, 1, -1, -1, -1, -1, 1, 1, 1, 1, 0, 0, 0, 0},
		},
	})
}
