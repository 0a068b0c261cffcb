// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// 3D tetrahedron type, grounded on shp/tets.go's FaceLocalV table: each
// face is a triangle, so the ray-triangle routine applies directly.
func init() {
	Register(&ElementGeometry{
		Type: "tet4", Kind: KindCell, Nverts: 4, Nsides: 4, VtkCode: 10,
		SideLocalV: [][]int{{0, 3, 2}, {0, 1, 3}, {0, 2, 1}, {1, 2, 3}},
		NatCoords: [][]float64{
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		},
	})
}
