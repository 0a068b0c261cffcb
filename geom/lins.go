// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

// 1D element types. A "side" of an edge element is one of its two
// endpoints; the Edge specialization of the exit search (spec §4.D)
// just returns the other endpoint, so SideLocalV here is trivial.
func init() {
	Register(&ElementGeometry{
		Type: "lin2", Kind: KindEdge, Nverts: 2, Nsides: 2, VtkCode: 3,
		SideLocalV: [][]int{{0}, {1}},
		NatCoords:  [][]float64{{-1, 1}},
	})
	Register(&ElementGeometry{
		Type: "lin3", Kind: KindEdge, Nverts: 3, Nsides: 2, VtkCode: 21,
		SideLocalV: [][]int{{0}, {1}},
		NatCoords:  [][]float64{{-1, 1, 0}},
	})
}
