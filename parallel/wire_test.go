// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/ray"
)

// TestPackUnpackRay_roundTrips exercises spec.md §8's "Serialize/
// deserialize" round-trip law: every exposed attribute survives the
// trip, and the rehydrated ray always has should_continue=true and
// trajectory_changed=false regardless of the sender's state.
func TestPackUnpackRay_roundTrips(t *testing.T) {
	r := ray.NewRay(ray.NewConstructKey(), 42, 2, 1)
	require.NoError(t, r.SetStart([3]float64{1, 2, 3}))
	require.NoError(t, r.SetStartingDirection([3]float64{0, 0, 1}))
	require.NoError(t, r.SetStartingMaxDistance(5))
	r.Data()[0], r.Data()[1] = 1.5, -2.5
	r.AuxData()[0] = 9.25

	buf := PackRay(r, 7)
	w, err := UnpackRay(buf)
	require.NoError(t, err)

	assert.Equal(t, r.ID(), w.ID)
	assert.Equal(t, r.CurrentPoint(), w.Point)
	assert.Equal(t, r.Direction(), w.Direction)
	assert.Equal(t, int32(7), w.ElemID)
	assert.Equal(t, r.MaxDistance(), w.MaxDistance)
	assert.Equal(t, r.Data(), w.Data)
	assert.Equal(t, r.AuxData(), w.AuxData)

	elems := map[int]mesh.Element{7: fakeElem{id: 7}}
	r2, err := NewRayFromWire(w, elems)
	require.NoError(t, err)
	assert.Equal(t, r.ID(), r2.ID())
	assert.Equal(t, r.CurrentPoint(), r2.CurrentPoint())
	assert.True(t, r2.ShouldContinue())
	assert.False(t, r2.TrajectoryChanged())
}

// TestUnpackRay_missingElement reports NewRayFromWire's error when the
// receiving rank has no local element matching the wire payload.
func TestUnpackRay_missingElement(t *testing.T) {
	r := ray.NewRay(ray.NewConstructKey(), 1, 0, 0)
	buf := PackRay(r, 99)
	w, err := UnpackRay(buf)
	require.NoError(t, err)
	_, err = NewRayFromWire(w, map[int]mesh.Element{})
	assert.Error(t, err)
}

type fakeElem struct{ id int }

func (f fakeElem) ID() int                          { return f.id }
func (f fakeElem) Type() string                     { return "lin2" }
func (f fakeElem) SubdomainID() int                 { return 0 }
func (f fakeElem) Hmax() float64                     { return 1 }
func (f fakeElem) Nverts() int                      { return 2 }
func (f fakeElem) VertexCoord(local int) [3]float64 { return [3]float64{} }
func (f fakeElem) VertexID(local int) int           { return local }
func (f fakeElem) Neighbor(side int) (mesh.Element, bool) { return nil, false }
func (f fakeElem) BoundaryIDs(side int) []int       { return nil }
func (f fakeElem) IsActive() bool                   { return true }
func (f fakeElem) ActiveDescendant(p [3]float64) mesh.Element { return f }
func (f fakeElem) RankOwner() int                   { return 0 }
