// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRay_defaults(t *testing.T) {
	r := NewRay(NewConstructKey(), 7, 2, 1)
	assert.Equal(t, int64(7), r.ID())
	assert.Equal(t, InvalidSide, r.CurrentIncomingSide())
	assert.True(t, r.ShouldContinue())
	assert.Len(t, r.Data(), 2)
	assert.Len(t, r.AuxData(), 1)
	assert.False(t, r.IsStationary())
}

func TestStartingMutators_lockAfterTracingBegins(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	require.NoError(t, r.SetStart([3]float64{0, 0, 0}))
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	require.NoError(t, r.SetStartingMaxDistance(5))

	r.AdvanceTo([3]float64{1, 0, 0}, nil, InvalidSide, 1.0)
	assert.Error(t, r.SetStart([3]float64{9, 9, 9}))
	assert.Error(t, r.SetStartingDirection([3]float64{0, 1, 0}))
	assert.Error(t, r.SetStartingMaxDistance(10))
	assert.Error(t, r.SetStartingEndPoint([3]float64{2, 0, 0}))
}

func TestSetStartingDirection_rejectsZeroVector(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	assert.Error(t, r.SetStartingDirection([3]float64{0, 0, 0}))
}

func TestSetStartingEndPoint_derivesMaxDistance(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	require.NoError(t, r.SetStart([3]float64{0, 0, 0}))
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	require.NoError(t, r.SetStartingEndPoint([3]float64{3, 0, 0}))
	assert.InDelta(t, 3.0, r.MaxDistance(), 1e-12)
	assert.True(t, r.EndSet())
}

func TestShouldContinue_isMonotone(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	r.SetShouldContinue(false)
	assert.Panics(t, func() { r.SetShouldContinue(true) })
}

func TestChangeRayDirection_requiresKeyAndNormalizes(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	require.NoError(t, r.ChangeRayDirection(NewChangeDirectionKey(), [3]float64{0, 3, 4}))
	d := r.Direction()
	assert.InDelta(t, 0.0, d[0], 1e-12)
	assert.InDelta(t, 0.6, d[1], 1e-12)
	assert.InDelta(t, 0.8, d[2], 1e-12)
	assert.True(t, r.TrajectoryChanged())
	assert.Equal(t, 1, r.TrajectoryChanges())
}

func TestChangeRayDirection_failsWhenShouldNotContinue(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	r.SetShouldContinue(false)
	assert.Error(t, r.ChangeRayDirection(NewChangeDirectionKey(), [3]float64{1, 0, 0}))
}

func TestChangeRayStartDirection_failsIfEndSet(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	require.NoError(t, r.SetStart([3]float64{0, 0, 0}))
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	require.NoError(t, r.SetStartingEndPoint([3]float64{1, 0, 0}))
	assert.Error(t, r.ChangeRayStartDirection(NewChangeStartDirectionKey(), [3]float64{0, 1, 0}))
}

func TestChangeRayStartDirection_onlyOncePerSegment(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	require.NoError(t, r.ChangeRayStartDirection(NewChangeStartDirectionKey(), [3]float64{0, 1, 0}))
	assert.Error(t, r.ChangeRayStartDirection(NewChangeStartDirectionKey(), [3]float64{0, 0, 1}))
}

func TestClearTrajectoryChanged(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	require.NoError(t, r.ChangeRayDirection(NewChangeDirectionKey(), [3]float64{0, 1, 0}))
	r.ClearTrajectoryChanged()
	assert.False(t, r.TrajectoryChanged())
}

func TestReset_returnsToConstructionState(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 1, 1)
	require.NoError(t, r.SetStartingDirection([3]float64{1, 0, 0}))
	r.AdvanceTo([3]float64{1, 0, 0}, nil, InvalidSide, 1.0)
	r.Reset(42)
	assert.Equal(t, int64(42), r.ID())
	assert.Equal(t, 0, r.Intersections())
	assert.Equal(t, InvalidSide, r.CurrentIncomingSide())
	assert.True(t, r.ShouldContinue())
	assert.Len(t, r.Data(), 1)
	assert.Len(t, r.AuxData(), 1)
}

func TestClampToMaxDistance(t *testing.T) {
	r := NewRay(NewConstructKey(), 1, 0, 0)
	require.NoError(t, r.SetStartingMaxDistance(3))
	r.SetCurrentIncomingSide(2)
	r.ClampToMaxDistance()
	assert.InDelta(t, 3.0, r.Distance(), 1e-12)
	assert.Equal(t, InvalidSide, r.CurrentIncomingSide())
	assert.False(t, r.ShouldContinue())
}

func TestInfo_includesID(t *testing.T) {
	r := NewRay(NewConstructKey(), 99, 0, 0)
	assert.Contains(t, r.Info(), "id=99")
}

func TestRehydrate_forcesContinuePreservesCounters(t *testing.T) {
	r := Rehydrate(NewRehydrateKey(), 5, [3]float64{1, 2, 3}, [3]float64{1, 0, 0}, nil, 2, false, [3]float64{}, 10, 3, 4, 1, 2.5, []float64{9}, []float64{8})
	assert.True(t, r.ShouldContinue())
	assert.False(t, r.TrajectoryChanged())
	assert.Equal(t, 3, r.ProcessorCrossings())
	assert.Equal(t, 4, r.Intersections())
	assert.Equal(t, 1, r.TrajectoryChanges())
	assert.InDelta(t, 2.5, r.Distance(), 1e-12)
	assert.Equal(t, 9.0, r.Data()[0])
	assert.Equal(t, 8.0, r.AuxData()[0])
}
