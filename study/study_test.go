// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/raytracing/hook"
	"github.com/cpmech/raytracing/mesh"
)

func allElements(m *mesh.InMesh, n int) []mesh.Element {
	out := make([]mesh.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, m.Element(i))
	}
	return out
}

func TestRegisterRayData_duplicateReturnsSameIndex(t *testing.T) {
	s := New(Config{}, nil)
	i1, err := s.RegisterRayData("A")
	require.NoError(t, err)
	i2, err := s.RegisterRayData("A")
	require.NoError(t, err)
	assert.Equal(t, i1, i2)
}

func TestRegisterRayData_failsAfterInitialSetup(t *testing.T) {
	s := New(Config{SkipCoverageCheck: true}, nil)
	m := mesh.Build1DTwoSegments()
	s.SetElements(allElements(m, 2))
	_, err := s.RegisterRayData("A")
	require.NoError(t, err)
	require.NoError(t, s.InitialSetup())
	_, err = s.RegisterRayData("A")
	assert.Error(t, err)
	_, err = s.RegisterRayData("B")
	assert.Error(t, err)
}

func TestRegisterRayData_conflictsWithAuxData(t *testing.T) {
	s := New(Config{}, nil)
	_, err := s.RegisterRayAuxData("A")
	require.NoError(t, err)
	_, err = s.RegisterRayData("A")
	assert.Error(t, err)
}

func TestInitialSetup_coverageCheckFailsWithoutHooks(t *testing.T) {
	s := New(Config{}, nil)
	m := mesh.Build1DTwoSegments()
	s.SetElements(allElements(m, 2))
	err := s.InitialSetup()
	assert.Error(t, err)
}

func TestInitialSetup_coverageCheckPassesWithHook(t *testing.T) {
	s := New(Config{}, nil)
	m := mesh.Build1DTwoSegments()
	s.SetElements(allElements(m, 2))
	s.RegisterSegmentHook(0, "counter", &hook.IntegralKernel{DataIdx: 0, F: func(*hook.SegmentContext) float64 { return 1 }})
	require.NoError(t, s.InitialSetup())
	assert.True(t, s.hasRayKernels(0))
	hmax, ok := s.SubdomainHmax(0)
	assert.True(t, ok)
	assert.Greater(t, hmax, 0.0)
}

func TestInitialSetup_dependencyCheckFailsOnUnknownHook(t *testing.T) {
	s := New(Config{SkipCoverageCheck: true}, nil)
	m := mesh.Build1DTwoSegments()
	s.SetElements(allElements(m, 2))
	s.RegisterSegmentHook(0, "dependent", &hook.IntegralKernel{DataIdx: 0, F: func(*hook.SegmentContext) float64 { return 1 }}, "missing")
	err := s.InitialSetup()
	assert.Error(t, err)
}

func TestSegmentHooksFor_returnsRegisteredHooks(t *testing.T) {
	s := New(Config{SkipCoverageCheck: true}, nil)
	k := &hook.IntegralKernel{DataIdx: 0, F: func(*hook.SegmentContext) float64 { return 1 }}
	s.RegisterSegmentHook(0, "k", k)
	hooks := s.SegmentHooksFor(0)
	require.Len(t, hooks, 1)
	assert.Same(t, k, hooks[0].(*hook.IntegralKernel))
}

func TestResolver_buildsAfterInitialSetup(t *testing.T) {
	s := New(Config{SkipCoverageCheck: true}, nil)
	m := mesh.Build2x2Quads()
	s.SetElements(allElements(m, 4))
	require.NoError(t, s.InitialSetup())
	require.NotNil(t, s.Resolver())
}

func TestQuadrature_defaultOrderHasTwoPointsSummingToTwo(t *testing.T) {
	s := New(Config{SkipCoverageCheck: true}, nil)
	m := mesh.Build1DTwoSegments()
	s.SetElements(allElements(m, 2))
	require.NoError(t, s.InitialSetup())
	wts := s.QuadWeights()
	require.Len(t, wts, 2)
	sum := wts[0] + wts[1]
	assert.InDelta(t, 2.0, sum, 1e-12)
}
