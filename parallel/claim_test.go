// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/raytracing/rterrors"
)

// TestResolveClaims_tieBreakEvenPrefersSmallestElem drives spec.md
// §8 Scenario 5's tie-break rule directly: ray id 0 (even) prefers the
// smallest containing element id among the ranks that located it.
func TestResolveClaims_tieBreakEvenPrefersSmallestElem(t *testing.T) {
	cands := []Candidate{
		{RayID: 0, Rank: 0, ElemID: 3, Found: true},
		{RayID: 0, Rank: 1, ElemID: 1, Found: true},
		{RayID: 0, Rank: 2, Found: false},
	}
	reports, err := ResolveClaims(cands)
	require.NoError(t, err)
	assert.Equal(t, ClaimReport{RayID: 0, Owner: 1, Found: true}, reports[0])
}

// TestResolveClaims_tieBreakOddPrefersLargestElem is the odd-id mirror
// of the above.
func TestResolveClaims_tieBreakOddPrefersLargestElem(t *testing.T) {
	cands := []Candidate{
		{RayID: 1, Rank: 0, ElemID: 3, Found: true},
		{RayID: 1, Rank: 1, ElemID: 5, Found: true},
	}
	reports, err := ResolveClaims(cands)
	require.NoError(t, err)
	assert.Equal(t, 1, reports[1].Owner)
}

// TestResolveClaims_unclaimedIsFatal covers spec.md §4.F/§7: no rank
// locating the ray is always a ClaimFailure.
func TestResolveClaims_unclaimedIsFatal(t *testing.T) {
	cands := []Candidate{
		{RayID: 9, Rank: 0, Found: false},
		{RayID: 9, Rank: 1, Found: false},
	}
	_, err := ResolveClaims(cands)
	require.Error(t, err)
	var cf rterrors.ClaimFailure
	require.ErrorAs(t, err, &cf)
	assert.Equal(t, "unclaimed", cf.Reason)
}

// TestResolveClaims_singleCandidateIsOwner is the common case: only
// one rank locates the ray at all.
func TestResolveClaims_singleCandidateIsOwner(t *testing.T) {
	cands := []Candidate{
		{RayID: 4, Rank: 2, ElemID: 6, Found: true},
		{RayID: 4, Rank: 0, Found: false},
		{RayID: 4, Rank: 1, Found: false},
	}
	reports, err := ResolveClaims(cands)
	require.NoError(t, err)
	assert.Equal(t, 2, reports[4].Owner)
}
