// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/rterrors"
)

// Candidate is one rank's claim attempt for a replicated ray: the
// element its local point-locator found, if any.
type Candidate struct {
	RayID  int64
	Rank   int
	ElemID int
	Found  bool
}

// ClaimReport is rank 0's verdict for a single replicated ray id,
// assembled from every rank's Candidate.
type ClaimReport struct {
	RayID int64
	Owner int
	Found bool
}

// LocateCandidate runs a rank's local point locator against a
// replicated ray's start point, returning whether and where this rank
// can claim it.
func LocateCandidate(locator mesh.PointLocator, rank int, rayID int64, point [3]float64) Candidate {
	elem, ok := locator.Locate(point)
	if !ok {
		return Candidate{RayID: rayID, Rank: rank, Found: false}
	}
	return Candidate{RayID: rayID, Rank: rank, ElemID: elem.ID(), Found: true}
}

// ResolveClaims runs the rank-0 verification and tie-break pass over
// every ray id's candidate set (spec §4.F "Claim"). Per ray id: if no
// candidate found the element, that is a claim failure; otherwise the
// winning element is the one chosen among the finding candidates'
// elements by the smallest-id-when-even / largest-id-when-odd rule, and
// the owner is the rank that reported it. More than one rank reporting
// the winning element is a "multiply-claimed" claim failure.
func ResolveClaims(candidates []Candidate) (map[int64]ClaimReport, error) {
	byRay := make(map[int64][]Candidate)
	for _, c := range candidates {
		byRay[c.RayID] = append(byRay[c.RayID], c)
	}
	reports := make(map[int64]ClaimReport, len(byRay))
	for rayID, cands := range byRay {
		found := make([]Candidate, 0, len(cands))
		for _, c := range cands {
			if c.Found {
				found = append(found, c)
			}
		}
		if len(found) == 0 {
			ranks := make([]int, len(cands))
			for i, c := range cands {
				ranks[i] = c.Rank
			}
			return nil, rterrors.ClaimFailure{RayID: rayID, Reason: "unclaimed", Ranks: ranks}
		}
		elemID := found[0].ElemID
		for _, c := range found[1:] {
			if c.ElemID != elemID {
				// both candidates see a real, distinct containing element:
				// break the tie by the ray id parity rule rather than treat
				// it as an error, since this is the expected shape of a
				// shared-boundary-point claim (spec §4.F).
				if tieBreakWins(c.ElemID, elemID, rayID) {
					elemID = c.ElemID
				}
			}
		}
		var owner int
		owners := make([]int, 0, 1)
		for _, c := range found {
			if c.ElemID == elemID {
				owners = append(owners, c.Rank)
			}
		}
		if len(owners) != 1 {
			return nil, rterrors.ClaimFailure{RayID: rayID, Reason: "multiply-claimed", Ranks: owners}
		}
		owner = owners[0]
		reports[rayID] = ClaimReport{RayID: rayID, Owner: owner, Found: true}
	}
	return reports, nil
}

// tieBreakWins reports whether candidate elemID should replace current
// as the winning element for rayID, per the smallest-wins-on-even /
// largest-wins-on-odd rule.
func tieBreakWins(candidate, current int, rayID int64) bool {
	if rayID%2 == 0 {
		return candidate < current
	}
	return candidate > current
}
