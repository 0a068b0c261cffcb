// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ray implements the Ray entity (spec §3): a parametric line
// segment with mutable state, counters, and two flat per-ray data
// arrays. Mutation of the fields that only specific collaborators may
// touch is gated by capability-key arguments (spec §4.C / §9 "Ray/hook
// key pattern"), following design note (b): a small adapter granted
// access by module boundary. Package hook is that boundary — it holds
// the only code paths that construct these keys on behalf of user
// kernels, so a kernel author never sees a key type directly.
package ray

import (
	"fmt"
	"math"

	"github.com/cpmech/raytracing/mesh"
)

const (
	// InvalidSide marks current_incoming_side as unset.
	InvalidSide = -1
	eqTol       = 1e-8
)

// ConstructKey gates NewRay: only the per-rank pool and the study may
// mint new rays (spec §4.C).
type ConstructKey struct{ _ byte }

// NewConstructKey returns a new construction capability. Called only
// from the study/pool packages, never from hook code.
func NewConstructKey() ConstructKey { return ConstructKey{} }

// ChangeStartDirectionKey gates the mid-trace "redirect from inside the
// current element" mutator, constructible only by the segment-hook base
// (package hook).
type ChangeStartDirectionKey struct{ _ byte }

func NewChangeStartDirectionKey() ChangeStartDirectionKey { return ChangeStartDirectionKey{} }

// ChangeDirectionKey gates the boundary-hook direction change,
// constructible only by the boundary-hook base (package hook).
type ChangeDirectionKey struct{ _ byte }

func NewChangeDirectionKey() ChangeDirectionKey { return ChangeDirectionKey{} }

// RehydrateKey gates Rehydrate, the off-rank-handoff reconstructor.
// Only package parallel, unpacking a received ray, may call it.
type RehydrateKey struct{ _ byte }

func NewRehydrateKey() RehydrateKey { return RehydrateKey{} }

// Ray is the unit of work traced through the mesh.
type Ray struct {
	id int64

	currentPoint [3]float64
	direction    [3]float64
	hasDirection bool

	currentElem         mesh.Element
	currentIncomingSide int

	endSet   bool
	endPoint [3]float64

	maxDistance float64

	processorCrossings int
	intersections      int
	trajectoryChanges  int
	distance           float64

	shouldContinue    bool
	trajectoryChanged bool

	data    []float64
	auxData []float64
}

// NewRay allocates a ray with data/auxData vectors sized to the
// study-wide registered table lengths (spec §3 "Study-wide tables").
// Only the study/pool may call this (key must come from NewConstructKey).
func NewRay(_ ConstructKey, id int64, nData, nAuxData int) *Ray {
	return &Ray{
		id:                  id,
		currentIncomingSide: InvalidSide,
		maxDistance:         math.Inf(1),
		shouldContinue:      true,
		data:                make([]float64, nData),
		auxData:             make([]float64, nAuxData),
	}
}

// --- read accessors ---------------------------------------------------

func (r *Ray) ID() int64                     { return r.id }
func (r *Ray) CurrentPoint() [3]float64      { return r.currentPoint }
func (r *Ray) Direction() [3]float64         { return r.direction }
func (r *Ray) CurrentElem() mesh.Element     { return r.currentElem }
func (r *Ray) CurrentIncomingSide() int      { return r.currentIncomingSide }
func (r *Ray) EndSet() bool                  { return r.endSet }
func (r *Ray) EndPoint() [3]float64          { return r.endPoint }
func (r *Ray) MaxDistance() float64          { return r.maxDistance }
func (r *Ray) ProcessorCrossings() int       { return r.processorCrossings }
func (r *Ray) Intersections() int            { return r.intersections }
func (r *Ray) TrajectoryChanges() int        { return r.trajectoryChanges }
func (r *Ray) Distance() float64             { return r.distance }
func (r *Ray) ShouldContinue() bool          { return r.shouldContinue }
func (r *Ray) TrajectoryChanged() bool       { return r.trajectoryChanged }
func (r *Ray) Data() []float64               { return r.data }
func (r *Ray) AuxData() []float64            { return r.auxData }

// IsStationary reports a ray with max_distance == 0 and no direction
// (spec §3 glossary "Stationary ray").
func (r *Ray) IsStationary() bool { return r.maxDistance == 0 && !r.hasDirection }

// hasStarted reports whether tracing has touched this ray yet, per
// spec §3: "after intersections>0 or processor_crossings>0 or
// distance>0 the starting mutators must fail".
func (r *Ray) hasStarted() bool {
	return r.intersections > 0 || r.processorCrossings > 0 || r.distance > 0
}

// --- starting mutators (generator-time only) --------------------------

// SetStart sets the ray's starting point. Fails once tracing has begun.
func (r *Ray) SetStart(p [3]float64) error {
	if r.hasStarted() {
		return fmt.Errorf("ray %d: cannot SetStart after tracing has begun", r.id)
	}
	r.currentPoint = p
	return nil
}

// SetStartingDirection sets and normalizes the ray's direction. A zero
// vector is a contract violation (spec §3 "fails if set to zero").
func (r *Ray) SetStartingDirection(d [3]float64) error {
	if r.hasStarted() {
		return fmt.Errorf("ray %d: cannot SetStartingDirection after tracing has begun", r.id)
	}
	n := norm3(d)
	if n < eqTol {
		return fmt.Errorf("ray %d: direction must be non-zero", r.id)
	}
	r.direction = [3]float64{d[0] / n, d[1] / n, d[2] / n}
	r.hasDirection = true
	return nil
}

// SetStartingEndPoint bounds the ray by a terminal point, internally
// encoded as a finite max_distance along the current direction.
func (r *Ray) SetStartingEndPoint(p [3]float64) error {
	if r.hasStarted() {
		return fmt.Errorf("ray %d: cannot SetStartingEndPoint after tracing has begun", r.id)
	}
	if !r.hasDirection {
		return fmt.Errorf("ray %d: direction must be set before SetStartingEndPoint", r.id)
	}
	d := [3]float64{p[0] - r.currentPoint[0], p[1] - r.currentPoint[1], p[2] - r.currentPoint[2]}
	r.maxDistance = dot3(d, r.direction)
	r.endSet = true
	r.endPoint = p
	return nil
}

// SetStartingMaxDistance bounds the ray by a distance rather than a
// point. max_distance must be strictly positive unless the ray is
// stationary (spec §3).
func (r *Ray) SetStartingMaxDistance(d float64) error {
	if r.hasStarted() {
		return fmt.Errorf("ray %d: cannot SetStartingMaxDistance after tracing has begun", r.id)
	}
	if d <= 0 && !(d == 0 && !r.hasDirection) {
		return fmt.Errorf("ray %d: max_distance must be > 0 unless the ray is stationary", r.id)
	}
	r.maxDistance = d
	return nil
}

// SetStartingElem sets the starting element/incoming side, used by the
// generator or left nil for the claimer to resolve via point location.
func (r *Ray) SetStartingElem(elem mesh.Element, incomingSide int) error {
	if r.hasStarted() {
		return fmt.Errorf("ray %d: cannot SetStartingElem after tracing has begun", r.id)
	}
	r.currentElem = elem
	r.currentIncomingSide = incomingSide
	return nil
}

// --- tracer-only bookkeeping (package tracer is the sole caller) ------

// AdvanceTo updates the ray's position/element after a step. Called
// only by the tracer.
func (r *Ray) AdvanceTo(p [3]float64, elem mesh.Element, incomingSide int, segLen float64) {
	r.currentPoint = p
	r.currentElem = elem
	r.currentIncomingSide = incomingSide
	r.distance += segLen
	r.intersections++
}

// BumpProcessorCrossing increments the handoff counter.
func (r *Ray) BumpProcessorCrossing() { r.processorCrossings++ }

// ClampToMaxDistance clamps distance to max_distance and invalidates
// the incoming side (spec §4.D step d: the endpoint becomes interior).
func (r *Ray) ClampToMaxDistance() {
	r.distance = r.maxDistance
	r.currentIncomingSide = InvalidSide
	r.shouldContinue = false
}

// SetCurrentPoint overwrites the current point without bookkeeping
// (used when recomputing the intersection distance to an obsolete
// endpoint after a mid-segment redirect, spec §4.D step f).
func (r *Ray) SetCurrentPoint(p [3]float64) { r.currentPoint = p }

// SetCurrentIncomingSide overwrites the incoming side only.
func (r *Ray) SetCurrentIncomingSide(s int) { r.currentIncomingSide = s }

// --- hook-gated mutators ----------------------------------------------

// SetShouldContinue is monotone: once false it cannot be set back to
// true (spec §3 "should_continue is monotonically non-increasing").
func (r *Ray) SetShouldContinue(v bool) {
	if !v {
		r.shouldContinue = false
		return
	}
	if !r.shouldContinue {
		panic(fmt.Sprintf("ray %d: attempted to re-arm should_continue after it was cleared", r.id))
	}
}

// ChangeRayStartDirection redirects the ray from a point inside the
// current element, per the segment-hook contract (spec §4.G). Only
// package hook's segment-hook base may call this (key proves it).
func (r *Ray) ChangeRayStartDirection(_ ChangeStartDirectionKey, newDir [3]float64) error {
	if r.endSet {
		return fmt.Errorf("ray %d: cannot redirect a ray whose end point was set", r.id)
	}
	if !r.shouldContinue {
		return fmt.Errorf("ray %d: cannot redirect a ray marked not-to-continue", r.id)
	}
	if r.trajectoryChanged {
		return fmt.Errorf("ray %d: cannot redirect twice in one segment", r.id)
	}
	n := norm3(newDir)
	if n < eqTol {
		return fmt.Errorf("ray %d: direction must be non-zero", r.id)
	}
	r.direction = [3]float64{newDir[0] / n, newDir[1] / n, newDir[2] / n}
	r.trajectoryChanged = true
	r.trajectoryChanges++
	return nil
}

// ChangeRayDirection redirects the ray at a boundary hit, per the
// boundary-hook contract. Only package hook's boundary-hook base may
// call this.
func (r *Ray) ChangeRayDirection(_ ChangeDirectionKey, newDir [3]float64) error {
	if !r.shouldContinue {
		return fmt.Errorf("ray %d: cannot redirect a ray marked not-to-continue", r.id)
	}
	n := norm3(newDir)
	if n < eqTol {
		return fmt.Errorf("ray %d: direction must be non-zero", r.id)
	}
	r.direction = [3]float64{newDir[0] / n, newDir[1] / n, newDir[2] / n}
	r.trajectoryChanged = true
	r.trajectoryChanges++
	return nil
}

// ClearTrajectoryChanged resets the transient flag after its observers
// run (spec §3 "trajectory_changed: transient flag cleared after its
// observers run"). Called once per step by the tracer.
func (r *Ray) ClearTrajectoryChanged() { r.trajectoryChanged = false }

// Reset returns the ray to its pre-generation construction state, for
// reuse from the pool (spec §8 "Reset" round-trip law).
func (r *Ray) Reset(id int64) {
	n, na := len(r.data), len(r.auxData)
	*r = Ray{
		id:                  id,
		currentIncomingSide: InvalidSide,
		maxDistance:         math.Inf(1),
		shouldContinue:      true,
		data:                make([]float64, n),
		auxData:             make([]float64, na),
	}
}

// Rehydrate reconstructs a ray received from another rank (spec §4.F
// "Serialization"): the receiving rank rematerializes it with
// should_continue = true and trajectory_changed = false regardless of
// what those flags were on the sending rank, while every counter and
// the current point/direction/element/incoming-side survive the
// handoff unchanged. Only package parallel, immediately after
// unpacking the wire format, may call this.
func Rehydrate(_ RehydrateKey, id int64, point, direction [3]float64, elem mesh.Element, incomingSide int, endSet bool, endPoint [3]float64, maxDistance float64, processorCrossings, intersections, trajectoryChanges int, distance float64, data, auxData []float64) *Ray {
	return &Ray{
		id:                  id,
		currentPoint:        point,
		direction:           direction,
		hasDirection:        true,
		currentElem:         elem,
		currentIncomingSide: incomingSide,
		endSet:              endSet,
		endPoint:            endPoint,
		maxDistance:         maxDistance,
		processorCrossings:  processorCrossings,
		intersections:       intersections,
		trajectoryChanges:   trajectoryChanges,
		distance:            distance,
		shouldContinue:      true,
		trajectoryChanged:   false,
		data:                data,
		auxData:             auxData,
	}
}

// Info returns a MOOSE-style multi-line diagnostic dump used by
// contract-violation panics (spec_full §3 "getInfo").
func (r *Ray) Info() string {
	elemID := -1
	if r.currentElem != nil {
		elemID = r.currentElem.ID()
	}
	return fmt.Sprintf(
		"Ray{id=%d point=%v dir=%v elem=%d incoming_side=%d end_set=%v "+
			"distance=%v max_distance=%v crossings=%d intersections=%d "+
			"traj_changes=%d should_continue=%v}",
		r.id, r.currentPoint, r.direction, elemID, r.currentIncomingSide, r.endSet,
		r.distance, r.maxDistance, r.processorCrossings, r.intersections,
		r.trajectoryChanges, r.shouldContinue)
}

func norm3(v [3]float64) float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }
func dot3(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
