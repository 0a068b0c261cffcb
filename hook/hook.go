// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hook defines the segment/boundary/aux kernel contracts (spec
// §4.G) and is the module boundary through which user kernels touch a
// ray: kernel authors receive a *SegmentContext or *BoundaryContext,
// never a *ray.Ray directly, so the forbidden mutators (construct,
// redirect outside the permitted call) are simply not reachable from
// kernel code (see DESIGN.md, "capability-key pattern").
package hook

import (
	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/ray"
)

// SegmentHook is the on-segment kernel contract.
type SegmentHook interface {
	// OnSegment runs once per (ray, element) segment the ray traverses.
	OnSegment(ctx *SegmentContext) error
}

// BoundaryHook is the boundary kernel contract, invoked once per
// (boundary id, hook) pair applying at an intersection point.
type BoundaryHook interface {
	// OnBoundary runs once per applicable boundary id at a hit point.
	OnBoundary(ctx *BoundaryContext) error
}

// SegmentContext is the capability object threaded into SegmentHook
// calls. It exposes exactly the effects spec §4.G allows: read access
// to the ray/element/segment geometry, the FE field source, and the
// accumulator, plus the two permitted mutators.
type SegmentContext struct {
	r            *ray.Ray
	elem         mesh.Element
	start, end   [3]float64
	length       float64
	incomingSide int
	fields       mesh.FieldSource
	accum        mesh.Accumulator
}

// NewSegmentContext is called only by package tracer when dispatching
// a segment kernel.
func NewSegmentContext(r *ray.Ray, elem mesh.Element, start, end [3]float64, length float64, incomingSide int, fields mesh.FieldSource, accum mesh.Accumulator) *SegmentContext {
	return &SegmentContext{r: r, elem: elem, start: start, end: end, length: length, incomingSide: incomingSide, fields: fields, accum: accum}
}

func (c *SegmentContext) RayID() int64              { return c.r.ID() }
func (c *SegmentContext) Elem() mesh.Element         { return c.elem }
func (c *SegmentContext) Start() [3]float64          { return c.start }
func (c *SegmentContext) End() [3]float64            { return c.end }
func (c *SegmentContext) Length() float64            { return c.length }
func (c *SegmentContext) IncomingSide() int          { return c.incomingSide }
func (c *SegmentContext) Data() []float64            { return c.r.Data() }
func (c *SegmentContext) AuxData() []float64         { return c.r.AuxData() }
func (c *SegmentContext) Fields() mesh.FieldSource   { return c.fields }
func (c *SegmentContext) Accumulate(contrib []float64) {
	if c.accum != nil {
		c.accum.Add(c.elem, contrib)
	}
}

// ChangeRayStartDirection redirects the ray from a point inside the
// current element (spec §4.G: forbidden twice in one segment, on a ray
// whose end point was set, or on a not-to-continue ray — ray.Ray
// itself enforces those and returns the error here).
func (c *SegmentContext) ChangeRayStartDirection(newDir [3]float64) error {
	return c.r.ChangeRayStartDirection(ray.NewChangeStartDirectionKey(), newDir)
}

// SetShouldContinue stops the ray. Only false is ever meaningful here;
// ray.Ray panics if a hook attempts to re-arm it.
func (c *SegmentContext) SetShouldContinue(v bool) { c.r.SetShouldContinue(v) }

// BoundaryContext is the capability object threaded into BoundaryHook
// calls.
type BoundaryContext struct {
	r             *ray.Ray
	elem          mesh.Element
	side          int
	extrema       interface{} // geom.Extrema, kept as interface{} to avoid an import cycle with tracer's re-export
	point         [3]float64
	boundaryID    int
	numApplying   int
	acquireChild  func() (*ray.Ray, bool)
	moveToBuffer  func(*ray.Ray)
}

// NewBoundaryContext is called only by package tracer.
func NewBoundaryContext(r *ray.Ray, elem mesh.Element, side int, extrema interface{}, point [3]float64, boundaryID, numApplying int, acquireChild func() (*ray.Ray, bool), moveToBuffer func(*ray.Ray)) *BoundaryContext {
	return &BoundaryContext{r: r, elem: elem, side: side, extrema: extrema, point: point, boundaryID: boundaryID, numApplying: numApplying, acquireChild: acquireChild, moveToBuffer: moveToBuffer}
}

func (c *BoundaryContext) Direction() [3]float64 { return c.r.Direction() }
func (c *BoundaryContext) RayID() int64          { return c.r.ID() }
func (c *BoundaryContext) Elem() mesh.Element    { return c.elem }
func (c *BoundaryContext) Side() int             { return c.side }
func (c *BoundaryContext) Extrema() interface{}  { return c.extrema }
func (c *BoundaryContext) Point() [3]float64     { return c.point }
func (c *BoundaryContext) BoundaryID() int       { return c.boundaryID }
func (c *BoundaryContext) NumApplying() int      { return c.numApplying }
func (c *BoundaryContext) Data() []float64       { return c.r.Data() }
func (c *BoundaryContext) AuxData() []float64    { return c.r.AuxData() }

// ChangeRayDirection redirects the ray at the boundary hit. The tracer
// is responsible for verifying the new direction is incoming on the
// intersected side after the hook returns (spec §4.G).
func (c *BoundaryContext) ChangeRayDirection(newDir [3]float64) error {
	return c.r.ChangeRayDirection(ray.NewChangeDirectionKey(), newDir)
}

func (c *BoundaryContext) SetShouldContinue(v bool) { c.r.SetShouldContinue(v) }

// AcquireChildRay pulls a fresh ray from the per-rank pool, for hooks
// that spawn child rays (e.g. a reflecting/refracting boundary).
func (c *BoundaryContext) AcquireChildRay() (*ray.Ray, bool) {
	if c.acquireChild == nil {
		return nil, false
	}
	return c.acquireChild()
}

// MoveToBuffer enqueues a ray (typically a child acquired above) onto
// the work buffer for later tracing.
func (c *BoundaryContext) MoveToBuffer(child *ray.Ray) {
	if c.moveToBuffer != nil {
		c.moveToBuffer(child)
	}
}
