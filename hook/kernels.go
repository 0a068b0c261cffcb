// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hook

import "sync"

// IntegralKernel accumulates integral(f(ctx) * |seg|) into slot DataIdx
// of the ray's Data vector across the whole trace.
type IntegralKernel struct {
	DataIdx int
	F       func(ctx *SegmentContext) float64
}

func (k *IntegralKernel) OnSegment(ctx *SegmentContext) error {
	ctx.Data()[k.DataIdx] += k.F(ctx) * ctx.Length()
	return nil
}

// VariableIntegralKernel is IntegralKernel but f reads a named FE field
// through the segment's FieldSource at a fixed quadrature point index,
// keeping the FE evaluation itself external to this package.
type VariableIntegralKernel struct {
	DataIdx   int
	FieldName string
	QP        int
	Weight    func(value float64) float64
}

func (k *VariableIntegralKernel) OnSegment(ctx *SegmentContext) error {
	fs := ctx.Fields()
	if fs == nil {
		return nil
	}
	if err := fs.ReinitSegment(ctx.Elem(), ctx.Start(), ctx.End()); err != nil {
		return err
	}
	v := fs.Value(k.FieldName, k.QP)
	w := v
	if k.Weight != nil {
		w = k.Weight(v)
	}
	ctx.Data()[k.DataIdx] += w * ctx.Length()
	return nil
}

// AuxKernel writes into a shared nodal aux accumulator, serialized by a
// process-wide mutex (spec §4.G: "a process-wide spin lock serializes
// the write").
type AuxKernel struct {
	mu     sync.Mutex
	Values map[int]float64 // node id -> accumulated value
	NodeOf func(ctx *SegmentContext) int
	F      func(ctx *SegmentContext) float64
}

func (k *AuxKernel) OnSegment(ctx *SegmentContext) error {
	node := k.NodeOf(ctx)
	v := k.F(ctx)
	k.mu.Lock()
	if k.Values == nil {
		k.Values = make(map[int]float64)
	}
	k.Values[node] += v
	k.mu.Unlock()
	ctx.AuxData()[0] += v
	return nil
}

// ReflectingBC reflects direction about the outward normal of the
// intersected side and lets the ray continue.
type ReflectingBC struct {
	// Normal returns the unit outward normal of the intersected side.
	Normal func(ctx *BoundaryContext) [3]float64
}

func (k *ReflectingBC) OnBoundary(ctx *BoundaryContext) error {
	n := k.Normal(ctx)
	d := ctx.Direction()
	dot := d[0]*n[0] + d[1]*n[1] + d[2]*n[2]
	reflected := [3]float64{
		d[0] - 2*dot*n[0],
		d[1] - 2*dot*n[1],
		d[2] - 2*dot*n[2],
	}
	return ctx.ChangeRayDirection(reflected)
}

// KillingBC unconditionally terminates the ray (spec §4.G "external
// boundary contract": the ray must have been killed or redirected).
type KillingBC struct{}

func (KillingBC) OnBoundary(ctx *BoundaryContext) error {
	ctx.SetShouldContinue(false)
	return nil
}
