// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/ray"
	"github.com/cpmech/raytracing/rtlog"
	"github.com/cpmech/raytracing/tracer"
	"golang.org/x/sync/errgroup"
)

const handoffTag = 1

// Executor drives one rank's worker pool against a WorkBuffer, flushes
// handed-off rays to their destination ranks over a Transport, and
// detects global termination via an all-reduce over per-rank
// outstanding-work flags (spec §4.F). One Tracer is constructed per
// worker, matching spec §5's "N tracer instances, one per thread".
type Executor struct {
	rank      int
	transport Transport
	buffer    *WorkBuffer
	bank      *Bank
	elems     map[int]mesh.Element
	tracers   []*tracer.Tracer
	log       *rtlog.Logger

	outstanding int64 // atomic: rays currently owned by this rank (buffered or in flight)
	recorder    rayRecorder // non-nil when hooks also owns the study-wide counters
}

// rayRecorder is the optional counter-folding half of tracer.HookSource
// (spec §4.E's Counters live on *study.Study, which this package never
// imports directly — Executor only needs tracer.HookSource to build its
// tracers, so the counter hook is recovered with a type assertion
// rather than widening that interface for every other HookSource
// implementation, including the ones in this package's own tests).
type rayRecorder interface {
	RecordCompletedRay(crossings, intersections, trajChanges int, distance float64)
}

// NewExecutor builds an executor with nWorkers tracers sharing hooks,
// fields, and accum, addressing local elements through elems (global
// element id -> local mesh.Element, used to resolve incoming wire
// payloads and to look up handoff destinations).
func NewExecutor(rank int, transport Transport, hooks tracer.HookSource, fields mesh.FieldSource, accum mesh.Accumulator, elems map[int]mesh.Element, nWorkers int, log *rtlog.Logger) *Executor {
	tracers := make([]*tracer.Tracer, nWorkers)
	for i := range tracers {
		tracers[i] = tracer.New(i, rank, hooks, fields, accum, log)
	}
	rec, _ := hooks.(rayRecorder)
	return &Executor{
		rank:      rank,
		transport: transport,
		buffer:    NewWorkBuffer(),
		bank:      NewBank(),
		elems:     elems,
		tracers:   tracers,
		log:       log,
		recorder:  rec,
	}
}

// Bank returns the rank's completed-ray store.
func (e *Executor) Bank() *Bank { return e.bank }

// Submit adds a locally owned ray to the work buffer (spec §4.F
// "move-to-buffer is legal only during generation... or during tracing
// from inside a hook").
func (e *Executor) Submit(r *ray.Ray, elemID int) {
	atomic.AddInt64(&e.outstanding, 1)
	e.buffer.Push(WorkItem{Ray: r, ElemID: elemID})
}

// Run drains the buffer with nWorkers goroutines until global
// termination is detected, then returns. Each worker traces one ray at
// a time; on OutcomeHandoff it increments processor_crossings (already
// done by the tracer), packs the ray, and sends it to the destination
// rank with Transport.Send from the worker goroutine itself; there is
// no separate sender goroutine, so a Transport whose Send blocks also
// blocks that worker. A receiver goroutine unpacks inbound rays and resubmits
// them locally. Termination is declared once an all-reduce max over
// "do I have outstanding work" across every rank returns 0.
func (e *Executor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	recvDone := make(chan struct{})

	g.Go(func() error { return e.receiveLoop(ctx, recvDone) })

	for _, t := range e.tracers {
		t := t
		g.Go(func() error { return e.workerLoop(ctx, t) })
	}

	// terminationLoop returning nil means quiescence was detected, not
	// an error; errgroup only cancels its context on a non-nil return,
	// so cancel explicitly to release workerLoop/receiveLoop from their
	// ctx.Done() wait once the run is actually finished.
	g.Go(func() error {
		err := e.terminationLoop(ctx, recvDone)
		cancel()
		return err
	})

	return g.Wait()
}

func (e *Executor) workerLoop(ctx context.Context, t *tracer.Tracer) error {
	for {
		item, ok := e.buffer.Drain(ctx)
		if !ok {
			return nil
		}
		result := t.Trace(item.Ray)
		switch result.Outcome {
		case tracer.OutcomeCompleted:
			if e.recorder != nil {
				e.recorder.RecordCompletedRay(item.Ray.ProcessorCrossings(), item.Ray.Intersections(), item.Ray.TrajectoryChanges(), item.Ray.Distance())
			}
			e.bank.Deposit(item.Ray)
			atomic.AddInt64(&e.outstanding, -1)
		case tracer.OutcomeHandoff:
			buf := PackRay(item.Ray, int32(result.NextElemID))
			if err := e.transport.Send(result.HandoffRank, handoffTag, buf); err != nil {
				atomic.AddInt64(&e.outstanding, -1)
				return err
			}
			atomic.AddInt64(&e.outstanding, -1)
		case tracer.OutcomeFailed:
			atomic.AddInt64(&e.outstanding, -1)
			return result.Err
		}
	}
}

// receiveLoop unpacks inbound handed-off rays and resubmits them to
// this rank's own work buffer. It runs until ctx is cancelled and
// closes recvDone on return; terminationLoop receives recvDone but does
// not read it, relying on Transport.PendingRecv for in-flight messages.
func (e *Executor) receiveLoop(ctx context.Context, recvDone chan<- struct{}) error {
	defer close(recvDone)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		source, buf, ok, err := e.transport.TryRecv(handoffTag)
		if err != nil {
			return err
		}
		if !ok {
			time.Sleep(pollInterval)
			continue
		}
		_ = source
		w, err := UnpackRay(buf)
		if err != nil {
			return err
		}
		r, err := NewRayFromWire(w, e.elems)
		if err != nil {
			return err
		}
		e.Submit(r, int(w.ElemID))
	}
}

// terminationLoop polls every pollInterval, contributing 1 while this
// rank still has outstanding work and 0 once it is idle, and returns
// once the cluster-wide max settles to 0 (spec §4.F termination: no
// rank has outstanding work and no message is in flight).
func (e *Executor) terminationLoop(ctx context.Context, recvDone <-chan struct{}) error {
	ticker := pollInterval
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		have := 0
		if atomic.LoadInt64(&e.outstanding) > 0 || e.buffer.Len() > 0 || e.transport.PendingRecv() > 0 {
			have = 1
		}
		total, err := e.transport.AllReduceMaxInt(have)
		if err != nil {
			return err
		}
		if total == 0 {
			return nil
		}
		time.Sleep(ticker)
	}
}
