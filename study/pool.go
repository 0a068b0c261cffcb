// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package study

import (
	"sync"

	"github.com/cpmech/raytracing/ray"
)

// Pool is the per-rank (or per-thread, if a harness wants one pool per
// worker) ray allocator described by spec §4.E's "acquire*Ray family"
// and design note "Per-process state": unique ids are drawn from a
// monotonically increasing counter strided by nProcs*nThreads so two
// threads on two ranks never collide; replicated ids use a separate
// counter the caller is responsible for incrementing in lockstep
// across ranks (e.g. a deterministic generator loop run identically on
// every rank).
type Pool struct {
	study *Study

	mu             sync.Mutex
	rank, nThreads int
	stride         int64
	phase          int64
	nextUnique     int64
	nextReplicated int64
}

// NewPool builds a ray pool for one rank of an nProcs x nThreads run.
// threadID selects this pool's phase within the stride so every
// (rank, thread) pair draws a disjoint unique-id sequence.
func NewPool(study *Study, rank, nProcs, nThreads, threadID int) *Pool {
	stride := int64(nProcs * nThreads)
	if stride < 1 {
		stride = 1
	}
	phase := int64(rank*nThreads + threadID)
	return &Pool{study: study, rank: rank, nThreads: nThreads, stride: stride, phase: phase, nextUnique: phase}
}

func (p *Pool) newRay(id int64) *ray.Ray {
	return ray.NewRay(ray.NewConstructKey(), id, p.study.NData(), p.study.NAuxData())
}

// AcquireUniqueRay draws the next private, globally-unique id for this
// (rank, thread).
func (p *Pool) AcquireUniqueRay() *ray.Ray {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextUnique
	p.nextUnique += p.stride
	return p.newRay(id)
}

// AcquireReplicatedRay draws the next id from the replicated counter,
// shared in lockstep by every rank's generator loop (the caller must
// ensure every rank calls this the same number of times, in the same
// order, for the ids to line up across ranks).
func (p *Pool) AcquireReplicatedRay() *ray.Ray {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextReplicated
	p.nextReplicated++
	return p.newRay(id)
}

// AcquireRegisteredRay allocates a ray the caller wants to address by a
// specific id it controls (spec §3 "registered" allocation scheme,
// used when the generator maintains its own externally-visible id
// space rather than this pool's counters).
func (p *Pool) AcquireRegisteredRay(id int64) *ray.Ray {
	return p.newRay(id)
}

// AcquireCopiedRay returns a ray with the same starting state and data
// as src but a fresh id and zeroed counters (spec §8 "Copy-acquire"
// round-trip law).
func (p *Pool) AcquireCopiedRay(src *ray.Ray, newID int64) *ray.Ray {
	r := p.newRay(newID)
	if err := r.SetStart(src.CurrentPoint()); err != nil {
		panic(err) // fresh ray, cannot have started yet
	}
	if d := src.Direction(); d != ([3]float64{}) {
		_ = r.SetStartingDirection(d)
	}
	if src.EndSet() {
		_ = r.SetStartingEndPoint(src.EndPoint())
	} else {
		_ = r.SetStartingMaxDistance(src.MaxDistance())
	}
	if elem := src.CurrentElem(); elem != nil {
		_ = r.SetStartingElem(elem, src.CurrentIncomingSide())
	}
	copy(r.Data(), src.Data())
	copy(r.AuxData(), src.AuxData())
	return r
}

// ResetCounters returns both id counters to their construction state,
// for reproducible repeated runs (design note "Per-process state": "the
// implementer must provide a reset call invoked between runs").
func (p *Pool) ResetCounters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextUnique = p.phase
	p.nextReplicated = 0
}
