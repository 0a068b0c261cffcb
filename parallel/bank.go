// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"fmt"
	"sync"

	"github.com/cpmech/raytracing/ray"
)

// Bank is the append-only store of completed rays on this rank (spec
// §8 invariant 7: no other rank's bank may contain an entry with the
// same ray id). Mutex-guarded rather than channel-fed because the
// worker pool deposits into it from many goroutines but nothing ever
// needs to block waiting for a deposit; readers (the Scenario 4 checks,
// the cmd/raytrace demo) only run after the executor has already
// reported quiescence.
type Bank struct {
	mu    sync.Mutex
	rays  map[int64]*ray.Ray
	order []int64
}

// NewBank returns an empty bank.
func NewBank() *Bank {
	return &Bank{rays: make(map[int64]*ray.Ray)}
}

// Deposit records a completed ray. Depositing the same id twice is a
// contract violation on the depositing rank's own bank (it would mean
// the same ray was traced to completion more than once locally) and
// panics rather than silently overwriting, matching the kernel-facing
// panic style used for other invariant violations in this tree.
func (b *Bank) Deposit(r *ray.Ray) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.rays[r.ID()]; exists {
		panic(fmt.Sprintf("bank: ray %d deposited twice on the same rank", r.ID()))
	}
	b.rays[r.ID()] = r
	b.order = append(b.order, r.ID())
}

// Get returns the completed ray for id, if present.
func (b *Bank) Get(id int64) (*ray.Ray, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rays[id]
	return r, ok
}

// Len reports how many rays this bank holds.
func (b *Bank) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rays)
}

// All returns a snapshot of every completed ray, in deposit order.
func (b *Bank) All() []*ray.Ray {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*ray.Ray, len(b.order))
	for i, id := range b.order {
		out[i] = b.rays[id]
	}
	return out
}
