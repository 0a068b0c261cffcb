// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"context"
	"sync"
	"time"

	"github.com/cpmech/raytracing/ray"
	channerics "github.com/niceyeti/channerics/channels"
)

// pollInterval bounds how stale a missed doorbell signal can leave a
// worker idle (the doorbell channel is capacity 1, so a Push that
// lands while the channel is already full relies on this fallback).
const pollInterval = 2 * time.Millisecond

// WorkItem pairs a ray with the local element id it currently sits in,
// the unit this rank's worker pool pulls from the buffer and hands to
// a tracer.
type WorkItem struct {
	Ray    *ray.Ray
	ElemID int
}

// WorkBuffer is the per-rank LIFO queue of claimed, not-yet-traced
// rays (spec §4.F: newly added work, whether locally generated or
// handed off from another rank, is worked depth-first so a rank
// finishes threads of work before starting new ones). It doubles as
// the wake-up source for idle workers via a doorbell channel consumed
// through channerics, the same "done-channel fan-in" idiom used
// elsewhere in this tree for cancellation-aware channel composition.
type WorkBuffer struct {
	mu       sync.Mutex
	items    []WorkItem
	doorbell chan struct{}
}

// NewWorkBuffer returns an empty buffer.
func NewWorkBuffer() *WorkBuffer {
	return &WorkBuffer{doorbell: make(chan struct{}, 1)}
}

// Push adds an item to the top of the stack and rings the doorbell.
func (b *WorkBuffer) Push(item WorkItem) {
	b.mu.Lock()
	b.items = append(b.items, item)
	b.mu.Unlock()
	select {
	case b.doorbell <- struct{}{}:
	default:
	}
}

// Pop removes and returns the most recently pushed item, or ok=false
// if the buffer is empty.
func (b *WorkBuffer) Pop() (WorkItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.items)
	if n == 0 {
		return WorkItem{}, false
	}
	item := b.items[n-1]
	b.items = b.items[:n-1]
	return item, true
}

// Len reports the current depth.
func (b *WorkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Drain blocks a worker until either an item is available (returned
// immediately) or ctx is done. It ranges a channerics ticker merged
// with the doorbell so a worker re-checks the buffer periodically even
// if a doorbell send was missed due to the buffered channel already
// being full.
func (b *WorkBuffer) Drain(ctx context.Context) (WorkItem, bool) {
	if item, ok := b.Pop(); ok {
		return item, true
	}
	done := ctx.Done()
	ticks := channerics.NewTicker(done, pollInterval)
	for {
		select {
		case <-done:
			return WorkItem{}, false
		case <-b.doorbell:
		case <-ticks:
		}
		if item, ok := b.Pop(); ok {
			return item, true
		}
	}
}
