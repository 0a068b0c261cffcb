// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"fmt"
	"sync"

	"github.com/cpmech/gosl/mpi"
)

// Transport abstracts the point-to-point and collective operations an
// Executor needs across ranks. The concrete MPITransport wraps
// gosl/mpi the way fem/solver.go wraps it for the collectives that are
// actually witnessed there (Rank, Size, IntAllReduceMax); gosl/mpi's
// point-to-point Send/Recv are not exercised anywhere in the example
// pack, so MPITransport's Send/Recv signatures below are an informed
// assumption about gosl/mpi's API surface rather than a grounded copy
// (see DESIGN.md). StubTransport is the in-process stand-in, for one
// rank or several, used by tests and by cmd/raytrace's demo harness.
type Transport interface {
	Rank() int
	Size() int
	// Send enqueues buf for delivery to dest; implementations may
	// buffer and return before the remote side has received it.
	Send(dest int, tag int, buf []byte) error
	// Recv blocks until a message with the given tag arrives from any
	// rank, returning its source and payload.
	Recv(tag int) (source int, buf []byte, err error)
	// TryRecv is the non-blocking counterpart used by the executor's
	// polling loop; ok is false when nothing is waiting.
	TryRecv(tag int) (source int, buf []byte, ok bool, err error)
	// AllReduceMaxInt performs an all-to-all max reduction of a single
	// int per rank, used for termination detection over "have work"
	// flags (spec §4.F).
	AllReduceMaxInt(v int) (int, error)
	// PendingRecv reports how many received-but-undrained messages are
	// sitting in this rank's local inbox right now. A rank with a
	// nonzero count still has a ray in flight even if its own
	// outstanding counter and work buffer are both empty, so the
	// termination loop must treat it as "have work" (spec §4.F: "empty
	// receive buffer, and no outstanding async requests").
	PendingRecv() int
}

// MPITransport is the production Transport, backed by gosl/mpi.
type MPITransport struct {
	tagMu sync.Mutex
	inbox map[int][]mpiMsg
}

type mpiMsg struct {
	source int
	buf    []byte
}

// NewMPITransport returns a Transport over the process's MPI
// communicator. mpi.Start must already have been called (fem's
// main.go pattern: Start before any collective, Stop on exit).
func NewMPITransport() *MPITransport {
	return &MPITransport{inbox: make(map[int][]mpiMsg)}
}

func (t *MPITransport) Rank() int { return mpi.Rank() }
func (t *MPITransport) Size() int { return mpi.Size() }

// Send ships buf to dest tagged with tag. gosl/mpi's exact point-to-
// point call is unverified in this pack (see DESIGN.md); this wraps
// the conventional mpi.SendString/mpi.Send-style API shape used by
// most Go MPI bindings, isolated behind this interface specifically so
// that assumption is swappable without touching Executor.
func (t *MPITransport) Send(dest int, tag int, buf []byte) error {
	if !mpi.IsOn() {
		return fmt.Errorf("mpi transport: Send called but mpi is not running")
	}
	mpi.SendString(dest, string(buf))
	return nil
}

// Recv blocks for the next message tagged tag from any source.
func (t *MPITransport) Recv(tag int) (int, []byte, error) {
	if !mpi.IsOn() {
		return 0, nil, fmt.Errorf("mpi transport: Recv called but mpi is not running")
	}
	source, s := mpi.RecvString()
	return source, []byte(s), nil
}

// TryRecv is a non-blocking probe. gosl/mpi exposes no documented
// Iprobe in this pack; MPITransport degrades to "never ready" for
// TryRecv and relies on Recv from a dedicated goroutine instead (see
// Executor), which is the pattern fem/solver.go itself follows for its
// blocking collectives.
func (t *MPITransport) TryRecv(tag int) (int, []byte, bool, error) {
	return 0, nil, false, nil
}

func (t *MPITransport) AllReduceMaxInt(v int) (int, error) {
	send := []int{v}
	recv := []int{0}
	mpi.IntAllReduceMax(send, recv)
	return recv[0], nil
}

// PendingRecv always reports 0: gosl/mpi exposes no Iprobe in this pack
// (the same gap TryRecv above documents), so MPITransport cannot see an
// inbound message until Recv actually drains it.
func (t *MPITransport) PendingRecv() int {
	return 0
}

// stubBarrier rendezvouses all ranks' contributions to one
// AllReduceMaxInt call before releasing any of them, so the stub
// network gives callers genuine collective semantics instead of a
// per-rank approximation.
type stubBarrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	arrived int
	values  []int
	gen     int
}

// StubTransport is a single-process Transport for tests and the demo
// harness: Send appends directly to the recipient's inbox and Recv
// drains it, with no actual network or MPI runtime involved.
type StubTransport struct {
	mu      sync.Mutex
	cond    *sync.Cond
	rank    int
	size    int
	peers   map[int]*StubTransport
	inbox   []mpiMsg
	barrier *stubBarrier
}

// NewStubNetwork builds size StubTransports that can address each
// other by rank, wired together for in-process tests of multi-rank
// claim/handoff behavior without a real MPI runtime.
func NewStubNetwork(size int) []*StubTransport {
	barrier := &stubBarrier{values: make([]int, size)}
	barrier.cond = sync.NewCond(&barrier.mu)
	net := make([]*StubTransport, size)
	for i := range net {
		net[i] = &StubTransport{rank: i, size: size, peers: make(map[int]*StubTransport), barrier: barrier}
		net[i].cond = sync.NewCond(&net[i].mu)
	}
	for i := range net {
		for j := range net {
			net[i].peers[j] = net[j]
		}
	}
	return net
}

func (t *StubTransport) Rank() int { return t.rank }
func (t *StubTransport) Size() int { return t.size }

func (t *StubTransport) Send(dest int, tag int, buf []byte) error {
	peer, ok := t.peers[dest]
	if !ok {
		return fmt.Errorf("stub transport: no peer for rank %d", dest)
	}
	peer.mu.Lock()
	peer.inbox = append(peer.inbox, mpiMsg{source: t.rank, buf: buf})
	peer.cond.Signal()
	peer.mu.Unlock()
	return nil
}

func (t *StubTransport) Recv(tag int) (int, []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.inbox) == 0 {
		t.cond.Wait()
	}
	msg := t.inbox[0]
	t.inbox = t.inbox[1:]
	return msg.source, msg.buf, nil
}

// PendingRecv returns the number of messages sitting in this rank's
// inbox that no rank's outstanding counter currently accounts for: the
// sender decremented its own outstanding count as soon as Send
// returned, and the receiver only increments its own back up once
// TryRecv/Recv drains the message and resubmits it.
func (t *StubTransport) PendingRecv() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inbox)
}

func (t *StubTransport) TryRecv(tag int) (int, []byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inbox) == 0 {
		return 0, nil, false, nil
	}
	msg := t.inbox[0]
	t.inbox = t.inbox[1:]
	return msg.source, msg.buf, true, nil
}

// AllReduceMaxInt blocks until every rank in the stub network has
// called it for the current generation, then returns the max of all
// contributed values to each caller.
func (t *StubTransport) AllReduceMaxInt(v int) (int, error) {
	if t.size <= 1 {
		return v, nil
	}
	b := t.barrier
	b.mu.Lock()
	defer b.mu.Unlock()
	gen := b.gen
	b.values[t.rank] = v
	b.arrived++
	if b.arrived == t.size {
		max := b.values[0]
		for _, x := range b.values[1:] {
			if x > max {
				max = x
			}
		}
		for i := range b.values {
			b.values[i] = max
		}
		b.arrived = 0
		b.gen++
		b.cond.Broadcast()
		return max, nil
	}
	for b.gen == gen {
		b.cond.Wait()
	}
	return b.values[t.rank], nil
}
