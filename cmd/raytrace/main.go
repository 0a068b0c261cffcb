// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command raytrace is a thin example harness for the ray-tracing core:
// it wires a Study, a single-rank Executor, and a demo length-integral
// hook over the in-memory two-segment fixture, fires one ray end to
// end, and prints the resulting counters. It exists to give the core a
// runnable entry point, not to be a general simulation driver — mesh
// construction and input-file parsing stay out of this module's scope
// and are the responsibility of whatever mesh/library a real embedder
// supplies.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/utl"

	"github.com/cpmech/raytracing/hook"
	"github.com/cpmech/raytracing/mesh"
	"github.com/cpmech/raytracing/parallel"
	"github.com/cpmech/raytracing/rtlog"
	"github.com/cpmech/raytracing/study"
)

func main() {
	defer func() {
		if mpi.Rank() == 0 {
			if err := recover(); err != nil {
				io.PfRed("ERROR: %v\n", err)
				os.Exit(1)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	startX := flag.Float64("start", 0.1, "starting x coordinate of the demo ray, in (0, 1)")
	flag.Parse()
	if *startX <= 0 || *startX >= 1 {
		utl.Panic("start must be strictly between 0 and 1, got %v", *startX)
	}

	utl.PfWhite("\nraytracing -- a ray-tracing core for unstructured FE meshes\n\n")
	io.Pf("running spec scenario 1: a ray traversing a two-segment 1D strip\n")
	io.Pf("from x=%.3f to the x=1 boundary, where it is killed.\n\n", *startX)

	log := rtlog.New(0, nil)
	run(log, *startX)
}

func run(log *rtlog.Logger, startX float64) {
	m := mesh.Build1DTwoSegments()
	elems := map[int]mesh.Element{0: m.Element(0), 1: m.Element(1)}
	all := []mesh.Element{elems[0], elems[1]}

	s := study.New(study.Config{}, log)
	s.SetElements(all)

	lengthIdx, err := s.RegisterRayData("total_length")
	if err != nil {
		utl.Panic("%v", err)
	}
	s.RegisterSegmentHook(0, "length", &hook.IntegralKernel{
		DataIdx: lengthIdx,
		F:       func(*hook.SegmentContext) float64 { return 1 },
	})
	s.RegisterBoundaryHook(2, "kill", hook.KillingBC{})

	if err := s.InitialSetup(); err != nil {
		utl.Panic("setup failed: %v", err)
	}

	transport := parallel.NewStubNetwork(1)[0]
	exec := parallel.NewExecutor(0, transport, s, nil, nil, elems, 1, log)

	pool := study.NewPool(s, 0, 1, 1, 0)
	r := pool.AcquireUniqueRay()
	if err := r.SetStart([3]float64{startX, 0, 0}); err != nil {
		utl.Panic("%v", err)
	}
	if err := r.SetStartingDirection([3]float64{1, 0, 0}); err != nil {
		utl.Panic("%v", err)
	}
	if err := r.SetStartingElem(elems[0], -1); err != nil {
		utl.Panic("%v", err)
	}
	exec.Submit(r, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.Run(ctx); err != nil {
		utl.Panic("run failed: %v", err)
	}

	banked, ok := exec.Bank().Get(r.ID())
	if !ok {
		utl.Panic("ray %d never completed", r.ID())
	}

	io.Pfgreen("ray %d completed:\n", banked.ID())
	io.Pf("  intersections:       %d\n", banked.Intersections())
	io.Pf("  processor crossings: %d\n", banked.ProcessorCrossings())
	io.Pf("  distance traveled:   %.6f\n", banked.Distance())
	io.Pf("  total_length datum:  %.6f\n", banked.Data()[lengthIdx])

	c := s.Counters()
	io.Pf("\nstudy counters: rays_completed=%d total_intersections=%d total_distance=%.6f\n",
		c.RaysCompleted, c.TotalIntersections, c.TotalDistance)
}
