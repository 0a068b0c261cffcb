// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rterrors defines the error taxonomy used across the ray-tracing
// core: contract violations (programmer errors, always panics), setup-time
// configuration errors, runtime geometric failures, and claim failures.
package rterrors

import "fmt"

// ContractViolation marks a programmer error. Package tracer returns one
// in its Result.Err when an external boundary hook neither kills nor
// redirects the ray; Panic below raises one as a panic instead. Other
// contract failures use other shapes: package ray's mutators return plain
// errors (SetShouldContinue panics), and package study reports a
// registration after InitialSetup as a ConfigError.
type ContractViolation struct {
	Op      string // operation that was attempted, e.g. "changeRayDirection"
	Reason  string // why it is forbidden
	RayInfo string // Ray.Info() snapshot at the time of violation
}

func (e ContractViolation) Error() string {
	return fmt.Sprintf("contract violation in %s: %s\n%s", e.Op, e.Reason, e.RayInfo)
}

// Panic raises a ContractViolation. Call sites use this instead of a bare
// panic so every contract failure carries the same shape.
func Panic(op, reason, rayInfo string) {
	panic(ContractViolation{Op: op, Reason: reason, RayInfo: rayInfo})
}

// ConfigError marks a coverage/configuration problem detected during
// Study.InitialSetup (or MeshChanged), never during propagation.
type ConfigError struct {
	Stage  string // e.g. "coverage check", "dependency check"
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

// GeometricFailure marks a runtime tracing failure: no exit found, empty
// neighbor set at a valid point, missing internal sideset. Carries enough
// state to reproduce the failing step.
type GeometricFailure struct {
	Reason     string
	RayID      int64
	Subdomain  int
	ElemID     int
	LastPoint  [3]float64
	Tolerant   bool // true if the study is configured to warn-and-terminate
}

func (e GeometricFailure) Error() string {
	return fmt.Sprintf("geometric failure: %s (ray=%d subdomain=%d elem=%d last_point=%v tolerant=%v)",
		e.Reason, e.RayID, e.Subdomain, e.ElemID, e.LastPoint, e.Tolerant)
}

// ClaimFailure marks an unclaimed or multiply-claimed ray at generator
// exchange time. Always fatal, regardless of tolerant mode.
type ClaimFailure struct {
	RayID   int64
	Reason  string // "unclaimed" or "multiply-claimed"
	Ranks   []int  // ranks that claimed it, for the multiply-claimed case
}

func (e ClaimFailure) Error() string {
	return fmt.Sprintf("claim failure for ray %d: %s %v", e.RayID, e.Reason, e.Ranks)
}
