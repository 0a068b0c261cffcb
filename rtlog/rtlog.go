// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rtlog provides rank-tagged console logging for the ray-tracing
// core, in the same colored-console style gofem's fem/inp packages use
// (github.com/cpmech/gosl/io's Pf family), plus a plain *log.Logger sink
// for anything a harness wants written to a per-rank file.
package rtlog

import (
	"log"
	"os"

	"github.com/cpmech/gosl/io"
)

// Logger writes rank-tagged messages to the console and, optionally, to a
// file. The harness creates one Logger per rank and passes it to the
// study and executor.
type Logger struct {
	Rank   int
	File   *log.Logger // nil if no file sink was configured
	Silent bool        // when true, console output is suppressed (used in tests)
}

// New returns a Logger for the given rank. w, if non-nil, receives a
// plain-text copy of every message (e.g. a per-rank log file).
func New(rank int, w *os.File) *Logger {
	l := &Logger{Rank: rank}
	if w != nil {
		l.File = log.New(w, "", log.LstdFlags)
	}
	return l
}

func (l *Logger) prefix() string {
	return io.Sf("[rank %d] ", l.Rank)
}

// Infof prints an informational message in the default color.
func (l *Logger) Infof(format string, a ...interface{}) {
	if !l.Silent {
		io.Pf(l.prefix()+format, a...)
	}
	if l.File != nil {
		l.File.Printf(format, a...)
	}
}

// Warnf prints a warning in yellow, per gofem's io.Pfyel convention.
func (l *Logger) Warnf(format string, a ...interface{}) {
	if !l.Silent {
		io.Pfyel(l.prefix()+"WARNING: "+format, a...)
	}
	if l.File != nil {
		l.File.Printf("WARNING: "+format, a...)
	}
}

// Errorf prints an error in red/magenta, per gofem's io.Pfred / utl.PfMag
// convention in errorhandler.go.
func (l *Logger) Errorf(format string, a ...interface{}) {
	if !l.Silent {
		io.Pfred(l.prefix()+"ERROR: "+format, a...)
	}
	if l.File != nil {
		l.File.Printf("ERROR: "+format, a...)
	}
}
