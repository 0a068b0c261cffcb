// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/raytracing/ray"
)

func TestBank_depositAndGet(t *testing.T) {
	b := NewBank()
	r := ray.NewRay(ray.NewConstructKey(), 11, 0, 0)
	b.Deposit(r)

	got, ok := b.Get(11)
	require.True(t, ok)
	assert.Equal(t, r, got)
	assert.Equal(t, 1, b.Len())

	_, ok = b.Get(12)
	assert.False(t, ok)
}

func TestBank_depositTwicePanics(t *testing.T) {
	b := NewBank()
	r := ray.NewRay(ray.NewConstructKey(), 1, 0, 0)
	b.Deposit(r)
	assert.Panics(t, func() { b.Deposit(r) })
}

func TestBank_allPreservesDepositOrder(t *testing.T) {
	b := NewBank()
	r1 := ray.NewRay(ray.NewConstructKey(), 1, 0, 0)
	r2 := ray.NewRay(ray.NewConstructKey(), 2, 0, 0)
	b.Deposit(r1)
	b.Deposit(r2)
	all := b.All()
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID())
	assert.Equal(t, int64(2), all[1].ID())
}
