// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parallel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/raytracing/ray"
)

func TestWorkBuffer_pushPopIsLIFO(t *testing.T) {
	b := NewWorkBuffer()
	r1 := ray.NewRay(ray.NewConstructKey(), 1, 0, 0)
	r2 := ray.NewRay(ray.NewConstructKey(), 2, 0, 0)
	b.Push(WorkItem{Ray: r1, ElemID: 1})
	b.Push(WorkItem{Ray: r2, ElemID: 2})
	assert.Equal(t, 2, b.Len())

	item, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(2), item.Ray.ID())

	item, ok = b.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(1), item.Ray.ID())

	_, ok = b.Pop()
	assert.False(t, ok)
}

func TestWorkBuffer_drainBlocksUntilPush(t *testing.T) {
	b := NewWorkBuffer()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan WorkItem, 1)
	go func() {
		item, ok := b.Drain(ctx)
		if ok {
			done <- item
		}
	}()

	time.Sleep(10 * time.Millisecond)
	r := ray.NewRay(ray.NewConstructKey(), 5, 0, 0)
	b.Push(WorkItem{Ray: r, ElemID: 1})

	select {
	case item := <-done:
		assert.Equal(t, int64(5), item.Ray.ID())
	case <-time.After(time.Second):
		t.Fatal("Drain did not wake on Push")
	}
}

func TestWorkBuffer_drainReturnsFalseOnCancel(t *testing.T) {
	b := NewWorkBuffer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := b.Drain(ctx)
	assert.False(t, ok)
}
