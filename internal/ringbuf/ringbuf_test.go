package ringbuf

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingPushPop(t *testing.T) {
	r := New[int](4)

	for i := 0; i < 4; i++ {
		require.True(t, r.Push(i))
	}
	assert.False(t, r.Push(99), "push into full ring must fail")
	assert.Equal(t, uint64(1), r.Overflow())

	for i := 0; i < 4; i++ {
		v, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := r.Pop()
	assert.False(t, ok, "pop from empty ring must fail")
}

func TestRingCapacityRoundsToPowerOfTwo(t *testing.T) {
	assert.Equal(t, 8, New[int](5).Cap())
	assert.Equal(t, 2, New[int](0).Cap())
}

func TestRingSPSC(t *testing.T) {
	const n = 10_000
	r := New[int](1024)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !r.Push(i) {
			}
		}
	}()

	got := 0
	for got < n {
		v, ok := r.Pop()
		if !ok {
			continue
		}
		require.Equal(t, got, v, "values must arrive in order")
		got++
	}
	wg.Wait()
}

func TestWindowEviction(t *testing.T) {
	w := NewWindow[float64](3)

	_, full := w.Append(1)
	assert.False(t, full)
	w.Append(2)
	w.Append(3)
	require.True(t, w.Full())

	evicted, full := w.Append(4)
	require.True(t, full)
	assert.Equal(t, 1.0, evicted)
	assert.Equal(t, 2.0, w.At(0))
	assert.Equal(t, 4.0, w.Last())
}

func TestWindowDoOrder(t *testing.T) {
	w := NewWindow[int](3)
	for i := 1; i <= 5; i++ {
		w.Append(i)
	}
	var got []int
	w.Do(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{3, 4, 5}, got)
}
