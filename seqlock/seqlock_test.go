package seqlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWindowParity(t *testing.T) {
	var v Version
	assert.EqualValues(t, 0, v.Load())
	v.BeginWrite()
	assert.EqualValues(t, 1, v.Load(), "version should be odd inside a write window")
	v.EndWrite()
	assert.EqualValues(t, 2, v.Load(), "version should be even after the window closes")
	v.Write(func() {
		assert.EqualValues(t, 3, v.Load())
	})
	assert.EqualValues(t, 4, v.Load())
}

func TestReadCopiesStableState(t *testing.T) {
	var v Version
	value := 0
	var r Reader
	v.Write(func() { value = 42 })
	var got int
	ok := r.Read(&v, func() { got = value })
	require.True(t, ok)
	assert.Equal(t, 42, got)
	assert.EqualValues(t, 1, r.Attempts)
	assert.EqualValues(t, 0, r.Aborts)
}

func TestReadAbandonsDuringWrite(t *testing.T) {
	var v Version
	v.BeginWrite() // writer stalls mid-window
	r := Reader{Budget: 3}
	copied := false
	ok := r.Read(&v, func() { copied = true })
	assert.False(t, ok)
	assert.False(t, copied, "copy must not run while the version is odd")
	assert.EqualValues(t, 3, r.Attempts)
	assert.EqualValues(t, 1, r.Aborts)
	v.EndWrite()
	ok = r.Read(&v, func() { copied = true })
	assert.True(t, ok)
	assert.True(t, copied)
}

func TestDefaultBudget(t *testing.T) {
	var v Version
	v.BeginWrite()
	var r Reader // zero budget falls back to the default
	ok := r.Read(&v, func() {})
	assert.False(t, ok)
	assert.EqualValues(t, DefaultRetryBudget, r.Attempts)
}

// TestConcurrentReaderNeverTears hammers one writer against one reader and
// checks that every successful read observed a state from exactly one write:
// the two fields are written together, so b must always equal 2*a.
func TestConcurrentReaderNeverTears(t *testing.T) {
	var v Version
	var a, b int
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			v.Write(func() {
				a = i
				b = 2 * i
			})
		}
	}()
	r := Reader{Budget: 10}
	good := 0
	for i := 0; i < 100000; i++ {
		var ca, cb int
		if r.Read(&v, func() { ca, cb = a, b }) {
			good++
			if cb != 2*ca {
				t.Fatalf("torn read: a=%d b=%d", ca, cb)
			}
		}
	}
	close(done)
	wg.Wait()
	assert.Positive(t, good, "at least some reads should succeed")
}
