package evaluator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plasmaforge/fusor/internal/physics"
)

func TestEvaluateHitAndMiss(t *testing.T) {
	ev := New(8)
	pt := physics.Defaults()

	first, err := ev.Evaluate(pt)
	require.NoError(t, err)
	second, err := ev.Evaluate(pt)
	require.NoError(t, err)

	st := ev.Stats()
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, 1, st.Size)
	assert.Equal(t, len(first), len(second))
}

func TestEvaluateReturnsOwnedMap(t *testing.T) {
	ev := New(8)
	pt := physics.Defaults()

	first, err := ev.Evaluate(pt)
	require.NoError(t, err)
	first[physics.KeyPfus] = -1 // caller scribbles on its copy

	second, err := ev.Evaluate(pt)
	require.NoError(t, err)
	assert.NotEqual(t, -1.0, second[physics.KeyPfus], "cached entry must not share storage with callers")
}

func TestEviction(t *testing.T) {
	ev := New(2)
	base := physics.Defaults()

	for _, bt := range []float64{9.0, 10.0, 11.0} {
		pt, err := base.With(physics.Overrides{"Bt": bt})
		require.NoError(t, err)
		_, err = ev.Evaluate(pt)
		require.NoError(t, err)
	}

	st := ev.Stats()
	assert.Equal(t, uint64(3), st.Misses)
	assert.Equal(t, uint64(1), st.Evictions)
	assert.Equal(t, 2, st.Size)

	// The oldest point (Bt=9) was evicted; re-evaluating it misses again.
	pt, err := base.With(physics.Overrides{"Bt": 9.0})
	require.NoError(t, err)
	_, err = ev.Evaluate(pt)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), ev.Stats().Misses)
}

func TestLRUTouchOnHit(t *testing.T) {
	ev := New(2)
	base := physics.Defaults()

	ptA, _ := base.With(physics.Overrides{"Bt": 9.0})
	ptB, _ := base.With(physics.Overrides{"Bt": 10.0})
	ptC, _ := base.With(physics.Overrides{"Bt": 11.0})

	_, err := ev.Evaluate(ptA)
	require.NoError(t, err)
	_, err = ev.Evaluate(ptB)
	require.NoError(t, err)
	// Touch A so B becomes the eviction candidate.
	_, err = ev.Evaluate(ptA)
	require.NoError(t, err)
	_, err = ev.Evaluate(ptC)
	require.NoError(t, err)

	// A must still be cached.
	before := ev.Stats().Hits
	_, err = ev.Evaluate(ptA)
	require.NoError(t, err)
	assert.Equal(t, before+1, ev.Stats().Hits)
}

func TestZeroCapacityDisablesCache(t *testing.T) {
	ev := New(0)
	pt := physics.Defaults()

	for i := 0; i < 3; i++ {
		_, err := ev.Evaluate(pt)
		require.NoError(t, err)
	}
	st := ev.Stats()
	assert.Equal(t, uint64(0), st.Hits)
	assert.Equal(t, uint64(0), st.Misses)
	assert.Equal(t, 0, st.Size)
}

func TestCachedMatchesUncached(t *testing.T) {
	cached := New(8)
	uncached := New(0)
	pt := physics.Defaults()

	// Warm the cache, then compare a hit against a fresh computation.
	_, err := cached.Evaluate(pt)
	require.NoError(t, err)
	a, err := cached.Evaluate(pt)
	require.NoError(t, err)
	b, err := uncached.Evaluate(pt)
	require.NoError(t, err)

	require.Equal(t, len(b), len(a))
	for k, vb := range b {
		va := a[k]
		if vb != vb { // NaN
			assert.NotEqual(t, va, va, "key %q: cached value should also be NaN", k)
			continue
		}
		assert.Equal(t, vb, va, "key %q differs between cached and uncached", k)
	}
}

func TestNegativeCapacityUsesDefault(t *testing.T) {
	ev := New(-1)
	assert.Equal(t, DefaultCacheSize, ev.capacity)
}

func TestErrorsAreNotCached(t *testing.T) {
	ev := New(8)
	bad, err := physics.Defaults().With(physics.Overrides{"Bt": 0})
	require.NoError(t, err)

	_, err = ev.Evaluate(bad)
	require.Error(t, err)
	assert.Equal(t, 0, ev.Stats().Size)
}

func TestConcurrentAccess(t *testing.T) {
	ev := New(16)
	base := physics.Defaults()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				pt, err := base.With(physics.Overrides{"Ti": 10 + float64(i%4)})
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := ev.Evaluate(pt); err != nil {
					t.Error(err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	st := ev.Stats()
	assert.Equal(t, 4, st.Size, "four distinct points were evaluated")
	assert.Equal(t, uint64(160), st.Hits+st.Misses)
}
