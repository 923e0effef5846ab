package check

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponse struct{ status int }

func (f fakeResponse) StatusCode() int { return f.status }

func TestStatusIsName(t *testing.T) {
	assert.Equal(t, "is status 200", StatusIs[fakeResponse](200).Name)
}

func TestCheckStatus200(t *testing.T) {
	reg := NewRegistry()
	rule := StatusIs[fakeResponse](200)

	assert.True(t, Check(reg, fakeResponse{status: 200}, rule))
	assert.NotPanics(t, func() {
		assert.False(t, Check(reg, fakeResponse{status: 500}, rule))
	})

	res, ok := reg.Get("is status 200")
	require.True(t, ok)
	assert.Equal(t, uint64(1), res.Passes)
	assert.Equal(t, uint64(1), res.Fails)
	assert.InDelta(t, 50.0, res.Rate(), 0.001)
}

func TestCheckEvaluatesEveryRule(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	rules := []Rule[int]{
		{Name: "positive", Fn: func(v int) bool { calls++; return v > 0 }},
		{Name: "even", Fn: func(v int) bool { calls++; return v%2 == 0 }},
	}

	assert.False(t, Check(reg, -2, rules...))
	assert.Equal(t, 2, calls)

	summary := reg.Summary()
	require.Len(t, summary, 2)
	assert.Equal(t, Result{Name: "even", Passes: 1}, summary[0])
	assert.Equal(t, Result{Name: "positive", Fails: 1}, summary[1])
}

func TestCheckNilRecorder(t *testing.T) {
	assert.True(t, Check(nil, fakeResponse{status: 200}, StatusIs[fakeResponse](200)))
}

func TestRegistryConcurrent(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				reg.Record("is status 200", (i+j)%2 == 0)
			}
		}(i)
	}
	wg.Wait()

	res, ok := reg.Get("is status 200")
	require.True(t, ok)
	assert.Equal(t, uint64(5000), res.Total())
	assert.Equal(t, uint64(2500), res.Passes)
}

func TestRegistryReset(t *testing.T) {
	reg := NewRegistry()
	reg.Record("a", true)
	reg.Reset()
	assert.Empty(t, reg.Summary())

	_, ok := reg.Get("a")
	assert.False(t, ok)
}

func TestResultRateEmpty(t *testing.T) {
	assert.Zero(t, Result{}.Rate())
}

func TestTee(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	rec := Tee(a, nil, b)
	rec.Record("x", true)

	for _, reg := range []*Registry{a, b} {
		res, ok := reg.Get("x")
		require.True(t, ok)
		assert.Equal(t, uint64(1), res.Passes)
	}
}
