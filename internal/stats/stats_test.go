package stats

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRequestCounters(t *testing.T) {
	s := NewStats()
	s.AddRequest(true, 100, 10*time.Millisecond)
	s.AddRequest(false, -1, 30*time.Millisecond)

	assert.Equal(t, uint64(2), s.Requests)
	assert.Equal(t, uint64(1), s.Success)
	assert.Equal(t, uint64(1), s.Fail)
	assert.Equal(t, uint64(100), s.Bytes)
	assert.InDelta(t, 50.0, s.ErrorRate(), 0.001)
	assert.InDelta(t, 30.0, s.GetP99Service(), 0.1)
	assert.InDelta(t, 10.0, s.GetP50Service(), 0.1)
}

func TestErrorRateEmpty(t *testing.T) {
	assert.Zero(t, NewStats().ErrorRate())
}

func TestAddIteration(t *testing.T) {
	s := NewStats()
	s.AddIteration(nil, 5*time.Millisecond, 0, 5*time.Millisecond)
	s.AddIteration(errors.New("connection refused"), time.Millisecond, 2*time.Millisecond, 3*time.Millisecond)
	s.AddIteration(errors.New("connection refused"), time.Millisecond, 0, time.Millisecond)
	s.AddIteration(errors.New("timeout"), time.Millisecond, 0, time.Millisecond)

	assert.Equal(t, uint64(4), s.Iterations)
	assert.Equal(t, uint64(3), s.IterationErrors)
	assert.Equal(t, map[string]uint64{"connection refused": 2, "timeout": 1}, s.GetErrorCounts())
	assert.Equal(t, []ErrorCount{
		{Message: "connection refused", Count: 2},
		{Message: "timeout", Count: 1},
	}, s.TopErrors())
	assert.Equal(t, int64(4), s.IterationTime.TotalCount())
	assert.InDelta(t, 0.5, s.QueueWaitAvgMs(), 0.01)
}

func TestReset(t *testing.T) {
	s := NewStats()
	s.AddRequest(true, 10, time.Millisecond)
	s.AddIteration(errors.New("x"), time.Millisecond, 0, time.Millisecond)
	s.Reset()

	assert.Zero(t, s.Requests)
	assert.Zero(t, s.Iterations)
	assert.Zero(t, s.ServiceTime.TotalCount())
	assert.Empty(t, s.GetErrorCounts())
}

func TestConcurrentAdds(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AddRequest(true, 1, time.Millisecond)
				s.AddIteration(nil, time.Millisecond, 0, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1000), s.Requests)
	assert.Equal(t, uint64(1000), s.Iterations)
	assert.Equal(t, int64(1000), s.ServiceTime.TotalCount())
}

func TestPercentiles(t *testing.T) {
	h := NewSafeHistogram()
	for i := 1; i <= 100; i++ {
		require.NoError(t, h.RecordValue(int64(i)*1000))
	}

	p := h.Percentiles()
	assert.Equal(t, int64(100), p.Count)
	assert.InDelta(t, 50, p.P50, 0.5)
	assert.InDelta(t, 99, p.P99, 0.5)
	assert.InDelta(t, 100, p.Max, 0.5)
	assert.InDelta(t, 50.5, p.Mean, 0.5)
}

func TestRecordValueClampsOutOfRange(t *testing.T) {
	h := NewSafeHistogram()
	require.NoError(t, h.RecordValue(int64(time.Hour/time.Microsecond)))
	require.NoError(t, h.RecordValue(-5))

	assert.Equal(t, int64(2), h.TotalCount())
	assert.Equal(t, int64(1), h.Clamped())
	assert.InDelta(t, float64(10*time.Minute/time.Millisecond), h.Percentiles().Max, 1000)

	h.Reset()
	assert.Equal(t, int64(0), h.Clamped())
}

func TestSlowRequestIsKept(t *testing.T) {
	s := NewStats()
	s.AddRequest(true, 0, 20*time.Minute)
	assert.Equal(t, int64(1), s.ServiceTime.TotalCount())
	assert.Equal(t, int64(1), s.ServiceTime.Clamped())
}
