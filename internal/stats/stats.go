package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds real-time aggregated metrics for a run.
type Stats struct {
	// HTTP requests made by scenario code
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64

	// Iterations of the scenario body
	Iterations      uint64
	IterationErrors uint64

	// Latency histograms (microseconds)
	ServiceTime   *SafeHistogram
	TotalTime     *SafeHistogram
	IterationTime *SafeHistogram

	// Queue wait is important for lag detection
	QueueWait *SafeHistogram

	errMu  sync.Mutex
	errors map[string]uint64
}

func NewStats() *Stats {
	return &Stats{
		ServiceTime:   NewSafeHistogram(),
		TotalTime:     NewSafeHistogram(),
		IterationTime: NewSafeHistogram(),
		QueueWait:     NewSafeHistogram(),
		errors:        make(map[string]uint64),
	}
}

// AddRequest records one HTTP request. A 2xx response counts as success.
func (s *Stats) AddRequest(success bool, bytes int64, serviceTime time.Duration) {
	atomic.AddUint64(&s.Requests, 1)
	if success {
		atomic.AddUint64(&s.Success, 1)
	} else {
		atomic.AddUint64(&s.Fail, 1)
	}
	if bytes > 0 {
		atomic.AddUint64(&s.Bytes, uint64(bytes))
	}
	s.ServiceTime.RecordValue(serviceTime.Microseconds())
}

// AddIteration records one finished scenario iteration.
func (s *Stats) AddIteration(err error, duration, queueWait, total time.Duration) {
	atomic.AddUint64(&s.Iterations, 1)
	if err != nil {
		atomic.AddUint64(&s.IterationErrors, 1)
		s.AddError(err.Error())
	}
	s.IterationTime.RecordValue(duration.Microseconds())
	s.QueueWait.RecordValue(queueWait.Microseconds())
	s.TotalTime.RecordValue(total.Microseconds())
}

func (s *Stats) AddError(msg string) {
	s.errMu.Lock()
	s.errors[msg]++
	s.errMu.Unlock()
}

// GetErrorCounts returns a copy of the error message counts.
func (s *Stats) GetErrorCounts() map[string]uint64 {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	out := make(map[string]uint64, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// ErrorCount is one entry of TopErrors.
type ErrorCount struct {
	Message string `json:"message"`
	Count   uint64 `json:"count"`
}

// TopErrors returns error messages ordered by count, most frequent first.
func (s *Stats) TopErrors() []ErrorCount {
	counts := s.GetErrorCounts()
	out := make([]ErrorCount, 0, len(counts))
	for msg, n := range counts {
		out = append(out, ErrorCount{Message: msg, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func (s *Stats) ErrorRate() float64 {
	reqs := atomic.LoadUint64(&s.Requests)
	if reqs == 0 {
		return 0
	}
	fails := atomic.LoadUint64(&s.Fail)
	return (float64(fails) / float64(reqs)) * 100
}

func (s *Stats) GetP50Service() float64 {
	return s.serviceQuantileMs(50)
}

func (s *Stats) GetP90Service() float64 {
	return s.serviceQuantileMs(90)
}

func (s *Stats) GetP95Service() float64 {
	return s.serviceQuantileMs(95)
}

func (s *Stats) GetP99Service() float64 {
	return s.serviceQuantileMs(99)
}

func (s *Stats) serviceQuantileMs(q float64) float64 {
	return float64(s.ServiceTime.ValueAtQuantile(q)) / 1000.0
}

func (s *Stats) GetP99Total() float64 {
	return float64(s.TotalTime.ValueAtQuantile(99)) / 1000.0 // ms
}

// QueueWaitAvgMs returns average queue wait in milliseconds
func (s *Stats) QueueWaitAvgMs() float64 {
	return s.QueueWait.Mean() / 1000.0
}

// Reset clears counters and histograms between runs.
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.Requests, 0)
	atomic.StoreUint64(&s.Success, 0)
	atomic.StoreUint64(&s.Fail, 0)
	atomic.StoreUint64(&s.Bytes, 0)
	atomic.StoreUint64(&s.Iterations, 0)
	atomic.StoreUint64(&s.IterationErrors, 0)

	s.ServiceTime.Reset()
	s.TotalTime.Reset()
	s.IterationTime.Reset()
	s.QueueWait.Reset()

	s.errMu.Lock()
	s.errors = make(map[string]uint64)
	s.errMu.Unlock()
}
