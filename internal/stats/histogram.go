package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// SafeHistogram is a thread-safe wrapper around hdrhistogram
type SafeHistogram struct {
	hist    *hdrhistogram.Histogram
	mu      sync.Mutex
	clamped int64
}

func NewSafeHistogram() *SafeHistogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &SafeHistogram{hist: h}
}

// RecordValue records a latency in microseconds. Values above the trackable
// range are recorded as the highest trackable value and counted in Clamped;
// negative values are recorded as 0.
func (h *SafeHistogram) RecordValue(v int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if highest := h.hist.HighestTrackableValue(); v > highest {
		v = highest
		h.clamped++
	}
	return h.hist.RecordValue(v)
}

// Clamped is the number of samples that exceeded the trackable range.
func (h *SafeHistogram) Clamped() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clamped
}

func (h *SafeHistogram) ValueAtQuantile(q float64) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.ValueAtQuantile(q)
}

func (h *SafeHistogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Mean()
}

func (h *SafeHistogram) Max() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Max()
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}

func (h *SafeHistogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hist.Reset()
	h.clamped = 0
}

// Percentiles is a millisecond view of a histogram taken under one lock.
type Percentiles struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean_ms"`
	P50   float64 `json:"p50_ms"`
	P90   float64 `json:"p90_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

func (h *SafeHistogram) Percentiles() Percentiles {
	h.mu.Lock()
	defer h.mu.Unlock()

	ms := func(us int64) float64 { return float64(us) / 1000.0 }
	return Percentiles{
		Count: h.hist.TotalCount(),
		Mean:  h.hist.Mean() / 1000.0,
		P50:   ms(h.hist.ValueAtQuantile(50)),
		P90:   ms(h.hist.ValueAtQuantile(90)),
		P95:   ms(h.hist.ValueAtQuantile(95)),
		P99:   ms(h.hist.ValueAtQuantile(99)),
		Max:   ms(h.hist.Max()),
	}
}
