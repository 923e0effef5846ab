package runner

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"loginload/internal/check"
	"loginload/internal/stats"
	"loginload/internal/vu"
)

// StatsSnapshot is sent over the channel
type StatsSnapshot struct {
	Requests  uint64
	Success   uint64
	Fail      uint64
	Bytes     uint64
	Inflight  int64
	ActiveVUs int64

	Iterations      uint64
	IterationErrors uint64
	ChecksPassed    uint64
	ChecksFailed    uint64

	// Pre-calculated percentiles for the UI (cheap copy)
	P50ServiceMs float64
	P90ServiceMs float64
	P99ServiceMs float64
	MaxServiceMs int64

	AvgQueueWaitMs float64
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot

// Scenario is the iteration body the runner executes.
type Scenario interface {
	Name() string
	Iterate(ctx context.Context) error
}

// Observer mirrors runner events into an external metrics system.
type Observer interface {
	ObserveRequest(status int, d time.Duration)
	ObserveIteration(err error, d time.Duration)
	SetActiveVUs(n int64)
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.Logger = l }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.Observer = o }
}

type Runner struct {
	Cfg      Config
	Scenario Scenario
	Stats    *stats.Stats
	Checks   *check.Registry
	Client   *http.Client
	Results  []ExperimentResult
	Logger   *zap.Logger
	Observer Observer
	mu       sync.Mutex

	inflight  int64
	activeVUs int64
	started   uint64

	// Event Channel
	Updates StatsUpdateChan
}

func NewRunner(cfg Config, updates StatsUpdateChan, opts ...Option) *Runner {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	if cfg.InsecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}

	r := &Runner{
		Cfg:     cfg,
		Stats:   stats.NewStats(),
		Checks:  check.NewRegistry(),
		Updates: updates,
		Logger:  zap.NewNop(),
	}
	r.Client = &http.Client{
		Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		Transport: &recordingTransport{base: t, r: r},
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartTickLoop starts a goroutine that pushes stats updates
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate()
			}
		}
	}()
}

// Snapshot captures the current counters.
func (r *Runner) Snapshot() StatsSnapshot {
	var passed, failed uint64
	for _, c := range r.Checks.Summary() {
		passed += c.Passes
		failed += c.Fails
	}

	return StatsSnapshot{
		Requests:        atomic.LoadUint64(&r.Stats.Requests),
		Success:         atomic.LoadUint64(&r.Stats.Success),
		Fail:            atomic.LoadUint64(&r.Stats.Fail),
		Bytes:           atomic.LoadUint64(&r.Stats.Bytes),
		Inflight:        atomic.LoadInt64(&r.inflight),
		ActiveVUs:       atomic.LoadInt64(&r.activeVUs),
		Iterations:      atomic.LoadUint64(&r.Stats.Iterations),
		IterationErrors: atomic.LoadUint64(&r.Stats.IterationErrors),
		ChecksPassed:    passed,
		ChecksFailed:    failed,
		P50ServiceMs:    r.Stats.GetP50Service(),
		P90ServiceMs:    r.Stats.GetP90Service(),
		P99ServiceMs:    r.Stats.GetP99Service(),
		MaxServiceMs:    r.Stats.ServiceTime.Max() / 1000,
		AvgQueueWaitMs:  r.Stats.QueueWaitAvgMs(),
	}
}

func (r *Runner) sendUpdate() {
	// Non-blocking send
	select {
	case r.Updates <- r.Snapshot():
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}

// Reset clears results of a previous run so the runner can be reused.
func (r *Runner) Reset() {
	r.Stats.Reset()
	r.Checks.Reset()
	atomic.StoreUint64(&r.started, 0)
	r.mu.Lock()
	r.Results = nil
	r.mu.Unlock()
}

// Run executes the scenario under the configured load profile and returns once every
// started iteration has finished.
func (r *Runner) Run(ctx context.Context) error {
	if r.Scenario == nil {
		return ErrNoScenario
	}
	if err := r.Cfg.Validate(); err != nil {
		return err
	}

	tickCtx, stopTicks := context.WithCancel(ctx)
	defer stopTicks()
	r.StartTickLoop(tickCtx, 200*time.Millisecond)

	r.Logger.Info("run started",
		zap.String("scenario", r.Scenario.Name()),
		zap.String("mode", r.Cfg.Mode),
		zap.Duration("duration", r.Cfg.TotalDuration()),
	)

	start := time.Now()
	if r.Cfg.Mode == ModeUsers {
		r.runUsers(ctx)
	} else {
		r.runRPS(ctx)
	}
	r.sendUpdate()

	r.Logger.Info("run finished",
		zap.String("scenario", r.Scenario.Name()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Uint64("iterations", atomic.LoadUint64(&r.Stats.Iterations)),
		zap.Uint64("requests", atomic.LoadUint64(&r.Stats.Requests)),
	)
	return nil
}

// reserveIteration claims one iteration slot, false once MaxIterations is used up.
func (r *Runner) reserveIteration() (uint64, bool) {
	n := atomic.AddUint64(&r.started, 1)
	if r.Cfg.MaxIterations > 0 && n > r.Cfg.MaxIterations {
		return n, false
	}
	return n, true
}

func (r *Runner) runUsers(ctx context.Context) {
	var wg sync.WaitGroup
	start := time.Now()
	totalDur := r.Cfg.TotalDuration()
	rampUp := time.Duration(r.Cfg.RampUp) * time.Second

	for i := 0; i < r.Cfg.NumUsers; i++ {
		// users join evenly across the ramp-up window
		delay := rampUp * time.Duration(i) / time.Duration(r.Cfg.NumUsers)

		wg.Add(1)
		go func(delay time.Duration) {
			defer wg.Done()
			if !sleepCtx(ctx, delay) {
				return
			}

			id := vu.NewID()
			r.vuJoined(1)
			defer r.vuJoined(-1)

			for {
				if ctx.Err() != nil || time.Since(start) > totalDur {
					return
				}
				n, ok := r.reserveIteration()
				if !ok {
					return
				}
				r.executeIteration(ctx, time.Now(), vu.Info{ID: id, Iteration: n})
				if r.Cfg.ThinkTime > 0 && !sleepCtx(ctx, r.Cfg.ThinkTime) {
					return
				}
			}
		}(delay)
	}
	wg.Wait()
}

func (r *Runner) runRPS(ctx context.Context) {
	start := time.Now()
	totalDur := r.Cfg.TotalDuration()

	var wg sync.WaitGroup
	defer wg.Wait()
	nextRequestTime := start

	for {
		if ctx.Err() != nil {
			return
		}

		now := time.Now()
		elapsed := now.Sub(start).Seconds()
		if elapsed >= totalDur.Seconds() {
			return
		}

		targetRPS := r.getCurrentRPS(elapsed)
		if targetRPS <= 0.1 {
			if !sleepCtx(ctx, 100*time.Millisecond) {
				return
			}
			nextRequestTime = time.Now()
			continue
		}

		period := time.Duration(float64(time.Second) / targetRPS)

		if nextRequestTime.After(now) && !sleepCtx(ctx, nextRequestTime.Sub(now)) {
			return
		}

		n, ok := r.reserveIteration()
		if !ok {
			return
		}

		wg.Add(1)
		scheduledTime := nextRequestTime
		go func() {
			defer wg.Done()
			// every open-loop arrival is a fresh VU
			r.vuJoined(1)
			defer r.vuJoined(-1)
			r.executeIteration(ctx, scheduledTime, vu.Info{ID: vu.NewID(), Iteration: n})
		}()

		nextRequestTime = nextRequestTime.Add(period)

		if time.Since(nextRequestTime) > 1*time.Second {
			nextRequestTime = time.Now()
		}
	}
}

func (r *Runner) executeIteration(ctx context.Context, scheduledTime time.Time, info vu.Info) {
	actualStart := time.Now()
	queueWait := actualStart.Sub(scheduledTime)
	if queueWait < 0 {
		queueWait = 0
	}

	atomic.AddInt64(&r.inflight, 1)
	defer atomic.AddInt64(&r.inflight, -1)

	ictx := vu.WithInfo(ctx, info)
	err := r.Scenario.Iterate(ictx)

	endTime := time.Now()
	duration := endTime.Sub(actualStart)
	r.Stats.AddIteration(err, duration, queueWait, endTime.Sub(scheduledTime))

	if err != nil {
		vu.Logger(ictx, r.Logger).Debug("iteration failed", zap.Error(err))
	}
	if r.Observer != nil {
		r.Observer.ObserveIteration(err, duration)
	}
}

func (r *Runner) recordRequest(res ExperimentResult) {
	r.Stats.AddRequest(res.Success, res.Bytes, res.ServiceTime)
	if r.Observer != nil {
		r.Observer.ObserveRequest(res.Status, res.ServiceTime)
	}

	r.mu.Lock()
	r.Results = append(r.Results, res)
	r.mu.Unlock()
}

// ResultsCopy returns the per-request results recorded so far.
func (r *Runner) ResultsCopy() []ExperimentResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ExperimentResult(nil), r.Results...)
}

func (r *Runner) vuJoined(delta int64) {
	n := atomic.AddInt64(&r.activeVUs, delta)
	if r.Observer != nil {
		r.Observer.SetActiveVUs(n)
	}
}

func (r *Runner) getCurrentRPS(elapsedSec float64) float64 {
	cfg := r.Cfg
	if elapsedSec < float64(cfg.RampUp) {
		return float64(cfg.TargetRPS) * (elapsedSec / float64(cfg.RampUp))
	}
	steadyEnd := float64(cfg.RampUp + cfg.SteadyDur)
	if elapsedSec < steadyEnd {
		return float64(cfg.TargetRPS)
	}
	totalDur := float64(cfg.RampUp + cfg.SteadyDur + cfg.RampDown)
	if elapsedSec < totalDur {
		remaining := totalDur - elapsedSec
		return float64(cfg.TargetRPS) * (remaining / float64(cfg.RampDown))
	}
	return 0
}

func (r *Runner) GetInflight() int64 {
	return atomic.LoadInt64(&r.inflight)
}

// sleepCtx waits for d or until ctx is done, reporting whether the full wait elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
