// Package check records named pass/fail assertions. A failed check never changes control
// flow; it only moves a counter.
package check

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Recorder receives every evaluated check.
type Recorder interface {
	Record(name string, ok bool)
}

// Rule is a named predicate over a value of type T.
type Rule[T any] struct {
	Name string
	Fn   func(T) bool
}

// Check evaluates the rules in order and records each result. The return value reports
// whether every rule passed.
func Check[T any](rec Recorder, v T, rules ...Rule[T]) bool {
	all := true
	for _, r := range rules {
		ok := r.Fn(v)
		if rec != nil {
			rec.Record(r.Name, ok)
		}
		all = all && ok
	}
	return all
}

// StatusCoder is anything carrying an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// StatusIs builds the "is status <code>" rule.
func StatusIs[T StatusCoder](code int) Rule[T] {
	return Rule[T]{
		Name: fmt.Sprintf("is status %d", code),
		Fn: func(v T) bool {
			return v.StatusCode() == code
		},
	}
}

type counter struct {
	passes uint64
	fails  uint64
}

// Registry aggregates check results by name.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]*counter
}

func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]*counter)}
}

func (r *Registry) Record(name string, ok bool) {
	c := r.get(name)
	if ok {
		atomic.AddUint64(&c.passes, 1)
	} else {
		atomic.AddUint64(&c.fails, 1)
	}
}

func (r *Registry) get(name string) *counter {
	r.mu.RLock()
	c, ok := r.checks[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.checks[name]; ok {
		return c
	}
	c = &counter{}
	r.checks[name] = c
	return c
}

func (r *Registry) Reset() {
	r.mu.Lock()
	r.checks = make(map[string]*counter)
	r.mu.Unlock()
}

// Result is the aggregate of one named check.
type Result struct {
	Name   string `json:"name"`
	Passes uint64 `json:"passes"`
	Fails  uint64 `json:"fails"`
}

func (r Result) Total() uint64 {
	return r.Passes + r.Fails
}

// Rate returns the pass percentage, 0 when nothing was recorded.
func (r Result) Rate() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Passes) / float64(r.Total()) * 100
}

// Summary returns every check sorted by name.
func (r *Registry) Summary() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Result, 0, len(r.checks))
	for name, c := range r.checks {
		out = append(out, Result{
			Name:   name,
			Passes: atomic.LoadUint64(&c.passes),
			Fails:  atomic.LoadUint64(&c.fails),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Get returns the aggregate for one check.
func (r *Registry) Get(name string) (Result, bool) {
	r.mu.RLock()
	c, ok := r.checks[name]
	r.mu.RUnlock()
	if !ok {
		return Result{Name: name}, false
	}
	return Result{
		Name:   name,
		Passes: atomic.LoadUint64(&c.passes),
		Fails:  atomic.LoadUint64(&c.fails),
	}, true
}

type tee []Recorder

func (t tee) Record(name string, ok bool) {
	for _, r := range t {
		r.Record(name, ok)
	}
}

// Tee fans one result out to several recorders. Nil recorders are skipped.
func Tee(recorders ...Recorder) Recorder {
	out := make(tee, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
