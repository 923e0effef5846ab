package credentials

import (
	"math/rand/v2"
	"sync"
)

// Source draws an integer in [0, n). Implementations must be safe for concurrent use.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultSource uses the runtime-seeded global generator.
var DefaultSource Source = globalSource{}

// SeededSource is a reproducible Source guarded by a mutex.
type SeededSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSeededSource(seed uint64) *SeededSource {
	return &SeededSource{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SeededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}

// Selector picks a uniformly random pair from a Table.
type Selector struct {
	table *Table
	src   Source
}

func NewSelector(table *Table, src Source) *Selector {
	if src == nil {
		src = DefaultSource
	}
	return &Selector{table: table, src: src}
}

// Select draws one index and returns the username and password stored there.
func (s *Selector) Select() Credential {
	c, _ := s.SelectIndex()
	return c
}

// SelectIndex is Select that also reports the drawn index.
func (s *Selector) SelectIndex() (Credential, int) {
	i := s.src.IntN(s.table.Len())
	return s.table.At(i), i
}

func (s *Selector) Table() *Table {
	return s.table
}
