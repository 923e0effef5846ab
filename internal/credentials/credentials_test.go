package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequenceSource struct {
	mu   sync.Mutex
	seq  []int
	next int
}

func (s *sequenceSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.seq[s.next%len(s.seq)]
	s.next++
	return v % n
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = NewTable([]string{"a", "b"}, []string{"1"})
	assert.ErrorIs(t, err, ErrMismatchedTable)

	_, err = NewTable([]string{"a"}, nil)
	assert.ErrorIs(t, err, ErrMismatchedTable)

	tbl, err := NewTable([]string{"a"}, []string{"1"})
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestNewTableCopiesInput(t *testing.T) {
	users := []string{"a", "b"}
	tbl := MustTable(users, []string{"1", "2"})
	users[0] = "changed"
	assert.Equal(t, "a", tbl.At(0).Username)

	cols := tbl.Usernames()
	cols[1] = "changed"
	assert.Equal(t, "b", tbl.At(1).Username)
}

func TestMustTablePanics(t *testing.T) {
	assert.Panics(t, func() { MustTable([]string{"a"}, []string{}) })
}

func TestBuiltinTables(t *testing.T) {
	assert.Equal(t, []string{"admin", "test_user", "guest"}, RandomLoginTable.Usernames())
	assert.Equal(t, []string{"123", "1234", "12345"}, RandomLoginTable.Passwords())
	assert.Equal(t, []string{"admin", "test_user"}, CheckedLoginTable.Usernames())
	assert.Equal(t, []string{"123", "1234"}, CheckedLoginTable.Passwords())
}

func TestSelectDeterministic(t *testing.T) {
	s := NewSelector(RandomLoginTable, &sequenceSource{seq: []int{0}})
	assert.Equal(t, Credential{Username: "admin", Password: "123"}, s.Select())

	s = NewSelector(CheckedLoginTable, &sequenceSource{seq: []int{1}})
	assert.Equal(t, Credential{Username: "test_user", Password: "1234"}, s.Select())
}

func TestSelectNeverCrossPairs(t *testing.T) {
	tbl := RandomLoginTable
	s := NewSelector(tbl, NewSeededSource(42))
	users := tbl.Usernames()
	passwords := tbl.Passwords()

	for i := 0; i < 1000; i++ {
		c, idx := s.SelectIndex()
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, tbl.Len())
		assert.Equal(t, indexOf(users, c.Username), indexOf(passwords, c.Password))
	}
}

func TestSelectApproximatelyUniform(t *testing.T) {
	const draws = 30000
	s := NewSelector(RandomLoginTable, NewSeededSource(7))

	counts := make([]int, RandomLoginTable.Len())
	for i := 0; i < draws; i++ {
		_, idx := s.SelectIndex()
		counts[idx]++
	}

	expected := float64(draws) / float64(len(counts))
	for i, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.05, "index %d drawn %d times", i, c)
	}
}

func TestSeededSourceReproducible(t *testing.T) {
	a := NewSeededSource(99)
	b := NewSeededSource(99)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.IntN(10), b.IntN(10))
	}
}

func TestNilSourceUsesDefault(t *testing.T) {
	s := NewSelector(CheckedLoginTable, nil)
	for i := 0; i < 50; i++ {
		c := s.Select()
		assert.Contains(t, CheckedLoginTable.Usernames(), c.Username)
	}
}

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("username,password\nalice,pw1\n# skipped\nbob, pw2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, tbl.Usernames())
	assert.Equal(t, []string{"pw1", "pw2"}, tbl.Passwords())

	_, err = ReadCSV(strings.NewReader("username,password\n"))
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = ReadCSV(strings.NewReader("alice,pw1,extra\n"))
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.csv")
	require.NoError(t, os.WriteFile(path, []byte("carol,secret\n"), 0o600))

	tbl, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, Credential{Username: "carol", Password: "secret"}, tbl.At(0))

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
