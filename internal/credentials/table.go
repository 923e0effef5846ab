package credentials

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrEmptyTable      = errors.New("credential table is empty")
	ErrMismatchedTable = errors.New("credential table has mismatched usernames and passwords")
)

// Credential is one username/password pair picked for an iteration.
type Credential struct {
	Username string
	Password string
}

// Table holds two parallel lists where index i of Usernames belongs to index i of Passwords.
// A Table is never mutated after NewTable returns, so it can be shared between VUs.
type Table struct {
	usernames []string
	passwords []string
}

var (
	// RandomLoginTable backs the random-login scenario.
	RandomLoginTable = MustTable(
		[]string{"admin", "test_user", "guest"},
		[]string{"123", "1234", "12345"},
	)

	// CheckedLoginTable backs the checked-login scenario.
	CheckedLoginTable = MustTable(
		[]string{"admin", "test_user"},
		[]string{"123", "1234"},
	)
)

// NewTable validates and copies the two lists.
func NewTable(usernames, passwords []string) (*Table, error) {
	if len(usernames) == 0 && len(passwords) == 0 {
		return nil, ErrEmptyTable
	}
	if len(usernames) != len(passwords) {
		return nil, fmt.Errorf("%w: %d usernames, %d passwords", ErrMismatchedTable, len(usernames), len(passwords))
	}

	t := &Table{
		usernames: make([]string, len(usernames)),
		passwords: make([]string, len(passwords)),
	}
	copy(t.usernames, usernames)
	copy(t.passwords, passwords)
	return t, nil
}

// MustTable is NewTable for package-level literals.
func MustTable(usernames, passwords []string) *Table {
	t, err := NewTable(usernames, passwords)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Len() int {
	return len(t.usernames)
}

// At returns the pair stored at index i.
func (t *Table) At(i int) Credential {
	return Credential{Username: t.usernames[i], Password: t.passwords[i]}
}

// Usernames returns a copy of the username column.
func (t *Table) Usernames() []string {
	return append([]string(nil), t.usernames...)
}

// Passwords returns a copy of the password column.
func (t *Table) Passwords() []string {
	return append([]string(nil), t.passwords...)
}

// LoadCSV reads a two column "username,password" file. A header row whose first
// cell is "username" is skipped.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file '%s': %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("credentials file '%s': %w", path, err)
	}
	return t, nil
}

func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var usernames, passwords []string
	for line := 0; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "username") {
			continue
		}
		usernames = append(usernames, rec[0])
		passwords = append(passwords, rec[1])
	}

	return NewTable(usernames, passwords)
}
