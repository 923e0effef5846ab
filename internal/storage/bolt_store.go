package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	BucketRuns = "runs"
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	db       *bbolt.DB
	filePath string
}

// DefaultPath is ~/.loginload/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".loginload", "history.db"), nil
}

// NewStore opens (or creates) the history database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db '%s': %w", path, err)
	}

	// Initialize Buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		filePath: path,
	}, nil
}

func (s *Store) Path() string {
	return s.filePath
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(item HistoryItem) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))

		data, err := json.Marshal(item)
		if err != nil {
			return err
		}

		return b.Put([]byte(item.ID), data)
	})
}

// List returns every saved run, newest first. Undecodable entries are skipped.
func (s *Store) List() ([]HistoryItem, error) {
	var items []HistoryItem

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		return b.ForEach(func(_, v []byte) error {
			var item HistoryItem
			if err := json.Unmarshal(v, &item); err == nil {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// keys are uuids, so order by timestamp instead of cursor order
	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}

func (s *Store) Get(id string) (*HistoryItem, error) {
	var item HistoryItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		v := b.Get([]byte(id))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(v, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
