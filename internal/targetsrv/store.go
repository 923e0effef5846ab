package targetsrv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"loginload/internal/credentials"
)

// UsersKey is the Redis hash holding username -> password.
const UsersKey = "users"

// UserStore verifies a login/password pair.
type UserStore interface {
	Verify(ctx context.Context, login, password string) (bool, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewMemoryStore seeds a store from the given tables. Later tables win on
// duplicate usernames.
func NewMemoryStore(tables ...*credentials.Table) *MemoryStore {
	s := &MemoryStore{users: make(map[string]string)}
	for _, t := range tables {
		for i := 0; i < t.Len(); i++ {
			c := t.At(i)
			s.users[c.Username] = c.Password
		}
	}
	return s
}

func (s *MemoryStore) Add(login, password string) {
	s.mu.Lock()
	s.users[login] = password
	s.mu.Unlock()
}

func (s *MemoryStore) Verify(_ context.Context, login, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[login]
	return ok && stored == password, nil
}

type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: UsersKey}
}

// Seed writes every credential of the tables into the users hash.
func (s *RedisStore) Seed(ctx context.Context, tables ...*credentials.Table) error {
	values := make(map[string]interface{})
	for _, t := range tables {
		for i := 0; i < t.Len(); i++ {
			c := t.At(i)
			values[c.Username] = c.Password
		}
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("seed %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Verify(ctx context.Context, login, password string) (bool, error) {
	stored, err := s.client.HGet(ctx, s.key, login).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %q: %w", login, err)
	}
	return stored == password, nil
}
