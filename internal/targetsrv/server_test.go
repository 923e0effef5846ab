package targetsrv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"loginload/internal/credentials"
	"loginload/internal/loginreq"
)

func postLogin(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login.php", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func form(login, password string) string {
	return url.Values{"login": {login}, "password": {password}}.Encode()
}

func TestLoginMemoryStore(t *testing.T) {
	srv := NewServer(NewMemoryStore(credentials.RandomLoginTable), zaptest.NewLogger(t))
	h := srv.Handler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid admin", form("admin", "123"), http.StatusOK},
		{"valid guest", form("guest", "12345"), http.StatusOK},
		{"cross paired", form("admin", "1234"), http.StatusForbidden},
		{"unknown user", form("root", "123"), http.StatusForbidden},
		{"missing login", "password=123", http.StatusBadRequest},
		{"malformed", "login=%zz", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, postLogin(t, h, tt.body).Code)
		})
	}
}

func TestLoginRejectsGet(t *testing.T) {
	h := NewServer(NewMemoryStore(), nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login.php", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMemoryStoreAdd(t *testing.T) {
	s := NewMemoryStore()
	ok, err := s.Verify(context.Background(), "u", "p")
	require.NoError(t, err)
	assert.False(t, ok)

	s.Add("u", "p")
	ok, err = s.Verify(context.Background(), "u", "p")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, credentials.CheckedLoginTable))
	assert.Equal(t, "1234", mr.HGet(UsersKey, "test_user"))

	ok, err := store.Verify(ctx, "admin", "123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Verify(ctx, "guest", "12345")
	require.NoError(t, err)
	assert.False(t, ok)

	h := NewServer(store, zaptest.NewLogger(t)).Handler()
	assert.Equal(t, http.StatusOK, postLogin(t, h, form("test_user", "1234")).Code)
	assert.Equal(t, http.StatusForbidden, postLogin(t, h, form("test_user", "123")).Code)

	mr.Close()
	assert.Equal(t, http.StatusInternalServerError, postLogin(t, h, form("admin", "123")).Code)
}

func TestInvokerAgainstServer(t *testing.T) {
	ts := httptest.NewServer(NewServer(NewMemoryStore(credentials.RandomLoginTable), nil).Handler())
	defer ts.Close()

	inv := loginreq.NewInvoker(ts.Client(), ts.URL+"/login.php")
	resp, err := inv.Login(context.Background(), credentials.Credential{Username: "test_user", Password: "1234"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "Login successful", string(resp.Body))
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	srv := NewServer(NewMemoryStore(), zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
