package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	casErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.casErr != nil {
		return false, m.casErr
	}
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memoryStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager() (*Manager, *memoryStore) {
	st := newMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &Manager{store: st, ttl: time.Hour, now: func() time.Time { return now }}, st
}

func TestGenerateStoresDigestOnly(t *testing.T) {
	m, st := newTestManager()
	userID := uuid.New()

	token, err := m.Generate(context.Background(), "access-1", userID)
	require.NoError(t, err)

	stored := st.data["sess:access-1"]
	assert.NotContains(t, stored, token)
	assert.Contains(t, stored, digest(token))
	assert.Contains(t, stored, userID.String())
	assert.Equal(t, time.Hour, st.ttls["sess:access-1"])
}

func TestRotate(t *testing.T) {
	m, st := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := m.Generate(ctx, "access-1", userID)
	require.NoError(t, err)

	_, _, err = m.Rotate(ctx, "access-1", userID, "wrong")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	newID, newToken, err := m.Rotate(ctx, "access-1", userID, token)
	require.NoError(t, err)
	assert.NotEqual(t, "access-1", newID)
	assert.NotEqual(t, token, newToken)
	assert.NotContains(t, st.data, "sess:access-1")
	assert.Contains(t, st.data, "sess:"+newID)

	_, _, err = m.Rotate(ctx, "access-1", userID, token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a rotated token cannot be reused")
}

func TestRotateRejectsOtherUser(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	token, err := m.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)

	_, _, err = m.Rotate(ctx, "access-1", uuid.New(), token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRotateSingleWinner(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := m.Generate(ctx, "access-1", userID)
	require.NoError(t, err)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := m.Rotate(ctx, "access-1", userID, token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestRotateStoreFailure(t *testing.T) {
	m, st := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := m.Generate(ctx, "access-1", userID)
	require.NoError(t, err)

	st.casErr = errors.New("connection reset")
	_, _, err = m.Rotate(ctx, "access-1", userID, token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeAndHasSession(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	_, err := m.Generate(ctx, "access-2", uuid.New())
	require.NoError(t, err)

	ok, err := m.HasSession(ctx, "access-2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Revoke(ctx, "access-2"))

	ok, err = m.HasSession(ctx, "access-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.Generate(ctx, "", uuid.New())
	assert.ErrorIs(t, err, errAccessIDRequired)
	_, err = m.Generate(ctx, "access-3", uuid.Nil)
	assert.Error(t, err)
}
