package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/harbor/internal/domain"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
)

func newTestPublisher(t *testing.T, ttl time.Duration) (*Publisher, *redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redisstore.NewStore(client)
	return NewPublisher(store, ttl, logger.NewNop()), store, mr
}

func TestPublishWritesRecord(t *testing.T) {
	pub, store, _ := newTestPublisher(t, 10*time.Minute)
	ctx := context.Background()

	before := time.Now().Unix()
	task, err := pub.Publish(ctx, "host-1", "restart_container", domain.Params{"container_id": "3f2a9c1b7d4e", "timeout": 10})
	after := time.Now().Unix()
	require.NoError(t, err)

	fields, err := store.GetHash(ctx, redisstore.TaskKey(task.ID))
	require.NoError(t, err)

	assert.Equal(t, task.ID, fields[domain.TaskFieldID])
	assert.Equal(t, "host-1", fields[domain.TaskFieldHostID])
	assert.Equal(t, "restart_container", fields[domain.TaskFieldCommand])
	assert.Equal(t, domain.AckPending, fields[domain.TaskFieldAck])

	stored, err := domain.HostTaskFromFields(fields)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stored.CreatedAt, before)
	assert.LessOrEqual(t, stored.CreatedAt, after)
	assert.Equal(t, "3f2a9c1b7d4e", stored.Params["container_id"])
	assert.Equal(t, int64(10), stored.Params["timeout"])
}

func TestPublishRecordExpires(t *testing.T) {
	pub, store, mr := newTestPublisher(t, 30*time.Second)
	ctx := context.Background()

	task, err := pub.Publish(ctx, "host-1", "pull_image", nil)
	require.NoError(t, err)
	key := redisstore.TaskKey(task.ID)

	ttl, err := store.TTL(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)

	mr.FastForward(29 * time.Second)
	assert.True(t, mr.Exists(key))

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists(key))

	fields, err := store.GetHash(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestPublishSameArgumentsTwice(t *testing.T) {
	pub, _, mr := newTestPublisher(t, time.Minute)
	ctx := context.Background()

	first, err := pub.Publish(ctx, "host-1", "stop_container", domain.Params{"id": "abc"})
	require.NoError(t, err)
	second, err := pub.Publish(ctx, "host-1", "stop_container", domain.Params{"id": "abc"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, mr.Exists(redisstore.TaskKey(first.ID)))
	assert.True(t, mr.Exists(redisstore.TaskKey(second.ID)))
}

func TestPublishUsesInjectedClock(t *testing.T) {
	pub, _, _ := newTestPublisher(t, time.Minute)
	pinned := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pub.WithClock(func() time.Time { return pinned })

	task, err := pub.Publish(context.Background(), "host-1", "noop", nil)
	require.NoError(t, err)
	assert.Equal(t, pinned.Unix(), task.CreatedAt)
}

func TestPublishRejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name    string
		hostID  string
		command string
		params  domain.Params
		wantErr error
	}{
		{name: "nested params", hostID: "host-1", command: "deploy", params: domain.Params{"env": map[string]string{"A": "1"}}, wantErr: domain.ErrUnsupportedParam},
		{name: "missing host", command: "deploy", wantErr: domain.ErrInvalidTask},
		{name: "missing command", hostID: "host-1", wantErr: domain.ErrInvalidTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &recordingWriter{}
			pub := NewPublisher(w, time.Minute, logger.NewNop())

			task, err := pub.Publish(context.Background(), tt.hostID, tt.command, tt.params)
			assert.Nil(t, task)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Zero(t, w.calls)
		})
	}
}

func TestPublishRequiresPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		w := &recordingWriter{}
		pub := NewPublisher(w, ttl, logger.NewNop())

		task, err := pub.Publish(context.Background(), "host-1", "noop", nil)
		assert.Nil(t, task)
		assert.ErrorIs(t, err, ErrInvalidTTL, "ttl %v", ttl)
		assert.Zero(t, w.calls, "ttl %v: nothing must be written", ttl)
	}
}

func TestPublishPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection refused")
	pub := NewPublisher(&recordingWriter{err: storeErr}, time.Minute, logger.NewNop())

	_, err := pub.Publish(context.Background(), "host-1", "noop", nil)
	assert.ErrorIs(t, err, storeErr)
}

type recordingWriter struct {
	calls int
	err   error
}

func (w *recordingWriter) PutHash(_ context.Context, _ string, _ map[string]any, _ time.Duration) error {
	w.calls++
	return w.err
}
