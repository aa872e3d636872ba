package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/harbor/internal/domain"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	"github.com/MrSnakeDoc/harbor/internal/metrics"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
)

// ErrInvalidTTL means the publisher was built without a positive lifetime.
// Task records must always expire.
var ErrInvalidTTL = errors.New("host task ttl must be positive")

// HashWriter stores a hash record with a lifetime. Both the fields and the
// expiry must become visible together.
type HashWriter interface {
	PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
}

// Publisher queues commands for host agents. It never waits for, or reads,
// the agent's acknowledgement: a record is either claimed before its TTL
// runs out or silently expires.
type Publisher struct {
	store  HashWriter
	ttl    time.Duration
	now    domain.Clock
	newID  func() string
	logger logger.Logger
}

// NewPublisher creates a publisher writing records that live for ttl.
func NewPublisher(store HashWriter, ttl time.Duration, log logger.Logger) *Publisher {
	return &Publisher{
		store:  store,
		ttl:    ttl,
		now:    domain.SystemClock,
		newID:  domain.NewID,
		logger: log,
	}
}

// WithClock swaps the time source. Used by tests.
func (p *Publisher) WithClock(now domain.Clock) *Publisher {
	p.now = now
	return p
}

// Publish stores a new task for hostID under queue:<id>. Params are encoded
// before anything is written, so an unsupported value leaves the store
// untouched.
func (p *Publisher) Publish(ctx context.Context, hostID, command string, params domain.Params) (*domain.HostTask, error) {
	if p.ttl <= 0 {
		metrics.ObserveTaskPublished(metrics.ResultError)
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTTL, p.ttl)
	}

	task := &domain.HostTask{
		ID:        p.newID(),
		CreatedAt: p.now().Unix(),
		HostID:    hostID,
		Command:   command,
		Params:    params,
		Ack:       domain.AckPending,
	}
	if err := task.Validate(); err != nil {
		metrics.ObserveTaskPublished(metrics.ResultRejected)
		return nil, err
	}

	fields, err := task.Fields()
	if err != nil {
		metrics.ObserveTaskPublished(metrics.ResultRejected)
		return nil, err
	}

	if err := p.store.PutHash(ctx, redisstore.TaskKey(task.ID), fields, p.ttl); err != nil {
		metrics.ObserveTaskPublished(metrics.ResultError)
		return nil, err
	}

	metrics.ObserveTaskPublished(metrics.ResultOK)
	p.logger.Debug("host task queued",
		logger.String("task_id", task.ID),
		logger.String("host_id", hostID),
		logger.String("command", command),
		logger.Duration("ttl", p.ttl))

	return task, nil
}
