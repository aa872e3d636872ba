package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/harbor/internal/domain"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
)

// ErrTaskNotFound means the record was never written or has expired.
var ErrTaskNotFound = errors.New("host task not found")

// HashReader reads a whole hash record.
type HashReader interface {
	GetHash(ctx context.Context, key string) (map[string]string, error)
}

// Lookup reads a queued task back, ack flag included. It is a diagnostics
// read and never changes the record.
func Lookup(ctx context.Context, store HashReader, id string) (*domain.HostTask, error) {
	fields, err := store.GetHash(ctx, redisstore.TaskKey(id))
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrTaskNotFound)
	}
	return domain.HostTaskFromFields(fields)
}
