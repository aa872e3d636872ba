package console

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/harbor/internal/domain"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	"github.com/MrSnakeDoc/harbor/internal/metrics"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
)

// attachPathFormat is the engine websocket endpoint the console proxy dials.
const attachPathFormat = "/v1.3/containers/%s/attach/ws"

// Hash fields of a console session.
const (
	FieldHost = "host"
	FieldPath = "path"
)

// HashWriter stores a hash record together with its lifetime.
type HashWriter interface {
	PutHash(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error
}

// Issuer hands out short lived console attach sessions.
type Issuer struct {
	store  HashWriter
	ttl    time.Duration
	newID  func() string
	logger logger.Logger
}

// NewIssuer creates an issuer whose sessions live for ttl.
func NewIssuer(store HashWriter, ttl time.Duration, log logger.Logger) *Issuer {
	return &Issuer{store: store, ttl: ttl, newID: sessionID, logger: log}
}

// Issue records where the console proxy should attach for container c and
// returns the session id the browser presents.
func (i *Issuer) Issue(ctx context.Context, c *domain.Container) (string, error) {
	if c == nil || c.Host == nil {
		return "", fmt.Errorf("container has no host")
	}

	id := i.newID()
	fields := map[string]any{
		FieldHost: c.EngineAddr(),
		FieldPath: AttachPath(c.ID),
	}
	if err := i.store.PutHash(ctx, redisstore.ConsoleKey(id), fields, i.ttl); err != nil {
		return "", err
	}

	metrics.IncConsoleSession()
	i.logger.Debug("console session issued",
		logger.String("container", domain.ShortID(c.ID)),
		logger.String("host", c.Host.Hostname))
	return id, nil
}

// AttachPath is the engine attach endpoint for a container.
func AttachPath(containerID string) string {
	return fmt.Sprintf(attachPathFormat, containerID)
}

// sessionID is a 32 char hex token derived from a random uuid.
func sessionID() string {
	sum := md5.Sum([]byte(domain.NewID()))
	return hex.EncodeToString(sum[:])
}
