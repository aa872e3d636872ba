package frontend

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/harbor/internal/domain"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	"github.com/MrSnakeDoc/harbor/internal/metrics"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
)

// backendTransport is the transport protocol of published backend ports.
const backendTransport = "tcp"

var (
	// ErrDisabled is returned by New when frontend publishing is switched off.
	ErrDisabled = errors.New("frontend publishing disabled")
	// ErrPortNotMapped means a container does not publish the backend port.
	ErrPortNotMapped = errors.New("backend port not mapped")
)

// ResolutionError reports the container whose upstream could not be built.
type ResolutionError struct {
	Domain      string
	ContainerID string
	PortKey     string
	Interface   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("frontend %s: container %s has no binding for %s on %s",
		e.Domain, domain.ShortID(e.ContainerID), e.PortKey, e.Interface)
}

func (e *ResolutionError) Unwrap() error { return ErrPortNotMapped }

// Writer is the part of the store the synchronizer needs. ReplaceList must
// be atomic: readers see the old list or the new one, never a mix.
type Writer interface {
	ReplaceList(ctx context.Context, key string, values []string) error
	DeleteKey(ctx context.Context, key string) error
}

// Synchronizer publishes frontend:<domain> routing entries for the reverse
// proxy. Holding one means the feature is on.
type Synchronizer struct {
	store  Writer
	logger logger.Logger
}

// New returns ErrDisabled when enabled is false. Callers treat that as
// "frontends are not managed here" and skip every sync.
func New(enabled bool, store Writer, log logger.Logger) (*Synchronizer, error) {
	if !enabled {
		return nil, ErrDisabled
	}
	return &Synchronizer{store: store, logger: log}, nil
}

// Sync rebuilds the routing entry of app as [app-id, upstream...] and swaps
// it in atomically. Upstreams follow the order of app.Containers.
//
// If any container lacks the backend binding, nothing is written and the
// previous entry stays in place.
func (s *Synchronizer) Sync(ctx context.Context, app *domain.Application) error {
	upstreams, err := Upstreams(app)
	if err != nil {
		metrics.ObserveFrontendSync(metrics.ResultUnresolved, 0)
		s.logger.Warn("frontend resync aborted",
			logger.String("domain", app.Domain),
			logger.String("app_id", app.ID),
			logger.Error(err))
		return err
	}

	entry := make([]string, 0, len(upstreams)+1)
	entry = append(entry, app.ID)
	entry = append(entry, upstreams...)

	if err := s.store.ReplaceList(ctx, redisstore.FrontendKey(app.Domain), entry); err != nil {
		metrics.ObserveFrontendSync(metrics.ResultError, 0)
		return err
	}

	metrics.ObserveFrontendSync(metrics.ResultOK, len(upstreams))
	s.logger.Debug("frontend synced",
		logger.String("domain", app.Domain),
		logger.String("app_id", app.ID),
		logger.Strings("upstreams", upstreams))
	return nil
}

// Remove deletes the routing entry of domainName. Absent entries are fine.
func (s *Synchronizer) Remove(ctx context.Context, domainName string) error {
	if err := s.store.DeleteKey(ctx, redisstore.FrontendKey(domainName)); err != nil {
		return err
	}
	metrics.IncFrontendRemoval()
	s.logger.Debug("frontend removed", logger.String("domain", domainName))
	return nil
}

// Upstreams resolves one upstream URL per container of app.
func Upstreams(app *domain.Application) ([]string, error) {
	iface := app.BindInterface()
	upstreams := make([]string, 0, len(app.Containers))

	for _, c := range app.Containers {
		port, ok := c.ExternalPort(app.BackendPort, backendTransport, iface)
		if !ok {
			return nil, &ResolutionError{
				Domain:      app.Domain,
				ContainerID: c.ID,
				PortKey:     domain.PortKey(app.BackendPort, backendTransport),
				Interface:   iface,
			}
		}
		upstreams = append(upstreams, fmt.Sprintf("%s://%s:%s", app.Protocol, upstreamHost(c.Host, iface), port))
	}
	return upstreams, nil
}

// upstreamHost picks the address the proxy dials. On the wildcard interface
// that is the host's advertised name, else its plain hostname; a specific
// interface is used as-is.
func upstreamHost(h *domain.Host, iface string) string {
	if iface != domain.WildcardInterface {
		return iface
	}
	if h.PublicHostname != "" {
		return h.PublicHostname
	}
	return h.Hostname
}
