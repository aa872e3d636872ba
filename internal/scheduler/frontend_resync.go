package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/harbor/internal/domain"
	"github.com/MrSnakeDoc/harbor/internal/frontend"
	"github.com/MrSnakeDoc/harbor/internal/inventory"
	"github.com/MrSnakeDoc/harbor/internal/logger"
)

// ErrEmptyInventory is returned when a reload would replace a populated
// inventory with one that has no applications.
var ErrEmptyInventory = errors.New("inventory has no applications")

// FrontendPublisher republishes and removes routing entries.
type FrontendPublisher interface {
	Sync(ctx context.Context, app *domain.Application) error
	Remove(ctx context.Context, domainName string) error
}

// ResyncReport summarizes one reload pass.
type ResyncReport struct {
	Synced     int
	Unresolved int
	Failed     int
	Removed    int
}

// FrontendResyncer reloads the inventory file and republishes every
// frontend, periodically and on demand.
type FrontendResyncer struct {
	loader        *inventory.Loader
	registry      *inventory.Registry
	publisher     FrontendPublisher // nil when frontends are disabled
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	allowEmpty    bool
}

// NewFrontendResyncer creates a resyncer. With a nil publisher it only keeps
// the registry current.
func NewFrontendResyncer(
	loader *inventory.Loader,
	registry *inventory.Registry,
	publisher FrontendPublisher,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *FrontendResyncer {
	return &FrontendResyncer{
		loader:        loader,
		registry:      registry,
		publisher:     publisher,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// AllowEmpty lets a reload install an inventory without applications over a
// populated one, which removes every published frontend.
func (fr *FrontendResyncer) AllowEmpty(allow bool) *FrontendResyncer {
	fr.allowEmpty = allow
	return fr
}

// Start runs one reload synchronously, then keeps reloading in the background.
func (fr *FrontendResyncer) Start(ctx context.Context) error {
	if _, err := fr.Reload(ctx); err != nil {
		return fmt.Errorf("initial inventory load failed: %w", err)
	}

	ticker := time.NewTicker(fr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fr.reloadLogged(ctx)
			case <-fr.manualTrigger:
				fr.logger.Info("manual frontend resync triggered")
				fr.reloadLogged(ctx)
			case <-fr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the background loop
func (fr *FrontendResyncer) Stop() {
	fr.stopOnce.Do(func() { close(fr.stopCh) })
}

func (fr *FrontendResyncer) reloadLogged(ctx context.Context) {
	if _, err := fr.Reload(ctx); err != nil {
		fr.logger.Error("frontend resync failed", logger.Error(err))
	}
}

// Reload swaps in a fresh inventory snapshot, republishes every application
// and removes the frontends of applications that disappeared. A broken
// inventory file leaves the previous snapshot in place. Failures of single
// applications are logged and counted; they don't stop the pass.
func (fr *FrontendResyncer) Reload(ctx context.Context) (ResyncReport, error) {
	var report ResyncReport

	snap, err := fr.loader.Load()
	if err != nil {
		return report, err
	}
	if len(snap.Applications) == 0 && !fr.allowEmpty {
		if _, apps, _ := fr.registry.Counts(); apps > 0 {
			fr.logger.Warn("refusing to replace inventory with an empty one",
				logger.String("file", fr.loader.Path()),
				logger.Int("current_applications", apps))
			return report, fmt.Errorf("%s: %w", fr.loader.Path(), ErrEmptyInventory)
		}
	}
	prev := fr.registry.Replace(snap)

	fr.logger.Info("inventory loaded",
		logger.String("file", fr.loader.Path()),
		logger.Int("hosts", len(snap.Hosts)),
		logger.Int("applications", len(snap.Applications)),
		logger.Int("containers", len(snap.Containers)))

	if fr.publisher == nil {
		return report, nil
	}

	for _, app := range snap.Applications {
		err := fr.publisher.Sync(ctx, app)
		var resErr *frontend.ResolutionError
		switch {
		case err == nil:
			report.Synced++
		case errors.As(err, &resErr):
			report.Unresolved++
		default:
			report.Failed++
			fr.logger.Error("frontend sync failed",
				logger.String("domain", app.Domain),
				logger.Error(err))
		}
	}

	for _, gone := range removedDomains(prev, snap) {
		if err := fr.publisher.Remove(ctx, gone); err != nil {
			report.Failed++
			fr.logger.Error("frontend removal failed",
				logger.String("domain", gone),
				logger.Error(err))
			continue
		}
		report.Removed++
		fr.logger.Info("frontend removed for decommissioned domain", logger.String("domain", gone))
	}

	fr.logger.Info("frontend resync completed",
		logger.Int("synced", report.Synced),
		logger.Int("unresolved", report.Unresolved),
		logger.Int("failed", report.Failed),
		logger.Int("removed", report.Removed))

	return report, nil
}

// removedDomains returns domains present in prev but not in next.
func removedDomains(prev, next *inventory.Snapshot) []string {
	if prev == nil {
		return nil
	}
	live := make(map[string]bool, len(next.Applications))
	for _, d := range next.Domains() {
		live[d] = true
	}

	var gone []string
	for _, d := range prev.Domains() {
		if !live[d] {
			gone = append(gone, d)
		}
	}
	return gone
}
