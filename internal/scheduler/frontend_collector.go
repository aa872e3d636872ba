package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/MrSnakeDoc/harbor/internal/inventory"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
)

// DefaultGCSchedule runs the collector hourly
const DefaultGCSchedule = "@every 1h"

// KeyScanner lists keys by prefix
type KeyScanner interface {
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
}

// FrontendCollector removes routing entries whose domain no longer belongs
// to any application, such as leftovers from a crash between an inventory
// change and its resync.
type FrontendCollector struct {
	store     KeyScanner
	registry  *inventory.Registry
	publisher FrontendPublisher
	logger    logger.Logger
	schedule  string
	cron      *cron.Cron
}

// NewFrontendCollector creates a collector running on a cron schedule
func NewFrontendCollector(
	store KeyScanner,
	registry *inventory.Registry,
	publisher FrontendPublisher,
	log logger.Logger,
	schedule string,
) *FrontendCollector {
	if schedule == "" {
		schedule = DefaultGCSchedule
	}

	return &FrontendCollector{
		store:     store,
		registry:  registry,
		publisher: publisher,
		logger:    log,
		schedule:  schedule,
		cron:      cron.New(),
	}
}

// Start collects once, then on every schedule tick
func (gc *FrontendCollector) Start(ctx context.Context) error {
	if _, err := gc.cron.AddFunc(gc.schedule, func() {
		if _, err := gc.Collect(ctx); err != nil {
			gc.logger.Error("frontend collection failed", logger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid collector schedule %q: %w", gc.schedule, err)
	}

	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial frontend collection failed", logger.Error(err))
	}

	gc.cron.Start()
	return nil
}

// Stop stops the schedule and waits for a running collection to finish
func (gc *FrontendCollector) Stop() {
	<-gc.cron.Stop().Done()
}

// Collect deletes stale frontend:* keys and returns how many it removed.
// It does nothing while the registry holds no applications.
func (gc *FrontendCollector) Collect(ctx context.Context) (int, error) {
	if gc.registry.LastReload().IsZero() {
		gc.logger.Debug("inventory not loaded yet, skipping frontend collection")
		return 0, nil
	}

	if _, apps, _ := gc.registry.Counts(); apps == 0 {
		gc.logger.Warn("inventory has no applications, skipping frontend collection")
		return 0, nil
	}

	keys, err := gc.store.ScanKeys(ctx, redisstore.KeyPrefixFrontend)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		domainName, err := redisstore.ExtractFrontendDomain(key)
		if err != nil || gc.registry.HasDomain(domainName) {
			continue
		}

		if err := gc.publisher.Remove(ctx, domainName); err != nil {
			gc.logger.Warn("failed to remove stale frontend",
				logger.String("domain", domainName),
				logger.Error(err))
			continue
		}
		removed++
		gc.logger.Info("garbage collected stale frontend", logger.String("domain", domainName))
	}

	if removed == 0 {
		gc.logger.Debug("no stale frontends to collect")
	}
	return removed, nil
}
