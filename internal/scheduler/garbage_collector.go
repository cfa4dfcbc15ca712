package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/castplay/internal/logger"
)

// DefaultGCInterval is how often stale device activity is looked for
const DefaultGCInterval = time.Hour

// ActivityStore is the part of the Redis activity store the collector needs.
type ActivityStore interface {
	ActiveDevices(ctx context.Context) ([]string, error)
	ForgetDevice(ctx context.Context, device string) error
}

// GarbageCollector removes the Redis activity of devices that were dropped
// from the device map, so /devices/active only lists configured devices.
// Activity of configured devices expires on its own through the key TTL.
type GarbageCollector struct {
	store    ActivityStore
	known    func(name string) bool
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewGarbageCollector creates a collector. known reports whether a device
// name is still configured.
func NewGarbageCollector(
	store ActivityStore,
	known func(name string) bool,
	log logger.Logger,
	interval time.Duration,
) *GarbageCollector {
	if interval <= 0 {
		interval = DefaultGCInterval
	}

	return &GarbageCollector{
		store:    store,
		known:    known,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a first collection and then collects periodically
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if _, err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial activity collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := gc.Collect(ctx); err != nil {
					gc.logger.Error("activity collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the periodic collection. Safe to call more than once.
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
}

// Collect forgets every device with activity that is no longer configured
// and returns how many were removed.
func (gc *GarbageCollector) Collect(ctx context.Context) (int, error) {
	devices, err := gc.store.ActiveDevices(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, name := range devices {
		if gc.known(name) {
			continue
		}
		if err := gc.store.ForgetDevice(ctx, name); err != nil {
			gc.logger.Warn("failed to forget device activity",
				logger.String("device", name),
				logger.Error(err))
			continue
		}
		gc.logger.Info("forgot activity of unconfigured device",
			logger.String("device", name))
		deleted++
	}

	if deleted == 0 {
		gc.logger.Debug("no device activity to collect")
	}
	return deleted, nil
}
