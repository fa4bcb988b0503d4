package publisher

import (
	"context"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	. "github.com/ncngteam/miniapp/utils/log"
)

const (
	sweepTopic = "content.sweep"

	// DefaultSweepInterval trades admin-facing status freshness for load: the
	// read side derives visibility from scheduled_at independently, so end
	// users never wait for a sweep, only the status label lags.
	DefaultSweepInterval = time.Hour

	// DefaultStartupDelay catches items that became overdue while the process
	// was down, shortly after boot.
	DefaultStartupDelay = 10 * time.Second

	// After this many consecutive failed sweeps, escalate the log level:
	// silent repeated failures would delay publication indefinitely.
	failureWarnThreshold = 3
)

// Sweeper owns the autonomous sweep sources: one startup sweep after a short
// delay, then a fixed-period sweep for the lifetime of the process. Both
// publish a sweep command onto an in-process bus consumed by a single worker
// that runs the reconciler, so timers never block on a slow store.
//
// The period is wall-clock fixed: the ticker does not wait for a prior sweep
// to finish, and overlapping sweeps are safe because the reconciler is
// idempotent.
type Sweeper struct {
	db           *gorm.DB
	interval     time.Duration
	startupDelay time.Duration
	bus          *gochannel.GoChannel

	// Touched only by the consumer goroutine inside Run.
	consecutiveFailures int
}

func NewSweeper(db *gorm.DB) *Sweeper {
	return &Sweeper{
		db:           db,
		interval:     durationFromEnv("SWEEP_INTERVAL", DefaultSweepInterval),
		startupDelay: durationFromEnv("SWEEP_STARTUP_DELAY", DefaultStartupDelay),
		bus:          gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		Log.Warnf("invalid %s %q, using default %s", key, raw, fallback)
		return fallback
	}
	return d
}

// Run drives the sweep loop until ctx is cancelled. It never returns an error
// from a sweep itself; a failed sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	msgs, err := s.bus.Subscribe(ctx, sweepTopic)
	if err != nil {
		return err
	}

	go s.publishLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			s.bus.Close()
			Log.Info("content sweeper stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			s.handleSweep(ctx, msg)
		}
	}
}

func (s *Sweeper) publishLoop(ctx context.Context) {
	startup := time.NewTimer(s.startupDelay)
	defer startup.Stop()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-startup.C:
			Log.Info("starting initial auto-publish check")
			s.TriggerSweep()
		case <-ticker.C:
			s.TriggerSweep()
		}
	}
}

// TriggerSweep enqueues one sweep command. Safe to call from any goroutine.
func (s *Sweeper) TriggerSweep() {
	msg := message.NewMessage(watermill.NewUUID(), nil)
	if err := s.bus.Publish(sweepTopic, msg); err != nil {
		Log.Error("fail to publish sweep request: ", err)
	}
}

func (s *Sweeper) handleSweep(ctx context.Context, msg *message.Message) {
	defer msg.Ack()
	defer func() {
		// A sweep must never crash the host process, sweeps recur and the next
		// one will retry.
		if r := recover(); r != nil {
			Log.Error("sweep panicked: ", r)
			s.recordFailure()
		}
	}()

	count, err := AutoPublishOverdue(ctx, s.db, time.Now())
	if err != nil {
		Log.Error("sweep failed: ", err)
		s.recordFailure()
		return
	}

	s.consecutiveFailures = 0
	if count > 0 {
		Log.Infof("sweep published %d content items", count)
	}
}

func (s *Sweeper) recordFailure() {
	s.consecutiveFailures++
	if s.consecutiveFailures >= failureWarnThreshold {
		Log.Warnf("%d consecutive sweep failures, scheduled content is not being published", s.consecutiveFailures)
	}
}
