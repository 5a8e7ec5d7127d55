package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ishaanzatey/incident-handler/pkg/logger"
)

// DefaultRunInterval is used when no interval is configured.
const DefaultRunInterval = 15 * time.Minute

// Monitor triggers pipeline runs on a fixed interval. It owns the
// scheduling only; run serialization lives in the Runner, so a manual
// trigger overlapping a scheduled run is rejected rather than interleaved.
type Monitor struct {
	runner   *Runner
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewMonitor creates a monitor for the given runner. A non-positive
// interval selects the default. Returns nil when runner is nil.
func NewMonitor(runner *Runner, interval time.Duration) *Monitor {
	if runner == nil {
		return nil
	}
	if interval <= 0 {
		interval = DefaultRunInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		runner:   runner,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins scheduled pipeline runs: one immediately, then one per
// interval. It blocks until Stop is called. Run failures are logged and
// never stop the schedule.
func (m *Monitor) Start() {
	if m == nil || m.runner == nil {
		return
	}

	logger.Infof("Starting incident resolution pipeline - interval: %v", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.trigger()

	for {
		select {
		case <-ticker.C:
			m.trigger()
		case <-m.ctx.Done():
			logger.Infof("Incident resolution pipeline stopped")
			return
		}
	}
}

func (m *Monitor) trigger() {
	if _, err := m.runner.Run(m.ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			logger.Infof("Skipping scheduled run: previous run still in progress")
			return
		}
		logger.Errorf("Pipeline run failed: %v", err)
	}
}

// Stop cancels the schedule and any in-flight run.
func (m *Monitor) Stop() {
	if m != nil && m.cancel != nil {
		m.cancel()
	}
}
