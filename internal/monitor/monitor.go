package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lumi-launcher/backend/internal/logging"
	"github.com/lumi-launcher/backend/internal/models"
	"github.com/lumi-launcher/backend/internal/websocket"
	"github.com/robfig/cron/v3"
)

// MessageType tags installation summary pushes.
const MessageType = "installations"

// Store lists saved installations and remembers their last status.
type Store interface {
	List(ctx context.Context) ([]models.SavedInstallation, error)
	RecordStatuses(ctx context.Context, summaries []models.InstallationSummary) ([]string, error)
}

// Prober turns saved installations into summaries.
type Prober interface {
	ProbeAll(ctx context.Context, installations []models.SavedInstallation) []models.InstallationSummary
}

// Publisher pushes a message to every client in a room.
type Publisher interface {
	BroadcastToRoom(room string, msgType string, payload interface{})
}

// Monitor periodically probes every saved installation and publishes the summaries.
type Monitor struct {
	store     Store
	prober    Prober
	publisher Publisher
	schedule  string

	cron *cron.Cron
	// held for the whole of a probe run so runs never overlap
	running sync.Mutex
	log     *slog.Logger
}

func NewMonitor(store Store, prober Prober, publisher Publisher, schedule string) *Monitor {
	return &Monitor{
		store:     store,
		prober:    prober,
		publisher: publisher,
		schedule:  schedule,
		log:       logging.Component("monitor"),
	}
}

// Start schedules probe runs until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	logger := cronLogger{log: m.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(m.schedule, func() { m.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid monitor schedule %q: %w", m.schedule, err)
	}

	m.cron = c
	c.Start()
	m.log.Info("monitor_started", "schedule", m.schedule)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running probe to finish.
func (m *Monitor) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
}

// tick skips when a previous run is still probing.
func (m *Monitor) tick(ctx context.Context) {
	if !m.running.TryLock() {
		m.log.Debug("tick_skipped")
		return
	}
	defer m.running.Unlock()

	if _, err := m.run(ctx); err != nil {
		m.log.Warn("probe_run_failed", "error", err)
	}
}

// RefreshNow probes immediately, waiting for any scheduled run in progress, and
// publishes the result.
func (m *Monitor) RefreshNow(ctx context.Context) ([]models.InstallationSummary, error) {
	m.running.Lock()
	defer m.running.Unlock()

	return m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) ([]models.InstallationSummary, error) {
	installations, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list installations: %w", err)
	}

	summaries := m.prober.ProbeAll(ctx, installations)

	changed, err := m.store.RecordStatuses(ctx, summaries)
	if err != nil {
		m.log.Warn("record_status_failed", "error", err)
	}
	for _, summary := range summaries {
		if summary.ErrorMessage != nil {
			m.log.Warn("installation_error", "id", summary.ID, "path", summary.Path, "error", *summary.ErrorMessage)
		}
	}
	if len(changed) > 0 {
		m.log.Info("status_changed", "ids", changed)
	}

	m.publisher.BroadcastToRoom(websocket.InstallationsRoom, MessageType, summaries)
	return summaries, nil
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
