package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// persistTimeout bounds a single durable write by the background worker.
const persistTimeout = 5 * time.Second

// Auditor is the append-only, retention-bounded audit trail. Admission
// (enabled type, severity floor, rolling-hour cap) runs synchronously in
// LogEvent; durable writes happen on a single background worker behind a
// bounded queue, so callers on the real-time filtering path never wait on
// persistence latency.
type Auditor struct {
	cfg     Config
	store   Store
	logger  *zap.Logger
	enabled map[EventType]bool
	now     func() time.Time

	// rateStamps holds the admission times of the trailing hour, oldest
	// first, bounded by MaxEventsPerHour.
	rateMu     sync.Mutex
	rateStamps []time.Time

	queue chan queued
	quit  chan struct{}
	done  chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	dropped   atomic.Int64
	failures  atomic.Int64
}

// queued carries either an event to persist or a flush barrier.
type queued struct {
	event *Event
	flush chan struct{}
}

// New creates an auditor writing to the given store and starts its
// persistence worker. Call Close to stop the worker and release the store.
func New(cfg Config, store Store, log *zap.Logger) *Auditor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}

	a := &Auditor{
		cfg:    cfg,
		store:  store,
		logger: log,
		now:    time.Now,
		queue:  make(chan queued, cfg.QueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	if len(cfg.EnabledEventTypes) > 0 {
		a.enabled = make(map[EventType]bool, len(cfg.EnabledEventTypes))
		for _, t := range cfg.EnabledEventTypes {
			a.enabled[t] = true
		}
	}

	go a.run()

	log.Info("Auditor started",
		zap.Int("retention_days", cfg.RetentionDays),
		zap.String("minimum_severity", string(cfg.MinimumSeverity)),
		zap.Int("max_events_per_hour", cfg.MaxEventsPerHour),
		zap.Int("queue_size", cfg.QueueSize),
	)

	return a
}

// run drains the queue until quit is signalled. Persistence failures are
// absorbed: counted, logged, never propagated to callers.
func (a *Auditor) run() {
	defer close(a.done)
	for {
		select {
		case q := <-a.queue:
			a.handle(q)
		case <-a.quit:
			for {
				select {
				case q := <-a.queue:
					a.handle(q)
				default:
					return
				}
			}
		}
	}
}

func (a *Auditor) handle(q queued) {
	if q.flush != nil {
		close(q.flush)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := a.store.Append(ctx, q.event); err != nil {
		a.failures.Add(1)
		a.logger.Error("Failed to persist audit event",
			zap.Error(err),
			zap.String("event_type", string(q.event.Type)))
	}
}

// LogEvent admits the event and hands it to the persistence worker. Events
// of a disabled type, below the severity floor, or past the rolling-hour cap
// are dropped silently; a full queue drops the event rather than blocking.
func (a *Auditor) LogEvent(event Event) {
	if a.closed.Load() {
		return
	}
	if a.enabled != nil && !a.enabled[event.Type] {
		return
	}
	if event.Severity.Rank() < a.cfg.MinimumSeverity.Rank() {
		return
	}

	now := a.now()
	if !a.admit(now) {
		a.dropped.Add(1)
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = now
	}

	select {
	case a.queue <- queued{event: &event}:
	default:
		a.dropped.Add(1)
	}
}

// admit enforces the rolling-hour cap: the count of events admitted in the
// trailing hour never exceeds MaxEventsPerHour. Capacity returns only as
// prior admissions age past the hour, never by gradual refill.
func (a *Auditor) admit(now time.Time) bool {
	if a.cfg.MaxEventsPerHour <= 0 {
		return true
	}

	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	cutoff := now.Add(-time.Hour)
	expired := 0
	for expired < len(a.rateStamps) && !a.rateStamps[expired].After(cutoff) {
		expired++
	}
	if expired > 0 {
		a.rateStamps = append(a.rateStamps[:0], a.rateStamps[expired:]...)
	}

	if len(a.rateStamps) >= a.cfg.MaxEventsPerHour {
		return false
	}
	a.rateStamps = append(a.rateStamps, now)
	return true
}

// RecentEvents returns up to limit persisted events, newest first. An empty
// or unavailable store yields an empty slice.
func (a *Auditor) RecentEvents(limit int) []Event {
	if limit <= 0 {
		return nil
	}
	events, err := a.store.Recent(context.Background(), limit)
	if err != nil {
		return nil
	}
	return events
}

// EventsByType returns up to limit persisted events of one type, newest
// first.
func (a *Auditor) EventsByType(eventType EventType, limit int) []Event {
	if limit <= 0 {
		return nil
	}
	events, err := a.store.ByType(context.Background(), eventType, limit)
	if err != nil {
		return nil
	}
	return events
}

// CleanupOldRecords deletes every event older than the retention window and
// reports how many were removed. Safe to run concurrently with logging and
// queries.
func (a *Auditor) CleanupOldRecords() int64 {
	cutoff := time.Now().AddDate(0, 0, -a.cfg.RetentionDays)
	deleted, err := a.store.DeleteBefore(context.Background(), cutoff)
	if err != nil {
		return 0
	}
	if deleted > 0 {
		a.logger.Info("Audit retention prune completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted
}

// StartCleanupRoutine prunes expired events on the given interval until the
// auditor is closed.
func (a *Auditor) StartCleanupRoutine(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.CleanupOldRecords()
			case <-a.quit:
				return
			}
		}
	}()
}

// Flush blocks until every event enqueued before the call has been handed to
// the store.
func (a *Auditor) Flush() {
	if a.closed.Load() {
		return
	}
	barrier := make(chan struct{})
	select {
	case a.queue <- queued{flush: barrier}:
		select {
		case <-barrier:
		case <-a.done:
		}
	case <-a.quit:
	}
}

// DroppedEvents reports how many events were shed by the rate cap or a full
// queue.
func (a *Auditor) DroppedEvents() int64 {
	return a.dropped.Load()
}

// PersistFailures reports how many accepted events failed to reach the store.
func (a *Auditor) PersistFailures() int64 {
	return a.failures.Load()
}

// Close drains pending events, stops the worker, and closes the store.
func (a *Auditor) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		close(a.quit)
		<-a.done
		err = a.store.Close()
		a.logger.Info("Auditor stopped",
			zap.Int64("dropped_events", a.dropped.Load()),
			zap.Int64("persist_failures", a.failures.Load()))
	})
	return err
}
