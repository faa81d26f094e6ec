package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reviewlens-backend/lib/userstore"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("reviewlens.lib.session")

type Config struct {
	// DebounceDelay coalesces bursts of activity into one flush.
	DebounceDelay time.Duration
	// HeartbeatInterval is the keep-alive cadence, independent of the
	// debounce.
	HeartbeatInterval time.Duration
	// Now is the clock, overridable in tests.
	Now func() time.Time
}

const (
	DefaultDebounceDelay     = 2 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = DefaultDebounceDelay
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Tracker accumulates behavioral signal for the active session and emits
// snapshots to a collector. Timers fire on their own goroutines, so
// internal state is guarded by a mutex.
type Tracker struct {
	cfg       Config
	collector Collector

	mu            sync.Mutex
	session       *state
	activityDirty bool
	debounce      *time.Timer
	heartbeatStop chan struct{}
	lastFlush     time.Time
}

func NewTracker(collector Collector, cfg Config) *Tracker {
	return &Tracker{
		cfg:       cfg.withDefaults(),
		collector: collector,
	}
}

func (t *Tracker) Authenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

// Login enters the Authenticated state: session start is recorded, an
// immediate login snapshot is emitted and the heartbeat begins.
func (t *Tracker) Login(ctx context.Context, identity userstore.Identity) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	t.mu.Lock()
	if t.session != nil {
		t.stopTimersLocked()
	}
	now := t.cfg.Now()
	t.session = &state{
		identity:    identity,
		start:       now,
		uniquePages: map[string]struct{}{},
	}
	t.lastFlush = now
	t.activityDirty = false
	snap := t.snapshotLocked(ActionLogin)
	t.startHeartbeatLocked()
	t.mu.Unlock()

	t.emit(ctx, snap)
}

// VisitPage notes the current page; the url joins the unique-page set.
func (t *Tracker) VisitPage(url, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return
	}
	t.session.currentURL = url
	t.session.pageTitle = title
	t.session.uniquePages[url] = struct{}{}
}

// RecordClick appends to the click stream and marks activity.
func (t *Tracker) RecordClick(click Click) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	if click.Timestamp.IsZero() {
		click.Timestamp = t.cfg.Now()
	}
	t.session.clicks = append(t.session.clicks, click)
	if click.URL != "" {
		t.session.uniquePages[click.URL] = struct{}{}
	}
	t.markActivityLocked()
	t.mu.Unlock()
}

// RecordScroll marks activity without touching the click stream.
func (t *Tracker) RecordScroll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return
	}
	t.markActivityLocked()
}

// markActivityLocked arms (or re-arms) the debounce; only the last event
// within the window wins the delay, so a burst produces a single flush.
// Arming happens inside the same critical section as the event itself, so
// a concurrent Logout can never strand a dirty flag for the next session.
func (t *Tracker) markActivityLocked() {
	if t.session == nil {
		return
	}
	t.activityDirty = true
	if t.debounce != nil {
		t.debounce.Stop()
	}
	t.debounce = time.AfterFunc(t.cfg.DebounceDelay, t.flushActivity)
}

func (t *Tracker) flushActivity() {
	t.mu.Lock()
	if !t.activityDirty || t.session == nil {
		t.mu.Unlock()
		return
	}
	t.activityDirty = false
	t.lastFlush = t.cfg.Now()
	snap := t.snapshotLocked(ActionActivitySync)
	t.mu.Unlock()

	t.emit(context.Background(), snap)
}

func (t *Tracker) startHeartbeatLocked() {
	stop := make(chan struct{})
	t.heartbeatStop = stop
	interval := t.cfg.HeartbeatInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.heartbeat()
			case <-stop:
				return
			}
		}
	}()
}

// heartbeat emits a periodic_sync only when a full interval has passed
// since the last flush of any kind, a dead-man's-switch keep-alive.
func (t *Tracker) heartbeat() {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	now := t.cfg.Now()
	if now.Sub(t.lastFlush) < t.cfg.HeartbeatInterval {
		t.mu.Unlock()
		return
	}
	t.lastFlush = now
	snap := t.snapshotLocked(ActionPeriodicSync)
	t.mu.Unlock()

	t.emit(context.Background(), snap)
}

// SetSummaryVisible drives dwell-time measurement: a visible->hidden
// transition folds the elapsed interval into the running total.
func (t *Tracker) SetSummaryVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return
	}
	now := t.cfg.Now()
	if visible {
		if t.session.visibleSince == nil {
			t.session.visibleSince = &now
		}
		return
	}
	t.finalizeDwellLocked(now)
}

func (t *Tracker) finalizeDwellLocked(now time.Time) {
	if t.session == nil || t.session.visibleSince == nil {
		return
	}
	elapsed := now.Sub(*t.session.visibleSince)
	if elapsed > 0 {
		t.session.dwell += elapsed
	}
	t.session.visibleSince = nil
}

// Suspend finalizes the dwell timer when the tab goes hidden.
func (t *Tracker) Suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalizeDwellLocked(t.cfg.Now())
}

// Resume reports the tab becoming visible again.
func (t *Tracker) Resume(ctx context.Context) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	snap := t.snapshotLocked(ActionPageVisible)
	t.mu.Unlock()
	t.emit(ctx, snap)
}

// Unload finalizes dwell and emits a final snapshot on tab teardown. The
// session survives; a reloaded tab picks it back up through Login.
func (t *Tracker) Unload(ctx context.Context) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	t.finalizeDwellLocked(t.cfg.Now())
	snap := t.snapshotLocked(ActionPageUnload)
	t.mu.Unlock()
	t.emit(ctx, snap)
}

// RecordComparison emits a comparison snapshot with its stats attached.
func (t *Tracker) RecordComparison(ctx context.Context, stats ComparisonStats) {
	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	snap := t.snapshotLocked(ActionComparison)
	snap.Comparison = &stats
	t.mu.Unlock()
	t.emit(ctx, snap)
}

// Logout finalizes dwell, emits the logout snapshot synchronously, then
// clears the session and stops both timers.
func (t *Tracker) Logout(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Logout")
	defer span.End()

	t.mu.Lock()
	if t.session == nil {
		t.mu.Unlock()
		return
	}
	now := t.cfg.Now()
	t.finalizeDwellLocked(now)
	snap := t.snapshotLocked(ActionLogout)
	end := now
	snap.SessionEnd = &end
	t.stopTimersLocked()
	t.session = nil
	t.activityDirty = false
	t.mu.Unlock()

	t.emit(ctx, snap)
}

func (t *Tracker) stopTimersLocked() {
	if t.debounce != nil {
		t.debounce.Stop()
		t.debounce = nil
	}
	if t.heartbeatStop != nil {
		close(t.heartbeatStop)
		t.heartbeatStop = nil
	}
}

func (t *Tracker) snapshotLocked(action string) Snapshot {
	s := t.session
	now := t.cfg.Now()

	dwell := s.dwell
	// a currently-visible summary contributes nothing until hidden

	clicks := make([]Click, len(s.clicks))
	copy(clicks, s.clicks)
	if len(clicks) == 0 {
		clicks = nil
	}

	return Snapshot{
		UserID:              s.identity.UserID,
		Email:               s.identity.Email,
		ReviewerVersion:     s.identity.ReviewerVersion,
		Timestamp:           now,
		Action:              action,
		SessionDuration:     now.Sub(s.start).Seconds(),
		SummaryViewDuration: dwell.Seconds(),
		CurrentURL:          s.currentURL,
		PageTitle:           s.pageTitle,
		PageClicks:          clicks,
		SessionStart:        s.start,
		TotalClicks:         len(s.clicks),
		UniquePages:         len(s.uniquePages),
	}
}

// emit is fire-and-forget: a failed delivery is logged and dropped, never
// queued or retried.
func (t *Tracker) emit(ctx context.Context, snap Snapshot) {
	err := t.collector.Collect(ctx, snap)
	if err != nil {
		slog.WarnContext(ctx, "failed to deliver session snapshot", "action", snap.Action, "err", err)
	}
}
