// Package session owns the live dashboard state for the active location. A
// single actor goroutine consumes triggers (search, device fix, manual
// refresh, periodic tick) and provider results, and is the only writer of the
// weather state and sync clock. Fetches run in per-request goroutines stamped
// with the epoch they were issued under; results from a superseded epoch are
// discarded.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-shield/internal/domain"
	"github.com/couchcryptid/weather-shield/internal/observability"
)

// DeviceLocationName labels a position obtained from the locator rather than
// a geocoded query.
const DeviceLocationName = "Current Location"

// User-facing error lines surfaced on the location display state.
const (
	msgSearchFailed    = "location not found, try a different search"
	msgDeviceFailed    = "positioning unavailable, search for a location instead"
	msgRefreshFailed   = "refresh failed, check connectivity and the provider key"
	msgBackgroundRetry = "background sync failed, retrying on the next tick"
)

// TelemetrySource produces the raw numeric snapshot for a coordinate.
type TelemetrySource interface {
	Fetch(ctx context.Context, coord domain.Coordinate) (domain.RawTelemetry, error)
}

// LocationStore persists the last known location across restarts. Absence is
// valid and not an error.
type LocationStore interface {
	SaveLocation(ctx context.Context, loc domain.ResolvedLocation) error
	LoadLocation(ctx context.Context) (domain.ResolvedLocation, bool, error)
}

// SeverityObserver is notified whenever the aggregate severity is recomputed.
type SeverityObserver interface {
	Observe(severity domain.Severity)
}

// AlertPublisher escalates a wholesale alert-set replacement to downstream
// notifiers. Optional.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, location string, alerts []domain.Alert) error
}

// LocationState is the display state of the active location.
type LocationState struct {
	Coord   domain.Coordinate `json:"coord"`
	Name    string            `json:"name"`
	Active  bool              `json:"active"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
}

// Snapshot is a point-in-time copy of everything the session owns.
type Snapshot struct {
	Location     LocationState        `json:"location"`
	Weather      *domain.WeatherState `json:"weather,omitempty"`
	Severity     domain.Severity      `json:"severity"`
	LastFullSync time.Time            `json:"last_full_sync"`
	Radar        domain.RadarMaps     `json:"radar"`
}

// Deps wires the session's collaborators.
type Deps struct {
	Telemetry   TelemetrySource
	Geocoder    domain.Geocoder
	Synthesizer domain.Synthesizer
	Locator     domain.Locator
	Radar       domain.RadarProvider
	Store       LocationStore
	Alarm       SeverityObserver
	Alerts      AlertPublisher // nil disables escalation
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	Clock       clockwork.Clock

	SyncInterval  time.Duration
	RadarInterval time.Duration
}

// Session is the actor. Create with New, drive with Run.
type Session struct {
	deps Deps

	triggers    chan trigger
	resolutions chan resolution
	refreshes   chan refreshResult
	radarFrames chan radarResult

	// locEpoch stamps location resolution requests and refreshEpoch stamps
	// refresh requests. Each is bumped when a request is issued, so a result
	// carrying anything but the latest stamp was superseded by a later
	// request and gets discarded. Only the actor touches them.
	locEpoch     uint64
	refreshEpoch uint64

	mu    sync.RWMutex
	view  Snapshot
	ready atomic.Bool
}

type triggerKind int

const (
	triggerSearch triggerKind = iota
	triggerDevice
	triggerManual
)

type trigger struct {
	kind  triggerKind
	query string
}

type resolution struct {
	epoch uint64
	loc   domain.ResolvedLocation
	err   error
	// persist is false for locations restored from the store.
	persist bool
}

type refreshResult struct {
	epoch    uint64
	path     domain.RefreshPath
	trigger  string
	raw      domain.RawTelemetry
	report   domain.SynthesisReport
	err      error
	duration time.Duration
}

type radarResult struct {
	maps domain.RadarMaps
	err  error
}

// New creates a Session. Run must be called before triggers have any effect.
func New(deps Deps) *Session {
	return &Session{
		deps:        deps,
		triggers:    make(chan trigger, 8),
		resolutions: make(chan resolution, 4),
		refreshes:   make(chan refreshResult, 4),
		radarFrames: make(chan radarResult, 1),
	}
}

// Search resolves a free-text query to a new active location and forces a
// full refresh. Non-blocking; drops the trigger if the queue is full.
func (s *Session) Search(query string) {
	s.offer(trigger{kind: triggerSearch, query: query})
}

// UseDeviceLocation switches to the device position and forces a full refresh.
func (s *Session) UseDeviceLocation() {
	s.offer(trigger{kind: triggerDevice})
}

// Refresh forces a manual full refresh of the active location.
func (s *Session) Refresh() {
	s.offer(trigger{kind: triggerManual})
}

func (s *Session) offer(t trigger) {
	select {
	case s.triggers <- t:
	default:
		s.deps.Logger.Warn("trigger queue full, dropping", "kind", t.kind)
	}
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.view
	if s.view.Weather != nil {
		w := *s.view.Weather
		snap.Weather = &w
	}
	return snap
}

// CheckReadiness returns nil once the first refresh has settled, success or
// failure.
func (s *Session) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("session has not completed a refresh yet")
	}
	return nil
}

// Run executes the actor loop until ctx is cancelled. On startup the last
// persisted location, when present, is restored and refreshed; otherwise the
// device position is tried.
func (s *Session) Run(ctx context.Context) error {
	s.deps.Logger.Info("session started",
		"sync_interval", s.deps.SyncInterval,
		"radar_interval", s.deps.RadarInterval,
	)
	s.deps.Metrics.SessionRunning.Set(1)
	defer s.deps.Metrics.SessionRunning.Set(0)

	s.bootstrap(ctx)
	s.startRadarFetch(ctx)

	syncTicker := s.deps.Clock.NewTicker(s.deps.SyncInterval)
	defer syncTicker.Stop()
	radarTicker := s.deps.Clock.NewTicker(s.deps.RadarInterval)
	defer radarTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.deps.Logger.Info("session stopping", "reason", ctx.Err())
			return nil
		case t := <-s.triggers:
			s.handleTrigger(ctx, t)
		case r := <-s.resolutions:
			s.applyResolution(ctx, r)
		case r := <-s.refreshes:
			s.applyRefresh(ctx, r)
		case r := <-s.radarFrames:
			s.applyRadar(r)
		case <-syncTicker.Chan():
			s.startRefresh(ctx, false)
		case <-radarTicker.Chan():
			s.startRadarFetch(ctx)
		}
	}
}

// bootstrap restores the persisted location or falls back to the device fix.
func (s *Session) bootstrap(ctx context.Context) {
	loc, ok, err := s.deps.Store.LoadLocation(ctx)
	if err != nil {
		s.deps.Logger.Warn("persisted location unreadable, treating as absent", "error", err)
		ok = false
	}
	if ok {
		s.deps.Logger.Info("restored persisted location", "name", loc.Name)
		s.applyResolution(ctx, resolution{epoch: s.locEpoch, loc: loc})
		return
	}
	s.handleTrigger(ctx, trigger{kind: triggerDevice})
}

func (s *Session) handleTrigger(ctx context.Context, t trigger) {
	switch t.kind {
	case triggerSearch:
		s.setLocationLoading()
		s.locEpoch++
		epoch := s.locEpoch
		go func() {
			loc, err := s.deps.Geocoder.ResolveQuery(ctx, t.query)
			s.deliverResolution(ctx, resolution{epoch: epoch, loc: loc, err: err, persist: true})
		}()
	case triggerDevice:
		s.setLocationLoading()
		s.locEpoch++
		epoch := s.locEpoch
		go func() {
			coord, err := s.deps.Locator.CurrentPosition(ctx)
			loc := domain.ResolvedLocation{Coord: coord, Name: DeviceLocationName}
			s.deliverResolution(ctx, resolution{epoch: epoch, loc: loc, err: err, persist: true})
		}()
	case triggerManual:
		s.startRefresh(ctx, true)
	}
}

// applyResolution installs a resolved location and kicks off a full refresh.
// Resolution failures keep the previous location and surface a display error.
// When resolutions overlap, whichever was requested last wins regardless of
// the order the responses arrive in.
func (s *Session) applyResolution(ctx context.Context, r resolution) {
	if r.epoch != s.locEpoch {
		s.deps.Metrics.StaleDiscards.Inc()
		s.deps.Logger.Debug("discarding superseded resolution", "name", r.loc.Name)
		return
	}

	if r.err != nil {
		msg := msgSearchFailed
		if errors.Is(r.err, domain.ErrGeolocationUnavailable) {
			msg = msgDeviceFailed
		}
		s.deps.Logger.Warn("location resolution failed", "error", r.err)
		s.mu.Lock()
		s.view.Location.Loading = false
		s.view.Location.Error = msg
		s.mu.Unlock()
		s.ready.Store(true)
		return
	}

	s.mu.Lock()
	s.view.Location = LocationState{
		Coord:   r.loc.Coord,
		Name:    r.loc.Name,
		Active:  true,
		Loading: true,
	}
	s.mu.Unlock()
	s.deps.Logger.Info("active location changed", "name", r.loc.Name,
		"lat", r.loc.Coord.Lat, "lon", r.loc.Coord.Lon)

	if r.persist {
		go func() {
			if err := s.deps.Store.SaveLocation(ctx, r.loc); err != nil {
				s.deps.Logger.Warn("persisting location failed", "error", err)
			}
		}()
	}
	s.startRefresh(ctx, true)
}

// startRefresh launches one refresh request for the active location. The path
// is decided up front from the freshness rule.
func (s *Session) startRefresh(ctx context.Context, manual bool) {
	s.mu.RLock()
	loc := s.view.Location
	hasState := s.view.Weather != nil
	lastFull := s.view.LastFullSync
	s.mu.RUnlock()

	if !loc.Active {
		return
	}

	path := domain.DecideRefreshPath(manual, hasState, lastFull, s.deps.Clock.Now())
	trig := "periodic"
	if manual {
		trig = "manual"
	}
	s.refreshEpoch++
	epoch := s.refreshEpoch

	s.mu.Lock()
	s.view.Location.Loading = true
	s.mu.Unlock()

	go func() {
		start := s.deps.Clock.Now()
		res := refreshResult{epoch: epoch, path: path, trigger: trig}

		res.raw, res.err = s.deps.Telemetry.Fetch(ctx, loc.Coord)
		if res.err == nil && path == domain.PathFull {
			res.report, res.err = s.deps.Synthesizer.Synthesize(ctx, loc.Coord, res.raw)
		}
		res.duration = s.deps.Clock.Since(start)
		select {
		case s.refreshes <- res:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) deliverResolution(ctx context.Context, r resolution) {
	select {
	case s.resolutions <- r:
	case <-ctx.Done():
	}
}

// applyRefresh folds one settled refresh into the view. Failures never clear
// existing weather state. A result stamped before the latest issued refresh
// is discarded so a slow sync can never overwrite numerics published by a
// newer one.
func (s *Session) applyRefresh(ctx context.Context, r refreshResult) {
	if r.epoch != s.refreshEpoch {
		s.deps.Metrics.StaleDiscards.Inc()
		s.deps.Logger.Debug("discarding superseded refresh", "path", r.path.String())
		return
	}

	outcome := "success"
	if r.err != nil {
		outcome = "error"
	}
	s.deps.Metrics.RefreshTotal.WithLabelValues(r.path.String(), r.trigger, outcome).Inc()
	s.deps.Metrics.RefreshDuration.WithLabelValues(r.path.String()).Observe(r.duration.Seconds())
	defer s.ready.Store(true)

	if r.err != nil {
		msg := msgBackgroundRetry
		if r.trigger == "manual" {
			msg = msgRefreshFailed
		}
		s.deps.Logger.Warn("refresh failed",
			"path", r.path.String(), "trigger", r.trigger, "error", r.err)
		s.mu.Lock()
		s.view.Location.Loading = false
		s.view.Location.Error = msg
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	switch r.path {
	case domain.PathCheap:
		patched := domain.ApplyObservations(*s.view.Weather, r.raw)
		s.view.Weather = &patched
	case domain.PathFull:
		state := domain.ComposeWeatherState(r.report, r.raw)
		s.view.Weather = &state
		s.view.LastFullSync = s.deps.Clock.Now()
	}
	s.view.Location.Loading = false
	s.view.Location.Error = ""
	severity := domain.HighestSeverity(s.view.Weather.Alerts)
	s.view.Severity = severity
	alerts := s.view.Weather.Alerts
	location := s.view.Location.Name
	s.mu.Unlock()

	s.deps.Logger.Info("refresh settled",
		"path", r.path.String(), "trigger", r.trigger,
		"severity", severity.String(), "duration", r.duration)

	s.deps.Metrics.ActiveSeverity.Set(float64(severity))
	s.deps.Alarm.Observe(severity)

	if r.path == domain.PathFull && s.deps.Alerts != nil {
		go func() {
			if err := s.deps.Alerts.PublishAlerts(ctx, location, alerts); err != nil {
				s.deps.Logger.Warn("alert escalation failed", "error", err)
			}
		}()
	}
}

func (s *Session) startRadarFetch(ctx context.Context) {
	go func() {
		maps, err := s.deps.Radar.Maps(ctx)
		select {
		case s.radarFrames <- radarResult{maps: maps, err: err}:
		default:
		}
	}()
}

func (s *Session) applyRadar(r radarResult) {
	if r.err != nil {
		s.deps.Metrics.RadarRefreshes.WithLabelValues("error").Inc()
		s.deps.Logger.Warn("radar refresh failed", "error", r.err)
		return
	}
	s.deps.Metrics.RadarRefreshes.WithLabelValues("success").Inc()
	s.mu.Lock()
	s.view.Radar = r.maps
	s.mu.Unlock()
}

func (s *Session) setLocationLoading() {
	s.mu.Lock()
	s.view.Location.Loading = true
	s.view.Location.Error = ""
	s.mu.Unlock()
}
