package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-shield/internal/domain"
	"github.com/couchcryptid/weather-shield/internal/observability"
)

type fakeTelemetry struct {
	mu    sync.Mutex
	err   error
	gate  chan struct{} // when non-nil, Fetch blocks until closed
	calls int
}

func (f *fakeTelemetry) Fetch(_ context.Context, coord domain.Coordinate) (domain.RawTelemetry, error) {
	f.mu.Lock()
	f.calls++
	seq := f.calls
	gate := f.gate
	err := f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return domain.RawTelemetry{}, err
	}
	// Stamp the coordinate into the temperature and the fetch sequence into
	// the wind speed so tests can tell which result was applied.
	return domain.RawTelemetry{Temp: coord.Lat, Humidity: 20, WindSpeed: float64(seq)}, nil
}

func (f *fakeTelemetry) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeTelemetry) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeGeocoder struct {
	loc     domain.ResolvedLocation
	err     error
	byQuery map[string]domain.ResolvedLocation
	gates   map[string]chan struct{} // a present gate blocks that query until closed
}

func (f *fakeGeocoder) ResolveQuery(_ context.Context, query string) (domain.ResolvedLocation, error) {
	if gate, ok := f.gates[query]; ok {
		<-gate
	}
	if loc, ok := f.byQuery[query]; ok {
		return loc, nil
	}
	return f.loc, f.err
}

type fakeSynthesizer struct {
	mu     sync.Mutex
	report domain.SynthesisReport
	err    error
	gate   chan struct{} // when non-nil, Synthesize blocks until closed
	calls  int
}

func (f *fakeSynthesizer) Synthesize(context.Context, domain.Coordinate, domain.RawTelemetry) (domain.SynthesisReport, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	report, err := f.report, f.err
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return report, err
}

func (f *fakeSynthesizer) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeSynthesizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLocator struct {
	coord domain.Coordinate
	err   error
}

func (f *fakeLocator) CurrentPosition(context.Context) (domain.Coordinate, error) {
	return f.coord, f.err
}

type fakeRadar struct {
	maps domain.RadarMaps
	err  error
}

func (f *fakeRadar) Maps(context.Context) (domain.RadarMaps, error) {
	return f.maps, f.err
}

type memStore struct {
	mu  sync.Mutex
	loc domain.ResolvedLocation
	ok  bool
}

func (m *memStore) SaveLocation(_ context.Context, loc domain.ResolvedLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loc, m.ok = loc, true
	return nil
}

func (m *memStore) LoadLocation(context.Context) (domain.ResolvedLocation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loc, m.ok, nil
}

type recordingAlarm struct {
	mu   sync.Mutex
	seen []domain.Severity
}

func (r *recordingAlarm) Observe(severity domain.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, severity)
}

func (r *recordingAlarm) last() (domain.Severity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return domain.SeverityNone, false
	}
	return r.seen[len(r.seen)-1], true
}

type fixture struct {
	session   *Session
	telemetry *fakeTelemetry
	geocoder  *fakeGeocoder
	synth     *fakeSynthesizer
	locator   *fakeLocator
	store     *memStore
	alarm     *recordingAlarm
	clock     *clockwork.FakeClock
}

func testReport() domain.SynthesisReport {
	return domain.SynthesisReport{
		Condition:            "dust storm",
		Location:             "Riyadh",
		RiskAnalysis:         "heat compounds particulates",
		InfrastructureImpact: "reduced visibility on highways",
		Protocols:            []string{"stay indoors"},
		Forecast:             []domain.ForecastDay{{Day: "Sat", Temp: "36°", Condition: "dusty"}},
		Alerts: []domain.Alert{{
			ID: "a1", Title: "Dust storm", Description: "dense dust",
			Severity: domain.SeverityHigh, Type: "dust", Timestamp: "2026-03-14 09:00",
		}},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		telemetry: &fakeTelemetry{},
		geocoder:  &fakeGeocoder{},
		synth:     &fakeSynthesizer{report: testReport()},
		locator:   &fakeLocator{err: domain.ErrGeolocationUnavailable},
		store:     &memStore{},
		alarm:     &recordingAlarm{},
		clock:     clockwork.NewFakeClock(),
	}
}

// start builds the session and runs the actor; the returned fixture snapshot
// helpers poll until the expected condition settles.
func (f *fixture) start(t *testing.T) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.session = New(Deps{
		Telemetry:     f.telemetry,
		Geocoder:      f.geocoder,
		Synthesizer:   f.synth,
		Locator:       f.locator,
		Radar:         &fakeRadar{maps: domain.RadarMaps{Host: "https://tilecache.rainviewer.com"}},
		Store:         f.store,
		Alarm:         f.alarm,
		Logger:        logger,
		Metrics:       observability.NewMetricsForTesting(),
		Clock:         f.clock,
		SyncInterval:  time.Minute,
		RadarInterval: 5 * time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.session.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Both background tickers registered means the actor loop is live.
	f.clock.BlockUntil(2)
}

func (f *fixture) waitWeather(t *testing.T) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = f.session.Snapshot()
		return snap.Weather != nil && !snap.Location.Loading
	}, time.Second, time.Millisecond)
	return snap
}

func TestSession_BootstrapFromPersistedLocation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7, Lon: 46.7}, Name: "Riyadh"}))
	f.start(t)

	snap := f.waitWeather(t)
	assert.Equal(t, "Riyadh", snap.Location.Name)
	assert.Equal(t, 24.7, snap.Weather.Temp)
	assert.Equal(t, "heat compounds particulates", snap.Weather.RiskAnalysis)
	assert.Equal(t, domain.SeverityHigh, snap.Severity)
	assert.False(t, snap.LastFullSync.IsZero())
	assert.NoError(t, f.session.CheckReadiness(context.Background()))

	last, ok := f.alarm.last()
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, last)
}

func TestSession_BootstrapFallsBackToDevice(t *testing.T) {
	f := newFixture(t)
	f.locator.err = nil
	f.locator.coord = domain.Coordinate{Lat: 10, Lon: 20}
	f.start(t)

	snap := f.waitWeather(t)
	assert.Equal(t, DeviceLocationName, snap.Location.Name)
	assert.Equal(t, float64(10), snap.Weather.Temp)

	// The device fix is persisted for the next start.
	loc, ok, err := f.store.LoadLocation(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DeviceLocationName, loc.Name)
}

func TestSession_DeviceUnavailableSurfacesError(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	require.Eventually(t, func() bool {
		return f.session.CheckReadiness(context.Background()) == nil
	}, time.Second, time.Millisecond)

	snap := f.session.Snapshot()
	assert.Nil(t, snap.Weather)
	assert.Equal(t, msgDeviceFailed, snap.Location.Error)
}

func TestSession_SearchReplacesLocation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	f.waitWeather(t)

	f.geocoder.loc = domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 21.5, Lon: 39.2}, Name: "Jeddah"}
	f.session.Search("jeddah")

	require.Eventually(t, func() bool {
		snap := f.session.Snapshot()
		return snap.Location.Name == "Jeddah" && !snap.Location.Loading && snap.Weather.Temp == 21.5
	}, time.Second, time.Millisecond)
}

func TestSession_SearchFailureKeepsPreviousLocation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	f.waitWeather(t)

	f.geocoder.err = domain.ErrLocationResolution
	f.session.Search("nowhere")

	require.Eventually(t, func() bool {
		snap := f.session.Snapshot()
		return snap.Location.Error == msgSearchFailed
	}, time.Second, time.Millisecond)

	snap := f.session.Snapshot()
	assert.Equal(t, "Riyadh", snap.Location.Name)
	assert.NotNil(t, snap.Weather)
}

func TestSession_PeriodicTickTakesCheapPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	f.waitWeather(t)
	require.Equal(t, 1, f.synth.callCount())
	baseline := f.telemetry.callCount()

	f.clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		return f.telemetry.callCount() > baseline
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		return !f.session.Snapshot().Location.Loading
	}, time.Second, time.Millisecond)

	// Telemetry was refetched, the narrative was not resynthesized.
	assert.Equal(t, 1, f.synth.callCount())
	snap := f.session.Snapshot()
	assert.Equal(t, "heat compounds particulates", snap.Weather.RiskAnalysis)
	assert.Len(t, snap.Weather.Alerts, 1)
}

func TestSession_StaleStateForcesFullPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	f.waitWeather(t)
	require.Equal(t, 1, f.synth.callCount())

	f.clock.Advance(domain.StaleThreshold + time.Minute)
	require.Eventually(t, func() bool {
		return f.synth.callCount() > 1
	}, time.Second, time.Millisecond)
}

func TestSession_ManualRefreshAlwaysFull(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	f.waitWeather(t)
	require.Equal(t, 1, f.synth.callCount())

	f.session.Refresh()
	require.Eventually(t, func() bool {
		return f.synth.callCount() == 2
	}, time.Second, time.Millisecond)
}

func TestSession_RefreshFailureKeepsWeatherState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	f.waitWeather(t)

	f.telemetry.setErr(errors.New("upstream down"))
	f.session.Refresh()

	require.Eventually(t, func() bool {
		return f.session.Snapshot().Location.Error == msgRefreshFailed
	}, time.Second, time.Millisecond)

	snap := f.session.Snapshot()
	require.NotNil(t, snap.Weather)
	assert.Equal(t, "heat compounds particulates", snap.Weather.RiskAnalysis)
}

func TestSession_StaleEpochResultDiscarded(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))

	gate := make(chan struct{})
	f.telemetry.gate = gate
	f.start(t)

	// Bootstrap refresh for Riyadh is in flight behind the gate. Switching
	// to Jeddah makes that result stale before it lands.
	f.geocoder.loc = domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 21.5}, Name: "Jeddah"}
	f.session.Search("jeddah")
	require.Eventually(t, func() bool {
		return f.telemetry.callCount() == 2
	}, time.Second, time.Millisecond)
	close(gate)

	require.Eventually(t, func() bool {
		snap := f.session.Snapshot()
		return snap.Weather != nil && !snap.Location.Loading
	}, time.Second, time.Millisecond)

	snap := f.session.Snapshot()
	assert.Equal(t, "Jeddah", snap.Location.Name)
	assert.Equal(t, 21.5, snap.Weather.Temp)
}

func TestSession_SlowFullSyncNeverClobbersNewerCheapSync(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	first := f.waitWeather(t)
	require.Equal(t, float64(1), first.Weather.WindSpeed)

	// A manual full refresh stalls inside synthesis.
	gate := make(chan struct{})
	f.synth.setGate(gate)
	f.session.Refresh()
	require.Eventually(t, func() bool {
		return f.synth.callCount() == 2
	}, time.Second, time.Millisecond)

	// A periodic cheap sync publishes fresher numerics meanwhile.
	f.clock.Advance(time.Minute)
	require.Eventually(t, func() bool {
		return f.session.Snapshot().Weather.WindSpeed == 3
	}, time.Second, time.Millisecond)

	// The stalled full sync landing late must not roll the numerics back or
	// move the full-sync clock.
	close(gate)
	require.Never(t, func() bool {
		snap := f.session.Snapshot()
		return snap.Weather.WindSpeed != 3 || !snap.LastFullSync.Equal(first.LastFullSync)
	}, 200*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, "heat compounds particulates", f.session.Snapshot().Weather.RiskAnalysis)
}

func TestSession_LaterSearchWinsOverSlowerEarlierSearch(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)
	f.waitWeather(t)

	gate := make(chan struct{})
	f.geocoder.byQuery = map[string]domain.ResolvedLocation{
		"dammam": {Coord: domain.Coordinate{Lat: 26.4}, Name: "Dammam"},
		"jeddah": {Coord: domain.Coordinate{Lat: 21.5}, Name: "Jeddah"},
	}
	f.geocoder.gates = map[string]chan struct{}{"dammam": gate}

	// The first search stalls in geocoding while the second resolves.
	f.session.Search("dammam")
	f.session.Search("jeddah")
	require.Eventually(t, func() bool {
		snap := f.session.Snapshot()
		return snap.Location.Name == "Jeddah" && snap.Weather.Temp == 21.5
	}, time.Second, time.Millisecond)

	// The stalled earlier search resolving late must not displace the later
	// one.
	close(gate)
	require.Never(t, func() bool {
		return f.session.Snapshot().Location.Name != "Jeddah"
	}, 200*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 21.5, f.session.Snapshot().Weather.Temp)
}

func TestSession_RadarMetadataPublished(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.SaveLocation(context.Background(),
		domain.ResolvedLocation{Coord: domain.Coordinate{Lat: 24.7}, Name: "Riyadh"}))
	f.start(t)

	require.Eventually(t, func() bool {
		return f.session.Snapshot().Radar.Host != ""
	}, time.Second, time.Millisecond)
}
