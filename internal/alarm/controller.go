// Package alarm drives the time-bounded audible alert for the active hazard
// severity. Sounding is bounded to a fixed window per distinct severity and
// loops a severity-specific tone pattern until the window expires, the
// severity clears, or the operator mutes.
package alarm

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-shield/internal/domain"
	"github.com/couchcryptid/weather-shield/internal/observability"
)

// SoundingWindow bounds continuous sounding for one distinct severity.
const SoundingWindow = 15 * time.Second

// Tone is a single synthesized beep.
type Tone struct {
	FreqHz   int
	Duration time.Duration
}

// Tone patterns. CRITICAL and HIGH share the paired urgent burst; MEDIUM gets
// a single softer beep on a slower loop.
var (
	urgentFirst  = Tone{FreqHz: 880, Duration: 400 * time.Millisecond}
	urgentSecond = Tone{FreqHz: 660, Duration: 400 * time.Millisecond}
	mediumTone   = Tone{FreqHz: 440, Duration: 500 * time.Millisecond}
)

const (
	urgentLoopPeriod = 800 * time.Millisecond
	urgentToneGap    = 200 * time.Millisecond
	mediumLoopPeriod = 2500 * time.Millisecond
)

// Sounder renders a tone. Implementations must not block.
type Sounder interface {
	Play(tone Tone)
}

// Controller is the sounding state machine. Safe for concurrent use; timer
// callbacks run on their own goroutines.
type Controller struct {
	sounder Sounder
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	mu       sync.Mutex
	muted    bool
	observed domain.Severity // last severity seen, sounding or not
	sounding bool
	epoch    uint64 // invalidates callbacks from cancelled windows
	window   clockwork.Timer
	loop     clockwork.Timer
}

// NewController creates a silent, unmuted controller.
func NewController(sounder Sounder, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		sounder: sounder,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// Observe reports the current aggregate severity. A change to an audible
// severity opens a fresh sounding window; re-observation of the value already
// seen never restarts one. SeverityNone and SeverityLow end sounding
// immediately.
func (c *Controller) Observe(severity domain.Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if severity == c.observed {
		return
	}
	c.observed = severity

	if severity < domain.SeverityMedium {
		c.exitLocked("severity cleared")
		return
	}
	if c.muted {
		return
	}
	c.startWindowLocked(severity)
}

// SetMuted toggles the mute switch. Muting silences immediately; unmuting
// never resumes a window on its own.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if muted == c.muted {
		return
	}
	c.muted = muted
	if muted {
		c.exitLocked("muted")
	}
}

// Muted reports the mute switch.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// Sounding reports whether a window is currently active.
func (c *Controller) Sounding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sounding
}

// Stop silences the controller and cancels all timers.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exitLocked("stopped")
}

func (c *Controller) startWindowLocked(severity domain.Severity) {
	c.cancelTimersLocked()
	c.epoch++
	c.sounding = true
	epoch := c.epoch

	c.logger.Info("alarm sounding",
		"severity", severity.String(),
		"window", SoundingWindow,
	)
	c.metrics.AlarmTransitions.WithLabelValues("sounding").Inc()
	c.metrics.AlarmSounding.Set(1)

	c.playPatternLocked(severity, epoch)
	c.window = c.clock.AfterFunc(SoundingWindow, func() {
		c.expire(epoch)
	})
}

// playPatternLocked emits one iteration of the severity's tone pattern and
// schedules the next one.
func (c *Controller) playPatternLocked(severity domain.Severity, epoch uint64) {
	var period time.Duration
	switch severity {
	case domain.SeverityCritical, domain.SeverityHigh:
		c.sounder.Play(urgentFirst)
		c.clock.AfterFunc(urgentToneGap, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if epoch != c.epoch || !c.sounding {
				return
			}
			c.sounder.Play(urgentSecond)
		})
		period = urgentLoopPeriod
	case domain.SeverityMedium:
		c.sounder.Play(mediumTone)
		period = mediumLoopPeriod
	default:
		return
	}

	c.loop = c.clock.AfterFunc(period, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if epoch != c.epoch || !c.sounding {
			return
		}
		c.playPatternLocked(severity, epoch)
	})
}

func (c *Controller) expire(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch || !c.sounding {
		return
	}
	c.exitLocked("window expired")
}

func (c *Controller) exitLocked(reason string) {
	c.cancelTimersLocked()
	c.epoch++
	if !c.sounding {
		return
	}
	c.sounding = false
	c.logger.Info("alarm silent", "reason", reason)
	c.metrics.AlarmTransitions.WithLabelValues("silent").Inc()
	c.metrics.AlarmSounding.Set(0)
}

func (c *Controller) cancelTimersLocked() {
	if c.window != nil {
		c.window.Stop()
		c.window = nil
	}
	if c.loop != nil {
		c.loop.Stop()
		c.loop = nil
	}
}
