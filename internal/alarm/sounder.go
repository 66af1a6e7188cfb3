package alarm

import "log/slog"

// LogSounder renders tones as log lines. It stands in wherever no audio
// backend is attached, which is every headless deployment.
type LogSounder struct {
	logger *slog.Logger
}

// NewLogSounder creates a LogSounder.
func NewLogSounder(logger *slog.Logger) *LogSounder {
	return &LogSounder{logger: logger}
}

// Play logs the tone.
func (s *LogSounder) Play(tone Tone) {
	s.logger.Info("tone", "freq_hz", tone.FreqHz, "duration", tone.Duration)
}
