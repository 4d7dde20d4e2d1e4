// Package hooks provides production-ready Hook and Logger implementations.
package hooks

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/greyfold/jxl-decoder/core"
	apperrors "github.com/greyfold/jxl-decoder/errors"
)

// ── Structured logger adapters ────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

func (s *SlogLogger) Debug(msg string, fields ...interface{}) {
	s.log.Debug(msg, toAttrs(fields)...)
}
func (s *SlogLogger) Info(msg string, fields ...interface{}) {
	s.log.Info(msg, toAttrs(fields)...)
}
func (s *SlogLogger) Warn(msg string, fields ...interface{}) {
	s.log.Warn(msg, toAttrs(fields)...)
}
func (s *SlogLogger) Error(msg string, fields ...interface{}) {
	s.log.Error(msg, toAttrs(fields)...)
}

func toAttrs(fields []interface{}) []any { return fields }

// LogrusLogger adapts a logrus.Logger to core.Logger for services already
// standardised on logrus.
type LogrusLogger struct {
	log *logrus.Logger
}

// NewLogrusLogger creates a logger backed by logrus.
func NewLogrusLogger(l *logrus.Logger) *LogrusLogger { return &LogrusLogger{log: l} }

func (l *LogrusLogger) Debug(msg string, fields ...interface{}) { l.entry(fields).Debug(msg) }
func (l *LogrusLogger) Info(msg string, fields ...interface{})  { l.entry(fields).Info(msg) }
func (l *LogrusLogger) Warn(msg string, fields ...interface{})  { l.entry(fields).Warn(msg) }
func (l *LogrusLogger) Error(msg string, fields ...interface{}) { l.entry(fields).Error(msg) }

func (l *LogrusLogger) entry(fields []interface{}) *logrus.Entry {
	f := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		f[key] = fields[i+1]
	}
	return l.log.WithFields(f)
}

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs the start and outcome of each decode.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeDecode(inputBytes int) {
	h.logger.Debug("decode.start", "input_bytes", inputBytes)
}

func (h *LoggingHook) AfterDecode(info *core.BasicInfo, stats core.DecodeStats, err error) {
	if err != nil {
		h.logger.Error("decode.error",
			"duration_ms", stats.Duration.Milliseconds(),
			"input_bytes", stats.InputBytes,
			"error", err.Error(),
		)
		return
	}
	h.logger.Debug("decode.done",
		"duration_ms", stats.Duration.Milliseconds(),
		"width", info.Width,
		"height", info.Height,
		"output_bytes", stats.OutputBytes,
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics accumulates metrics atomically; safe for concurrent use.
type InMemoryMetrics struct {
	mu sync.RWMutex

	decodeCalls      int64
	decodeDurationMs int64 // cumulative ms
	errors           map[string]int64

	totalThroughputB int64
	totalOutputB     int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{errors: make(map[string]int64)}
}

func (m *InMemoryMetrics) RecordDecodeTime(d time.Duration) {
	m.mu.Lock()
	m.decodeDurationMs += d.Milliseconds()
	m.decodeCalls++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	atomic.AddInt64(&m.totalThroughputB, bytes)
}

func (m *InMemoryMetrics) RecordOutputBytes(bytes int64) {
	atomic.AddInt64(&m.totalOutputB, bytes)
}

func (m *InMemoryMetrics) RecordError(op string, category string) {
	m.mu.Lock()
	m.errors[op+":"+category]++
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		DecodeCalls:      m.decodeCalls,
		DecodeDurationMs: m.decodeDurationMs,
		Errors:           make(map[string]int64, len(m.errors)),
		TotalThroughputB: atomic.LoadInt64(&m.totalThroughputB),
		TotalOutputB:     atomic.LoadInt64(&m.totalOutputB),
	}
	for k, v := range m.errors {
		snap.Errors[k] = v
	}
	return snap
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	DecodeCalls      int64
	DecodeDurationMs int64
	Errors           map[string]int64
	TotalThroughputB int64
	TotalOutputB     int64
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds decode outcomes into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeDecode(_ int) {}

func (h *MetricsHook) AfterDecode(_ *core.BasicInfo, stats core.DecodeStats, err error) {
	h.collector.RecordDecodeTime(stats.Duration)
	h.collector.RecordThroughput(int64(stats.InputBytes))
	if err != nil {
		h.collector.RecordError("decode", string(apperrors.CategoryOf(err)))
		return
	}
	h.collector.RecordOutputBytes(int64(stats.OutputBytes))
}

// compile-time interface checks
var (
	_ core.Logger           = (*SlogLogger)(nil)
	_ core.Logger           = (*LogrusLogger)(nil)
	_ core.Hook             = (*LoggingHook)(nil)
	_ core.Hook             = (*MetricsHook)(nil)
	_ core.MetricsCollector = (*InMemoryMetrics)(nil)
)
