package core

import (
	"time"

	"github.com/greyfold/jxl-decoder/memory"
	"github.com/greyfold/jxl-decoder/parallel"
)

// Engine is the opaque decoding machine driven by the decode loop. It parses
// the codestream incrementally and reports what it needs next through Status
// codes. Implementations live in adapters/.
//
// An Engine is not safe for concurrent use; the owning Decoder serializes
// access to it.
type Engine interface {
	// SubscribeEvents selects which informative events ProcessInput reports.
	// Must be called before the first ProcessInput of a decode.
	SubscribeEvents(events Status) error

	// SetParallelRunner installs the runner the engine fans work out with.
	// Must be called before the first ProcessInput of a decode.
	SetParallelRunner(r parallel.Runner) error

	// ProcessInput consumes up to len(in) bytes and returns how many were
	// consumed along with the next protocol status. Callers advance their
	// input window by n and dispatch on status.
	ProcessInput(in []byte) (n int, status Status)

	// BasicInfo returns the parsed image metadata. Valid only after
	// ProcessInput has reported StatusBasicInfo.
	BasicInfo() (*BasicInfo, error)

	// ImageOutBufferSize returns the byte size the output buffer must have
	// for the given format. Valid once basic info is known.
	ImageOutBufferSize(format PixelFormat) (int, error)

	// SetImageOutBuffer registers the destination the engine decodes pixels
	// into. buf must stay valid until the decode finishes.
	SetImageOutBuffer(format PixelFormat, buf []byte) error

	// Reset returns the engine to its pre-decode state so the next decode
	// starts clean. Subscriptions and runners must be re-applied.
	Reset()

	// Close releases engine resources. The engine is unusable afterwards.
	Close() error
}

// EngineFactory creates a fresh Engine. The memory callbacks are fixed at
// creation time; a zero Funcs selects the engine's default allocator.
type EngineFactory func(mem memory.Funcs) (Engine, error)

// MetricsCollector receives performance observations from the decode loop.
type MetricsCollector interface {
	RecordDecodeTime(d time.Duration)
	RecordThroughput(bytes int64)
	RecordOutputBytes(bytes int64)
	RecordError(op string, category string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Hook observes decodes without participating in them.
type Hook interface {
	BeforeDecode(inputBytes int)
	AfterDecode(info *BasicInfo, stats DecodeStats, err error)
}
