package jxldecoder

import (
	"github.com/greyfold/jxl-decoder/adapters/jpegxl"
	"github.com/greyfold/jxl-decoder/config"
	"github.com/greyfold/jxl-decoder/core"
	apperrors "github.com/greyfold/jxl-decoder/errors"
	"github.com/greyfold/jxl-decoder/hooks"
	"github.com/greyfold/jxl-decoder/memory"
	"github.com/greyfold/jxl-decoder/parallel"
)

// Builder accumulates decoder configuration. Start from NewBuilder; defaults
// are 4 channels (RGBA), native endianness, packed rows, the bundled engine,
// and a worker pool sized to NumCPU.
type Builder struct {
	cfg     config.Config
	factory core.EngineFactory
	mem     memory.Manager
	runner  parallel.Runner
	logger  core.Logger
	metrics core.MetricsCollector
	hooks   []core.Hook
}

// NewBuilder returns a Builder loaded with defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: config.Default(), factory: jpegxl.Factory}
}

// NumChannels sets samples per pixel: 1 luma, 2 luma+alpha, 3 RGB, 4 RGBA.
func (b *Builder) NumChannels(n uint32) *Builder {
	b.cfg.NumChannels = n
	return b
}

// Endianness sets the byte order of multi-byte samples.
func (b *Builder) Endianness(e core.Endianness) *Builder {
	b.cfg.Endianness = e
	return b
}

// Align pads output rows to a multiple of align bytes. Zero packs rows.
func (b *Builder) Align(align uint32) *Builder {
	b.cfg.Align = align
	return b
}

// Workers sizes the default worker pool. Ignored when ParallelRunner or
// Sequential is used.
func (b *Builder) Workers(n int) *Builder {
	b.cfg.Workers = n
	return b
}

// Sequential builds a decoder that decodes entirely on the calling
// goroutine.
func (b *Builder) Sequential() *Builder {
	b.cfg.UseSequential = true
	return b
}

// Engine overrides the engine factory. The default is the bundled
// wazero-based engine.
func (b *Builder) Engine(f core.EngineFactory) *Builder {
	b.factory = f
	return b
}

// MemoryManager installs a custom allocator. Its callbacks are fixed at
// engine creation and live as long as the decoder.
func (b *Builder) MemoryManager(m memory.Manager) *Builder {
	b.mem = m
	return b
}

// ParallelRunner installs a caller-owned runner. The decoder will not shut
// it down on Close; reusing one runner across decoders is the point.
func (b *Builder) ParallelRunner(r parallel.Runner) *Builder {
	b.runner = r
	return b
}

// Logger attaches a structured logger to the built decoder.
func (b *Builder) Logger(l core.Logger) *Builder {
	b.logger = l
	return b
}

// Metrics attaches a metrics collector, observing decodes through a hook.
func (b *Builder) Metrics(m core.MetricsCollector) *Builder {
	b.metrics = m
	return b
}

// Hook registers a decode observer.
func (b *Builder) Hook(h core.Hook) *Builder {
	b.hooks = append(b.hooks, h)
	return b
}

// Build validates the configuration, creates the engine, and returns a ready
// decoder handle producing []T pixels. The handle owns the engine and any
// default runner Build installed; Close releases both.
func Build[T core.Pixel](b *Builder) (*core.Decoder[T], error) {
	dt := core.DataTypeOf[T]()
	if err := config.Validate(b.cfg, dt); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "build", err)
	}

	factory := b.factory
	if factory == nil {
		factory = jpegxl.Factory
	}
	engine, err := factory(memory.AsFuncs(b.mem))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySetup, "build.engine", err)
	}

	dec, err := core.New[T](engine, b.cfg.PixelFormat(dt))
	if err != nil {
		engine.Close() //nolint:errcheck // surfacing the construction error
		return nil, err
	}

	switch {
	case b.runner != nil:
		dec.SetParallelRunner(b.runner)
	case b.cfg.UseSequential:
		dec.AdoptParallelRunner(parallel.Sequential{})
	default:
		dec.AdoptParallelRunner(parallel.NewPool(b.cfg.Workers))
	}

	if b.logger != nil {
		dec.SetLogger(b.logger)
	}
	if b.metrics != nil {
		dec.AddHook(hooks.NewMetricsHook(b.metrics))
	}
	for _, h := range b.hooks {
		dec.AddHook(h)
	}
	return dec, nil
}
