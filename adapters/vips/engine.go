// Package vips provides a decoding engine backed by libvips through
// github.com/davidbyttow/govips. It requires cgo and a libvips build that
// includes JPEG XL support (libvips >= 8.11 with libjxl).
package vips

import (
	"bytes"
	"image"
	"image/png"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/greyfold/jxl-decoder/core"
	"github.com/greyfold/jxl-decoder/internal/oneshot"
	"github.com/greyfold/jxl-decoder/memory"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	MaxCacheSize int
	MaxWorkers   int
	ReportLeaks  bool
}

// Backend creates libvips-backed engines. libvips is initialised once per
// process; construct a single Backend and share it.
type Backend struct {
	cfg BackendConfig
}

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.MaxWorkers,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
		CollectStats:     true,
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// Factory creates a fresh libvips-backed engine. It satisfies
// core.EngineFactory; pass it to the builder's Engine option.
func (b *Backend) Factory(mem memory.Funcs) (core.Engine, error) {
	return oneshot.NewEngine(codec{}, mem), nil
}

// ─── codec ────────────────────────────────────────────────────────────────────

type codec struct{}

func (codec) Probe(data []byte) (*core.BasicInfo, error) {
	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, err
	}
	defer ref.Close()
	return infoFromRef(ref), nil
}

func (codec) DecodeImage(data []byte) (image.Image, error) {
	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	// Lossless PNG round-trip moves pixels out of libvips memory without
	// depending on its internal buffer layout. Bit depth is preserved.
	ep := govips.NewPngExportParams()
	raw, _, err := ref.ExportPng(ep)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(raw))
}

func infoFromRef(ref *govips.ImageRef) *core.BasicInfo {
	info := &core.BasicInfo{
		Width:            uint32(ref.Width()),
		Height:           uint32(ref.Height()),
		BitsPerSample:    8,
		NumColorChannels: 3,
		IntensityTarget:  255,
		Orientation:      uint32(ref.Orientation()),
	}
	if info.Orientation == 0 {
		info.Orientation = 1
	}
	switch ref.Interpretation() {
	case govips.InterpretationBW:
		info.NumColorChannels = 1
	case govips.InterpretationGrey16:
		info.NumColorChannels = 1
		info.BitsPerSample = 16
	case govips.InterpretationRGB16:
		info.BitsPerSample = 16
	}
	if ref.HasAlpha() {
		info.AlphaBits = info.BitsPerSample
		info.NumExtraChannels = 1
	}
	return info
}

var _ oneshot.Codec = codec{}
