// Package jpegxl provides the default decoding engine, backed by
// github.com/gen2brain/jpegxl: libjxl compiled to WebAssembly and executed
// through wazero, so it needs no cgo and no system libraries.
package jpegxl

import (
	"bytes"
	"image"
	"image/color"

	jxl "github.com/gen2brain/jpegxl"

	"github.com/greyfold/jxl-decoder/core"
	"github.com/greyfold/jxl-decoder/internal/oneshot"
	"github.com/greyfold/jxl-decoder/memory"
)

// Factory creates a fresh engine. It satisfies core.EngineFactory and is the
// default engine source for built decoders.
func Factory(mem memory.Funcs) (core.Engine, error) {
	return oneshot.NewEngine(codec{}, mem), nil
}

type codec struct{}

func (codec) Probe(data []byte) (*core.BasicInfo, error) {
	cfg, err := jxl.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return infoFromConfig(cfg), nil
}

func (codec) DecodeImage(data []byte) (image.Image, error) {
	return jxl.Decode(bytes.NewReader(data))
}

// infoFromConfig derives the metadata snapshot from the probe result. Fields
// the one-shot API does not expose keep their codestream defaults: SDR
// intensity of 255 nits and identity orientation.
func infoFromConfig(cfg image.Config) *core.BasicInfo {
	info := &core.BasicInfo{
		Width:            uint32(cfg.Width),
		Height:           uint32(cfg.Height),
		BitsPerSample:    8,
		NumColorChannels: 3,
		IntensityTarget:  255,
		Orientation:      1,
	}
	switch cfg.ColorModel {
	case color.GrayModel:
		info.NumColorChannels = 1
	case color.Gray16Model:
		info.NumColorChannels = 1
		info.BitsPerSample = 16
	case color.NRGBAModel:
		info.AlphaBits = 8
	case color.NRGBA64Model:
		info.AlphaBits = 16
		info.BitsPerSample = 16
	case color.RGBAModel:
		info.AlphaBits = 8
		info.AlphaPremultiplied = true
	case color.RGBA64Model:
		info.AlphaBits = 16
		info.BitsPerSample = 16
		info.AlphaPremultiplied = true
	}
	if info.AlphaBits > 0 {
		info.NumExtraChannels = 1
	}
	return info
}

var (
	_ core.EngineFactory = Factory
	_ oneshot.Codec      = codec{}
)
