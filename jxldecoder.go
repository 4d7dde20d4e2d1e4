// Package jxldecoder decodes JPEG XL images through a pluggable decoding
// engine, exposing the engine's event-driven protocol behind a typed,
// buffer-safe API. The bundled engine runs libjxl compiled to WebAssembly
// and needs no system libraries; a libvips-backed engine is available in
// adapters/vips.
//
// Typical use:
//
//	dec, err := jxldecoder.Build[uint8](jxldecoder.NewBuilder())
//	if err != nil { ... }
//	defer dec.Close()
//	info, pixels, err := dec.Decode(data)
//
// One-off decodes can use the package-level Decode, DecodeReader, and
// DecodeInfo helpers instead of keeping a handle.
package jxldecoder

import (
	"io"

	"github.com/greyfold/jxl-decoder/adapters/jpegxl"
	"github.com/greyfold/jxl-decoder/config"
	"github.com/greyfold/jxl-decoder/core"
	apperrors "github.com/greyfold/jxl-decoder/errors"
	"github.com/greyfold/jxl-decoder/memory"
	"github.com/greyfold/jxl-decoder/utils"
)

// Re-export the types callers touch, so simple programs import one package.
type (
	// BasicInfo is the image metadata returned alongside decoded pixels.
	BasicInfo = core.BasicInfo
	// PixelFormat describes the interleaved output layout.
	PixelFormat = core.PixelFormat
	// DataType identifies the sample element type.
	DataType = core.DataType
	// Endianness selects the byte order of multi-byte samples.
	Endianness = core.Endianness
	// DecodeStats summarizes one decode for hooks and metrics.
	DecodeStats = core.DecodeStats
)

// Decoder is the reusable decode handle produced by Build.
type Decoder[T core.Pixel] = core.Decoder[T]

// Re-export enum constants for convenience.
const (
	Uint8   = core.DataTypeUint8
	Uint16  = core.DataTypeUint16
	Uint32  = core.DataTypeUint32
	Float32 = core.DataTypeFloat32

	EndianNative = core.EndianNative
	EndianLittle = core.EndianLittle
	EndianBig    = core.EndianBig
)

// DefaultConfig returns the configuration NewBuilder starts from.
func DefaultConfig() config.Config { return config.Default() }

// Decode decodes a complete JPEG XL stream with a default decoder: bundled
// engine, 4-channel output, native endianness, packed rows.
func Decode[T core.Pixel](data []byte) (*BasicInfo, []T, error) {
	dec, err := Build[T](NewBuilder())
	if err != nil {
		return nil, nil, err
	}
	defer dec.Close() //nolint:errcheck // close of a throwaway handle

	return dec.Decode(data)
}

// DecodeReader drains r fully into memory, then decodes it. JPEG XL streams
// carry no length framing, so the reader must end at the end of the image.
func DecodeReader[T core.Pixel](r io.Reader) (*BasicInfo, []T, error) {
	if r == nil {
		return nil, nil, apperrors.New(apperrors.CategoryInput, "decode.reader", apperrors.ErrEmptyInput)
	}
	buf, err := utils.DrainReader(r, DefaultConfig().ChunkSize)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CategoryInput, "decode.reader", err)
	}
	data := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	return Decode[T](data)
}

// DecodeInfo probes the stream metadata without decoding pixels.
func DecodeInfo(data []byte) (*BasicInfo, error) {
	engine, err := jpegxl.Factory(memory.Funcs{})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySetup, "decode-info", err)
	}
	defer engine.Close() //nolint:errcheck // close of a throwaway engine

	return core.ProbeInfo(engine, data)
}
