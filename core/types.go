package core

import (
	"fmt"
	"time"
	"unsafe"
)

// Status carries the engine protocol codes. The numeric values follow the
// libjxl wire protocol so raw codes surfaced in errors and logs stay
// meaningful when read against engine documentation. Event statuses are
// powers of two and compose into a subscription bitmask.
type Status uint32

const (
	StatusSuccess            Status = 0
	StatusError              Status = 1
	StatusNeedMoreInput      Status = 2
	StatusNeedImageOutBuffer Status = 5

	// Informative events, subscribable via Engine.SubscribeEvents.
	StatusBasicInfo Status = 0x40
	StatusFullImage Status = 0x1000
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusNeedMoreInput:
		return "need-more-input"
	case StatusNeedImageOutBuffer:
		return "need-image-out-buffer"
	case StatusBasicInfo:
		return "basic-info"
	case StatusFullImage:
		return "full-image"
	default:
		return fmt.Sprintf("status(0x%x)", uint32(s))
	}
}

// DataType identifies the element type of the output pixel buffer.
type DataType uint32

const (
	DataTypeUint8 DataType = iota
	DataTypeUint16
	DataTypeUint32
	DataTypeFloat32
)

// Size returns the element width in bytes.
func (d DataType) Size() int {
	switch d {
	case DataTypeUint8:
		return 1
	case DataTypeUint16:
		return 2
	case DataTypeUint32, DataTypeFloat32:
		return 4
	default:
		return 0
	}
}

func (d DataType) String() string {
	switch d {
	case DataTypeUint8:
		return "uint8"
	case DataTypeUint16:
		return "uint16"
	case DataTypeUint32:
		return "uint32"
	case DataTypeFloat32:
		return "float32"
	default:
		return fmt.Sprintf("datatype(%d)", uint32(d))
	}
}

// Endianness selects the byte order of multi-byte pixel samples.
type Endianness uint32

const (
	EndianNative Endianness = iota
	EndianLittle
	EndianBig
)

func (e Endianness) String() string {
	switch e {
	case EndianNative:
		return "native"
	case EndianLittle:
		return "little"
	case EndianBig:
		return "big"
	default:
		return fmt.Sprintf("endianness(%d)", uint32(e))
	}
}

// PixelFormat describes the interleaved layout of the output buffer. It is
// fixed when the decoder is built and never mutated during a decode.
type PixelFormat struct {
	// NumChannels is the number of interleaved samples per pixel:
	// 1 = luma, 2 = luma+alpha, 3 = RGB, 4 = RGBA.
	NumChannels uint32
	// DataType is the element type of each sample.
	DataType DataType
	// Endianness applies to samples wider than one byte.
	Endianness Endianness
	// Align pads each output row to a multiple of this many bytes.
	// Zero means rows are packed.
	Align uint32
}

// BasicInfo is the image metadata snapshot emitted by the engine once the
// codestream header has been parsed.
type BasicInfo struct {
	Width  uint32
	Height uint32

	BitsPerSample         uint32
	ExponentBitsPerSample uint32

	IntensityTarget float32
	Orientation     uint32

	NumColorChannels uint32
	NumExtraChannels uint32

	AlphaBits          uint32
	AlphaPremultiplied bool

	UsesOriginalProfile bool
	HavePreview         bool
	HaveAnimation       bool
}

// HasAlpha reports whether the image carries an alpha channel.
func (b *BasicInfo) HasAlpha() bool { return b.AlphaBits > 0 }

// Pixel constrains the element types an output buffer may hold. The set is
// exact (no underlying-type expansion) so DataTypeOf can map each type to
// its protocol DataType.
type Pixel interface {
	uint8 | uint16 | uint32 | float32
}

// DataTypeOf returns the DataType matching T.
func DataTypeOf[T Pixel]() DataType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return DataTypeUint8
	case uint16:
		return DataTypeUint16
	case uint32:
		return DataTypeUint32
	default:
		return DataTypeFloat32
	}
}

// BytesView reinterprets a pixel buffer as its backing bytes without
// copying. The engine writes pixels through this view; alignment holds
// because the slice was allocated as []T.
func BytesView[T Pixel](buf []T) []byte {
	if len(buf) == 0 {
		return nil
	}
	var zero T
	n := len(buf) * int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(buf))), n)
}

// DecodeStats summarizes one completed decode for hooks and metrics.
type DecodeStats struct {
	InputBytes  int
	OutputBytes int
	Width       uint32
	Height      uint32
	Duration    time.Duration
}
