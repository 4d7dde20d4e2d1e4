package config

import (
	"errors"

	"github.com/greyfold/jxl-decoder/core"
)

// Config is the decoder configuration assembled by the builder. All fields
// have safe defaults so callers can start with Default() and override only
// what they need.
type Config struct {
	// Output pixel layout.
	NumChannels uint32          // samples per pixel; default 4 (RGBA)
	Endianness  core.Endianness // byte order of multi-byte samples; default native
	Align       uint32          // row alignment in bytes; 0 = packed rows

	// Parallelism.
	Workers       int  // worker slots for the default pool; 0 = NumCPU
	UseSequential bool // run the decode on the calling goroutine only

	// Streaming.
	ChunkSize int // reader drain chunk size in bytes; default 32 KiB
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		NumChannels: 4,
		Endianness:  core.EndianNative,
		Align:       0,
		Workers:     0, // resolved at runtime to NumCPU
		ChunkSize:   32 * 1024,
	}
}

// PixelFormat assembles the output layout for the given element type.
func (c Config) PixelFormat(dt core.DataType) core.PixelFormat {
	return core.PixelFormat{
		NumChannels: c.NumChannels,
		DataType:    dt,
		Endianness:  c.Endianness,
		Align:       c.Align,
	}
}

// Validate returns an error if the configuration is inconsistent for the
// given element type.
func Validate(c Config, dt core.DataType) error {
	if c.NumChannels < 1 || c.NumChannels > 4 {
		return errors.New("config: NumChannels must be between 1 and 4")
	}
	switch c.Endianness {
	case core.EndianNative, core.EndianLittle, core.EndianBig:
	default:
		return errors.New("config: unknown Endianness")
	}
	if dt.Size() == 0 {
		return errors.New("config: unknown DataType")
	}
	// Row sizes must stay element-addressable: an alignment that is not a
	// multiple of the element size would split a sample across rows.
	if c.Align > 1 && c.Align%uint32(dt.Size()) != 0 {
		return errors.New("config: Align must be a multiple of the sample size")
	}
	if c.ChunkSize < 0 {
		return errors.New("config: ChunkSize must not be negative")
	}
	return nil
}
