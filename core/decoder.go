package core

import (
	"sync/atomic"
	"time"

	apperrors "github.com/greyfold/jxl-decoder/errors"
	"github.com/greyfold/jxl-decoder/parallel"
)

// Decoder drives an Engine through the decode protocol and materializes the
// output as a typed pixel buffer. A Decoder owns exactly one Engine and may
// be reused for any number of decodes; it must not run two decodes at once.
type Decoder[T Pixel] struct {
	engine Engine
	format PixelFormat

	runner     parallel.Runner
	ownsRunner bool

	hooks  []Hook
	logger Logger

	closed bool

	// Atomic counters for lightweight internal metrics.
	decodeCount int64
	errorCount  int64
}

// New wraps engine in a Decoder producing []T output. The format's DataType
// must match T. New takes ownership of the engine; Close releases it.
func New[T Pixel](engine Engine, format PixelFormat) (*Decoder[T], error) {
	if engine == nil {
		return nil, apperrors.New(apperrors.CategorySetup, "new", apperrors.ErrNilEngine)
	}
	if format.DataType != DataTypeOf[T]() {
		return nil, apperrors.New(apperrors.CategorySetup, "new", apperrors.ErrInvalidFormat)
	}
	return &Decoder[T]{engine: engine, format: format}, nil
}

// SetLogger attaches a structured logger.
func (d *Decoder[T]) SetLogger(l Logger) { d.logger = l }

// AddHook registers a decode observer.
func (d *Decoder[T]) AddHook(h Hook) { d.hooks = append(d.hooks, h) }

// SetParallelRunner installs the runner wired into the engine on each
// decode. The caller retains ownership; Close will not shut it down.
func (d *Decoder[T]) SetParallelRunner(r parallel.Runner) {
	d.runner = r
	d.ownsRunner = false
}

// AdoptParallelRunner installs r and transfers its ownership to the decoder:
// Close shuts the runner down along with the engine.
func (d *Decoder[T]) AdoptParallelRunner(r parallel.Runner) {
	d.runner = r
	d.ownsRunner = true
}

// Format returns the output pixel layout this decoder produces.
func (d *Decoder[T]) Format() PixelFormat { return d.format }

// Decode feeds the complete codestream in data through the engine and
// returns the image metadata together with the decoded pixels.
//
// Decode blocks until the engine finishes; there is no cancellation at this
// layer. On any outcome the engine is reset, so the decoder is immediately
// reusable whether the decode succeeded or failed.
func (d *Decoder[T]) Decode(data []byte) (*BasicInfo, []T, error) {
	if d.closed {
		return nil, nil, apperrors.New(apperrors.CategorySetup, "decode", apperrors.ErrClosed)
	}

	d.notifyBefore(len(data))
	start := time.Now()

	info, pixels, err := d.run(data)

	elapsed := time.Since(start)
	stats := DecodeStats{
		InputBytes:  len(data),
		OutputBytes: len(pixels) * d.format.DataType.Size(),
		Duration:    elapsed,
	}
	if info != nil {
		stats.Width, stats.Height = info.Width, info.Height
	}
	d.notifyAfter(info, stats, err)

	if err != nil {
		atomic.AddInt64(&d.errorCount, 1)
		if d.logger != nil {
			d.logger.Error("decode.failed", "error", err, "input_bytes", len(data))
		}
		return nil, nil, err
	}
	atomic.AddInt64(&d.decodeCount, 1)
	if d.logger != nil {
		d.logger.Debug("decode.done",
			"width", info.Width, "height", info.Height,
			"input_bytes", len(data), "output_len", len(pixels),
			"duration", elapsed)
	}
	return info, pixels, nil
}

// run executes one pass of the engine protocol state machine.
func (d *Decoder[T]) run(data []byte) (*BasicInfo, []T, error) {
	if d.runner != nil {
		if err := d.engine.SetParallelRunner(d.runner); err != nil {
			return d.fail(apperrors.Wrap(apperrors.CategorySetup, "decode.runner", err))
		}
	}
	if err := d.engine.SubscribeEvents(StatusBasicInfo | StatusFullImage); err != nil {
		return d.fail(apperrors.Wrap(apperrors.CategorySetup, "decode.subscribe", err))
	}

	var (
		info   *BasicInfo
		pixels []T
	)
	remaining := data
	for {
		n, status := d.engine.ProcessInput(remaining)
		remaining = remaining[n:]

		switch status {
		case StatusError:
			return d.fail(apperrors.New(apperrors.CategoryDecode, "decode", apperrors.ErrGeneric))

		case StatusNeedMoreInput:
			// The codestream ended before the image did. Retryable: the
			// caller can decode again with the complete stream.
			return d.fail(apperrors.NeedMoreInput("decode"))

		case StatusBasicInfo:
			if info != nil {
				continue
			}
			bi, err := d.engine.BasicInfo()
			if err != nil {
				return d.fail(apperrors.Wrap(apperrors.CategoryDecode, "decode.basic-info", err))
			}
			info = bi

		case StatusNeedImageOutBuffer:
			size, err := d.engine.ImageOutBufferSize(d.format)
			if err != nil {
				return d.fail(apperrors.Wrap(apperrors.CategoryDecode, "decode.buffer-size", err))
			}
			elem := d.format.DataType.Size()
			if size <= 0 || size%elem != 0 {
				return d.fail(apperrors.New(apperrors.CategoryDecode, "decode.buffer-size", apperrors.ErrGeneric))
			}
			// A fresh zero-filled buffer per request; a repeated request
			// (e.g. after an engine-side resize) simply replaces it.
			pixels = make([]T, size/elem)
			if err := d.engine.SetImageOutBuffer(d.format, BytesView(pixels)); err != nil {
				return d.fail(apperrors.Wrap(apperrors.CategoryDecode, "decode.set-buffer", err))
			}

		case StatusFullImage:
			// Pixels for the frame are complete in the registered buffer.

		case StatusSuccess:
			d.engine.Reset()
			if info == nil {
				// An engine reporting success without ever producing basic
				// info is broken; never hand the caller unexplained pixels.
				return nil, nil, apperrors.New(apperrors.CategoryDecode, "decode", apperrors.ErrGeneric)
			}
			return info, pixels, nil

		default:
			return d.fail(apperrors.New(apperrors.CategoryEngine, "decode", &apperrors.UnknownStatusError{Code: uint32(status)}))
		}
	}
}

// fail resets the engine before surfacing err, so a failed decode never
// leaks state into the next one.
func (d *Decoder[T]) fail(err error) (*BasicInfo, []T, error) {
	d.engine.Reset()
	return nil, nil, err
}

// Close releases the engine and, if the decoder owns it, the parallel
// runner. Close is idempotent.
func (d *Decoder[T]) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.ownsRunner {
		if c, ok := d.runner.(interface{ Close() }); ok {
			c.Close()
		}
	}
	return d.engine.Close()
}

// DecodeCount returns the number of successful decodes.
func (d *Decoder[T]) DecodeCount() int64 { return atomic.LoadInt64(&d.decodeCount) }

// ErrorCount returns the number of failed decodes.
func (d *Decoder[T]) ErrorCount() int64 { return atomic.LoadInt64(&d.errorCount) }

func (d *Decoder[T]) notifyBefore(inputBytes int) {
	for _, h := range d.hooks {
		h.BeforeDecode(inputBytes)
	}
}

func (d *Decoder[T]) notifyAfter(info *BasicInfo, stats DecodeStats, err error) {
	for _, h := range d.hooks {
		h.AfterDecode(info, stats, err)
	}
}
