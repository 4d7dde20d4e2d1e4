// Package oneshot adapts one-shot image decoders to the incremental engine
// protocol. Wrapped libraries decode a complete stream in a single call; the
// Engine here buffers input, walks the protocol stages in order, and emits
// the statuses a streaming engine would.
package oneshot

import (
	"errors"
	"image"
	"io"

	"github.com/greyfold/jxl-decoder/core"
	apperrors "github.com/greyfold/jxl-decoder/errors"
	"github.com/greyfold/jxl-decoder/internal/pixelconv"
	"github.com/greyfold/jxl-decoder/memory"
	"github.com/greyfold/jxl-decoder/parallel"
	"github.com/greyfold/jxl-decoder/utils"
)

// Codec is the one-shot decoding capability an Engine wraps.
type Codec interface {
	// Probe parses enough of data to produce the image metadata.
	Probe(data []byte) (*core.BasicInfo, error)
	// DecodeImage fully decodes data.
	DecodeImage(data []byte) (image.Image, error)
}

type stage int

const (
	stageHeader stage = iota
	stageDecode
	stageBuffer
	stageFinal
	stageFailed
)

// Engine drives a Codec through the event protocol. Not safe for concurrent
// use; the owning decoder serializes access.
type Engine struct {
	codec Codec
	mem   memory.Funcs

	events core.Status
	runner parallel.Runner

	stage   stage
	input   []byte
	info    *core.BasicInfo
	img     image.Image
	outFmt  core.PixelFormat
	out     []byte
	scratch []byte
	closed  bool
}

// NewEngine wraps codec. The memory callbacks serve conversion scratch
// allocations; a zero Funcs selects plain Go allocation.
func NewEngine(codec Codec, mem memory.Funcs) *Engine {
	return &Engine{codec: codec, mem: mem}
}

// ── engine protocol ────────────────────────────────────────────────────────────

func (e *Engine) SubscribeEvents(events core.Status) error {
	if e.closed {
		return apperrors.New(apperrors.CategorySetup, "engine.subscribe", apperrors.ErrClosed)
	}
	if e.stage != stageHeader {
		return apperrors.New(apperrors.CategorySetup, "engine.subscribe",
			errors.New("decode already started"))
	}
	if events&^(core.StatusBasicInfo|core.StatusFullImage) != 0 {
		return apperrors.New(apperrors.CategorySetup, "engine.subscribe",
			errors.New("unsupported event subscription"))
	}
	e.events = events
	return nil
}

func (e *Engine) SetParallelRunner(r parallel.Runner) error {
	if e.closed {
		return apperrors.New(apperrors.CategorySetup, "engine.runner", apperrors.ErrClosed)
	}
	if e.stage != stageHeader {
		return apperrors.New(apperrors.CategorySetup, "engine.runner",
			errors.New("decode already started"))
	}
	e.runner = r
	return nil
}

func (e *Engine) ProcessInput(in []byte) (int, core.Status) {
	if e.closed {
		return 0, core.StatusError
	}
	e.input = append(e.input, in...)
	return len(in), e.advance()
}

func (e *Engine) BasicInfo() (*core.BasicInfo, error) {
	if e.info == nil {
		return nil, apperrors.New(apperrors.CategoryDecode, "engine.basic-info",
			errors.New("basic info not parsed yet"))
	}
	cp := *e.info
	return &cp, nil
}

func (e *Engine) ImageOutBufferSize(format core.PixelFormat) (int, error) {
	if e.info == nil {
		return 0, apperrors.New(apperrors.CategoryDecode, "engine.buffer-size",
			errors.New("basic info not parsed yet"))
	}
	size, err := pixelconv.BufferSize(int(e.info.Width), int(e.info.Height), format)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CategoryDecode, "engine.buffer-size", err)
	}
	return size, nil
}

func (e *Engine) SetImageOutBuffer(format core.PixelFormat, buf []byte) error {
	if e.img == nil {
		return apperrors.New(apperrors.CategoryDecode, "engine.set-buffer",
			errors.New("no frame awaiting an output buffer"))
	}
	need, err := e.ImageOutBufferSize(format)
	if err != nil {
		return err
	}
	if len(buf) < need {
		return apperrors.New(apperrors.CategoryDecode, "engine.set-buffer",
			errors.New("output buffer too small"))
	}
	e.outFmt = format
	e.out = buf
	return nil
}

func (e *Engine) Reset() {
	e.releaseScratch()
	e.events = 0
	e.runner = nil
	e.stage = stageHeader
	e.input = e.input[:0]
	e.info = nil
	e.img = nil
	e.outFmt = core.PixelFormat{}
	e.out = nil
}

func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.Reset()
	e.closed = true
	return nil
}

// ── stage machine ──────────────────────────────────────────────────────────────

// advance walks the stages as far as the buffered input allows and returns
// the next status the caller must act on.
func (e *Engine) advance() core.Status {
	for {
		switch e.stage {
		case stageHeader:
			status, ok := e.parseHeader()
			if !ok {
				return status
			}
			e.stage = stageDecode
			if e.events&core.StatusBasicInfo != 0 {
				return core.StatusBasicInfo
			}

		case stageDecode:
			img, err := e.codec.DecodeImage(e.input)
			if err != nil {
				if truncated(err) {
					return core.StatusNeedMoreInput
				}
				e.stage = stageFailed
				return core.StatusError
			}
			e.img = img
			e.stage = stageBuffer
			return core.StatusNeedImageOutBuffer

		case stageBuffer:
			if e.out == nil {
				return core.StatusNeedImageOutBuffer
			}
			if !e.fill() {
				e.stage = stageFailed
				return core.StatusError
			}
			e.stage = stageFinal
			if e.events&core.StatusFullImage != 0 {
				return core.StatusFullImage
			}

		case stageFinal:
			return core.StatusSuccess

		default: // stageFailed
			return core.StatusError
		}
	}
}

// parseHeader validates the signature and container framing, then probes the
// metadata. ok reports whether the header stage completed.
func (e *Engine) parseHeader() (core.Status, bool) {
	switch utils.SniffSignature(e.input) {
	case utils.SignatureNotEnoughBytes:
		return core.StatusNeedMoreInput, false
	case utils.SignatureInvalid:
		e.stage = stageFailed
		return core.StatusError, false
	case utils.SignatureContainer:
		if !utils.ContainerComplete(e.input) {
			return core.StatusNeedMoreInput, false
		}
	}
	info, err := e.codec.Probe(e.input)
	if err != nil {
		if truncated(err) {
			return core.StatusNeedMoreInput, false
		}
		e.stage = stageFailed
		return core.StatusError, false
	}
	e.info = info
	return 0, true
}

// fill packs the decoded image into the registered output buffer, fanning
// rows out over the runner when one is installed.
func (e *Engine) fill() bool {
	conv, err := pixelconv.NewConverter(e.img, e.outFmt, e.allocFunc())
	if err != nil {
		return false
	}
	e.scratch = conv.Scratch()
	_, h := conv.Bounds()
	if e.runner != nil {
		err = e.runner.Run(nil, func(_, row int) {
			conv.FillRows(e.out, row, row+1)
		}, 0, h)
	} else {
		conv.FillRows(e.out, 0, h)
	}
	e.releaseScratch()
	return err == nil
}

func (e *Engine) allocFunc() pixelconv.Alloc {
	if e.mem.Alloc == nil {
		return nil
	}
	return func(size int) ([]byte, error) {
		return e.mem.Alloc(e.mem.Opaque, size)
	}
}

func (e *Engine) releaseScratch() {
	if e.scratch != nil && e.mem.Free != nil {
		e.mem.Free(e.mem.Opaque, e.scratch)
	}
	e.scratch = nil
}

func truncated(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}

var _ core.Engine = (*Engine)(nil)
