// Package pixelconv packs decoded images into the interleaved sample layouts
// callers request: channel extraction, sample widening, byte order, and row
// alignment in one place so every engine produces identical buffers.
package pixelconv

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/greyfold/jxl-decoder/core"
)

// RowStride returns the byte length of one output row, honoring Align.
func RowStride(width int, f core.PixelFormat) int {
	stride := width * int(f.NumChannels) * f.DataType.Size()
	if f.Align > 1 {
		a := int(f.Align)
		if rem := stride % a; rem != 0 {
			stride += a - rem
		}
	}
	return stride
}

// BufferSize returns the byte size of the output buffer for a width x height
// image in format f.
func BufferSize(width, height int, f core.PixelFormat) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("pixelconv: invalid dimensions %dx%d", width, height)
	}
	if f.NumChannels < 1 || f.NumChannels > 4 {
		return 0, fmt.Errorf("pixelconv: unsupported channel count %d", f.NumChannels)
	}
	if f.DataType.Size() == 0 {
		return 0, fmt.Errorf("pixelconv: unknown data type %v", f.DataType)
	}
	return RowStride(width, f) * height, nil
}

// Alloc allocates scratch space for normalization. A nil Alloc means plain
// make().
type Alloc func(size int) ([]byte, error)

// Converter holds a normalized view of one source image and packs any row
// range of it into an output buffer. Distinct row ranges write to disjoint
// regions, so FillRows may run concurrently across rows.
type Converter struct {
	f       core.PixelFormat
	n8      *image.NRGBA
	n16     *image.NRGBA64
	scratch []byte
	w, h    int
}

// NewConverter normalizes img for packing into format f. When alloc is
// non-nil the normalization scratch comes from it, and Scratch exposes the
// buffer so the owner can release it.
func NewConverter(img image.Image, f core.PixelFormat, alloc Alloc) (*Converter, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if _, err := BufferSize(w, h, f); err != nil {
		return nil, err
	}
	c := &Converter{f: f, w: w, h: h}

	if f.DataType == core.DataTypeUint8 {
		if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
			c.n8 = n
			return c, nil
		}
		pix, err := scratchPix(alloc, w*h*4)
		if err != nil {
			return nil, err
		}
		if alloc != nil {
			c.scratch = pix
		}
		c.n8 = &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
		draw.Copy(c.n8, image.Point{}, img, b, draw.Src, nil)
		return c, nil
	}

	if n, ok := img.(*image.NRGBA64); ok && n.Rect.Min == (image.Point{}) {
		c.n16 = n
		return c, nil
	}
	pix, err := scratchPix(alloc, w*h*8)
	if err != nil {
		return nil, err
	}
	if alloc != nil {
		c.scratch = pix
	}
	c.n16 = &image.NRGBA64{Pix: pix, Stride: w * 8, Rect: image.Rect(0, 0, w, h)}
	draw.Copy(c.n16, image.Point{}, img, b, draw.Src, nil)
	return c, nil
}

func scratchPix(alloc Alloc, size int) ([]byte, error) {
	if alloc == nil {
		return make([]byte, size), nil
	}
	buf, err := alloc(size)
	if err != nil {
		return nil, err
	}
	if len(buf) < size {
		return nil, fmt.Errorf("pixelconv: allocator returned %d bytes, need %d", len(buf), size)
	}
	return buf[:size], nil
}

// Bounds returns the source dimensions.
func (c *Converter) Bounds() (w, h int) { return c.w, c.h }

// Scratch returns the custom-allocated normalization buffer, or nil when the
// source needed no scratch or a plain make() served it.
func (c *Converter) Scratch() []byte {
	return c.scratch
}

// FillRows packs rows [y0, y1) into dst, which must be the full output
// buffer sized by BufferSize. Row padding bytes are zeroed.
func (c *Converter) FillRows(dst []byte, y0, y1 int) {
	if y0 < 0 {
		y0 = 0
	}
	if y1 > c.h {
		y1 = c.h
	}
	if y0 >= y1 {
		return
	}
	if c.n8 != nil {
		c.fill8(dst, y0, y1)
		return
	}
	c.fillWide(dst, y0, y1)
}

// Fill packs the whole of img into dst using the layout f describes.
func Fill(dst []byte, img image.Image, f core.PixelFormat) error {
	b := img.Bounds()
	need, err := BufferSize(b.Dx(), b.Dy(), f)
	if err != nil {
		return err
	}
	if len(dst) < need {
		return fmt.Errorf("pixelconv: buffer too small: have %d, need %d", len(dst), need)
	}
	c, err := NewConverter(img, f, nil)
	if err != nil {
		return err
	}
	c.FillRows(dst, 0, b.Dy())
	return nil
}

func (c *Converter) fill8(dst []byte, y0, y1 int) {
	src := c.n8
	ch := int(c.f.NumChannels)
	stride := RowStride(c.w, c.f)
	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+c.w*4]
		out := dst[y*stride : y*stride+stride]
		di := 0
		for x := 0; x < c.w; x++ {
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			switch ch {
			case 1:
				out[di] = luma8(r, g, b)
			case 2:
				out[di] = luma8(r, g, b)
				out[di+1] = a
			case 3:
				out[di], out[di+1], out[di+2] = r, g, b
			default:
				out[di], out[di+1], out[di+2], out[di+3] = r, g, b, a
			}
			di += ch
		}
		for i := di; i < stride; i++ {
			out[i] = 0
		}
	}
}

func (c *Converter) fillWide(dst []byte, y0, y1 int) {
	src := c.n16
	ch := int(c.f.NumChannels)
	elem := c.f.DataType.Size()
	stride := RowStride(c.w, c.f)
	order := byteOrder(c.f.Endianness)
	var samples [4]uint16
	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+c.w*8]
		out := dst[y*stride : y*stride+stride]
		di := 0
		for x := 0; x < c.w; x++ {
			p := row[x*8 : x*8+8]
			r := uint16(p[0])<<8 | uint16(p[1])
			g := uint16(p[2])<<8 | uint16(p[3])
			b := uint16(p[4])<<8 | uint16(p[5])
			a := uint16(p[6])<<8 | uint16(p[7])
			n := channelSamples(&samples, r, g, b, a, ch)
			for i := 0; i < n; i++ {
				putSample(out[di:], samples[i], c.f.DataType, order)
				di += elem
			}
		}
		for i := di; i < stride; i++ {
			out[i] = 0
		}
	}
}

func channelSamples(dst *[4]uint16, r, g, b, a uint16, ch int) int {
	switch ch {
	case 1:
		dst[0] = luma16(r, g, b)
		return 1
	case 2:
		dst[0], dst[1] = luma16(r, g, b), a
		return 2
	case 3:
		dst[0], dst[1], dst[2] = r, g, b
		return 3
	default:
		dst[0], dst[1], dst[2], dst[3] = r, g, b, a
		return 4
	}
}

func putSample(out []byte, v uint16, dt core.DataType, order binary.ByteOrder) {
	switch dt {
	case core.DataTypeUint16:
		order.PutUint16(out, v)
	case core.DataTypeUint32:
		// Widen by bit replication so full white stays full white.
		order.PutUint32(out, uint32(v)<<16|uint32(v))
	case core.DataTypeFloat32:
		order.PutUint32(out, math.Float32bits(float32(v)/65535))
	}
}

// luma8 and luma16 use the Rec. 601 weights of the standard library's gray
// color models, so single-channel output matches image/color conversions.
func luma8(r, g, b uint8) uint8 {
	return uint8((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}

func luma16(r, g, b uint16) uint16 {
	return uint16((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}

func byteOrder(e core.Endianness) binary.ByteOrder {
	switch e {
	case core.EndianLittle:
		return binary.LittleEndian
	case core.EndianBig:
		return binary.BigEndian
	default:
		return binary.NativeEndian
	}
}
