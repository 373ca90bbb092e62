package raster

import (
	"fmt"

	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
)

// Image is a dense raster of Width x Height pixels with Channels interleaved
// channel values per pixel, stored row-major at a fixed pixel depth.
//
// Exactly one of the backing slices is allocated, selected by Depth. Values
// are read and written in normalized float space through At and Set; the raw
// slices are exposed for codecs.
type Image struct {
	Width    int
	Height   int
	Channels int
	Depth    pixel.Depth

	u8  []uint8
	u16 []uint16
	f32 []float32
}

// New allocates a zero-initialized image.
//
// Returns an invalid_argument error when a dimension is not positive, the
// channel count is outside 1..4, or the depth is unknown.
func New(width, height, channels int, depth pixel.Depth) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, cverrors.New(cverrors.KindInvalidArgument, "raster.New", "invalid size %dx%d", width, height)
	}
	if channels < 1 || channels > 4 {
		return nil, cverrors.New(cverrors.KindInvalidArgument, "raster.New", "channel count %d outside 1..4", channels)
	}
	if !depth.Valid() {
		return nil, cverrors.New(cverrors.KindInvalidArgument, "raster.New", "unknown depth %v", depth)
	}

	m := &Image{Width: width, Height: height, Channels: channels, Depth: depth}
	n := width * height * channels
	switch depth {
	case pixel.U8:
		m.u8 = make([]uint8, n)
	case pixel.U16:
		m.u16 = make([]uint16, n)
	case pixel.F32:
		m.f32 = make([]float32, n)
	}
	return m, nil
}

// MustNew is like New but panics on invalid arguments. It is intended for
// fixed sizes known to be valid.
func MustNew(width, height, channels int, depth pixel.Depth) *Image {
	m, err := New(width, height, channels, depth)
	if err != nil {
		panic(err)
	}
	return m
}

// FromUint8 wraps 8-bit data. The slice is used without copying.
func FromUint8(width, height, channels int, data []uint8) (*Image, error) {
	if err := checkLen("raster.FromUint8", width, height, channels, len(data)); err != nil {
		return nil, err
	}
	return &Image{Width: width, Height: height, Channels: channels, Depth: pixel.U8, u8: data}, nil
}

// FromUint16 wraps 16-bit data. The slice is used without copying.
func FromUint16(width, height, channels int, data []uint16) (*Image, error) {
	if err := checkLen("raster.FromUint16", width, height, channels, len(data)); err != nil {
		return nil, err
	}
	return &Image{Width: width, Height: height, Channels: channels, Depth: pixel.U16, u16: data}, nil
}

// FromFloat32 wraps float data. The slice is used without copying.
func FromFloat32(width, height, channels int, data []float32) (*Image, error) {
	if err := checkLen("raster.FromFloat32", width, height, channels, len(data)); err != nil {
		return nil, err
	}
	return &Image{Width: width, Height: height, Channels: channels, Depth: pixel.F32, f32: data}, nil
}

func checkLen(op string, width, height, channels, n int) error {
	if width <= 0 || height <= 0 || channels < 1 || channels > 4 {
		return cverrors.New(cverrors.KindInvalidArgument, op, "invalid shape %dx%dx%d", width, height, channels)
	}
	if n != width*height*channels {
		return cverrors.New(cverrors.KindInvalidArgument, op, "buffer holds %d values, %dx%dx%d needs %d",
			n, width, height, channels, width*height*channels)
	}
	return nil
}

// Len returns the number of channel values, Width*Height*Channels.
func (m *Image) Len() int {
	return m.Width * m.Height * m.Channels
}

// Offset returns the index of the first channel of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * m.Channels
}

// At returns channel value i normalized to float.
func (m *Image) At(i int) float32 {
	switch m.Depth {
	case pixel.U8:
		return pixel.ToFloat(pixel.U8, float32(m.u8[i]))
	case pixel.U16:
		return pixel.ToFloat(pixel.U16, float32(m.u16[i]))
	default:
		return m.f32[i]
	}
}

// Set stores the normalized float v as channel value i, saturating for
// integer depths.
func (m *Image) Set(i int, v float32) {
	switch m.Depth {
	case pixel.U8:
		m.u8[i] = uint8(pixel.FromFloat(pixel.U8, v))
	case pixel.U16:
		m.u16[i] = uint16(pixel.FromFloat(pixel.U16, v))
	default:
		m.f32[i] = v
	}
}

// PixelAt returns the normalized channel c of pixel (x, y).
func (m *Image) PixelAt(x, y, c int) float32 {
	return m.At(m.Offset(x, y) + c)
}

// SetPixel stores the normalized value v in channel c of pixel (x, y).
func (m *Image) SetPixel(x, y, c int, v float32) {
	m.Set(m.Offset(x, y)+c, v)
}

// Uint8 returns the raw 8-bit buffer, or nil for other depths.
func (m *Image) Uint8() []uint8 { return m.u8 }

// Uint16 returns the raw 16-bit buffer, or nil for other depths.
func (m *Image) Uint16() []uint16 { return m.u16 }

// Float32 returns the raw float buffer, or nil for other depths.
func (m *Image) Float32() []float32 { return m.f32 }

// Clone returns a deep copy of the image.
func (m *Image) Clone() *Image {
	out := &Image{Width: m.Width, Height: m.Height, Channels: m.Channels, Depth: m.Depth}
	switch m.Depth {
	case pixel.U8:
		out.u8 = append([]uint8(nil), m.u8...)
	case pixel.U16:
		out.u16 = append([]uint16(nil), m.u16...)
	default:
		out.f32 = append([]float32(nil), m.f32...)
	}
	return out
}

// SameShape reports whether o has the same width, height and channel count.
func (m *Image) SameShape(o *Image) bool {
	return m.Width == o.Width && m.Height == o.Height && m.Channels == o.Channels
}

// Shape formats the dimensions as WxHxC.
func (m *Image) Shape() string {
	return fmt.Sprintf("%dx%dx%d", m.Width, m.Height, m.Channels)
}

// NewLike allocates a zeroed image with the same dimensions as m and the given
// channel count and depth.
func (m *Image) NewLike(channels int, depth pixel.Depth) *Image {
	return MustNew(m.Width, m.Height, channels, depth)
}
