package raster

import (
	"github.com/ironsheep/image-features-mcp/internal/compute"
	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
)

// BinaryOp selects the arithmetic of an elementwise operation.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	}
	return "unknown"
}

func (op BinaryOp) apply(a, b float32) float32 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	default:
		return a / b
	}
}

var program = &compute.Program{
	ID:     "raster",
	Source: "elementwise arithmetic, per-value transforms and channel conversions",
	Entries: map[string]compute.KernelFunc{
		"raster_binary": func(id compute.Index, args compute.Args) {
			op := compute.Arg[BinaryOp](args, 0)
			a := compute.Arg[*Image](args, 1)
			b := compute.Arg[*Image](args, 2)
			out := compute.Arg[*Image](args, 3)
			out.Set(id.X, op.apply(a.At(id.X), b.At(id.X)))
		},
		"raster_transform": func(id compute.Index, args compute.Args) {
			fn := compute.Arg[func(float32) float32](args, 0)
			in := compute.Arg[*Image](args, 1)
			out := compute.Arg[*Image](args, 2)
			out.Set(id.X, fn(in.At(id.X)))
		},
		"raster_grayscale": func(id compute.Index, args compute.Args) {
			in := compute.Arg[*Image](args, 0)
			out := compute.Arg[*Image](args, 1)
			weights := compute.Arg[[4]float32](args, 2)

			var sum, norm float32
			off := id.X * in.Channels
			for c := 0; c < in.Channels; c++ {
				sum += weights[c] * in.At(off+c)
				norm += weights[c]
			}
			if norm == 0 {
				out.Set(id.X, 0)
				return
			}
			out.Set(id.X, sum/norm)
		},
		"raster_expand": func(id compute.Index, args compute.Args) {
			in := compute.Arg[*Image](args, 0)
			out := compute.Arg[*Image](args, 1)

			src := id.X * in.Channels
			dst := id.X * out.Channels
			gray := in.Channels < 3
			for c := 0; c < out.Channels; c++ {
				var v float32
				switch {
				case c < 3 && gray:
					v = in.At(src)
				case c < 3:
					v = in.At(src + c)
				case in.Channels == 2:
					v = in.At(src + 1)
				case in.Channels == 4:
					v = in.At(src + 3)
				default:
					v = 1
				}
				out.Set(dst+c, v)
			}
		},
	},
}

// Apply combines a and b value by value with op, converting both operands to
// float and the result back to a's depth. The images must have identical
// width, height and channel count.
func Apply(q compute.Backend, op BinaryOp, a, b *Image) (*Image, error) {
	if !a.SameShape(b) {
		return nil, cverrors.New(cverrors.KindDimensionMismatch, "raster."+op.String(),
			"operands are %s and %s", a.Shape(), b.Shape())
	}
	out := a.NewLike(a.Channels, a.Depth)
	if err := compute.Run(q, program, "raster_binary", compute.Range1(a.Len()), op, a, b, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Add returns a + b.
func Add(q compute.Backend, a, b *Image) (*Image, error) { return Apply(q, OpAdd, a, b) }

// Sub returns a - b.
func Sub(q compute.Backend, a, b *Image) (*Image, error) { return Apply(q, OpSub, a, b) }

// Mul returns a * b.
func Mul(q compute.Backend, a, b *Image) (*Image, error) { return Apply(q, OpMul, a, b) }

// Div returns a / b. Division by zero follows float semantics and saturates
// for integer depths.
func Div(q compute.Backend, a, b *Image) (*Image, error) { return Apply(q, OpDiv, a, b) }

// Negate returns -m. Only float images can hold negative values; integer
// depths fail with an unsupported_format error.
func Negate(q compute.Backend, m *Image) (*Image, error) {
	if m.Depth.IsInteger() {
		return nil, cverrors.New(cverrors.KindUnsupportedFormat, "raster.Negate",
			"negative values are undefined for %s images", m.Depth)
	}
	return Transform(q, m, pixel.F32, func(v float32) float32 { return -v })
}

// Transform maps every normalized channel value through fn into a new image of
// the given depth.
func Transform(q compute.Backend, m *Image, depth pixel.Depth, fn func(float32) float32) (*Image, error) {
	out, err := New(m.Width, m.Height, m.Channels, depth)
	if err != nil {
		return nil, err
	}
	if err := compute.Run(q, program, "raster_transform", compute.Range1(m.Len()), fn, m, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertDepth re-expresses m at another storage depth.
func ConvertDepth(q compute.Backend, m *Image, depth pixel.Depth) (*Image, error) {
	if m.Depth == depth {
		return m.Clone(), nil
	}
	return Transform(q, m, depth, func(v float32) float32 { return v })
}

// EqualWeights is the default grayscale weighting: every channel, alpha
// included, contributes equally.
var EqualWeights = [4]float32{1, 1, 1, 1}

// Grayscale reduces m to one channel with equal weights.
func Grayscale(q compute.Backend, m *Image) (*Image, error) {
	return GrayscaleWeighted(q, m, EqualWeights)
}

// GrayscaleWeighted reduces m to one channel as the weighted sum of its
// channels divided by the sum of the weights in use. Weights past the image's
// channel count are ignored; a zero weight sum yields black.
func GrayscaleWeighted(q compute.Backend, m *Image, weights [4]float32) (*Image, error) {
	out := m.NewLike(1, m.Depth)
	if err := compute.Run(q, program, "raster_grayscale", compute.Range1(m.Width*m.Height), m, out, weights); err != nil {
		return nil, err
	}
	return out, nil
}

// MakeRGB expands m to three channels. A gray image is replicated into every
// color channel; extra channels such as alpha are dropped.
func MakeRGB(q compute.Backend, m *Image) (*Image, error) {
	return expand(q, m, 3)
}

// MakeRGBA expands m to four channels with an opaque alpha unless m already
// carries one.
func MakeRGBA(q compute.Backend, m *Image) (*Image, error) {
	return expand(q, m, 4)
}

func expand(q compute.Backend, m *Image, channels int) (*Image, error) {
	out := m.NewLike(channels, m.Depth)
	if err := compute.Run(q, program, "raster_expand", compute.Range1(m.Width*m.Height), m, out); err != nil {
		return nil, err
	}
	return out, nil
}
