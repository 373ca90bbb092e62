package convolution

import (
	"fmt"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/kernel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
	"github.com/ironsheep/image-features-mcp/internal/sampler"
)

// Direction selects the axis of a one dimensional convolution.
type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseDirection parses "horizontal" or "vertical".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	}
	return 0, fmt.Errorf("unknown direction %q (want horizontal or vertical)", s)
}

// Accumulator is the running state of one window. Convolutions use it as a
// per-channel sum; reductions may store anything that fits in four floats.
type Accumulator = sampler.Color

// AccumulateFunc is called for every tap (kx, ky) of a window with the sampled
// color, in the range [-size/2, size/2].
type AccumulateFunc func(kx, ky int, v sampler.Color, acc *Accumulator)

// FinishFunc is called once per window centered on (x, y) after every tap has
// been accumulated. Changes it makes to acc are written to the output.
type FinishFunc func(x, y int, acc *Accumulator)

var program = &compute.Program{
	ID:     "convolution",
	Source: "2D windowed reduction, 2D and 1D directional convolution",
	Entries: map[string]compute.KernelFunc{
		"window_reduce": func(id compute.Index, args compute.Args) {
			s := compute.Arg[sampler.Sampler](args, 0)
			size := compute.Arg[int](args, 1)
			stride := compute.Arg[int](args, 2)
			fn := compute.Arg[AccumulateFunc](args, 3)
			fin := compute.Arg[FinishFunc](args, 4)
			out := compute.Arg[*raster.Image](args, 5)

			x, y := id.X*stride, id.Y*stride
			half := size / 2
			var acc Accumulator
			for kx := -half; kx <= half; kx++ {
				for ky := -half; ky <= half; ky++ {
					fn(kx, ky, s.SampleXY(x+kx, y+ky), &acc)
				}
			}
			if fin != nil {
				fin(x, y, &acc)
			}
			store(out, x, y, acc)
		},
		"convolve_1d": func(id compute.Index, args compute.Args) {
			s := compute.Arg[sampler.Sampler](args, 0)
			k := compute.Arg[kernel.Vector](args, 1)
			dir := compute.Arg[Direction](args, 2)
			out := compute.Arg[*raster.Image](args, 3)

			x, y := id.X, id.Y
			half := k.Half()
			var sum wideSum
			for i := -half; i <= half; i++ {
				var c sampler.Color
				if dir == Horizontal {
					c = s.SampleXY(x+i, y)
				} else {
					c = s.SampleXY(x, y+i)
				}
				sum.add(k[i+half], c)
			}
			store(out, x, y, sum.color())
		},
		"convolve_2d": func(id compute.Index, args compute.Args) {
			s := compute.Arg[sampler.Sampler](args, 0)
			k := compute.Arg[kernel.Matrix](args, 1)
			out := compute.Arg[*raster.Image](args, 2)

			x, y := id.X, id.Y
			half := k.Half()
			var sum wideSum
			for kx := -half; kx <= half; kx++ {
				for ky := -half; ky <= half; ky++ {
					sum.add(k.At(ky+half, kx+half), s.SampleXY(x+kx, y+ky))
				}
			}
			store(out, x, y, sum.color())
		},
	},
}

// wideSum is a per-channel weighted sum kept in float64. Products of float32
// samples with small integer weights are exact in float64, so taps that
// cancel on a flat neighbourhood sum to exactly zero.
type wideSum [4]float64

func (s *wideSum) add(w float32, c sampler.Color) {
	for ch := range s {
		s[ch] += float64(w) * float64(c[ch])
	}
}

func (s *wideSum) color() Accumulator {
	return Accumulator{float32(s[0]), float32(s[1]), float32(s[2]), float32(s[3])}
}

// store writes the first out.Channels values of acc to pixel (x, y).
func store(out *raster.Image, x, y int, acc Accumulator) {
	off := out.Offset(x, y)
	for c := 0; c < out.Channels; c++ {
		out.Set(off+c, acc[c])
	}
}

// Convolute2D convolves the sampled image with a square kernel. Output pixel
// (x, y) is the sum over kx, ky in [-half, half] of
// k(ky+half, kx+half) * s.SampleXY(x+kx, y+ky), accumulated in float64 and
// stored at the input's depth.
func Convolute2D(q compute.Backend, s sampler.Sampler, k kernel.Matrix) (*raster.Image, error) {
	if err := k.Validate("convolution.Convolute2D"); err != nil {
		return nil, err
	}
	in := s.Image()
	out := in.NewLike(in.Channels, in.Depth)
	if err := compute.Run(q, program, "convolve_2d", compute.Range2(in.Width, in.Height), s, k, out); err != nil {
		return nil, fmt.Errorf("convolve 2d: %w", err)
	}
	return out, nil
}

// Convolute1D convolves the sampled image with k along one axis.
func Convolute1D(q compute.Backend, s sampler.Sampler, k kernel.Vector, dir Direction) (*raster.Image, error) {
	if err := k.Validate("convolution.Convolute1D"); err != nil {
		return nil, err
	}
	in := s.Image()
	out := in.NewLike(in.Channels, in.Depth)
	if err := compute.Run(q, program, "convolve_1d", compute.Range2(in.Width, in.Height), s, k, dir, out); err != nil {
		return nil, fmt.Errorf("convolve %s: %w", dir, err)
	}
	return out, nil
}

// ConvoluteSeparable applies k horizontally, then vertically to the
// intermediate result under the same boundary policy. For a kernel that is an
// outer product v ⊗ v this equals Convolute2D with that product at a fraction
// of the cost.
func ConvoluteSeparable(q compute.Backend, s sampler.Sampler, k kernel.Vector) (*raster.Image, error) {
	tmp, err := Convolute1D(q, s, k, Horizontal)
	if err != nil {
		return nil, err
	}
	return Convolute1D(q, sampler.New(tmp, s.Policy()), k, Vertical)
}

// NonLinearConv2D runs a windowed reduction over the sampled image. Windows of
// size x size taps are centered on pixels 0, stride, 2*stride, .. in both
// directions; a stride of -1 uses the window size, tiling the image into
// non-overlapping patches. Each window starts from a zero Accumulator, feeds
// every tap to fn with kx in the outer loop, then calls fin (which may be nil)
// and stores the accumulator at the window center. Pixels that are not a
// window center stay zero.
//
// Windows run concurrently; fn and fin must be safe for concurrent use.
func NonLinearConv2D(q compute.Backend, s sampler.Sampler, size, stride int, fn AccumulateFunc, fin FinishFunc) (*raster.Image, error) {
	if size <= 0 {
		return nil, cverrors.New(cverrors.KindInvalidKernelShape, "convolution.NonLinearConv2D",
			"window size %d is not positive", size)
	}
	if size%2 == 0 {
		return nil, cverrors.New(cverrors.KindInvalidKernelShape, "convolution.NonLinearConv2D",
			"window size %d is even", size)
	}
	if stride == -1 {
		stride = size
	}
	if stride <= 0 {
		return nil, cverrors.New(cverrors.KindInvalidArgument, "convolution.NonLinearConv2D",
			"stride %d must be positive or -1", stride)
	}

	in := s.Image()
	out := in.NewLike(in.Channels, in.Depth)
	nx := (in.Width + stride - 1) / stride
	ny := (in.Height + stride - 1) / stride
	if err := compute.Run(q, program, "window_reduce", compute.Range2(nx, ny), s, size, stride, fn, fin, out); err != nil {
		return nil, fmt.Errorf("windowed reduction: %w", err)
	}
	return out, nil
}
