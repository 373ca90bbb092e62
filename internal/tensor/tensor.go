package tensor

import (
	"fmt"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// Mat2 is a 2x2 matrix stored row-major as [a, b, c, d] for [[a, b], [c, d]].
type Mat2 [4]float32

// Det returns a*d - b*c.
func (m Mat2) Det() float32 { return m[0]*m[3] - m[1]*m[2] }

// Trace returns a + d.
func (m Mat2) Trace() float32 { return m[0] + m[3] }

// HarrisRatio returns Det()/Trace(). The division is not guarded: a zero trace
// yields NaN or an infinity.
func (m Mat2) HarrisRatio() float32 { return m.Det() / m.Trace() }

// Field holds one Mat2 per pixel.
type Field struct {
	Width  int
	Height int
	Data   []Mat2
}

// NewField allocates a zero field.
func NewField(width, height int) *Field {
	return &Field{Width: width, Height: height, Data: make([]Mat2, width*height)}
}

// At returns the matrix at pixel (x, y).
func (f *Field) At(x, y int) Mat2 { return f.Data[y*f.Width+x] }

// Transform reduces every matrix to a scalar with fn and returns the results
// as a one channel float image.
func (f *Field) Transform(q compute.Backend, fn func(Mat2) float32) (*raster.Image, error) {
	out, err := raster.New(f.Width, f.Height, 1, pixel.F32)
	if err != nil {
		return nil, err
	}
	if err := compute.Run(q, program, "field_transform", compute.Range1(len(f.Data)), f, fn, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Options control the smoothing of the structure tensor.
type Options struct {
	// Size is the Gaussian kernel size. Even sizes round up.
	Size int

	// Sigma is the Gaussian standard deviation.
	Sigma float32
}

// DefaultOptions smooth with a 3-tap Gaussian of sigma 1.
func DefaultOptions() Options {
	return Options{Size: 3, Sigma: 1}
}

func (o Options) validate(op string) error {
	if o.Size <= 0 {
		return cverrors.New(cverrors.KindInvalidArgument, op, "smoothing size %d is not positive", o.Size)
	}
	if !(o.Sigma > 0) {
		return cverrors.New(cverrors.KindInvalidArgument, op, "smoothing sigma %v is not positive", o.Sigma)
	}
	return nil
}

var program = &compute.Program{
	ID:     "tensor",
	Source: "tensor field assembly, reduction and adaptive scale search",
	Entries: map[string]compute.KernelFunc{
		"field_assemble": func(id compute.Index, args compute.Args) {
			a := compute.Arg[*raster.Image](args, 0)
			b := compute.Arg[*raster.Image](args, 1)
			c := compute.Arg[*raster.Image](args, 2)
			d := compute.Arg[*raster.Image](args, 3)
			out := compute.Arg[*Field](args, 4)
			out.Data[id.X] = Mat2{a.At(id.X), b.At(id.X), c.At(id.X), d.At(id.X)}
		},
		"field_transform": func(id compute.Index, args compute.Args) {
			f := compute.Arg[*Field](args, 0)
			fn := compute.Arg[func(Mat2) float32](args, 1)
			out := compute.Arg[*raster.Image](args, 2)
			out.Set(id.X, fn(f.Data[id.X]))
		},
		"scaled_harris": scaledHarrisKernel,
	},
}

// assemble builds a field from four one channel float images of equal size.
func assemble(q compute.Backend, a, b, c, d *raster.Image) (*Field, error) {
	out := NewField(a.Width, a.Height)
	if err := compute.Run(q, program, "field_assemble", compute.Range1(len(out.Data)), a, b, c, d, out); err != nil {
		return nil, fmt.Errorf("assemble tensor field: %w", err)
	}
	return out, nil
}

// floatGray converts img to a one channel float image.
func floatGray(q compute.Backend, img *raster.Image) (*raster.Image, error) {
	f, err := raster.ConvertDepth(q, img, pixel.F32)
	if err != nil {
		return nil, err
	}
	if f.Channels == 1 {
		return f, nil
	}
	return raster.Grayscale(q, f)
}
