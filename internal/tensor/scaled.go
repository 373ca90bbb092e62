package tensor

import (
	"fmt"
	"math"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
	"github.com/ironsheep/image-features-mcp/internal/sampler"
)

const (
	// ScaleStart is the first sigma tried by the scale search.
	ScaleStart = 1.0
	// ScaleStep is added to sigma while the response keeps growing.
	ScaleStep = 0.1
	// ScaleMaxSteps caps the number of sigma increments per pixel.
	ScaleMaxSteps = 1000
)

// ScaledHarris computes a Harris response with a per-pixel scale search. For
// each pixel the gradient products are re-sampled through Gaussian windows of
// increasing sigma, starting at ScaleStart and growing by ScaleStep while
// |(ad - bc)/(a + d)| strictly increases, for at most ScaleMaxSteps steps.
//
// The result is a two channel float image: channel 0 holds the peak absolute
// response and channel 1 the sigma at which it was reached.
func ScaledHarris(q compute.Backend, img *raster.Image, opts Options) (*raster.Image, error) {
	p, err := GradientProducts(q, img, opts)
	if err != nil {
		return nil, err
	}
	out, err := raster.New(img.Width, img.Height, 2, pixel.F32)
	if err != nil {
		return nil, err
	}
	if err := compute.Run(q, program, "scaled_harris", compute.Range2(img.Width, img.Height), p, out); err != nil {
		return nil, fmt.Errorf("scale search: %w", err)
	}
	return out, nil
}

func scaledHarrisKernel(id compute.Index, args compute.Args) {
	p := compute.Arg[*Products](args, 0)
	out := compute.Arg[*raster.Image](args, 1)

	sx := sampler.NewGaussian(p.Sx, ScaleStart)
	sy := sampler.NewGaussian(p.Sy, ScaleStart)
	sxy := sampler.NewGaussian(p.Sxy, ScaleStart)

	response := func() float32 {
		a := sx.SampleXY(id.X, id.Y)[0]
		b := sxy.SampleXY(id.X, id.Y)[0]
		d := sy.SampleXY(id.X, id.Y)[0]
		return float32(math.Abs(float64(Mat2{a, b, b, d}.HarrisRatio())))
	}

	sigma := float32(ScaleStart)
	best := response()
	for i := 0; i < ScaleMaxSteps; i++ {
		next := sigma + ScaleStep
		sx.SetSigma(next)
		sy.SetSigma(next)
		sxy.SetSigma(next)

		h := response()
		if !(h > best) {
			break
		}
		best, sigma = h, next
	}

	off := out.Offset(id.X, id.Y)
	out.Set(off, best)
	out.Set(off+1, sigma)
}
