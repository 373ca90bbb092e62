package tensor

import (
	"fmt"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	"github.com/ironsheep/image-features-mcp/internal/convolution"
	"github.com/ironsheep/image-features-mcp/internal/kernel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
	"github.com/ironsheep/image-features-mcp/internal/sampler"
)

// HessianPreSmooth is the sigma of the 3-tap Gaussian applied to the gray
// image before the second derivatives are taken.
const HessianPreSmooth = 0.25

// Products holds the smoothed gradient products of an image.
type Products struct {
	Sx  *raster.Image
	Sy  *raster.Image
	Sxy *raster.Image
}

// GradientProducts computes Dx², Dy² and Dx·Dy from Scharr derivatives of the
// float grayscale image and smooths each with a separable Gaussian. All reads
// use Clamp.
func GradientProducts(q compute.Backend, img *raster.Image, opts Options) (*Products, error) {
	if err := opts.validate("tensor.GradientProducts"); err != nil {
		return nil, err
	}
	gray, err := floatGray(q, img)
	if err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}

	s := sampler.New(gray, sampler.Clamp)
	dx, err := convolution.Convolute2D(q, s, kernel.ScharrH())
	if err != nil {
		return nil, fmt.Errorf("x derivative: %w", err)
	}
	dy, err := convolution.Convolute2D(q, s, kernel.ScharrV())
	if err != nil {
		return nil, fmt.Errorf("y derivative: %w", err)
	}

	g := kernel.Gauss(opts.Size, opts.Sigma)
	smooth := func(a, b *raster.Image) (*raster.Image, error) {
		p, err := raster.Mul(q, a, b)
		if err != nil {
			return nil, err
		}
		return convolution.ConvoluteSeparable(q, sampler.New(p, sampler.Clamp), g)
	}

	var out Products
	if out.Sx, err = smooth(dx, dx); err != nil {
		return nil, fmt.Errorf("smooth Dx²: %w", err)
	}
	if out.Sy, err = smooth(dy, dy); err != nil {
		return nil, fmt.Errorf("smooth Dy²: %w", err)
	}
	if out.Sxy, err = smooth(dx, dy); err != nil {
		return nil, fmt.Errorf("smooth DxDy: %w", err)
	}
	return &out, nil
}

// StructureTensor returns [[Sx², Sxy], [Sxy, Sy²]] per pixel.
func StructureTensor(q compute.Backend, img *raster.Image, opts Options) (*Field, error) {
	p, err := GradientProducts(q, img, opts)
	if err != nil {
		return nil, err
	}
	return assemble(q, p.Sx, p.Sxy, p.Sxy, p.Sy)
}

// HessianTensor returns [[Dxx, Dxy], [Dyx, Dyy]] per pixel, taken with
// Laplace kernels on the lightly smoothed float grayscale image.
func HessianTensor(q compute.Backend, img *raster.Image) (*Field, error) {
	gray, err := floatGray(q, img)
	if err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	gray, err = convolution.ConvoluteSeparable(q, sampler.New(gray, sampler.Clamp), kernel.Gauss(3, HessianPreSmooth))
	if err != nil {
		return nil, fmt.Errorf("pre-smooth: %w", err)
	}

	s := sampler.New(gray, sampler.Clamp)
	dxx, err := convolution.Convolute1D(q, s, kernel.LaplaceX(), convolution.Horizontal)
	if err != nil {
		return nil, err
	}
	dyy, err := convolution.Convolute1D(q, s, kernel.LaplaceX(), convolution.Vertical)
	if err != nil {
		return nil, err
	}
	dxy, err := convolution.Convolute2D(q, s, kernel.LaplaceXY())
	if err != nil {
		return nil, err
	}
	dyx, err := convolution.Convolute2D(q, s, kernel.LaplaceXY().Transpose())
	if err != nil {
		return nil, err
	}
	return assemble(q, dxx, dxy, dyx, dyy)
}

// HarrisResponse returns the trace-normalized corner response
// (ad - bc)/(a + d) of the structure tensor as a float image. Flat regions
// have a zero trace and produce NaN.
func HarrisResponse(q compute.Backend, img *raster.Image, opts Options) (*raster.Image, error) {
	f, err := StructureTensor(q, img, opts)
	if err != nil {
		return nil, err
	}
	return f.Transform(q, Mat2.HarrisRatio)
}

// HessianResponse returns the determinant of the Hessian tensor.
func HessianResponse(q compute.Backend, img *raster.Image) (*raster.Image, error) {
	f, err := HessianTensor(q, img)
	if err != nil {
		return nil, err
	}
	return f.Transform(q, Mat2.Det)
}
