package sampler

import (
	"math"

	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// Gaussian samples a Gaussian-weighted average of the pixels around a
// coordinate. The window extends int(3*sigma) pixels in every direction and
// reads edge pixels under Clamp. The sigma can be changed between samples,
// which lets one view serve a scale search.
type Gaussian struct {
	base   Sampler
	sigma  float32
	radius int
}

// NewGaussian returns a Gaussian window sampler over img.
func NewGaussian(img *raster.Image, sigma float32) *Gaussian {
	g := &Gaussian{base: New(img, Clamp)}
	g.SetSigma(sigma)
	return g
}

// SetSigma changes the standard deviation of the window. Non-positive values
// shrink the window to the center pixel.
func (g *Gaussian) SetSigma(sigma float32) {
	g.sigma = sigma
	g.radius = 0
	if sigma > 0 {
		g.radius = int(3 * sigma)
	}
}

// Sigma returns the current standard deviation.
func (g *Gaussian) Sigma() float32 { return g.sigma }

// Radius returns the current window half-size in pixels.
func (g *Gaussian) Radius() int { return g.radius }

// Image returns the image being sampled.
func (g *Gaussian) Image() *raster.Image { return g.base.img }

// Sample is SampleXY at the pixel nearest to normalized (u, v) under Clamp.
func (g *Gaussian) Sample(u, v float32) Color {
	w, h := g.base.img.Width, g.base.img.Height
	u, v = clampUnit(u), clampUnit(v)
	return g.SampleXY(int(u*float32(w-1)), int(v*float32(h-1)))
}

// SampleXY returns the weighted average around pixel (x, y). Weights are
// exp(-(dx²+dy²)/(2σ²)) normalized by their sum.
func (g *Gaussian) SampleXY(x, y int) Color {
	if g.radius == 0 {
		return g.base.SampleXY(x, y)
	}

	var acc Color
	var norm float32
	den := 2 * g.sigma * g.sigma
	for dy := -g.radius; dy <= g.radius; dy++ {
		for dx := -g.radius; dx <= g.radius; dx++ {
			wgt := float32(math.Exp(-float64(float32(dx*dx+dy*dy) / den)))
			c := g.base.SampleXY(x+dx, y+dy)
			for i := range acc {
				acc[i] += wgt * c[i]
			}
			norm += wgt
		}
	}
	for i := range acc {
		acc[i] /= norm
	}
	return acc
}
