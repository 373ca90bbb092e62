package sampler

import (
	"fmt"

	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// Policy is the boundary rule applied when a coordinate falls outside the
// image.
type Policy uint8

const (
	// Clamp saturates coordinates to the nearest edge pixel.
	Clamp Policy = iota
	// Repeat wraps coordinates around the image.
	Repeat
	// BlackEdge returns transparent black outside the image.
	BlackEdge
)

var policyNames = [...]string{
	Clamp:     "clamp",
	Repeat:    "repeat",
	BlackEdge: "black_edge",
}

func (p Policy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("Policy(%d)", uint8(p))
}

// ParsePolicy parses "clamp", "repeat" or "black_edge".
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return Policy(p), nil
		}
	}
	return 0, fmt.Errorf("unknown boundary policy %q (want clamp, repeat or black_edge)", s)
}

// Color is a four channel float color. Channels the image does not have read
// as 0, except alpha which reads as 1.
type Color [4]float32

// Transparent is the color returned by BlackEdge outside the image.
var Transparent = Color{}

// Sampler is a read-only view of an image with a boundary policy. It must not
// outlive the image it reads.
type Sampler struct {
	img    *raster.Image
	policy Policy
}

// New returns a sampler reading img under policy.
func New(img *raster.Image, policy Policy) Sampler {
	return Sampler{img: img, policy: policy}
}

// Image returns the image being sampled.
func (s Sampler) Image() *raster.Image { return s.img }

// Policy returns the boundary policy.
func (s Sampler) Policy() Policy { return s.policy }

// Sample reads the texel at normalized coordinates (u, v). Pixel coordinates
// are u*(W-1) and v*(H-1), truncated toward zero.
func (s Sampler) Sample(u, v float32) Color {
	w, h := s.img.Width, s.img.Height
	switch s.policy {
	case Clamp:
		u, v = clampUnit(u), clampUnit(v)
		return s.Texel(int(u*float32(w-1)), int(v*float32(h-1)))
	case Repeat:
		return s.Texel(Mod(int(u*float32(w-1)), w), Mod(int(v*float32(h-1)), h))
	default:
		if u < 0 || u >= 1 || v < 0 || v >= 1 {
			return Transparent
		}
		return s.Texel(int(u*float32(w-1)), int(v*float32(h-1)))
	}
}

// SampleXY reads pixel (x, y). It resolves the same texel as Sample(x/(W-1),
// y/(H-1)) without the round trip through float coordinates. Under BlackEdge
// this means the last column and row read as transparent, exactly like
// normalized coordinate 1.
func (s Sampler) SampleXY(x, y int) Color {
	w, h := s.img.Width, s.img.Height
	switch s.policy {
	case Clamp:
		return s.Texel(clampInt(x, w-1), clampInt(y, h-1))
	case Repeat:
		return s.Texel(Mod(x, w), Mod(y, h))
	default:
		if outside(x, w) || outside(y, h) {
			return Transparent
		}
		return s.Texel(x, y)
	}
}

// Texel reads pixel (x, y) without boundary handling. The coordinates must lie
// inside the image.
func (s Sampler) Texel(x, y int) Color {
	c := Color{0, 0, 0, 1}
	off := s.img.Offset(x, y)
	for i := 0; i < s.img.Channels; i++ {
		c[i] = s.img.At(off + i)
	}
	return c
}

// outside reports whether x maps outside [0, 1) in normalized space. A single
// pixel dimension has only coordinate 0.
func outside(x, n int) bool {
	if n == 1 {
		return x != 0
	}
	return x < 0 || x >= n-1
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
