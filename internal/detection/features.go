package detection

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	"github.com/ironsheep/image-features-mcp/internal/convolution"
	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/raster"
	"github.com/ironsheep/image-features-mcp/internal/sampler"
	"github.com/ironsheep/image-features-mcp/internal/tensor"
)

// Feature is a detected interest point.
type Feature struct {
	// X is the column of the patch maximum (0 = leftmost).
	X int `json:"x"`

	// Y is the row of the patch maximum (0 = topmost).
	Y int `json:"y"`

	// Scale is the Gaussian sigma the response was measured at. It is the
	// smoothing sigma for Harris, the searched sigma for adaptive Harris and
	// 0 for Hessian.
	Scale float32 `json:"scale"`

	// Response is the absolute detector response at (X, Y).
	Response float32 `json:"response"`
}

// Params configures a detector run.
type Params struct {
	// PatchSize is the side length of the non-overlapping patches. It must be
	// odd. At most one feature is reported per patch.
	PatchSize int

	// Threshold is the minimum absolute response a patch maximum needs.
	Threshold float32

	// Tensor controls the structure tensor smoothing of the Harris detectors.
	Tensor tensor.Options
}

// DefaultParams uses 11 pixel patches, a threshold of 0.1 and the default
// tensor smoothing.
func DefaultParams() Params {
	return Params{PatchSize: 11, Threshold: 0.1, Tensor: tensor.DefaultOptions()}
}

func (p Params) validate(op string) error {
	if p.PatchSize <= 0 {
		return cverrors.New(cverrors.KindInvalidArgument, op, "patch size %d is not positive", p.PatchSize)
	}
	if p.PatchSize%2 == 0 {
		return cverrors.New(cverrors.KindInvalidKernelShape, op, "patch size %d is even", p.PatchSize)
	}
	if math.IsNaN(float64(p.Threshold)) {
		return cverrors.New(cverrors.KindInvalidArgument, op, "threshold is NaN")
	}
	return nil
}

// HarrisDetector runs Harris with default tensor smoothing.
func HarrisDetector(q compute.Backend, img *raster.Image, patchSize int, threshold float32) ([]Feature, error) {
	return Harris(q, img, Params{PatchSize: patchSize, Threshold: threshold, Tensor: tensor.DefaultOptions()})
}

// HessianDetector runs Hessian with the given patch size and threshold.
func HessianDetector(q compute.Backend, img *raster.Image, patchSize int, threshold float32) ([]Feature, error) {
	return Hessian(q, img, Params{PatchSize: patchSize, Threshold: threshold, Tensor: tensor.DefaultOptions()})
}

// AdaptiveHarrisDetector runs AdaptiveHarris with default tensor smoothing.
func AdaptiveHarrisDetector(q compute.Backend, img *raster.Image, patchSize int, threshold float32) ([]Feature, error) {
	return AdaptiveHarris(q, img, Params{PatchSize: patchSize, Threshold: threshold, Tensor: tensor.DefaultOptions()})
}

// Harris detects corners as patch maxima of the trace-normalized structure
// tensor response (ad - bc)/(a + d).
func Harris(q compute.Backend, img *raster.Image, p Params) ([]Feature, error) {
	if err := p.validate("detection.Harris"); err != nil {
		return nil, err
	}
	resp, err := tensor.HarrisResponse(q, img, p.Tensor)
	if err != nil {
		return nil, fmt.Errorf("harris response: %w", err)
	}
	features, err := Peaks(q, resp, p.PatchSize, p.Threshold)
	if err != nil {
		return nil, err
	}
	for i := range features {
		features[i].Scale = p.Tensor.Sigma
	}
	return features, nil
}

// Hessian detects blobs and saddles as patch maxima of the Hessian
// determinant.
func Hessian(q compute.Backend, img *raster.Image, p Params) ([]Feature, error) {
	if err := p.validate("detection.Hessian"); err != nil {
		return nil, err
	}
	resp, err := tensor.HessianResponse(q, img)
	if err != nil {
		return nil, fmt.Errorf("hessian response: %w", err)
	}
	return Peaks(q, resp, p.PatchSize, p.Threshold)
}

// AdaptiveHarris is Harris with a per-pixel scale search. Each feature
// reports the sigma at which its response peaked.
func AdaptiveHarris(q compute.Backend, img *raster.Image, p Params) ([]Feature, error) {
	if err := p.validate("detection.AdaptiveHarris"); err != nil {
		return nil, err
	}
	resp, err := tensor.ScaledHarris(q, img, p.Tensor)
	if err != nil {
		return nil, fmt.Errorf("scaled harris response: %w", err)
	}
	return Peaks(q, resp, p.PatchSize, p.Threshold)
}

// Peaks performs patch-wise non-maximum suppression on a float response image.
// The image is tiled into patchSize x patchSize patches; in each patch the
// pixel with the largest absolute value in channel 0 wins (later taps win
// ties) and is reported when that value is positive and at least threshold.
// If the response has a second channel its value at the winner becomes the
// feature's Scale. NaN responses never win.
//
// Features are returned sorted by row, then column.
func Peaks(q compute.Backend, response *raster.Image, patchSize int, threshold float32) ([]Feature, error) {
	if err := (Params{PatchSize: patchSize, Threshold: threshold}).validate("detection.Peaks"); err != nil {
		return nil, err
	}

	var (
		mu       sync.Mutex
		features []Feature
	)
	w, h := response.Width, response.Height

	_, err := convolution.NonLinearConv2D(q, sampler.New(response, sampler.Clamp), patchSize, -1,
		func(kx, ky int, v sampler.Color, acc *convolution.Accumulator) {
			if a := float32(math.Abs(float64(v[0]))); a >= acc[0] {
				*acc = convolution.Accumulator{a, float32(kx), float32(ky), v[1]}
			}
		},
		func(x, y int, acc *convolution.Accumulator) {
			if !(acc[0] > 0) || acc[0] < threshold {
				return
			}
			f := Feature{
				X:        clamp(x+int(acc[1]), w-1),
				Y:        clamp(y+int(acc[2]), h-1),
				Scale:    acc[3],
				Response: acc[0],
			}
			mu.Lock()
			features = append(features, f)
			mu.Unlock()
		})
	if err != nil {
		return nil, fmt.Errorf("non-maximum suppression: %w", err)
	}

	sort.Slice(features, func(i, j int) bool {
		if features[i].Y != features[j].Y {
			return features[i].Y < features[j].Y
		}
		return features[i].X < features[j].X
	})
	return features, nil
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
