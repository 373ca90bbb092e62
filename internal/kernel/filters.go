package kernel

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SimpleEdgeDetector is the central difference (0.5, 0, -0.5).
func SimpleEdgeDetector() Vector { return Vector{0.5, 0, -0.5} }

// LaplaceX is the one dimensional second derivative (1, -2, 1).
func LaplaceX() Vector { return Vector{1, -2, 1} }

// SobelH responds to horizontal intensity changes.
func SobelH() Matrix {
	return MustMatrix(
		[]float32{-1, 0, 1},
		[]float32{-2, 0, 2},
		[]float32{-1, 0, 1},
	)
}

// SobelV is SobelH transposed.
func SobelV() Matrix { return SobelH().Transpose() }

// ScharrH is the Scharr operator for horizontal changes. It has better
// rotational symmetry than Sobel and is used for structure tensors.
func ScharrH() Matrix {
	return MustMatrix(
		[]float32{3, 0, -3},
		[]float32{10, 0, -10},
		[]float32{3, 0, -3},
	)
}

// ScharrV is ScharrH transposed.
func ScharrV() Matrix { return ScharrH().Transpose() }

// Laplace is the eight-neighbour Laplacian.
func Laplace() Matrix {
	return MustMatrix(
		[]float32{1, 1, 1},
		[]float32{1, -8, 1},
		[]float32{1, 1, 1},
	)
}

// LaplaceXY is the diagonal second derivative. Its transpose gives the
// opposite cross term of the Hessian.
func LaplaceXY() Matrix {
	return MustMatrix(
		[]float32{1, 0, 0},
		[]float32{0, -2, 0},
		[]float32{0, 0, 1},
	)
}

// OddSize rounds n up to the next odd size. Sizes below 1 become 1.
func OddSize(n int) int {
	if n < 1 {
		return 1
	}
	if n%2 == 0 {
		return n + 1
	}
	return n
}

// Box returns an n-tap averaging kernel.
func Box(n int) Vector {
	s := OddSize(n)
	v := make(Vector, s)
	for i := range v {
		v[i] = 1 / float32(s)
	}
	return v
}

// StackBlur returns an n-tap triangle kernel, 1, 2, .., peak, .., 2, 1,
// normalized to sum to one.
func StackBlur(n int) Vector {
	s := OddSize(n)
	v := make(Vector, s)
	var norm float32
	for i := 0; i <= s/2; i++ {
		v[i] = float32(i + 1)
		norm += v[i]
	}
	for i := s/2 + 1; i < s; i++ {
		v[i] = float32(s - i)
		norm += v[i]
	}
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Gauss returns an n-tap Gaussian with standard deviation sigma, centered on
// the middle tap and normalized to sum to one.
func Gauss(n int, sigma float32) Vector {
	s := OddSize(n)
	v := make(Vector, s)
	twoSigmaSq := 2 * float64(sigma) * float64(sigma)
	var sum float32
	for i := range v {
		x := float64(i - s/2)
		v[i] = float32(math.Exp(-(x * x) / twoSigmaSq))
		sum += v[i]
	}
	for i := range v {
		v[i] /= sum
	}
	return v
}

// Named returns a filter by name. Vectors are returned for separable and
// directional filters, matrices for full 2D filters. The size argument applies
// to box, stackblur and gauss; sigma applies to gauss.
//
// Recognized names: simple_edge, laplace_x, sobel_h, sobel_v, scharr_h,
// scharr_v, laplace, laplace_xy, box, stackblur, gauss.
func Named(name string, size int, sigma float32) (Vector, Matrix, error) {
	switch strings.ToLower(name) {
	case "simple_edge":
		return SimpleEdgeDetector(), Matrix{}, nil
	case "laplace_x":
		return LaplaceX(), Matrix{}, nil
	case "box":
		return Box(size), Matrix{}, nil
	case "stackblur":
		return StackBlur(size), Matrix{}, nil
	case "gauss":
		return Gauss(size, sigma), Matrix{}, nil
	case "sobel_h":
		return nil, SobelH(), nil
	case "sobel_v":
		return nil, SobelV(), nil
	case "scharr_h":
		return nil, ScharrH(), nil
	case "scharr_v":
		return nil, ScharrV(), nil
	case "laplace":
		return nil, Laplace(), nil
	case "laplace_xy":
		return nil, LaplaceXY(), nil
	}
	return nil, Matrix{}, fmt.Errorf("unknown filter %q", name)
}

// ParseVector parses comma separated weights such as "1,2,1".
func ParseVector(s string) (Vector, error) {
	fields := strings.Split(s, ",")
	values := make([]float32, 0, len(fields))
	for _, f := range fields {
		w, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid kernel weight %q: %w", f, err)
		}
		values = append(values, float32(w))
	}
	return NewVector(values...)
}
