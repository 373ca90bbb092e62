package kernel

import (
	"fmt"
	"strings"

	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
)

// Vector is a one dimensional kernel. Convolution requires an odd length so
// that tap Half() is the center.
type Vector []float32

// NewVector copies values into a Vector. It fails with invalid_kernel_shape
// when the length is zero or even.
func NewVector(values ...float32) (Vector, error) {
	if len(values)%2 == 0 {
		return nil, cverrors.New(cverrors.KindInvalidKernelShape, "kernel.NewVector",
			"length %d is not odd", len(values))
	}
	return append(Vector(nil), values...), nil
}

// Size returns the number of taps.
func (v Vector) Size() int { return len(v) }

// Half returns the index of the center tap.
func (v Vector) Half() int { return len(v) / 2 }

// Sum returns the sum of the taps.
func (v Vector) Sum() float32 {
	var s float32
	for _, w := range v {
		s += w
	}
	return s
}

// Validate reports an invalid_kernel_shape error for an empty or even-length
// vector.
func (v Vector) Validate(op string) error {
	if len(v)%2 == 0 {
		return cverrors.New(cverrors.KindInvalidKernelShape, op, "vector length %d is not odd", len(v))
	}
	return nil
}

// Matrix is a square two dimensional kernel stored row-major.
type Matrix struct {
	size int
	data []float32
}

// NewMatrix builds a matrix from its rows. The rows must form a square with an
// odd side length.
func NewMatrix(rows ...[]float32) (Matrix, error) {
	n := len(rows)
	if n%2 == 0 {
		return Matrix{}, cverrors.New(cverrors.KindInvalidKernelShape, "kernel.NewMatrix",
			"side length %d is not odd", n)
	}
	m := Matrix{size: n, data: make([]float32, 0, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return Matrix{}, cverrors.New(cverrors.KindInvalidKernelShape, "kernel.NewMatrix",
				"row %d has %d columns, want %d", i, len(row), n)
		}
		m.data = append(m.data, row...)
	}
	return m, nil
}

// MustMatrix is like NewMatrix but panics on a malformed matrix. It is
// intended for fixed filter definitions.
func MustMatrix(rows ...[]float32) Matrix {
	m, err := NewMatrix(rows...)
	if err != nil {
		panic(err)
	}
	return m
}

// Size returns the side length.
func (m Matrix) Size() int { return m.size }

// Half returns the index of the center row and column.
func (m Matrix) Half() int { return m.size / 2 }

// At returns the weight at row, col.
func (m Matrix) At(row, col int) float32 { return m.data[row*m.size+col] }

// Validate reports an invalid_kernel_shape error for a zero or malformed
// matrix.
func (m Matrix) Validate(op string) error {
	if m.size%2 == 0 || len(m.data) != m.size*m.size {
		return cverrors.New(cverrors.KindInvalidKernelShape, op, "matrix side length %d is not odd", m.size)
	}
	return nil
}

// Transpose returns the matrix mirrored along its diagonal.
func (m Matrix) Transpose() Matrix {
	t := Matrix{size: m.size, data: make([]float32, len(m.data))}
	for r := 0; r < m.size; r++ {
		for c := 0; c < m.size; c++ {
			t.data[c*m.size+r] = m.data[r*m.size+c]
		}
	}
	return t
}

// Sum returns the sum of all weights.
func (m Matrix) Sum() float32 {
	var s float32
	for _, w := range m.data {
		s += w
	}
	return s
}

// Outer returns the matrix a ⊗ b with weight a[row]*b[col]. Convolving with
// Outer(v, v) is equivalent to a separable convolution with v.
func Outer(a, b Vector) (Matrix, error) {
	if len(a) != len(b) {
		return Matrix{}, cverrors.New(cverrors.KindInvalidKernelShape, "kernel.Outer",
			"vectors have lengths %d and %d", len(a), len(b))
	}
	if err := a.Validate("kernel.Outer"); err != nil {
		return Matrix{}, err
	}
	n := len(a)
	m := Matrix{size: n, data: make([]float32, n*n)}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			m.data[r*n+c] = a[r] * b[c]
		}
	}
	return m, nil
}

// String formats the matrix one row per line.
func (m Matrix) String() string {
	var sb strings.Builder
	for r := 0; r < m.size; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprint(&sb, m.data[r*m.size:(r+1)*m.size])
	}
	return sb.String()
}
