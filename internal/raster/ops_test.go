package raster

import (
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
)

// filledImage creates an image where every channel value is v.
func filledImage(t *testing.T, w, h, c int, depth pixel.Depth, v float32) *Image {
	t.Helper()
	m, err := New(w, h, c, depth)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for i := 0; i < m.Len(); i++ {
		m.Set(i, v)
	}
	return m
}

func near(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestApply(t *testing.T) {
	q := compute.NewCPU()

	tests := []struct {
		name  string
		op    BinaryOp
		depth pixel.Depth
		a, b  float32
		want  float32
	}{
		{"add u8", OpAdd, pixel.U8, 0.2, 0.4, 0.6},
		{"add u8 saturates", OpAdd, pixel.U8, 0.8, 0.8, 1},
		{"sub u8 saturates at zero", OpSub, pixel.U8, 0.2, 0.6, 0},
		{"sub f32 keeps sign", OpSub, pixel.F32, 0.2, 0.6, -0.4},
		{"mul f32", OpMul, pixel.F32, 3, 4, 12},
		{"mul u16", OpMul, pixel.U16, 0.5, 0.5, 0.25},
		{"div f32", OpDiv, pixel.F32, 1, 4, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := filledImage(t, 5, 4, 3, tt.depth, tt.a)
			b := filledImage(t, 5, 4, 3, tt.depth, tt.b)

			out, err := Apply(q, tt.op, a, b)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if !out.SameShape(a) || out.Depth != tt.depth {
				t.Fatalf("output shape %s/%v, want %s/%v", out.Shape(), out.Depth, a.Shape(), tt.depth)
			}
			for i := 0; i < out.Len(); i++ {
				if !near(out.At(i), tt.want, 2.0/255) {
					t.Fatalf("value %d: got %v, want %v", i, out.At(i), tt.want)
				}
			}
		})
	}
}

func TestApply_DimensionMismatch(t *testing.T) {
	q := compute.NewCPU()

	tests := []struct {
		name string
		b    *Image
	}{
		{"width", MustNew(5, 4, 1, pixel.F32)},
		{"height", MustNew(4, 5, 1, pixel.F32)},
		{"channels", MustNew(4, 4, 3, pixel.F32)},
	}

	a := MustNew(4, 4, 1, pixel.F32)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, fn := range []func(compute.Backend, *Image, *Image) (*Image, error){Add, Sub, Mul, Div} {
				if _, err := fn(q, a, tt.b); !errors.Is(err, cverrors.ErrDimensionMismatch) {
					t.Errorf("got %v, want dimension mismatch", err)
				}
			}
		})
	}
}

func TestDiv_ByZero(t *testing.T) {
	q := compute.NewCPU()
	a := filledImage(t, 2, 2, 1, pixel.F32, 1)
	b := filledImage(t, 2, 2, 1, pixel.F32, 0)

	out, err := Div(q, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(float64(out.At(0)), 1) {
		t.Errorf("1/0 in float space: got %v, want +Inf", out.At(0))
	}

	a8 := filledImage(t, 2, 2, 1, pixel.U8, 1)
	b8 := filledImage(t, 2, 2, 1, pixel.U8, 0)
	out8, err := Div(q, a8, b8)
	if err != nil {
		t.Fatal(err)
	}
	if out8.At(0) != 1 {
		t.Errorf("1/0 saturated to u8: got %v, want 1", out8.At(0))
	}
}

func TestNegate(t *testing.T) {
	q := compute.NewCPU()

	f := filledImage(t, 3, 3, 2, pixel.F32, 0.75)
	out, err := Negate(q, f)
	if err != nil {
		t.Fatalf("Negate(f32) failed: %v", err)
	}
	if out.At(4) != -0.75 {
		t.Errorf("got %v, want -0.75", out.At(4))
	}

	u := filledImage(t, 3, 3, 2, pixel.U8, 0.75)
	if _, err := Negate(q, u); !errors.Is(err, cverrors.ErrUnsupportedFormat) {
		t.Errorf("Negate(u8): got %v, want unsupported format", err)
	}
}

func TestTransform_ChangesDepth(t *testing.T) {
	q := compute.NewCPU()
	m := filledImage(t, 4, 2, 1, pixel.U8, 0.5)

	out, err := Transform(q, m, pixel.F32, func(v float32) float32 { return v * 4 })
	if err != nil {
		t.Fatal(err)
	}
	if out.Depth != pixel.F32 {
		t.Fatalf("depth: got %v, want f32", out.Depth)
	}
	if !near(out.At(0), 2, 0.01) {
		t.Errorf("got %v, want ~2", out.At(0))
	}
}

func TestConvertDepth(t *testing.T) {
	q := compute.NewCPU()
	m := MustNew(2, 1, 1, pixel.U8)
	m.Uint8()[0] = 0
	m.Uint8()[1] = 255

	f, err := ConvertDepth(q, m, pixel.F32)
	if err != nil {
		t.Fatal(err)
	}
	if f.Float32()[0] != 0 || f.Float32()[1] != 1 {
		t.Errorf("u8 -> f32: got %v", f.Float32())
	}

	w, err := ConvertDepth(q, f, pixel.U16)
	if err != nil {
		t.Fatal(err)
	}
	if w.Uint16()[1] != 65535 {
		t.Errorf("f32 -> u16: got %v", w.Uint16())
	}

	same, err := ConvertDepth(q, m, pixel.U8)
	if err != nil {
		t.Fatal(err)
	}
	same.Uint8()[0] = 7
	if m.Uint8()[0] != 0 {
		t.Error("ConvertDepth to the same depth must copy")
	}
}

func TestGrayscale(t *testing.T) {
	q := compute.NewCPU()
	m := MustNew(1, 1, 4, pixel.F32)
	copy(m.Float32(), []float32{0.2, 0.4, 0.6, 1.0})

	g, err := Grayscale(q, m)
	if err != nil {
		t.Fatal(err)
	}
	if g.Channels != 1 {
		t.Fatalf("channels: got %d, want 1", g.Channels)
	}
	if !near(g.At(0), 0.55, 1e-6) {
		t.Errorf("equal weights over 4 channels: got %v, want 0.55", g.At(0))
	}

	rgb := MustNew(1, 1, 3, pixel.F32)
	copy(rgb.Float32(), []float32{0.3, 0.6, 0.9})
	g, err = GrayscaleWeighted(q, rgb, [4]float32{1, 2, 1, 100})
	if err != nil {
		t.Fatal(err)
	}
	// The alpha weight is ignored for a three channel image.
	if !near(g.At(0), 0.6, 1e-6) {
		t.Errorf("weighted rgb: got %v, want 0.6", g.At(0))
	}

	g, err = GrayscaleWeighted(q, rgb, [4]float32{})
	if err != nil {
		t.Fatal(err)
	}
	if g.At(0) != 0 {
		t.Errorf("zero weights: got %v, want 0", g.At(0))
	}
}

func TestMakeRGBAndRGBA(t *testing.T) {
	q := compute.NewCPU()

	gray := MustNew(2, 1, 1, pixel.U8)
	gray.Uint8()[0] = 10
	gray.Uint8()[1] = 200

	rgb, err := MakeRGB(q, gray)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint8{10, 10, 10, 200, 200, 200}
	for i, v := range want {
		if rgb.Uint8()[i] != v {
			t.Fatalf("MakeRGB: got %v, want %v", rgb.Uint8(), want)
		}
	}

	rgba, err := MakeRGBA(q, rgb)
	if err != nil {
		t.Fatal(err)
	}
	if rgba.Channels != 4 || rgba.Uint8()[3] != 255 || rgba.Uint8()[4] != 200 {
		t.Errorf("MakeRGBA: got %v", rgba.Uint8())
	}

	ga := MustNew(1, 1, 2, pixel.U8)
	copy(ga.Uint8(), []uint8{50, 128})
	rgba, err = MakeRGBA(q, ga)
	if err != nil {
		t.Fatal(err)
	}
	if got := rgba.Uint8(); got[0] != 50 || got[1] != 50 || got[2] != 50 || got[3] != 128 {
		t.Errorf("gray+alpha -> RGBA: got %v", got)
	}
}
