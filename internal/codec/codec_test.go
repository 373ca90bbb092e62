package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/image-features-mcp/internal/compute"
	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// createPattern creates a raster whose channel values vary with position.
func createPattern(width, height, channels int, depth pixel.Depth) *raster.Image {
	m := raster.MustNew(width, height, channels, depth)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for c := 0; c < channels; c++ {
				v := float32((x*7+y*13+c*29)%251) / 250
				if c == 3 {
					v = 0.5
				}
				m.SetPixel(x, y, c, v)
			}
		}
	}
	return m
}

func assertSameRaster(t *testing.T, got, want *raster.Image) {
	t.Helper()
	if got.Width != want.Width || got.Height != want.Height || got.Channels != want.Channels || got.Depth != want.Depth {
		t.Fatalf("got %s %v, want %s %v", got.Shape(), got.Depth, want.Shape(), want.Depth)
	}
	for i := 0; i < want.Len(); i++ {
		if got.At(i) != want.At(i) {
			t.Fatalf("value %d: got %v, want %v", i, got.At(i), want.At(i))
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"a.png", PNG, false},
		{"dir/b.JPG", JPEG, false},
		{"c.jpeg", JPEG, false},
		{"d.bmp", BMP, false},
		{"e.tga", TGA, false},
		{"f.hdr", HDR, false},
		{"g.gif", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.err {
				if !errors.Is(err, cverrors.ErrUnsupportedFormat) {
					t.Errorf("expected unsupported_format, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestFormat_CanSave(t *testing.T) {
	tests := []struct {
		format Format
		depth  pixel.Depth
		want   bool
	}{
		{PNG, pixel.U8, true},
		{JPEG, pixel.U8, true},
		{BMP, pixel.U8, true},
		{TGA, pixel.U8, true},
		{HDR, pixel.U8, false},
		{PNG, pixel.F32, false},
		{HDR, pixel.F32, true},
		{PNG, pixel.U16, false},
		{HDR, pixel.U16, false},
	}
	for _, tt := range tests {
		if got := tt.format.CanSave(tt.depth); got != tt.want {
			t.Errorf("%s.CanSave(%v) = %v, want %v", tt.format, tt.depth, got, tt.want)
		}
	}
}

func TestSaveLoad_LosslessRoundTrip(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		ext  string
		img  *raster.Image
	}{
		{"png gray", ".png", createPattern(9, 7, 1, pixel.U8)},
		{"png rgb", ".png", createPattern(9, 7, 3, pixel.U8)},
		{"png rgba", ".png", createPattern(9, 7, 4, pixel.U8)},
		{"bmp rgb", ".bmp", createPattern(9, 7, 3, pixel.U8)},
		{"tga gray", ".tga", createPattern(9, 7, 1, pixel.U8)},
		{"tga rgb", ".tga", createPattern(9, 7, 3, pixel.U8)},
		{"tga rgba", ".tga", createPattern(9, 7, 4, pixel.U8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+tt.ext)
			if err := Save(path, tt.img); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			assertSameRaster(t, got, tt.img)
		})
	}
}

// encodeWidePNG writes a 16-bit raster with the standard library encoder,
// since Encode only writes 8-bit PNGs.
func encodeWidePNG(t *testing.T, m *raster.Image) *bytes.Buffer {
	t.Helper()
	img, err := ToImage(m)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestEncodeDecode_PNG16(t *testing.T) {
	for _, channels := range []int{1, 3, 4} {
		img := createPattern(6, 5, channels, pixel.U16)
		img.Uint16()[0] = 0x1234

		buf := encodeWidePNG(t, img)
		got, err := Decode(buf, PNG)
		if err != nil {
			t.Fatalf("%d channels: decode failed: %v", channels, err)
		}
		assertSameRaster(t, got, img)
	}
}

func TestEncodeDecode_JPEG(t *testing.T) {
	img := raster.MustNew(16, 16, 3, pixel.U8)
	for i := 0; i < img.Len(); i += 3 {
		img.Set(i, 0.8)
		img.Set(i+1, 0.4)
		img.Set(i+2, 0.2)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, JPEG); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf, JPEG)
	if err != nil {
		t.Fatal(err)
	}
	if got.Channels != 3 || got.Width != 16 || got.Height != 16 {
		t.Fatalf("got shape %s", got.Shape())
	}
	for c, want := range []float32{0.8, 0.4, 0.2} {
		if v := got.PixelAt(8, 8, c); math.Abs(float64(v-want)) > 0.03 {
			t.Errorf("channel %d: got %v, want about %v", c, v, want)
		}
	}
}

func TestEncodeDecode_HDR(t *testing.T) {
	img := raster.MustNew(10, 3, 3, pixel.F32)
	values := []float32{0, 0.001, 0.25, 1, 3.5, 1000}
	for i := 0; i < img.Len(); i++ {
		img.Set(i, values[i%len(values)])
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, HDR); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf, HDR)
	if err != nil {
		t.Fatal(err)
	}
	if got.Depth != pixel.F32 || !got.SameShape(img) {
		t.Fatalf("got %s %v", got.Shape(), got.Depth)
	}

	// RGBE shares one exponent per pixel, so precision is relative to the
	// largest channel of each pixel.
	for p := 0; p < img.Width*img.Height; p++ {
		peak := max(img.At(p*3), img.At(p*3+1), img.At(p*3+2))
		for c := 0; c < 3; c++ {
			want, v := img.At(p*3+c), got.At(p*3+c)
			if math.Abs(float64(v-want)) > float64(peak)/128 {
				t.Errorf("pixel %d channel %d: got %v, want %v", p, c, v, want)
			}
		}
	}
}

func TestEncodeHDR_GrayReplicated(t *testing.T) {
	img := raster.MustNew(2, 1, 1, pixel.F32)
	img.Set(0, 2)
	img.Set(1, 0.5)

	var buf bytes.Buffer
	if err := Encode(&buf, img, HDR); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf, HDR)
	if err != nil {
		t.Fatal(err)
	}
	if got.Channels != 3 {
		t.Fatalf("got %d channels, want 3", got.Channels)
	}
	for c := 0; c < 3; c++ {
		if !nearRel(got.PixelAt(0, 0, c), 2) || !nearRel(got.PixelAt(1, 0, c), 0.5) {
			t.Errorf("channel %d: got %v %v", c, got.PixelAt(0, 0, c), got.PixelAt(1, 0, c))
		}
	}
}

func TestDecodeHDR_RLE(t *testing.T) {
	// One 8 pixel scanline: a run of four (1,2,3,e) pixels and four literals.
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 8\n")
	buf.Write([]byte{2, 2, 0, 8})
	for c := 0; c < 4; c++ {
		v := byte(c + 1)
		if c == 3 {
			v = 136
		}
		buf.Write([]byte{128 + 4, v})
		buf.Write([]byte{4, 0, 0, 0, 0})
	}

	got, err := decodeHDR(&buf)
	if err != nil {
		t.Fatal(err)
	}
	// Exponent 136 makes one mantissa step worth exactly 1.
	want := []float32{1, 2, 3}
	for x := 0; x < 8; x++ {
		for c := 0; c < 3; c++ {
			w := want[c]
			if x >= 4 {
				w = 0
			}
			if v := got.PixelAt(x, 0, c); math.Abs(float64(v-w)) > 0.5 {
				t.Errorf("pixel %d channel %d: got %v, want %v", x, c, v, w)
			}
		}
	}
}

// nearRel reports whether v is within one RGBE mantissa step of want.
func nearRel(v, want float32) bool {
	return math.Abs(float64(v-want)) <= math.Abs(float64(want))/128
}

func TestDecode_OversizedHeader(t *testing.T) {
	var radiance bytes.Buffer
	radiance.WriteString("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 100000 +X 100000\n")

	tga := make([]byte, 18)
	tga[2] = 2
	tga[12], tga[13] = 0xff, 0xff
	tga[14], tga[15] = 0xff, 0xff
	tga[16] = 24

	tests := []struct {
		name   string
		format Format
		data   []byte
	}{
		{"hdr", HDR, radiance.Bytes()},
		{"tga", TGA, tga},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data), tt.format)
			if !errors.Is(err, cverrors.ErrUnsupportedFormat) {
				t.Errorf("got %v, want unsupported format", err)
			}
		})
	}
}

func TestDecodeTGA_BottomLeftRLE(t *testing.T) {
	// 2x2 24-bit RLE image stored bottom row first: a run of two blue pixels
	// then two raw pixels, red and green.
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, tgaTrueColorRLE, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 0, 2, 0, 24, 0})
	buf.Write([]byte{0x81, 255, 0, 0})
	buf.Write([]byte{0x01, 0, 0, 255, 0, 255, 0})

	got, err := decodeTGA(&buf)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		x, y int
		rgb  [3]float32
	}{
		{0, 0, [3]float32{1, 0, 0}},
		{1, 0, [3]float32{0, 1, 0}},
		{0, 1, [3]float32{0, 0, 1}},
		{1, 1, [3]float32{0, 0, 1}},
	}
	for _, tt := range tests {
		for c := 0; c < 3; c++ {
			if v := got.PixelAt(tt.x, tt.y, c); v != tt.rgb[c] {
				t.Errorf("(%d,%d) channel %d: got %v, want %v", tt.x, tt.y, c, v, tt.rgb[c])
			}
		}
	}
}

func TestDecodeTGA_Unsupported(t *testing.T) {
	header := []byte{0, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 8, 0}
	if _, err := decodeTGA(bytes.NewReader(header)); !errors.Is(err, cverrors.ErrUnsupportedFormat) {
		t.Errorf("color-mapped: got %v", err)
	}
}

func TestSave_UnsupportedDepth(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		img  *raster.Image
	}{
		{"float.png", raster.MustNew(2, 2, 3, pixel.F32)},
		{"byte.hdr", raster.MustNew(2, 2, 3, pixel.U8)},
		{"wide.tga", raster.MustNew(2, 2, 3, pixel.U16)},
		{"image.gif", raster.MustNew(2, 2, 3, pixel.U8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := Save(path, tt.img); !errors.Is(err, cverrors.ErrUnsupportedFormat) {
				t.Errorf("expected unsupported_format, got %v", err)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("file should not have been created")
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestFromImage_Channels(t *testing.T) {
	rect := image.Rect(0, 0, 2, 2)

	nrgba := image.NewNRGBA(rect)
	nrgba.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	opaqueRGBA := image.NewRGBA(rect)
	for i := 3; i < len(opaqueRGBA.Pix); i += 4 {
		opaqueRGBA.Pix[i] = 255
	}

	tests := []struct {
		name     string
		img      image.Image
		channels int
		depth    pixel.Depth
	}{
		{"gray", image.NewGray(rect), 1, pixel.U8},
		{"gray16", image.NewGray16(rect), 1, pixel.U16},
		{"ycbcr", image.NewYCbCr(rect, image.YCbCrSubsampleRatio444), 3, pixel.U8},
		{"opaque rgba", opaqueRGBA, 3, pixel.U8},
		{"translucent nrgba", nrgba, 4, pixel.U8},
		{"transparent nrgba64", image.NewNRGBA64(rect), 4, pixel.U16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromImage(tt.img)
			if m.Channels != tt.channels || m.Depth != tt.depth {
				t.Errorf("got %d channels %v, want %d %v", m.Channels, m.Depth, tt.channels, tt.depth)
			}
		})
	}

	m := FromImage(nrgba)
	if got := m.Uint8()[:4]; got[0] != 10 || got[1] != 20 || got[2] != 30 || got[3] != 40 {
		t.Errorf("straight alpha not preserved: %v", got)
	}
}

func TestToImage_Float(t *testing.T) {
	_, err := ToImage(raster.MustNew(2, 2, 1, pixel.F32))
	if !errors.Is(err, cverrors.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported_format, got %v", err)
	}
}

func TestToImage_GrayAlphaExpanded(t *testing.T) {
	m := raster.MustNew(1, 1, 2, pixel.U8)
	m.Uint8()[0], m.Uint8()[1] = 100, 200

	img, err := ToImage(m)
	if err != nil {
		t.Fatal(err)
	}
	got := img.(*image.NRGBA).Pix
	if got[0] != 100 || got[1] != 100 || got[2] != 100 || got[3] != 200 {
		t.Errorf("got %v, want [100 100 100 200]", got)
	}
}

func TestCache(t *testing.T) {
	q := compute.NewCPU()
	dir := t.TempDir()
	path := filepath.Join(dir, "cached.png")
	if err := Save(path, createPattern(4, 3, 3, pixel.U8)); err != nil {
		t.Fatal(err)
	}

	cache := NewCache()
	a, err := cache.Load(q, path, pixel.U8)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Load(q, path, pixel.U8)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second load should return the cached raster")
	}

	f, err := cache.Load(q, path, pixel.F32)
	if err != nil {
		t.Fatal(err)
	}
	if f.Depth != pixel.F32 {
		t.Errorf("got depth %v, want f32", f.Depth)
	}
	if f.At(5) != a.At(5) {
		t.Errorf("converted value: got %v, want %v", f.At(5), a.At(5))
	}
	if cache.Len() != 2 {
		t.Errorf("got %d entries, want 2", cache.Len())
	}

	cache.Evict(path)
	if cache.Len() != 0 {
		t.Errorf("evict left %d entries", cache.Len())
	}

	if _, err := cache.Load(q, path, pixel.U8); err != nil {
		t.Fatal(err)
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("clear left %d entries", cache.Len())
	}
}

func TestLoadInfo(t *testing.T) {
	q := compute.NewCPU()
	dir := t.TempDir()

	tests := []struct {
		name     string
		img      *raster.Image
		channels int
		depth    string
		alpha    bool
	}{
		{"rgb.png", createPattern(5, 4, 3, pixel.U8), 3, "u8", false},
		{"rgba.tga", createPattern(5, 4, 4, pixel.U8), 4, "u8", true},
		{"gray.hdr", createPattern(5, 4, 1, pixel.F32), 3, "f32", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			if err := Save(path, tt.img); err != nil {
				t.Fatal(err)
			}
			info, err := LoadInfo(NewCache(), q, path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Width != 5 || info.Height != 4 {
				t.Errorf("got %dx%d, want 5x4", info.Width, info.Height)
			}
			if info.Channels != tt.channels || info.Depth != tt.depth || info.HasAlpha != tt.alpha {
				t.Errorf("got %+v", info)
			}
			if info.FileSizeBytes <= 0 {
				t.Error("file size not reported")
			}
		})
	}
}

func TestLoadInfo_PNG16(t *testing.T) {
	q := compute.NewCPU()
	path := filepath.Join(t.TempDir(), "wide.png")

	buf := encodeWidePNG(t, createPattern(3, 3, 1, pixel.U16))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := LoadInfo(NewCache(), q, path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Depth != "u16" {
		t.Errorf("got depth %q, want u16", info.Depth)
	}
}
