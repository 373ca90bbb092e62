package codec

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// decodeHDR reads a Radiance RGBE file into a 3-channel float image. The
// header is checked against MaxPixels before any pixel data is decoded.
func decodeHDR(r io.Reader) (*raster.Image, error) {
	const op = "codec.decodeHDR"

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg, err := rgbe.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindUnsupportedFormat, op, err, "radiance header")
	}
	if err := checkSize(op, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, err := rgbe.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, cverrors.Wrap(cverrors.KindUnsupportedFormat, op, err, "radiance pixels")
	}
	src, ok := img.(hdr.Image)
	if !ok {
		return nil, cverrors.New(cverrors.KindUnsupportedFormat, op, "decoder returned %T", img)
	}

	b := src.Bounds()
	m, err := raster.New(b.Dx(), b.Dy(), 3, pixel.F32)
	if err != nil {
		return nil, err
	}
	dst := m.Float32()
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			cr, cg, cb, _ := src.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
			off := m.Offset(x, y)
			dst[off], dst[off+1], dst[off+2] = float32(cr), float32(cg), float32(cb)
		}
	}
	return m, nil
}

// encodeHDR writes m as a Radiance RGBE file. Gray images are replicated to
// RGB and alpha is dropped. Negative values are written as 0.
func encodeHDR(w io.Writer, m *raster.Image) error {
	out := hdr.NewRGB(image.Rect(0, 0, m.Width, m.Height))
	src := m.Float32()
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			px := src[m.Offset(x, y):]
			c := hdrcolor.RGB{R: nonNegative(px[0]), G: nonNegative(px[0]), B: nonNegative(px[0])}
			if m.Channels >= 3 {
				c.G, c.B = nonNegative(px[1]), nonNegative(px[2])
			}
			out.SetRGB(x, y, c)
		}
	}
	if err := rgbe.Encode(w, out); err != nil {
		return fmt.Errorf("encode radiance: %w", err)
	}
	return nil
}

func nonNegative(v float32) float64 {
	return float64(max(v, 0))
}
