package codec

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"

	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// Format identifies an image file format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TGA  Format = "tga"
	HDR  Format = "hdr"
)

// MaxPixels bounds the width times height a tga or hdr header may declare.
const MaxPixels = 1 << 26

func checkSize(op string, w, h int) error {
	if w <= 0 || h <= 0 || w > MaxPixels/h {
		return cverrors.New(cverrors.KindUnsupportedFormat, op,
			"image size %dx%d outside 1..%d pixels", w, h, MaxPixels)
	}
	return nil
}

// FormatFromPath selects the format from the file extension. Unknown
// extensions fail with unsupported_format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	case ".tga":
		return TGA, nil
	case ".hdr":
		return HDR, nil
	}
	return "", cverrors.New(cverrors.KindUnsupportedFormat, "codec.FormatFromPath",
		"no codec for extension %q", filepath.Ext(path))
}

// CanSave reports whether images of depth d can be written as f. 8-bit images
// go to every format except hdr, float images only to hdr, and 16-bit images
// to none.
func (f Format) CanSave(d pixel.Depth) bool {
	switch d {
	case pixel.U8:
		return f != HDR
	case pixel.F32:
		return f == HDR
	}
	return false
}

// Load decodes the image at path at its native depth: 8 or 16 bit for png,
// 8 bit for jpeg, bmp and tga, float for hdr.
func Load(path string) (*raster.Image, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	m, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Decode reads an image of the given format from r.
func Decode(r io.Reader, format Format) (*raster.Image, error) {
	switch format {
	case TGA:
		return decodeTGA(r)
	case HDR:
		return decodeHDR(r)
	case BMP:
		img, err := bmp.Decode(r)
		if err != nil {
			return nil, err
		}
		return FromImage(img), nil
	case PNG, JPEG:
		img, err := imaging.Decode(r)
		if err != nil {
			return nil, err
		}
		return FromImage(img), nil
	}
	return nil, cverrors.New(cverrors.KindUnsupportedFormat, "codec.Decode", "unknown format %q", format)
}

// Save encodes m to path, choosing the format from the extension.
//
// Returns an unsupported_format error when the extension is unknown or the
// format cannot hold the image's depth (see Format.CanSave).
func Save(path string, m *raster.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if !format.CanSave(m.Depth) {
		return cverrors.New(cverrors.KindUnsupportedFormat, "codec.Save",
			"cannot write %s images as %s", m.Depth, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := Encode(f, m, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Encode writes m to w in the given format.
func Encode(w io.Writer, m *raster.Image, format Format) error {
	if !format.CanSave(m.Depth) {
		return cverrors.New(cverrors.KindUnsupportedFormat, "codec.Encode",
			"cannot write %s images as %s", m.Depth, format)
	}
	switch format {
	case TGA:
		return encodeTGA(w, m)
	case HDR:
		return encodeHDR(w, m)
	}

	img, err := ToImage(m)
	if err != nil {
		return err
	}
	switch format {
	case BMP:
		return bmp.Encode(w, img)
	case JPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(95))
	default:
		return imaging.Encode(w, img, imaging.PNG)
	}
}

// FromImage converts a decoded image to a raster. Gray images keep one
// channel, opaque color images get three and images with transparency four.
// 16-bit sources produce 16-bit rasters; everything else is 8-bit.
func FromImage(img image.Image) *raster.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		m := raster.MustNew(w, h, 1, pixel.U8)
		for y := 0; y < h; y++ {
			copy(m.Uint8()[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return m
	case *image.Gray16:
		m := raster.MustNew(w, h, 1, pixel.U16)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.Uint16()[y*w+x] = src.Gray16At(b.Min.X+x, b.Min.Y+y).Y
			}
		}
		return m
	case *image.RGBA64, *image.NRGBA64:
		return fromWide(img, opaque(img))
	case *image.YCbCr, *image.CMYK:
		return fromRGBA(clone.AsRGBA(img), 3)
	}

	channels := 4
	if opaque(img) {
		channels = 3
	}
	return fromNRGBA(imaging.Clone(img), channels)
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func fromNRGBA(src *image.NRGBA, channels int) *raster.Image {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	m := raster.MustNew(w, h, channels, pixel.U8)
	dst := m.Uint8()
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			copy(dst[(y*w+x)*channels:], row[x*4:x*4+channels])
		}
	}
	return m
}

// fromRGBA copies an opaque premultiplied image, where premultiplied and
// straight color agree.
func fromRGBA(src *image.RGBA, channels int) *raster.Image {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	m := raster.MustNew(w, h, channels, pixel.U8)
	dst := m.Uint8()
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			copy(dst[(y*w+x)*channels:], row[x*4:x*4+channels])
		}
	}
	return m
}

func fromWide(img image.Image, isOpaque bool) *raster.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	channels := 4
	if isOpaque {
		channels = 3
	}
	m := raster.MustNew(w, h, channels, pixel.U16)
	dst := m.Uint16()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			px := [4]uint16{c.R, c.G, c.B, c.A}
			copy(dst[(y*w+x)*channels:], px[:channels])
		}
	}
	return m
}

// ToImage converts an 8 or 16-bit raster to a standard library image: gray
// rasters become Gray or Gray16, others NRGBA or NRGBA64. A gray+alpha raster
// is expanded to color. Float rasters fail with unsupported_format; convert
// them to 8-bit first.
func ToImage(m *raster.Image) (image.Image, error) {
	rect := image.Rect(0, 0, m.Width, m.Height)
	n := m.Width * m.Height

	switch m.Depth {
	case pixel.U8:
		if m.Channels == 1 {
			img := image.NewGray(rect)
			copy(img.Pix, m.Uint8())
			return img, nil
		}
		img := image.NewNRGBA(rect)
		src := m.Uint8()
		for i := 0; i < n; i++ {
			px := expandRGBA(src[i*m.Channels:(i+1)*m.Channels], 0xff)
			copy(img.Pix[i*4:], px[:])
		}
		return img, nil

	case pixel.U16:
		if m.Channels == 1 {
			img := image.NewGray16(rect)
			for i, v := range m.Uint16() {
				img.SetGray16(i%m.Width, i/m.Width, color.Gray16{Y: v})
			}
			return img, nil
		}
		img := image.NewNRGBA64(rect)
		src := m.Uint16()
		for i := 0; i < n; i++ {
			px := expandRGBA(src[i*m.Channels:(i+1)*m.Channels], 0xffff)
			img.SetNRGBA64(i%m.Width, i/m.Width, color.NRGBA64{R: px[0], G: px[1], B: px[2], A: px[3]})
		}
		return img, nil
	}
	return nil, cverrors.New(cverrors.KindUnsupportedFormat, "codec.ToImage",
		"%s images have no standard image representation", m.Depth)
}

// expandRGBA maps 1 to 4 channel values to RGBA, replicating gray and filling
// a missing alpha with opaque.
func expandRGBA[T uint8 | uint16](px []T, opaque T) [4]T {
	switch len(px) {
	case 1:
		return [4]T{px[0], px[0], px[0], opaque}
	case 2:
		return [4]T{px[0], px[0], px[0], px[1]}
	case 3:
		return [4]T{px[0], px[1], px[2], opaque}
	}
	return [4]T{px[0], px[1], px[2], px[3]}
}
