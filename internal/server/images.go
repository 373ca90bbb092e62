package server

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-features-mcp/internal/codec"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// ImageResult contains an encoded output image
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// loadRegion loads the 8-bit rendition of path and crops it to region when
// one is given. The returned point is the crop origin in image coordinates.
func (s *Server) loadRegion(path string, region *Region) (*raster.Image, image.Point, error) {
	img, err := s.cache.Load(s.backend, path, pixel.U8)
	if err != nil {
		return nil, image.Point{}, err
	}
	if region == nil {
		return img, image.Point{}, nil
	}

	if region.X1 < 0 || region.Y1 < 0 || region.X2 > img.Width || region.Y2 > img.Height {
		return nil, image.Point{}, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			region.X1, region.Y1, region.X2, region.Y2, img.Width, img.Height)
	}
	if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
		return nil, image.Point{}, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}

	src, err := codec.ToImage(img)
	if err != nil {
		return nil, image.Point{}, err
	}
	rect := image.Rect(region.X1, region.Y1, region.X2, region.Y2)
	cropped := codec.FromImage(imaging.Crop(src, rect))
	return cropped, rect.Min, nil
}

// encodeResult renders m as a base64 PNG. Float images are clamped to [0, 1]
// and quantized to 8 bits first.
func (s *Server) encodeResult(m *raster.Image) (*ImageResult, error) {
	if m.Depth != pixel.U8 {
		var err error
		if m, err = raster.ConvertDepth(s.backend, m, pixel.U8); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := codec.Encode(&buf, m, codec.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &ImageResult{
		Width:       m.Width,
		Height:      m.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// valueRange returns the smallest and largest normalized value of m and the
// number of NaN values. min and max are 0 when every value is NaN.
func valueRange(m *raster.Image) (lo, hi float32, nans int) {
	first := true
	for i := 0; i < m.Len(); i++ {
		v := m.At(i)
		if math.IsNaN(float64(v)) {
			nans++
			continue
		}
		if first {
			lo, hi, first = v, v, false
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi, nans
}
