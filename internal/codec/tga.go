package codec

import (
	"bufio"
	"encoding/binary"
	"io"

	cverrors "github.com/ironsheep/image-features-mcp/internal/errors"
	"github.com/ironsheep/image-features-mcp/internal/pixel"
	"github.com/ironsheep/image-features-mcp/internal/raster"
)

// Truevision TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

// tgaTopLeft is the descriptor bit for rows stored top to bottom.
const tgaTopLeft = 0x20

type tgaHeader struct {
	IDLength     uint8
	ColorMapType uint8
	ImageType    uint8
	ColorMap     [5]uint8
	XOrigin      uint16
	YOrigin      uint16
	Width        uint16
	Height       uint16
	BitsPerPixel uint8
	Descriptor   uint8
}

// decodeTGA reads uncompressed and run-length encoded true color and gray
// TGA files. Color-mapped files are rejected.
func decodeTGA(r io.Reader) (*raster.Image, error) {
	const op = "codec.decodeTGA"
	br := bufio.NewReader(r)

	var hdr tgaHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.ColorMapType != 0 {
		return nil, cverrors.New(cverrors.KindUnsupportedFormat, op, "color-mapped tga files are not supported")
	}

	var channels int
	switch hdr.ImageType {
	case tgaGray, tgaGrayRLE:
		if hdr.BitsPerPixel != 8 {
			return nil, cverrors.New(cverrors.KindUnsupportedFormat, op, "%d-bit gray tga", hdr.BitsPerPixel)
		}
		channels = 1
	case tgaTrueColor, tgaTrueColorRLE:
		switch hdr.BitsPerPixel {
		case 24:
			channels = 3
		case 32:
			channels = 4
		default:
			return nil, cverrors.New(cverrors.KindUnsupportedFormat, op, "%d-bit color tga", hdr.BitsPerPixel)
		}
	default:
		return nil, cverrors.New(cverrors.KindUnsupportedFormat, op, "tga image type %d", hdr.ImageType)
	}

	if _, err := br.Discard(int(hdr.IDLength)); err != nil {
		return nil, err
	}

	w, h := int(hdr.Width), int(hdr.Height)
	if err := checkSize(op, w, h); err != nil {
		return nil, err
	}
	m, err := raster.New(w, h, channels, pixel.U8)
	if err != nil {
		return nil, err
	}
	data := make([]uint8, w*h*channels)
	if hdr.ImageType == tgaTrueColorRLE || hdr.ImageType == tgaGrayRLE {
		err = readTGARLE(br, data, channels)
	} else {
		_, err = io.ReadFull(br, data)
	}
	if err != nil {
		return nil, err
	}

	dst := m.Uint8()
	stride := w * channels
	for y := 0; y < h; y++ {
		row := y
		if hdr.Descriptor&tgaTopLeft == 0 {
			row = h - 1 - y
		}
		copy(dst[row*stride:(row+1)*stride], data[y*stride:(y+1)*stride])
	}
	if channels >= 3 {
		swapRB(dst, channels)
	}
	return m, nil
}

func readTGARLE(br *bufio.Reader, data []uint8, channels int) error {
	px := make([]uint8, channels)
	for i := 0; i < len(data); {
		c, err := br.ReadByte()
		if err != nil {
			return err
		}
		n := int(c&0x7f+1) * channels
		if i+n > len(data) {
			return cverrors.New(cverrors.KindUnsupportedFormat, "codec.decodeTGA", "rle packet overruns image")
		}
		if c&0x80 == 0 {
			if _, err := io.ReadFull(br, data[i:i+n]); err != nil {
				return err
			}
		} else {
			if _, err := io.ReadFull(br, px); err != nil {
				return err
			}
			for j := i; j < i+n; j += channels {
				copy(data[j:], px)
			}
		}
		i += n
	}
	return nil
}

// swapRB converts BGR(A) to RGB(A) and back.
func swapRB(data []uint8, channels int) {
	for i := 0; i+2 < len(data); i += channels {
		data[i], data[i+2] = data[i+2], data[i]
	}
}

// encodeTGA writes an uncompressed top-left origin TGA. Gray images are
// written as 8-bit gray and gray+alpha is expanded to 32-bit color.
func encodeTGA(w io.Writer, m *raster.Image) error {
	if m.Width > 0xffff || m.Height > 0xffff {
		return cverrors.New(cverrors.KindUnsupportedFormat, "codec.encodeTGA", "%s exceeds the tga size limit", m.Shape())
	}
	src := m.Uint8()
	channels := m.Channels
	data := make([]uint8, len(src))
	copy(data, src)

	if channels == 2 {
		data = make([]uint8, m.Width*m.Height*4)
		for i := 0; i < m.Width*m.Height; i++ {
			px := expandRGBA(src[i*2:i*2+2], 0xff)
			copy(data[i*4:], px[:])
		}
		channels = 4
	}

	hdr := tgaHeader{
		ImageType:    tgaTrueColor,
		Width:        uint16(m.Width),
		Height:       uint16(m.Height),
		BitsPerPixel: uint8(channels * 8),
		Descriptor:   tgaTopLeft,
	}
	switch channels {
	case 1:
		hdr.ImageType = tgaGray
	case 4:
		hdr.Descriptor |= 8
	}
	if channels >= 3 {
		swapRB(data, channels)
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}
