package document

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// Image formats understood by DecodeImage
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatWebP = "webp"
)

// Image is a checked PNG or JPEG ready to become an image XObject
type Image struct {
	Format string
	Width  int
	Height int
	// Data holds the original encoded bytes
	Data []byte
}

// DetectFormat sniffs the image format from the leading magic bytes
func DetectFormat(data []byte) string {
	switch {
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return FormatPNG
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		return FormatBMP
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP
	default:
		return ""
	}
}

// DecodeImage decodes PNG or JPEG bytes. Any other format is rejected with
// an UnsupportedFormat error; undecodable bytes give InvalidImage.
func DecodeImage(data []byte, format string) (*Image, error) {
	if len(data) == 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidImage, "image payload is empty")
	}

	switch format {
	case FormatPNG:
		return decodePNG(data)
	case FormatJPEG:
		return decodeJPEG(data)
	default:
		return nil, pdferrors.Newf(pdferrors.ErrorTypeUnsupportedFormat, "unsupported image format %q", format)
	}
}

func decodePNG(data []byte) (*Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidImage, fmt.Errorf("decode png: %w", err))
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidImage, "png has no pixels")
	}

	return &Image{
		Format: FormatPNG,
		Width:  b.Dx(),
		Height: b.Dy(),
		Data:   data,
	}, nil
}

func decodeJPEG(data []byte) (*Image, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidImage, fmt.Errorf("decode jpeg: %w", err))
	}
	// DCTDecode passes the bytes through, so make sure the whole stream decodes
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidImage, fmt.Errorf("decode jpeg: %w", err))
	}

	return &Image{
		Format: FormatJPEG,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}, nil
}
