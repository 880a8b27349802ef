package signature

import (
	"encoding/base64"
	"strings"

	"github.com/inkswift/mcp-pdf-signer/internal/pdf/document"
	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

const dataURIPrefix = "data:"

// DecodePayload decodes an image given either as bare base64 or as a
// data:image/...;base64,... URI. The MIME type is returned when the payload
// is a data URI.
func DecodePayload(payload string) (data []byte, mime string, err error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidImage, "image payload is empty")
	}

	encoded := payload
	if strings.HasPrefix(payload, dataURIPrefix) {
		header, body, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidImage, "data URI has no payload")
		}
		meta := strings.TrimPrefix(header, dataURIPrefix)
		params := strings.Split(meta, ";")
		mime = strings.ToLower(params[0])
		if params[len(params)-1] != "base64" {
			return nil, mime, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidImage, "data URI is not base64 encoded")
		}
		encoded = body
	}

	data, err = decodeBase64(encoded)
	if err != nil {
		return nil, mime, pdferrors.WrapError(pdferrors.ErrorTypeInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, mime, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidImage, "image payload is empty")
	}
	return data, mime, nil
}

// decodeBase64 accepts padded and unpadded input in the standard or URL
// alphabet, ignoring embedded whitespace.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// sniffFormat infers the format of a payload from its data URI MIME type,
// falling back to the decoded magic bytes.
func sniffFormat(payload string) ImageFormat {
	data, mime, err := DecodePayload(payload)
	if mime != "" {
		return ParseImageFormat(mime)
	}
	if err != nil {
		return ""
	}
	return ImageFormat(document.DetectFormat(data))
}
