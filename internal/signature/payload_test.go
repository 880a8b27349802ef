package signature

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
	"github.com/inkswift/mcp-pdf-signer/internal/testpdf"
)

func TestDecodePayload(t *testing.T) {
	raw := testpdf.PNG(8, 4, true)

	tests := []struct {
		name     string
		payload  string
		wantMIME string
	}{
		{"data uri", testpdf.DataURI("image/png", raw), "image/png"},
		{"bare base64", testpdf.Base64(raw), ""},
		{"unpadded", base64.RawStdEncoding.EncodeToString(raw), ""},
		{"url alphabet", base64.URLEncoding.EncodeToString(raw), ""},
		{"wrapped lines", wrap(testpdf.Base64(raw), 60), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := DecodePayload(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, raw, data)
			assert.Equal(t, tt.wantMIME, mime)
		})
	}
}

func TestDecodePayload_Invalid(t *testing.T) {
	for name, payload := range map[string]string{
		"empty":          "",
		"whitespace":     "  \n",
		"not base64":     "@@@not base64@@@",
		"missing comma":  "data:image/png;base64",
		"not base64 uri": "data:image/png,abcd",
		"empty uri body": "data:image/png;base64,",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodePayload(payload)
			assert.ErrorIs(t, err, pdferrors.ErrInvalidImage)
		})
	}
}

func wrap(s string, n int) string {
	var out []byte
	for i := 0; i < len(s); i += n {
		end := min(i+n, len(s))
		out = append(out, s[i:end]...)
		out = append(out, '\n')
	}
	return string(out)
}
