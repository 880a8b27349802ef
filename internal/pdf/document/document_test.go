package document

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
	"github.com/inkswift/mcp-pdf-signer/internal/testpdf"
)

var identityScaled = [6]float64{100, 0, 0, 50, 72, 72}

func TestPDFCPUOpener_Open(t *testing.T) {
	doc, err := NewPDFCPUOpener().Open(testpdf.Document(3))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount())

	sizes, err := doc.PageSizes()
	require.NoError(t, err)
	require.Len(t, sizes, 3)
	for _, s := range sizes {
		assert.Equal(t, PageSize{Width: testpdf.LetterWidth, Height: testpdf.LetterHeight}, s)
	}
}

func TestPDFCPUOpener_OpenCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("hello, this is not a PDF document at all")},
		{"truncated header", []byte("%PDF-1.4\n1 0 obj\n<<")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewPDFCPUOpener().Open(tt.data)
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, pdferrors.ErrCorruptDocument)
		})
	}
}

func TestPDFCPUDocument_PageOutOfRange(t *testing.T) {
	doc, err := NewPDFCPUOpener().Open(testpdf.Document(2))
	require.NoError(t, err)

	for _, nr := range []int{0, -1, 3, 999} {
		_, err := doc.Page(nr)
		assert.ErrorIs(t, err, pdferrors.ErrOutOfRangePage, "page %d", nr)
	}

	page, err := doc.Page(2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number())
	assert.Equal(t, testpdf.LetterHeight, page.Size().Height)
}

func TestPDFCPUPage_DrawImage(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		fmt    string
		filter string
		smask  bool
	}{
		{"png with alpha", testpdf.PNG(40, 20, true), FormatPNG, "FlateDecode", true},
		{"opaque png", testpdf.PNG(40, 20, false), FormatPNG, "FlateDecode", false},
		{"jpeg", testpdf.JPEG(32, 16), FormatJPEG, "DCTDecode", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewPDFCPUOpener().Open(testpdf.Document(1))
			require.NoError(t, err)

			img, err := DecodeImage(tt.data, tt.fmt)
			require.NoError(t, err)

			page, err := doc.Page(1)
			require.NoError(t, err)
			require.NoError(t, page.DrawImage(img, identityScaled))

			var out bytes.Buffer
			require.NoError(t, doc.Save(&out))

			ctx := readContext(t, out.Bytes())
			images := pageImages(t, ctx, 1)
			require.Len(t, images, 1)

			for _, d := range images {
				w, _ := d.Find("Width")
				assert.Equal(t, types.Integer(img.Width), w)
				filter := d.NameEntry("Filter")
				require.NotNil(t, filter)
				assert.Equal(t, tt.filter, *filter)
				_, hasMask := d.Find("SMask")
				assert.Equal(t, tt.smask, hasMask)
			}

			// original content, q prefix and our drawing
			assert.Len(t, pageContents(t, ctx, 1), 3)
		})
	}
}

func TestPDFCPUPage_DrawImageTwiceOnSamePage(t *testing.T) {
	doc, err := NewPDFCPUOpener().Open(testpdf.Document(1))
	require.NoError(t, err)

	img, err := DecodeImage(testpdf.PNG(10, 10, true), FormatPNG)
	require.NoError(t, err)

	page, err := doc.Page(1)
	require.NoError(t, err)
	require.NoError(t, page.DrawImage(img, identityScaled))
	require.NoError(t, page.DrawImage(img, identityScaled))

	var out bytes.Buffer
	require.NoError(t, doc.Save(&out))

	ctx := readContext(t, out.Bytes())
	assert.Len(t, pageImages(t, ctx, 1), 2)
	// the q prefix is only added once
	assert.Len(t, pageContents(t, ctx, 1), 4)
}

func TestPDFCPUPage_DrawImageFillsTransformedBox(t *testing.T) {
	doc, err := NewPDFCPUOpener().Open(testpdf.Document(1))
	require.NoError(t, err)

	img, err := DecodeImage(testpdf.PNG(360, 120, true), FormatPNG)
	require.NoError(t, err)

	page, err := doc.Page(1)
	require.NoError(t, err)
	// half scale: 360x120 px becomes 180x60 pt at (50, 632)
	require.NoError(t, page.DrawImage(img, [6]float64{0.5, 0, 0, 0.5, 50, 632}))

	var out bytes.Buffer
	require.NoError(t, doc.Save(&out))

	blocks := drawBlockRE.FindAllStringSubmatch(out.String(), -1)
	require.Len(t, blocks, 1)

	ctm := concat(parseCM(t, blocks[0][2]), parseCM(t, blocks[0][1]))
	x0, y0 := apply(ctm, 0, 0)
	x1, y1 := apply(ctm, 1, 1)
	assert.InDelta(t, 50, x0, 1e-9)
	assert.InDelta(t, 632, y0, 1e-9)
	assert.InDelta(t, 230, x1, 1e-9)
	assert.InDelta(t, 692, y1, 1e-9)
}

func TestDecodeImage_Errors(t *testing.T) {
	_, err := DecodeImage(nil, FormatPNG)
	assert.ErrorIs(t, err, pdferrors.ErrInvalidImage)

	_, err = DecodeImage(testpdf.GIF(), FormatGIF)
	assert.ErrorIs(t, err, pdferrors.ErrUnsupportedFormat)

	_, err = DecodeImage([]byte("definitely not a png"), FormatPNG)
	assert.ErrorIs(t, err, pdferrors.ErrInvalidImage)

	_, err = DecodeImage(testpdf.PNG(4, 4, false), FormatJPEG)
	assert.ErrorIs(t, err, pdferrors.ErrInvalidImage)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatPNG, DetectFormat(testpdf.PNG(2, 2, false)))
	assert.Equal(t, FormatJPEG, DetectFormat(testpdf.JPEG(2, 2)))
	assert.Equal(t, FormatGIF, DetectFormat(testpdf.GIF()))
	assert.Equal(t, FormatBMP, DetectFormat([]byte("BM\x00\x00")))
	assert.Equal(t, FormatWebP, DetectFormat([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	assert.Equal(t, "", DetectFormat([]byte("x")))
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		0:           "0",
		1:           "1",
		-1:          "-1",
		0.5:         "0.5",
		72.125:      "72.125",
		1e-9:        "0",
		-1e-9:       "0",
		123.4567891: "123.456789",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatNumber(in), "formatNumber(%v)", in)
	}
}

var drawBlockRE = regexp.MustCompile(`q\n([^\n]*) cm\n([^\n]*) cm\n/(InkSig\d+) Do\nQ\n`)

func parseCM(t *testing.T, s string) [6]float64 {
	t.Helper()
	fields := strings.Fields(s)
	require.Len(t, fields, 6, "cm operands %q", s)
	var m [6]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		require.NoError(t, err)
		m[i] = v
	}
	return m
}

// concat returns the matrix that applies a first, then b
func concat(a, b [6]float64) [6]float64 {
	return [6]float64{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
		a[4]*b[0] + a[5]*b[2] + b[4],
		a[4]*b[1] + a[5]*b[3] + b[5],
	}
}

func apply(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func readContext(t *testing.T, data []byte) *model.Context {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())
	return ctx
}

// pageImages returns the image XObjects this package added to a page
func pageImages(t *testing.T, ctx *model.Context, pageNr int) map[string]types.Dict {
	t.Helper()
	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)

	resObj, found := pageDict.Find("Resources")
	require.True(t, found)
	res, err := ctx.DereferenceDict(resObj)
	require.NoError(t, err)

	images := map[string]types.Dict{}
	xObj, found := res.Find("XObject")
	if !found {
		return images
	}
	xobjects, err := ctx.DereferenceDict(xObj)
	require.NoError(t, err)

	for name, ref := range xobjects {
		obj, err := ctx.Dereference(ref)
		require.NoError(t, err)
		sd, ok := obj.(types.StreamDict)
		require.True(t, ok, "XObject %s is not a stream", name)
		if len(name) > len(imageNamePrefix) && name[:len(imageNamePrefix)] == imageNamePrefix {
			images[name] = sd.Dict
		}
	}
	return images
}

func pageContents(t *testing.T, ctx *model.Context, pageNr int) types.Array {
	t.Helper()
	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	require.NoError(t, err)

	obj, found := pageDict.Find("Contents")
	require.True(t, found)
	arr, err := ctx.DereferenceArray(obj)
	require.NoError(t, err)
	return arr
}
