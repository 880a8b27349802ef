// Package testpdf builds small, well-formed PDF documents and signature
// images for tests.
package testpdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

// Letter page size in points
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// Document returns a PDF with the given number of letter-sized pages, each
// carrying a one-line text content stream.
func Document(pages int) []byte {
	return DocumentWithSize(pages, LetterWidth, LetterHeight)
}

// DocumentWithSize returns a PDF whose pages all have the given MediaBox size
func DocumentWithSize(pages int, width, height float64) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// 1: catalog, 2: page tree, 3: font, then page/content pairs
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i := 0; i < pages; i++ {
		pageObj := 4 + 2*i
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", width, height, pageObj+1))
		content := fmt.Sprintf("BT /F1 12 Tf 72 %g Td (Page %d) Tj ET", height-72, i+1)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

// PNG returns an encoded PNG of the given size. With alpha set the image
// is a dark stroke on a transparent background, like a drawn signature.
func PNG(width, height int, alpha bool) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if alpha {
				c.A = 0
			}
			if y == height/2 || x == y {
				c = color.NRGBA{R: 20, G: 20, B: 80, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// JPEG returns an encoded baseline JPEG of the given size
func JPEG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: 40, B: uint8(y % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// GIF returns a GIF89a header followed by junk, enough for format sniffing
func GIF() []byte {
	return append([]byte("GIF89a"), 0x01, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00)
}

// DataURI wraps data in a base64 data URI with the given MIME type
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Base64 returns data as a bare standard base64 string
func Base64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
