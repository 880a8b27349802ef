package document

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	pdferrors "github.com/inkswift/mcp-pdf-signer/internal/pdf/errors"
)

// imageNamePrefix names the XObjects this package adds to page resources
const imageNamePrefix = "InkSig"

// PDFCPUOpener opens documents with pdfcpu
type PDFCPUOpener struct{}

// NewPDFCPUOpener creates a new pdfcpu backed Opener
func NewPDFCPUOpener() *PDFCPUOpener {
	return &PDFCPUOpener{}
}

// newConfiguration returns a relaxed read configuration that writes classic
// xref tables without object streams, so that simpler parsers can read the
// output too.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// Open parses data into a Document. Unparseable bytes yield a
// CorruptDocument error.
func (o *PDFCPUOpener) Open(data []byte) (doc Document, err error) {
	if len(data) == 0 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeCorruptDocument, "document is empty")
	}

	// pdfcpu can panic on badly damaged input
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = pdferrors.Newf(pdferrors.ErrorTypeCorruptDocument, "failed to read PDF: %v", r)
		}
	}()

	ctx, err := api.ReadContext(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument,
			fmt.Errorf("failed to read PDF context: %w", err))
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument,
			fmt.Errorf("failed to ensure page count: %w", err))
	}

	if ctx.PageCount < 1 {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeCorruptDocument, "document has no pages")
	}

	return &pdfcpuDocument{
		ctx:     ctx,
		wrapped: make(map[int]bool),
	}, nil
}

type pdfcpuDocument struct {
	ctx *model.Context
	// pages whose original content has already been wrapped in q/Q
	wrapped   map[int]bool
	nextImage int
}

func (d *pdfcpuDocument) PageCount() int {
	return d.ctx.PageCount
}

func (d *pdfcpuDocument) Page(pageNr int) (Page, error) {
	if pageNr < 1 || pageNr > d.ctx.PageCount {
		return nil, pdferrors.Newf(pdferrors.ErrorTypeOutOfRangePage,
			"page %d out of range (document has %d pages)", pageNr, d.ctx.PageCount).WithPage(pageNr)
	}

	pageDict, _, inherited, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument,
			fmt.Errorf("failed to load page %d: %w", pageNr, err)).WithPage(pageNr)
	}
	if pageDict == nil {
		return nil, pdferrors.Newf(pdferrors.ErrorTypeCorruptDocument, "page %d has no dictionary", pageNr).WithPage(pageNr)
	}

	size, err := pageSize(inherited)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument, err).WithPage(pageNr)
	}

	return &pdfcpuPage{
		doc:       d,
		number:    pageNr,
		dict:      pageDict,
		inherited: inherited,
		size:      size,
	}, nil
}

func (d *pdfcpuDocument) PageSizes() ([]PageSize, error) {
	sizes := make([]PageSize, 0, d.ctx.PageCount)
	for i := 1; i <= d.ctx.PageCount; i++ {
		p, err := d.Page(i)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, p.Size())
	}
	return sizes, nil
}

func (d *pdfcpuDocument) Save(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

func pageSize(inherited *model.InheritedPageAttrs) (PageSize, error) {
	if inherited == nil {
		return PageSize{}, fmt.Errorf("page has no inherited attributes")
	}
	box := inherited.MediaBox
	if box == nil {
		box = inherited.CropBox
	}
	if box == nil {
		return PageSize{}, fmt.Errorf("page has no MediaBox")
	}
	return PageSize{Width: box.Width(), Height: box.Height()}, nil
}

// addContentStream registers an unfiltered content stream
func (d *pdfcpuDocument) addContentStream(content []byte) (*types.IndirectRef, error) {
	sd := types.StreamDict{Dict: types.NewDict(), Content: content}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(sd)
}

// imageXObject adds img as an image XObject and returns its reference and
// pixel size. JPEG bytes pass through as DCTDecode; PNG becomes Flate with
// an SMask when any pixel is translucent.
func (d *pdfcpuDocument) imageXObject(img *Image) (*types.IndirectRef, int, int, error) {
	ref, w, h, err := model.CreateImageResource(d.ctx.XRefTable, bytes.NewReader(img.Data))
	if err != nil {
		return nil, 0, 0, pdferrors.WrapError(pdferrors.ErrorTypeInvalidImage,
			fmt.Errorf("failed to create %s image XObject: %w", img.Format, err))
	}
	return ref, w, h, nil
}

type pdfcpuPage struct {
	doc       *pdfcpuDocument
	number    int
	dict      types.Dict
	inherited *model.InheritedPageAttrs
	size      PageSize
}

func (p *pdfcpuPage) Number() int {
	return p.number
}

func (p *pdfcpuPage) Size() PageSize {
	return p.size
}

// DrawImage paints img under m. An image XObject fills the unit square, so
// a second cm scales that square to the image's pixel size first.
func (p *pdfcpuPage) DrawImage(img *Image, m [6]float64) error {
	if img == nil {
		return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidImage, "no image to draw")
	}

	imgRef, w, h, err := p.doc.imageXObject(img)
	if err != nil {
		return err
	}

	xobjects, err := p.xobjects()
	if err != nil {
		return err
	}
	name := p.doc.imageName(xobjects)
	xobjects.Update(name, *imgRef)

	return p.appendContent(drawOperators(name, m, w, h))
}

// drawOperators returns "q <m> cm <w> 0 0 <h> 0 0 cm /name Do Q"
func drawOperators(name string, m [6]float64, w, h int) []byte {
	var sb strings.Builder
	sb.WriteString("q\n")
	for _, v := range m {
		sb.WriteString(formatNumber(v))
		sb.WriteByte(' ')
	}
	sb.WriteString("cm\n")
	fmt.Fprintf(&sb, "%d 0 0 %d 0 0 cm\n/", w, h)
	sb.WriteString(name)
	sb.WriteString(" Do\nQ\n")
	return []byte(sb.String())
}

// resources returns the page's own resource dictionary, giving the page a
// copy of its inherited resources first when it has none of its own.
func (p *pdfcpuPage) resources() (types.Dict, error) {
	ctx := p.doc.ctx
	if obj, found := p.dict.Find("Resources"); found {
		res, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument,
				fmt.Errorf("page %d: invalid Resources: %w", p.number, err))
		}
		if res != nil {
			return res, nil
		}
	}

	res := types.NewDict()
	if p.inherited != nil {
		for k, v := range p.inherited.Resources {
			res[k] = v
		}
	}
	p.dict.Update("Resources", res)
	return res, nil
}

func (p *pdfcpuPage) xobjects() (types.Dict, error) {
	res, err := p.resources()
	if err != nil {
		return nil, err
	}

	if obj, found := res.Find("XObject"); found {
		xobjects, err := p.doc.ctx.DereferenceDict(obj)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument,
				fmt.Errorf("page %d: invalid XObject resources: %w", p.number, err))
		}
		if xobjects != nil {
			return xobjects, nil
		}
	}

	xobjects := types.NewDict()
	res.Update("XObject", xobjects)
	return xobjects, nil
}

// imageName picks an XObject name not yet used in xobjects
func (d *pdfcpuDocument) imageName(xobjects types.Dict) string {
	for {
		d.nextImage++
		name := imageNamePrefix + strconv.Itoa(d.nextImage)
		if _, taken := xobjects.Find(name); !taken {
			return name
		}
	}
}

// appendContent adds content as a new stream at the end of the page's
// content array. The first time a page is touched its existing content is
// wrapped in q/Q so that a CTM left behind by it cannot leak into ours.
func (p *pdfcpuPage) appendContent(content []byte) error {
	ctx := p.doc.ctx

	var streams types.Array
	if obj, found := p.dict.Find("Contents"); found && obj != nil {
		resolved, err := ctx.Dereference(obj)
		if err != nil {
			return pdferrors.WrapError(pdferrors.ErrorTypeCorruptDocument,
				fmt.Errorf("page %d: invalid Contents: %w", p.number, err))
		}
		if arr, ok := resolved.(types.Array); ok {
			streams = append(streams, arr...)
		} else {
			streams = append(streams, obj)
		}
	}

	if !p.doc.wrapped[p.number] && len(streams) > 0 {
		openRef, err := p.doc.addContentStream([]byte("q\n"))
		if err != nil {
			return fmt.Errorf("failed to add content prefix: %w", err)
		}
		streams = append(types.Array{*openRef}, streams...)
		content = append([]byte("Q\n"), content...)
	}
	p.doc.wrapped[p.number] = true

	ref, err := p.doc.addContentStream(content)
	if err != nil {
		return fmt.Errorf("failed to add content stream: %w", err)
	}
	streams = append(streams, *ref)
	p.dict.Update("Contents", streams)
	return nil
}

// formatNumber writes v as a PDF real without exponent notation
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
