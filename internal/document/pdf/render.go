package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/sign-form/internal/signature"
)

const utf8Family = "signform"

// RenderOptions control page rendering
type RenderOptions struct {
	// Font is a TrueType font used for all text. Without it the core
	// Helvetica font is used, which cannot show Hangul.
	Font []byte
	// Date stamps the document metadata
	Date time.Time
}

// Render draws ops on a single A4 page and returns the validated PDF bytes
func Render(ops []Op, opts RenderOptions) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCatalogSort(true)
	doc.SetCreationDate(opts.Date)
	doc.SetModificationDate(opts.Date)
	doc.SetProducer("sign-form", false)
	doc.SetAutoPageBreak(false, 0)

	family := "Helvetica"
	if len(opts.Font) > 0 {
		doc.AddUTF8FontFromBytes(utf8Family, "", opts.Font)
		family = utf8Family
	}
	doc.AddPage()
	doc.SetFont(family, "", FontSize)

	pageWidth, _ := doc.GetPageSize()
	images := 0
	for _, op := range ops {
		switch o := op.(type) {
		case TextOp:
			x := o.X
			if o.Align == AlignRight {
				x = o.X - doc.GetStringWidth(o.Text)
			}
			if x < 0 || x > pageWidth {
				return nil, fmt.Errorf("text %q starts outside the page", o.Text)
			}
			doc.Text(x, o.Y, o.Text)
		case ImageOp:
			images++
			name := fmt.Sprintf("image%d", images)
			imgOpts := fpdf.ImageOptions{ImageType: imageType(o.MIME)}
			doc.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(o.Data))
			doc.ImageOptions(name, o.X, o.Y, o.W, o.H, false, imgOpts, 0, "")
		}
		if doc.Err() {
			return nil, fmt.Errorf("drawing page: %w", doc.Error())
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	out := buf.Bytes()
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate parses b with pdfcpu and checks that it holds exactly one page
func Validate(b []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(b), conf)
	if err != nil {
		return fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("failed to ensure page count: %w", err)
	}
	if ctx.PageCount != 1 {
		return fmt.Errorf("expected 1 page, got %d", ctx.PageCount)
	}
	return nil
}

func imageType(mime string) string {
	if mime == signature.MIMEJPEG {
		return "JPG"
	}
	return "PNG"
}
