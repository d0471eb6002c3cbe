package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Summary describes a generated PDF
type Summary struct {
	Pages  int    `json:"pages"`
	Images int    `json:"images"`
	Text   string `json:"text"`
}

// Inspect extracts the text and counts the images of a PDF
func Inspect(b []byte) (*Summary, error) {
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	s := &Summary{Pages: r.NumPage()}
	var text strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		if content, err := page.GetPlainText(nil); err == nil {
			text.WriteString(content)
		}
		s.Images += countImages(page)
	}
	s.Text = text.String()
	return s, nil
}

func countImages(page pdf.Page) (count int) {
	defer func() {
		// malformed resource dictionaries make the reader panic
		if recover() != nil {
			count = 0
		}
	}()

	xObjects := page.Resources().Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return 0
	}
	for _, key := range xObjects.Keys() {
		if xObjects.Key(key).Key("Subtype").Name() == "Image" {
			count++
		}
	}
	return count
}
