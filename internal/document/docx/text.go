package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Summary describes the content of a generated document
type Summary struct {
	Paragraphs []string `json:"paragraphs"`
	Images     int      `json:"images"`
	Media      []string `json:"media"`
}

// Text returns the text of the main document, one line per paragraph
func (a *Archive) Text() (string, error) {
	s, err := a.Summarize()
	if err != nil {
		return "", err
	}
	return strings.Join(s.Paragraphs, "\n"), nil
}

// Summarize extracts paragraph text and counts inline images of the main
// document part.
func (a *Archive) Summarize() (*Summary, error) {
	raw, err := a.Part(DocumentPart)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DocumentPart, err)
	}

	s := &Summary{Media: a.Media()}
	for _, p := range doc.FindElements("//w:p") {
		s.Paragraphs = append(s.Paragraphs, ParagraphText(p))
	}
	s.Images = len(doc.FindElements("//w:drawing"))
	return s, nil
}

// ParagraphText joins the text fragments that belong directly to paragraph
// p, skipping paragraphs nested in text boxes.
func ParagraphText(p *etree.Element) string {
	var b strings.Builder
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			switch {
			case c.Space == "w" && c.Tag == "p":
				continue
			case c.Space == "w" && c.Tag == "t":
				b.WriteString(c.Text())
			default:
				walk(c)
			}
		}
	}
	walk(p)
	return b.String()
}
