package resolver

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/a3tai/sign-form/internal/document/docx"
)

// synthesizeSignature makes an attribute-only signature placeholder visible
// to text substitution. When {{tag}} occurs in no paragraph text but in some
// attribute value, a run holding the token is inserted before the anchor
// placeholder's run (or its enclosing content control), or failing that
// before the run of the element whose attribute carries the token.
// The run is spliced into part so every other byte keeps its position; the
// returned map is nil when nothing was inserted.
func synthesizeSignature(part []byte, tag, anchor string) ([]byte, offsetMap, error) {
	token := "{{" + tag + "}}"
	if !bytes.Contains(part, []byte(token)) {
		return part, nil, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(part); err != nil {
		return part, nil, fmt.Errorf("parsing document part: %w", err)
	}

	paragraphs := doc.FindElements("//w:p")
	for _, p := range paragraphs {
		if strings.Contains(docx.ParagraphText(p), token) {
			return part, nil, nil
		}
	}

	holder := attributeHolder(doc.Root(), token)
	if holder == nil {
		return part, nil, nil
	}

	target := anchorTarget(paragraphs, "{{"+anchor+"}}")
	if target == nil {
		target = enclosingRun(holder)
	}
	if target == nil {
		return part, nil, errors.New("no anchor placeholder or image run to attach the signature to")
	}

	at, err := elementOffset(part, elementIndex(doc.Root(), target))
	if err != nil {
		return part, nil, err
	}

	run := signatureRun(tag)
	out := make([]byte, 0, len(part)+len(run))
	out = append(out, part[:at]...)
	out = append(out, run...)
	out = append(out, part[at:]...)

	var m mapBuilder
	m.copied(0, at)
	m.inserted(len(run))
	m.copied(at, len(part)-at)
	return out, m.spans, nil
}

func signatureRun(tag string) string {
	var b strings.Builder
	b.WriteString("<w:r><w:rPr/><w:t>{{")
	_ = xml.EscapeText(&b, []byte(tag))
	b.WriteString("}}</w:t></w:r>")
	return b.String()
}

// elementIndex returns the document-order position of target below root,
// root itself being 0, or -1 when target is not in the tree.
func elementIndex(root, target *etree.Element) int {
	n := 0
	var walk func(e *etree.Element) bool
	walk = func(e *etree.Element) bool {
		if e == target {
			return true
		}
		n++
		for _, c := range e.ChildElements() {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if root == nil || !walk(root) {
		return -1
	}
	return n
}

// elementOffset returns the byte offset of the start tag of the index-th
// element of part in document order.
func elementOffset(part []byte, index int) (int, error) {
	if index < 0 {
		return 0, errors.New("anchor element not found")
	}
	dec := xml.NewDecoder(bytes.NewReader(part))
	seen := 0
	for {
		offset := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			return 0, fmt.Errorf("element %d not found in document part", index)
		}
		if err != nil {
			return 0, fmt.Errorf("locating anchor element: %w", err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			if seen == index {
				return int(offset), nil
			}
			seen++
		}
	}
}

// attributeHolder returns the first element with an attribute value
// containing token.
func attributeHolder(root *etree.Element, token string) *etree.Element {
	if root == nil {
		return nil
	}
	for _, a := range root.Attr {
		if strings.Contains(a.Value, token) {
			return root
		}
	}
	for _, c := range root.ChildElements() {
		if h := attributeHolder(c, token); h != nil {
			return h
		}
	}
	return nil
}

// anchorTarget finds the run where token starts and returns it, or its
// outermost enclosing w:sdt within the paragraph.
func anchorTarget(paragraphs []*etree.Element, token string) *etree.Element {
	for _, p := range paragraphs {
		text := docx.ParagraphText(p)
		at := strings.Index(text, token)
		if at < 0 {
			continue
		}

		t := textAt(p, at)
		if t == nil {
			continue
		}
		target := t
		if r := t.Parent(); r != nil && r.Space == "w" && r.Tag == "r" {
			target = r
		}
		for e := target.Parent(); e != nil && e != p; e = e.Parent() {
			if e.Space == "w" && e.Tag == "sdt" {
				target = e
			}
		}
		return target
	}
	return nil
}

// textAt returns the w:t of paragraph p that holds byte offset at of the
// paragraph text.
func textAt(p *etree.Element, at int) *etree.Element {
	var (
		found *etree.Element
		pos   int
	)
	var walk func(e *etree.Element) bool
	walk = func(e *etree.Element) bool {
		for _, c := range e.ChildElements() {
			switch {
			case c.Space == "w" && c.Tag == "p":
				continue
			case c.Space == "w" && c.Tag == "t":
				n := len(c.Text())
				if at >= pos && at < pos+n {
					found = c
					return true
				}
				pos += n
			default:
				if walk(c) {
					return true
				}
			}
		}
		return false
	}
	walk(p)
	return found
}

// enclosingRun returns the nearest w:r ancestor of e
func enclosingRun(e *etree.Element) *etree.Element {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if p.Space == "w" && p.Tag == "r" {
			return p
		}
	}
	return nil
}
