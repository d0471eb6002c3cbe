// Package docxtest builds minimal DOCX packages for tests.
package docxtest

import (
	"bytes"
	"strings"

	"github.com/klauspost/compress/zip"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

const documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const documentTail = `<w:sectPr/></w:body></w:document>`

// Document wraps body XML in a w:document element
func Document(body string) string {
	return documentHead + body + documentTail
}

// Paragraph builds a paragraph with one run per fragment
func Paragraph(fragments ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, f := range fragments {
		b.WriteString("<w:r><w:t>")
		b.WriteString(f)
		b.WriteString("</w:t></w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Build returns a DOCX package whose main part is documentXML
func Build(documentXML string) []byte {
	return BuildParts(map[string]string{"word/document.xml": documentXML})
}

// BuildParts returns a DOCX package with the standard parts overridden or
// extended by parts.
func BuildParts(parts map[string]string) []byte {
	files := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"word/document.xml", Document(Paragraph("empty"))},
		{"word/_rels/document.xml.rels", documentRels},
	}
	seen := map[string]bool{}
	for i, f := range files {
		if body, ok := parts[f.name]; ok {
			files[i].body = body
		}
		seen[f.name] = true
	}
	for name, body := range parts {
		if !seen[name] {
			files = append(files, struct{ name, body string }{name, body})
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
