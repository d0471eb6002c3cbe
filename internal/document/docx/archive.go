// Package docx reads and writes the zip container of a WordprocessingML
// document and registers embedded media.
package docx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
)

// Well-known part names and schema URIs
const (
	DocumentPart     = "word/document.xml"
	RelsPart         = "word/_rels/document.xml.rels"
	ContentTypesPart = "[Content_Types].xml"
	MediaDir         = "word/media/"

	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	relationshipsNS = "http://schemas.openxmlformats.org/package/2006/relationships"
	imageRelType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// ErrPartNotFound is returned when a requested part is absent
var ErrPartNotFound = errors.New("part not found")

// fixedModTime is stamped on every entry so that identical input produces
// identical archives.
var fixedModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type entry struct {
	data   []byte
	method uint16
}

// Archive is an in-memory DOCX package. Entry order is preserved on save and
// new entries are appended.
type Archive struct {
	names   []string
	entries map[string]*entry
}

// Open reads a DOCX (zip) archive from b
func Open(b []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("reading zip archive: %w", err)
	}

	a := &Archive{entries: make(map[string]*entry, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		if _, dup := a.entries[f.Name]; !dup {
			a.names = append(a.names, f.Name)
		}
		a.entries[f.Name] = &entry{data: data, method: f.Method}
	}
	return a, nil
}

// Names returns the entry names in archive order
func (a *Archive) Names() []string {
	return append([]string(nil), a.names...)
}

// Part returns the contents of the named entry
func (a *Archive) Part(name string) ([]byte, error) {
	e, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrPartNotFound)
	}
	return e.data, nil
}

// SetPart replaces (or appends) the named entry
func (a *Archive) SetPart(name string, data []byte) {
	if e, ok := a.entries[name]; ok {
		e.data = data
		return
	}
	a.names = append(a.names, name)
	a.entries[name] = &entry{data: data, method: zip.Deflate}
}

// Media returns the names of all entries under word/media/
func (a *Archive) Media() []string {
	var out []string
	for _, n := range a.names {
		if strings.HasPrefix(n, MediaDir) {
			out = append(out, n)
		}
	}
	return out
}

// AddImage stores data under word/media/, relates it from the main document
// and registers its extension in the content types. It returns the new
// relationship id.
func (a *Archive) AddImage(data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	mime, err := imageContentType(ext)
	if err != nil {
		return "", err
	}

	name := a.nextMediaName(ext)

	relID, err := a.addRelationship("media/" + strings.TrimPrefix(name, MediaDir))
	if err != nil {
		return "", err
	}
	if err := a.addDefaultContentType(ext, mime); err != nil {
		return "", err
	}

	a.SetPart(name, data)
	return relID, nil
}

// Bytes serialises the archive with normalised timestamps
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range a.names {
		e := a.entries[name]
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   e.method,
			Modified: fixedModTime,
		})
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zip archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *Archive) nextMediaName(ext string) string {
	for i := 1; ; i++ {
		name := MediaDir + "sig" + strconv.Itoa(i) + "." + ext
		if _, taken := a.entries[name]; !taken {
			return name
		}
	}
}

func (a *Archive) addRelationship(target string) (string, error) {
	doc := etree.NewDocument()
	if raw, ok := a.entries[RelsPart]; ok {
		if err := doc.ReadFromBytes(raw.data); err != nil {
			return "", fmt.Errorf("parsing %s: %w", RelsPart, err)
		}
	} else {
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		root := doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", relationshipsNS)
	}

	root := doc.Root()
	if root == nil {
		return "", fmt.Errorf("%s has no root element", RelsPart)
	}

	maxID := 0
	for _, rel := range root.SelectElements("Relationship") {
		id := rel.SelectAttrValue("Id", "")
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "rId")); err == nil && n > maxID {
			maxID = n
		}
	}
	relID := "rId" + strconv.Itoa(maxID+1)

	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", relID)
	rel.CreateAttr("Type", imageRelType)
	rel.CreateAttr("Target", target)

	out, err := doc.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", RelsPart, err)
	}
	a.SetPart(RelsPart, out)
	return relID, nil
}

func (a *Archive) addDefaultContentType(ext, mime string) error {
	raw, ok := a.entries[ContentTypesPart]
	if !ok {
		return fmt.Errorf("%s: %w", ContentTypesPart, ErrPartNotFound)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw.data); err != nil {
		return fmt.Errorf("parsing %s: %w", ContentTypesPart, err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%s has no root element", ContentTypesPart)
	}

	for _, d := range root.SelectElements("Default") {
		if strings.EqualFold(d.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}

	def := etree.NewElement("Default")
	def.CreateAttr("Extension", ext)
	def.CreateAttr("ContentType", mime)
	// Defaults conventionally precede Overrides
	root.InsertChildAt(0, def)

	out, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("writing %s: %w", ContentTypesPart, err)
	}
	a.SetPart(ContentTypesPart, out)
	return nil
}

func imageContentType(ext string) (string, error) {
	switch ext {
	case "png":
		return "image/png", nil
	case "jpeg", "jpg":
		return "image/jpeg", nil
	default:
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
}
