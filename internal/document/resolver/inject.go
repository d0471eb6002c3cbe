package resolver

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"

	"github.com/a3tai/sign-form/internal/document/docx"
	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

// EMUPerPixel converts pixels at 96 dpi to English Metric Units
const EMUPerPixel = 9525

const (
	nsWordprocessingDrawing = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsRelationships         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

var (
	docPrIDRe = regexp.MustCompile(`<wp:docPr\b[^>]*?\sid="(\d+)"`)
	rootRe    = regexp.MustCompile(`<w:document\b[^>]*>`)
)

const drawingXML = `<w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">` +
	`<wp:extent cx="%[1]d" cy="%[2]d"/><wp:effectExtent l="0" t="0" r="0" b="0"/>` +
	`<wp:docPr id="%[3]d" name="%[4]s %[3]d"/>` +
	`<wp:cNvGraphicFramePr><a:graphicFrameLocks xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" noChangeAspect="1"/></wp:cNvGraphicFramePr>` +
	`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
	`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
	`<pic:nvPicPr><pic:cNvPr id="0" name="%[4]s %[3]d"/><pic:cNvPicPr/></pic:nvPicPr>` +
	`<pic:blipFill><a:blip r:embed="%[5]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
	`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[2]d"/></a:xfrm>` +
	`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>` +
	`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`

// embedded is an image already stored in the archive
type embedded struct {
	relID         string
	width, height int
}

type renderer struct {
	archive *docx.Archive
	images  ImageResolver
	data    Data
	opts    Options
	nextID  int
	cache   map[string]*embedded
	drew    bool
}

// substitute replaces every placeholder of part. Fragments holding an image
// placeholder are split around the drawing inside the same run.
func (r *renderer) substitute(part []byte, tags []tagRef) ([]byte, error) {
	frags := scanFragments(part)
	byFrag := make(map[int][]tagRef)
	for _, t := range tags {
		byFrag[t.frag] = append(byFrag[t.frag], t)
	}

	var (
		out  bytes.Buffer
		last int
	)
	for fi, f := range frags {
		fragTags, ok := byFrag[fi]
		if !ok {
			continue
		}
		elemEnd := f.end + len(closeText)
		out.Write(part[last:f.elemStart])

		openTag := preserveSpace(f.openTag(part))
		var text bytes.Buffer
		flush := func() {
			if text.Len() == 0 {
				return
			}
			out.WriteString(openTag)
			out.Write(text.Bytes())
			out.WriteString(closeText)
			text.Reset()
		}

		onlyText := true
		cursor := f.start
		for _, t := range fragTags {
			text.Write(part[cursor:t.start])
			cursor = t.end

			value, ok := r.data[t.name]
			if !ok {
				r.opts.Logger.Printf("unresolved tag {{%s}} at offset %d replaced with empty text", t.name, t.start)
				continue
			}
			tag, isImage := value.(ImageTag)
			if !isImage {
				xml.EscapeText(&text, []byte(formatValue(value)))
				continue
			}

			drawing, err := r.drawing(t.name, tag)
			if err != nil {
				return nil, err
			}
			if drawing == "" {
				r.opts.Logger.Printf("image tag {{%s}} has no image, replaced with empty text", t.name)
				continue
			}
			onlyText = false
			flush()
			out.WriteString(drawing)
		}
		text.Write(part[cursor:f.end])

		if onlyText {
			// keep the fragment even when it ends up empty
			out.WriteString(openTag)
			out.Write(text.Bytes())
			out.WriteString(closeText)
		} else {
			flush()
		}
		last = elemEnd
	}
	out.Write(part[last:])

	result := out.Bytes()
	if r.drew {
		result = declareDrawingNamespaces(result)
	}
	return result, nil
}

// drawing resolves an image placeholder into inline drawing XML. An empty
// string means the resolver had nothing to embed.
func (r *renderer) drawing(name string, value ImageTag) (string, error) {
	emb, ok := r.cache[name]
	if !ok {
		if r.images == nil {
			return "", docerrors.NewImageDecodeError("no image resolver for {{"+name+"}}", nil)
		}
		img, found, err := r.images.ResolveImage(name, value)
		if err != nil {
			return "", err
		}
		if !found || img == nil {
			r.cache[name] = nil
			return "", nil
		}
		relID, err := r.archive.AddImage(img.Data, img.Ext)
		if err != nil {
			return "", docerrors.NewRenderError("docx", err)
		}
		emb = &embedded{relID: relID, width: img.Width, height: img.Height}
		r.cache[name] = emb
	}
	if emb == nil {
		return "", nil
	}

	id := r.nextID
	r.nextID++
	r.drew = true
	return fmt.Sprintf(drawingXML, emb.width*EMUPerPixel, emb.height*EMUPerPixel, id, "Picture", emb.relID), nil
}

func maxDocPrID(part []byte) int {
	highest := 0
	for _, m := range docPrIDRe.FindAllSubmatch(part, -1) {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// declareDrawingNamespaces adds the wp and r prefixes used by inline
// drawings to the root element when the template lacks them.
func declareDrawingNamespaces(part []byte) []byte {
	loc := rootRe.FindIndex(part)
	if loc == nil {
		return part
	}
	root := part[loc[0]:loc[1]]

	var extra bytes.Buffer
	if !bytes.Contains(root, []byte("xmlns:wp=")) {
		fmt.Fprintf(&extra, ` xmlns:wp="%s"`, nsWordprocessingDrawing)
	}
	if !bytes.Contains(root, []byte("xmlns:r=")) {
		fmt.Fprintf(&extra, ` xmlns:r="%s"`, nsRelationships)
	}
	if extra.Len() == 0 {
		return part
	}

	insertAt := loc[1] - 1
	out := make([]byte, 0, len(part)+extra.Len())
	out = append(out, part[:insertAt]...)
	out = append(out, extra.Bytes()...)
	out = append(out, part[insertAt:]...)
	return out
}
