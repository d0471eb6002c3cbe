// Package resolver fills {{name}} placeholders in the main part of a DOCX
// template with text values and inline images.
package resolver

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/a3tai/sign-form/internal/document/docx"
	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

// Data maps placeholder names to values. Values are strings, integers or
// ImageTag.
type Data map[string]any

// ImageTag marks a data value that must be rendered as an image. The payload
// is handed to the ImageResolver unchanged.
type ImageTag string

// Image is raster data ready to be embedded. Width and Height are in pixels.
type Image struct {
	Data   []byte
	Ext    string
	Width  int
	Height int
}

// ImageResolver turns an ImageTag payload into an image. ok is false when
// there is nothing to embed.
type ImageResolver interface {
	ResolveImage(tag string, value ImageTag) (img *Image, ok bool, err error)
}

// ImageResolverFunc adapts a function to ImageResolver
type ImageResolverFunc func(tag string, value ImageTag) (*Image, bool, error)

// ResolveImage calls f
func (f ImageResolverFunc) ResolveImage(tag string, value ImageTag) (*Image, bool, error) {
	return f(tag, value)
}

// Options select the resolver strategies
type Options struct {
	// SynthesizeSignature inserts a text token for a signature placeholder
	// that only appears in an attribute.
	SynthesizeSignature bool
	// MergeFragments joins tokens split across text fragments of a paragraph.
	MergeFragments bool
	// Strict turns unresolved placeholders into errors.
	Strict bool

	SignatureTag string
	AnchorTag    string
	Part         string

	Logger *log.Logger
}

// DefaultOptions returns the options used by the generator
func DefaultOptions() Options {
	return Options{
		SynthesizeSignature: true,
		MergeFragments:      true,
		Strict:              true,
		SignatureTag:        "signature",
		AnchorTag:           "value3",
		Part:                docx.DocumentPart,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SignatureTag == "" {
		o.SignatureTag = d.SignatureTag
	}
	if o.AnchorTag == "" {
		o.AnchorTag = d.AnchorTag
	}
	if o.Part == "" {
		o.Part = d.Part
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Resolve loads tmpl, substitutes every placeholder of the main part and
// returns the serialised document. Nothing is returned when any stage fails.
// Syntax error offsets index the main part as stored in tmpl.
func Resolve(tmpl []byte, data Data, images ImageResolver, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	archive, err := docx.Open(tmpl)
	if err != nil {
		return nil, docerrors.NewTemplateLoadError(opts.Part, err)
	}
	part, err := archive.Part(opts.Part)
	if err != nil {
		return nil, docerrors.NewTemplateLoadError(opts.Part, err)
	}

	original := part
	var trail rewrites

	if opts.SynthesizeSignature {
		synthesized, edits, err := synthesizeSignature(part, opts.SignatureTag, opts.AnchorTag)
		switch {
		case err != nil:
			opts.Logger.Printf("signature preprocessing skipped: %v", err)
		case edits != nil:
			opts.Logger.Printf("synthesized {{%s}} text token", opts.SignatureTag)
			part = synthesized
			trail = append(trail, edits)
		}
	}

	if opts.MergeFragments {
		if merged, edits := mergeFragments(part); edits != nil {
			part = merged
			trail = append(trail, edits)
		}
	}

	tags, lintErrs := lint(part, opts.Part)
	if len(lintErrs) > 0 {
		return nil, trail.relocate(errors.Join(lintErrs...), original)
	}

	if err := checkData(part, opts, tags, data); err != nil {
		return nil, trail.relocate(err, original)
	}

	r := &renderer{
		archive: archive,
		images:  images,
		data:    data,
		opts:    opts,
		nextID:  maxDocPrID(part) + 1,
		cache:   make(map[string]*embedded),
	}
	out, err := r.substitute(part, tags)
	if err != nil {
		return nil, err
	}
	archive.SetPart(opts.Part, out)

	b, err := archive.Bytes()
	if err != nil {
		return nil, docerrors.NewRenderError("docx", err)
	}
	return b, nil
}

// checkData reports unresolved placeholders (strict mode) and image entries
// with no placeholder.
func checkData(part []byte, opts Options, tags []tagRef, data Data) error {
	var errs []error
	used := make(map[string]bool, len(tags))
	for _, t := range tags {
		if used[t.name] {
			continue
		}
		used[t.name] = true
		if _, ok := data[t.name]; !ok && opts.Strict {
			errs = append(errs, docerrors.NewTemplateSyntaxError(opts.Part, "unresolved tag").
				WithLocation(int64(t.start), excerpt(part, t.start)).
				WithTag(t.name))
		}
	}

	var names []string
	for name, v := range data {
		if _, isImage := v.(ImageTag); isImage && !used[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		errs = append(errs, docerrors.NewTemplateSyntaxError(opts.Part,
			fmt.Sprintf("unused image tag: no {{%s}} placeholder in the template", name)).WithTag(name))
	}
	return errors.Join(errs...)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
