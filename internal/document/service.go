// Package document generates the signed application document from the
// stored form record and signature.
package document

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/sign-form/internal/document/docx"
	docerrors "github.com/a3tai/sign-form/internal/document/errors"
	"github.com/a3tai/sign-form/internal/document/pdf"
	"github.com/a3tai/sign-form/internal/document/resolver"
	"github.com/a3tai/sign-form/internal/document/security"
	"github.com/a3tai/sign-form/internal/document/template"
	"github.com/a3tai/sign-form/internal/form"
	"github.com/a3tai/sign-form/internal/signature"
)

// Format of the generated document
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOCX, FormatPDF:
		return f, nil
	case "":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'docx' or 'pdf')", s)
	}
}

// ContentType returns the MIME type of documents in format f
func (f Format) ContentType() string {
	if f == FormatPDF {
		return pdf.ContentType
	}
	return docx.ContentType
}

// Default size of the embedded signature in pixels
const (
	DefaultSignatureWidth  = 80
	DefaultSignatureHeight = 80
)

// Wizard steps a MissingDataError can point back to
const (
	StepInfo = "info"
	StepSign = "sign"
)

// Request selects what to generate
type Request struct {
	Format Format
	// Date printed in the document and file name; zero means now
	Date time.Time
}

// Result is a rendered document
type Result struct {
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Format      Format    `json:"format"`
	Size        int       `json:"size"`
	RequestID   string    `json:"requestId"`
	GeneratedAt time.Time `json:"generatedAt"`
	Path        string    `json:"path,omitempty"`
	Data        []byte    `json:"-"`
}

// Options tune the generation pipeline
type Options struct {
	Resolver        resolver.Options
	SignatureWidth  int
	SignatureHeight int
	// Font is a TrueType font for direct-draw PDF output
	Font   []byte
	Now    func() time.Time
	Logger *log.Logger
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Resolver:        resolver.DefaultOptions(),
		SignatureWidth:  DefaultSignatureWidth,
		SignatureHeight: DefaultSignatureHeight,
		Now:             time.Now,
	}
}

// Service runs one generation at a time
type Service struct {
	forms  *form.Repository
	source template.Source
	guard  *security.OutputGuard
	opts   Options

	mu sync.Mutex
}

// NewService creates a generation service
func NewService(forms *form.Repository, source template.Source, guard *security.OutputGuard, opts Options) *Service {
	if opts.SignatureWidth <= 0 {
		opts.SignatureWidth = DefaultSignatureWidth
	}
	if opts.SignatureHeight <= 0 {
		opts.SignatureHeight = DefaultSignatureHeight
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Service{forms: forms, source: source, guard: guard, opts: opts}
}

// Generate produces the document. Both the form record and the signature
// must be stored; this is checked before the template is fetched.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	requestID := uuid.NewString()
	logger := log.New(s.opts.Logger.Writer(), "["+requestID[:8]+"] ", s.opts.Logger.Flags())

	format := req.Format
	if format == "" {
		format = FormatDOCX
	}

	sig, ok, err := s.forms.LoadSignature(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, docerrors.NewMissingDataError("signature", StepSign)
	}
	record, ok, err := s.forms.LoadRecord(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, docerrors.NewMissingDataError("form record", StepInfo)
	}

	date := req.Date
	if date.IsZero() {
		date = s.opts.Now()
	}

	logger.Printf("generating %s for %q", format, record.SpaceName)

	var out []byte
	switch format {
	case FormatDOCX:
		out, err = s.generateDOCX(ctx, record, sig, date, logger)
	case FormatPDF:
		out, err = s.generatePDF(record, sig, date)
	default:
		err = fmt.Errorf("invalid format: %s", format)
	}
	if err != nil {
		logger.Printf("generation failed: %v", err)
		return nil, err
	}

	logger.Printf("generated %d bytes", len(out))
	return &Result{
		FileName:    FileName(record.SpaceName, date, format),
		ContentType: format.ContentType(),
		Format:      format,
		Size:        len(out),
		RequestID:   requestID,
		GeneratedAt: date,
		Data:        out,
	}, nil
}

func (s *Service) generateDOCX(ctx context.Context, record form.Record, sig string, date time.Time, logger *log.Logger) ([]byte, error) {
	tmpl, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	data := resolver.Data{
		"value1":    record.SpaceName,
		"value2":    record.Address,
		"value3":    record.Applicant,
		"year":      date.Year(),
		"month":     int(date.Month()),
		"day":       date.Day(),
		"signature": resolver.ImageTag(sig),
	}

	opts := s.opts.Resolver
	opts.Logger = logger
	return resolver.Resolve(tmpl, data, SignatureImages(s.opts.SignatureWidth, s.opts.SignatureHeight), opts)
}

func (s *Service) generatePDF(record form.Record, sig string, date time.Time) ([]byte, error) {
	img, err := signature.Decode(sig)
	if err != nil {
		return nil, err
	}
	out, err := pdf.Render(pdf.Layout(record, date, img), pdf.RenderOptions{Font: s.opts.Font, Date: date})
	if err != nil {
		return nil, docerrors.NewRenderError(string(FormatPDF), err)
	}
	return out, nil
}

// SignatureImages decodes signature data URLs for embedding at a fixed
// pixel size.
func SignatureImages(width, height int) resolver.ImageResolver {
	return resolver.ImageResolverFunc(func(tag string, value resolver.ImageTag) (*resolver.Image, bool, error) {
		if value == "" {
			return nil, false, nil
		}
		img, err := signature.Decode(string(value))
		if err != nil {
			return nil, false, err
		}
		return &resolver.Image{Data: img.Data, Ext: img.Extension(), Width: width, Height: height}, true, nil
	})
}

// FileName returns 신청서_<spaceName>_<YYYY-MM-DD>.<ext>
func FileName(spaceName string, date time.Time, format Format) string {
	return security.SanitizeFileName(fmt.Sprintf("신청서_%s_%s.%s", spaceName, date.Format(time.DateOnly), format))
}

// Save writes result into the output directory and records its path
func (s *Service) Save(result *Result) (string, error) {
	if s.guard == nil {
		return "", fmt.Errorf("no output directory configured")
	}
	path, err := s.guard.WriteFile(result.FileName, result.Data)
	if err != nil {
		return "", err
	}
	result.Path = path
	return path, nil
}

// Inspection describes a generated file
type Inspection struct {
	Path   string   `json:"path"`
	Format Format   `json:"format"`
	Size   int      `json:"size"`
	Pages  int      `json:"pages,omitempty"`
	Images int      `json:"images"`
	Text   string   `json:"text"`
	Media  []string `json:"media,omitempty"`
}

// Inspect reads back a generated document from the output directory
func (s *Service) Inspect(path string) (*Inspection, error) {
	if s.guard == nil {
		return nil, fmt.Errorf("no output directory configured")
	}
	abs, err := s.guard.Resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return InspectBytes(abs, b)
}

// InspectBytes summarises document bytes, detecting the format from content
func InspectBytes(name string, b []byte) (*Inspection, error) {
	in := &Inspection{Path: name, Size: len(b)}

	if strings.HasPrefix(string(b[:min(len(b), 5)]), "%PDF-") {
		s, err := pdf.Inspect(b)
		if err != nil {
			return nil, err
		}
		in.Format = FormatPDF
		in.Pages = s.Pages
		in.Images = s.Images
		in.Text = s.Text
		return in, nil
	}

	a, err := docx.Open(b)
	if err != nil {
		return nil, fmt.Errorf("%s is neither a PDF nor a DOCX document: %w", name, err)
	}
	s, err := a.Summarize()
	if err != nil {
		return nil, err
	}
	in.Format = FormatDOCX
	in.Images = s.Images
	in.Text = strings.Join(s.Paragraphs, "\n")
	in.Media = s.Media
	return in, nil
}
