// Package template loads the pristine DOCX template for each generation.
package template

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

// DefaultPath is the template location relative to the asset root
const DefaultPath = "document/template.docx"

// DefaultMaxSize bounds the template payload
const DefaultMaxSize int64 = 20 * 1024 * 1024

// Source yields the template bytes. Every call returns a fresh copy.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	String() string
}

// New selects a Source for assetRoot: http(s) URLs are fetched, anything
// else is treated as a local directory.
func New(assetRoot, templatePath string, maxSize int64) Source {
	if templatePath == "" {
		templatePath = DefaultPath
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if u, err := url.Parse(assetRoot); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		u.Path = path.Join(u.Path, templatePath)
		return &HTTPSource{URL: u.String(), MaxSize: maxSize}
	}
	return &FileSource{Path: filepath.Join(assetRoot, filepath.FromSlash(templatePath)), MaxSize: maxSize}
}

// FileSource reads the template from disk
type FileSource struct {
	Path    string
	MaxSize int64
}

func (s *FileSource) String() string {
	return s.Path
}

// Load reads the file at Path
func (s *FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, docerrors.NewTemplateLoadError(s.Path, err)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, docerrors.NewTemplateLoadError(s.Path, err)
	}
	defer f.Close()

	b, err := readLimited(f, s.MaxSize)
	if err != nil {
		return nil, docerrors.NewTemplateLoadError(s.Path, err)
	}
	if err := checkArchive(b); err != nil {
		return nil, docerrors.NewTemplateLoadError(s.Path, err)
	}
	return b, nil
}

// HTTPSource fetches the template over HTTP
type HTTPSource struct {
	URL     string
	MaxSize int64
	Client  *http.Client
}

func (s *HTTPSource) String() string {
	return s.URL
}

// Load performs a GET on URL. Non-2xx responses are errors.
func (s *HTTPSource) Load(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, docerrors.NewTemplateLoadError(s.URL, err)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, docerrors.NewTemplateLoadError(s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, docerrors.NewTemplateLoadError(s.URL, fmt.Errorf("unexpected status %s", resp.Status))
	}

	b, err := readLimited(resp.Body, s.MaxSize)
	if err != nil {
		return nil, docerrors.NewTemplateLoadError(s.URL, err)
	}
	if err := checkArchive(b); err != nil {
		return nil, docerrors.NewTemplateLoadError(s.URL, err)
	}
	return b, nil
}

func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	b, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	if int64(len(b)) > maxSize {
		return nil, fmt.Errorf("template exceeds maximum size of %d bytes", maxSize)
	}
	return b, nil
}

// checkArchive rejects payloads that are not zip based
func checkArchive(b []byte) error {
	if len(b) == 0 {
		return errors.New("template is empty")
	}
	for m := mimetype.Detect(b); m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil
		}
	}
	return fmt.Errorf("template is not a zip archive (detected %s)", strings.TrimSpace(mimetype.Detect(b).String()))
}
