package signature

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	docerrors "github.com/a3tai/sign-form/internal/document/errors"
)

// Supported raster types
const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// Image is a decoded signature payload
type Image struct {
	MIME   string
	Data   []byte
	Width  int
	Height int
}

// DataURL re-encodes the image as a data URL
func (img *Image) DataURL() string {
	return EncodeDataURL(img.MIME, img.Data)
}

// Extension returns the file extension matching the image type
func (img *Image) Extension() string {
	if img.MIME == MIMEJPEG {
		return "jpeg"
	}
	return "png"
}

// EncodeDataURL builds a data:<mime>;base64,<payload> URL
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode accepts a data URL or a bare base64 payload and returns the raster
// image it carries. Only PNG and JPEG are accepted.
func Decode(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, docerrors.NewImageDecodeError("empty signature", nil)
	}

	payload := s
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, docerrors.NewImageDecodeError("malformed data URL: missing ','", nil)
		}
		header := s[len("data:"):comma]
		if !strings.HasSuffix(header, ";base64") {
			return nil, docerrors.NewImageDecodeError("data URL is not base64 encoded", nil)
		}
		payload = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, docerrors.NewImageDecodeError("invalid base64 payload", err)
		}
	}
	if len(data) == 0 {
		return nil, docerrors.NewImageDecodeError("empty image payload", nil)
	}

	mime := mimetype.Detect(data)
	if !mime.Is(MIMEPNG) && !mime.Is(MIMEJPEG) {
		return nil, docerrors.NewImageDecodeError("unsupported image type "+mime.String(), nil)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, docerrors.NewImageDecodeError("cannot read image header", err)
	}

	mt := MIMEPNG
	if mime.Is(MIMEJPEG) {
		mt = MIMEJPEG
	}

	return &Image{MIME: mt, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}
