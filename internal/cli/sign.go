package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/a3tai/sign-form/internal/signature"
)

// PreviewFilePerm is used for signature preview files
const PreviewFilePerm = 0o600

var (
	errNoSignatureInput  = errors.New("시그니처를 그려주세요. --strokes, --data-url 또는 --image 중 하나를 지정하세요")
	errNoStoredSignature = errors.New("저장된 시그니처가 없습니다. 먼저 sign-form sign 으로 시그니처를 그려주세요")
)

type signOptions struct {
	strokes string
	dataURL string
	image   string
	preview string
	clear   bool
}

func newSignCmd(env *runtimeEnv) *cobra.Command {
	opts := &signOptions{}
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Step 2: draw or import the signature",
		Long: `Store the signature used in the generated document.

Strokes are JSON of the form [[[x,y],[x,y],...],...] drawn on the canvas with
a 2px black round pen. --strokes and --data-url accept a literal value,
@file to read a file, or - to read stdin. --image imports a PNG or JPEG file.`,
		Example: `  sign-form sign --strokes '[[[10,10],[120,40],[200,20]]]'
  sign-form sign --image signature.png --preview preview.png
  sign-form sign --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSign(cmd, env, opts)
		},
	}
	cmd.Flags().StringVar(&opts.strokes, "strokes", "", "Signature strokes as JSON")
	cmd.Flags().StringVar(&opts.dataURL, "data-url", "", "Signature as a PNG or JPEG data URL")
	cmd.Flags().StringVar(&opts.image, "image", "", "Signature image file (PNG or JPEG)")
	cmd.Flags().StringVar(&opts.preview, "preview", "", "Write the stored signature image to this file")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "Remove the stored signature")
	cmd.MarkFlagsMutuallyExclusive("strokes", "data-url", "image", "clear")
	return cmd
}

func runSign(cmd *cobra.Command, env *runtimeEnv, opts *signOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := newApp(env.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.clear {
		if err := a.forms.ClearSignature(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, successBox("시그니처가 지워졌습니다."))
		return nil
	}

	if opts.preview != "" && !opts.hasInput() {
		return previewStored(cmd, a, opts.preview)
	}

	dataURL, err := signatureInput(env, opts)
	if err != nil {
		return err
	}

	img, err := a.forms.SaveSignature(ctx, dataURL)
	if err != nil {
		return err
	}

	if opts.preview != "" {
		if err := writePreview(opts.preview, img); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, successBox(fmt.Sprintf("시그니처가 저장되었습니다.\n\n%s, %dx%d pixels", img.MIME, img.Width, img.Height)))

	if _, ok, err := a.forms.LoadRecord(ctx); err == nil && !ok {
		fmt.Fprintln(out, warningBox("입력 정보가 없습니다. 먼저 sign-form info 로 정보를 입력해주세요."))
	} else {
		fmt.Fprintln(out, muted("다음 단계: sign-form generate"))
	}
	return nil
}

func (o *signOptions) hasInput() bool {
	return o.strokes != "" || o.dataURL != "" || o.image != ""
}

// previewStored writes the stored signature without replacing it
func previewStored(cmd *cobra.Command, a *app, path string) error {
	raw, ok, err := a.forms.LoadSignature(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return errNoStoredSignature
	}
	img, err := signature.Decode(raw)
	if err != nil {
		return err
	}
	if err := writePreview(path, img); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successBox(fmt.Sprintf("%s\n\n%s, %dx%d pixels", path, img.MIME, img.Width, img.Height)))
	return nil
}

func writePreview(path string, img *signature.Image) error {
	if err := os.WriteFile(path, img.Data, PreviewFilePerm); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}

// signatureInput turns whichever input flag was given into a data URL
func signatureInput(env *runtimeEnv, opts *signOptions) (string, error) {
	switch {
	case opts.strokes != "":
		raw, err := readArg(opts.strokes, env.stdin)
		if err != nil {
			return "", err
		}
		strokes, err := signature.ParseStrokes([]byte(raw))
		if err != nil {
			return "", err
		}
		dataURL, err := signature.RenderStrokes(strokes, env.cfg.CanvasWidth, env.cfg.CanvasHeight)
		if errors.Is(err, signature.ErrEmpty) {
			return "", errNoSignatureInput
		}
		return dataURL, err

	case opts.dataURL != "":
		raw, err := readArg(opts.dataURL, env.stdin)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(raw), nil

	case opts.image != "":
		b, err := os.ReadFile(opts.image)
		if err != nil {
			return "", fmt.Errorf("failed to read image: %w", err)
		}
		return base64.StdEncoding.EncodeToString(b), nil
	}
	return "", errNoSignatureInput
}

// readArg resolves @file and - (stdin) flag values
func readArg(v string, stdin io.Reader) (string, error) {
	switch {
	case v == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	case strings.HasPrefix(v, "@"):
		b, err := os.ReadFile(v[1:])
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", v[1:], err)
		}
		return string(b), nil
	}
	return v, nil
}

func signaturePreview(ctx context.Context, a *app) (string, error) {
	raw, ok, err := a.forms.LoadSignature(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "시그니처가 없습니다.", nil
	}
	img, err := signature.Decode(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("시그니처: %s, %dx%d pixels", img.MIME, img.Width, img.Height), nil
}
