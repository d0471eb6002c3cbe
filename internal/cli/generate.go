package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/a3tai/sign-form/internal/document"
)

func newGenerateCmd(env *runtimeEnv) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Step 3: generate the signed document",
		Long: `Generate the application document from the stored record and signature
and write it to the output directory.

The format comes from --format (docx by default). DOCX output fills the
template fetched from the asset root; PDF output is drawn directly.`,
		Example: `  sign-form generate
  sign-form generate --format pdf --font NanumGothic.ttf
  sign-form generate --date 2024-03-07`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := document.ParseFormat(env.cfg.Format)
			if err != nil {
				return err
			}
			req := document.Request{Format: format}
			if date != "" {
				d, err := time.ParseInLocation(time.DateOnly, date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", date, err)
				}
				req.Date = d
			}

			a, err := newApp(env.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.documents.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			path, err := a.documents.Save(result)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successBox(fmt.Sprintf("문서가 저장되었습니다.\n\n%s\n%d bytes", path, result.Size)))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date printed in the document (YYYY-MM-DD, default today)")
	return cmd
}

func newInspectCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarise a generated document in the output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(env.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			in, err := a.documents.Inspect(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Document: %s\n", in.Path)
			fmt.Fprintf(w, "Format: %s\n", in.Format)
			fmt.Fprintf(w, "Size: %d bytes\n", in.Size)
			if in.Format == document.FormatPDF {
				fmt.Fprintf(w, "Pages: %d\n", in.Pages)
			}
			fmt.Fprintf(w, "Images: %d\n", in.Images)
			for _, m := range in.Media {
				fmt.Fprintf(w, "  %s\n", m)
			}
			fmt.Fprintf(w, "\n%s\n", in.Text)
			return nil
		},
	}
}
