package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/a3tai/sign-form/internal/form"
)

type infoOptions struct {
	spaceName string
	address   string
	applicant string
	show      bool
}

func newInfoCmd(env *runtimeEnv) *cobra.Command {
	opts := &infoOptions{}
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Step 1: enter the form record",
		Long: `Store 공간명, 주소 and 신청자(대표). All three are required.

Values not given as flags are prompted for when running in a terminal,
defaulting to the stored record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd, env, opts)
		},
	}
	cmd.Flags().StringVar(&opts.spaceName, "space-name", "", "공간명")
	cmd.Flags().StringVar(&opts.address, "address", "", "주소")
	cmd.Flags().StringVar(&opts.applicant, "applicant", "", "신청자(대표)")
	cmd.Flags().BoolVar(&opts.show, "show", false, "Print the stored record and signature status")
	return cmd
}

func runInfo(cmd *cobra.Command, env *runtimeEnv, opts *infoOptions) error {
	ctx := cmd.Context()
	a, err := newApp(env.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	stored, _, err := a.forms.LoadRecord(ctx)
	if err != nil {
		return err
	}

	if opts.show {
		return showStatus(ctx, cmd.OutOrStdout(), a)
	}

	record := stored
	fields := []struct {
		flag   string
		label  string
		value  string
		target *string
	}{
		{"space-name", form.LabelSpaceName, opts.spaceName, &record.SpaceName},
		{"address", form.LabelAddress, opts.address, &record.Address},
		{"applicant", form.LabelApplicant, opts.applicant, &record.Applicant},
	}
	for _, f := range fields {
		if cmd.Flags().Changed(f.flag) {
			*f.target = f.value
			continue
		}
		if env.interactive() {
			v, err := env.prompter.Input(ctx, f.label, *f.target)
			if err != nil {
				return err
			}
			*f.target = v
		}
	}

	saved, err := a.forms.SaveRecord(ctx, record)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), successBox("입력 정보가 저장되었습니다.\n\n"+formatRecord(saved)))
	fmt.Fprintln(cmd.OutOrStdout(), muted("다음 단계: sign-form sign"))
	return nil
}

func showStatus(ctx context.Context, w io.Writer, a *app) error {
	record, ok, err := a.forms.LoadRecord(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(w, formatRecord(record))
	} else {
		fmt.Fprintln(w, "입력 정보가 없습니다.")
	}

	preview, err := signaturePreview(ctx, a)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, preview)
	return nil
}

func formatRecord(r form.Record) string {
	return fmt.Sprintf("%s: %s\n%s: %s\n%s: %s",
		form.LabelSpaceName, r.SpaceName,
		form.LabelAddress, r.Address,
		form.LabelApplicant, r.Applicant)
}
