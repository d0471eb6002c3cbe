// Package cli implements the sign-form command line: one subcommand per
// wizard step plus the MCP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/a3tai/sign-form/internal/config"
	"github.com/a3tai/sign-form/internal/document"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// SetVersionInfo records the build information set by the linker
func SetVersionInfo(v, built, commit string) {
	version = v
	buildTime = built
	gitCommit = commit
}

// runtimeEnv carries what commands share: the loaded configuration and the
// terminal hooks tests replace.
type runtimeEnv struct {
	cfg         *config.Config
	stdin       io.Reader
	prompter    Prompter
	interactive func() bool
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	env := &runtimeEnv{
		stdin:    os.Stdin,
		prompter: surveyPrompter{},
		interactive: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
	return newRootCommand(env)
}

func newRootCommand(env *runtimeEnv) *cobra.Command {
	root := &cobra.Command{
		Use:   "sign-form",
		Short: "Fill in the application form, sign it and generate the document",
		Long: `sign-form walks through the three steps of the application wizard:

  1. info      enter 공간명, 주소 and 신청자(대표)
  2. sign      draw or import the signature
  3. generate  produce 신청서_<공간명>_<date>.docx or .pdf

State is kept between invocations in the configured store.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if version != "dev" {
				cfg.Version = version
			}
			if cmd.Name() == "serve" {
				cfg.Mode = config.ModeStdio
			}
			setupLogging(cfg)
			if cfg.IsDebug() && !cfg.IsStdioMode() {
				log.Printf("Starting with configuration: %s", cfg.String())
			}
			env.cfg = cfg
			return nil
		},
	}

	config.DefineFlags(root.PersistentFlags(), config.DefaultConfig())

	root.AddCommand(
		newInfoCmd(env),
		newSignCmd(env),
		newGenerateCmd(env),
		newInspectCmd(env),
		newServeCmd(env),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and reports failures in an alert box on
// stderr. It returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	viper.Reset()
	root := NewRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorBox(document.Describe(err)))
		return 1
	}
	return 0
}

// setupLogging configures logging based on the mode
func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.IsStdioMode() {
		// Keep the protocol stream clean unless debugging
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
		return
	}
	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}
