package cli

import (
	"fmt"
	"log"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/a3tai/sign-form/internal/mcp"
)

func newServeCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the wizard as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(env.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(env.cfg, a.forms, a.documents)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			// The client controls the lifecycle; stdin closing ends the server
			if err := server.Run(cmd.Context()); err != nil {
				log.Printf("Server error: %v", err)
				return err
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("sign-form\n")
			cmd.Printf("Version: %s\n", version)
			cmd.Printf("Build Time: %s\n", buildTime)
			cmd.Printf("Git Commit: %s\n", gitCommit)
			cmd.Printf("Built with: %s\n", runtime.Version())
		},
	}
}
