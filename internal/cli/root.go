package cli

import (
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version = "dev"
	Commit  = "unknown"
)

var envFile string

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shortlink",
		Short:         "URL shortener backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewLoadgenCmd())
	return cmd
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("shortlink %s (commit: %s)\n", Version, Commit)
			return nil
		},
	}
}
