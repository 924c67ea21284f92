package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/esdeploy/internal/config"
)

// SetBuildInfo records the version information linked into the binary
func SetBuildInfo(version, commit, date string) {
	config.SetBuildFlags(version, commit, date)
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of esdeploy",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "esdeploy version %s (commit %s, built %s)\n", config.Version, config.Commit, config.Date)
		},
	}
}
