package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridable at build time:
//
//	go build -ldflags "-X github.com/YuminosukeSato/churnlab/internal/cli.version=v1.2.3"
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the churnlab version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "churnlab %s\n", version)
		return nil
	},
}
