package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/textset/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("textsetctl version %s\n", version.String())
		},
	}
}
