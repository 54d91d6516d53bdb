package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kubesnap/kubesnap/pkg/version"
)

func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kubesnap %s\n", version.Version())
		},
	}
}
