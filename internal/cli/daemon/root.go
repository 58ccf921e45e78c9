package daemon

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootCmd builds the molpaneld command tree.
func RootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "molpaneld",
		Short:         "Molecule panel server",
		Long:          "molpaneld serves the structure editor page and the panel API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(ServeCmd())
	root.AddCommand(VersionCmd(version))
	return root
}

// VersionCmd prints the build version.
func VersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "molpaneld %s\n", version)
		},
	}
}
