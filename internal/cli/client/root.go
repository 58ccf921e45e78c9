package client

import (
	"github.com/spf13/cobra"
)

// RootCmd builds the molpanel command tree.
func RootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "molpanel",
		Short: "molpanel CLI - structure retrieval from the terminal",
		Long: `molpanel drives structure panels from the terminal.

Environment variables:
  MOLPANEL_API_URL   molpaneld base URL (default: http://localhost:8080)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool("output", false, "Output as JSON")
	root.PersistentFlags().String("api-url", "", "molpaneld base URL (overrides env)")

	root.AddCommand(RetrieveCmd())
	root.AddCommand(TUICmd())
	return root
}
