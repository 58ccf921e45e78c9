package client

import (
	"fmt"

	"github.com/cloo-solutions/molpanel/internal/cli"
	"github.com/cloo-solutions/molpanel/internal/config"
	"github.com/cloo-solutions/molpanel/internal/ui"
	"github.com/spf13/cobra"
)

// TUICmd creates the tui command.
func TUICmd() *cobra.Command {
	var smiles, file, strategy, fetchMode string

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run a panel in the terminal",
		Long: `Runs a panel in-process. Press r to retrieve results for the structure
and q to quit. The result strategy comes from MOLPANEL_* configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			structure, err := readStructure(smiles, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cli.ApplyStrategyFlags(cfg, strategy, fetchMode); err != nil {
				return err
			}

			fetcher, err := cli.NewFetcher(cfg, nil)
			if err != nil {
				return err
			}
			return ui.Run(cmd.Context(), fetcher, structure)
		},
	}

	cmd.Flags().StringVarP(&smiles, "smiles", "s", "", "SMILES of the structure")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File holding the SMILES (- for stdin)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Result strategy: static or networked")
	cmd.Flags().StringVar(&fetchMode, "fetch-mode", "", "Networked fetch mode: joint or independent")
	cmd.MarkFlagsMutuallyExclusive("smiles", "file")
	cmd.MarkFlagsOneRequired("smiles", "file")

	return cmd
}
