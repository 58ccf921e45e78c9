package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/ui"
	"github.com/spf13/cobra"
)

// Result is one entry of a panel result list.
type Result struct {
	SMILES          string  `json:"smiles"`
	Similarity      float64 `json:"similarity"`
	SimilarityLabel string  `json:"similarity_label"`
}

// Panel represents a panel snapshot from the API.
type Panel struct {
	ID                 string   `json:"id"`
	Strategy           string   `json:"strategy"`
	EditorReady        bool     `json:"editor_ready"`
	SMILES             string   `json:"smiles"`
	SimilarStructures  []Result `json:"similar_structures"`
	CommercialReagents []Result `json:"commercial_reagents"`
	PubChemResults     []Result `json:"pubchem_results"`
	Error              string   `json:"error,omitempty"`
	Loading            bool     `json:"loading"`
}

type readyResponse struct {
	Structure string `json:"structure"`
	Panel     Panel  `json:"panel"`
}

type retrieveRequest struct {
	SMILES string `json:"smiles"`
}

type retrieveResponse struct {
	Performed bool  `json:"performed"`
	Panel     Panel `json:"panel"`
}

func toResults(in []Result) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(in))
	for _, r := range in {
		out = append(out, domain.SearchResult{SMILES: r.SMILES, Similarity: r.Similarity})
	}
	return out
}

// View converts the snapshot for terminal rendering.
func (p Panel) View() ui.View {
	return ui.View{
		SMILES: p.SMILES,
		Results: domain.ResultSet{
			Similar:    toResults(p.SimilarStructures),
			Commercial: toResults(p.CommercialReagents),
			PubChem:    toResults(p.PubChemResults),
		},
		Error:   p.Error,
		Loading: p.Loading,
	}
}

// RetrieveCmd creates the retrieve command.
func RetrieveCmd() *cobra.Command {
	var smiles, file string

	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Retrieve results for a structure",
		Long: `Opens a panel on the daemon, loads the default structure, retrieves results
for the given SMILES and prints the three result lists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			structure, err := readStructure(smiles, file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			api := NewAPIClientWithCmd(cmd)
			return runRetrieve(api, structure, outputJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&smiles, "smiles", "s", "", "SMILES of the structure")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File holding the SMILES (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("smiles", "file")
	cmd.MarkFlagsOneRequired("smiles", "file")

	return cmd
}

// readStructure returns the SMILES from the flag or from the first line of
// the file.
func readStructure(smiles, file string, stdin io.Reader) (string, error) {
	if file != "" {
		var raw []byte
		var err error
		if file == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(file)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read structure file: %w", err)
		}
		smiles, _, _ = strings.Cut(string(raw), "\n")
	}

	smiles = strings.TrimSpace(smiles)
	if smiles == "" {
		return "", domain.ErrEmptyStructure
	}
	return smiles, nil
}

func runRetrieve(api *APIClient, smiles string, outputJSON bool, out io.Writer) error {
	resp, err := api.Post("/api/panels", nil)
	if err != nil {
		return fmt.Errorf("failed to create panel: %w", err)
	}
	var panel Panel
	if err := json.Unmarshal(resp.Data, &panel); err != nil {
		return fmt.Errorf("failed to parse panel: %w", err)
	}
	defer func() { _, _ = api.Delete("/api/panels/" + panel.ID) }()

	resp, err = api.Post("/api/panels/"+panel.ID+"/ready", nil)
	if err != nil {
		return fmt.Errorf("failed to ready panel: %w", err)
	}
	var ready readyResponse
	if err := json.Unmarshal(resp.Data, &ready); err != nil {
		return fmt.Errorf("failed to parse ready response: %w", err)
	}

	resp, err = api.Post("/api/panels/"+panel.ID+"/retrieve", retrieveRequest{SMILES: smiles})
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}
	var result retrieveResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse retrieve response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result.Panel, "", "  ")
		fmt.Fprintln(out, string(output))
	} else {
		fmt.Fprintln(out, ui.RenderPanel(ui.DefaultStyles(), result.Panel.View()))
	}

	if result.Panel.Error != "" {
		return fmt.Errorf("%s", result.Panel.Error)
	}
	return nil
}
