// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/cbso"
	"github.com/pdiddy/faillink/pkg/types"
)

// --- references ---

var referencesCmd = &cobra.Command{
	Use:   "references <cbe>",
	Short: "List the annual-accounts deposits of an enterprise",
	Long: `References lists every annual-accounts deposit of an enterprise, newest
exercise first. The latest deposit, the one analyse works from, is marked
with an asterisk.`,
	Args: cobra.ExactArgs(1),
	RunE: runReferences,
}

// --- filing ---

var filingCmd = &cobra.Command{
	Use:   "filing <cbe>",
	Short: "Download the latest annual accounts of an enterprise as PDF",
	Long: `Filing resolves the latest deposit of an enterprise and downloads its
rendered accounts to <out>/<cbe>_<reference>.pdf. The file is written to a
temporary name first and renamed on success.`,
	Args: cobra.ExactArgs(1),
	RunE: runFiling,
}

func init() {
	for _, c := range []*cobra.Command{referencesCmd, filingCmd} {
		c.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
		c.Flags().String("subscription-key", "", "CBSO subscription key (default: .secrets/cbso-subscription-key)")
	}
	referencesCmd.Flags().Bool("json", false, "output references as JSON")
	filingCmd.Flags().String("out", ".", "directory to write the PDF to")

	rootCmd.AddCommand(referencesCmd, filingCmd)
}

// cbsoClient builds the filing API client, applying command-line overrides.
func cbsoClient(cmd *cobra.Command, cfg types.PipelineConfig) *cbso.Client {
	if cmd.Flags().Changed("timeout") {
		cfg.CBSO.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if key, _ := cmd.Flags().GetString("subscription-key"); key != "" {
		cfg.CBSO.SubscriptionKey = key
	}
	return cbso.NewClient(nil, cfg.CBSO)
}

// enterpriseNumber validates a command-line enterprise number before any
// network call.
func enterpriseNumber(raw string) (string, error) {
	n := cbe.Normalize(raw)
	if !cbe.Valid(n) {
		return "", fmt.Errorf("invalid enterprise number %q: want 10 digits, e.g. 0123.456.789", raw)
	}
	return n, nil
}

func runReferences(cmd *cobra.Command, args []string) error {
	number, err := enterpriseNumber(args[0])
	if err != nil {
		return err
	}
	client := cbsoClient(cmd, pipelineConfig())

	refs, err := client.References(cmd.Context(), number)
	if err != nil {
		return err
	}
	sorted := cbso.SortLatestFirst(refs)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encode(os.Stdout, sorted, formatJSON)
	}
	if len(sorted) == 0 {
		fmt.Printf("%s has no published annual accounts.\n", cbe.Format(number))
		return nil
	}

	fmt.Printf("  %-16s  %-12s  %-12s  %-12s  %s\n", "Reference", "Deposited", "Start", "End", "Model")
	fmt.Println(strings.Repeat("-", 72))
	for i, r := range sorted {
		mark := " "
		if i == 0 {
			mark = "*"
		}
		fmt.Printf("%s %-16s  %-12s  %-12s  %-12s  %s\n",
			mark, r.ReferenceID, r.DepositDate, r.ExerciseStart, r.ExerciseEnd, r.ModelType)
	}
	fmt.Printf("\n%d deposits\n", len(sorted))
	return nil
}

func runFiling(cmd *cobra.Command, args []string) error {
	number, err := enterpriseNumber(args[0])
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	client := cbsoClient(cmd, pipelineConfig())
	ctx := cmd.Context()

	ref, err := client.Latest(ctx, number)
	if err != nil {
		return err
	}
	fmt.Printf("downloading: %s (%s)\n", ref.ReferenceID, cbe.Format(number))

	doc, err := client.Document(ctx, ref.ReferenceID)
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, fmt.Sprintf("%s_%s.pdf", number, ref.ReferenceID))
	if err := writeFileAtomic(path, doc.Bytes); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes, %s)\n", path, doc.ContentLength, doc.ContentType)
	return nil
}
