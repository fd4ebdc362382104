// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/faillink/internal/export"
	"github.com/pdiddy/faillink/pkg/types"
)

// --- batches ---

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List stored crawl batches",
	RunE:  runBatches,
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the local database to YAML, JSON, or XLSX",
	Long: `Export writes every stored batch, filing analysis, and enterprise to a
YAML or JSON file chosen by the --out extension (default data/export.yaml).
With --xlsx the stored filing analyses are also written to a workbook, and
with --batch that batch is written to its own workbook.`,
	RunE: runExport,
}

func init() {
	batchesCmd.Flags().Bool("json", false, "output batches as JSON")

	exportCmd.Flags().String("out", "", "export file, .yaml or .json (default data/export.yaml)")
	exportCmd.Flags().String("xlsx", "", "write stored filing analyses to this workbook")
	exportCmd.Flags().Int64("batch", 0, "stored batch to write with --batch-xlsx")
	exportCmd.Flags().String("batch-xlsx", "", "write the --batch batch to this workbook")

	rootCmd.AddCommand(batchesCmd, exportCmd)
}

func runBatches(cmd *cobra.Command, args []string) error {
	st, err := openStore(pipelineConfig())
	if err != nil {
		return err
	}
	defer st.Close()

	batches, err := st.Batches(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encode(os.Stdout, batches, formatJSON)
	}
	if len(batches) == 0 {
		fmt.Println("No batches stored.")
		return nil
	}

	fmt.Printf("%-6s  %-10s  %-10s  %-6s  %-8s  %-8s  %s\n", "ID", "From", "To", "Pages", "Raw", "Distinct", "Grabbed")
	fmt.Println(strings.Repeat("-", 80))
	for _, b := range batches {
		fmt.Printf("%-6d  %-10s  %-10s  %-6d  %-8d  %-8d  %s\n",
			b.ID, b.From, b.To, len(b.Pages), b.CountRaw, b.CountDistinct, b.GrabbedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	batchID, _ := cmd.Flags().GetInt64("batch")
	batchXLSX, _ := cmd.Flags().GetString("batch-xlsx")
	if batchXLSX != "" && batchID == 0 {
		return fmt.Errorf("--batch-xlsx requires --batch")
	}

	st, err := openStore(pipelineConfig())
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := cmd.Context()

	path, err := st.Export(ctx, out)
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)

	x := export.New(logger)
	if xlsxPath != "" {
		filings, err := st.Filings(ctx, "")
		if err != nil {
			return err
		}
		data, err := x.Filings(filings)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(xlsxPath, data); err != nil {
			return err
		}
		fmt.Println("Exported to", xlsxPath)
	}

	if batchXLSX != "" {
		b, err := st.Batch(ctx, batchID)
		if err != nil {
			return err
		}
		enterprises, err := st.Enterprises(ctx, batchID)
		if err != nil {
			return err
		}
		details := make(map[string]types.Enterprise, len(enterprises))
		for _, e := range enterprises {
			details[e.Number] = e
		}
		data, err := x.Crawl(b.CrawlResult, details)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(batchXLSX, data); err != nil {
			return err
		}
		fmt.Println("Exported to", batchXLSX)
	}
	return nil
}
