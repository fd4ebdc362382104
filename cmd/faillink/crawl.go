// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/export"
	"github.com/pdiddy/faillink/internal/kbo"
	"github.com/pdiddy/faillink/internal/listing"
	"github.com/pdiddy/faillink/internal/store"
	"github.com/pdiddy/faillink/pkg/types"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Collect enterprise numbers from the bankruptcy listing",
	Long: `Crawl walks every page of the bankruptcy listing for a date range and
collects the distinct enterprise numbers it mentions. Without --from/--to or
--date, today's listing is crawled.

With --store the batch is saved to the local database. With --enrich each
enterprise not yet stored is looked up in the enterprise register. With
--xlsx the batch is written to a workbook.

If the crawl stops early (transport failure or page ceiling) the pages
collected so far are still stored and exported, and the command exits
non-zero.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("from", "", "first listing date, YYYY-MM-DD")
	crawlCmd.Flags().String("to", "", "last listing date, YYYY-MM-DD (default: --from)")
	crawlCmd.Flags().String("date", "", "single listing date, YYYY-MM-DD")
	crawlCmd.Flags().Int("max-pages", 0, "page ceiling for one crawl (default 500)")
	crawlCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 15s)")
	crawlCmd.Flags().Bool("store", false, "save the batch to the local database")
	crawlCmd.Flags().Bool("enrich", false, "look up enterprise details for new numbers")
	crawlCmd.Flags().String("xlsx", "", "write the batch to this workbook")
	crawlCmd.Flags().Bool("json", false, "print the crawl result as JSON")
	crawlCmd.MarkFlagsMutuallyExclusive("date", "from")
	crawlCmd.MarkFlagsMutuallyExclusive("date", "to")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	from, to, err := crawlRange(cmd)
	if err != nil {
		return err
	}

	cfg := pipelineConfig()
	if cmd.Flags().Changed("max-pages") {
		cfg.Listing.MaxPages, _ = cmd.Flags().GetInt("max-pages")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Listing.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	save, _ := cmd.Flags().GetBool("store")
	enrich, _ := cmd.Flags().GetBool("enrich")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")

	// Progress goes to stderr when stdout carries JSON.
	var progress io.Writer = os.Stdout
	if jsonOutput {
		progress = os.Stderr
	}

	ctx := cmd.Context()
	crawler := listing.NewCrawler(nil, cfg.Listing)
	res, crawlErr := listing.CrawlRange(ctx, crawler, from, to, cfg.Listing.MaxPages, progress)
	if crawlErr != nil {
		if len(res.Pages) == 0 {
			return crawlErr
		}
		fmt.Fprintf(os.Stderr, "warning: crawl incomplete: %v\n", crawlErr)
	}

	var (
		st      *store.Store
		batchID int64
	)
	if save {
		st, err = openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		batchID, err = st.SaveBatch(ctx, types.SourceCLI, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(progress, "saved batch %d to %s\n", batchID, st.Path())
	}

	details := map[string]types.Enterprise{}
	if enrich {
		details, err = enrichEnterprises(ctx, kbo.NewClient(nil, cfg.KBO), st, batchID, res.Identifiers(), progress)
		if err != nil {
			return err
		}
	}

	if xlsxPath != "" {
		data, err := export.New(logger).Crawl(res, details)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(xlsxPath, data); err != nil {
			return err
		}
		fmt.Fprintf(progress, "wrote %s\n", xlsxPath)
	}

	if jsonOutput {
		if err := encode(os.Stdout, res, formatJSON); err != nil {
			return err
		}
	} else {
		fmt.Printf("Crawl summary: %s to %s, %d pages, %d raw, %d distinct\n",
			res.From, res.To, len(res.Pages), res.CountRaw, res.CountDistinct)
	}
	return crawlErr
}

// crawlRange resolves --date or --from/--to, defaulting to today.
func crawlRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	date, _ := cmd.Flags().GetString("date")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	if date != "" {
		fromStr, toStr = date, date
	}
	if fromStr == "" && toStr != "" {
		return time.Time{}, time.Time{}, errors.New("--to requires --from")
	}
	if fromStr == "" {
		today := listing.Today()
		return today, today, nil
	}
	if toStr == "" {
		toStr = fromStr
	}

	from, err := listing.ParseDate(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := listing.ParseDate(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := listing.ValidateRange(from, to); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// enterpriseReader reads register details. *kbo.Client implements it.
type enterpriseReader interface {
	ReadEnterprise(ctx context.Context, number string) (*types.Enterprise, error)
}

// enrichEnterprises looks up each number, reusing stored details when st is
// set. Unknown numbers and per-number failures are reported and skipped;
// missing credentials abort.
func enrichEnterprises(ctx context.Context, r enterpriseReader, st *store.Store, batchID int64, numbers []string, w io.Writer) (map[string]types.Enterprise, error) {
	out := make(map[string]types.Enterprise, len(numbers))
	var fetched, reused, failed int
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if st != nil {
			has, err := st.HasEnterprise(ctx, n)
			if err != nil {
				return out, err
			}
			if has {
				e, err := st.Enterprise(ctx, n)
				if err != nil {
					return out, err
				}
				out[n] = e
				reused++
				continue
			}
		}

		e, err := r.ReadEnterprise(ctx, n)
		switch {
		case errors.Is(err, kbo.ErrCredentials):
			return out, err
		case errors.Is(err, kbo.ErrNotFound):
			fmt.Fprintf(w, "  %s: not in the register\n", cbe.Format(n))
			failed++
			continue
		case err != nil:
			fmt.Fprintf(w, "  %s: lookup failed: %v\n", cbe.Format(n), err)
			failed++
			continue
		}
		out[n] = *e
		fetched++
		if st != nil {
			if err := st.UpsertEnterprise(ctx, batchID, *e); err != nil {
				return out, err
			}
		}
	}
	fmt.Fprintf(w, "Enrichment: %d fetched, %d already stored, %d failed\n", fetched, reused, failed)
	return out, nil
}
