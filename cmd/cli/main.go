package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/infrastructure/logger"
	"github.com/iho/stockledger/internal/infrastructure/postgres"
)

// errDiscrepancy makes the process exit non-zero when a check finds drift.
var errDiscrepancy = errors.New("discrepancies found")

type options struct {
	baseURL string
	timeout time.Duration
	asJSON  bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "stockledger-cli",
		Short:         "StockLedger CLI tool",
		Long:          `A command line interface for querying the StockLedger API and managing its database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the StockLedger API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print raw JSON responses")

	rootCmd.AddCommand(newItemsCmd(opts), newPostingsCmd(opts), newMigrateCmd())
	return rootCmd
}

func newItemsCmd(opts *options) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Stock item queries",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stock items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var resp dto.ListItemsResponse
			if err := newClient(opts).get(cmd.Context(), "/api/v1/items", q, &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printItems(cmd.OutOrStdout(), resp.Items)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum items to return")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Items to skip")

	lowStockCmd := &cobra.Command{
		Use:   "low-stock",
		Short: "List items below their minimum threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp dto.ListItemsResponse
			if err := newClient(opts).get(cmd.Context(), "/api/v1/items/low-stock", nil, &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printItems(cmd.OutOrStdout(), resp.Items)
		},
	}

	var at string
	balanceCmd := &cobra.Command{
		Use:   "balance <item-id>",
		Short: "Show the current or historical balance of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := timeQuery("at", at)
			if err != nil {
				return err
			}

			var resp dto.BalanceResponse
			if err := newClient(opts).get(cmd.Context(), "/api/v1/items/"+url.PathEscape(args[0])+"/balance", q, &resp); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			if resp.At != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d (at %s)\n", resp.ItemID, resp.Balance, resp.At.Format(time.RFC3339))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", resp.ItemID, resp.Balance)
			return nil
		},
	}
	balanceCmd.Flags().StringVar(&at, "at", "", "RFC 3339 timestamp for a historical balance")

	var since string
	var historyLimit int
	historyCmd := &cobra.Command{
		Use:   "history <item-id>",
		Short: "Show the movement history of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := timeQuery("since", since)
			if err != nil {
				return err
			}
			q.Set("limit", strconv.Itoa(historyLimit))

			var movements []*dto.MovementResponse
			if err := newClient(opts).get(cmd.Context(), "/api/v1/items/"+url.PathEscape(args[0])+"/movements", q, &movements); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), movements)
			}
			return printMovements(cmd.OutOrStdout(), movements)
		},
	}
	historyCmd.Flags().StringVar(&since, "since", "", "Only movements at or after this RFC 3339 timestamp")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 100, "Maximum movements to return")

	reconcileCmd := &cobra.Command{
		Use:   "reconcile [item-id]",
		Short: "Check recorded balances against movement history",
		Long:  `Reconciles one item when an ID is given, otherwise every item. Exits non-zero on discrepancies.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(opts)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				var resp dto.ReconciliationResponse
				if err := c.get(cmd.Context(), "/api/v1/items/"+url.PathEscape(args[0])+"/reconcile", nil, &resp); err != nil {
					return err
				}
				if opts.asJSON {
					if err := printJSON(out, resp); err != nil {
						return err
					}
				} else {
					printReconciliation(out, &resp)
				}
				if !resp.IsReconciled {
					return errDiscrepancy
				}
				return nil
			}

			var report dto.ReportResponse
			if err := c.get(cmd.Context(), "/api/v1/reconciliation", nil, &report); err != nil {
				return err
			}
			if opts.asJSON {
				if err := printJSON(out, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Checked %d items, %d reconciled\n", report.TotalItems, report.ReconciledItems)
				for _, d := range report.Discrepancies {
					printReconciliation(out, d)
				}
			}
			if len(report.Discrepancies) > 0 {
				return errDiscrepancy
			}
			return nil
		},
	}

	itemsCmd.AddCommand(listCmd, lowStockCmd, balanceCmd, historyCmd, reconcileCmd)
	return itemsCmd
}

type postingFlags struct {
	from      string
	to        string
	category  string
	direction string
}

func (f *postingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Inclusive RFC 3339 lower bound")
	cmd.Flags().StringVar(&f.to, "to", "", "Exclusive RFC 3339 upper bound")
	cmd.Flags().StringVar(&f.category, "category", "", "Only this category")
	cmd.Flags().StringVar(&f.direction, "direction", "", "inflow or outflow")
}

func (f *postingFlags) query() (url.Values, error) {
	q, err := timeQuery("from", f.from)
	if err != nil {
		return nil, err
	}
	to, err := timeQuery("to", f.to)
	if err != nil {
		return nil, err
	}
	if v := to.Get("to"); v != "" {
		q.Set("to", v)
	}
	if f.category != "" {
		q.Set("category", f.category)
	}
	if f.direction != "" {
		q.Set("direction", f.direction)
	}
	return q, nil
}

func newPostingsCmd(opts *options) *cobra.Command {
	postingsCmd := &cobra.Command{
		Use:   "postings",
		Short: "Financial ledger queries",
	}

	listFlags := &postingFlags{}
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := listFlags.query()
			if err != nil {
				return err
			}
			q.Set("limit", strconv.Itoa(limit))

			var entries []*dto.PostingEntryResponse
			if err := newClient(opts).get(cmd.Context(), "/api/v1/postings", q, &entries); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			return printEntries(cmd.OutOrStdout(), entries)
		},
	}
	listFlags.register(listCmd)
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to return")

	var check bool
	sourceCmd := &cobra.Command{
		Use:   "source <kind> <id>",
		Short: "Show the entry posted for a source event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/postings/source/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
			c := newClient(opts)
			out := cmd.OutOrStdout()

			if check {
				var resp dto.PostingCheckResponse
				if err := c.get(cmd.Context(), path+"/check", nil, &resp); err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(out, resp)
				}
				if !resp.Posted {
					fmt.Fprintf(out, "%s/%s: not posted\n", resp.SourceKind, resp.SourceID)
					return nil
				}
				fmt.Fprintf(out, "%s/%s: posted as %s\n", resp.SourceKind, resp.SourceID, resp.Entry.ID)
				return nil
			}

			var entry dto.PostingEntryResponse
			if err := c.get(cmd.Context(), path, nil, &entry); err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(out, entry)
			}
			return printEntries(out, []*dto.PostingEntryResponse{&entry})
		},
	}
	sourceCmd.Flags().BoolVar(&check, "check", false, "Only report whether the source was posted")

	summaryFlags := &postingFlags{}
	var by, period string
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize ledger totals by category or by period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := summaryFlags.query()
			if err != nil {
				return err
			}
			c := newClient(opts)
			out := cmd.OutOrStdout()

			switch by {
			case "category", "categories":
				var totals []dto.CategoryTotalResponse
				if err := c.get(cmd.Context(), "/api/v1/postings/summary/categories", q, &totals); err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(out, totals)
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tDIRECTION\tTOTAL\tCOUNT")
				for _, t := range totals {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", t.Category, t.Direction, t.Total, t.Count)
				}
				return w.Flush()

			case "period", "periods":
				if period != "" {
					q.Set("period", period)
				}
				var totals []dto.PeriodTotalResponse
				if err := c.get(cmd.Context(), "/api/v1/postings/summary/periods", q, &totals); err != nil {
					return err
				}
				if opts.asJSON {
					return printJSON(out, totals)
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "START\tINFLOW\tOUTFLOW\tNET\tCOUNT")
				for _, t := range totals {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", t.Start.Format(time.DateOnly), t.Inflow, t.Outflow, t.Net, t.Count)
				}
				return w.Flush()
			}

			return fmt.Errorf("--by must be category or period, got %q", by)
		},
	}
	summaryFlags.register(summaryCmd)
	summaryCmd.Flags().StringVar(&by, "by", "category", "Group by category or period")
	summaryCmd.Flags().StringVar(&period, "period", "", "Bucket size for --by period: day or month")

	postingsCmd.AddCommand(listCmd, sourceCmd, summaryCmd)
	return postingsCmd
}

func newMigrateCmd() *cobra.Command {
	var databaseURL string

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	run := func(fn func(string, zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			log := logger.New(logger.Config{Output: cmd.ErrOrStderr(), Level: "info", Format: "console"})
			return fn(databaseURL, log)
		}
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  run(postgres.RunMigrations),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE:  run(postgres.RunMigrationsDown),
		},
	)
	return migrateCmd
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newClient(opts *options) *apiClient {
	return &apiClient{
		baseURL: opts.baseURL,
		http:    &http.Client{Timeout: opts.timeout},
	}
}

func (c *apiClient) get(ctx context.Context, path string, query url.Values, v any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func timeQuery(key, value string) (url.Values, error) {
	q := url.Values{}
	if value == "" {
		return q, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be an RFC 3339 timestamp: %w", key, err)
	}
	q.Set(key, t.UTC().Format(time.RFC3339))
	return q, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func printItems(out io.Writer, items []*dto.ItemResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSKU\tNAME\tBALANCE\tMIN\tLOW")
	for _, it := range items {
		low := ""
		if it.BelowMinimum {
			low = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", it.ID, it.SKU, truncate(it.Name, 32), it.Balance, it.MinimumThreshold, low)
	}
	return w.Flush()
}

func printMovements(out io.Writer, movements []*dto.MovementResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tKIND\tDELTA\tBEFORE\tAFTER\tAT\tREASON")
	for _, m := range movements {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			m.Sequence, m.Kind, m.QuantityDelta, m.PreviousBalance, m.ResultingBalance,
			m.OccurredAt.Format(time.RFC3339), truncate(m.Reason, 40))
	}
	return w.Flush()
}

func printEntries(out io.Writer, entries []*dto.PostingEntryResponse) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OCCURRED\tDIRECTION\tCATEGORY\tAMOUNT\tSOURCE\tNARRATIVE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s/%s\t%s\n",
			e.OccurredAt.Format(time.DateOnly), e.Direction, e.Category, e.Amount,
			e.SourceKind, e.SourceID, truncate(e.Narrative, 40))
	}
	return w.Flush()
}

func printReconciliation(out io.Writer, r *dto.ReconciliationResponse) {
	if r.IsReconciled {
		fmt.Fprintf(out, "%s: reconciled (balance %d, %d movements)\n", r.ItemID, r.RecordedBalance, r.MovementCount)
		return
	}

	fmt.Fprintf(out, "%s: DISCREPANCY recorded=%d calculated=%d difference=%d\n",
		r.ItemID, r.RecordedBalance, r.CalculatedBalance, r.Difference)
	if len(r.SequenceGaps) > 0 {
		fmt.Fprintf(out, "  sequence gaps: %v\n", r.SequenceGaps)
	}
	if r.BrokenChainAt != nil {
		fmt.Fprintf(out, "  balance chain broken at sequence %d\n", *r.BrokenChainAt)
	}
}
