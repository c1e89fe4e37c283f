package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"recipe-extractor/internal/core/amount"
	"recipe-extractor/internal/core/batch"
	"recipe-extractor/internal/core/extract"
	"recipe-extractor/internal/core/identity"
	"recipe-extractor/internal/infrastructure/kafka"
	"recipe-extractor/internal/infrastructure/reddit"
	"recipe-extractor/internal/infrastructure/search"
	"recipe-extractor/internal/pkg/common"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (r *runner) newParseCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract a recipe record from a text file without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			res := extract.New(extract.WithLimits(extract.SegmenterConfig{
				MaxIngredients:  r.cfg.Extract.MaxIngredients,
				MaxInstructions: r.cfg.Extract.MaxInstructions,
				LenientMax:      r.cfg.Extract.LenientMax,
			})).ExtractDetailed(text, title)

			return r.print(cmd.OutOrStdout(), res, func(w io.Writer) { writeRecord(w, res) })
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title override")
	return cmd
}

func writeRecord(w io.Writer, res extract.Result) {
	rec := res.Record
	fmt.Fprintf(w, "Title: %s\n", rec.Title)
	if rec.Description != nil {
		fmt.Fprintf(w, "Description: %s\n", *rec.Description)
	}
	fmt.Fprintf(w, "\nIngredients (%s):\n", tierName(res.IngredientTier))
	for _, it := range rec.Ingredients {
		fmt.Fprintf(w, "  - %s\n", it.Line())
	}
	fmt.Fprintf(w, "\nInstructions (%s):\n", tierName(res.InstructionTier))
	for _, ins := range rec.Instructions {
		if ins.HasDefaultTitle() {
			fmt.Fprintf(w, "  %d. %s\n", ins.Step, ins.Description)
		} else {
			fmt.Fprintf(w, "  %d. %s: %s\n", ins.Step, ins.Title, ins.Description)
		}
	}

	var meta []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"prep", rec.PrepTime},
		{"cook", rec.CookTime},
		{"chill", rec.ChillTime},
		{"pan", rec.PanSize},
		{"cuisine", rec.Cuisine},
	} {
		if f.value != nil {
			meta = append(meta, f.name+"="+*f.value)
		}
	}
	if rec.Difficulty != nil {
		meta = append(meta, "difficulty="+string(*rec.Difficulty))
	}
	if rec.MealType != nil {
		meta = append(meta, "meal="+string(*rec.MealType))
	}
	if len(rec.DietaryTags) > 0 {
		meta = append(meta, "tags="+strings.Join(rec.DietaryTags, ","))
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "\n%s\n", strings.Join(meta, " "))
	}
	if res.Dropped > 0 {
		fmt.Fprintf(w, "dropped %d ingredient line(s)\n", res.Dropped)
	}
}

func tierName(t extract.Tier) string {
	if t == extract.TierNone {
		return "placeholder"
	}
	return string(t)
}

func (r *runner) newAmountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "amount <text>",
		Short: "Normalize an amount string into quantity, unit and unit type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := amount.Parse(strings.Join(args, " "))
			return r.print(cmd.OutOrStdout(), n, func(w io.Writer) {
				q := "-"
				if n.Quantity != nil {
					q = fmt.Sprintf("%g", *n.Quantity)
				}
				ut := "-"
				if n.UnitType != nil {
					ut = string(*n.UnitType)
				}
				fmt.Fprintf(w, "quantity=%s unit=%s unit_type=%s\n", q, common.Deref(n.Unit), ut)
			})
		},
	}
}

func (r *runner) newIdentityCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "identity <title> <source>",
		Short: "Print the deterministic recipe id for a title and source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := identity.Generate(args[0], args[1])
			return r.print(cmd.OutOrStdout(), map[string]string{"id": id}, func(w io.Writer) {
				fmt.Fprintln(w, id)
			})
		},
	}
}

func (r *runner) newIngestCommand() *cobra.Command {
	var source, title string

	cmd := &cobra.Command{
		Use:   "ingest <file|dir>",
		Short: "Extract and store recipes from a file or every .txt/.md file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := inputFiles(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .txt or .md files in %s", args[0])
			}

			docs := make([]batch.Document, 0, len(files))
			for _, f := range files {
				text, err := readInput(cmd, f)
				if err != nil {
					return err
				}
				docs = append(docs, batch.Document{Text: text, Title: title, Source: documentSource(source, f, len(files) > 1)})
			}

			a, err := r.newApp(cmd, r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.Batch.Process(cmd.Context(), docs)
			if err != nil {
				return err
			}

			summary := summarize(results)
			out := struct {
				Results []ingestLine   `json:"results"`
				Summary map[string]int `json:"summary"`
			}{Summary: summary}
			for i, res := range results {
				out.Results = append(out.Results, newIngestLine(files[i], res))
			}

			if err := r.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				for _, l := range out.Results {
					fmt.Fprintf(w, "%-9s %s %s%s\n", l.Outcome, l.File, l.ID, l.suffix())
				}
				writeSummary(w, summary)
			}); err != nil {
				return err
			}

			if summary[batch.OutcomeFailed] > 0 {
				return fmt.Errorf("%d document(s) failed", summary[batch.OutcomeFailed])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source token (required); per-file suffix is added for directories")
	cmd.Flags().StringVar(&title, "title", "", "title override applied to every document")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

// documentSource 目錄模式下以檔名區分來源，避免同名食譜互相覆蓋
func documentSource(source, file string, many bool) string {
	if !many {
		return source
	}
	return source + ":" + filepath.Base(file)
}

type ingestLine struct {
	File     string `json:"file"`
	Outcome  string `json:"outcome"`
	ID       string `json:"id,omitempty"`
	Valid    int    `json:"valid"`
	Skipped  int    `json:"skipped"`
	Total    int    `json:"total"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

func newIngestLine(file string, res batch.Result) ingestLine {
	l := ingestLine{File: file, Outcome: res.Outcome, Attempts: res.Attempts}
	if res.Ingest != nil {
		l.ID = res.Ingest.ID
		l.Valid = res.Ingest.Valid
		l.Skipped = res.Ingest.Skipped
		l.Total = res.Ingest.Total
	}
	if res.Err != nil {
		l.Error = res.Err.Error()
	}
	return l
}

func (l ingestLine) suffix() string {
	if l.Error == "" {
		return ""
	}
	return " (" + l.Error + ")"
}

func (r *runner) newConsumeCommand() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Consume recipe messages from Kafka until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kcfg := r.cfg.Kafka
			if topic != "" {
				kcfg.Topic = topic
			}

			a, err := r.newApp(cmd, r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.Batch.Start()

			consumer := kafka.NewConsumer(kcfg, a.Batch)
			defer consumer.Close()

			runErr := consumer.Run(cmd.Context())
			stats := consumer.Stats()
			common.LogInfo("Kafka 消費結束",
				zap.Int64("consumed", stats.Consumed),
				zap.Int64("stored", stats.Stored),
				zap.Int64("rejected", stats.Rejected),
			)
			if err := r.print(cmd.OutOrStdout(), stats, func(w io.Writer) {
				fmt.Fprintf(w, "consumed=%d stored=%d duplicate=%d rejected=%d failed=%d malformed=%d\n",
					stats.Consumed, stats.Stored, stats.Duplicate, stats.Rejected, stats.Failed, stats.Malformed)
			}); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "override kafka.topic")
	return cmd
}

func (r *runner) newScrapeCommand() *cobra.Command {
	var subreddit string
	var limit int

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Fetch new Reddit posts and store the recipes found in them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rcfg := r.cfg.Reddit
			if subreddit != "" {
				rcfg.Subreddit = subreddit
			}
			if limit > 0 {
				rcfg.Limit = limit
			}

			a, err := r.newApp(cmd, r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.Batch.Start()

			results, err := reddit.NewClient(rcfg).Scrape(cmd.Context(), a.Batch)
			if err != nil {
				return err
			}

			summary := summarize(results)
			return r.print(cmd.OutOrStdout(), summary, func(w io.Writer) {
				fmt.Fprintf(w, "r/%s: %d post(s) processed\n", rcfg.Subreddit, len(results))
				writeSummary(w, summary)
			})
		},
	}
	cmd.Flags().StringVar(&subreddit, "subreddit", "", "override reddit.subreddit")
	cmd.Flags().IntVar(&limit, "limit", 0, "override reddit.limit")
	return cmd
}

type syncReport struct {
	Index   string `json:"index"`
	Listed  int    `json:"listed"`
	Indexed int64  `json:"indexed"`
	Skipped int64  `json:"skipped"`
	Failed  int64  `json:"failed"`
}

func (r *runner) newSyncSearchCommand() *cobra.Command {
	var (
		pageSize int
		recreate bool
	)

	cmd := &cobra.Command{
		Use:   "sync-search",
		Short: "Re-index every stored recipe into OpenSearch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.newApp(cmd, r.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			// 未開啟 index_on_save 時也能手動同步
			ix := a.Indexer
			if ix == nil {
				if ix, err = search.New(r.cfg.Search); err != nil {
					return fmt.Errorf("failed to create search indexer: %w", err)
				}
			}

			ctx := cmd.Context()
			if recreate {
				if err := ix.DeleteIndex(ctx); err != nil {
					return err
				}
			}
			if err := ix.EnsureIndex(ctx); err != nil {
				return err
			}

			listed, syncErr := ix.SyncStore(ctx, a.Store, pageSize)
			stats := ix.Stats()
			report := syncReport{
				Index:   r.cfg.Search.Index,
				Listed:  listed,
				Indexed: stats.Indexed,
				Skipped: stats.Skipped,
				Failed:  stats.Failed,
			}
			if err := r.print(cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprintf(w, "index=%s listed=%d indexed=%d skipped=%d failed=%d\n",
					report.Index, report.Listed, report.Indexed, report.Skipped, report.Failed)
			}); err != nil {
				return err
			}
			return syncErr
		},
	}
	cmd.Flags().IntVar(&pageSize, "page-size", 1000, "recipes read from the store per page")
	cmd.Flags().BoolVar(&recreate, "recreate-index", false, "delete and recreate the index before syncing")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "recipectl %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}
