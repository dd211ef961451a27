// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"legallens/internal/core"
	"legallens/internal/formatters"
	"legallens/internal/formatters/shared"
	"legallens/internal/store"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored analyses",
	}
	cmd.AddCommand(
		newHistoryListCmd(a),
		newHistoryShowCmd(a),
		newHistoryDeleteCmd(a),
		newHistoryStatsCmd(a),
	)
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var opts store.ListOptions
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.requireStore()
			if err != nil {
				return err
			}
			defer s.Close()

			opts.Rating = strings.ToUpper(opts.Rating)
			records, err := s.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if records == nil {
					records = []store.Record{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No analyses recorded.")
				return nil
			}

			t := shared.NewTable(shared.ASCII)
			t.Header("ID", "TITLE", "TYPE", "SCORE", "RATING", "RISKS", "ANALYZED")
			t.AlignRight(4)
			t.AlignRight(6)
			t.MaxWidth(2, 40)
			for _, r := range records {
				t.Row(r.ID, r.Title, r.DocumentType, r.Score, r.Rating, r.RiskFindings, r.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of analyses")
	f.StringVar(&opts.DocumentType, "type", "", "Only this document type")
	f.StringVar(&opts.Rating, "rating", "", "Only this rating: FAIR, MODERATE or UNFAIR")
	f.BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newHistoryShowCmd(a *app) *cobra.Command {
	var format string
	var verbose bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a stored analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireStore()
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == "" {
				format = a.cfg.Defaults.Format
			}
			report, err := formatters.Export(format, []*core.Result{result}, formatters.FormatterOptions{
				Verbose: verbose,
				NoColor: a.colorDisabled(cmd.OutOrStdout()),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(report, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (default from config: text)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include every matched clause")
	return cmd
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored analyses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.requireStore()
			if err != nil {
				return err
			}
			defer s.Close()

			for _, id := range args {
				if err := s.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func newHistoryStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.requireStore()
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyses: %d\n", stats.Total)
			if stats.Total == 0 {
				return nil
			}
			fmt.Fprintf(out, "Average score: %.1f\n", stats.AverageScore)
			ratings := make([]string, 0, len(stats.ByRating))
			for rating := range stats.ByRating {
				ratings = append(ratings, rating)
			}
			sort.Strings(ratings)
			for _, rating := range ratings {
				fmt.Fprintf(out, "  %-9s %d\n", rating, stats.ByRating[rating])
			}
			return nil
		},
	}
}
