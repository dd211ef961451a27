// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"legallens/internal/research"
)

func newPrecedentsCmd(a *app) *cobra.Command {
	var jurisdiction string
	cmd := &cobra.Command{
		Use:     "precedents <legal issue>",
		Short:   "Search case law for a legal issue",
		Example: `  legallens precedents "mandatory arbitration clause enforceability" --jurisdiction California`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.research().LegalPrecedents(cmd.Context(), strings.Join(args, " "), jurisdiction)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "Limit the search to a jurisdiction")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var topic string
	var github bool
	var language string
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the web or GitHub for legal documents and news",
		Long: `Search recent web sources with Tavily, one query per argument, or search
GitHub repositories for legal documents with --github.`,
		Example: `  legallens search "FTC dark patterns ruling" "GDPR fine 2025" --topic news
  legallens search --github "terms of service arbitration"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.research()
			var out string
			if github {
				out = svc.GitHubSearch(cmd.Context(), strings.Join(args, " "), language)
			} else {
				out = svc.SearchWeb(cmd.Context(), args, research.ParseTopic(topic))
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "news", "Search topic: general, news or finance")
	cmd.Flags().BoolVar(&github, "github", false, "Search GitHub code instead of the web")
	cmd.Flags().StringVar(&language, "language", "", "GitHub search language filter (e.g. Markdown)")
	return cmd
}
