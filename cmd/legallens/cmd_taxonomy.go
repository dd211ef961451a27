// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"legallens/internal/formatters/shared"
	"legallens/internal/taxonomy"
)

func newTaxonomyCmd(a *app) *cobra.Command {
	var format string
	var showPatterns bool
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "List the risk categories and compliance frameworks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tax, err := taxonomy.LoadOrDefault(a.cfg.TaxonomyFile)
			if err != nil {
				return err
			}
			return printTaxonomy(cmd.OutOrStdout(), tax, format, showPatterns)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&showPatterns, "patterns", false, "Show the match patterns of every entry")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a custom taxonomy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tax, err := taxonomy.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d risk categories, %d compliance frameworks (max deduction %d)\n",
				args[0], len(tax.Risks), len(tax.Frameworks), tax.MaxDeduction())
			return nil
		},
	})
	return cmd
}

func printTaxonomy(w io.Writer, tax *taxonomy.Taxonomy, format string, showPatterns bool) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tax)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(tax)
	case "table", "":
	default:
		return fmt.Errorf("unsupported format %q (use table, json or yaml)", format)
	}

	risks := shared.NewTable(shared.ASCII)
	header := []string{"KEY", "TITLE", "WEIGHT", "SEVERITY"}
	if showPatterns {
		header = append(header, "PATTERNS")
	}
	risks.Header(header...)
	risks.AlignRight(3)
	for _, r := range tax.Risks {
		row := []any{r.Key, r.Title, fmt.Sprintf("-%d", r.Weight), string(r.Severity)}
		if showPatterns {
			row = append(row, strings.Join(r.Patterns, "\n"))
		}
		risks.Row(row...)
	}
	risks.Footer("", "MAX DEDUCTION", fmt.Sprintf("-%d", tax.MaxDeduction()), "")

	frameworks := shared.NewTable(shared.ASCII)
	header = []string{"KEY", "TITLE", "BONUS", "IF MISSING"}
	if showPatterns {
		header = append(header, "PATTERNS")
	}
	frameworks.Header(header...)
	frameworks.AlignRight(3)
	frameworks.MaxWidth(4, 50)
	for _, f := range tax.Frameworks {
		missing := f.MissingAdvisory
		if missing == "" {
			missing = "-"
		}
		row := []any{f.Key, f.Title, fmt.Sprintf("+%d", f.Bonus), missing}
		if showPatterns {
			row = append(row, strings.Join(f.Patterns, "\n"))
		}
		frameworks.Row(row...)
	}

	fmt.Fprintf(w, "Taxonomy version %s, base score %d\n\nRisk categories:\n%s\n\nCompliance frameworks:\n%s\n",
		tax.Version, tax.BaseScore, risks.String(), frameworks.String())
	return nil
}
