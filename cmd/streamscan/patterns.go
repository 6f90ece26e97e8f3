package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/praetorian-inc/streamscan"
	"github.com/praetorian-inc/streamscan/pkg/pattern"
	"github.com/praetorian-inc/streamscan/pkg/types"
	"github.com/spf13/cobra"
)

var (
	patternsPath   string
	patternsFormat string
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage detection patterns",
	Long:  "Commands for listing and validating detection patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available patterns",
	Long:  "Display all available patterns with their IDs and names",
	RunE:  runPatternsList,
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the pattern catalogue",
	Long:  "Check that every pattern compiles and behaves as its examples claim",
	RunE:  runPatternsValidate,
}

func init() {
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsValidateCmd)
	patternsCmd.PersistentFlags().StringVar(&patternsPath, "patterns", "", "Path to custom patterns YAML file")
	patternsListCmd.Flags().StringVar(&patternsFormat, "format", "table", "Output format: table, json")
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	patterns, err := loadPatterns(patternsPath)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	out := cmd.OutOrStdout()
	switch patternsFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(patterns)
	case "table":
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORIES\tKEYWORDS")
		for _, p := range patterns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.ID, p.Name,
				strings.Join(p.Categories, ","),
				strings.Join(p.Keywords, ","))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format: %s", patternsFormat)
	}
}

func runPatternsValidate(cmd *cobra.Command, args []string) error {
	patterns, err := loadPatterns(patternsPath)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed, color.Bold)

	var failed []*types.Pattern
	for _, p := range patterns {
		if err := pattern.Validate(p); err != nil {
			failed = append(failed, p)
			red.Fprintf(out, "FAIL")
			fmt.Fprintf(out, "  %s: %v\n", p.ID, err)
			continue
		}
		if verbose {
			green.Fprintf(out, "ok")
			fmt.Fprintf(out, "    %s\n", p.ID)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d patterns failed validation", len(failed), len(patterns))
	}
	if !quiet {
		fmt.Fprintf(out, "%d patterns validated\n", len(patterns))
	}

	// Confirm the set also registers cleanly as a streamable catalogue.
	m, err := streamscan.New(streamscan.WithCatalogue(patterns))
	if err != nil {
		return fmt.Errorf("catalogue does not register cleanly: %w", err)
	}
	return m.Close()
}
