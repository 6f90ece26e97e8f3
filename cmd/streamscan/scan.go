package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/praetorian-inc/streamscan"
	"github.com/praetorian-inc/streamscan/pkg/prefilter"
	"github.com/praetorian-inc/streamscan/pkg/store"
	"github.com/praetorian-inc/streamscan/pkg/types"
	"github.com/spf13/cobra"
)

var (
	scanPatternsPath string
	scanChunkSize    int
	scanOutputPath   string
	scanOutputFormat string
	scanPrefilter    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Scan a file or stdin for pattern matches",
	Long: `Stream a file (or stdin, with "-") through the pattern catalogue in
chunks, reporting every match with its absolute byte offset.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanPatternsPath, "patterns", "", "Path to custom patterns YAML file")
	scanCmd.Flags().IntVar(&scanChunkSize, "chunk-size", streamscan.DefaultChunkSize, "Read size per chunk (bytes)")
	scanCmd.Flags().StringVar(&scanOutputPath, "output", "", "SQLite file or postgres:// DSN to persist matches (omit to report only)")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: json, human")
	scanCmd.Flags().BoolVar(&scanPrefilter, "prefilter", false, "Keyword-prefilter the catalogue before streaming (regular files only)")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]

	patterns, err := loadPatterns(scanPatternsPath)
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	// The prefilter needs the whole content for its keyword pass, so it
	// only applies to regular files; stdin stays fully streaming.
	if scanPrefilter && target != "-" {
		patterns, err = prefilterPatterns(target, patterns)
		if err != nil {
			return fmt.Errorf("prefiltering patterns: %w", err)
		}
	}

	m, err := streamscan.New(streamscan.WithCatalogue(patterns))
	if err != nil {
		return fmt.Errorf("creating matcher: %w", err)
	}
	defer m.Close()

	var matches []types.MatchResult
	if err := m.Subscribe(func(match streamscan.Match) {
		matches = append(matches, match)
	}); err != nil {
		return fmt.Errorf("subscribing collector: %w", err)
	}

	var r io.Reader
	var size int64
	if target == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(target)
		if err != nil {
			return fmt.Errorf("opening target: %w", err)
		}
		defer f.Close()
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		r = f
	}

	if err := m.SubmitReader(r, scanChunkSize); err != nil {
		return fmt.Errorf("scanning %s: %w", target, err)
	}
	if err := m.Flush(); err != nil {
		return fmt.Errorf("flushing stream: %w", err)
	}

	if scanOutputPath != "" {
		if err := persistMatches(target, size, matches); err != nil {
			return fmt.Errorf("persisting matches: %w", err)
		}
	}

	return reportMatches(cmd.OutOrStdout(), target, matches)
}

func loadPatterns(path string) ([]*types.Pattern, error) {
	if path != "" {
		return streamscan.LoadPatternsFromFile(path)
	}
	return streamscan.LoadBuiltinPatterns()
}

func prefilterPatterns(target string, patterns []*types.Pattern) ([]*types.Pattern, error) {
	content, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}

	pf := prefilter.New(patterns)
	selected := pf.Filter(content)
	if verbose {
		fmt.Fprintf(os.Stderr, "prefilter selected %d of %d patterns\n", len(selected), len(patterns))
	}
	return selected, nil
}

func persistMatches(source string, size int64, matches []types.MatchResult) error {
	s, err := store.New(store.Config{Path: scanOutputPath})
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.AddSource(source, size); err != nil {
		return err
	}
	for _, m := range matches {
		if err := s.AddMatch(source, m); err != nil {
			return err
		}
	}
	return nil
}

func reportMatches(out io.Writer, source string, matches []types.MatchResult) error {
	if scanOutputFormat == "json" {
		records := make([]store.Record, 0, len(matches))
		for _, m := range matches {
			records = append(records, store.Record{Source: source, Match: m})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if quiet {
		return nil
	}

	if len(matches) == 0 {
		fmt.Fprintf(out, "%s: no matches\n", source)
		return nil
	}

	red := color.New(color.FgRed, color.Bold)
	for _, m := range matches {
		red.Fprintf(out, "%s", m.PatternID)
		fmt.Fprintf(out, "  offset=%d length=%d\n", m.Start, m.Length)
	}
	fmt.Fprintf(out, "%d match(es) in %s\n", len(matches), source)
	return nil
}
