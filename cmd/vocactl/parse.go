package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kimsuncheol/image-voca-admin-website/internal/core"
	"github.com/Kimsuncheol/image-voca-admin-website/internal/sheets"
)

type parseFlags struct {
	collocation bool
	asJSON      bool
	token       string
	strict      bool
}

func newParseCmd() *cobra.Command {
	var f parseFlags
	cmd := &cobra.Command{
		Use:   "parse FILE|URL",
		Short: "Parse a vocabulary file or Google Sheets URL and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := core.Options{StrictQuotes: f.strict}
			if cmd.Flags().Changed("collocation") {
				opts.IsCollocation = core.Bool(f.collocation)
			}

			res, err := parseInput(cmd, args[0], f.token, opts)
			if err != nil {
				return err
			}
			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&f.collocation, "collocation", false, "Force collocation (true) or standard (false) records")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().StringVar(&f.token, "token", "", "Google access token; reads a URL through the Sheets values API")
	cmd.Flags().BoolVar(&f.strict, "strict-quotes", false, "Reject malformed quoting")
	return cmd
}

func parseInput(cmd *cobra.Command, input, token string, opts core.Options) (core.ParseResult, error) {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		file, err := os.Open(input)
		if err != nil {
			return core.ParseResult{}, fmt.Errorf("open %s: %w", input, err)
		}
		defer file.Close()
		return core.ParseFile(file, filepath.Base(input), opts)
	}

	client := sheets.NewClient(30*time.Second, slog.Default())
	if token != "" {
		rows, err := client.FetchValues(cmd.Context(), input, token)
		if err != nil {
			return core.ParseResult{}, err
		}
		return core.ParseRows(rows, opts), nil
	}
	text, err := client.FetchCSV(cmd.Context(), input)
	if err != nil {
		return core.ParseResult{}, err
	}
	return core.ParseString(text, opts), nil
}

func printSummary(w io.Writer, res core.ParseResult) {
	fmt.Fprintf(w, "Kind:    %s\n", res.Kind())
	switch {
	case len(res.DetectedHeaders) == 0:
		fmt.Fprintln(w, "Headers: (none)")
	case slices.Equal(res.DetectedHeaders, core.PositionalHeaders):
		fmt.Fprintln(w, "Headers: (none, positional columns)")
	default:
		fmt.Fprintf(w, "Headers: %s\n", strings.Join(res.DetectedHeaders, ", "))
	}
	fmt.Fprintf(w, "Words:   %d\n", len(res.Words))
	fmt.Fprintf(w, "Errors:  %d\n", len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
