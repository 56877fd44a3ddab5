// Copyright 2026 The Locator Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventloc/locator/resolver"
	"github.com/eventloc/locator/resolver/utils"
)

// BatchResult is one output line of the batch command.
type BatchResult struct {
	Line     int                        `json:"line"`
	Location *resolver.ResolvedLocation `json:"location,omitempty"`
	Error    string                     `json:"error,omitempty"`
	Kind     string                     `json:"kind,omitempty"`
}

// BatchMetrics summarizes a batch run.
type BatchMetrics struct {
	Total    int
	Resolved int
	Failed   int
	ByTier   map[resolver.Tier]int
}

var batchOptions = struct {
	input   string
	output  string
	workers int
}{}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve JSON lines queries",
	Long: `
Reads one query per line ({"clues": [...], "user_location": "...",
"user_coordinates": {"lat": ..., "lng": ...}}) and writes one result per line
in input order.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		in, err := openInput(batchOptions.input)
		if err != nil {
			return err
		}
		defer in.Close()

		queries, err := readQueries(in)
		if err != nil {
			return err
		}

		out, err := openOutput(batchOptions.output)
		if err != nil {
			return err
		}
		defer out.Close()

		r, closer, err := newResolver(ctx, config, nil)
		if err != nil {
			return err
		}
		defer closer.Close()

		results, metrics := runBatch(ctx, r, queries, batchOptions.workers)

		w := bufio.NewWriter(out)
		enc := json.NewEncoder(w)

		for _, res := range results {
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("writing results: %w", err)
			}
		}

		if err := w.Flush(); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}

		logger.Info("batch done",
			zap.String("total", utils.FormatInt(int64(metrics.Total))),
			zap.String("resolved", utils.FormatInt(int64(metrics.Resolved))),
			zap.String("failed", utils.FormatInt(int64(metrics.Failed))),
			zap.Any("by_tier", metrics.ByTier))

		return nil
	},
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}

	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}

	return f, nil
}

// readQueries decodes one query per non blank line.
func readQueries(r io.Reader) ([]resolver.Query, error) {
	var queries []resolver.Query

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var q resolver.Query
		if err := json.Unmarshal(line, &q); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		queries = append(queries, q)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}

	return queries, nil
}

// runBatch resolves queries with at most workers concurrent resolutions.
// Results keep the order of queries.
func runBatch(ctx context.Context, r *resolver.Resolver, queries []resolver.Query, workers int) ([]BatchResult, BatchMetrics) {
	n := len(queries)

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Resolving"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]BatchResult, n)

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, workers)

	for i, q := range queries {
		wg.Add(1)

		go func(i int, q resolver.Query) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			res := BatchResult{Line: i + 1}

			loc, err := r.Resolve(ctx, q)
			if err != nil {
				res.Error, res.Kind = err.Error(), resolver.ErrorKind(err)
			} else {
				res.Location = loc
			}

			results[i] = res

			if bar != nil {
				_ = bar.Add(1)
			}
		}(i, q)
	}

	wg.Wait()

	metrics := BatchMetrics{Total: n, ByTier: make(map[resolver.Tier]int)}

	for _, res := range results {
		if res.Location == nil {
			metrics.Failed++

			continue
		}

		metrics.Resolved++
		metrics.ByTier[res.Location.Tier]++
	}

	return results, metrics
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVar(&batchOptions.input, "input", "-", "JSON lines queries file, - for stdin")
	batchCmd.Flags().StringVar(&batchOptions.output, "output", "-", "JSON lines results file, - for stdout")
	batchCmd.Flags().IntVar(&batchOptions.workers, "workers", 4, "Concurrent resolutions. Zero means the number of CPUs")
}
