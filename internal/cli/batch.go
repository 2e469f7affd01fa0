package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/model"
	"github.com/groundcheck/groundcheck/internal/pipeline"
	"github.com/groundcheck/groundcheck/internal/worker"
)

var (
	batchTimeout time.Duration
	batchWorkers int
	batchRPS     float64
	batchJSON    string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Answer a file of questions concurrently",
	Long: `Batch reads one question per line (blank lines and # comments are
skipped, duplicates dropped) and runs each through the full pipeline on a
worker pool. A line may select its intent with a prefix:

  comparison: How do BERT and GPT differ?

Generator calls across all workers share one rate budget.

Example:
  groundcheck batch questions.txt
  groundcheck batch questions.txt --workers 8 --json results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "overall batch timeout")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent workers (0 = config default)")
	batchCmd.Flags().Float64Var(&batchRPS, "rps", 0, "pipeline runs per second across all workers (0 = config default)")
	batchCmd.Flags().StringVar(&batchJSON, "json", "", "write all results to this JSON file")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchWorkers > 0 {
		cfg.Concurrency.Workers = batchWorkers
	}
	if batchRPS > 0 {
		cfg.Concurrency.RequestsPerSecond = batchRPS
	}
	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	controller, err := pipeline.NewController(cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(controller, cfg.Concurrency)
	results, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return err
	}

	failed, flagged := 0, 0
	for _, r := range results {
		switch {
		case r.Error != nil:
			failed++
			fmt.Printf("ERROR  %s: %v\n", r.Query.Text, r.Error)
		case r.Result.HasUnresolvedIssue:
			flagged++
			fmt.Printf("FLAGGED  %s\n", r.Query.Text)
		default:
			fmt.Printf("OK  %s\n", r.Query.Text)
		}
	}
	fmt.Printf("\n%d queries: %d ok, %d flagged, %d failed\n",
		len(results), len(results)-flagged-failed, flagged, failed)

	if batchJSON != "" {
		if err := writeBatchJSON(batchJSON, results); err != nil {
			return err
		}
		fmt.Printf("Results written to %s\n", batchJSON)
	}

	return nil
}

// batchRecord is the JSON shape of one batched outcome
type batchRecord struct {
	Query  model.Query           `json:"query"`
	Result *model.PipelineResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func writeBatchJSON(path string, results []*worker.QueryResult) error {
	records := make([]batchRecord, len(results))
	for i, r := range results {
		records[i] = batchRecord{Query: r.Query, Result: r.Result}
		if r.Error != nil {
			records[i].Error = r.Error.Error()
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
