package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/ingest"
)

var (
	ingestCorpus  string
	ingestTimeout time.Duration
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <url-or-file>...",
	Short: "Add documents to the retrieval corpus",
	Long: `Ingest downloads web pages (respecting robots.txt) or reads local text
files, splits their content into overlapping chunks, and appends the
chunks to the JSONL corpus that the local retriever searches.

Example:
  groundcheck ingest https://en.wikipedia.org/wiki/Machine_learning
  groundcheck ingest docs/*.txt --corpus ./data/corpus.jsonl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestCorpus, "corpus", "", "JSONL corpus path (default from config)")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 5*time.Minute, "overall ingest timeout")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	corpus := cfg.Retrieval.CorpusPath
	if ingestCorpus != "" {
		corpus = ingestCorpus
	}

	ing := ingest.NewIngestor(cfg.HTTP, corpus)

	total := 0
	for _, arg := range args {
		var n int
		var err error
		if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
			n, err = ing.IngestURL(ctx, arg)
		} else {
			n, err = ing.IngestFile(arg)
		}
		if err != nil {
			return fmt.Errorf("ingest %s: %w", arg, err)
		}
		fmt.Printf("%s: %d chunk(s)\n", arg, n)
		total += n
	}

	fmt.Printf("\nAppended %d chunk(s) to %s\n", total, corpus)
	return nil
}
