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
)

var (
	askIntent    string
	askTimeout   time.Duration
	askMaxRounds int
	askLevel     string
	askTopK      int
	askRetriever string
	askCorpus    string
	askProvider  string
	askModel     string
	askNoCache   bool
	askJSON      bool
	askTrace     bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the corpus with verification",
	Long: `Ask retrieves evidence for the question, generates an answer from it,
verifies the answer, and corrects it when the verification flags issues.

The final answer always comes with its verification verdict. Answers with
issues that survived every correction round are marked, and questions the
corpus cannot support are refused rather than guessed.

Example:
  groundcheck ask "What is the embedding dimension?"
  groundcheck ask --intent comparison "How do BERT and GPT differ?"
  groundcheck ask --llm-provider ollama --llm-model llama3 "How does chunking work?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askIntent, "intent", "fact", "query intent (fact, comparison, method, opinion)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall query timeout")
	askCmd.Flags().IntVar(&askMaxRounds, "max-rounds", 0, "max correction rounds (0 = config default)")
	askCmd.Flags().StringVar(&askLevel, "level", "", "verification level (basic, semantic, comprehensive)")
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "evidence chunks to retrieve (0 = config default)")
	askCmd.Flags().StringVar(&askRetriever, "retriever", "", "retrieval backend (local, weaviate)")
	askCmd.Flags().StringVar(&askCorpus, "corpus", "", "JSONL corpus path for the local retriever")
	askCmd.Flags().StringVar(&askProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama)")
	askCmd.Flags().StringVar(&askModel, "llm-model", "", "LLM model name")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "disable the retrieval cache")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	askCmd.Flags().BoolVar(&askTrace, "trace", false, "include the pipeline trace in the output")
}

// applyAskFlags overlays the ask flags onto the loaded configuration
func applyAskFlags(cfg *model.Config) {
	if askMaxRounds > 0 {
		cfg.Pipeline.MaxRounds = askMaxRounds
	}
	if askLevel != "" {
		cfg.Pipeline.VerificationLevel = askLevel
	}
	if askTopK > 0 {
		cfg.Retrieval.TopK = askTopK
	}
	if askRetriever != "" {
		cfg.Retrieval.Provider = askRetriever
	}
	if askCorpus != "" {
		cfg.Retrieval.CorpusPath = askCorpus
	}
	if askProvider != "" {
		cfg.LLM.Provider = askProvider
	}
	if askModel != "" {
		cfg.LLM.Model = askModel
	}
	if askNoCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.IncludeTrace = cfg.Output.IncludeTrace || askTrace
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAskFlags(cfg)
	if err := resolveAPIKey(cfg); err != nil {
		return err
	}

	controller, err := pipeline.NewController(cfg)
	if err != nil {
		return err
	}

	query := model.NewQuery(args[0], askIntent)
	if verbose {
		fmt.Fprintf(os.Stderr, "Query: %s (intent: %s)\n", query.Text, query.Intent)
	}

	result, err := controller.Run(ctx, query)
	if err != nil {
		return err
	}

	if askJSON {
		return printJSON(result, cfg.Output.IncludeTrace)
	}
	printResult(result, cfg.Output.IncludeTrace)
	return nil
}

// printJSON writes the result to stdout as indented JSON
func printJSON(result *model.PipelineResult, includeTrace bool) error {
	if !includeTrace {
		result.Trace = nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// printResult writes a human-readable result to stdout
func printResult(result *model.PipelineResult, includeTrace bool) {
	fmt.Println(result.FinalAnswer)

	if result.LastVerdict != nil {
		fmt.Printf("\nConfidence: %.2f", result.LastVerdict.Confidence)
		if len(result.Corrections) > 0 {
			fmt.Printf(" (after %d correction round(s))", len(result.Corrections))
		}
		fmt.Println()
	}

	if result.HasUnresolvedIssue && result.LastVerdict != nil {
		fmt.Println("\nUnresolved issues:")
		for _, issue := range result.LastVerdict.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}

	if includeTrace {
		fmt.Println("\nTrace:")
		for _, entry := range result.Trace {
			fmt.Printf("  %s [%s] %s\n", entry.Time.Format("15:04:05.000"), entry.State, entry.Message)
		}
	}
}
