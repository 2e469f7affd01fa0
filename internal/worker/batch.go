package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/groundcheck/groundcheck/internal/model"
)

// ResourceLLM is the limiter key shared by every pipeline run in a batch.
// One run makes several generator calls, so the per-run budget is the
// coarse unit the limiter meters.
const ResourceLLM = "llm"

// Runner processes one query end to end
type Runner interface {
	Run(ctx context.Context, query model.Query) (*model.PipelineResult, error)
}

// QueryJob runs one query through the pipeline behind the rate limiter
type QueryJob struct {
	Query   model.Query
	Runner  Runner
	Limiter *Limiter
}

// Execute implements Job
func (j *QueryJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, ResourceLLM); err != nil {
			return &QueryResult{Query: j.Query, Error: err}
		}
	}

	result, err := j.Runner.Run(ctx, j.Query)
	if err != nil {
		return &QueryResult{Query: j.Query, Error: err}
	}
	return &QueryResult{Query: j.Query, Result: result}
}

// QueryResult is the outcome of one batched query
type QueryResult struct {
	Query  model.Query
	Result *model.PipelineResult
	Error  error
}

// GetError implements Result
func (r *QueryResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many queries concurrently through one pipeline
type BatchProcessor struct {
	runner  Runner
	limiter *Limiter
	workers int
}

// NewBatchProcessor creates a batch processor using cfg's worker count and
// rate budget
func NewBatchProcessor(runner Runner, cfg model.ConcurrencyConfig) *BatchProcessor {
	return &BatchProcessor{
		runner:  runner,
		limiter: NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		workers: cfg.Workers,
	}
}

// ProcessQueries runs the queries concurrently and returns one result per
// query. Result order follows completion, not submission.
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []model.Query) []*QueryResult {
	if len(queries) == 0 {
		return []*QueryResult{}
	}

	pool := NewPool(b.workers)
	pool.Start()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	// Submit from a goroutine so the caller drains results while jobs are
	// still being queued. Submitting and draining on one goroutine
	// deadlocks once the batch outgrows the pool's channel buffers.
	go func() {
		for _, query := range queries {
			pool.Submit(&QueryJob{Query: query, Runner: b.runner, Limiter: b.limiter})
		}
		pool.Close()
	}()

	results := pool.Wait()

	queryResults := make([]*QueryResult, len(results))
	for i, result := range results {
		queryResults[i] = result.(*QueryResult)
	}
	return queryResults
}

// ProcessFile reads queries from a file (one per line) and runs them
// concurrently. Lines may carry an intent prefix, "comparison: x vs y".
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QueryResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// intentPrefixes are the recognized per-line intent markers
var intentPrefixes = []string{"fact", "comparison", "method", "opinion"}

// ReadQueriesFromFile reads one query per line, skipping blanks and #
// comments and dropping duplicates
func ReadQueriesFromFile(filePath string) ([]model.Query, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []model.Query
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		queries = append(queries, parseQueryLine(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}

// parseQueryLine splits an optional leading "intent:" marker off the query
// text
func parseQueryLine(line string) model.Query {
	if idx := strings.Index(line, ":"); idx > 0 {
		prefix := strings.ToLower(strings.TrimSpace(line[:idx]))
		for _, known := range intentPrefixes {
			if prefix == known {
				return model.NewQuery(line[idx+1:], prefix)
			}
		}
	}
	return model.NewQuery(line, "")
}
