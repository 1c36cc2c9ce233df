package engine

import (
	"context"
	"fmt"
	"strings"
)

// SearchQuery defines one fan-out search call.
type SearchQuery struct {
	Query string
	Kind  string // SearchTavily, SearchTavilyQuick or SearchSearXNGKind
}

// PipelineOpts configures the reusable search pipeline.
type PipelineOpts struct {
	Queries      []SearchQuery  // parallel search queries
	Instruction  string         // LLM instruction (ignored in raw mode)
	Mode         string         // "summary" (default) or "raw"
	Depth        string         // "fast" (snippets only), "" default, "deep" (more sources + rich prompt)
	MaxPerDomain int            // DedupByDomain limit (0 = 2)
	ContentLimit int            // max chars per page (0 = MaxContentChars)
	MinScore     float64        // FilterByScore threshold (0 = no filter)
	MinKeep      int            // FilterByScore min keep
	ExtraResults []SearchResult // pre-fetched results merged before dedup
}

// RunSearchPipeline executes the search→merge→dedup→fetch→summarize pipeline.
func RunSearchPipeline(ctx context.Context, query string, opts PipelineOpts) (out SmartSearchOutput, err error) {
	_ = TrackOperation(ctx, "pipeline:"+query, func(ctx context.Context) error {
		out, err = runSearchPipeline(ctx, query, opts)
		return err
	})
	return
}

func runSearchPipeline(ctx context.Context, query string, opts PipelineOpts) (SmartSearchOutput, error) {
	if len(opts.Queries) == 0 {
		opts.Queries = []SearchQuery{{Query: query}}
	}
	contentLimit := opts.ContentLimit
	if contentLimit == 0 {
		contentLimit = cfg.MaxContentChars
	}
	maxDomain := opts.MaxPerDomain
	if maxDomain == 0 {
		maxDomain = 2
	}
	maxFetchURLs := cfg.MaxFetchURLs
	if opts.Depth == "deep" {
		maxDomain = max(maxDomain, 3)
		maxFetchURLs = maxFetchURLs * 3 / 2
	}

	tasks := make([]Task[[]SearchResult], len(opts.Queries))
	for i, sq := range opts.Queries {
		tasks[i] = Task[[]SearchResult]{
			Name: sq.Query,
			Run: func(ctx context.Context) ([]SearchResult, error) {
				return WebSearch(ctx, sq.Query, sq.Kind, 10)
			},
		}
	}
	outcomes, _ := RunParallel(ctx, tasks, ParallelOpts{
		Workers:        len(tasks),
		TaskTimeout:    cfg.Parallel.TaskTimeout,
		CollectTimeout: cfg.Parallel.CollectTimeout,
	})

	var merged []SearchResult
	var lastErr error
	for _, o := range outcomes {
		if o.Success {
			merged = append(merged, o.Value...)
		} else {
			lastErr = o.Err
		}
	}
	merged = append(merged, opts.ExtraResults...)

	if len(merged) == 0 {
		if lastErr != nil {
			return SmartSearchOutput{}, fmt.Errorf("search failed: %w", lastErr)
		}
		return SmartSearchOutput{Query: query, Answer: "No search results found."}, nil
	}

	if opts.MinScore > 0 {
		minKeep := opts.MinKeep
		if minKeep == 0 {
			minKeep = 3
		}
		merged = FilterByScore(merged, opts.MinScore, minKeep)
	}

	top := DedupByDomain(DedupByURL(merged), maxDomain)
	if len(top) > maxFetchURLs {
		top = top[:maxFetchURLs]
	}

	contents := map[string]string{}
	if opts.Depth != "fast" {
		contents = FetchContentsParallel(ctx, top, nil)
	}

	if opts.Mode == "raw" {
		return buildRawOutput(query, top, contents, contentLimit), nil
	}

	var llmOut *LLMStructuredOutput
	var err error
	if opts.Depth == "deep" {
		llmOut, err = summarizeDeep(ctx, query, opts.Instruction, contentLimit, top, contents)
	} else {
		llmOut, err = SummarizeWithInstruction(ctx, query, opts.Instruction, contentLimit, top, contents)
	}
	if err != nil {
		return SmartSearchOutput{}, fmt.Errorf("LLM summarization failed: %w", err)
	}
	return BuildSearchOutput(query, llmOut, top), nil
}

func summarizeDeep(ctx context.Context, query, instruction string, contentLimit int, results []SearchResult, contents map[string]string) (*LLMStructuredOutput, error) {
	if instruction == "" {
		instruction = defaultInstruction
	}
	sources := BuildSourcesText(results, contents, contentLimit)
	prompt := fmt.Sprintf(promptDeep, currentDate(), instruction, query, sources)
	out, err := CallLLMJSON[LLMStructuredOutput](ctx, prompt, CallOpts{MaxTokens: max(cfg.LLMMaxTokens, 6000)})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// buildRawOutput constructs output for raw mode: clean content without LLM.
func buildRawOutput(query string, results []SearchResult, contents map[string]string, limit int) SmartSearchOutput {
	var sb strings.Builder
	var sources []SourceItem

	fmt.Fprintf(&sb, "Found %d results for: %s\n\n", len(results), query)
	for i, r := range results {
		content := contents[r.URL]
		if content == "" {
			content = r.Content
		}
		content = TruncateRunes(content, limit, "...")

		sources = append(sources, SourceItem{
			Index:   i + 1,
			Title:   r.Title,
			URL:     r.URL,
			Snippet: content,
		})
		fmt.Fprintf(&sb, "### [%d] %s\nSource: %s\n\n%s\n\n---\n\n", i+1, r.Title, r.URL, content)
	}

	return SmartSearchOutput{
		Query:   query,
		Answer:  sb.String(),
		Sources: sources,
	}
}
