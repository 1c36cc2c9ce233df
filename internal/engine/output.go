package engine

// DefaultOutputOpts is the compact default for pipeline-based tools.
var DefaultOutputOpts = OutputOpts{
	MaxAnswerChars:  3000,
	MaxSources:      8,
	IncludeSnippets: false,
}

// FormatOutput trims SmartSearchOutput to fit within the given budget.
func FormatOutput(out SmartSearchOutput, opts OutputOpts) SmartSearchOutput {
	if opts.MaxAnswerChars > 0 {
		out.Answer = TruncateRunes(out.Answer, opts.MaxAnswerChars, "...")
	}
	if !opts.IncludeSnippets {
		for i := range out.Sources {
			out.Sources[i].Snippet = ""
		}
	}
	if opts.MaxSources > 0 && len(out.Sources) > opts.MaxSources {
		out.Sources = out.Sources[:opts.MaxSources]
	}
	return out
}

// BuildSearchOutput constructs SmartSearchOutput with sources and facts.
func BuildSearchOutput(query string, llmOut *LLMStructuredOutput, results []SearchResult) SmartSearchOutput {
	output := SmartSearchOutput{
		Query:  query,
		Answer: llmOut.Answer,
		Facts:  llmOut.Facts,
	}
	for i, r := range results {
		output.Sources = append(output.Sources, SourceItem{
			Index:   i + 1,
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}
	return output
}
