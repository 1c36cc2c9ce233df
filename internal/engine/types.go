package engine

// --- Core search types ---

type MarketSearchInput struct {
	Query     string `json:"query" jsonschema:"Market research question or topic"`
	Language  string `json:"language,omitempty" jsonschema:"Language code (default: all)"`
	TimeRange string `json:"time_range,omitempty" jsonschema:"Time filter: day, month, year"`
	Depth     string `json:"depth,omitempty" jsonschema:"Search depth: fast (snippets only), deep (more sources). Default: balanced"`
	Mode      string `json:"mode,omitempty" jsonschema:"summary (default) or raw"`
}

// --- Output types (JSON responses) ---

type SourceItem struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// FactItem is a single verified fact with explicit source indices.
type FactItem struct {
	Point   string `json:"point"`   // complete sentence, no markdown
	Sources []int  `json:"sources"` // 1-based indices into Sources array
}

type SmartSearchOutput struct {
	Query   string       `json:"query"`
	Answer  string       `json:"answer"` // 2-3 sentence plain text summary, no markdown
	Facts   []FactItem   `json:"facts"`
	Sources []SourceItem `json:"sources"`
}

// --- Output formatting ---

// OutputOpts controls the size and shape of SmartSearchOutput.
type OutputOpts struct {
	MaxAnswerChars  int  // truncate LLM answer (0 = no limit)
	MaxSources      int  // max sources in output (0 = all)
	IncludeSnippets bool // include snippet text in sources
}

// --- Internal types ---

// SearchResult is a normalised hit from any search backend.
type SearchResult struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
	Source  string  `json:"source,omitempty"` // tavily, searxng, ddg
}

type searxngResponse struct {
	Results []SearchResult `json:"results"`
}
