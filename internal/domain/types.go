package domain

// SectionOther is the section assigned to knowledge-base files whose name
// carries no section token.
const SectionOther = "기타"

// Document is a single knowledge-base source file loaded for ingestion.
type Document struct {
	Name     string
	Category string
	Section  string
	Content  string
}

// Chunk is an overlapping window of a document's text, the unit of
// embedding and retrieval. ID is derived from (Source, Index, Text) so
// re-ingesting unchanged content upserts instead of duplicating.
type Chunk struct {
	ID       string
	Source   string
	Category string
	Section  string
	Index    int
	Text     string
}

// RetrievalHit is one scored chunk returned by a vector search.
type RetrievalHit struct {
	Text   string
	Source string
	Score  float64
}

// Filter restricts a vector search by chunk metadata. Category is always
// required; an empty Section means no section constraint.
type Filter struct {
	Category string
	Section  string
}

// EmotionScores maps emotion labels to percentages summing to ~100.
type EmotionScores map[string]float64

// Top returns the highest-scoring label and its percentage.
func (s EmotionScores) Top() (string, float64) {
	var label string
	best := -1.0
	for l, v := range s {
		if v > best || (v == best && l < label) {
			label, best = l, v
		}
	}
	return label, best
}

// Event is a free-text life event logged against a conversation.
type Event struct {
	ChatID int64
	Text   string
	Type   string
}

// ReportChannel is one place to report an incident.
type ReportChannel struct {
	Name        string `json:"name"`
	ChannelType string `json:"channel_type"`
	Value       string `json:"value"`
	Note        string `json:"note"`
}

// Citation is a source reference attached to generated advice.
type Citation struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Advice is the structured output of the generation stage. All list
// fields are non-nil even on the fallback path; Raw carries the
// unparseable model output for diagnostics and is otherwise empty.
type Advice struct {
	Category         string          `json:"category"`
	Section          string          `json:"section"`
	ImmediateActions []string        `json:"immediate_actions"`
	NextSteps        []string        `json:"next_steps"`
	PreventionTips   []string        `json:"prevention_tips"`
	WhereToReport    []ReportChannel `json:"where_to_report"`
	SourceCitations  []Citation      `json:"source_citations"`
	Disclaimer       string          `json:"disclaimer"`
	Raw              string          `json:"raw,omitempty"`
}
