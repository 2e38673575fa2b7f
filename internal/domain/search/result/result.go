package result

import "github.com/kailas-cloud/corpusdash/internal/domain/search/mode"

// Row is one matching sentence.
type Row struct {
	source   string
	index    int
	sentence string
}

// NewRow creates a row. index is the 1-based sentence number within the source.
func NewRow(source string, index int, sentence string) Row {
	return Row{source: source, index: index, sentence: sentence}
}

// Source returns the source name.
func (r *Row) Source() string { return r.source }

// Index returns the 1-based sentence number.
func (r *Row) Index() int { return r.index }

// Sentence returns the sentence with its part-of-speech tags.
func (r *Row) Sentence() string { return r.sentence }

// SourceCount is the per-source tally of one search.
type SourceCount struct {
	Source    string
	Sentences int
	Matches   int
}

// SourceFailure records a source that could not be searched.
type SourceFailure struct {
	Source string
	Reason string
}

// Report is the outcome of a corpus search.
type Report struct {
	Query    string
	Mode     mode.Mode
	Rows     []Row
	Counts   []SourceCount
	Failures []SourceFailure
	Warnings []string
	// Truncated is set when Rows was cut by the request limit.
	Truncated bool
}

// Total returns the number of matching sentences across all sources,
// including rows dropped by the limit.
func (r *Report) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c.Matches
	}
	return n
}

// SourceStatus describes one configured source as seen by a fetch.
type SourceStatus struct {
	Name      string
	URL       string
	Sentences int
	// Err is empty when the source was fetched.
	Err string
}
