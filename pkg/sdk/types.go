package corpusdash

// Mode is the query evaluation strategy.
type Mode string

// Mode constants.
const (
	// ModeBoolean honours NOT > AND > OR precedence and parentheses.
	ModeBoolean Mode = "boolean"
	// ModeLegacy evaluates strictly left to right and ignores parentheses.
	ModeLegacy Mode = "legacy"
)

// Source is a named raw URL of one corpus text.
type Source struct {
	Name string
	URL  string
}

// Row is one matching sentence.
type Row struct {
	Source   string
	Index    int // 1-based sentence number within the source
	Sentence string
}

// SourceCount is the per-source tally of a search.
type SourceCount struct {
	Source    string
	Sentences int
	Matches   int
}

// SourceFailure is a source that could not be fetched.
type SourceFailure struct {
	Source string
	Reason string
}

// SearchReport is the outcome of a corpus search.
type SearchReport struct {
	Query     string
	Mode      Mode
	Rows      []Row
	Counts    []SourceCount
	Failures  []SourceFailure
	Warnings  []string
	Total     int
	Truncated bool
}

// SourceInfo describes one configured source after a fetch.
type SourceInfo struct {
	Name      string
	URL       string
	Sentences int
	Err       string // empty when the source was fetched
}

// JSONMatchKind tells whether a match is an object key or a leaf value.
type JSONMatchKind string

// JSON match kinds.
const (
	JSONKey    JSONMatchKind = "key"
	JSONString JSONMatchKind = "string"
	JSONNumber JSONMatchKind = "number"
	JSONBool   JSONMatchKind = "bool"
	JSONNull   JSONMatchKind = "null"
)

// JSONMatch is one hit inside a JSON document.
type JSONMatch struct {
	Path  string // gjson path
	Kind  JSONMatchKind
	Value string
}

// JSONResult is the outcome of a JSON search.
type JSONResult struct {
	URL       string
	Found     bool
	Matches   []JSONMatch
	Truncated bool
	Document  []byte // pretty-printed
}
