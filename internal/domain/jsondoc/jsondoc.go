// Package jsondoc searches an arbitrary JSON document for a substring.
package jsondoc

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"github.com/tidwall/pretty"
	"golang.org/x/text/cases"

	"github.com/kailas-cloud/corpusdash/internal/domain"
)

// Kind describes what part of the document a match was found in.
type Kind string

// Match kinds.
const (
	KindKey    Kind = "key"
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindNull   Kind = "null"
)

// rootPath addresses the whole document when it is a scalar.
const rootPath = "@this"

// Match is one key or leaf value containing the needle.
type Match struct {
	Path  string `json:"path"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Options narrow a search.
type Options struct {
	// MaxMatches caps Matches. Zero or less means no cap.
	MaxMatches int
	// PathPattern keeps only matches whose path matches the glob (* and ?).
	PathPattern string
}

// Result of a document search.
type Result struct {
	Found     bool
	Matches   []Match
	Truncated bool
	// Document is the input, pretty printed.
	Document []byte
}

// Search looks for needle, ignoring case, in the stringified document and
// in every key and leaf value. An empty needle returns the document with
// nothing found.
func Search(doc []byte, needle string, opts Options) (Result, error) {
	if !gjson.ValidBytes(doc) {
		return Result{}, fmt.Errorf("%w: document is not valid JSON", domain.ErrInvalidJSON)
	}
	res := Result{Document: pretty.Pretty(doc)}
	if needle == "" {
		return res, nil
	}

	folded := fold(needle)
	w := walker{needle: folded, opts: opts}
	w.walk("", gjson.ParseBytes(doc))

	res.Matches = w.matches
	res.Truncated = w.truncated
	res.Found = w.hits > 0 || strings.Contains(fold(string(pretty.Ugly(doc))), folded)
	return res, nil
}

type walker struct {
	needle    string
	opts      Options
	matches   []Match
	hits      int
	truncated bool
}

func (w *walker) walk(path string, v gjson.Result) {
	switch {
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			p := join(path, EscapeKey(key.Str))
			if w.contains(key.Str) {
				w.add(Match{Path: p, Kind: KindKey, Value: key.Str})
			}
			w.walk(p, value)
			return true
		})
	case v.IsArray():
		i := 0
		v.ForEach(func(_, value gjson.Result) bool {
			w.walk(join(path, fmt.Sprint(i)), value)
			i++
			return true
		})
	default:
		kind, text := leaf(v)
		if w.contains(text) {
			if path == "" {
				path = rootPath
			}
			w.add(Match{Path: path, Kind: kind, Value: text})
		}
	}
}

func (w *walker) contains(s string) bool {
	return strings.Contains(fold(s), w.needle)
}

func (w *walker) add(m Match) {
	w.hits++
	if w.opts.PathPattern != "" && !match.Match(m.Path, w.opts.PathPattern) {
		return
	}
	if w.opts.MaxMatches > 0 && len(w.matches) >= w.opts.MaxMatches {
		w.truncated = true
		return
	}
	w.matches = append(w.matches, m)
}

func leaf(v gjson.Result) (Kind, string) {
	switch v.Type {
	case gjson.String:
		return KindString, v.Str
	case gjson.Number:
		return KindNumber, v.Raw
	case gjson.True, gjson.False:
		return KindBool, v.Raw
	default:
		return KindNull, "null"
	}
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "." + elem
}

// EscapeKey escapes the characters gjson treats as path syntax so that key
// can be used as a single path component.
func EscapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`.*?|#@\!=<>%`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fold(s string) string {
	return cases.Fold().String(s)
}
