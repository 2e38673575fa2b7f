package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	corpusdash "github.com/kailas-cloud/corpusdash/pkg/sdk"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputCSV   = "csv"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// JSON views with stable field names.

type reportView struct {
	Query     string        `json:"query"`
	Mode      string        `json:"mode"`
	Total     int           `json:"total"`
	Truncated bool          `json:"truncated"`
	Rows      []rowView     `json:"rows"`
	Counts    []countView   `json:"counts"`
	Failures  []failureView `json:"failures,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
}

type rowView struct {
	Source   string `json:"source"`
	Index    int    `json:"index"`
	Sentence string `json:"sentence"`
}

type countView struct {
	Source    string `json:"source"`
	Sentences int    `json:"sentences"`
	Matches   int    `json:"matches"`
}

type failureView struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

type sourceView struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Sentences int    `json:"sentences"`
	Error     string `json:"error,omitempty"`
}

type jsonResultView struct {
	URL       string          `json:"url"`
	Query     string          `json:"query"`
	Found     bool            `json:"found"`
	Truncated bool            `json:"truncated"`
	Matches   []matchView     `json:"matches"`
	Document  json.RawMessage `json:"document,omitempty"`
}

type matchView struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func renderReport(w io.Writer, r *corpusdash.SearchReport, format string) error {
	switch format {
	case outputJSON:
		return writeJSON(w, toReportView(r))
	case outputCSV:
		rows := make([][]string, len(r.Rows))
		for i, row := range r.Rows {
			rows[i] = []string{row.Source, strconv.Itoa(row.Index), row.Sentence}
		}
		return writeCSV(w, []string{"source", "index", "sentence"}, rows)
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d matching sentences for %q (%s)", r.Total, r.Query, r.Mode)))

	counts := newTable("Source", "Sentences", "Matches")
	for _, c := range r.Counts {
		counts.Row(c.Source, strconv.Itoa(c.Sentences), strconv.Itoa(c.Matches))
	}
	fmt.Fprintln(w, counts.Render())

	for _, f := range r.Failures {
		fmt.Fprintln(w, errStyle.Render(fmt.Sprintf("%s: %s", f.Source, f.Reason)))
	}

	if len(r.Rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No matches."))
		return nil
	}

	rows := newTable("Source", "#", "Sentence")
	for _, row := range r.Rows {
		rows.Row(row.Source, strconv.Itoa(row.Index), row.Sentence)
	}
	fmt.Fprintln(w, rows.Render())

	if r.Truncated {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Showing %d of %d. Use --limit to change.", len(r.Rows), r.Total)))
	}
	return nil
}

func toReportView(r *corpusdash.SearchReport) reportView {
	v := reportView{
		Query:     r.Query,
		Mode:      string(r.Mode),
		Total:     r.Total,
		Truncated: r.Truncated,
		Rows:      make([]rowView, len(r.Rows)),
		Counts:    make([]countView, len(r.Counts)),
		Warnings:  r.Warnings,
	}
	for i, row := range r.Rows {
		v.Rows[i] = rowView(row)
	}
	for i, c := range r.Counts {
		v.Counts[i] = countView(c)
	}
	for _, f := range r.Failures {
		v.Failures = append(v.Failures, failureView(f))
	}
	return v
}

func renderSources(w io.Writer, infos []corpusdash.SourceInfo, format string) error {
	switch format {
	case outputJSON:
		views := make([]sourceView, len(infos))
		for i, s := range infos {
			views[i] = sourceView{Name: s.Name, URL: s.URL, Sentences: s.Sentences, Error: s.Err}
		}
		return writeJSON(w, views)
	case outputCSV:
		rows := make([][]string, len(infos))
		for i, s := range infos {
			rows[i] = []string{s.Name, s.URL, strconv.Itoa(s.Sentences), s.Err}
		}
		return writeCSV(w, []string{"name", "url", "sentences", "error"}, rows)
	}

	t := newTable("Source", "Sentences", "URL")
	for _, s := range infos {
		count := strconv.Itoa(s.Sentences)
		if s.Err != "" {
			count = errStyle.Render("unavailable")
		}
		t.Row(s.Name, count, s.URL)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func renderJSONResult(w io.Writer, res *corpusdash.JSONResult, q, format string) error {
	switch format {
	case outputJSON:
		v := jsonResultView{
			URL:       res.URL,
			Query:     q,
			Found:     res.Found,
			Truncated: res.Truncated,
			Matches:   make([]matchView, len(res.Matches)),
			Document:  json.RawMessage(res.Document),
		}
		for i, m := range res.Matches {
			v.Matches[i] = matchView{Path: m.Path, Kind: string(m.Kind), Value: m.Value}
		}
		return writeJSON(w, v)
	case outputCSV:
		rows := make([][]string, len(res.Matches))
		for i, m := range res.Matches {
			rows[i] = []string{m.Path, string(m.Kind), m.Value}
		}
		return writeCSV(w, []string{"path", "kind", "value"}, rows)
	}

	if q == "" {
		_, err := w.Write(res.Document)
		return err //nolint:wrapcheck // plain stdout write
	}
	if !res.Found {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("No match for %q in %s", q, res.URL)))
		return nil
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d matches for %q in %s", len(res.Matches), q, res.URL)))
	t := newTable("Path", "Kind", "Value")
	for _, m := range res.Matches {
		t.Row(m.Path, string(m.Kind), m.Value)
	}
	fmt.Fprintln(w, t.Render())
	if res.Truncated {
		fmt.Fprintln(w, dimStyle.Render("More matches were cut off."))
	}
	return nil
}
