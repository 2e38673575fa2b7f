package result

import "testing"

func TestNewRow(t *testing.T) {
	r := NewRow("骆驼祥子", 3, "祥子/nr 拉/v 车/n")

	if r.Source() != "骆驼祥子" {
		t.Errorf("Source() = %q", r.Source())
	}
	if r.Index() != 3 {
		t.Errorf("Index() = %d", r.Index())
	}
	if r.Sentence() != "祥子/nr 拉/v 车/n" {
		t.Errorf("Sentence() = %q", r.Sentence())
	}
}

func TestReport_Total(t *testing.T) {
	r := Report{
		Rows: []Row{NewRow("a", 1, "x")},
		Counts: []SourceCount{
			{Source: "a", Sentences: 10, Matches: 4},
			{Source: "b", Sentences: 7, Matches: 0},
			{Source: "c", Sentences: 2, Matches: 2},
		},
		Truncated: true,
	}
	if r.Total() != 6 {
		t.Errorf("Total() = %d, want 6", r.Total())
	}
}

func TestReport_TotalEmpty(t *testing.T) {
	var r Report
	if r.Total() != 0 {
		t.Errorf("Total() = %d, want 0", r.Total())
	}
}
