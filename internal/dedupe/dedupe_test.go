package dedupe

import (
	"reflect"
	"testing"

	"github.com/contextlab/bibcheck/internal/author"
	"github.com/contextlab/bibcheck/internal/lookup"
)

func testNames() Surnamer {
	return author.NewNormalizer(lookup.New(lookup.Source{
		Prefixes: []string{"van", "der"},
		Suffixes: []string{"jr"},
	}))
}

func TestFind(t *testing.T) {
	tests := []struct {
		name       string
		ids        []string
		authors    []string
		titles     []string
		wantKeys   []string
		wantGroups [][]int
	}{
		{
			name:    "nothing shared",
			ids:     []string{"Smit20", "Doe19"},
			authors: []string{"Smith, John", "Doe, Jane"},
			titles:  []string{"A study", "Another study"},
		},
		{
			name:       "same title and authors",
			ids:        []string{"Smit20", "Doe19", "Smit20a"},
			authors:    []string{"Smith, John", "Doe, Jane", "John Smith"},
			titles:     []string{"A study", "Another study", "A study"},
			wantGroups: [][]int{{0, 2}},
		},
		{
			name:       "author order does not matter",
			ids:        []string{"SmitDoe20", "DoeSmit20"},
			authors:    []string{"Smith, John and Doe, Jane", "Doe, J and Smith, J"},
			titles:     []string{"Shared", "Shared"},
			wantGroups: [][]int{{0, 1}},
		},
		{
			name:    "same title different authors",
			ids:     []string{"Smit20", "Doe20"},
			authors: []string{"Smith, John", "Doe, Jane"},
			titles:  []string{"Shared", "Shared"},
		},
		{
			name:    "same authors different titles",
			ids:     []string{"Smit20a", "Smit20b"},
			authors: []string{"Smith, John", "Smith, John"},
			titles:  []string{"First", "Second"},
		},
		{
			name:    "titles compared exactly",
			ids:     []string{"Smit20a", "Smit20b"},
			authors: []string{"Smith, John", "Smith, John"},
			titles:  []string{"Shared", "shared"},
		},
		{
			name:       "empty titles grouped like any other",
			ids:        []string{"Smit20a", "Smit20b", "Doe20"},
			authors:    []string{"Smith, John", "Smith, John", "Doe, Jane"},
			titles:     []string{"", "", ""},
			wantGroups: [][]int{{0, 1}},
		},
		{
			name:     "duplicate keys",
			ids:      []string{"Smit20", "Doe19", "Smit20", "Doe19", "Roe18"},
			authors:  []string{"Smith, J", "Doe, J", "Smith, J", "Doe, J", "Roe, R"},
			titles:   []string{"a", "b", "c", "d", "e"},
			wantKeys: []string{"Doe19", "Smit20"},
		},
		{
			name:       "two groups ordered by first appearance",
			ids:        []string{"A", "B", "C", "D"},
			authors:    []string{"Roe, R", "Smith, J", "Smith, J", "Roe, R"},
			titles:     []string{"Y", "X", "X", "Y"},
			wantGroups: [][]int{{0, 3}, {1, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tt.ids, tt.authors, tt.titles, testNames())
			if !reflect.DeepEqual(got.DuplicateKeys, tt.wantKeys) {
				t.Errorf("DuplicateKeys = %v, want %v", got.DuplicateKeys, tt.wantKeys)
			}
			if !reflect.DeepEqual(got.Groups, tt.wantGroups) {
				t.Errorf("Groups = %v, want %v", got.Groups, tt.wantGroups)
			}
			if got.Empty() != (tt.wantKeys == nil && tt.wantGroups == nil) {
				t.Errorf("Empty() = %v", got.Empty())
			}
		})
	}
}

func TestReportDescribe(t *testing.T) {
	r := Report{Groups: [][]int{{0, 2}}}
	got := r.Describe([]string{"Smit20", "Doe19", "Smith2020"})
	if len(got) != 1 || got[0] != "[Smit20 Smith2020]" {
		t.Errorf("Describe() = %v", got)
	}
}
