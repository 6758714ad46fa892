package namefilter

import (
	"strings"
	"testing"
)

func TestEmptyFilterMatchesNothing(t *testing.T) {
	f := Empty()
	if f.Search("bones:bones") {
		t.Error("empty filter should never match")
	}
}

func TestLoadPositiveAndNegative(t *testing.T) {
	src := `
# comment line

^bones:.*$
^default:chest$
!.*locked.*
`
	f, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cases := []struct {
		name string
		want bool
	}{
		{"bones:bones", true},
		{"default:chest", true},
		{"default:chest_locked", false},
		{"default:stone", false},
	}
	for _, tt := range cases {
		if got := f.Search(tt.name); got != tt.want {
			t.Errorf("Search(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestLoadSkipsBlankAndCommentLines(t *testing.T) {
	src := "\n   \n# nothing here\n"
	f, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Search("anything") {
		t.Error("filter with only comments/blanks should match nothing")
	}
}
