package pathfilter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyExactFile(t *testing.T) {
	f := New([][]string{{"README"}})
	require.Equal(t, Inside, f.Classify([]string{"README"}))
	require.Equal(t, Outside, f.Classify([]string{"other.txt"}))
}

func TestClassifyDirectory(t *testing.T) {
	f := New([][]string{{"src"}})
	require.Equal(t, Inside, f.Classify([]string{"src"}))
	require.Equal(t, Inside, f.Classify([]string{"src", "main.go"}))
	require.Equal(t, Inside, f.Classify([]string{"src", "pkg", "deep.go"}))
}

func TestClassifyPartial(t *testing.T) {
	f := New([][]string{{"src", "main.go"}})
	require.Equal(t, Partial, f.Classify([]string{"src"}))
	require.Equal(t, Inside, f.Classify([]string{"src", "main.go"}))
	require.Equal(t, Outside, f.Classify([]string{"src", "other.go"}))
	require.Equal(t, Outside, f.Classify([]string{"docs"}))
}

func TestClassifyRoot(t *testing.T) {
	f := New([][]string{{"README"}})
	require.Equal(t, Partial, f.Classify(nil))
}

func TestFingerprintStableUnderOrderAndDuplicates(t *testing.T) {
	a := New([][]string{{"README"}, {"src"}})
	b := New([][]string{{"src"}, {"README"}, {"src"}})
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintDiffersOnDifferentPatterns(t *testing.T) {
	a := New([][]string{{"README"}})
	b := New([][]string{{"other.txt"}})
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestParsePatterns(t *testing.T) {
	src := "# comment\n\nREADME\n/src/\ndocs/guide.md\n"
	patterns, err := ParsePatterns(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"README"},
		{"src"},
		{"docs", "guide.md"},
	}, patterns)
}

func TestUnionDeduplicates(t *testing.T) {
	a := [][]string{{"README"}, {"src"}}
	b := [][]string{{"src"}, {"docs"}}
	got := Union(a, b)
	require.Equal(t, [][]string{{"README"}, {"src"}, {"docs"}}, got)
}
