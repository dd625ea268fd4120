package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_PreferredFile(t *testing.T) {
	dir := t.TempDir()
	classified := writeTemp(t, dir, "classified.json",
		`{"A": [{"term":"fox ears","translation":"狐耳"}]}`)
	merged := writeTemp(t, dir, "merged.json",
		`{"B": [{"term":"other","translation":""}]}`)

	idx := Load(classified, merged, "", "")
	assert.Equal(t, []string{"A"}, idx.Categories())
	assert.Equal(t, 1, idx.Len())
}

func TestLoad_MergesAndPersists(t *testing.T) {
	dir := t.TempDir()
	kb := writeTemp(t, dir, "kb.json",
		`{"animal ears": [{"term":"fox_ears","translation":"fox ears"}, {"term":"cat_ears","translation":"cat ears"}]}`)
	raw := writeTemp(t, dir, "raw.json",
		`{"animal ears": [{"term":"fox_ears","translation":"DIFFERENT"}, {"term":"wolf_ears","translation":"wolf ears"}], "styles": [{"term":"watercolor","translation":"wc"}]}`)
	mergedPath := filepath.Join(dir, "merged.json")

	idx := Load(filepath.Join(dir, "missing.json"), mergedPath, kb, raw)

	// Every term from both sources once per category, earlier source wins.
	entries := idx.Entries("animal ears")
	require.Len(t, entries, 3)
	assert.Equal(t, "fox_ears", entries[0].Term)
	assert.Equal(t, "fox ears", entries[0].Translation)
	assert.Equal(t, []string{"animal ears", "styles"}, idx.Categories())

	// Persisted for the next startup, with the same content.
	require.FileExists(t, mergedPath)
	reloaded, err := loadFile(mergedPath)
	require.NoError(t, err)
	assert.Equal(t, idx.Categories(), reloaded.Categories())
	assert.Equal(t, idx.Entries("animal ears"), reloaded.Entries("animal ears"))
}

func TestLoad_ParseErrorDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	broken := writeTemp(t, dir, "broken.json", `{"A": [{"term": `)

	idx := Load(broken, "", "", "")
	assert.Empty(t, idx.Categories())
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Search("anything", 5))
}

func TestSearch_ExactBeforeSubstring(t *testing.T) {
	idx := NewIndex([]string{"A", "B"}, map[string][]Entry{
		"A": {{Term: "fox", Translation: "t1"}, {Term: "fox ears", Translation: "t2"}},
		"B": {{Term: "firefox", Translation: "t3"}},
	})

	results := idx.Search("fox", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "fox", results[0].Term)

	terms := make([]string, len(results))
	for i, m := range results {
		terms[i] = m.Term
	}
	assert.Contains(t, terms, "fox ears")
	assert.Contains(t, terms, "firefox")
}

func TestSearch_Scenario(t *testing.T) {
	idx := NewIndex([]string{"A"}, map[string][]Entry{
		"A": {{Term: "fox ears", Translation: "狐耳"}},
	})

	results := idx.Search("fox", 5)
	require.Len(t, results, 1)
	assert.Equal(t, Match{Category: "A", Term: "fox ears", Translation: "狐耳"}, results[0])

	assert.Empty(t, idx.Search("nonexistent", 5))
}

func TestSearch_DedupAndLimit(t *testing.T) {
	// The same term in two categories stays distinct; duplicates collapse.
	idx := NewIndex([]string{"A", "B"}, map[string][]Entry{
		"A": {{Term: "blue sky"}, {Term: "blue hair"}, {Term: "blue eyes"}},
		"B": {{Term: "blue sky"}},
	})

	results := idx.Search("blue", 2)
	assert.Len(t, results, 2)

	all := idx.Search("blue", 10)
	seen := make(map[[2]string]bool)
	for _, m := range all {
		key := [2]string{m.Term, m.Category}
		assert.False(t, seen[key], "duplicate result %v", key)
		seen[key] = true
	}
}

func TestSearch_QueryContainsTerm(t *testing.T) {
	idx := NewIndex([]string{"A"}, map[string][]Entry{
		"A": {{Term: "sky"}},
	})
	results := idx.Search("blue sky at dusk", 5)
	require.Len(t, results, 1)
	assert.Equal(t, "sky", results[0].Term)
}

func TestContextSample(t *testing.T) {
	byCategory := make(map[string][]Entry)
	categories := []string{"first", "second"}
	byCategory["first"] = []Entry{{Term: "a"}, {Term: "b"}}
	byCategory["second"] = []Entry{{Term: "c"}}

	idx := NewIndex(categories, byCategory)
	sample := idx.ContextSample()
	assert.Equal(t, "first: a, b\nsecond: c", sample)

	assert.Empty(t, Empty().ContextSample())
}

func TestDecodeOrdered_KeepsFileOrder(t *testing.T) {
	categories, _, err := decodeOrdered([]byte(
		`{"z": [], "a": [], "m": []}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a", "m"}, categories)
}

func TestDecodeOrdered_MissingKeysDefaultEmpty(t *testing.T) {
	_, byCategory, err := decodeOrdered([]byte(
		`{"A": [{"term":"x"}, {"translation":"only"}]}`))
	require.NoError(t, err)
	entries := byCategory["A"]
	require.Len(t, entries, 2)
	assert.Equal(t, "", entries[0].Translation)
	assert.Equal(t, "", entries[1].Term)
}
