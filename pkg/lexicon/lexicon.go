package lexicon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// Entry is a single lexicon term as stored on disk.
type Entry struct {
	Term        string `json:"term"`
	Translation string `json:"translation"`
}

// Match is a search hit, carrying the category the term was found under.
type Match struct {
	Category    string
	Term        string
	Translation string
}

// Index is the in-memory knowledge base: an ordered category map plus a
// lowercased term reverse index. Built once at startup, read-only afterwards.
type Index struct {
	categories []string
	byCategory map[string][]Entry
	terms      map[string][]Match
	termOrder  []string
}

// NewIndex builds an index from already-parsed category data. Categories keep
// the given order; entries with an empty term are skipped.
func NewIndex(categories []string, byCategory map[string][]Entry) *Index {
	idx := &Index{
		categories: categories,
		byCategory: byCategory,
		terms:      make(map[string][]Match),
	}
	for _, category := range categories {
		for _, item := range byCategory[category] {
			term := strings.ToLower(strings.TrimSpace(item.Term))
			if term == "" {
				continue
			}
			if _, ok := idx.terms[term]; !ok {
				idx.termOrder = append(idx.termOrder, term)
			}
			idx.terms[term] = append(idx.terms[term], Match{
				Category:    category,
				Term:        item.Term,
				Translation: item.Translation,
			})
		}
	}
	return idx
}

// Empty returns an index with no categories and no terms.
func Empty() *Index {
	return NewIndex(nil, map[string][]Entry{})
}

// Load reads the knowledge base, preferring the classified file, then the
// merged file. If neither exists the two raw sources are merged (terms from
// the knowledge base win over the raw lexicon within a category) and the
// result is persisted to mergedPath for future startups. Any failure degrades
// to an empty index with a warning; the lexicon is an enrichment, never a
// startup requirement.
func Load(classifiedPath, mergedPath, knowledgeBasePath, rawLexiconPath string) *Index {
	for _, path := range []string{classifiedPath, mergedPath} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		idx, err := loadFile(path)
		if err != nil {
			log.Printf("Warning: failed to load lexicon %s: %v", path, err)
			return Empty()
		}
		log.Printf("Loaded lexicon %s: %d categories, %d terms", path, len(idx.categories), len(idx.terms))
		return idx
	}

	log.Println("No prepared knowledge base found, merging raw sources...")
	categories, byCategory := mergeFiles(knowledgeBasePath, rawLexiconPath)
	idx := NewIndex(categories, byCategory)
	if len(categories) > 0 {
		if err := writeOrdered(mergedPath, categories, byCategory); err != nil {
			log.Printf("Warning: failed to persist merged knowledge base: %v", err)
		} else {
			log.Printf("Created merged knowledge base: %s", mergedPath)
		}
	}
	return idx
}

func loadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	categories, byCategory, err := decodeOrdered(data)
	if err != nil {
		return nil, err
	}
	return NewIndex(categories, byCategory), nil
}

// decodeOrdered parses a category->entries JSON object while preserving the
// key order of the file. encoding/json maps would randomize the category
// order, which the directory command and ContextSample depend on.
func decodeOrdered(data []byte) ([]string, map[string][]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var categories []string
	byCategory := make(map[string][]Entry)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		category, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected category name, got %v", keyTok)
		}
		var entries []Entry
		if err := dec.Decode(&entries); err != nil {
			return nil, nil, fmt.Errorf("category %q: %w", category, err)
		}
		if _, exists := byCategory[category]; !exists {
			categories = append(categories, category)
		}
		byCategory[category] = entries
	}
	return categories, byCategory, nil
}

// mergeFiles merges the two raw sources. The knowledge base loads first; raw
// lexicon terms are appended per category only when the term is not already
// present, so the earlier source is never overridden.
func mergeFiles(knowledgeBasePath, rawLexiconPath string) ([]string, map[string][]Entry) {
	var categories []string
	byCategory := make(map[string][]Entry)

	for _, path := range []string{knowledgeBasePath, rawLexiconPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		srcCategories, srcByCategory, err := decodeOrdered(data)
		if err != nil {
			log.Printf("Warning: failed to parse %s: %v", path, err)
			continue
		}
		for _, category := range srcCategories {
			existing, ok := byCategory[category]
			if !ok {
				categories = append(categories, category)
				byCategory[category] = srcByCategory[category]
				continue
			}
			seen := make(map[string]bool, len(existing))
			for _, item := range existing {
				seen[strings.TrimSpace(item.Term)] = true
			}
			for _, item := range srcByCategory[category] {
				term := strings.TrimSpace(item.Term)
				if term == "" || seen[term] {
					continue
				}
				seen[term] = true
				existing = append(existing, item)
			}
			byCategory[category] = existing
		}
		log.Printf("Merged lexicon source: %s", path)
	}
	return categories, byCategory
}

// writeOrdered persists the merged result with categories in index order.
func writeOrdered(path string, categories []string, byCategory map[string][]Entry) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, category := range categories {
		key, err := json.Marshal(category)
		if err != nil {
			return err
		}
		entries, err := json.MarshalIndent(byCategory[category], "  ", "  ")
		if err != nil {
			return err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(entries)
		if i < len(categories)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Categories returns category names in file order.
func (idx *Index) Categories() []string {
	return idx.categories
}

// Entries returns the entry list for a category, nil when unknown.
func (idx *Index) Entries(category string) []Entry {
	return idx.byCategory[category]
}

// Len reports the number of distinct indexed terms.
func (idx *Index) Len() int {
	return len(idx.terms)
}

// Search returns up to limit matches: exact lowercase hits first, then
// substring hits in either direction in index order. Candidates are collected
// up to 2x limit before deduplication by (term, category) and truncation.
func (idx *Index) Search(query string, limit int) []Match {
	if len(idx.terms) == 0 || limit <= 0 {
		return nil
	}
	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower == "" {
		return nil
	}

	var candidates []Match
	if exact, ok := idx.terms[queryLower]; ok {
		candidates = append(candidates, exact...)
	}
	for _, term := range idx.termOrder {
		if term == queryLower {
			continue
		}
		if strings.Contains(term, queryLower) || strings.Contains(queryLower, term) {
			candidates = append(candidates, idx.terms[term]...)
			if len(candidates) >= limit*2 {
				break
			}
		}
	}

	seen := make(map[[2]string]bool, len(candidates))
	results := make([]Match, 0, limit)
	for _, m := range candidates {
		key := [2]string{m.Term, m.Category}
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, m)
		if len(results) == limit {
			break
		}
	}
	return results
}

const (
	sampleCategories = 10
	sampleTerms      = 10
)

// ContextSample renders a compact preview of the knowledge base, used to bias
// prompt generation without shipping the whole index.
func (idx *Index) ContextSample() string {
	if len(idx.categories) == 0 {
		return ""
	}
	var lines []string
	categories := idx.categories
	if len(categories) > sampleCategories {
		categories = categories[:sampleCategories]
	}
	for _, category := range categories {
		var terms []string
		for _, item := range idx.byCategory[category] {
			if item.Term == "" {
				continue
			}
			terms = append(terms, item.Term)
			if len(terms) == sampleTerms {
				break
			}
		}
		if len(terms) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", category, strings.Join(terms, ", ")))
		}
	}
	return strings.Join(lines, "\n")
}
