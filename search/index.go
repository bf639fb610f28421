package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

const defaultTopK = 5

// Document is a policy document registered with the index.
type Document struct {
	ID         string
	SourcePath string
	Caption    string
	Content    string
}

// Index is an in-memory hybrid search index over policy documents. Keyword
// scoring uses TF over tokenized content; semantic scoring uses cosine
// similarity over embeddings when an Embedder is configured. Hybrid blends
// both with equal weight. Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	docs     []indexedDoc
	embedder Embedder
	topK     int
}

type indexedDoc struct {
	doc    Document
	terms  map[string]int
	length int
	vector []float64
}

// Option configures an Index.
type Option func(*Index)

// WithEmbedder enables semantic scoring using the given embedder.
func WithEmbedder(e Embedder) Option {
	return func(ix *Index) { ix.embedder = e }
}

// WithTopK overrides the number of candidates returned per search.
func WithTopK(k int) Option {
	return func(ix *Index) {
		if k > 0 {
			ix.topK = k
		}
	}
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) *Index {
	ix := &Index{topK: defaultTopK}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Add registers a document with the index, computing its term frequencies and,
// when an embedder is configured, its embedding vector.
func (ix *Index) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document %q has no ID", doc.SourcePath)
	}

	entry := indexedDoc{doc: doc, terms: termFrequencies(doc.Content)}
	for _, n := range entry.terms {
		entry.length += n
	}

	if ix.embedder != nil {
		vec, err := ix.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("failed to embed document %q: %w", doc.ID, err)
		}
		entry.vector = vec
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs = append(ix.docs, entry)
	return nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Search scores all documents against the query under the given mode and
// returns the top candidates in descending score order. Documents with zero
// relevance are omitted.
func (ix *Index) Search(ctx context.Context, query string, mode Mode) ([]Candidate, error) {
	var queryVec []float64
	if ix.embedder != nil && mode != ModeKeyword {
		vec, err := ix.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to embed query: %w", err)
		}
		queryVec = vec
	}
	queryTerms := termFrequencies(query)

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	candidates := make([]Candidate, 0, len(ix.docs))
	for _, entry := range ix.docs {
		var score float64
		switch mode {
		case ModeKeyword:
			score = keywordScore(queryTerms, entry)
		case ModeSemantic:
			score = cosine(queryVec, entry.vector)
			if queryVec == nil {
				// No embedder configured; fall back to keyword relevance.
				score = keywordScore(queryTerms, entry)
			}
		default:
			score = 0.5*keywordScore(queryTerms, entry) + 0.5*cosine(queryVec, entry.vector)
			if queryVec == nil {
				score = keywordScore(queryTerms, entry)
			}
		}
		if score <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:             entry.doc.ID,
			SourcePath:     entry.doc.SourcePath,
			ContentSnippet: snippet(entry.doc.Content, 240),
			Caption:        entry.doc.Caption,
			Score:          score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > ix.topK {
		candidates = candidates[:ix.topK]
	}
	return candidates, nil
}

func termFrequencies(text string) map[string]int {
	terms := make(map[string]int)
	for _, tok := range tokenize(text) {
		terms[tok]++
	}
	return terms
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// keywordScore is the fraction of distinct query terms present in the
// document, weighted by in-document frequency dampened logarithmically.
func keywordScore(queryTerms map[string]int, entry indexedDoc) float64 {
	if len(queryTerms) == 0 || entry.length == 0 {
		return 0
	}
	var matched float64
	for term := range queryTerms {
		if n := entry.terms[term]; n > 0 {
			matched += 1 + math.Log1p(float64(n))
		}
	}
	return matched / float64(len(queryTerms))
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func snippet(content string, limit int) string {
	content = strings.TrimSpace(content)
	if len(content) <= limit {
		return content
	}
	cut := content[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
