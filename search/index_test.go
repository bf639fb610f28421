package search_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/priorauth/autoauth/search"
)

func addDoc(t *testing.T, ix *search.Index, id, caption, content string) {
	t.Helper()
	err := ix.Add(context.Background(), search.Document{
		ID:         id,
		SourcePath: id,
		Caption:    caption,
		Content:    content,
	})
	if err != nil {
		t.Fatalf("Add(%s) failed: %v", id, err)
	}
}

func TestIndex_KeywordSearch(t *testing.T) {
	ix := search.NewIndex()
	addDoc(t, ix, "policies/epidiolex.md", "Epidiolex coverage policy",
		"Epidiolex (cannabidiol) is covered for Lennox-Gastaut Syndrome and Dravet Syndrome in patients two years and older.")
	addDoc(t, ix, "policies/humira.md", "Humira coverage policy",
		"Humira (adalimumab) is covered for rheumatoid arthritis after methotrexate failure.")

	got, err := ix.Search(context.Background(), "Epidiolex Lennox-Gastaut Syndrome", search.ModeKeyword)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if got[0].SourcePath != "policies/epidiolex.md" {
		t.Errorf("expected epidiolex policy first, got %q", got[0].SourcePath)
	}
	if got[0].Caption != "Epidiolex coverage policy" {
		t.Errorf("unexpected caption %q", got[0].Caption)
	}
	if got[0].ContentSnippet == "" {
		t.Error("expected a content snippet")
	}
}

func TestIndex_NoMatchReturnsEmpty(t *testing.T) {
	ix := search.NewIndex()
	addDoc(t, ix, "policies/humira.md", "Humira", "adalimumab rheumatoid arthritis")

	got, err := ix.Search(context.Background(), "zoledronic osteoporosis", search.ModeKeyword)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

// stubEmbedder maps known words onto fixed axes so cosine similarity is
// predictable in tests.
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, 2)
	lower := strings.ToLower(text)
	if strings.Contains(lower, "seizure") || strings.Contains(lower, "epilepsy") {
		vec[0] = 1
	}
	if strings.Contains(lower, "arthritis") {
		vec[1] = 1
	}
	return vec, nil
}

func TestIndex_SemanticSearch(t *testing.T) {
	ix := search.NewIndex(search.WithEmbedder(stubEmbedder{}))
	addDoc(t, ix, "policies/epidiolex.md", "", "cannabidiol for seizure disorders and epilepsy")
	addDoc(t, ix, "policies/humira.md", "", "adalimumab for arthritis")

	got, err := ix.Search(context.Background(), "treatment for epilepsy", search.ModeSemantic)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].SourcePath != "policies/epidiolex.md" {
		t.Errorf("expected only the seizure policy, got %v", got)
	}
}

func TestIndex_HybridBlendsScores(t *testing.T) {
	ix := search.NewIndex(search.WithEmbedder(stubEmbedder{}))
	addDoc(t, ix, "policies/epidiolex.md", "", "Epidiolex cannabidiol seizure epilepsy")
	addDoc(t, ix, "policies/keppra.md", "", "levetiracetam seizure epilepsy")

	got, err := ix.Search(context.Background(), "Epidiolex epilepsy", search.ModeHybrid)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("expected both seizure policies, got %v", got)
	}
	if got[0].SourcePath != "policies/epidiolex.md" {
		t.Errorf("expected keyword match ranked first in hybrid mode, got %q", got[0].SourcePath)
	}
}

func TestIndex_TopKLimit(t *testing.T) {
	ix := search.NewIndex(search.WithTopK(2))
	for _, id := range []string{"a.md", "b.md", "c.md"} {
		addDoc(t, ix, id, "", "epilepsy seizure policy coverage")
	}

	got, err := ix.Search(context.Background(), "epilepsy", search.ModeKeyword)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected topK=2 candidates, got %d", len(got))
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want search.Mode
	}{
		{"semantic", search.ModeSemantic},
		{"keyword", search.ModeKeyword},
		{"hybrid", search.ModeHybrid},
		{"", search.ModeHybrid},
		{"vector", search.ModeHybrid},
	}
	for _, tt := range tests {
		if got := search.ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "cigna")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(path, content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(sub, "epidiolex.md"), "# Epidiolex Policy\n\ncannabidiol coverage criteria")
	write(filepath.Join(dir, "notes.txt"), "general notes about prior authorization")
	write(filepath.Join(dir, "scan.pdf"), "%PDF-1.4 binary")

	ix := search.NewIndex()
	count, err := search.IndexDirectory(context.Background(), ix, dir)
	if err != nil {
		t.Fatalf("IndexDirectory failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 indexed files, got %d", count)
	}

	got, err := ix.Search(context.Background(), "cannabidiol", search.ModeKeyword)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 || got[0].SourcePath != "cigna/epidiolex.md" {
		t.Fatalf("unexpected candidates %v", got)
	}
	if got[0].Caption != "Epidiolex Policy" {
		t.Errorf("expected caption from first heading, got %q", got[0].Caption)
	}
}
