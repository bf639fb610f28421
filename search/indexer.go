package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// indexableExtensions are the policy document formats the directory indexer
// reads. PDF extraction happens upstream; the index consumes extracted text.
var indexableExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// IndexDirectory walks a policy directory tree and registers every indexable
// file with the index. The file path relative to root becomes the document ID
// and source path; the first non-empty line becomes the caption.
func IndexDirectory(ctx context.Context, ix *Index, root string) (int, error) {
	var count int
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !indexableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read policy file %q: %w", path, err)
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		doc := Document{
			ID:         filepath.ToSlash(rel),
			SourcePath: filepath.ToSlash(rel),
			Caption:    firstLine(string(content)),
			Content:    string(content),
		}
		if err := ix.Add(ctx, doc); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}

func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			return line
		}
	}
	return ""
}
