// Package corpus reads the scraped site corpus.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"site-rag/internal/domain"
)

// maxLineBytes bounds a single page record. Scraped pages can be large.
const maxLineBytes = 16 << 20

// ReadPages decodes one JSON page object per line. Blank lines are skipped.
func ReadPages(r io.Reader) ([]domain.Page, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var pages []domain.Page
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var p domain.Page
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("line %d: invalid page record: %w", line, err)
		}
		pages = append(pages, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return pages, nil
}

// ReadPagesFile opens path and calls ReadPages.
func ReadPagesFile(path string) ([]domain.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadPages(f)
}
