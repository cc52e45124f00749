package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/neurowell/support-ai-platform/pkg/logging"
)

// LoadDirectory reads every supported knowledge-base document under dir and
// returns their plain text. PDF files are extracted page by page; .txt and
// .md files are read as-is. Unreadable files are skipped with a warning so
// one corrupt document does not block index construction.
func LoadDirectory(dir string, logger *logging.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("rag: read knowledge dir %s: %w", dir, err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		var text string
		var loadErr error
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf":
			text, loadErr = extractPDFText(path)
		case ".txt", ".md":
			var data []byte
			data, loadErr = os.ReadFile(path)
			text = string(data)
		default:
			continue
		}

		if loadErr != nil {
			logger.Warn("skipping unreadable knowledge document", "path", path, "error", loadErr)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, text)
	}

	logger.Info("knowledge documents loaded", "dir", dir, "count", len(docs))
	return docs, nil
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("rag: open pdf: %w", err)
	}
	defer f.Close()

	var fullText strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString("\n\n")
	}
	return fullText.String(), nil
}
