package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"

	"docs-agent/internal/models"
)

// LoadSnapshots reads the named snapshot files from dir in order.
// Missing files are skipped with a warning, not an error: a partially
// fetched corpus is still usable for ingestion.
func LoadSnapshots(dir string, names []string) []models.SourceDoc {
	var docs []models.SourceDoc
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Str("file", path).Msg("Missing snapshot file, skipping")
			continue
		}
		docs = append(docs, models.SourceDoc{Name: name, Text: string(data)})
	}
	return docs
}

// LoadFile extracts plain text from a local document for ingestion
// alongside the fetched snapshots. Text and markdown pass through
// unchanged so the chunker can split on their structure.
func LoadFile(path string) (models.SourceDoc, error) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return models.SourceDoc{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return models.SourceDoc{Name: name, Text: string(data)}, nil
	case ".pdf":
		text, err := extractPDF(path)
		if err != nil {
			return models.SourceDoc{}, err
		}
		return models.SourceDoc{Name: name, Text: text}, nil
	case ".docx":
		text, err := extractDOCX(path)
		if err != nil {
			return models.SourceDoc{}, err
		}
		return models.SourceDoc{Name: name, Text: text}, nil
	default:
		return models.SourceDoc{}, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func extractPDF(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf %s: %w", path, err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d of %s: %w", i, path, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}

func extractDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read docx %s: %w", path, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var text strings.Builder
	for _, paragraph := range strings.Split(content, "\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		text.WriteString(paragraph)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}
