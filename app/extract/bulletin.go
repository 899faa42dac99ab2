package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	readability "codeberg.org/readeck/go-readability"
)

// BulletinExtractor pulls the readable body text out of a bulletin page,
// stripping navigation and boilerplate.
type BulletinExtractor struct{}

func NewBulletinExtractor() *BulletinExtractor {
	return &BulletinExtractor{}
}

func (e *BulletinExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract bulletin: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no text extracted from HTML data")
	}

	slog.Debug("Bulletin extracted successfully",
		"title", article.Title,
		"text_length", len(text))

	return text, nil
}
