package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// LoadBook reads a book file and returns its plain text. Supported
// formats: .txt (read as-is) and .html/.htm (visible text extracted,
// scripts and styles skipped).
func LoadBook(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read book %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", "":
		return string(data), nil
	case ".html", ".htm":
		return extractVisibleText(string(data))
	default:
		return "", fmt.Errorf("unsupported book format %q (supported: .txt, .html)", filepath.Ext(path))
	}
}

// extractVisibleText walks the HTML tree collecting text nodes, skipping
// script, style, noscript, and iframe subtrees.
func extractVisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String(), nil
}
