package docload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/unidoc/unioffice/document"
)

// ErrUnsupportedType rejects files outside the PDF/DOCX/HTML allow-set.
var ErrUnsupportedType = errors.New("unsupported file type")

var supportedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".html": {},
}

// IsSupported reports whether the filename's extension is loadable.
func IsSupported(filename string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SupportedExtensions lists the allow-set for error messages.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".html"}
}

// LoadText extracts plain text from the file, dispatching on extension.
func LoadText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return loadPDF(path)
	case ".docx":
		return loadDOCX(path)
	case ".html":
		return loadHTML(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Base(path))
	}
}

// LoadAndSplit loads the file and splits it into overlapping windows.
func LoadAndSplit(path string, size, overlap int) ([]string, error) {
	text, err := LoadText(path)
	if err != nil {
		return nil, err
	}
	return SplitText(text, size, overlap), nil
}

func loadPDF(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf failed: %w", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}

func loadDOCX(path string) (string, error) {
	doc, err := document.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx failed: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			sb.WriteString(run.Text())
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func loadHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open html failed: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("parse html failed: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return strings.TrimSpace(text), nil
}
