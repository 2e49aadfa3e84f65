// Package loader reads source documents for ingestion.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"askdoc/internal/domain"
)

// Extensions lists the file types Load understands.
var Extensions = []string{".txt", ".md", ".pdf"}

// Loader resolves paths (files, directories or glob patterns) into documents.
type Loader struct {
	log *zap.Logger
}

func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{log: logger.Named("loader")}
}

// Load returns one document per supported file, in lexical path order.
// Unsupported files are skipped. Files that resolve to no text are skipped
// with a warning.
func (l *Loader) Load(paths []string) ([]domain.Document, error) {
	files, err := l.resolve(paths)
	if err != nil {
		return nil, err
	}
	var docs []domain.Document
	for _, f := range files {
		content, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		if strings.TrimSpace(content) == "" {
			l.log.Warn("document has no text", zap.String("path", f))
			continue
		}
		docs = append(docs, domain.Document{ID: hashString(f), Path: f, Content: content})
	}
	l.log.Info("documents loaded", zap.Int("documents", len(docs)), zap.Int("files", len(files)))
	return docs, nil
}

func (l *Loader) resolve(paths []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if !supported(p) {
			l.log.Debug("skipping unsupported file", zap.String("path", p))
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", m, err)
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", m, err)
			}
		}
	}
	slices.Sort(files)
	return files, nil
}

func supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

func readFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return readPDF(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readPDF extracts plain text page by page. Pages that fail to decode are skipped.
func readPDF(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
