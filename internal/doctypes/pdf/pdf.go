// Package pdf implements the PDF document type: a directory holding
// doc.pdf, optionally with paper.N.txt files carrying the extracted text
// of each page.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/doctypes/basic"
	"github.com/custodia-labs/sercha-docs/internal/logger"
)

// TypeName is the doctype tag of PDF documents.
const TypeName = "PDF"

// FileName is the PDF file inside the document directory.
const FileName = "doc.pdf"

// Type recognises and opens PDF documents.
type Type struct {
	counter driven.PageCounter
}

var _ driven.DocumentType = (*Type)(nil)

// NewType creates the PDF document type.
func NewType(counter driven.PageCounter) *Type {
	return &Type{counter: counter}
}

// Name returns the doctype tag.
func (t *Type) Name() string {
	return TypeName
}

// Recognize reports whether dir holds doc.pdf.
func (t *Type) Recognize(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && info.Mode().IsRegular()
}

// New opens dir as a PDF document.
func (t *Type) New(dir, docID string) domain.Document {
	return basic.New(dir, docID, backend{}, t.counter)
}

// backend implements basic.Backend for PDF files.
type backend struct{}

func (backend) TypeName() string { return TypeName }

// CanEdit is false: the text comes from the PDF and is not edited page by page.
func (backend) CanEdit() bool { return false }

func (backend) PrimaryFile(dir string) string {
	return filepath.Join(dir, FileName)
}

// CountPages reads the page count from the PDF. An unreadable PDF falls
// back to the number of extracted text files.
func (backend) CountPages(dir string) (int, error) {
	n, err := withReader(filepath.Join(dir, FileName), func(r *pdf.Reader) int {
		return r.NumPage()
	})
	if err != nil {
		if texts := basic.CountPageFiles(dir, "txt"); texts > 0 {
			logger.Warn("%v, using %d extracted pages", err, texts)
			return texts, nil
		}
		return 0, err
	}
	return n, nil
}

// ReadPage prefers the extracted text file of the page and falls back to
// the text found in the PDF content stream.
func (backend) ReadPage(dir string, n int) (string, error) {
	text, ok, err := basic.ReadTextFile(dir, n)
	if err != nil {
		return "", err
	}
	if ok {
		return text, nil
	}
	return withReader(filepath.Join(dir, FileName), func(r *pdf.Reader) string {
		return pageText(r.Page(n + 1))
	})
}

func (backend) PageFiles(dir string, n int) []string {
	return []string{basic.TextFile(dir, n)}
}

// withReader opens the PDF at path and runs fn on it. The parser panics
// on malformed files; panics are turned into errors.
func withReader[T any](path string, fn func(*pdf.Reader) T) (result T, err error) {
	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return result, fmt.Errorf("opening pdf: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing pdf %s: %v", path, r)
		}
	}()

	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return result, fmt.Errorf("parsing pdf %s: %w", path, err)
	}
	return fn(r), nil
}

// pageText concatenates the text runs of a page, starting a new line
// whenever the baseline moves.
func pageText(p pdf.Page) string {
	if p.V.IsNull() {
		return ""
	}
	var sb strings.Builder
	var lastY float64
	for i, t := range p.Content().Text {
		if i > 0 && t.Y != lastY {
			sb.WriteByte('\n')
		}
		sb.WriteString(t.S)
		lastY = t.Y
	}
	return sb.String()
}
