// Package img implements the image document type: a directory holding one
// image per page (paper.1.jpg, paper.2.jpg, ...) with optional
// paper.N.txt files carrying the text extracted from each page.
package img

import (
	"github.com/custodia-labs/sercha-docs/internal/core/domain"
	"github.com/custodia-labs/sercha-docs/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-docs/internal/doctypes/basic"
)

// TypeName is the doctype tag of image documents.
const TypeName = "IMG"

// Extensions are the page image formats, by preference.
var Extensions = []string{"jpg", "jpeg", "png"}

// Type recognises and opens image documents.
type Type struct {
	counter driven.PageCounter
}

var _ driven.DocumentType = (*Type)(nil)

// NewType creates the image document type.
func NewType(counter driven.PageCounter) *Type {
	return &Type{counter: counter}
}

// Name returns the doctype tag.
func (t *Type) Name() string {
	return TypeName
}

// Recognize reports whether dir holds a first page image.
func (t *Type) Recognize(dir string) bool {
	return basic.FindPageFile(dir, 0, Extensions...) != ""
}

// New opens dir as an image document.
func (t *Type) New(dir, docID string) domain.Document {
	return basic.New(dir, docID, backend{}, t.counter)
}

// backend implements basic.Backend for page images.
type backend struct{}

func (backend) TypeName() string { return TypeName }

// CanEdit is true: pages are edited one image at a time.
func (backend) CanEdit() bool { return true }

// PrimaryFile is the first page image.
func (backend) PrimaryFile(dir string) string {
	if p := basic.FindPageFile(dir, 0, Extensions...); p != "" {
		return p
	}
	return basic.PageFile(dir, 0, Extensions[0])
}

func (backend) CountPages(dir string) (int, error) {
	return basic.CountPageFiles(dir, Extensions...), nil
}

// ReadPage returns the extracted text of the page, or "" when the page
// has not been through OCR.
func (backend) ReadPage(dir string, n int) (string, error) {
	text, _, err := basic.ReadTextFile(dir, n)
	return text, err
}

func (backend) PageFiles(dir string, n int) []string {
	files := []string{basic.TextFile(dir, n)}
	if p := basic.FindPageFile(dir, n, Extensions...); p != "" {
		files = append(files, p)
	}
	return files
}
