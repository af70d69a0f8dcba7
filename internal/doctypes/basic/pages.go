package basic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// pagePrefix starts the name of every per-page file: paper.1.jpg,
// paper.1.txt, and so on. Page numbers in file names start at 1.
const pagePrefix = "paper."

// PageFile returns the path of the file of page n (0-based) with the given
// extension.
func PageFile(dir string, n int, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d.%s", pagePrefix, n+1, ext))
}

// TextFile returns the path of the extracted text of page n (0-based).
func TextFile(dir string, n int) string {
	return PageFile(dir, n, "txt")
}

// ReadTextFile returns the extracted text of page n, and whether it exists.
func ReadTextFile(dir string, n int) (string, bool, error) {
	data, err := os.ReadFile(TextFile(dir, n))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// CountPageFiles counts consecutive pages, starting at page 1, that have
// a file with one of the given extensions.
func CountPageFiles(dir string, exts ...string) int {
	n := 0
	for FindPageFile(dir, n, exts...) != "" {
		n++
	}
	return n
}

// FindPageFile returns the first existing file of page n among the
// extensions, or "".
func FindPageFile(dir string, n int, exts ...string) string {
	for _, ext := range exts {
		p := PageFile(dir, n, ext)
		if exists(p) {
			return p
		}
	}
	return ""
}
