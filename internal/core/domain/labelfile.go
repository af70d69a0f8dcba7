package domain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// storageSeparator splits a label name from its storage base in a label file.
const storageSeparator = "::"

// StorageBinding ties a document to a contiguous page range allocated
// under a label. Base is the first page of the range.
type StorageBinding struct {
	Label Label
	Base  int
}

// ParseLabelFile reads a document label file. Each line is
// "name[::base],color"; the optional base marks the storage binding.
// Blank and malformed lines are skipped.
func ParseLabelFile(r io.Reader) (LabelSet, *StorageBinding, error) {
	var (
		labels  LabelSet
		storage *StorageBinding
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, color, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		var base *int
		if n, b, found := strings.Cut(name, storageSeparator); found {
			if v, err := strconv.Atoi(strings.TrimSpace(b)); err == nil {
				name = n
				base = &v
			}
		}
		if strings.TrimSpace(name) == "" {
			continue
		}
		label := NewLabel(name, color)
		labels = labels.Add(label)
		if base != nil && storage == nil {
			storage = &StorageBinding{Label: label, Base: *base}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading label file: %w", err)
	}
	return labels, storage, nil
}

// WriteLabelFile writes labels in the format read by ParseLabelFile.
// The label matching storage, if any, carries the storage base.
func WriteLabelFile(w io.Writer, labels LabelSet, storage *StorageBinding) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		name := l.Name
		if storage != nil && storage.Label.Equal(l) {
			name += storageSeparator + strconv.Itoa(storage.Base)
		}
		if _, err := fmt.Fprintf(bw, "%s,%s\n", name, l.ColorString()); err != nil {
			return fmt.Errorf("writing label file: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing label file: %w", err)
	}
	return nil
}
