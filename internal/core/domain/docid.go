package domain

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DocIDLayout is the time layout of a document id, "YYYYMMDD_HHMM_SS".
// Colliding ids get a "_N" suffix.
const DocIDLayout = "20060102_1504_05"

// docIDDateLayout is the date prefix of a document id.
const docIDDateLayout = "20060102"

var docIDPattern = regexp.MustCompile(`^\d{8}_\d{4}_\d{2}(_\d+)?$`)

// fallbackDocDate is used when a document id does not start with a date.
var fallbackDocDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.Local)

// FormatDocID returns the id for a document created at t.
func FormatDocID(t time.Time) string {
	return t.Format(DocIDLayout)
}

// SuffixDocID returns base with a collision suffix.
func SuffixDocID(base string, n int) string {
	return fmt.Sprintf("%s_%d", base, n)
}

// DocIDForDate returns the id a document gets when its date is set by hand.
func DocIDForDate(t time.Time) string {
	return t.Format(docIDDateLayout) + "_0000_01"
}

// ValidateDocID checks that id follows the document id layout.
func ValidateDocID(id string) error {
	if !docIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidDocID, id)
	}
	return nil
}

// DocIDDate returns the date encoded in the first 8 characters of the id,
// or 1900-01-01 when they are not a date.
func DocIDDate(id string) time.Time {
	if len(id) < len(docIDDateLayout) {
		return fallbackDocDate
	}
	t, err := time.ParseInLocation(docIDDateLayout, id[:len(docIDDateLayout)], time.Local)
	if err != nil {
		return fallbackDocDate
	}
	return t
}

// CompareDocIDs orders ids component by component, comparing numeric
// components as numbers. "20240101_1200_00_10" sorts after
// "20240101_1200_00_9".
func CompareDocIDs(a, b string) int {
	pa := strings.Split(a, "_")
	pb := strings.Split(b, "_")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		var c int
		if errA == nil && errB == nil {
			c = cmp.Compare(na, nb)
		} else {
			c = cmp.Compare(pa[i], pb[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(pa), len(pb))
}
