package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var authorSplitRe = regexp.MustCompile(`[_\s]`)

// PadNumber left-pads a numeric string with zeros to the given width.
func PadNumber(num string, width int) string {
	num = strings.TrimSpace(num)
	if len(num) >= width {
		return num
	}
	return strings.Repeat("0", width-len(num)) + num
}

// QuestionID builds the composite question identifier
// {set}D{day}Q{index}{adminCode}. Day and index must already be zero-padded
// to two digits by the caller. Pure: identical inputs always yield the same
// ID, which is what makes duplicate detection meaningful.
func QuestionID(set, day, index, adminCode string) string {
	return fmt.Sprintf("%sD%sQ%s%s", set, day, index, adminCode)
}

// AdminCode resolves an author name to their admin code: the token before
// the first underscore or whitespace is looked up in codes, and unknown
// names map to fallback so that an unrecognized author never blocks parsing.
func AdminCode(author string, codes map[string]string, fallback string) string {
	base := authorSplitRe.Split(author, 2)[0]
	if code, ok := codes[base]; ok {
		return code
	}
	return fallback
}

// IsDuplicate reports whether candidate is exactly present in existing.
// Case-sensitive, no normalization; a full scan is fine at table sizes
// bounded by manual data entry.
func IsDuplicate(candidate string, existing []string) bool {
	for _, id := range existing {
		if id == candidate {
			return true
		}
	}
	return false
}
