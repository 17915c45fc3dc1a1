package parse

import "strings"

// LineKind classifies one transcript line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineAuthorHeader
	LineScreenshotURL
	LineQuestion
	LineUnclassified
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineAuthorHeader:
		return "author_header"
	case LineScreenshotURL:
		return "screenshot_url"
	case LineQuestion:
		return "question"
	default:
		return "unclassified"
	}
}

// authorSeparator is the em-dash between author and date in chat headers.
const authorSeparator = "—"

// questionMarker introduces each embedded question on a line.
const questionMarker = "Question #"

// Token is the classification of a single line. Author and Date are set for
// author headers, URL for screenshot lines.
type Token struct {
	Kind   LineKind
	Line   string
	Author string
	Date   string
	URL    string
}

// ClassifyLine classifies one raw transcript line. The checks run in a fixed
// order and the first match wins. Stateless: author/day/screenshot state is
// maintained by the orchestrator, not here.
func ClassifyLine(raw string) Token {
	line := strings.TrimSpace(raw)

	if line == "" {
		return Token{Kind: LineBlank}
	}

	if strings.Contains(line, authorSeparator) {
		parts := strings.SplitN(line, authorSeparator, 2)
		return Token{
			Kind:   LineAuthorHeader,
			Line:   line,
			Author: strings.TrimSpace(parts[0]),
			Date:   strings.TrimSpace(parts[1]),
		}
	}

	if strings.Contains(line, "http") &&
		(strings.Contains(line, "drive.google.com") ||
			strings.Contains(line, ".jpg") ||
			strings.Contains(line, ".png")) {
		return Token{Kind: LineScreenshotURL, Line: line, URL: line}
	}

	if strings.Contains(line, questionMarker) {
		return Token{Kind: LineQuestion, Line: line}
	}

	return Token{Kind: LineUnclassified, Line: line}
}
