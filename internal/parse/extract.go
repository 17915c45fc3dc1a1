package parse

import (
	"regexp"
	"strings"
)

// State is the mutable scan state threaded through a parse run. It is owned
// exclusively by the run that created it and discarded at end of run.
type State struct {
	Author            string
	Date              string
	Day               string // two-digit, sticky until the next "Day N" marker
	Set               string
	PendingScreenshot string
}

// Candidate is one question extracted from a question-bearing line, before
// ID generation and classification.
type Candidate struct {
	Index         int // 1-based within the line, resets per line
	Text          string
	Context       string
	ScreenshotURL string
	HasImage      bool
	IsEdited      bool
}

var (
	dayMarkerRe    = regexp.MustCompile(`(?i)day\s+(\d+)`)
	numberPrefixRe = regexp.MustCompile(`^(\d+:?\s*)`)
	editedMarkerRe = regexp.MustCompile(`\s*\(edited\)\s*$`)
	driveLinkRe    = regexp.MustCompile(`https?://drive\.google\.com/\S+`)
	questionWordRe = regexp.MustCompile(`(?i)^(what|how|why|when|where)\b`)
)

// attachedFraming marks a context clause preceding the real question.
const attachedFraming = "for the attached"

// Extract splits a question-bearing line into its embedded questions.
// A "Day N" marker anywhere on the line updates state.Day before splitting;
// a malformed marker leaves it unchanged. A line with no question markers
// yields no candidates without error.
func Extract(line string, state *State) []Candidate {
	if m := dayMarkerRe.FindStringSubmatch(line); m != nil {
		state.Day = PadNumber(m[1], 2)
	}

	segments := strings.Split(line, questionMarker)
	if len(segments) < 2 {
		return nil
	}

	inlineURL := driveLinkRe.FindString(line)

	candidates := make([]Candidate, 0, len(segments)-1)
	for i, segment := range segments[1:] {
		text := strings.TrimSpace(segment)
		text = numberPrefixRe.ReplaceAllString(text, "")
		text = strings.TrimSpace(text)

		c := Candidate{Index: i + 1}

		if editedMarkerRe.MatchString(text) {
			text = editedMarkerRe.ReplaceAllString(text, "")
			c.IsEdited = true
		}

		c.Context, c.Text = splitContext(text)

		// A URL inline on the question line wins over nothing; attached-
		// context phrasing is itself evidence of an image even without one.
		c.ScreenshotURL = driveLinkRe.FindString(c.Text)
		if c.ScreenshotURL == "" {
			c.ScreenshotURL = inlineURL
		}
		if c.ScreenshotURL != "" || c.Context != "" {
			c.HasImage = true
		}
		if c.ScreenshotURL != "" {
			c.Text = strings.TrimSpace(strings.Replace(c.Text, c.ScreenshotURL, "", 1))
		}

		if !strings.HasSuffix(c.Text, "?") {
			c.Text += "?"
		}

		candidates = append(candidates, c)
	}

	return candidates
}

// splitContext separates an attached-context clause from the question proper.
// When the text begins with "for the attached" framing, the split point is
// the last comma immediately preceding a question word; with no such anchor
// it falls back to the first comma, and with no comma at all the whole
// clause is the question. The fallback split is preserved exactly even where
// it misreads oddly punctuated input.
func splitContext(text string) (context, question string) {
	if !strings.HasPrefix(strings.ToLower(text), attachedFraming) {
		return "", text
	}

	parts := strings.Split(text, ",")
	if len(parts) == 1 {
		return "", text
	}

	split := -1
	for i := 1; i < len(parts); i++ {
		if questionWordRe.MatchString(strings.TrimSpace(parts[i])) {
			split = i
		}
	}
	if split == -1 {
		split = 1
	}

	context = strings.TrimSpace(strings.Join(parts[:split], ","))
	question = strings.TrimSpace(strings.Join(parts[split:], ","))
	return context, question
}
