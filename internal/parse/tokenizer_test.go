package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind LineKind
	}{
		{"empty", "", LineBlank},
		{"whitespace only", "   \t ", LineBlank},
		{"author header", "Lois — 3/1/2024", LineAuthorHeader},
		{"drive url", "https://drive.google.com/file/d/ABC123/view", LineScreenshotURL},
		{"jpg url", "see http://example.com/shot.jpg", LineScreenshotURL},
		{"png url", "http://example.com/shot.png", LineScreenshotURL},
		{"bare http no image hint", "visit http://example.com for info", LineUnclassified},
		{"question line", "Day 1 Question #1 What are the 4 main banking transactions?", LineQuestion},
		{"chatter", "good morning everyone", LineUnclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, ClassifyLine(tt.line).Kind)
		})
	}
}

func TestClassifyLineAuthorSplit(t *testing.T) {
	tok := ClassifyLine("Lois_Eleven — Yesterday at 4:12 PM")
	assert.Equal(t, LineAuthorHeader, tok.Kind)
	assert.Equal(t, "Lois_Eleven", tok.Author)
	assert.Equal(t, "Yesterday at 4:12 PM", tok.Date)
}

func TestClassifyLineOrderFirstMatchWins(t *testing.T) {
	// An em-dash makes the line a header even when question markers follow.
	tok := ClassifyLine("Tye — 3/2/2024 Question #1 anything")
	assert.Equal(t, LineAuthorHeader, tok.Kind)

	// An image hint beats the question marker.
	tok = ClassifyLine("Question #1 see https://drive.google.com/file/d/X/view")
	assert.Equal(t, LineScreenshotURL, tok.Kind)
}

func TestClassifyLineScreenshotCarriesURL(t *testing.T) {
	tok := ClassifyLine("  https://drive.google.com/file/d/XYZ/view  ")
	assert.Equal(t, "https://drive.google.com/file/d/XYZ/view", tok.URL)
}
