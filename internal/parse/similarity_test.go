package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentical(t *testing.T) {
	s := Similarity("What are the 4 main banking transactions?", "What are the 4 main banking transactions?")
	assert.Equal(t, 1.0, s)
}

func TestSimilarityDisjoint(t *testing.T) {
	s := Similarity("What is a vendor credit?", "Explain month end closing steps")
	assert.Equal(t, 0.0, s)
}

func TestSimilarityIgnoresStopWords(t *testing.T) {
	// The texts differ only in stop words.
	s := Similarity("What are banking transactions?", "How is banking transactions?")
	assert.Equal(t, 1.0, s)
}

func TestSimilarityPartialOverlap(t *testing.T) {
	s := Similarity("banking transactions reports", "banking transactions summary invoices")
	assert.InDelta(t, 0.5, s, 1e-9)
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"one two three", "three two one"},
		{"alpha", "alpha beta gamma delta"},
		{"", "something here"},
		{"a the an", "completely different words"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestSimilarityBothEmptyAfterStripping(t *testing.T) {
	// Stop-word-only inputs must score 0, not NaN.
	assert.Equal(t, 0.0, Similarity("what is the", "how are a an"))
	assert.Equal(t, 0.0, Similarity("", ""))
}
