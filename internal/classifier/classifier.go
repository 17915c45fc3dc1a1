// Package classifier assigns a topic and a question type to question text by
// scanning ordered keyword tables. Matching is plain lower-cased substring
// containment: the first category with any matching keyword wins, so the
// table order is a priority list, not a best-match search.
package classifier

import (
	"strings"

	"github.com/redcreates/qms/internal/config"
)

// Result is one classification outcome.
type Result struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	// Matched is false when the fallback category was returned.
	Matched bool `json:"matched"`
}

// Fallback categories when no keyword matches.
var (
	fallbackTopic = Result{Name: "General", Emoji: "📝"}
	fallbackType  = Result{Name: "Short Answer", Emoji: "✍️"}
)

// Classifier holds immutable classification tables. It is safe for
// concurrent use; the tables are never mutated after construction.
type Classifier struct {
	topics []config.Category
	types  []config.Category
}

// New builds a Classifier from the given configuration.
func New(cfg config.Config) *Classifier {
	return &Classifier{topics: cfg.Topics, types: cfg.Types}
}

// Topic returns the first topic category with a keyword contained in text,
// or the General fallback. Total: never fails.
func (c *Classifier) Topic(text string) Result {
	if r, ok := match(c.topics, text); ok {
		return r
	}
	return fallbackTopic
}

// Type returns the first question-type category with a keyword contained in
// text, or the Short Answer fallback. Total: never fails.
func (c *Classifier) Type(text string) Result {
	if r, ok := match(c.types, text); ok {
		return r
	}
	return fallbackType
}

// LookupTopic resolves a topic category by its display name, for manual
// classification overrides. Case-insensitive; the fallback category resolves
// under its own name too.
func (c *Classifier) LookupTopic(name string) (Result, bool) {
	for _, cat := range c.topics {
		if strings.EqualFold(cat.Name, name) {
			return Result{Name: cat.Name, Emoji: cat.Emoji, Matched: true}, true
		}
	}
	if strings.EqualFold(fallbackTopic.Name, name) {
		return fallbackTopic, true
	}
	return Result{}, false
}

func match(categories []config.Category, text string) (Result, bool) {
	lower := strings.ToLower(text)
	for _, cat := range categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return Result{Name: cat.Name, Emoji: cat.Emoji, Matched: true}, true
			}
		}
	}
	return Result{}, false
}
