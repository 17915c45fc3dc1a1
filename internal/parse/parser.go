// Package parse turns raw chat transcripts into structured quiz questions.
// A single pass over the lines drives the tokenizer and extractor, with ID
// generation, duplicate detection, and classification applied to every
// extracted candidate before emission.
package parse

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redcreates/qms/internal/classifier"
	"github.com/redcreates/qms/internal/config"
	"github.com/redcreates/qms/internal/domain"
)

// ResultSink receives emitted questions. ExistingIDs and ExistingTexts are
// read once at the start of a run to seed duplicate and similarity checks.
type ResultSink interface {
	ExistingIDs() ([]string, error)
	ExistingTexts() ([]string, error)
	Append(q domain.Question) error
}

// ImageRegistrar records a screenshot against an emitted question.
type ImageRegistrar interface {
	Register(url, questionID string) error
}

// Summary reports the outcome of a parse run.
type Summary struct {
	RunID      string            `json:"run_id"`
	Emitted    int               `json:"emitted"`
	Duplicates int               `json:"duplicates"`
	Questions  []domain.Question `json:"questions"`
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: processed %d questions, %d duplicates skipped", s.RunID, s.Emitted, s.Duplicates)
}

// Parser orchestrates a transcript scan. Construct once and reuse; each Run
// owns its own State.
type Parser struct {
	cfg config.Config
	clf *classifier.Classifier
	log *slog.Logger
}

// New creates a Parser over the given configuration.
func New(cfg config.Config, clf *classifier.Classifier, log *slog.Logger) *Parser {
	return &Parser{cfg: cfg, clf: clf, log: log}
}

// Run parses a whole transcript, emitting every non-duplicate question to
// sink and every attached screenshot to images. A per-question write failure
// aborts the run; questions emitted before the fault are not rolled back and
// are counted in the returned Summary.
func (p *Parser) Run(transcript string, sink ResultSink, images ImageRegistrar) (Summary, error) {
	summary := Summary{RunID: uuid.New().String()[:8]}

	ids, err := sink.ExistingIDs()
	if err != nil {
		return summary, fmt.Errorf("read existing ids: %w", err)
	}
	texts, err := sink.ExistingTexts()
	if err != nil {
		return summary, fmt.Errorf("read existing texts: %w", err)
	}

	state := State{Set: p.cfg.Set}

	scanner := bufio.NewScanner(strings.NewReader(transcript))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		token := ClassifyLine(scanner.Text())

		switch token.Kind {
		case LineBlank, LineUnclassified:
			continue

		case LineAuthorHeader:
			state.Author = token.Author
			state.Date = token.Date
			p.log.Debug("author header", "author", state.Author, "date", state.Date)

		case LineScreenshotURL:
			state.PendingScreenshot = token.URL
			p.log.Debug("screenshot cached", "url", token.URL)

		case LineQuestion:
			adminCode := AdminCode(state.Author, p.cfg.AdminCodes, p.cfg.FallbackAdminCode)

			for _, c := range Extract(token.Line, &state) {
				id := QuestionID(state.Set, state.Day, PadNumber(fmt.Sprint(c.Index), 2), adminCode)

				if IsDuplicate(id, ids) {
					p.log.Debug("duplicate question dropped", "id", id)
					summary.Duplicates++
					continue
				}

				q := p.build(id, c, &state)

				if flagSimilar(q.Text, texts, p.cfg.SimilarityThreshold) {
					q.NeedsReview = true
				}

				if err := sink.Append(q); err != nil {
					return summary, fmt.Errorf("process question %s: %w", id, err)
				}
				if q.ScreenshotURL != "" && images != nil {
					if err := images.Register(q.ScreenshotURL, id); err != nil {
						return summary, fmt.Errorf("process question %s: %w", id, err)
					}
				}

				ids = append(ids, id)
				texts = append(texts, q.Text)
				summary.Emitted++
				summary.Questions = append(summary.Questions, q)
				p.log.Debug("question emitted", "id", id)
			}

			// One screenshot attaches to at most the batch of questions on
			// one line, never to later unrelated lines.
			state.PendingScreenshot = ""
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scan transcript: %w", err)
	}

	return summary, nil
}

func (p *Parser) build(id string, c Candidate, state *State) domain.Question {
	topic := p.clf.Topic(c.Text)
	qtype := p.clf.Type(c.Text)

	url := c.ScreenshotURL
	if url == "" {
		url = state.PendingScreenshot
	}

	q := domain.Question{
		ID:            id,
		Text:          c.Text,
		Context:       c.Context,
		Author:        state.Author,
		Date:          state.Date,
		Day:           state.Day,
		Set:           state.Set,
		ScreenshotURL: url,
		Topic:         topic.Name,
		TopicEmoji:    topic.Emoji,
		Type:          qtype.Name,
		TypeEmoji:     qtype.Emoji,
		Status:        domain.StatusActive,
		Confidence:    "100%",
		IsEdited:      c.IsEdited,
	}

	// A fallback topic means the keyword tables said nothing about this
	// question; keep it but flag it for a human pass.
	if !topic.Matched {
		q.Confidence = "75%"
		q.NeedsReview = true
	}

	return q
}

func flagSimilar(text string, existing []string, threshold float64) bool {
	for _, other := range existing {
		if Similarity(text, other) >= threshold {
			return true
		}
	}
	return false
}
