// Package imagelib maintains the Image Library: one row per distinct
// underlying file, with the questions that use it merged into a single
// comma-joined field. Registration is idempotent per (url, question) pair.
package imagelib

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redcreates/qms/internal/domain"
	"github.com/redcreates/qms/internal/store"
)

// TableName is the logical name of the image registry table.
const TableName = "Image Library"

const (
	colImageID = iota
	colURL
	colPreview
	colUsedIn
	colDescription
	colTopicLabel
	colDateAdded
	columnCount
)

// Header is the image table header in column order.
func Header() []string {
	return []string{"Image ID", "URL", "Preview", "Used in Questions", "Description", "Topic/Category", "Date Added"}
}

// QuestionLookup resolves a question ID to its stored details. A failed
// lookup is the one hard error in registration: an orphaned image entry is
// worse than a blocked write.
type QuestionLookup interface {
	Get(id string) (domain.Question, error)
}

// Metadata is the image-host collaborator. EnsureViewable and RenderPreview
// may fail independently; their failures degrade to an inline note on the
// preview field and never abort registration.
type Metadata interface {
	FileIdentity(url string) string
	EnsureViewable(url string) error
	RenderPreview(url string) (string, error)
}

// Library is the image registry over a tabular store.
type Library struct {
	tab       store.Tabular
	questions QuestionLookup
	meta      Metadata
	log       *slog.Logger
	now       func() time.Time
}

// New ensures the image table exists and returns the registry.
func New(tab store.Tabular, questions QuestionLookup, meta Metadata, log *slog.Logger) (*Library, error) {
	if err := tab.CreateTable(TableName, Header()); err != nil {
		return nil, fmt.Errorf("init %s: %w", TableName, err)
	}
	return &Library{tab: tab, questions: questions, meta: meta, log: log, now: time.Now}, nil
}

// Register indexes url under its file identity and associates questionID
// with it. Repeated registration of the same pair is a no-op; the same file
// under a new question merges rather than creating a second row.
func (l *Library) Register(url, questionID string) error {
	if url == "" || questionID == "" {
		l.log.Debug("image registration skipped", "url", url, "question_id", questionID)
		return nil
	}

	identity := l.meta.FileIdentity(url)

	rows, err := l.tab.ReadAll(TableName)
	if err != nil {
		return fmt.Errorf("read image library: %w", err)
	}

	for i, row := range rows {
		if l.meta.FileIdentity(row[colURL]) != identity {
			continue
		}
		return l.merge(i, row, questionID)
	}

	// New file identity: the question must exist before an image row may
	// reference it.
	q, err := l.questions.Get(questionID)
	if err != nil {
		return fmt.Errorf("register image for %s: %w", questionID, err)
	}

	row := make([]string, columnCount)
	row[colImageID] = fmt.Sprintf("IMG_%03d", len(rows)+1)
	row[colURL] = url
	row[colPreview] = l.preview(url)
	row[colUsedIn] = questionID
	row[colDescription] = describe(q)
	row[colTopicLabel] = q.TopicEmoji + " " + q.Topic
	row[colDateAdded] = l.now().Format("01/02/2006")

	if err := l.tab.AppendRow(TableName, row); err != nil {
		return fmt.Errorf("append image row: %w", err)
	}
	l.log.Debug("image registered", "image_id", row[colImageID], "question_id", questionID)
	return nil
}

// List returns every image entry in table order.
func (l *Library) List() ([]domain.ImageEntry, error) {
	rows, err := l.tab.ReadAll(TableName)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	out := make([]domain.ImageEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ImageEntry{
			ImageID:       row[colImageID],
			URL:           row[colURL],
			Preview:       row[colPreview],
			AssociatedIDs: row[colUsedIn],
			Description:   row[colDescription],
			TopicLabel:    row[colTopicLabel],
			DateAdded:     row[colDateAdded],
		})
	}
	return out, nil
}

// Clear removes every image entry. Used by reset.
func (l *Library) Clear() error {
	if err := l.tab.ClearTable(TableName); err != nil {
		return fmt.Errorf("clear %s: %w", TableName, err)
	}
	return nil
}

func (l *Library) merge(index int, row []string, questionID string) error {
	for _, id := range strings.Split(row[colUsedIn], ", ") {
		if id == questionID {
			l.log.Debug("question already associated", "image_id", row[colImageID], "question_id", questionID)
			return nil
		}
	}

	if row[colUsedIn] == "" {
		row[colUsedIn] = questionID
	} else {
		row[colUsedIn] += ", " + questionID
	}
	if err := l.tab.WriteRow(TableName, index, row); err != nil {
		return fmt.Errorf("merge question into image row: %w", err)
	}
	l.log.Debug("image association merged", "image_id", row[colImageID], "question_id", questionID)
	return nil
}

// preview resolves the preview field best-effort: a share-permission or
// rendering failure degrades to an inline note, never a failed registration.
func (l *Library) preview(url string) string {
	if err := l.meta.EnsureViewable(url); err != nil {
		l.log.Debug("share check failed", "url", url, "error", err)
		return "Preview Error: " + err.Error()
	}
	p, err := l.meta.RenderPreview(url)
	if err != nil {
		l.log.Debug("preview render failed", "url", url, "error", err)
		return "Preview Error: " + err.Error()
	}
	return p
}

func describe(q domain.Question) string {
	text := q.Text
	if len(text) > 100 {
		text = text[:100]
	}
	return fmt.Sprintf("Image for %s question: %s...", q.Topic, text)
}
