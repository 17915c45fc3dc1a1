// Package qbank is the Parsing Results repository: it owns the row layout
// of the results table and every read or mutation the core performs on
// emitted questions.
package qbank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redcreates/qms/internal/domain"
	"github.com/redcreates/qms/internal/store"
)

// TableName is the logical name of the results table.
const TableName = "Parsing Results"

// Column indices. The first fifteen are load-bearing for compatibility;
// IsEdited and Context are trailing additions.
const (
	colQuestionID = iota
	colDate
	colAuthor
	colQuestionText
	colAnswerText
	colScreenshotURL
	colTopicEmoji
	colTopic
	colTypeEmoji
	colQuestionType
	colStatus
	colParseConfidence
	colNeedsReview
	colSet
	colDay
	colIsEdited
	colContext
	columnCount
)

// Header is the results table header in column order.
func Header() []string {
	return []string{
		"Question ID", "Date", "Author", "Question Text", "Answer Text",
		"Screenshots", "Topic Emoji", "Topic", "Type Emoji", "Question Type",
		"Status", "Parse Confidence", "Needs Review", "Set", "Day",
		"Is Edited", "Context",
	}
}

// ErrNotFound is returned when a question ID is not in the table.
var ErrNotFound = errors.New("question not found")

// Bank is the question repository over a tabular store.
type Bank struct {
	tab store.Tabular
}

// New ensures the results table exists and returns the repository.
func New(tab store.Tabular) (*Bank, error) {
	if err := tab.CreateTable(TableName, Header()); err != nil {
		return nil, fmt.Errorf("init %s: %w", TableName, err)
	}
	return &Bank{tab: tab}, nil
}

// Append emits one question as a new row.
func (b *Bank) Append(q domain.Question) error {
	if err := b.tab.AppendRow(TableName, toRow(q)); err != nil {
		return fmt.Errorf("append question %s: %w", q.ID, err)
	}
	return nil
}

// ExistingIDs returns every question ID currently in the table.
func (b *Bank) ExistingIDs() ([]string, error) {
	rows, err := b.tab.ReadAll(TableName)
	if err != nil {
		return nil, fmt.Errorf("read question ids: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row[colQuestionID])
	}
	return ids, nil
}

// ExistingTexts returns every question text currently in the table, for the
// advisory similarity check.
func (b *Bank) ExistingTexts() ([]string, error) {
	rows, err := b.tab.ReadAll(TableName)
	if err != nil {
		return nil, fmt.Errorf("read question texts: %w", err)
	}
	texts := make([]string, 0, len(rows))
	for _, row := range rows {
		texts = append(texts, row[colQuestionText])
	}
	return texts, nil
}

// List returns every question in table order.
func (b *Bank) List() ([]domain.Question, error) {
	rows, err := b.tab.ReadAll(TableName)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Pending returns the questions flagged for review.
func (b *Bank) Pending() ([]domain.Question, error) {
	all, err := b.List()
	if err != nil {
		return nil, err
	}
	var out []domain.Question
	for _, q := range all {
		if q.NeedsReview {
			out = append(out, q)
		}
	}
	return out, nil
}

// Get returns the question with the given ID, or ErrNotFound.
func (b *Bank) Get(id string) (domain.Question, error) {
	rows, err := b.tab.ReadAll(TableName)
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question %s: %w", id, err)
	}
	for _, row := range rows {
		if row[colQuestionID] == id {
			return fromRow(row), nil
		}
	}
	return domain.Question{}, fmt.Errorf("get question %s: %w", id, ErrNotFound)
}

// Update applies mutate to the stored question with the given ID and writes
// the row back in place. The ID itself cannot be changed.
func (b *Bank) Update(id string, mutate func(*domain.Question)) (domain.Question, error) {
	rows, err := b.tab.ReadAll(TableName)
	if err != nil {
		return domain.Question{}, fmt.Errorf("update question %s: %w", id, err)
	}
	for i, row := range rows {
		if row[colQuestionID] != id {
			continue
		}
		q := fromRow(row)
		mutate(&q)
		q.ID = id
		if err := b.tab.WriteRow(TableName, i, toRow(q)); err != nil {
			return domain.Question{}, fmt.Errorf("update question %s: %w", id, err)
		}
		return q, nil
	}
	return domain.Question{}, fmt.Errorf("update question %s: %w", id, ErrNotFound)
}

// Clear removes every question. Used by reset; the Admin Log is untouched.
func (b *Bank) Clear() error {
	if err := b.tab.ClearTable(TableName); err != nil {
		return fmt.Errorf("clear %s: %w", TableName, err)
	}
	return nil
}

func toRow(q domain.Question) []string {
	row := make([]string, columnCount)
	row[colQuestionID] = q.ID
	row[colDate] = q.Date
	row[colAuthor] = q.Author
	row[colQuestionText] = q.Text
	row[colAnswerText] = ""
	row[colScreenshotURL] = q.ScreenshotURL
	row[colTopicEmoji] = q.TopicEmoji
	row[colTopic] = q.Topic
	row[colTypeEmoji] = q.TypeEmoji
	row[colQuestionType] = q.Type
	row[colStatus] = string(q.Status)
	row[colParseConfidence] = q.Confidence
	row[colNeedsReview] = yesNo(q.NeedsReview)
	row[colSet] = q.Set
	row[colDay] = "Day " + q.Day
	row[colIsEdited] = yesNo(q.IsEdited)
	row[colContext] = q.Context
	return row
}

func fromRow(row []string) domain.Question {
	return domain.Question{
		ID:            row[colQuestionID],
		Date:          row[colDate],
		Author:        row[colAuthor],
		Text:          row[colQuestionText],
		ScreenshotURL: row[colScreenshotURL],
		TopicEmoji:    row[colTopicEmoji],
		Topic:         row[colTopic],
		TypeEmoji:     row[colTypeEmoji],
		Type:          row[colQuestionType],
		Status:        domain.Status(row[colStatus]),
		Confidence:    row[colParseConfidence],
		NeedsReview:   row[colNeedsReview] == "Yes",
		Set:           row[colSet],
		Day:           strings.TrimPrefix(row[colDay], "Day "),
		IsEdited:      row[colIsEdited] == "Yes",
		Context:       row[colContext],
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
