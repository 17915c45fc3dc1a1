package domain

import "time"

// Status of a question in the Parsing Results table.
type Status string

const (
	StatusActive   Status = "Active"
	StatusRemoved  Status = "Removed"
	StatusRestored Status = "Restored"
)

// Question is the principal output of a parse run. Once emitted it is
// immutable except through an explicit edit/remove/restore action.
type Question struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Context       string `json:"context,omitempty"`
	Author        string `json:"author"`
	Date          string `json:"date"`
	Day           string `json:"day"`
	Set           string `json:"set"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
	Topic         string `json:"topic"`
	TopicEmoji    string `json:"topic_emoji"`
	Type          string `json:"question_type"`
	TypeEmoji     string `json:"type_emoji"`
	Status        Status `json:"status"`
	Confidence    string `json:"parse_confidence"`
	NeedsReview   bool   `json:"needs_review"`
	IsEdited      bool   `json:"is_edited"`
}

// ImageEntry is one row of the Image Library. Exactly one entry exists per
// distinct file identity; AssociatedIDs is comma-joined in insertion order
// with duplicates suppressed.
type ImageEntry struct {
	ImageID       string `json:"image_id"`
	URL           string `json:"url"`
	Preview       string `json:"preview"`
	AssociatedIDs string `json:"used_in_questions"`
	Description   string `json:"description"`
	TopicLabel    string `json:"topic_label"`
	DateAdded     string `json:"date_added"`
}

// ActionKind identifies an admin action recorded in the log.
type ActionKind string

const (
	ActionParse    ActionKind = "Parse"
	ActionEdit     ActionKind = "Edit"
	ActionRemove   ActionKind = "Remove"
	ActionRestore  ActionKind = "Restore"
	ActionOverride ActionKind = "Override"
	ActionReset    ActionKind = "Reset"
	ActionClear    ActionKind = "Clear"
	ActionTest     ActionKind = "Test"
	ActionError    ActionKind = "Error"
)

// SubjectSystem is the subject ID for actions not tied to one question.
const SubjectSystem = "SYSTEM"

// LogEntry is one append-only row of the Admin Log.
type LogEntry struct {
	Timestamp time.Time  `json:"timestamp"`
	Actor     string     `json:"actor"`
	Action    ActionKind `json:"action"`
	SubjectID string     `json:"subject_id"`
	Details   string     `json:"details"`
	Status    string     `json:"status"`
}

// RollupSnapshot holds the aggregate figures derived from the full log body.
// It is recomputed from scratch on every append, never stored.
type RollupSnapshot struct {
	TodayCount      int            `json:"today_count"`
	WeekCount       int            `json:"week_count"`
	ActionHistogram map[string]int `json:"action_histogram"`
	DistinctAdmins  int            `json:"distinct_admins"`
}
