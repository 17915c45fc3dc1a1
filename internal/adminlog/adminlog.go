// Package adminlog records every administrative action in an append-only
// log and derives rollup statistics from the full log body. Logging is
// best-effort: it must never block the operation it is recording.
package adminlog

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redcreates/qms/internal/domain"
	"github.com/redcreates/qms/internal/store"
)

// TableName is the logical name of the admin log table.
const TableName = "Admin Log"

const (
	colTimestamp = iota
	colActor
	colAction
	colSubjectID
	colDetails
	colStatus
	columnCount
)

// timeLayout renders log timestamps.
const timeLayout = "01/02/2006 15:04:05"

// Header is the log table header in column order.
func Header() []string {
	return []string{
		"📅 Timestamp",
		"👤 Admin (Who did it)",
		"🎯 Action (What was done)",
		"🔑 Question ID (Which question)",
		"📝 Details (Description of changes/actions)",
		"🚦 Status",
	}
}

// actionEmojis decorate rendered actions; unknown kinds fall back to a
// generic marker rather than failing.
var actionEmojis = map[domain.ActionKind]string{
	domain.ActionEdit:     "✏️",
	domain.ActionRemove:   "🗑️",
	domain.ActionRestore:  "♻️",
	domain.ActionOverride: "⚡",
	domain.ActionError:    "❌",
	domain.ActionClear:    "🔄",
}

const genericMarker = "📝"

// Log is the admin log over a tabular store. The actor identity is fixed at
// construction and used for attribution only.
type Log struct {
	tab   store.Tabular
	actor string
	log   *slog.Logger
	now   func() time.Time
}

// New ensures the log table exists and returns the log. Unlike appends, a
// failure to create the table itself is reported.
func New(tab store.Tabular, actor string, log *slog.Logger) (*Log, error) {
	if err := tab.CreateTable(TableName, Header()); err != nil {
		return nil, fmt.Errorf("init %s: %w", TableName, err)
	}
	return &Log{tab: tab, actor: actor, log: log, now: time.Now}, nil
}

// Append records one action. It always succeeds from the caller's point of
// view: a store failure is logged at debug level and swallowed.
func (l *Log) Append(kind domain.ActionKind, subjectID, details string) {
	emoji, ok := actionEmojis[kind]
	if !ok {
		emoji = genericMarker
	}

	row := make([]string, columnCount)
	row[colTimestamp] = l.now().Format(timeLayout)
	row[colActor] = l.actor
	row[colAction] = emoji + " " + string(kind)
	row[colSubjectID] = subjectID
	row[colDetails] = details
	row[colStatus] = "Active"

	if err := l.tab.AppendRow(TableName, row); err != nil {
		l.log.Debug("admin log append failed", "action", kind, "error", err)
		return
	}

	// The rollup is recomputed from the whole log on every append. Full
	// rescans keep it exactly consistent with the log contents at the event
	// volumes of manual administration.
	if snap, err := l.Rollup(); err == nil {
		l.log.Debug("rollup updated",
			"today", snap.TodayCount,
			"week", snap.WeekCount,
			"admins", snap.DistinctAdmins,
		)
	}
}

// Entries returns the full log body in append order.
func (l *Log) Entries() ([]domain.LogEntry, error) {
	rows, err := l.tab.ReadAll(TableName)
	if err != nil {
		return nil, fmt.Errorf("read admin log: %w", err)
	}
	out := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		ts, _ := time.ParseInLocation(timeLayout, row[colTimestamp], time.Local)
		out = append(out, domain.LogEntry{
			Timestamp: ts,
			Actor:     row[colActor],
			Action:    domain.ActionKind(actionName(row[colAction])),
			SubjectID: row[colSubjectID],
			Details:   row[colDetails],
			Status:    row[colStatus],
		})
	}
	return out, nil
}

// Rollup recomputes the aggregate figures from the full log body.
func (l *Log) Rollup() (domain.RollupSnapshot, error) {
	rows, err := l.tab.ReadAll(TableName)
	if err != nil {
		return domain.RollupSnapshot{}, fmt.Errorf("read admin log: %w", err)
	}

	now := l.now()
	weekAgo := now.Add(-7 * 24 * time.Hour)

	snap := domain.RollupSnapshot{ActionHistogram: make(map[string]int)}
	admins := make(map[string]bool)

	for _, row := range rows {
		ts, err := time.ParseInLocation(timeLayout, row[colTimestamp], time.Local)
		if err == nil {
			if sameDay(ts, now) {
				snap.TodayCount++
			}
			if !ts.Before(weekAgo) {
				snap.WeekCount++
			}
		}
		snap.ActionHistogram[actionName(row[colAction])]++
		admins[row[colActor]] = true
	}

	snap.DistinctAdmins = len(admins)
	return snap, nil
}

// DashboardLines renders the rollup the way the summary dashboard displays
// it, one line per figure. Histogram entries are listed alphabetically for
// stable output.
func DashboardLines(snap domain.RollupSnapshot) []string {
	names := make([]string, 0, len(snap.ActionHistogram))
	for name := range snap.ActionHistogram {
		names = append(names, name)
	}
	sort.Strings(names)

	actions := make([]string, 0, len(names))
	for _, name := range names {
		actions = append(actions, fmt.Sprintf("%s(%d)", name, snap.ActionHistogram[name]))
	}
	return []string{
		fmt.Sprintf("📅 Today's Activities: %d", snap.TodayCount),
		fmt.Sprintf("📊 This Week: %d", snap.WeekCount),
		fmt.Sprintf("🎯 Actions: %s", strings.Join(actions, ", ")),
		fmt.Sprintf("👤 Active Admins: %d", snap.DistinctAdmins),
	}
}

// actionName strips the emoji decoration from a rendered action cell.
func actionName(rendered string) string {
	parts := strings.SplitN(rendered, " ", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return rendered
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
