// Package transcripts keeps the newest-first list of server transcriptions
// shown by the TUI and renders it to lines.
package transcripts

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexrolguin/voicebox/internal/api"
	"github.com/alexrolguin/voicebox/internal/ui"
)

// Placeholder is the text of the item shown while the list is empty.
const Placeholder = "No transcriptions yet. Record something!"

const (
	serverLayout  = "20060102_150405"
	displayLayout = "2006-01-02 15:04:05"
)

// Entry is one rendered transcription.
type Entry struct {
	ID          int
	Label       string
	Timestamp   string
	Text        string
	Placeholder bool
}

// List holds entries newest first. The zero value is an empty list.
type List struct {
	entries []Entry
}

// NewList returns an empty list.
func NewList() *List {
	return &List{}
}

// Prepend inserts rec above every existing entry.
func (l *List) Prepend(rec api.TranscriptionRecord) {
	e := Entry{
		ID:        rec.ID,
		Label:     fmt.Sprintf("Recording #%d", rec.ID),
		Timestamp: FormatTimestamp(rec.Timestamp),
		Text:      rec.Transcription,
	}
	l.entries = append([]Entry{e}, l.entries...)
}

// LoadBatch adds server history, which arrives oldest first. The result is
// the order the same records would have if each had been prepended as it
// was created: the newest ends up on top.
func (l *List) LoadBatch(recs []api.TranscriptionRecord) {
	for _, rec := range recs {
		l.Prepend(rec)
	}
}

// Len returns the number of transcriptions, not counting the placeholder.
func (l *List) Len() int { return len(l.entries) }

// Entries returns the transcriptions, newest first.
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Items returns what is displayed: the entries, or the single placeholder
// item when there are none.
func (l *List) Items() []Entry {
	if len(l.entries) == 0 {
		return []Entry{{Text: Placeholder, Placeholder: true}}
	}
	return l.Entries()
}

// Lines renders every item into display lines no wider than width.
func (l *List) Lines(width int) []string {
	textWidth := max(10, width-4)

	var lines []string
	for i, item := range l.Items() {
		if item.Placeholder {
			lines = append(lines, ui.DimStyle.Render("  "+item.Text))
			continue
		}
		if i > 0 {
			lines = append(lines, "")
		}
		header := ui.EntryLabelStyle.Render(item.Label)
		if item.Timestamp != "" {
			header += "  " + ui.TimestampStyle.Render(item.Timestamp)
		}
		lines = append(lines, "  "+header)
		for _, wl := range ui.Wrap(item.Text, textWidth) {
			lines = append(lines, "    "+ui.EntryTextStyle.Render(wl))
		}
	}
	return lines
}

// FormatTimestamp turns "YYYYMMDD_HHMMSS" into "YYYY-MM-DD HH:MM:SS".
// Anything else is returned unchanged.
func FormatTimestamp(raw string) string {
	t, err := ParseTimestamp(raw)
	if err != nil {
		return raw
	}
	return t.Format(displayLayout)
}

// ParseTimestamp parses a server timestamp.
func ParseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(serverLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
