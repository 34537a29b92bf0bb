package cli

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/clipvault/clipvault/internal/record"
)

// printRows writes a compact table of entries to stdout.
func printRows(rows []*record.Record) {
	if len(rows) == 0 {
		fmt.Println("No entries")
		return
	}

	for _, rec := range rows {
		ts := time.Unix(rec.Timestamp, 0).Format("2006-01-02 15:04:05")
		fmt.Printf("%6d  %-19s  %-6s  %s\n", rec.ID, ts, rec.Tag, snippet(rec))
	}
}

// snippet returns a one-line preview of the entry's content.
func snippet(rec *record.Record) string {
	switch rec.Type {
	case record.TypeImage:
		return fmt.Sprintf("[image, %d bytes]", len(rec.RawData))
	}

	text := rec.SearchText
	for i, r := range text {
		if r == '\n' || r == '\r' {
			text = text[:i] + " …"
			break
		}
	}
	if utf8.RuneCountInString(text) > 60 {
		text = string([]rune(text)[:60]) + "…"
	}
	return text
}

// formatForCopy picks the clipboard wire format for a stored record.
func formatForCopy(rec *record.Record) record.Format {
	switch rec.Type {
	case record.TypeImage:
		return record.FormatPNG
	default:
		return record.FormatText
	}
}
