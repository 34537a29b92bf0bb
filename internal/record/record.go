// Package record defines the clipboard history entry and the pure
// classification and content-addressing functions that build one.
// It has no dependencies on the storage or capture layers.
package record

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// ContentType identifies the semantic kind of a captured payload.
// Link and color are derived from text content at construction time;
// they are not independent wire formats.
type ContentType string

const (
	TypeText     ContentType = "text"
	TypeRichText ContentType = "richText"
	TypeImage    ContentType = "image"
	TypeFileList ContentType = "fileList"
	TypeLink     ContentType = "link"
	TypeColor    ContentType = "color"
	TypeUnknown  ContentType = "unknown"
)

// Format identifies a clipboard wire format as reported by the
// snapshot provider.
type Format string

const (
	FormatText     Format = "text"
	FormatRTF      Format = "rtf"
	FormatHTML     Format = "html"
	FormatPNG      Format = "png"
	FormatTIFF     Format = "tiff"
	FormatFileList Format = "file-list"
)

// SupportedFormats lists the capturable formats in registration order.
// The watcher reads the first of these the current snapshot offers.
var SupportedFormats = []Format{
	FormatText,
	FormatRTF,
	FormatHTML,
	FormatPNG,
	FormatTIFF,
	FormatFileList,
}

// PreviewLimit is the maximum number of runes stored in PreviewData.
const PreviewLimit = 250

// UnassignedGroup marks a record that belongs to no user-defined group.
// Only unassigned records are eligible for retention expiry.
const UnassignedGroup int64 = -1

// ErrWhitespaceOnly is returned by New when text content contains
// nothing but whitespace. Such captures are skipped.
var ErrWhitespaceOnly = errors.New("text content is entirely whitespace")

// Record is one captured clipboard entry as persisted by the store.
type Record struct {
	// ID is assigned by the store on insert; zero before insert.
	ID int64

	// ContentHash is the hex-encoded SHA-256 of RawData, the dedup key.
	ContentHash string

	// Type is the semantic content type derived at classification time.
	Type ContentType

	// RawData is the full payload as written to the OS clipboard.
	RawData []byte

	// PreviewData is an optional truncated payload for fast list
	// rendering. Text types backfill it lazily from SearchText.
	PreviewData []byte

	// Timestamp is the capture (or last-use) time in Unix seconds.
	// Re-pasting a record bumps it to promote the row to the front.
	Timestamp int64

	// AppPath and AppName record the copying application's provenance.
	// Both are empty when the source is unknown.
	AppPath string
	AppName string

	// SearchText is the plain-text projection used for keyword search.
	SearchText string

	// Length is the character count of SearchText.
	Length int

	// Group is a user-defined category id, UnassignedGroup by default.
	Group int64

	// Tag is the coarse persisted category used for type-facet
	// filtering: "string", "rich", "image", "file", "link" or "color".
	Tag string
}

// New builds a Record from a raw clipboard payload. It classifies the
// content, computes the dedup hash, projects the plain-text form and
// truncates the preview. Text payloads that are entirely whitespace
// return ErrWhitespaceOnly.
func New(format Format, data []byte, appName, appPath string, now time.Time) (*Record, error) {
	contentType, tag := Classify(format, data)

	searchText := searchProjection(format, data)
	if isTextual(format) && strings.TrimSpace(searchText) == "" {
		return nil, ErrWhitespaceOnly
	}

	return &Record{
		ContentHash: HashOf(data),
		Type:        contentType,
		RawData:     data,
		PreviewData: truncatePreview(data, format),
		Timestamp:   now.Unix(),
		AppPath:     appPath,
		AppName:     appName,
		SearchText:  searchText,
		Length:      utf8.RuneCountInString(searchText),
		Group:       UnassignedGroup,
		Tag:         tag,
	}, nil
}

// Preview returns the stored preview payload, backfilling it from
// SearchText for textual records that were persisted without one.
func (r *Record) Preview() []byte {
	if len(r.PreviewData) > 0 {
		return r.PreviewData
	}
	switch r.Type {
	case TypeText, TypeLink, TypeColor, TypeFileList:
		return []byte(truncateRunes(r.SearchText, PreviewLimit))
	}
	return nil
}

// isTextual reports whether a format carries a text payload that is
// subject to the whitespace-only rejection rule.
func isTextual(format Format) bool {
	return format == FormatText || format == FormatFileList
}

// searchProjection extracts the plain-text form used for keyword
// search and length accounting. Images project to the empty string.
func searchProjection(format Format, data []byte) string {
	switch format {
	case FormatText, FormatFileList:
		return string(data)
	case FormatRTF:
		return plainTextFromRTF(data)
	case FormatHTML:
		return plainTextFromHTML(data)
	default:
		return ""
	}
}

// truncatePreview keeps the first PreviewLimit rune-aligned units of a
// rich payload. Plain text stores no preview; it is backfilled from
// SearchText on read instead.
func truncatePreview(data []byte, format Format) []byte {
	switch format {
	case FormatRTF, FormatHTML:
		return []byte(truncateRunes(string(data), PreviewLimit))
	default:
		return nil
	}
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
