package record

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		data     string
		wantType ContentType
		wantTag  string
	}{
		{"plain text", FormatText, "hello world", TypeText, "string"},
		{"https link", FormatText, "https://example.com/a", TypeLink, "link"},
		{"http link", FormatText, "http://localhost:8080/x", TypeLink, "link"},
		{"ftp link", FormatText, "ftp://files.example.org/pub", TypeLink, "link"},
		{"bare word is not a link", FormatText, "example", TypeText, "string"},
		{"scheme without host", FormatText, "https://", TypeText, "string"},
		{"host without dot", FormatText, "https://intranet/page", TypeText, "string"},
		{"link with spaces", FormatText, "https://example.com/a b", TypeText, "string"},
		{"short hex color", FormatText, "#fff", TypeColor, "color"},
		{"long hex color", FormatText, "#1a2b3c", TypeColor, "color"},
		{"hex color with alpha", FormatText, "#1a2b3c80", TypeColor, "color"},
		{"invalid hex color", FormatText, "#1a2b3", TypeText, "string"},
		{"not a color", FormatText, "1a2b3c", TypeText, "string"},
		{"rtf", FormatRTF, `{\rtf1 hello}`, TypeRichText, "rich"},
		{"html", FormatHTML, "<b>hello</b>", TypeRichText, "rich"},
		{"png image", FormatPNG, "\x89PNG", TypeImage, "image"},
		{"tiff image", FormatTIFF, "II*\x00", TypeImage, "image"},
		{"file list", FormatFileList, "/tmp/a\n/tmp/b", TypeFileList, "file"},
		{"unknown format", Format("pdf"), "%PDF", TypeUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotTag := Classify(tt.format, []byte(tt.data))
			if gotType != tt.wantType {
				t.Errorf("Classify() type = %q, want %q", gotType, tt.wantType)
			}
			if gotTag != tt.wantTag {
				t.Errorf("Classify() tag = %q, want %q", gotTag, tt.wantTag)
			}
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	data := []byte("https://example.com/path?q=1")
	firstType, firstTag := Classify(FormatText, data)
	for i := 0; i < 10; i++ {
		gotType, gotTag := Classify(FormatText, data)
		if gotType != firstType || gotTag != firstTag {
			t.Fatalf("classification changed between calls: (%q,%q) vs (%q,%q)",
				gotType, gotTag, firstType, firstTag)
		}
	}
}

func TestHashOf(t *testing.T) {
	a := HashOf([]byte("abc"))
	b := HashOf([]byte("abc"))
	c := HashOf([]byte("abd"))

	if a != b {
		t.Errorf("hash not deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("distinct content produced equal hashes: %s", a)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}

	// Known SHA-256 of "abc"
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if a != want {
		t.Errorf("HashOf(abc) = %s, want %s", a, want)
	}
}

func TestNew(t *testing.T) {
	now := time.Unix(1700000000, 0)

	rec, err := New(FormatText, []byte("hello world"), "TextEdit", "/Applications/TextEdit.app", now)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if rec.ID != 0 {
		t.Errorf("expected zero ID before insert, got %d", rec.ID)
	}
	if rec.Type != TypeText || rec.Tag != "string" {
		t.Errorf("unexpected classification: %q/%q", rec.Type, rec.Tag)
	}
	if rec.ContentHash != HashOf([]byte("hello world")) {
		t.Errorf("content hash mismatch")
	}
	if rec.SearchText != "hello world" {
		t.Errorf("search text = %q", rec.SearchText)
	}
	if rec.Length != 11 {
		t.Errorf("length = %d, want 11", rec.Length)
	}
	if rec.Timestamp != now.Unix() {
		t.Errorf("timestamp = %d, want %d", rec.Timestamp, now.Unix())
	}
	if rec.Group != UnassignedGroup {
		t.Errorf("group = %d, want %d", rec.Group, UnassignedGroup)
	}
	if rec.AppName != "TextEdit" || rec.AppPath != "/Applications/TextEdit.app" {
		t.Errorf("provenance not carried: %q %q", rec.AppName, rec.AppPath)
	}
}

func TestNewRejectsWhitespaceOnlyText(t *testing.T) {
	for _, data := range []string{"", "   ", "\n\t  \r\n"} {
		_, err := New(FormatText, []byte(data), "", "", time.Now())
		if !errors.Is(err, ErrWhitespaceOnly) {
			t.Errorf("New(%q) error = %v, want ErrWhitespaceOnly", data, err)
		}
	}

	// Whitespace-only rule applies to text formats, not images.
	if _, err := New(FormatPNG, []byte{0x89, 0x50}, "", "", time.Now()); err != nil {
		t.Errorf("image capture rejected: %v", err)
	}
}

func TestNewRichTextPreviewTruncation(t *testing.T) {
	long := `{\rtf1 ` + strings.Repeat("x", 2000) + "}"
	rec, err := New(FormatRTF, []byte(long), "", "", time.Now())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if got := len([]rune(string(rec.PreviewData))); got != PreviewLimit {
		t.Errorf("preview length = %d runes, want %d", got, PreviewLimit)
	}
	if !bytes.HasPrefix(rec.RawData, []byte(`{\rtf1`)) {
		t.Errorf("raw data must keep the full payload")
	}
}

func TestPreviewBackfill(t *testing.T) {
	rec := &Record{
		Type:       TypeText,
		SearchText: "backfilled preview",
	}
	if got := string(rec.Preview()); got != "backfilled preview" {
		t.Errorf("Preview() = %q", got)
	}

	// Images without stored preview have none to backfill.
	img := &Record{Type: TypeImage}
	if img.Preview() != nil {
		t.Errorf("expected nil preview for image without PreviewData")
	}
}

func TestSearchProjectionRich(t *testing.T) {
	rec, err := New(FormatHTML, []byte("<p>alpha <b>beta</b>&nbsp;gamma</p>"), "", "", time.Now())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if rec.SearchText != "alpha beta gamma" {
		t.Errorf("html projection = %q", rec.SearchText)
	}

	rtf, err := New(FormatRTF, []byte(`{\rtf1\ansi hello rtf}`), "", "", time.Now())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if !strings.Contains(rtf.SearchText, "hello rtf") {
		t.Errorf("rtf projection = %q", rtf.SearchText)
	}
}
