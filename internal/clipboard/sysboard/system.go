// Package sysboard implements the clipboard collaborator interfaces
// over golang.design/x/clipboard. The library exposes text and image
// payloads but no native change counter, so the provider derives one
// by hashing the current content on each poll; semantics toward the
// watcher are identical to a platform counter.
package sysboard

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	clip "github.com/clipvault/clipvault/internal/clipboard"
	"github.com/clipvault/clipvault/internal/record"
)

// SystemClipboard implements clipboard.SnapshotProvider and
// clipboard.Writer for the host OS clipboard.
type SystemClipboard struct {
	mu       sync.Mutex
	counter  int64
	lastHash string
}

// New initializes the OS clipboard and returns a SystemClipboard.
func New() (*SystemClipboard, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	return &SystemClipboard{}, nil
}

// ChangeCount returns a counter that advances whenever the clipboard
// content hash changes between polls.
func (s *SystemClipboard) ChangeCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := record.HashOf(currentPayload())
	if hash != s.lastHash {
		s.lastHash = hash
		s.counter++
	}
	return s.counter
}

// currentPayload concatenates whatever the clipboard currently holds,
// for change-hash purposes only.
func currentPayload() []byte {
	if text := clipboard.Read(clipboard.FmtText); len(text) > 0 {
		return text
	}
	return clipboard.Read(clipboard.FmtImage)
}

// Formats lists the formats the current snapshot offers.
func (s *SystemClipboard) Formats() []record.Format {
	var formats []record.Format
	if len(clipboard.Read(clipboard.FmtText)) > 0 {
		formats = append(formats, record.FormatText)
	}
	if len(clipboard.Read(clipboard.FmtImage)) > 0 {
		formats = append(formats, record.FormatPNG)
	}
	return formats
}

// Read returns the payload for one format.
func (s *SystemClipboard) Read(format record.Format) ([]byte, error) {
	switch format {
	case record.FormatText:
		data := clipboard.Read(clipboard.FmtText)
		if len(data) == 0 {
			return nil, fmt.Errorf("no text content available")
		}
		return data, nil
	case record.FormatPNG:
		data := clipboard.Read(clipboard.FmtImage)
		if len(data) == 0 {
			return nil, fmt.Errorf("no image content available")
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// SourceApp returns nil: the library exposes no provenance. The
// watcher treats unknown sources as capturable.
func (s *SystemClipboard) SourceApp() *clip.SourceApp {
	return nil
}

// Write writes content to the OS clipboard.
func (s *SystemClipboard) Write(format record.Format, data []byte) error {
	switch format {
	case record.FormatText:
		clipboard.Write(clipboard.FmtText, data)
	case record.FormatPNG, record.FormatTIFF:
		clipboard.Write(clipboard.FmtImage, data)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}
