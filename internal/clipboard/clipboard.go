// Package clipboard defines the collaborator interfaces the capture
// engine consumes: a snapshot provider for polling the OS clipboard
// and a writer for pasting content back. The engine never talks to
// OS clipboard APIs directly.
package clipboard

import "github.com/clipvault/clipvault/internal/record"

// SourceApp identifies the application that produced the current
// clipboard content, when the platform can tell.
type SourceApp struct {
	Name     string
	BundleID string
	Path     string
}

// SnapshotProvider exposes the current clipboard state. Change
// detection is counter-based: the counter advances on every external
// write, and the watcher only reads content when it moves.
type SnapshotProvider interface {
	// ChangeCount returns an opaque counter that increases whenever
	// the clipboard content changes.
	ChangeCount() int64

	// Formats lists the format identifiers the current snapshot
	// advertises, including formats outside the supported capture
	// set (for example password-manager concealed markers).
	Formats() []record.Format

	// Read returns the payload for one advertised format.
	Read(format record.Format) ([]byte, error)

	// SourceApp returns the copying application's identity, or nil
	// when unknown.
	SourceApp() *SourceApp
}

// Writer writes content back to the OS clipboard.
type Writer interface {
	Write(format record.Format, data []byte) error
}
