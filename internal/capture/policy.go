package capture

import (
	"github.com/clipvault/clipvault/internal/clipboard"
	"github.com/clipvault/clipvault/internal/record"
)

// IgnoreEntry identifies an application whose copies are never
// captured. BundleID is matched first, Path is the fallback.
type IgnoreEntry struct {
	BundleID string
	Path     string
}

// Matches reports whether the entry identifies the given source app.
func (e IgnoreEntry) Matches(app *clipboard.SourceApp) bool {
	if app == nil {
		return false
	}
	if e.BundleID != "" && e.BundleID == app.BundleID {
		return true
	}
	return e.Path != "" && e.Path == app.Path
}

// IgnoreListProvider supplies the ignore list checked on every poll.
type IgnoreListProvider interface {
	Entries() []IgnoreEntry
}

// StaticIgnoreList is a fixed IgnoreListProvider.
type StaticIgnoreList []IgnoreEntry

// Entries implements IgnoreListProvider.
func (l StaticIgnoreList) Entries() []IgnoreEntry { return l }

// SensitiveFormatProvider supplies the format identifiers treated as
// secret-manager markers.
type SensitiveFormatProvider interface {
	SensitiveFormats() []record.Format
}

// DefaultSensitiveFormats are the concealed-content markers password
// managers attach to their clipboard writes.
var DefaultSensitiveFormats = []record.Format{
	"org.nspasteboard.ConcealedType",
	"org.nspasteboard.TransientType",
	"com.agilebits.onepassword",
}

// StaticSensitiveFormats is a fixed SensitiveFormatProvider.
type StaticSensitiveFormats []record.Format

// SensitiveFormats implements SensitiveFormatProvider.
func (f StaticSensitiveFormats) SensitiveFormats() []record.Format { return f }
