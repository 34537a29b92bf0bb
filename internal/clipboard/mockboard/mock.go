// Package mockboard provides a scriptable clipboard double for tests.
package mockboard

import (
	"fmt"
	"sync"

	"github.com/clipvault/clipvault/internal/clipboard"
	"github.com/clipvault/clipvault/internal/record"
)

// MockClipboard implements clipboard.SnapshotProvider and
// clipboard.Writer with settable state.
type MockClipboard struct {
	mu       sync.Mutex
	counter  int64
	payloads map[record.Format][]byte
	formats  []record.Format
	source   *clipboard.SourceApp
}

// New creates an empty MockClipboard.
func New() *MockClipboard {
	return &MockClipboard{
		payloads: make(map[record.Format][]byte),
	}
}

// ChangeCount implements SnapshotProvider.ChangeCount.
func (m *MockClipboard) ChangeCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}

// Formats implements SnapshotProvider.Formats.
func (m *MockClipboard) Formats() []record.Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]record.Format(nil), m.formats...)
}

// Read implements SnapshotProvider.Read.
func (m *MockClipboard) Read(format record.Format) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.payloads[format]
	if !ok {
		return nil, fmt.Errorf("format not available: %s", format)
	}
	return append([]byte(nil), data...), nil
}

// SourceApp implements SnapshotProvider.SourceApp.
func (m *MockClipboard) SourceApp() *clipboard.SourceApp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

// Write implements clipboard.Writer. Like a real clipboard, a write
// replaces the content and advances the change counter.
func (m *MockClipboard) Write(format record.Format, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = map[record.Format][]byte{format: append([]byte(nil), data...)}
	m.formats = []record.Format{format}
	m.counter++
	return nil
}

// SetContent simulates an external copy: it replaces the payloads,
// sets the advertised formats and advances the counter.
func (m *MockClipboard) SetContent(payloads map[record.Format][]byte, formats ...record.Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = make(map[record.Format][]byte, len(payloads))
	for f, d := range payloads {
		m.payloads[f] = append([]byte(nil), d...)
	}
	m.formats = formats
	m.counter++
}

// SetText simulates an external copy of plain text.
func (m *MockClipboard) SetText(text string) {
	m.SetContent(map[record.Format][]byte{record.FormatText: []byte(text)}, record.FormatText)
}

// AdvertiseFormats adds format identifiers to the advertised set
// without payloads (used for sensitive markers).
func (m *MockClipboard) AdvertiseFormats(formats ...record.Format) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.formats = append(m.formats, formats...)
}

// SetSourceApp sets the reported copying application.
func (m *MockClipboard) SetSourceApp(app *clipboard.SourceApp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.source = app
}
