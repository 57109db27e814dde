// Package uploads tracks the files attached during one intake session.
//
// Live file content exists only in memory for the session that attached it;
// the durable side of an attachment is its descriptor, which the draft store
// persists. The split is what makes the reattachment-needed condition
// detectable after a reload.
package uploads

import (
	"io"
	"log"
	"sync"

	"appealdesk/api/internal/draft"

	"github.com/google/uuid"
)

// Incoming is a file handle as received from the client, before it has an id.
type Incoming struct {
	Name     string
	Size     int64
	MimeType string
	Content  io.ReadCloser
}

// Live is an attached file: durable descriptor plus the session-owned handle.
type Live struct {
	Descriptor draft.UploadDescriptor
	Content    io.ReadCloser
}

// Manager owns the live attachments for one session.
type Manager struct {
	mu      sync.Mutex
	entries []Live
}

func NewManager() *Manager {
	return &Manager{}
}

// AddFiles mints ids for the new handles, appends them, and returns the
// descriptor list recomputed from the live set. Recomputing (rather than
// appending to prior metadata) means stale descriptors from a previous
// session are replaced the moment the user re-attaches anything.
// A nil or empty batch changes nothing.
func (m *Manager) AddFiles(files []Incoming) []draft.UploadDescriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range files {
		mime := f.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		m.entries = append(m.entries, Live{
			Descriptor: draft.UploadDescriptor{
				ID:       uuid.NewString(),
				Name:     f.Name,
				Size:     f.Size,
				MimeType: mime,
			},
			Content: f.Content,
		})
	}
	return m.descriptorsLocked()
}

// Remove drops the entry with the given id and closes its handle. The
// returned descriptor list reflects the remaining live set; ok is false when
// the id was not present.
func (m *Manager) Remove(id string) (descriptors []draft.UploadDescriptor, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.Descriptor.ID == id {
			ok = true
			closeContent(e)
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return m.descriptorsLocked(), ok
}

// Files returns the live entries for submission, in attach order.
func (m *Manager) Files() []Live {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Live, len(m.entries))
	copy(out, m.entries)
	return out
}

// Count reports how many live handles this session holds.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset closes and drops every live handle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		closeContent(e)
	}
	m.entries = nil
}

func (m *Manager) descriptorsLocked() []draft.UploadDescriptor {
	out := make([]draft.UploadDescriptor, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Descriptor
	}
	return out
}

func closeContent(e Live) {
	if e.Content == nil {
		return
	}
	if err := e.Content.Close(); err != nil {
		log.Printf("uploads: close %s: %v", e.Descriptor.Name, err)
	}
}

// NeedsReattachment reports the condition where descriptors persisted from a
// prior session have no live content behind them.
func NeedsReattachment(meta []draft.UploadDescriptor, liveCount int) bool {
	return len(meta) > 0 && liveCount == 0
}
