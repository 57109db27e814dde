package draft

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"appealdesk/api/internal/kv"
)

// Store keeps the latest in-memory draft per session and mirrors every
// mutation to the durable KV backend. Persistence is best-effort: a failed
// save is logged and swallowed, a corrupt or missing stored value falls back
// to defaults.
type Store struct {
	backend kv.Store

	mu     sync.Mutex
	drafts map[string]*Draft
}

func NewStore(backend kv.Store) *Store {
	return &Store{
		backend: backend,
		drafts:  make(map[string]*Draft),
	}
}

// Load returns the current draft for a session, reading it from the backend
// on first access. The returned value is a copy; use Mutate to change state.
func (s *Store) Load(ctx context.Context, key string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.loadLocked(ctx, key)
}

// Mutate applies fn to the latest in-memory draft under the store lock and
// persists the result. Reading through loadLocked guarantees fn always sees
// the newest snapshot, so rapid successive field changes never lose updates.
func (s *Store) Mutate(ctx context.Context, key string, fn func(*Draft)) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.loadLocked(ctx, key)
	fn(d)
	normalize(d)
	s.persistLocked(ctx, key, d)
	return *d
}

// Reset restores defaults and erases the durable copy.
func (s *Store) Reset(ctx context.Context, key string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := Defaults()
	s.drafts[key] = &fresh
	if err := s.backend.Delete(ctx, key); err != nil {
		log.Printf("draft: erase %s: %v", key, err)
	}
	return fresh
}

func (s *Store) loadLocked(ctx context.Context, key string) *Draft {
	if d, ok := s.drafts[key]; ok {
		return d
	}
	d := s.readBackend(ctx, key)
	s.drafts[key] = d
	return d
}

// readBackend merges persisted data over defaults. Unmarshalling into a
// defaults-initialized struct gives field-by-field merge semantics: fields
// the persisted copy predates keep their defaults.
func (s *Store) readBackend(ctx context.Context, key string) *Draft {
	d := Defaults()

	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("draft: load %s: %v", key, err)
		}
		return &d
	}

	if err := json.Unmarshal(raw, &d); err != nil {
		// Corrupt persisted data: degrade silently to defaults.
		log.Printf("draft: corrupt draft %s, starting fresh: %v", key, err)
		d = Defaults()
	}
	normalize(&d)
	return &d
}

func (s *Store) persistLocked(ctx context.Context, key string, d *Draft) {
	raw, err := json.Marshal(d)
	if err != nil {
		log.Printf("draft: encode %s: %v", key, err)
		return
	}
	if err := s.backend.Set(ctx, key, raw); err != nil {
		// Durability is best-effort, never fatal to the caller.
		log.Printf("draft: save %s: %v", key, err)
	}
}

// normalize repairs shapes the merge can leave behind.
func normalize(d *Draft) {
	if d.UploadsMeta == nil {
		d.UploadsMeta = []UploadDescriptor{}
	}
	if _, ok := ParseRole(string(d.Appeal.PrimaryContactRole)); !ok {
		d.Appeal.PrimaryContactRole = RoleOwner
	}
	if !ValidHearingMode(string(d.Appeal.HearingMode)) {
		d.Appeal.HearingMode = HearingInPerson
	}
}

// RecordSubmission stores the receipt after a successful submit. Split out
// from Mutate so the all-or-nothing invariant is visible in one place.
func (s *Store) RecordSubmission(ctx context.Context, key, receiptID, submittedAtISO string) Draft {
	return s.Mutate(ctx, key, func(d *Draft) {
		d.Submission = Submission{
			ReceiptID:      receiptID,
			SubmittedAtISO: submittedAtISO,
		}
	})
}
