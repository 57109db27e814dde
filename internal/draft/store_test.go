package draft

import (
	"context"
	"errors"
	"testing"

	"appealdesk/api/internal/kv"

	"github.com/alicebob/miniredis/v2"
)

func testBackend(t *testing.T) kv.Store {
	s := miniredis.RunT(t)
	backend, err := kv.NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestLoadFreshDraftHasDefaults(t *testing.T) {
	store := NewStore(testBackend(t))

	d := store.Load(context.Background(), "sess-1")

	if d.Appeal.HearingMode != HearingInPerson {
		t.Errorf("expected default hearing mode IN_PERSON, got %s", d.Appeal.HearingMode)
	}
	if d.Appeal.PrimaryContactRole != RoleOwner {
		t.Errorf("expected default primary role OWNER, got %s", d.Appeal.PrimaryContactRole)
	}
	if d.UploadsMeta == nil || len(d.UploadsMeta) != 0 {
		t.Errorf("expected empty uploadsMeta, got %v", d.UploadsMeta)
	}
	if d.Submission.ReceiptID != "" || d.Submission.SubmittedAtISO != "" {
		t.Errorf("expected empty submission, got %+v", d.Submission)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	backend := testBackend(t)
	ctx := context.Background()

	first := NewStore(backend)
	first.Mutate(ctx, "sess-1", func(d *Draft) {
		d.Appeal.AccountNumber = "R-100234"
		d.Appeal.OwnerName = "Jane Doe"
		d.Appeal.Contacts.Owner = Contact{FullName: "Jane Doe", Email: "jane@example.com"}
		d.UploadsMeta = []UploadDescriptor{{ID: "u1", Name: "deed.pdf", Size: 1024, MimeType: "application/pdf"}}
		d.Scheduling = Scheduling{SelectedDateISO: "2026-09-14", SelectedTime: "09:30"}
		d.Signature = Signature{PNGDataURL: "data:image/png;base64,AAAA", SignedAtISO: "2026-09-01T10:00:00Z"}
	})

	// A second store over the same backend stands in for a reload.
	second := NewStore(backend)
	d := second.Load(ctx, "sess-1")

	if d.Appeal.AccountNumber != "R-100234" {
		t.Errorf("account number lost: %q", d.Appeal.AccountNumber)
	}
	if d.Appeal.Contacts.Owner.Email != "jane@example.com" {
		t.Errorf("owner email lost: %q", d.Appeal.Contacts.Owner.Email)
	}
	if len(d.UploadsMeta) != 1 || d.UploadsMeta[0].Name != "deed.pdf" {
		t.Errorf("uploadsMeta lost: %+v", d.UploadsMeta)
	}
	if d.Scheduling.SelectedTime != "09:30" {
		t.Errorf("scheduling lost: %+v", d.Scheduling)
	}
	if d.Signature.PNGDataURL == "" {
		t.Error("signature lost")
	}
}

func TestCorruptPersistedDataFallsBackToDefaults(t *testing.T) {
	backend := testBackend(t)
	ctx := context.Background()

	if err := backend.Set(ctx, "sess-1", []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	d := NewStore(backend).Load(ctx, "sess-1")
	if d.Appeal.HearingMode != HearingInPerson {
		t.Errorf("expected defaults after corrupt load, got %+v", d.Appeal)
	}
}

func TestPartialPersistedDataMergesOverDefaults(t *testing.T) {
	backend := testBackend(t)
	ctx := context.Background()

	// A persisted copy predating most fields: only the account number.
	if err := backend.Set(ctx, "sess-1", []byte(`{"appeal":{"accountNumber":"A-1"}}`)); err != nil {
		t.Fatalf("seed partial value: %v", err)
	}

	d := NewStore(backend).Load(ctx, "sess-1")
	if d.Appeal.AccountNumber != "A-1" {
		t.Errorf("persisted field lost: %q", d.Appeal.AccountNumber)
	}
	if d.Appeal.HearingMode != HearingInPerson {
		t.Errorf("missing field did not default: %q", d.Appeal.HearingMode)
	}
	if d.Appeal.PrimaryContactRole != RoleOwner {
		t.Errorf("missing role did not default: %q", d.Appeal.PrimaryContactRole)
	}
	if d.UploadsMeta == nil {
		t.Error("uploadsMeta should normalize to empty slice")
	}
}

func TestMutateSeesLatestSnapshot(t *testing.T) {
	store := NewStore(testBackend(t))
	ctx := context.Background()

	store.Mutate(ctx, "sess-1", func(d *Draft) { d.Appeal.AccountNumber = "A-1" })
	store.Mutate(ctx, "sess-1", func(d *Draft) { d.Appeal.OwnerName = "Jane" })
	d := store.Mutate(ctx, "sess-1", func(d *Draft) { d.Appeal.SitusCity = "Travis" })

	if d.Appeal.AccountNumber != "A-1" || d.Appeal.OwnerName != "Jane" || d.Appeal.SitusCity != "Travis" {
		t.Errorf("successive mutations lost updates: %+v", d.Appeal)
	}
}

func TestResetErasesDurableCopy(t *testing.T) {
	backend := testBackend(t)
	ctx := context.Background()

	store := NewStore(backend)
	store.Mutate(ctx, "sess-1", func(d *Draft) { d.Appeal.AccountNumber = "A-1" })

	d := store.Reset(ctx, "sess-1")
	if d.Appeal.AccountNumber != "" {
		t.Errorf("reset did not restore defaults: %+v", d.Appeal)
	}

	if _, err := backend.Get(ctx, "sess-1"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected durable copy erased, got %v", err)
	}
}

// failingStore always errors; the draft store must degrade, not crash.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}
func (failingStore) Set(context.Context, string, []byte) error { return errors.New("backend down") }
func (failingStore) Delete(context.Context, string) error      { return errors.New("backend down") }
func (failingStore) Close() error                              { return nil }

func TestBackendFailuresAreSwallowed(t *testing.T) {
	store := NewStore(failingStore{})
	ctx := context.Background()

	d := store.Load(ctx, "sess-1")
	if d.Appeal.HearingMode != HearingInPerson {
		t.Errorf("expected defaults when backend is down, got %+v", d.Appeal)
	}

	// Mutations keep working in memory.
	d = store.Mutate(ctx, "sess-1", func(d *Draft) { d.Appeal.AccountNumber = "A-1" })
	if d.Appeal.AccountNumber != "A-1" {
		t.Errorf("in-memory mutation lost: %+v", d.Appeal)
	}

	d = store.Reset(ctx, "sess-1")
	if d.Appeal.AccountNumber != "" {
		t.Errorf("reset failed with backend down: %+v", d.Appeal)
	}
}

func TestRecordSubmission(t *testing.T) {
	store := NewStore(testBackend(t))

	d := store.RecordSubmission(context.Background(), "sess-1", "R-1", "2024-07-01T00:00:00Z")
	if d.Submission.ReceiptID != "R-1" || d.Submission.SubmittedAtISO != "2024-07-01T00:00:00Z" {
		t.Errorf("submission not recorded: %+v", d.Submission)
	}
}
