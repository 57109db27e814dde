package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"appealdesk/api/internal/draft"
	"appealdesk/api/internal/intakesvc"
	"appealdesk/api/internal/schedule"
	"appealdesk/api/internal/signature"
	"appealdesk/api/internal/uploads"
)

// Submitter is the remote intake service contract.
type Submitter interface {
	Submit(ctx context.Context, payload intakesvc.Payload, files []uploads.Live) (intakesvc.Receipt, error)
}

// sessionState holds the parts of a session that cannot survive a reload:
// live file handles, the signature surface, and the in-flight submit guard.
type sessionState struct {
	uploads    *uploads.Manager
	pad        *signature.Pad
	submitting bool
}

// Service orchestrates the intake wizard for all active sessions.
type Service struct {
	drafts    *draft.Store
	slots     schedule.Availability
	submitter Submitter
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewService(drafts *draft.Store, slots schedule.Availability, submitter Submitter) *Service {
	return &Service{
		drafts:    drafts,
		slots:     slots,
		submitter: submitter,
		now:       time.Now,
		sessions:  make(map[string]*sessionState),
	}
}

func (s *Service) session(key string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[key]
	if !ok {
		st = &sessionState{
			uploads: uploads.NewManager(),
			pad:     signature.NewPad(signature.DefaultWidth, signature.DefaultHeight, 2),
		}
		s.sessions[key] = st
	}
	return st
}

// DraftView is the draft plus the session-derived state the frontend needs.
type DraftView struct {
	Draft             draft.Draft     `json:"draft"`
	LiveUploads       int             `json:"liveUploads"`
	NeedsReattachment bool            `json:"needsReattachment"`
	Readiness         draft.Readiness `json:"readiness"`
}

func (s *Service) view(d draft.Draft, st *sessionState) DraftView {
	live := st.uploads.Count()
	return DraftView{
		Draft:             d,
		LiveUploads:       live,
		NeedsReattachment: uploads.NeedsReattachment(d.UploadsMeta, live),
		Readiness:         draft.Report(&d, live),
	}
}

// Draft returns the current state for a session.
func (s *Service) Draft(ctx context.Context, key string) DraftView {
	return s.view(s.drafts.Load(ctx, key), s.session(key))
}

// AppealPatch applies partial updates; nil fields are left untouched.
type AppealPatch struct {
	AccountNumber     *string `json:"accountNumber"`
	OwnerName         *string `json:"ownerName"`
	SitusAddress      *string `json:"situsAddress"`
	SitusCity         *string `json:"situsCity"`
	SitusZip          *string `json:"situsZip"`
	HearingMode       *string `json:"hearingMode"`
	OwnerOpinionValue *string `json:"ownerOpinionValue"`
	Narrative         *string `json:"narrative"`
}

func (s *Service) UpdateAppeal(ctx context.Context, key string, patch AppealPatch) (DraftView, error) {
	if patch.HearingMode != nil && !draft.ValidHearingMode(*patch.HearingMode) {
		return DraftView{}, domainError(http.StatusUnprocessableEntity, "INVALID_HEARING_MODE",
			"Hearing mode must be IN_PERSON, PHONE, or WAIVED", nil)
	}

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		a := &d.Appeal
		setIf(&a.AccountNumber, patch.AccountNumber)
		setIf(&a.OwnerName, patch.OwnerName)
		setIf(&a.SitusAddress, patch.SitusAddress)
		setIf(&a.SitusCity, patch.SitusCity)
		setIf(&a.SitusZip, patch.SitusZip)
		setIf(&a.OwnerOpinionValue, patch.OwnerOpinionValue)
		setIf(&a.Narrative, patch.Narrative)
		if patch.HearingMode != nil {
			a.HearingMode = draft.HearingMode(*patch.HearingMode)
		}
	})
	return s.view(d, s.session(key)), nil
}

// ContactPatch applies partial updates to one of the four contact slots.
type ContactPatch struct {
	FullName       *string `json:"fullName"`
	MailingAddress *string `json:"mailingAddress"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
}

func (s *Service) UpdateContact(ctx context.Context, key, roleName string, patch ContactPatch) (DraftView, error) {
	role, ok := draft.ParseRole(roleName)
	if !ok {
		return DraftView{}, domainError(http.StatusNotFound, "UNKNOWN_ROLE",
			"Contact role must be owner, agent, attorney, or other", nil)
	}

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		c := d.Appeal.Contacts.ByRole(role)
		setIf(&c.FullName, patch.FullName)
		setIf(&c.MailingAddress, patch.MailingAddress)
		setIf(&c.Phone, patch.Phone)
		setIf(&c.Email, patch.Email)
		d.Appeal.Contacts.SetByRole(role, c)
	})
	return s.view(d, s.session(key)), nil
}

// SetPrimaryContact designates the role that receives communications. The
// chosen contact must already have a name.
func (s *Service) SetPrimaryContact(ctx context.Context, key, roleName string) (DraftView, error) {
	role, ok := draft.ParseRole(roleName)
	if !ok {
		return DraftView{}, domainError(http.StatusNotFound, "UNKNOWN_ROLE",
			"Contact role must be owner, agent, attorney, or other", nil)
	}

	current := s.drafts.Load(ctx, key)
	if c := current.Appeal.Contacts.ByRole(role); c.FullName == "" {
		return DraftView{}, domainError(http.StatusUnprocessableEntity, "UNNAMED_CONTACT",
			"The primary contact must have a name", nil)
	}

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		d.Appeal.PrimaryContactRole = role
	})
	return s.view(d, s.session(key)), nil
}

// SchedulingPatch updates the chosen hearing slot.
type SchedulingPatch struct {
	SelectedDateISO *string `json:"selectedDateISO"`
	SelectedTime    *string `json:"selectedTime"`
}

func (s *Service) UpdateScheduling(ctx context.Context, key string, patch SchedulingPatch) (DraftView, error) {
	if patch.SelectedDateISO != nil && *patch.SelectedDateISO != "" {
		if _, err := time.Parse("2006-01-02", *patch.SelectedDateISO); err != nil {
			return DraftView{}, domainError(http.StatusUnprocessableEntity, "INVALID_DATE",
				"Date must be YYYY-MM-DD", nil)
		}
	}

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		if patch.SelectedDateISO != nil {
			d.Scheduling.SelectedDateISO = *patch.SelectedDateISO
			// A new date invalidates the previously chosen time.
			if patch.SelectedTime == nil {
				d.Scheduling.SelectedTime = ""
			}
		}
		setIf(&d.Scheduling.SelectedTime, patch.SelectedTime)
	})

	if d.Scheduling.SelectedTime != "" {
		if err := s.validateSlot(d.Scheduling); err != nil {
			// Roll the time back; the date choice stands.
			s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
				d.Scheduling.SelectedTime = ""
			})
			return DraftView{}, err
		}
	}
	return s.view(d, s.session(key)), nil
}

func (s *Service) validateSlot(sched draft.Scheduling) error {
	if sched.SelectedDateISO == "" {
		return domainError(http.StatusUnprocessableEntity, "NO_DATE",
			"Choose a date before choosing a time", nil)
	}
	date, err := time.Parse("2006-01-02", sched.SelectedDateISO)
	if err != nil {
		return domainError(http.StatusUnprocessableEntity, "INVALID_DATE",
			"Date must be YYYY-MM-DD", nil)
	}
	for _, slot := range s.slots.SlotsFor(date) {
		if slot == sched.SelectedTime {
			return nil
		}
	}
	return domainError(http.StatusUnprocessableEntity, "SLOT_UNAVAILABLE",
		"That time is not offered on the selected day", nil)
}

// Slots returns the offered times for a calendar date.
func (s *Service) Slots(dateISO string) ([]string, error) {
	date, err := time.Parse("2006-01-02", dateISO)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_DATE",
			"Date must be YYYY-MM-DD", nil)
	}
	return s.slots.SlotsFor(date), nil
}

// SetSignedName records the optional typed name next to the signature.
func (s *Service) SetSignedName(ctx context.Context, key, name string) DraftView {
	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		d.Signature.SignedName = name
	})
	return s.view(d, s.session(key))
}

// ApplySignatureTrace replays pointer events on the session's pad and stores
// whatever the trace emitted: an encoded image with a capture timestamp, or
// nothing.
func (s *Service) ApplySignatureTrace(ctx context.Context, key string, events []signature.Event) DraftView {
	st := s.session(key)
	png := signature.Apply(st.pad, events)

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		d.Signature.PNGDataURL = png
		if png != "" {
			d.Signature.SignedAtISO = s.now().UTC().Format(time.RFC3339)
		} else {
			d.Signature.SignedAtISO = ""
		}
	})
	return s.view(d, st)
}

// ClearSignature wipes the pad and the stored image.
func (s *Service) ClearSignature(ctx context.Context, key string) DraftView {
	st := s.session(key)
	st.pad.Clear()

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		d.Signature.PNGDataURL = ""
		d.Signature.SignedAtISO = ""
	})
	return s.view(d, st)
}

// AddUploads attaches new file handles and realigns the durable metadata
// with the live set.
func (s *Service) AddUploads(ctx context.Context, key string, files []uploads.Incoming) DraftView {
	st := s.session(key)
	meta := st.uploads.AddFiles(files)

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		d.UploadsMeta = meta
	})
	return s.view(d, st)
}

// RemoveUpload detaches one file from both the live set and the metadata.
func (s *Service) RemoveUpload(ctx context.Context, key, id string) (DraftView, error) {
	st := s.session(key)
	meta, ok := st.uploads.Remove(id)
	if !ok {
		// The id may name a stale descriptor from a prior session: drop it
		// from the metadata alone.
		found := false
		d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
			kept := d.UploadsMeta[:0]
			for _, m := range d.UploadsMeta {
				if m.ID == id {
					found = true
					continue
				}
				kept = append(kept, m)
			}
			d.UploadsMeta = kept
		})
		if !found {
			return DraftView{}, domainError(http.StatusNotFound, "UPLOAD_NOT_FOUND",
				"No attachment with that id", nil)
		}
		return s.view(d, st), nil
	}

	d := s.drafts.Mutate(ctx, key, func(d *draft.Draft) {
		d.UploadsMeta = meta
	})
	return s.view(d, st), nil
}

// SubmitOutcome is what the confirmation step acts on: where to navigate
// and, on success, the receipt.
type SubmitOutcome struct {
	Next           string `json:"next"`
	InFlight       bool   `json:"inFlight,omitempty"`
	ReceiptID      string `json:"receiptId,omitempty"`
	SubmittedAtISO string `json:"submittedAtIso,omitempty"`
	ErrorCode      string `json:"errorCode,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// genericUnavailable is the only text the service-down path ever exposes.
const genericUnavailable = "The appeal submission service is temporarily unavailable. Please try again in a few minutes."

// Submit runs the submission pipeline for a session. At most one submission
// is in flight per session; repeat calls while one is outstanding are
// acknowledged as no-ops rather than queued.
func (s *Service) Submit(ctx context.Context, key string) (SubmitOutcome, error) {
	st := s.session(key)

	s.mu.Lock()
	if st.submitting {
		s.mu.Unlock()
		return SubmitOutcome{Next: StepConfirmation, InFlight: true}, nil
	}
	st.submitting = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		st.submitting = false
		s.mu.Unlock()
	}()

	current := s.drafts.Load(ctx, key)
	if !draft.SubmitReady(&current) {
		return SubmitOutcome{}, domainError(http.StatusUnprocessableEntity, "NOT_READY",
			"The appeal is missing required information", draft.Report(&current, st.uploads.Count()))
	}

	receipt, err := s.submitter.Submit(ctx, intakesvc.BuildPayload(&current), st.uploads.Files())
	if err != nil {
		if intakesvc.ServiceDown(err) {
			// Degraded-service terminal: never expose codes or internals.
			return SubmitOutcome{
				Next:         StepServiceDown,
				ErrorMessage: genericUnavailable,
			}, nil
		}
		var rejected *intakesvc.Error
		if errors.As(err, &rejected) {
			return SubmitOutcome{
				Next:         StepConfirmation,
				ErrorCode:    rejected.Code,
				ErrorMessage: rejected.Message,
			}, nil
		}
		return SubmitOutcome{}, err
	}

	submittedAt := receipt.SubmittedAtISO
	if submittedAt == "" {
		submittedAt = s.now().UTC().Format(time.RFC3339)
	}
	s.drafts.RecordSubmission(ctx, key, receipt.ReceiptID, submittedAt)

	return SubmitOutcome{
		Next:           StepFinish,
		ReceiptID:      receipt.ReceiptID,
		SubmittedAtISO: submittedAt,
	}, nil
}

// Reset is the explicit start-over action: defaults restored, durable copy
// erased, live handles closed, signature pad wiped.
func (s *Service) Reset(ctx context.Context, key string) DraftView {
	st := s.session(key)
	st.uploads.Reset()
	st.pad.Clear()
	d := s.drafts.Reset(ctx, key)
	return s.view(d, st)
}

// Steps reports the wizard sequence with per-step gating for a session.
type StepInfo struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

func (s *Service) Steps(ctx context.Context, key string) []StepInfo {
	v := s.Draft(ctx, key)
	r := v.Readiness

	ready := map[string]bool{
		StepLanding:      true,
		StepAppeal:       r.Appeal,
		StepUploads:      true, // uploads are optional
		StepScheduling:   r.Scheduling,
		StepConfirmation: r.Submit,
	}

	out := make([]StepInfo, 0, len(wizardOrder))
	for _, name := range wizardOrder {
		out = append(out, StepInfo{Name: name, Ready: ready[name]})
	}
	return out
}

func setIf(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
