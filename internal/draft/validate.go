package draft

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail accepts empty (the field is optional everywhere) or a plausible
// address.
func ValidEmail(email string) bool {
	e := strings.TrimSpace(email)
	if e == "" {
		return true
	}
	return emailPattern.MatchString(e)
}

func filled(s string) bool {
	return strings.TrimSpace(s) != ""
}

// AppealReady gates leaving the appeal-details step: all required property
// fields, a named owner contact, and a primary role.
func AppealReady(d *Draft) bool {
	a := &d.Appeal
	return filled(a.AccountNumber) &&
		filled(a.OwnerName) &&
		filled(a.SitusAddress) &&
		filled(a.SitusCity) &&
		filled(a.SitusZip) &&
		a.HearingMode != "" &&
		filled(a.Contacts.Owner.FullName) &&
		a.PrimaryContactRole != ""
}

// SchedulingReady gates leaving the scheduling step.
func SchedulingReady(d *Draft) bool {
	return filled(d.Scheduling.SelectedDateISO) && filled(d.Scheduling.SelectedTime)
}

// PrimaryContact returns the contact the primary role points at, or false
// if that contact has no name yet.
func PrimaryContact(d *Draft) (Contact, bool) {
	c := d.Appeal.Contacts.ByRole(d.Appeal.PrimaryContactRole)
	if !filled(c.FullName) {
		return Contact{}, false
	}
	return c, true
}

// SubmitReady gates the final submit: appeal fields complete, the primary
// contact named and reachable by phone or email, and a captured signature.
func SubmitReady(d *Draft) bool {
	if !AppealReady(d) {
		return false
	}
	primary, ok := PrimaryContact(d)
	if !ok {
		return false
	}
	if !filled(primary.Phone) && !filled(primary.Email) {
		return false
	}
	return d.Signature.PNGDataURL != ""
}

// Readiness is the per-step gating report plus non-blocking warnings.
type Readiness struct {
	Appeal     bool `json:"appeal"`
	Scheduling bool `json:"scheduling"`
	Submit     bool `json:"submit"`

	// Warnings surfaced on the confirmation step; they do not gate submit.
	PrimaryEmailInvalid bool `json:"primaryEmailInvalid"`
	NeedsReattachment   bool `json:"needsReattachment"`
}

// Report computes the readiness of every gated step. liveUploads is the
// number of file handles attached in this session.
func Report(d *Draft, liveUploads int) Readiness {
	r := Readiness{
		Appeal:            AppealReady(d),
		Scheduling:        SchedulingReady(d),
		Submit:            SubmitReady(d),
		NeedsReattachment: len(d.UploadsMeta) > 0 && liveUploads == 0,
	}
	if primary, ok := PrimaryContact(d); ok {
		if filled(primary.Email) && !ValidEmail(primary.Email) {
			r.PrimaryEmailInvalid = true
		}
	}
	return r
}
