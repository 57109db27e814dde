// Package draft holds the in-progress appeal intake record and its
// persistence and readiness rules.
package draft

import "strings"

// Contact roles. The draft always carries all four; only the owner entry is
// required to be filled in.
type Role string

const (
	RoleOwner    Role = "OWNER"
	RoleAgent    Role = "AGENT"
	RoleAttorney Role = "ATTORNEY"
	RoleOther    Role = "OTHER"
)

// Roles lists the fixed contact roles in payload order.
var Roles = []Role{RoleOwner, RoleAgent, RoleAttorney, RoleOther}

// ParseRole maps a wire value (any case) to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner, true
	case RoleAgent:
		return RoleAgent, true
	case RoleAttorney:
		return RoleAttorney, true
	case RoleOther:
		return RoleOther, true
	}
	return "", false
}

// Hearing modes.
type HearingMode string

const (
	HearingInPerson HearingMode = "IN_PERSON"
	HearingPhone    HearingMode = "PHONE"
	HearingWaived   HearingMode = "WAIVED"
)

// ValidHearingMode reports whether s is one of the accepted modes.
func ValidHearingMode(s string) bool {
	switch HearingMode(s) {
	case HearingInPerson, HearingPhone, HearingWaived:
		return true
	}
	return false
}

// Contact is one of the four fixed contact records. All fields are free
// text; requirements are enforced by the readiness rules, not here.
type Contact struct {
	FullName       string `json:"fullName"`
	MailingAddress string `json:"mailingAddress"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
}

// Contacts holds the four fixed contact slots.
type Contacts struct {
	Owner    Contact `json:"owner"`
	Agent    Contact `json:"agent"`
	Attorney Contact `json:"attorney"`
	Other    Contact `json:"other"`
}

// ByRole returns the contact for a role.
func (c *Contacts) ByRole(role Role) Contact {
	switch role {
	case RoleAgent:
		return c.Agent
	case RoleAttorney:
		return c.Attorney
	case RoleOther:
		return c.Other
	default:
		return c.Owner
	}
}

// SetByRole replaces the contact for a role.
func (c *Contacts) SetByRole(role Role, contact Contact) {
	switch role {
	case RoleOwner:
		c.Owner = contact
	case RoleAgent:
		c.Agent = contact
	case RoleAttorney:
		c.Attorney = contact
	case RoleOther:
		c.Other = contact
	}
}

// Appeal is the property/contact section of the draft.
type Appeal struct {
	AccountNumber      string      `json:"accountNumber"`
	OwnerName          string      `json:"ownerName"`
	SitusAddress       string      `json:"situsAddress"`
	SitusCity          string      `json:"situsCity"`
	SitusZip           string      `json:"situsZip"`
	HearingMode        HearingMode `json:"hearingMode"`
	OwnerOpinionValue  string      `json:"ownerOpinionValue"`
	Narrative          string      `json:"narrative"`
	Contacts           Contacts    `json:"contacts"`
	PrimaryContactRole Role        `json:"primaryContactRole"`
}

// UploadDescriptor is the durable shadow of an attached file. It survives
// reloads; the file content does not.
type UploadDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"type"`
}

// Scheduling is the chosen hearing slot. Both fields are empty until chosen.
type Scheduling struct {
	SelectedDateISO string `json:"selectedDateISO"`
	SelectedTime    string `json:"selectedTime"`
}

// Signature holds the captured signature. PNGDataURL is either empty (no
// signature) or a complete encoded image.
type Signature struct {
	PNGDataURL  string `json:"pngDataUrl"`
	SignedName  string `json:"signedName"`
	SignedAtISO string `json:"signedAtIso"`
}

// Submission is populated only after a successful submit.
type Submission struct {
	ReceiptID      string `json:"receiptId"`
	SubmittedAtISO string `json:"submittedAtIso"`
}

// Draft is the complete in-progress intake record for one session. It is the
// durable projection: live file handles are owned by the upload manager and
// are never part of this struct.
type Draft struct {
	Appeal      Appeal             `json:"appeal"`
	UploadsMeta []UploadDescriptor `json:"uploadsMeta"`
	Scheduling  Scheduling         `json:"scheduling"`
	Signature   Signature          `json:"signature"`
	Submission  Submission         `json:"submission"`
}

// Defaults returns a fresh all-default draft.
func Defaults() Draft {
	return Draft{
		Appeal: Appeal{
			HearingMode:        HearingInPerson,
			PrimaryContactRole: RoleOwner,
		},
		UploadsMeta: []UploadDescriptor{},
	}
}
