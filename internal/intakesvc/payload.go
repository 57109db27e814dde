package intakesvc

import "appealdesk/api/internal/draft"

// Property is the property section of the submitted payload.
type Property struct {
	AccountNumber     string `json:"accountNumber"`
	OwnerName         string `json:"ownerName"`
	SitusAddress      string `json:"situsAddress"`
	SitusCity         string `json:"situsCity"`
	SitusZip          string `json:"situsZip"`
	OwnerOpinionValue string `json:"ownerOpinionValue"`
	HearingMode       string `json:"hearingMode"`
}

// TaggedContact is a contact record tagged with its role for the wire.
type TaggedContact struct {
	Role           string `json:"role"`
	FullName       string `json:"fullName"`
	MailingAddress string `json:"mailingAddress"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
}

// Payload is the JSON part of the multipart submission.
type Payload struct {
	Property           Property                 `json:"property"`
	Contacts           []TaggedContact          `json:"contacts"`
	PrimaryContactRole string                   `json:"primaryContactRole"`
	Narrative          string                   `json:"narrative"`
	Signature          draft.Signature          `json:"signature"`
	UploadsMeta        []draft.UploadDescriptor `json:"uploadsMeta"`
	Scheduling         draft.Scheduling         `json:"scheduling"`
}

// BuildPayload projects a draft into the wire shape: four contacts tagged by
// role in fixed order, property fields flattened out of the appeal section.
func BuildPayload(d *draft.Draft) Payload {
	a := &d.Appeal

	contacts := make([]TaggedContact, 0, len(draft.Roles))
	for _, role := range draft.Roles {
		c := a.Contacts.ByRole(role)
		contacts = append(contacts, TaggedContact{
			Role:           string(role),
			FullName:       c.FullName,
			MailingAddress: c.MailingAddress,
			Phone:          c.Phone,
			Email:          c.Email,
		})
	}

	return Payload{
		Property: Property{
			AccountNumber:     a.AccountNumber,
			OwnerName:         a.OwnerName,
			SitusAddress:      a.SitusAddress,
			SitusCity:         a.SitusCity,
			SitusZip:          a.SitusZip,
			OwnerOpinionValue: a.OwnerOpinionValue,
			HearingMode:       string(a.HearingMode),
		},
		Contacts:           contacts,
		PrimaryContactRole: string(a.PrimaryContactRole),
		Narrative:          a.Narrative,
		Signature:          d.Signature,
		UploadsMeta:        d.UploadsMeta,
		Scheduling:         d.Scheduling,
	}
}
