package store

import (
	"errors"
	"time"

	"veas/site/internal/content"
)

var ErrNotFound = errors.New("not found")

// ContactSubmission is one stored enquiry from the contact form.
type ContactSubmission struct {
	ID               string
	Name             string
	Company          string
	Email            string
	Telephone        string
	ProjectAddress   string
	Message          string
	GDPRConsent      bool
	SubmittedAt      time.Time
	SubmittedAtLocal string
}

// serviceDoc is the JSONB payload of a services row; the indexed columns
// (key, slug, title, sort order) live outside it.
type serviceDoc struct {
	MetaTitle       string         `json:"metaTitle,omitempty"`
	MetaDescription string         `json:"metaDescription,omitempty"`
	CardDescription string         `json:"cardDescription,omitempty"`
	Description     string         `json:"description,omitempty"`
	ImageID         string         `json:"imageId,omitempty"`
	IconName        string         `json:"iconName,omitempty"`
	Fields          content.Fields `json:"fields,omitempty"`
}

func docFromService(s content.Service) serviceDoc {
	return serviceDoc{
		MetaTitle:       s.MetaTitle,
		MetaDescription: s.MetaDescription,
		CardDescription: s.CardDescription,
		Description:     s.Description,
		ImageID:         s.ImageID,
		IconName:        s.IconName,
		Fields:          s.Fields,
	}
}

func (d serviceDoc) apply(s *content.Service) {
	s.MetaTitle = d.MetaTitle
	s.MetaDescription = d.MetaDescription
	s.CardDescription = d.CardDescription
	s.Description = d.Description
	s.ImageID = d.ImageID
	s.IconName = d.IconName
	s.Fields = d.Fields
}
