// Package content holds the site's content records and the section resolver
// that turns a service's sections into an ordered list of renderable blocks.
package content

import (
	"math"
	"strings"
)

// HomeKey is the service key (and slug) of the landing page.
const HomeKey = "home"

type Service struct {
	ID              string `json:"id" yaml:"id"`
	Key             string `json:"key" yaml:"key"`
	Slug            string `json:"slug" yaml:"slug"`
	Title           string `json:"title" yaml:"title"`
	MetaTitle       string `json:"metaTitle,omitempty" yaml:"metaTitle"`
	MetaDescription string `json:"metaDescription,omitempty" yaml:"metaDescription"`
	CardDescription string `json:"cardDescription,omitempty" yaml:"cardDescription"`
	Description     string `json:"description,omitempty" yaml:"description"`
	ImageID         string `json:"imageId,omitempty" yaml:"imageId"`
	IconName        string `json:"iconName,omitempty" yaml:"iconName"`
	SortOrder       int    `json:"sortOrder" yaml:"sortOrder"`
	Fields          Fields `json:"fields,omitempty" yaml:"fields"`
}

// Href is the public path of the service page.
func (s Service) Href() string {
	if s.Key == HomeKey || s.Slug == HomeKey || s.Slug == "" {
		return "/"
	}
	return "/services/" + s.Slug
}

type Section struct {
	ID         string `json:"id" yaml:"id"`
	Kind       string `json:"kind" yaml:"kind"`
	ServiceKey string `json:"serviceKey" yaml:"serviceKey"`
	Fields     Fields `json:"fields" yaml:"fields"`
}

// NormalizedKind is the lower-cased, trimmed kind tag used for dispatch.
func (s Section) NormalizedKind() string {
	return strings.ToLower(strings.TrimSpace(s.Kind))
}

// Order coerces the "order" field to a number. Missing, non-numeric and NaN
// values sort as 0; booleans count as 1 and 0.
func (s Section) Order() float64 {
	value, ok := s.Fields["order"]
	if !ok {
		return 0
	}
	if b, isBool := value.(bool); isBool {
		if b {
			return 1
		}
		return 0
	}
	n, ok := toFloat(value)
	if !ok || math.IsNaN(n) {
		return 0
	}
	return n
}

// Block is one resolver output entry: a singular kind carries exactly one
// section, a grouped kind carries every section of that kind in order.
type Block struct {
	Kind     string
	Grouped  bool
	Sections []Section
}

// Section returns the block's first record, the whole payload for singular kinds.
func (b Block) Section() Section {
	if len(b.Sections) == 0 {
		return Section{Fields: Fields{}}
	}
	return b.Sections[0]
}
