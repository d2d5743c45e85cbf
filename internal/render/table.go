package render

import "strings"

// Renderer describes how one section kind is drawn.
type Renderer struct {
	// Template is the name of the {{define}} block that draws the kind.
	Template string
	// Grouped renderers take every section of the kind as one list.
	Grouped bool
	// Image renderers get the record's imageIdDesktop resolved and injected.
	Image bool
}

// Table is the fixed kind -> renderer dispatch map. Keys are lower-case.
type Table map[string]Renderer

func DefaultTable() Table {
	return Table{
		"hero":          {Template: "section-hero", Image: true},
		"hero2":         {Template: "section-hero", Image: true},
		"whatintro":     {Template: "section-what-intro"},
		"what":          {Template: "section-what"},
		"what2":         {Template: "section-what"},
		"what3":         {Template: "section-what"},
		"whatleft":      {Template: "section-what-side"},
		"whatright":     {Template: "section-what-side"},
		"whatleftimage": {Template: "section-what-image", Image: true},
		"cta":           {Template: "section-cta", Image: true},
		"location":      {Template: "section-location"},
		"featurecard":   {Template: "section-feature-cards", Grouped: true},
		"featurehome":   {Template: "section-feature-cards", Grouped: true},
		"type":          {Template: "section-types", Grouped: true},
		"accordion":     {Template: "section-accordion", Grouped: true},
		"faq":           {Template: "section-faq", Grouped: true},
		"review":        {Template: "section-reviews", Grouped: true},
	}
}

// Lookup reports whether kind has a renderer and whether it takes a list.
func (t Table) Lookup(kind string) (grouped bool, ok bool) {
	r, ok := t[strings.ToLower(strings.TrimSpace(kind))]
	return r.Grouped, ok
}
