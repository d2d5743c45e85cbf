package search

import (
	"sort"
	"strings"

	"veas/site/internal/content"
)

// Result is a single search hit returned to the caller.
type Result struct {
	ID           string `json:"id"`
	ServiceKey   string `json:"serviceKey"`
	ServiceTitle string `json:"serviceTitle"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	Href         string `json:"href"`
}

// Query describes a search request.
type Query struct {
	Text       string
	ServiceKey string // empty = every service
	Kind       string // empty = every kind
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

const (
	DefaultLimit  = 20
	MaxLimit      = 50
	snippetLength = 160
)

// Normalize trims the text and clamps paging.
func (q Query) Normalize() Query {
	q.Text = strings.TrimSpace(q.Text)
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// SectionRecord is the data we index for a page section.
type SectionRecord struct {
	ID           string `json:"id"`
	ServiceKey   string `json:"serviceKey"`
	ServiceSlug  string `json:"serviceSlug"`
	ServiceTitle string `json:"serviceTitle"`
	Kind         string `json:"kind"`
	Heading      string `json:"heading"`
	Body         string `json:"body"`
}

func (r SectionRecord) href() string {
	return content.Service{Key: r.ServiceKey, Slug: r.ServiceSlug}.Href()
}

func (r SectionRecord) result() Result {
	return Result{
		ID:           r.ID,
		ServiceKey:   r.ServiceKey,
		ServiceTitle: r.ServiceTitle,
		Kind:         r.Kind,
		Title:        firstNonBlank(r.Heading, r.ServiceTitle),
		Snippet:      snippet(r.Body, snippetLength),
		Href:         r.href(),
	}
}

// Keys that name a section, in preference order.
var headingKeys = []string{
	"heroHeading", "heading", "whatHeading", "ctaHeading", "featureHeading", "cardTitle",
	"typesHeading", "typesCategory", "typesSection", "accHeading", "accCategory",
	"faqQuestion", "locationHeading", "reviewHeading",
}

// Keys that never hold readable copy.
var skipKeys = map[string]bool{
	"kind": true, "order": true, "folder": true, "imageIdDesktop": true, "imageIdMobile": true,
	"videoFile": true, "buttonHref": true, "iconName": true, "featureServiceKey": true,
	"locationMapEmbedUrl": true,
}

// recordFor builds the index record of one section, reporting false when the
// section carries no text.
func recordFor(service content.Service, section content.Section) (SectionRecord, bool) {
	heading := section.Fields.First("", headingKeys...)
	body := bodyText(section.Fields, heading)
	if heading == "" && body == "" {
		return SectionRecord{}, false
	}
	return SectionRecord{
		ID:           section.ID,
		ServiceKey:   service.Key,
		ServiceSlug:  service.Slug,
		ServiceTitle: service.Title,
		Kind:         section.NormalizedKind(),
		Heading:      heading,
		Body:         body,
	}, true
}

// BuildRecords turns stored sections into index records. Sections whose
// service is unknown or that carry no text are left out.
func BuildRecords(services []content.Service, sections []content.Section) []SectionRecord {
	byKey := make(map[string]content.Service, len(services))
	for _, service := range services {
		byKey[service.Key] = service
	}

	records := make([]SectionRecord, 0, len(sections))
	for _, section := range sections {
		service, ok := byKey[section.ServiceKey]
		if !ok {
			continue
		}
		if record, ok := recordFor(service, section); ok {
			records = append(records, record)
		}
	}
	return records
}

func bodyText(fields content.Fields, heading string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if !skipKeys[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		for _, value := range fields.Strings(key) {
			value = strings.TrimSpace(value)
			if value == "" || value == heading {
				continue
			}
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, "\n")
}

// snippet cuts body to roughly n runes on a word boundary.
func snippet(body string, n int) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
