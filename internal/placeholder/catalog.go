// Package placeholder maps editor-entered image ids to public image URLs.
package placeholder

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one catalog image. Mobile falls back to Desktop when empty.
type Entry struct {
	ID      string `yaml:"id"`
	Desktop string `yaml:"desktop"`
	Mobile  string `yaml:"mobile"`
	Alt     string `yaml:"alt"`
}

// Catalog is keyed by normalized id. Aliases point legacy ids at a canonical one.
type Catalog struct {
	Entries map[string]Entry
	Aliases map[string]string
}

func (c Catalog) lookup(id string) (Entry, bool) {
	if canonical, ok := c.Aliases[id]; ok {
		id = NormalizeID(canonical)
	}
	entry, ok := c.Entries[id]
	return entry, ok
}

// Merge overlays other onto c and returns the result; c is left untouched.
func (c Catalog) Merge(other Catalog) Catalog {
	out := Catalog{
		Entries: make(map[string]Entry, len(c.Entries)+len(other.Entries)),
		Aliases: make(map[string]string, len(c.Aliases)+len(other.Aliases)),
	}
	for id, entry := range c.Entries {
		out.Entries[id] = entry
	}
	for id, entry := range other.Entries {
		out.Entries[NormalizeID(id)] = entry
	}
	for alias, target := range c.Aliases {
		out.Aliases[alias] = target
	}
	for alias, target := range other.Aliases {
		out.Aliases[NormalizeID(alias)] = target
	}
	return out
}

// DefaultCatalog is the compiled-in image table.
func DefaultCatalog() Catalog {
	entries := []Entry{
		{ID: "grass2.0", Desktop: "/images/home/grass2.0.webp", Alt: "Acoustic consultant measuring noise outdoors"},
		{ID: "home-hero", Desktop: "/images/home/home-hero.webp", Mobile: "/images/home/home-hero-mobile.webp", Alt: "Veas Acoustics engineer on site"},
		{ID: "meeting1", Desktop: "/images/home/meeting1.webp", Alt: "Project meeting with an acoustic consultant"},
		{ID: "meeting2", Desktop: "/images/home/meeting2.webp", Alt: "Reviewing an acoustic report with a client"},
		{ID: "survey-type-env", Desktop: "/images/survey-type-env.webp", Alt: "Environmental noise survey equipment"},
		{ID: "noise-survey-hero", Desktop: "/images/noise-survey/noise-survey-hero.webp", Mobile: "/images/noise-survey/noise-survey-hero-mobile.webp", Alt: "Sound level meter deployed for a noise survey"},
		{ID: "building-acoustics-hero", Desktop: "/images/building-acoustics/building-acoustics-hero.webp", Mobile: "/images/building-acoustics/building-acoustics-hero-mobile.webp", Alt: "Sound insulation testing between dwellings"},
		{ID: "acoustic-testing-hero", Desktop: "/images/acoustic-testing/acoustic-testing-hero.webp", Mobile: "/images/acoustic-testing/acoustic-testing-hero-mobile.webp", Alt: "Pre-completion acoustic testing"},
		{ID: "placeholder", Desktop: "/images/placeholder.webp", Alt: "Image coming soon"},
	}
	catalog := Catalog{
		Entries: make(map[string]Entry, len(entries)),
		Aliases: map[string]string{
			"grass":         "grass2.0",
			"homepage-hero": "home-hero",
		},
	}
	for _, entry := range entries {
		catalog.Entries[entry.ID] = entry
	}
	return catalog
}

type catalogFile struct {
	Images  []Entry           `yaml:"images"`
	Aliases map[string]string `yaml:"aliases"`
}

// LoadCatalogFile reads a YAML catalog and merges it over the defaults.
//
//	images:
//	  - id: hero-1
//	    desktop: /images/home/hero-1.webp
//	    alt: Hero
//	aliases:
//	  old-hero: hero-1
func LoadCatalogFile(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read image catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Catalog{}, fmt.Errorf("parse image catalog %s: %w", path, err)
	}

	extra := Catalog{Entries: make(map[string]Entry), Aliases: file.Aliases}
	for i, entry := range file.Images {
		id := NormalizeID(entry.ID)
		if id == "" {
			return Catalog{}, fmt.Errorf("image catalog %s: entry %d has no id", path, i)
		}
		if strings.TrimSpace(entry.Desktop) == "" {
			return Catalog{}, fmt.Errorf("image catalog %s: %q has no desktop url", path, id)
		}
		entry.ID = id
		extra.Entries[id] = entry
	}
	return DefaultCatalog().Merge(extra), nil
}
