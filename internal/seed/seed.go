// Package seed loads site content from YAML and upserts it into the store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"veas/site/internal/content"
)

//go:embed default.yaml
var defaultContent []byte

// Document is the YAML layout of a content file.
type Document struct {
	Services []content.Service `yaml:"services"`
	Sections []content.Section `yaml:"sections"`
}

// Store is where seeded content is written.
type Store interface {
	UpsertService(ctx context.Context, service content.Service) (content.Service, error)
	UpsertSection(ctx context.Context, section content.Section) (content.Section, error)
}

// Result counts what Apply wrote.
type Result struct {
	Services int
	Sections int
}

// Default returns the embedded content.
func Default() (Document, error) {
	return Parse(defaultContent)
}

// Load reads a content file from disk.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read content file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML document. Unknown top-level keys are rejected.
func Parse(data []byte) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode content: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks that keys, slugs and section ids are present and unique.
func (d Document) Validate() error {
	var problems []string
	keys := make(map[string]bool, len(d.Services))
	slugs := make(map[string]bool, len(d.Services))
	for i, service := range d.Services {
		switch {
		case strings.TrimSpace(service.Key) == "":
			problems = append(problems, fmt.Sprintf("services[%d]: key is required", i))
		case keys[service.Key]:
			problems = append(problems, fmt.Sprintf("services[%d]: duplicate key %q", i, service.Key))
		}
		switch {
		case strings.TrimSpace(service.Slug) == "":
			problems = append(problems, fmt.Sprintf("services[%d]: slug is required", i))
		case slugs[service.Slug]:
			problems = append(problems, fmt.Sprintf("services[%d]: duplicate slug %q", i, service.Slug))
		}
		keys[service.Key] = true
		slugs[service.Slug] = true
	}

	ids := make(map[string]bool, len(d.Sections))
	for i, section := range d.Sections {
		switch {
		case strings.TrimSpace(section.ID) == "":
			problems = append(problems, fmt.Sprintf("sections[%d]: id is required", i))
		case ids[section.ID]:
			problems = append(problems, fmt.Sprintf("sections[%d]: duplicate id %q", i, section.ID))
		}
		ids[section.ID] = true
		if strings.TrimSpace(section.ServiceKey) == "" {
			problems = append(problems, fmt.Sprintf("sections[%d]: serviceKey is required", i))
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid content: " + strings.Join(problems, "; "))
	}
	return nil
}

// Apply upserts every service, then every section. Sections whose service is
// not in the document are still written; the resolver finds them by key.
func Apply(ctx context.Context, store Store, doc Document, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := make(map[string]bool, len(doc.Services))

	var result Result
	for _, service := range doc.Services {
		if _, err := store.UpsertService(ctx, service); err != nil {
			return result, fmt.Errorf("seed service %s: %w", service.Key, err)
		}
		keys[service.Key] = true
		result.Services++
	}
	for _, section := range doc.Sections {
		if section.Fields == nil {
			section.Fields = content.Fields{}
		}
		if !keys[section.ServiceKey] {
			logger.Warn("section references a service outside this document",
				zap.String("section_id", section.ID),
				zap.String("service_key", section.ServiceKey),
			)
		}
		if _, err := store.UpsertSection(ctx, section); err != nil {
			return result, fmt.Errorf("seed section %s: %w", section.ID, err)
		}
		result.Sections++
	}

	logger.Info("content seeded", zap.Int("services", result.Services), zap.Int("sections", result.Sections))
	return result, nil
}
