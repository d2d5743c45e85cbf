// Package render draws resolved section blocks and whole pages with html/template.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"veas/site/internal/content"
	"veas/site/internal/placeholder"
)

var (
	// ErrPayloadMismatch means the resolver grouped a kind differently from how
	// its renderer expects it. It is a wiring bug, not bad content.
	ErrPayloadMismatch = errors.New("section payload does not match renderer")
	ErrUnknownKind     = errors.New("no renderer for kind")
)

//go:embed templates/*.html
var templateFS embed.FS

// ImageResolver is satisfied by *placeholder.Resolver.
type ImageResolver interface {
	Resolve(id, folder string) placeholder.Image
}

type Engine struct {
	table     Table
	images    ImageResolver
	markdown  goldmark.Markdown
	templates *template.Template
	logger    *zap.Logger
}

func NewEngine(table Table, images ImageResolver, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if images == nil {
		images = placeholder.NewResolver(placeholder.DefaultCatalog())
	}
	e := &Engine{
		table:  table,
		images: images,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
		logger: logger,
	}

	funcMap := template.FuncMap{
		"markdown":   e.renderMarkdown,
		"lines":      content.SplitList,
		"paragraphs": paragraphs,
		"image":      e.images.Resolve,
		"titleSlug":  content.TitleFromSlug,
		"lower":      strings.ToLower,
	}
	tmpl, err := template.New("site").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	for kind, r := range table {
		if tmpl.Lookup(r.Template) == nil {
			return nil, fmt.Errorf("kind %q: template %q not defined", kind, r.Template)
		}
	}
	e.templates = tmpl
	return e, nil
}

// Table exposes the dispatch table, which also serves as the resolver's kind registry.
func (e *Engine) Table() Table {
	return e.table
}

// SectionView is what a section template receives.
type SectionView struct {
	Kind     string
	Service  content.Service
	Section  content.Section
	Fields   content.Fields
	Sections []content.Section
	Image    placeholder.Image
	HasImage bool
	links    map[string]string
}

// Link returns the page path for a service key, or "/contact" when unknown.
func (v SectionView) Link(serviceKey string) string {
	if href, ok := v.links[strings.TrimSpace(serviceKey)]; ok {
		return href
	}
	return "/contact"
}

// RenderBlock draws one block. Unknown kinds return ErrUnknownKind.
func (e *Engine) RenderBlock(w io.Writer, block content.Block, page PageData) error {
	r, ok := e.table[block.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, block.Kind)
	}
	if r.Grouped != block.Grouped || len(block.Sections) == 0 || (!r.Grouped && len(block.Sections) != 1) {
		return fmt.Errorf("%w: kind %q grouped=%v got grouped=%v with %d sections",
			ErrPayloadMismatch, block.Kind, r.Grouped, block.Grouped, len(block.Sections))
	}

	first := block.Section()
	view := SectionView{
		Kind:     block.Kind,
		Service:  page.Service,
		Section:  first,
		Fields:   first.Fields,
		Sections: block.Sections,
		links:    page.links(),
	}
	if r.Image {
		view.Image = e.images.Resolve(first.Fields.String("imageIdDesktop", ""), imageFolder(first, page.Service))
		view.HasImage = true
		if view.Image.Source == placeholder.SourceFallback {
			e.logger.Warn("section has no image id, using fallback image",
				zap.String("kind", block.Kind), zap.String("section_id", first.ID))
		}
	}

	if err := e.templates.ExecuteTemplate(w, r.Template, view); err != nil {
		return fmt.Errorf("render %s section: %w", block.Kind, err)
	}
	return nil
}

// RenderBlocks draws blocks in order. Unknown kinds are skipped with a warning;
// any other error aborts.
func (e *Engine) RenderBlocks(blocks []content.Block, page PageData) (template.HTML, error) {
	var buf bytes.Buffer
	for _, block := range blocks {
		err := e.RenderBlock(&buf, block, page)
		if errors.Is(err, ErrUnknownKind) {
			e.logger.Warn("dropping section without renderer",
				zap.String("kind", block.Kind), zap.String("service_key", page.Service.Key))
			continue
		}
		if err != nil {
			return "", err
		}
	}
	return template.HTML(buf.String()), nil
}

func (e *Engine) renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(source), &buf); err != nil {
		e.logger.Warn("markdown conversion failed", zap.Error(err))
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

func imageFolder(section content.Section, service content.Service) string {
	if folder := section.Fields.String("folder", ""); folder != "" {
		return folder
	}
	if service.Slug != "" {
		return service.Slug
	}
	return content.HomeKey
}

func paragraphs(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
