package render

import (
	"fmt"
	"html/template"
	"io"

	"veas/site/internal/content"
)

const siteName = "Veas Acoustics"

// PageData is the input for a full page.
type PageData struct {
	Service  content.Service
	Services []content.Service
	Blocks   []content.Block
	// BaseHref is set when the page is rendered outside the site, e.g. for PDF export.
	BaseHref string
	Year     int
}

func (p PageData) links() map[string]string {
	links := make(map[string]string, len(p.Services))
	for _, service := range p.Services {
		links[service.Key] = service.Href()
	}
	return links
}

// Title is "{title} - Veas Acoustics", or the site name alone for the home page.
func (p PageData) Title() string {
	title := p.Service.MetaTitle
	if title == "" {
		title = p.Service.Title
	}
	if title == "" || p.Service.Key == content.HomeKey {
		return siteName
	}
	return title + " - " + siteName
}

type pageView struct {
	PageData
	Nav  []content.Service
	Body template.HTML
}

// Page renders the layout around the service's blocks.
func (e *Engine) Page(w io.Writer, data PageData) error {
	body, err := e.RenderBlocks(data.Blocks, data)
	if err != nil {
		return err
	}
	return e.execute(w, "page", pageView{PageData: data, Nav: navServices(data.Services), Body: body})
}

// Fallback renders the placeholder page used when a service has no content.
func (e *Engine) Fallback(w io.Writer, data PageData) error {
	if data.Service.Title == "" {
		if data.Service.Slug == "" || data.Service.Slug == content.HomeKey {
			data.Service.Title = siteName
		} else {
			data.Service.Title = content.TitleFromSlug(data.Service.Slug)
		}
	}
	return e.execute(w, "fallback", pageView{PageData: data, Nav: navServices(data.Services)})
}

// Contact renders the enquiry form page.
func (e *Engine) Contact(w io.Writer, data PageData) error {
	data.Service = content.Service{Key: "contact", Slug: "contact", Title: "Contact Us"}
	return e.execute(w, "contact", pageView{PageData: data, Nav: navServices(data.Services)})
}

func (e *Engine) execute(w io.Writer, name string, view pageView) error {
	if err := e.templates.ExecuteTemplate(w, name, view); err != nil {
		return fmt.Errorf("render %s page: %w", name, err)
	}
	return nil
}

func navServices(services []content.Service) []content.Service {
	nav := make([]content.Service, 0, len(services))
	for _, service := range services {
		if service.Key == content.HomeKey {
			continue
		}
		nav = append(nav, service)
	}
	return nav
}
