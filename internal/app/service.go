package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"veas/site/internal/config"
	"veas/site/internal/content"
	"veas/site/internal/export"
	"veas/site/internal/relay"
	"veas/site/internal/render"
	"veas/site/internal/search"
	"veas/site/internal/store"
)

type ContentStore interface {
	Ping(ctx context.Context) error
	ListServices(ctx context.Context) ([]content.Service, error)
	GetServiceBySlug(ctx context.Context, slug string) (content.Service, error)
}

type BlockResolver interface {
	Resolve(ctx context.Context, serviceKey string) []content.Block
}

type PageCache interface {
	Get(ctx context.Context, slug string) ([]byte, bool, error)
	Set(ctx context.Context, slug string, page []byte) error
}

type Searcher interface {
	Search(ctx context.Context, q search.Query) search.Response
}

type ContactRelay interface {
	Submit(ctx context.Context, sub relay.Submission) error
}

type BrochureExporter interface {
	Brochure(ctx context.Context, title string, html []byte) (*export.Result, error)
}

// Dependencies are the collaborators built at startup. Cache, Search, Relay
// and Exporter may be left nil; the matching features then degrade.
type Dependencies struct {
	Store    ContentStore
	Resolver BlockResolver
	Engine   *render.Engine
	Cache    PageCache
	Search   Searcher
	Relay    ContactRelay
	Exporter BrochureExporter
	Logger   *zap.Logger
}

type Service struct {
	cfg      config.Config
	store    ContentStore
	resolver BlockResolver
	engine   *render.Engine
	cache    PageCache
	search   Searcher
	relay    ContactRelay
	exporter BrochureExporter
	logger   *zap.Logger
	now      func() time.Time
}

func New(cfg config.Config, deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:      cfg,
		store:    deps.Store,
		resolver: deps.Resolver,
		engine:   deps.Engine,
		cache:    deps.Cache,
		search:   deps.Search,
		relay:    deps.Relay,
		exporter: deps.Exporter,
		logger:   logger,
		now:      time.Now,
	}
}

// Page is a rendered HTML document.
type Page struct {
	Body     []byte
	Fallback bool
	Cached   bool
}

// RenderPage renders the page for a service slug; an empty slug is the home
// page. A slug with no service record still renders when sections are keyed
// by it; pages without sections get the fallback page rather than an error. Only full pages are cached.
func (s *Service) RenderPage(ctx context.Context, slug string) (Page, error) {
	slug = content.NormalizeSlug(slug)
	if slug == "" {
		slug = content.HomeKey
	}
	logger := s.logger.With(zap.String("slug", slug))

	if body, ok := s.cachedPage(ctx, slug); ok {
		return Page{Body: body, Cached: true}, nil
	}

	services := s.navigation(ctx)
	service, err := s.store.GetServiceBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("service lookup failed, rendering fallback", zap.Error(err))
			return s.fallback(content.Service{Slug: slug}, services)
		}
		// Sections may be keyed by the slug without a service record.
		logger.Warn("service not found, resolving sections by slug")
		service = content.Service{Key: slug, Slug: slug, Title: content.TitleFromSlug(slug)}
	}

	blocks := s.resolver.Resolve(ctx, service.Key)
	if len(blocks) == 0 {
		return s.fallback(service, services)
	}

	var buf bytes.Buffer
	err = s.engine.Page(&buf, render.PageData{
		Service:  service,
		Services: services,
		Blocks:   blocks,
		Year:     s.now().Year(),
	})
	if err != nil {
		return Page{}, fmt.Errorf("render page %s: %w", slug, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, slug, buf.Bytes()); err != nil {
			logger.Warn("page cache write failed", zap.Error(err))
		}
	}
	return Page{Body: buf.Bytes()}, nil
}

func (s *Service) cachedPage(ctx context.Context, slug string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	body, ok, err := s.cache.Get(ctx, slug)
	if err != nil {
		s.logger.Warn("page cache read failed", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}
	return body, ok
}

func (s *Service) navigation(ctx context.Context) []content.Service {
	services, err := s.store.ListServices(ctx)
	if err != nil {
		s.logger.Warn("service list failed, rendering without navigation", zap.Error(err))
		return nil
	}
	return services
}

func (s *Service) fallback(service content.Service, services []content.Service) (Page, error) {
	var buf bytes.Buffer
	err := s.engine.Fallback(&buf, render.PageData{Service: service, Services: services, Year: s.now().Year()})
	if err != nil {
		return Page{}, err
	}
	return Page{Body: buf.Bytes(), Fallback: true}, nil
}

// NotFoundPage is served for paths that match no route.
func (s *Service) NotFoundPage(ctx context.Context) (Page, error) {
	return s.fallback(content.Service{Slug: "not-found", Title: "Page Not Found"}, s.navigation(ctx))
}

func (s *Service) ContactPage(ctx context.Context) (Page, error) {
	var buf bytes.Buffer
	err := s.engine.Contact(&buf, render.PageData{Services: s.navigation(ctx), Year: s.now().Year()})
	if err != nil {
		return Page{}, err
	}
	return Page{Body: buf.Bytes()}, nil
}

func (s *Service) Submit(ctx context.Context, sub relay.Submission) error {
	if s.relay == nil {
		return domainError(http.StatusServiceUnavailable, "RELAY_UNAVAILABLE", "Contact form is not available", nil)
	}
	return s.relay.Submit(ctx, sub)
}

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: strings.TrimSpace(q.Text)}
	}
	return s.search.Search(ctx, q)
}

// Brochure renders a service page with an absolute base URL and prints it to
// PDF. Unlike RenderPage it reports missing services and empty pages.
func (s *Service) Brochure(ctx context.Context, slug string) (*export.Result, error) {
	if s.exporter == nil {
		return nil, export.ErrPDFDependencyMissing
	}
	slug = content.NormalizeSlug(slug)
	service, err := s.store.GetServiceBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Service not found", map[string]any{"slug": slug})
		}
		return nil, err
	}
	blocks := s.resolver.Resolve(ctx, service.Key)
	if len(blocks) == 0 {
		return nil, export.ErrContentUnavailable
	}

	var buf bytes.Buffer
	err = s.engine.Page(&buf, render.PageData{
		Service:  service,
		Services: s.navigation(ctx),
		Blocks:   blocks,
		BaseHref: strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/",
		Year:     s.now().Year(),
	})
	if err != nil {
		return nil, fmt.Errorf("render brochure %s: %w", slug, err)
	}
	return s.exporter.Brochure(ctx, service.Title, buf.Bytes())
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
