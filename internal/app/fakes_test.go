package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"veas/site/internal/config"
	"veas/site/internal/content"
	"veas/site/internal/export"
	"veas/site/internal/relay"
	"veas/site/internal/render"
	"veas/site/internal/search"
	"veas/site/internal/store"
)

type fakeStore struct {
	pingFn     func(context.Context) error
	servicesFn func(context.Context) ([]content.Service, error)
	services   map[string]content.Service
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) ListServices(ctx context.Context) ([]content.Service, error) {
	if f.servicesFn != nil {
		return f.servicesFn(ctx)
	}
	out := make([]content.Service, 0, len(f.services))
	for _, service := range f.services {
		out = append(out, service)
	}
	return out, nil
}

func (f *fakeStore) GetServiceBySlug(_ context.Context, slug string) (content.Service, error) {
	service, ok := f.services[slug]
	if !ok {
		return content.Service{}, store.ErrNotFound
	}
	return service, nil
}

type fakeResolver struct {
	blocks map[string][]content.Block
	calls  []string
}

func (f *fakeResolver) Resolve(_ context.Context, serviceKey string) []content.Block {
	f.calls = append(f.calls, serviceKey)
	return f.blocks[serviceKey]
}

type fakeCache struct {
	pages map[string][]byte
	getFn func(context.Context, string) ([]byte, bool, error)
	sets  []string
}

func (f *fakeCache) Get(ctx context.Context, slug string) ([]byte, bool, error) {
	if f.getFn != nil {
		return f.getFn(ctx, slug)
	}
	page, ok := f.pages[slug]
	return page, ok, nil
}

func (f *fakeCache) Set(_ context.Context, slug string, page []byte) error {
	if f.pages == nil {
		f.pages = make(map[string][]byte)
	}
	f.pages[slug] = page
	f.sets = append(f.sets, slug)
	return nil
}

type fakeSearch struct {
	searchFn func(context.Context, search.Query) search.Response
	queries  []search.Query
}

func (f *fakeSearch) Search(ctx context.Context, q search.Query) search.Response {
	f.queries = append(f.queries, q)
	if f.searchFn != nil {
		return f.searchFn(ctx, q)
	}
	return search.Response{Results: []search.Result{}, Query: q.Text}
}

type fakeRelay struct {
	submitFn    func(context.Context, relay.Submission) error
	submissions []relay.Submission
}

func (f *fakeRelay) Submit(ctx context.Context, sub relay.Submission) error {
	f.submissions = append(f.submissions, sub)
	if f.submitFn != nil {
		return f.submitFn(ctx, sub)
	}
	return nil
}

type fakeExporter struct {
	brochureFn func(context.Context, string, []byte) (*export.Result, error)
	html       []byte
}

func (f *fakeExporter) Brochure(ctx context.Context, title string, html []byte) (*export.Result, error) {
	f.html = html
	if f.brochureFn != nil {
		return f.brochureFn(ctx, title, html)
	}
	return &export.Result{Data: []byte("%PDF-1.7"), Filename: "noise-survey-brochure.pdf", MimeType: "application/pdf"}, nil
}

var (
	homeService  = content.Service{ID: "svc_home", Key: "home", Slug: "home", Title: "Home"}
	noiseSurvey  = content.Service{ID: "svc_ns", Key: "noise-survey", Slug: "noise-survey", Title: "Noise Survey"}
	emptyService = content.Service{ID: "svc_bt", Key: "building-acoustics", Slug: "building-acoustics", Title: "Building Acoustics"}
)

func introBlock(heading string) content.Block {
	return content.Block{Kind: "whatintro", Sections: []content.Section{{
		ID:     "sec_intro",
		Kind:   "whatIntro",
		Fields: content.Fields{"whatHeading": heading},
	}}}
}

type testDeps struct {
	store    *fakeStore
	resolver *fakeResolver
	cache    *fakeCache
	search   *fakeSearch
	relay    *fakeRelay
	exporter *fakeExporter
}

func newTestDeps() *testDeps {
	return &testDeps{
		store: &fakeStore{services: map[string]content.Service{
			"home":               homeService,
			"noise-survey":       noiseSurvey,
			"building-acoustics": emptyService,
		}},
		resolver: &fakeResolver{blocks: map[string][]content.Block{
			"home":         {introBlock("Welcome to Veas")},
			"noise-survey": {introBlock("Environmental noise surveys")},
		}},
		search:   &fakeSearch{},
		relay:    &fakeRelay{},
		exporter: &fakeExporter{},
	}
}

func newTestService(t *testing.T, deps *testDeps, logger *zap.Logger) *Service {
	t.Helper()
	engine, err := render.NewEngine(render.DefaultTable(), nil, nil)
	require.NoError(t, err)

	d := Dependencies{
		Store:    deps.store,
		Resolver: deps.resolver,
		Engine:   engine,
		Logger:   logger,
	}
	if deps.cache != nil {
		d.Cache = deps.cache
	}
	if deps.search != nil {
		d.Search = deps.search
	}
	if deps.relay != nil {
		d.Relay = deps.relay
	}
	if deps.exporter != nil {
		d.Exporter = deps.exporter
	}
	svc := New(config.Config{PublicBaseURL: "https://www.veasacoustics.co.uk"}, d)
	svc.now = func() time.Time { return time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC) }
	return svc
}
