package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const idxSections = "site_sections"

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	logger  *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the section index.
// An unreachable server is not an error: the health loop keeps probing and
// the facade falls back to Postgres in the meantime.
func NewMeili(url, apiKey string, logger *zap.Logger) *Meili {
	return newMeili(meili.New(url, meili.WithAPIKey(apiKey)), 10*time.Second, logger)
}

func newMeili(client meili.ServiceManager, interval time.Duration, logger *zap.Logger) *Meili {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Meili{
		client: client,
		logger: logger.Named("meili"),
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		m.logger.Warn("meilisearch unavailable", zap.Error(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop(interval)
	return m
}

func (m *Meili) configureIndexes() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxSections,
		PrimaryKey: "id",
	}); err != nil {
		m.logger.Debug("create index (may already exist)", zap.String("index", idxSections), zap.Error(err))
	}

	index := m.client.Index(idxSections)
	filterable := []interface{}{"serviceKey", "kind"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.logger.Warn("update filterable attributes", zap.String("index", idxSections), zap.Error(err))
	}
	searchable := []string{"heading", "body", "serviceTitle"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.logger.Warn("update searchable attributes", zap.String("index", idxSections), zap.Error(err))
	}
}

func (m *Meili) healthLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring index")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

func (m *Meili) Search(ctx context.Context, q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	q = q.Normalize()

	req := &meili.SearchRequest{
		Limit:                 int64(q.Limit),
		Offset:                int64(q.Offset),
		AttributesToHighlight: []string{"heading", "body"},
		AttributesToCrop:      []string{"body"},
		CropLength:            30,
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	}
	var filters []string
	if q.ServiceKey != "" {
		filters = append(filters, fmt.Sprintf("serviceKey = %q", q.ServiceKey))
	}
	if q.Kind != "" {
		filters = append(filters, fmt.Sprintf("kind = %q", strings.ToLower(q.Kind)))
	}
	if len(filters) > 0 {
		req.Filter = filters
	}

	resp, err := m.client.Index(idxSections).Search(q.Text, req)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	record := SectionRecord{
		ID:           decodeString(hit, "id"),
		ServiceKey:   decodeString(hit, "serviceKey"),
		ServiceSlug:  decodeString(hit, "serviceSlug"),
		ServiceTitle: decodeString(hit, "serviceTitle"),
		Kind:         decodeString(hit, "kind"),
		Heading:      decodeString(hit, "heading"),
		Body:         decodeString(hit, "body"),
	}
	result := record.result()
	result.Title = firstNonBlank(decodeFormattedString(hit, "heading"), result.Title)
	result.Snippet = firstNonBlank(decodeFormattedString(hit, "body"), result.Snippet)
	return result
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]any
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	s, _ := formatted[key].(string)
	return strings.TrimSpace(s)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexSections adds or replaces section records.
func (m *Meili) IndexSections(ctx context.Context, records []SectionRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.client.Index(idxSections).AddDocuments(records, nil); err != nil {
		return fmt.Errorf("index %d sections: %w", len(records), err)
	}
	return nil
}
