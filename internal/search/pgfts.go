package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"veas/site/internal/content"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true: if Postgres is down, the whole site is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search matches the generated sections.fts column with plainto_tsquery and
// ranks by ts_rank. Heading and snippet are derived from the row's fields the
// same way the Meilisearch records are.
func (p *PgFTS) Search(ctx context.Context, q Query) ([]Result, int, error) {
	q = q.Normalize()
	if q.Text == "" {
		return nil, 0, nil
	}

	tsQuery := "plainto_tsquery('english', $1)"
	where := "s.fts @@ " + tsQuery
	args := []any{q.Text}
	if q.ServiceKey != "" {
		args = append(args, q.ServiceKey)
		where += fmt.Sprintf(" AND s.service_key = $%d", len(args))
	}
	if q.Kind != "" {
		args = append(args, strings.ToLower(q.Kind))
		where += fmt.Sprintf(" AND lower(s.kind) = $%d", len(args))
	}

	from := `FROM sections s JOIN services sv ON sv.service_key = s.service_key WHERE ` + where

	var total int
	if err := p.db.QueryRowContext(ctx, "SELECT count(*) "+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`SELECT s.id, s.service_key, s.kind, s.data, sv.slug, sv.title
		%s
		ORDER BY ts_rank(s.fts, %s) DESC, s.id ASC
		LIMIT %d OFFSET %d`, from, tsQuery, q.Limit, q.Offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var (
			section content.Section
			service content.Service
			data    []byte
		)
		if err := rows.Scan(&section.ID, &section.ServiceKey, &section.Kind, &data, &service.Slug, &service.Title); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		if err := json.Unmarshal(data, &section.Fields); err != nil {
			return nil, 0, fmt.Errorf("pgfts decode section %s: %w", section.ID, err)
		}
		service.Key = section.ServiceKey
		record, ok := recordFor(service, section)
		if !ok {
			continue
		}
		results = append(results, record.result())
	}

	return results, total, rows.Err()
}
