package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"veas/site/internal/content"
	"veas/site/internal/util"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const selectService = `SELECT id, service_key, slug, title, sort_order, data FROM services`

func (s *PostgresStore) ListServices(ctx context.Context) ([]content.Service, error) {
	rows, err := s.db.QueryContext(ctx, selectService+` ORDER BY sort_order ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := make([]content.Service, 0)
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return services, nil
}

// GetServiceBySlug returns ErrNotFound when no service has the slug.
func (s *PostgresStore) GetServiceBySlug(ctx context.Context, slug string) (content.Service, error) {
	row := s.db.QueryRowContext(ctx, selectService+` WHERE slug = $1`, slug)
	service, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Service{}, ErrNotFound
	}
	return service, err
}

func (s *PostgresStore) UpsertService(ctx context.Context, service content.Service) (content.Service, error) {
	if strings.TrimSpace(service.Key) == "" || strings.TrimSpace(service.Slug) == "" {
		return content.Service{}, fmt.Errorf("upsert service: key and slug are required")
	}
	if service.ID == "" {
		service.ID = util.NewID("svc")
	}
	data, err := json.Marshal(docFromService(service))
	if err != nil {
		return content.Service{}, fmt.Errorf("marshal service %s: %w", service.Key, err)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO services (id, service_key, slug, title, sort_order, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (service_key) DO UPDATE SET
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			sort_order = EXCLUDED.sort_order,
			data = EXCLUDED.data,
			updated_at = NOW()
		RETURNING id
	`, service.ID, service.Key, service.Slug, service.Title, service.SortOrder, data).Scan(&service.ID)
	if err != nil {
		return content.Service{}, fmt.Errorf("upsert service %s: %w", service.Key, err)
	}
	return service, nil
}

const selectSection = `SELECT id, service_key, kind, data FROM sections`

// ListSectionsByServiceKey is an equality match on service_key. Rows come back
// in id order so equal "order" values have a stable tie-break.
func (s *PostgresStore) ListSectionsByServiceKey(ctx context.Context, key string) ([]content.Section, error) {
	return s.querySections(ctx, selectSection+` WHERE service_key = $1 ORDER BY id ASC`, key)
}

func (s *PostgresStore) ListAllSections(ctx context.Context) ([]content.Section, error) {
	return s.querySections(ctx, selectSection+` ORDER BY service_key ASC, id ASC`)
}

func (s *PostgresStore) querySections(ctx context.Context, query string, args ...any) ([]content.Section, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	sections := make([]content.Section, 0)
	for rows.Next() {
		var section content.Section
		var data []byte
		if err := rows.Scan(&section.ID, &section.ServiceKey, &section.Kind, &data); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		if err := json.Unmarshal(data, &section.Fields); err != nil {
			return nil, fmt.Errorf("decode section %s: %w", section.ID, err)
		}
		if section.Fields == nil {
			section.Fields = content.Fields{}
		}
		sections = append(sections, section)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return sections, nil
}

func (s *PostgresStore) UpsertSection(ctx context.Context, section content.Section) (content.Section, error) {
	if strings.TrimSpace(section.ServiceKey) == "" {
		return content.Section{}, fmt.Errorf("upsert section: service key is required")
	}
	if section.ID == "" {
		section.ID = util.NewID("sec")
	}
	if section.Fields == nil {
		section.Fields = content.Fields{}
	}
	data, err := json.Marshal(section.Fields)
	if err != nil {
		return content.Section{}, fmt.Errorf("marshal section %s: %w", section.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sections (id, service_key, kind, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			service_key = EXCLUDED.service_key,
			kind = EXCLUDED.kind,
			data = EXCLUDED.data,
			updated_at = NOW()
	`, section.ID, section.ServiceKey, section.Kind, data)
	if err != nil {
		return content.Section{}, fmt.Errorf("upsert section %s: %w", section.ID, err)
	}
	return section, nil
}

func (s *PostgresStore) InsertSubmission(ctx context.Context, submission ContactSubmission) error {
	if submission.ID == "" {
		submission.ID = util.NewID("sub")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_submissions
			(id, name, company, email, telephone, project_address, message, gdpr_consent, submitted_at, submitted_at_local)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		submission.ID,
		submission.Name,
		submission.Company,
		submission.Email,
		submission.Telephone,
		submission.ProjectAddress,
		submission.Message,
		submission.GDPRConsent,
		submission.SubmittedAt,
		submission.SubmittedAtLocal,
	)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (content.Service, error) {
	var service content.Service
	var data []byte
	if err := row.Scan(&service.ID, &service.Key, &service.Slug, &service.Title, &service.SortOrder, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return content.Service{}, err
		}
		return content.Service{}, fmt.Errorf("scan service: %w", err)
	}
	var doc serviceDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return content.Service{}, fmt.Errorf("decode service %s: %w", service.Key, err)
	}
	doc.apply(&service)
	return service, nil
}
