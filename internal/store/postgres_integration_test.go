package store

import (
	"errors"
	"testing"
	"time"

	"veas/site/internal/content"
)

func TestPostgresStoreContentRoundTrip(t *testing.T) {
	db, ctx := openTestDB(t)
	if err := ApplyMigrations(ctx, db, Migrations()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	s := NewPostgresStore(db)

	saved, err := s.UpsertService(ctx, content.Service{
		Key:             "noise-survey",
		Slug:            "noise-survey",
		Title:           "Noise Survey",
		CardDescription: "Baseline noise monitoring",
		SortOrder:       2,
		Fields:          content.Fields{"schemaType": "Service"},
	})
	if err != nil {
		t.Fatalf("UpsertService: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected generated service id")
	}

	// Second upsert on the same key keeps the id and updates the title.
	updated, err := s.UpsertService(ctx, content.Service{Key: "noise-survey", Slug: "noise-survey", Title: "Noise Surveys"})
	if err != nil {
		t.Fatalf("UpsertService (update): %v", err)
	}
	if updated.ID != saved.ID {
		t.Fatalf("upsert changed id: %s -> %s", saved.ID, updated.ID)
	}

	got, err := s.GetServiceBySlug(ctx, "noise-survey")
	if err != nil {
		t.Fatalf("GetServiceBySlug: %v", err)
	}
	if got.Title != "Noise Surveys" || got.Key != "noise-survey" {
		t.Fatalf("unexpected service: %+v", got)
	}

	if _, err := s.GetServiceBySlug(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetServiceBySlug(missing) error = %v, want ErrNotFound", err)
	}

	for _, section := range []content.Section{
		{ID: "sec_b", ServiceKey: "noise-survey", Kind: "faq", Fields: content.Fields{"order": 2.0, "faqQuestion": "Why?"}},
		{ID: "sec_a", ServiceKey: "noise-survey", Kind: "hero2", Fields: content.Fields{"order": 1.0, "heroHeading": "Hello"}},
		{ID: "sec_c", ServiceKey: "building-acoustics", Kind: "cta", Fields: content.Fields{}},
	} {
		if _, err := s.UpsertSection(ctx, section); err != nil {
			t.Fatalf("UpsertSection %s: %v", section.ID, err)
		}
	}

	sections, err := s.ListSectionsByServiceKey(ctx, "noise-survey")
	if err != nil {
		t.Fatalf("ListSectionsByServiceKey: %v", err)
	}
	if len(sections) != 2 || sections[0].ID != "sec_a" || sections[1].ID != "sec_b" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
	if sections[0].Fields.String("heroHeading", "") != "Hello" {
		t.Fatalf("fields not decoded: %+v", sections[0].Fields)
	}

	all, err := s.ListAllSections(ctx)
	if err != nil {
		t.Fatalf("ListAllSections: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListAllSections returned %d sections", len(all))
	}

	none, err := s.ListSectionsByServiceKey(ctx, "ghost")
	if err != nil || len(none) != 0 {
		t.Fatalf("ListSectionsByServiceKey(ghost) = %v, %v", none, err)
	}
}

func TestPostgresStoreInsertSubmission(t *testing.T) {
	db, ctx := openTestDB(t)
	if err := ApplyMigrations(ctx, db, Migrations()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	s := NewPostgresStore(db)

	err := s.InsertSubmission(ctx, ContactSubmission{
		Name:             "Alex Example",
		Email:            "alex@example.com",
		Message:          "Please quote for a noise survey.",
		GDPRConsent:      true,
		SubmittedAt:      time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		SubmittedAtLocal: "01/03/2026, 09:30:00",
	})
	if err != nil {
		t.Fatalf("InsertSubmission: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_submissions WHERE email = $1 AND gdpr_consent`, "alex@example.com").Scan(&count); err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 submission, got %d", count)
	}
}
