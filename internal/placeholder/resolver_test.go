package placeholder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	tests := map[string]string{
		"  Noise-Survey-Hero.WEBP ": "noise-survey-hero",
		"meeting1.jpg":              "meeting1",
		"photo.jpeg":                "photo",
		"plan.png":                  "plan",
		"grass2.0":                  "grass2.0",
		"archive.tar":               "archive.tar",
		"":                          "",
	}
	for raw, want := range tests {
		assert.Equal(t, want, NormalizeID(raw), "NormalizeID(%q)", raw)
	}
}

func TestResolveCatalogHit(t *testing.T) {
	r := NewResolver(DefaultCatalog())

	img := r.Resolve("Meeting1.webp", "noise-survey")
	assert.Equal(t, SourceCatalog, img.Source)
	assert.Equal(t, "/images/home/meeting1.webp", img.Desktop)
	assert.Equal(t, "/images/home/meeting1.webp", img.Mobile, "mobile falls back to desktop")
	assert.Equal(t, "Project meeting with an acoustic consultant", img.Alt)
}

func TestResolveCatalogAlias(t *testing.T) {
	img := NewResolver(DefaultCatalog()).Resolve("grass", "")
	assert.Equal(t, SourceCatalog, img.Source)
	assert.Equal(t, "/images/home/grass2.0.webp", img.Desktop)
}

func TestResolveConventionalPath(t *testing.T) {
	r := NewResolver(DefaultCatalog())

	img := r.Resolve("site-inspection_2.png", "Noise-Survey")
	assert.Equal(t, SourceConvention, img.Source)
	assert.Equal(t, "/images/noise-survey/site-inspection_2.webp", img.Desktop)
	assert.Equal(t, "/images/noise-survey/site-inspection_2-mobile.webp", img.Mobile)
	assert.Equal(t, "/images/noise-survey/site-inspection_2-mobile-lowres.webp", img.MobileLowRes)
	assert.Equal(t, "site inspection 2", img.Alt)

	home := r.Resolve("unknown", "")
	assert.Equal(t, "/images/home/unknown.webp", home.Desktop)
}

func TestResolveEmptyID(t *testing.T) {
	img := NewResolver(DefaultCatalog()).Resolve("   ", "noise-survey")
	assert.Equal(t, SourceFallback, img.Source)
	assert.Equal(t, FallbackImage, img.Desktop)
	assert.Equal(t, FallbackImage, img.Mobile)
}

func TestResolveWithBaseURL(t *testing.T) {
	r := NewResolver(DefaultCatalog(), WithBaseURL("https://cdn.example.com/site/"))
	assert.Equal(t, "https://cdn.example.com/site/images/home/meeting1.webp", r.Resolve("meeting1", "").Desktop)
	assert.Equal(t, "https://cdn.example.com/site"+FallbackImage, r.Resolve("", "").Desktop)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.yaml")
	data := []byte(`images:
  - id: Office-Front.webp
    desktop: /images/home/office-front.webp
    mobile: /images/home/office-front-mobile.webp
    alt: Our office
aliases:
  office: office-front
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	catalog, err := LoadCatalogFile(path)
	require.NoError(t, err)

	r := NewResolver(catalog)
	img := r.Resolve("office", "")
	assert.Equal(t, SourceCatalog, img.Source)
	assert.Equal(t, "/images/home/office-front-mobile.webp", img.Mobile)
	assert.Equal(t, "Our office", img.Alt)

	assert.Equal(t, SourceCatalog, r.Resolve("meeting1", "").Source, "defaults kept")
}

func TestLoadCatalogFileRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.yaml")
	require.NoError(t, os.WriteFile(path, []byte("images:\n  - id: hero\n"), 0o644))

	_, err := LoadCatalogFile(path)
	assert.Error(t, err)
}

func TestDefaultCatalogIsNotShared(t *testing.T) {
	a := DefaultCatalog()
	a.Entries["meeting1"] = Entry{Desktop: "/changed.webp"}
	assert.Equal(t, "/images/home/meeting1.webp", DefaultCatalog().Entries["meeting1"].Desktop)
}
