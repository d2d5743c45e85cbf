package placeholder

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const (
	// FallbackImage is used when no image id is given at all.
	FallbackImage = "/images/grass2.0.webp"
	fallbackAlt   = "Fallback image"
	defaultFolder = "home"
)

type Source string

const (
	SourceCatalog    Source = "catalog"
	SourceConvention Source = "convention"
	SourceFallback   Source = "fallback"
)

var knownExtension = regexp.MustCompile(`(?i)\.(webp|jpe?g|png|avif|gif)$`)

// Image is a resolved picture reference. No existence check is performed on
// any of the URLs.
type Image struct {
	ID           string
	Folder       string
	Desktop      string
	Mobile       string
	MobileLowRes string
	Alt          string
	Source       Source
}

type Resolver struct {
	catalog Catalog
	baseURL string
	logger  *zap.Logger
}

type Option func(*Resolver)

// WithBaseURL prefixes every site-relative URL, e.g. to serve from a bucket.
func WithBaseURL(base string) Option {
	return func(r *Resolver) {
		r.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{catalog: catalog, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeID trims, lower-cases and strips a known image extension.
func NormalizeID(raw string) string {
	id := strings.ToLower(strings.TrimSpace(raw))
	return knownExtension.ReplaceAllString(id, "")
}

// AltFromID derives readable alt text from an id.
func AltFromID(id string) string {
	return strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(id))
}

// Resolve maps an image id to URLs: catalog hit, else the conventional
// /images/{folder}/{id}.webp path, else the hard-coded fallback for an empty id.
func (r *Resolver) Resolve(rawID, folder string) Image {
	id := NormalizeID(rawID)
	if id == "" {
		return Image{
			Desktop:      r.url(FallbackImage),
			Mobile:       r.url(FallbackImage),
			MobileLowRes: r.url(FallbackImage),
			Alt:          fallbackAlt,
			Source:       SourceFallback,
		}
	}

	if entry, ok := r.catalog.lookup(id); ok {
		mobile := entry.Mobile
		if mobile == "" {
			mobile = entry.Desktop
		}
		alt := entry.Alt
		if alt == "" {
			alt = AltFromID(id)
		}
		return Image{
			ID:           id,
			Desktop:      r.url(entry.Desktop),
			Mobile:       r.url(mobile),
			MobileLowRes: r.url(mobile),
			Alt:          alt,
			Source:       SourceCatalog,
		}
	}

	folder = strings.ToLower(strings.Trim(strings.TrimSpace(folder), "/"))
	if folder == "" {
		folder = defaultFolder
	}
	r.logger.Debug("image not in catalog, using conventional path",
		zap.String("image_id", id), zap.String("folder", folder))

	base := "/images/" + folder + "/" + id
	return Image{
		ID:           id,
		Folder:       folder,
		Desktop:      r.url(base + ".webp"),
		Mobile:       r.url(base + "-mobile.webp"),
		MobileLowRes: r.url(base + "-mobile-lowres.webp"),
		Alt:          AltFromID(id),
		Source:       SourceConvention,
	}
}

func (r *Resolver) url(path string) string {
	if r.baseURL == "" || !strings.HasPrefix(path, "/") {
		return path
	}
	return r.baseURL + path
}
