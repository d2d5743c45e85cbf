package content

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SectionSource fetches every section whose serviceKey equals key.
type SectionSource interface {
	ListSectionsByServiceKey(ctx context.Context, key string) ([]Section, error)
}

// KindRegistry reports whether a kind has a renderer and whether it is grouped.
type KindRegistry interface {
	Lookup(kind string) (grouped bool, ok bool)
}

type Resolver struct {
	source SectionSource
	kinds  KindRegistry
	logger *zap.Logger
}

func NewResolver(source SectionSource, kinds KindRegistry, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, kinds: kinds, logger: logger}
}

// Resolve returns the ordered blocks for a service. It never fails: a store
// error, an unknown service and a service without sections all yield nil.
func (r *Resolver) Resolve(ctx context.Context, serviceKey string) []Block {
	serviceKey = strings.TrimSpace(serviceKey)
	if serviceKey == "" {
		return nil
	}

	sections, err := r.source.ListSectionsByServiceKey(ctx, serviceKey)
	if err != nil {
		r.logger.Warn("section fetch failed, rendering without sections",
			zap.String("service_key", serviceKey), zap.Error(err))
		return nil
	}
	if len(sections) == 0 {
		r.logger.Warn("no sections for service", zap.String("service_key", serviceKey))
		return nil
	}
	return r.Group(serviceKey, sections)
}

// Group sorts sections by order and folds them into blocks. Ties keep the
// incoming order.
func (r *Resolver) Group(serviceKey string, sections []Section) []Block {
	sorted := make([]Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})

	emitted := make(map[string]bool)
	var blocks []Block
	for _, section := range sorted {
		kind := section.NormalizedKind()
		if kind == "" {
			r.logger.Warn("section without kind skipped",
				zap.String("service_key", serviceKey), zap.String("section_id", section.ID))
			continue
		}

		grouped, ok := r.kinds.Lookup(kind)
		if !ok {
			r.logger.Warn("no renderer for section kind",
				zap.String("kind", kind), zap.String("section_id", section.ID), zap.String("service_key", serviceKey))
			continue
		}

		if emitted[kind] {
			if !grouped {
				r.logger.Warn("duplicate singular section suppressed",
					zap.String("kind", kind), zap.String("section_id", section.ID), zap.String("service_key", serviceKey))
			}
			continue
		}
		emitted[kind] = true

		if !grouped {
			blocks = append(blocks, Block{Kind: kind, Sections: []Section{section}})
			continue
		}

		var members []Section
		for _, candidate := range sorted {
			if candidate.NormalizedKind() == kind {
				members = append(members, candidate)
			}
		}
		blocks = append(blocks, Block{Kind: kind, Grouped: true, Sections: members})
	}
	return blocks
}
