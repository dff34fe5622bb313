package engine

import (
	"sort"
	"strings"

	"github.com/maya/out-and-about/pkg/domain"
)

const defaultSimilarLimit = 6

// RankSimilar filters the pool into the bounded "more like this" shelf for
// the focused entity. Events only match events and locations only match
// locations. Exact category-name matches strictly outrank everything else;
// a same-type fallback applies only when no category matches exist, and
// proximity is a tiebreak, never a filter. The result is empty when there is
// no basis to rank on (no categories and no coordinates), in which case the
// caller omits the shelf.
func RankSimilar(focus domain.Entity, pool []domain.Entity, limit int) []domain.Entity {
	if focus == nil {
		return nil
	}
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	core := focus.EntityCore()
	names := categoryNames(focus)
	if len(names) == 0 && !core.HasCoordinates() {
		return nil
	}

	var sameKind []domain.Entity
	for _, item := range pool {
		if item.Kind() != focus.Kind() || item.EntityCore().ID == core.ID {
			continue
		}
		sameKind = append(sameKind, item)
	}
	if len(sameKind) == 0 {
		return nil
	}

	var matched []domain.Entity
	for _, item := range sameKind {
		if categoryOverlap(names, categoryNames(item)) {
			matched = append(matched, item)
		}
	}

	selected := matched
	if len(selected) == 0 {
		for _, item := range sameKind {
			if sameTypeFallback(focus, item) {
				selected = append(selected, item)
			}
		}
	}
	if len(selected) == 0 {
		selected = sameKind
	}

	if core.HasCoordinates() {
		sort.SliceStable(selected, func(i, j int) bool {
			return shelfDistance(core, selected[i]) < shelfDistance(core, selected[j])
		})
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// categoryNames collects every lowercase category name an entity carries,
// including a location's own category object.
func categoryNames(entity domain.Entity) map[string]bool {
	names := make(map[string]bool)
	for _, c := range entity.EntityCore().Categories {
		if c.Name != "" {
			names[strings.ToLower(c.Name)] = true
		}
	}
	if loc, ok := entity.(*domain.Location); ok && loc.Category != nil && loc.Category.Name != "" {
		names[strings.ToLower(loc.Category.Name)] = true
	}
	return names
}

func categoryOverlap(a, b map[string]bool) bool {
	for name := range a {
		if b[name] {
			return true
		}
	}
	return false
}

func sameTypeFallback(focus, candidate domain.Entity) bool {
	switch f := focus.(type) {
	case *domain.Location:
		c, ok := candidate.(*domain.Location)
		return ok && f.Type != "" && strings.EqualFold(f.Type, c.Type)
	case *domain.Event:
		c, ok := candidate.(*domain.Event)
		return ok && f.Subtype == c.Subtype
	}
	return false
}

// shelfDistance pushes coordinate-less candidates behind everything with a
// real distance.
func shelfDistance(from *domain.Core, candidate domain.Entity) float64 {
	core := candidate.EntityCore()
	if !core.HasCoordinates() || !from.HasCoordinates() {
		return float64(1 << 20)
	}
	return domain.DistanceKm(*from.Coordinates, *core.Coordinates)
}
