package dedupe

import (
	"github.com/agenthands/aurehal/internal/core/model"
)

// Edges returns the distinct edges of in, keeping the first occurrence of each
// ordered (from, to) pair. The input slice is not modified.
func Edges(in []model.Edge) []model.Edge {
	if len(in) == 0 {
		return []model.Edge{}
	}

	seen := make(map[model.Edge]struct{}, len(in))
	out := make([]model.Edge, 0, len(in))
	for _, e := range in {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// IDs collapses repeated identifiers, preserving order and dropping empty ones.
func IDs(in []model.ID) []model.ID {
	seen := make(map[model.ID]struct{}, len(in))
	out := make([]model.ID, 0, len(in))
	for _, id := range in {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
