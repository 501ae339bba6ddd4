package model

import (
	"fmt"
	"strings"
	"time"
)

// Direction selects which side of the hierarchy a traversal walks.
type Direction string

const (
	Descendants Direction = "desc"
	Ancestors   Direction = "asc"
)

var ErrInvalidDirection = fmt.Errorf("direction must be %q or %q", Descendants, Ancestors)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "descendants", "children":
		return Descendants, nil
	case "asc", "ancestors", "parents":
		return Ancestors, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidDirection, s)
	}
}

// TraversalResult is the deduplicated edge list discovered from Root.
type TraversalResult struct {
	Root      ID        `json:"root"`
	Direction Direction `json:"direction"`
	Edges     []Edge    `json:"edges"`
}

// IDs is the union of every edge endpoint in first-seen order. A result with
// no edges yields the root alone so that it can still be described.
func (r TraversalResult) IDs() []ID {
	if len(r.Edges) == 0 {
		if r.Root.IsZero() {
			return nil
		}
		return []ID{r.Root}
	}

	seen := make(map[ID]struct{}, len(r.Edges)+1)
	ids := make([]ID, 0, len(r.Edges)+1)
	add := func(id ID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, e := range r.Edges {
		add(e.From)
		add(e.To)
	}
	return ids
}

type HarvestStatus string

const (
	HarvestOK    HarvestStatus = "ok"
	HarvestEmpty HarvestStatus = "empty"
)

// Harvest is the outcome of one user request: traversal plus enrichment.
type Harvest struct {
	ID        string            `json:"harvest_id"`
	Root      ID                `json:"root"`
	Direction Direction         `json:"direction"`
	Status    HarvestStatus     `json:"status"`
	Edges     []Edge            `json:"edges"`
	Records   []StructureRecord `json:"records"`
	Logs      []string          `json:"logs,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration_ns"`
}

// Record looks up the record for id.
func (h *Harvest) Record(id ID) (StructureRecord, bool) {
	for _, r := range h.Records {
		if r.ID == id {
			return r, true
		}
	}
	return StructureRecord{}, false
}
