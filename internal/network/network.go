// Package network turns a harvest into the node/edge payload consumed by the
// vis-network widget, applying the user's color, size and filter choices.
package network

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agenthands/aurehal/internal/core/model"
)

const (
	ColorByStatus = "valid_s"
	ColorByType   = "type_s"

	EdgeColor    = "#97C2FC"
	UnknownColor = "#BDBDBD"

	defaultNodeSize = 7
	emptyNodeSize   = 5
)

var Palette = map[string]string{
	string(model.StatusValid):            "#FFB300",
	string(model.StatusOld):              "#817066",
	string(model.StatusIncoming):         "#A6BDD7",
	string(model.TypeInstitution):        "#007D34",
	string(model.TypeRegroupInstitution): "#00538A",
	string(model.TypeRegroupLaboratory):  "#FF7A5C",
	string(model.TypeLaboratory):         "#F6768E",
	string(model.TypeDepartment):         "#F13A13",
	string(model.TypeResearchTeam):       "#7F180D",
}

type Options struct {
	ColorBy            string   `json:"color_by"`
	SizeByPublications bool     `json:"size_by_publications"`
	Statuses           []string `json:"statuses"`
	Types              []string `json:"types"`
	Search             string   `json:"search"`
	Hierarchical       bool     `json:"hierarchical"`
	LayoutDirection    string   `json:"layout_direction"`
}

type Color struct {
	Color string `json:"color"`
}

type Node struct {
	model.StructureRecord
	Label string `json:"label"`
	Title string `json:"title"`
	Shape string `json:"shape"`
	Size  int    `json:"size"`
	Color string `json:"color"`
}

type Edge struct {
	ID    string   `json:"id"`
	From  model.ID `json:"from"`
	To    model.ID `json:"to"`
	Color Color    `json:"color"`
}

type Payload struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build filters and decorates the harvest. Edges whose endpoints are both
// kept survive; the others are dropped with their nodes.
func Build(h *model.Harvest, opts Options) Payload {
	statuses := toSet(opts.Statuses)
	types := toSet(opts.Types)
	search := strings.TrimSpace(opts.Search)

	payload := Payload{Nodes: []Node{}, Edges: []Edge{}}
	kept := make(map[model.ID]struct{}, len(h.Records))

	for _, rec := range h.Records {
		title := Title(rec)
		if !allowed(statuses, string(rec.Status)) || !allowed(types, string(rec.Type)) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(search)) {
			continue
		}

		kept[rec.ID] = struct{}{}
		payload.Nodes = append(payload.Nodes, Node{
			StructureRecord: rec,
			Label:           Label(rec),
			Title:           title,
			Shape:           "dot",
			Size:            Size(rec, opts.SizeByPublications),
			Color:           NodeColor(rec, opts.ColorBy),
		})
	}

	for _, e := range h.Edges {
		_, fromKept := kept[e.From]
		_, toKept := kept[e.To]
		if !fromKept || !toKept {
			continue
		}
		payload.Edges = append(payload.Edges, Edge{
			ID:    e.Key(),
			From:  e.From,
			To:    e.To,
			Color: Color{Color: EdgeColor},
		})
	}

	return payload
}

// Label prefers the acronym, then the full label, then the identifier.
func Label(rec model.StructureRecord) string {
	switch {
	case rec.Acronym != "":
		return rec.Acronym
	case rec.Label != "":
		return rec.Label
	default:
		return rec.ID.String()
	}
}

// Title is the tooltip, also used by the free-text search.
func Title(rec model.StructureRecord) string {
	label := rec.Label
	if label == "" {
		label = Label(rec)
	}
	nb := "?"
	if rec.NbPublis != nil {
		nb = fmt.Sprint(*rec.NbPublis)
	}
	status := string(rec.Status)
	if status == "" {
		status = "UNKNOWN"
	}
	return fmt.Sprintf("%s (id:%s) (%s publis) (%s)", label, rec.ID, nb, status)
}

// Size is fixed unless sizing by publications, in which case it is
// round(ln(n*5)); structures without publications get emptyNodeSize.
func Size(rec model.StructureRecord, byPublications bool) int {
	if !byPublications {
		return defaultNodeSize
	}
	n := rec.Publications()
	if n <= 0 {
		return emptyNodeSize
	}
	return int(math.Round(math.Log(float64(n) * 5)))
}

func NodeColor(rec model.StructureRecord, colorBy string) string {
	key := string(rec.Status)
	if colorBy == ColorByType {
		key = string(rec.Type)
	}
	if c, ok := Palette[key]; ok {
		return c
	}
	return UnknownColor
}

type LegendEntry struct {
	Key   string `json:"key"`
	Color string `json:"color"`
}

type Legend struct {
	Statuses []LegendEntry `json:"statuses"`
	Types    []LegendEntry `json:"types"`
}

func NewLegend() Legend {
	var l Legend
	for _, s := range model.Statuses() {
		l.Statuses = append(l.Statuses, LegendEntry{Key: string(s), Color: Palette[string(s)]})
	}
	for _, t := range model.StructureTypes() {
		l.Types = append(l.Types, LegendEntry{Key: string(t), Color: Palette[string(t)]})
	}
	return l
}

// Rows returns the records for the table view, sorted by identifier.
func Rows(records []model.StructureRecord) []model.StructureRecord {
	rows := make([]model.StructureRecord, len(records))
	copy(rows, records)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ID.String(), rows[j].ID.String()
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return rows
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// allowed keeps unknown values so that partial records are not hidden.
func allowed(set map[string]struct{}, value string) bool {
	if set == nil || value == "" {
		return true
	}
	_, ok := set[value]
	return ok
}
