package model

// Status is the lifecycle state of a structure in the referential.
type Status string

const (
	StatusValid    Status = "VALID"
	StatusOld      Status = "OLD"
	StatusIncoming Status = "INCOMING"
)

func Statuses() []Status {
	return []Status{StatusValid, StatusOld, StatusIncoming}
}

// StructureType is the category of a structure.
type StructureType string

const (
	TypeInstitution        StructureType = "institution"
	TypeRegroupInstitution StructureType = "regroupinstitution"
	TypeRegroupLaboratory  StructureType = "regrouplaboratory"
	TypeLaboratory         StructureType = "laboratory"
	TypeDepartment         StructureType = "department"
	TypeResearchTeam       StructureType = "researchteam"
)

func StructureTypes() []StructureType {
	return []StructureType{
		TypeInstitution,
		TypeRegroupInstitution,
		TypeRegroupLaboratory,
		TypeLaboratory,
		TypeDepartment,
		TypeResearchTeam,
	}
}

// Description holds the descriptive fields of one referential record.
type Description struct {
	Acronym string        `json:"acronym_s,omitempty"`
	Label   string        `json:"label_s,omitempty"`
	Status  Status        `json:"valid_s,omitempty"`
	Type    StructureType `json:"type_s,omitempty"`
	Address string        `json:"address_s,omitempty"`
	URL     string        `json:"url_s,omitempty"`
}

// StructureRecord is the enriched view of one harvested identifier.
// NbPublis is nil when the search service returned no count.
type StructureRecord struct {
	ID       ID   `json:"id"`
	NbPublis *int `json:"nb_publis"`
	Description
	Described bool `json:"described"`
}

// NewStructureRecord merges a description (possibly nil) and a count.
func NewStructureRecord(id ID, desc *Description, count *int) StructureRecord {
	rec := StructureRecord{ID: id, NbPublis: count}
	if desc != nil {
		rec.Description = *desc
		rec.Described = true
	}
	return rec
}

// Publications returns the count, treating unknown as zero.
func (r StructureRecord) Publications() int {
	if r.NbPublis == nil {
		return 0
	}
	return *r.NbPublis
}
