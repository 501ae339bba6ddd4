package driver

import (
	"context"

	"github.com/agenthands/aurehal/internal/core/model"
)

// Referential is the read-only view of the structure directory. Empty results
// are not errors: nil slices and nil pointers mean "nothing there".
type Referential interface {
	// FindChildren lists the structures whose parent is id.
	FindChildren(ctx context.Context, id model.ID) ([]model.ID, error)
	// FindParents lists the parents of id (zero, one or many).
	FindParents(ctx context.Context, id model.ID) ([]model.ID, error)
	// Describe returns the descriptive fields of id, or nil when unknown.
	Describe(ctx context.Context, id model.ID) (*model.Description, error)
	// CountPublications counts documents affiliated to id, or nil when the
	// search service has no data.
	CountPublications(ctx context.Context, id model.ID) (*int, error)
}
