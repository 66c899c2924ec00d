// package models defines the data model for the playlist reconciliation service
package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/dzx/internal/shared"
)

// Model is a stored record. Records carry both an opaque ID and a sequence
// number assigned on insert, and users may refer to either.
type Model interface {
	ID() string
	Sequence() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the storage contract for one model type.
//
// List criteria are exact matches on column names and unknown keys are
// ignored. Results come back in sequence order, oldest first.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	GetBySequence(sequence int) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

// Resolve looks up a record by a user supplied reference. All-digit
// references are sequence numbers; anything else is an ID.
func Resolve[T Model](repo Repository[T], ref string) (T, error) {
	if ref == "" {
		var zero T
		return zero, fmt.Errorf("%w: plan ID or sequence", shared.ErrMissingArgument)
	}
	if seq, err := strconv.Atoi(ref); err == nil {
		return repo.GetBySequence(seq)
	}
	return repo.Get(ref)
}
