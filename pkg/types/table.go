package types

import "fmt"

// Entity is implemented by every stored record.
type Entity interface {
	EntityID() string
}

// Table provides uniform CRUD operations for a single entity type.
// Get, Update and Delete return the table's not-found error for unknown ids.
type Table[T Entity] interface {
	// Get retrieves the entity with the given ID.
	Get(id string) (T, error)

	// List returns every entity in insertion order. The slice is a copy.
	List() []T

	// Add appends a new entity. Returns ErrDuplicateID if the id is taken.
	Add(entity T) error

	// Update replaces the stored entity that has the same ID.
	Update(entity T) error

	// Delete removes the entity with the given ID.
	Delete(id string) error
}

// sliceTable implements Table over one of a Snapshot's ordered sequences.
type sliceTable[T Entity] struct {
	rows     *[]T
	notFound error
}

func (t sliceTable[T]) index(id string) int {
	for i, row := range *t.rows {
		if row.EntityID() == id {
			return i
		}
	}
	return -1
}

func (t sliceTable[T]) Get(id string) (T, error) {
	i := t.index(id)
	if i < 0 {
		var zero T
		return zero, fmt.Errorf("%w: %q", t.notFound, id)
	}
	return (*t.rows)[i], nil
}

func (t sliceTable[T]) List() []T {
	out := make([]T, len(*t.rows))
	copy(out, *t.rows)
	return out
}

func (t sliceTable[T]) Add(entity T) error {
	if t.index(entity.EntityID()) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateID, entity.EntityID())
	}
	*t.rows = append(*t.rows, entity)
	return nil
}

func (t sliceTable[T]) Update(entity T) error {
	i := t.index(entity.EntityID())
	if i < 0 {
		return fmt.Errorf("%w: %q", t.notFound, entity.EntityID())
	}
	(*t.rows)[i] = entity
	return nil
}

func (t sliceTable[T]) Delete(id string) error {
	i := t.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", t.notFound, id)
	}
	*t.rows = append((*t.rows)[:i], (*t.rows)[i+1:]...)
	return nil
}
