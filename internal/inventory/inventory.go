// Package inventory implements CRUD over equipment and people with the
// validation and referential checks that keep the checkout ledger sound.
// Every operation works on a loaded Snapshot; persistence is the caller's
// concern.
package inventory

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// EquipmentInput carries the fields accepted when adding equipment.
type EquipmentInput struct {
	Name        string `json:"name"`
	Tag         string `json:"tag"`
	Description string `json:"description"`
}

// EquipmentPatch carries the fields to change on existing equipment. Nil
// fields are left untouched.
type EquipmentPatch struct {
	Name        *string `json:"name"`
	Tag         *string `json:"tag"`
	Description *string `json:"description"`
}

// Empty reports whether no field was provided.
func (p EquipmentPatch) Empty() bool {
	return p.Name == nil && p.Tag == nil && p.Description == nil
}

// PersonInput carries the fields accepted when adding a person.
type PersonInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PersonPatch carries the fields to change on an existing person.
type PersonPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Empty reports whether no field was provided.
func (p PersonPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil
}

// requireName trims name and rejects it when nothing is left.
func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", types.ErrNameRequired
	}
	return name, nil
}

// AddEquipment creates available equipment with a fresh id.
func AddEquipment(snap *types.Snapshot, in EquipmentInput) (types.Equipment, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return types.Equipment{}, err
	}
	e := types.Equipment{
		ID:          types.NewID(),
		Name:        name,
		Tag:         strings.TrimSpace(in.Tag),
		Description: strings.TrimSpace(in.Description),
		Status:      types.StatusAvailable,
	}
	if err := snap.EquipmentTable().Add(e); err != nil {
		return types.Equipment{}, fmt.Errorf("add equipment: %w", err)
	}
	return e, nil
}

// GetEquipment returns the equipment with the given id.
func GetEquipment(snap *types.Snapshot, id string) (types.Equipment, error) {
	return snap.EquipmentTable().Get(id)
}

// EquipmentFilter narrows ListEquipment. Zero fields match everything.
type EquipmentFilter struct {
	// Status keeps only equipment in that state.
	Status string
	// Query keeps equipment whose name, tag or current holder's name
	// contains it, ignoring case.
	Query string
}

// ListEquipment returns the equipment matching filter in insertion order.
func ListEquipment(snap *types.Snapshot, filter EquipmentFilter) ([]types.Equipment, error) {
	if filter.Status != "" && !types.IsValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidStatus, filter.Status)
	}
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	all := snap.EquipmentTable().List()
	out := make([]types.Equipment, 0, len(all))
	for _, e := range all {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if query != "" && !matchesQuery(snap, e, query) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func matchesQuery(snap *types.Snapshot, e types.Equipment, query string) bool {
	if strings.Contains(strings.ToLower(e.Name), query) || strings.Contains(strings.ToLower(e.Tag), query) {
		return true
	}
	if e.CheckedOutTo == nil {
		return false
	}
	holder, err := snap.PeopleTable().Get(*e.CheckedOutTo)
	return err == nil && strings.Contains(strings.ToLower(holder.Name), query)
}

// UpdateEquipment applies patch to the descriptive fields of the equipment.
// Status and the checkout mirror fields are never touched here.
func UpdateEquipment(snap *types.Snapshot, id string, patch EquipmentPatch) (types.Equipment, error) {
	if patch.Empty() {
		return types.Equipment{}, types.ErrNoFields
	}
	table := snap.EquipmentTable()
	e, err := table.Get(id)
	if err != nil {
		return types.Equipment{}, err
	}
	if patch.Name != nil {
		name, err := requireName(*patch.Name)
		if err != nil {
			return types.Equipment{}, err
		}
		e.Name = name
	}
	if patch.Tag != nil {
		e.Tag = strings.TrimSpace(*patch.Tag)
	}
	if patch.Description != nil {
		e.Description = strings.TrimSpace(*patch.Description)
	}
	if err := table.Update(e); err != nil {
		return types.Equipment{}, err
	}
	return e, nil
}

// DeleteEquipment removes equipment that is not checked out. Its checkout
// history is kept.
func DeleteEquipment(snap *types.Snapshot, id string) error {
	table := snap.EquipmentTable()
	e, err := table.Get(id)
	if err != nil {
		return err
	}
	if e.IsCheckedOut() {
		return fmt.Errorf("%w: %q", types.ErrEquipmentCheckedOut, id)
	}
	return table.Delete(id)
}

// AddPerson creates a person with a fresh id.
func AddPerson(snap *types.Snapshot, in PersonInput) (types.Person, error) {
	name, err := requireName(in.Name)
	if err != nil {
		return types.Person{}, err
	}
	p := types.Person{
		ID:    types.NewID(),
		Name:  name,
		Email: strings.TrimSpace(in.Email),
		Role:  strings.TrimSpace(in.Role),
	}
	if err := snap.PeopleTable().Add(p); err != nil {
		return types.Person{}, fmt.Errorf("add person: %w", err)
	}
	return p, nil
}

// GetPerson returns the person with the given id.
func GetPerson(snap *types.Snapshot, id string) (types.Person, error) {
	return snap.PeopleTable().Get(id)
}

// ListPeople returns all people in insertion order.
func ListPeople(snap *types.Snapshot) []types.Person {
	return snap.PeopleTable().List()
}

// UpdatePerson applies patch to the person.
func UpdatePerson(snap *types.Snapshot, id string, patch PersonPatch) (types.Person, error) {
	if patch.Empty() {
		return types.Person{}, types.ErrNoFields
	}
	table := snap.PeopleTable()
	p, err := table.Get(id)
	if err != nil {
		return types.Person{}, err
	}
	if patch.Name != nil {
		name, err := requireName(*patch.Name)
		if err != nil {
			return types.Person{}, err
		}
		p.Name = name
	}
	if patch.Email != nil {
		p.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Role != nil {
		p.Role = strings.TrimSpace(*patch.Role)
	}
	if err := table.Update(p); err != nil {
		return types.Person{}, err
	}
	return p, nil
}

// DeletePerson removes a person who holds no equipment.
func DeletePerson(snap *types.Snapshot, id string) error {
	table := snap.PeopleTable()
	if _, err := table.Get(id); err != nil {
		return err
	}
	for i := range snap.Equipment {
		if snap.Equipment[i].HeldBy(id) {
			return fmt.Errorf("%w: %q holds %q", types.ErrPersonHoldsEquipment, id, snap.Equipment[i].ID)
		}
	}
	return table.Delete(id)
}
