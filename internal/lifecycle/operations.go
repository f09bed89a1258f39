package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mesh-intelligence/ellie/internal/inventory"
	"github.com/mesh-intelligence/ellie/internal/ledger"
	"github.com/mesh-intelligence/ellie/pkg/types"
)

func equipmentAttr(id string) attribute.KeyValue { return attribute.String("equipment.id", id) }
func personAttr(id string) attribute.KeyValue    { return attribute.String("person.id", id) }

// AddEquipment creates equipment.
func (s *Service) AddEquipment(ctx context.Context, in inventory.EquipmentInput) (types.Equipment, error) {
	return mutate(ctx, s, "add_equipment", nil, func(snap *types.Snapshot, _ time.Time) (types.Equipment, error) {
		return inventory.AddEquipment(snap, in)
	})
}

// UpdateEquipment patches equipment fields.
func (s *Service) UpdateEquipment(ctx context.Context, id string, patch inventory.EquipmentPatch) (types.Equipment, error) {
	attrs := []attribute.KeyValue{equipmentAttr(id)}
	return mutate(ctx, s, "update_equipment", attrs, func(snap *types.Snapshot, _ time.Time) (types.Equipment, error) {
		return inventory.UpdateEquipment(snap, id, patch)
	})
}

// DeleteEquipment removes equipment that is not checked out.
func (s *Service) DeleteEquipment(ctx context.Context, id string) error {
	attrs := []attribute.KeyValue{equipmentAttr(id)}
	_, err := mutate(ctx, s, "delete_equipment", attrs, func(snap *types.Snapshot, _ time.Time) (struct{}, error) {
		return struct{}{}, inventory.DeleteEquipment(snap, id)
	})
	return err
}

// GetEquipment returns one equipment item.
func (s *Service) GetEquipment(ctx context.Context, id string) (types.Equipment, error) {
	attrs := []attribute.KeyValue{equipmentAttr(id)}
	return query(ctx, s, "get_equipment", attrs, func(snap *types.Snapshot, _ time.Time) (types.Equipment, error) {
		return inventory.GetEquipment(snap, id)
	})
}

// ListEquipment returns the equipment matching filter.
func (s *Service) ListEquipment(ctx context.Context, filter inventory.EquipmentFilter) ([]types.Equipment, error) {
	attrs := []attribute.KeyValue{attribute.String("status", filter.Status)}
	return query(ctx, s, "list_equipment", attrs, func(snap *types.Snapshot, _ time.Time) ([]types.Equipment, error) {
		return inventory.ListEquipment(snap, filter)
	})
}

// AddPerson creates a person.
func (s *Service) AddPerson(ctx context.Context, in inventory.PersonInput) (types.Person, error) {
	return mutate(ctx, s, "add_person", nil, func(snap *types.Snapshot, _ time.Time) (types.Person, error) {
		return inventory.AddPerson(snap, in)
	})
}

// UpdatePerson patches person fields.
func (s *Service) UpdatePerson(ctx context.Context, id string, patch inventory.PersonPatch) (types.Person, error) {
	attrs := []attribute.KeyValue{personAttr(id)}
	return mutate(ctx, s, "update_person", attrs, func(snap *types.Snapshot, _ time.Time) (types.Person, error) {
		return inventory.UpdatePerson(snap, id, patch)
	})
}

// DeletePerson removes a person who holds no equipment.
func (s *Service) DeletePerson(ctx context.Context, id string) error {
	attrs := []attribute.KeyValue{personAttr(id)}
	_, err := mutate(ctx, s, "delete_person", attrs, func(snap *types.Snapshot, _ time.Time) (struct{}, error) {
		return struct{}{}, inventory.DeletePerson(snap, id)
	})
	return err
}

// GetPerson returns one person.
func (s *Service) GetPerson(ctx context.Context, id string) (types.Person, error) {
	attrs := []attribute.KeyValue{personAttr(id)}
	return query(ctx, s, "get_person", attrs, func(snap *types.Snapshot, _ time.Time) (types.Person, error) {
		return inventory.GetPerson(snap, id)
	})
}

// ListPeople returns all people.
func (s *Service) ListPeople(ctx context.Context) ([]types.Person, error) {
	return query(ctx, s, "list_people", nil, func(snap *types.Snapshot, _ time.Time) ([]types.Person, error) {
		return inventory.ListPeople(snap), nil
	})
}

// Checkout checks equipment out to a person.
func (s *Service) Checkout(ctx context.Context, equipmentID, personID string) (types.Checkout, error) {
	attrs := []attribute.KeyValue{equipmentAttr(equipmentID), personAttr(personID)}
	return mutate(ctx, s, "checkout", attrs, func(snap *types.Snapshot, now time.Time) (types.Checkout, error) {
		return ledger.Checkout(snap, equipmentID, personID, now)
	})
}

// Checkin returns equipment and yields the closed checkout.
func (s *Service) Checkin(ctx context.Context, equipmentID string) (types.Checkout, error) {
	attrs := []attribute.KeyValue{equipmentAttr(equipmentID)}
	return mutate(ctx, s, "checkin", attrs, func(snap *types.Snapshot, now time.Time) (types.Checkout, error) {
		return ledger.Checkin(snap, equipmentID, now)
	})
}

// Transfer hands checked-out equipment to another person and yields the new
// checkout.
func (s *Service) Transfer(ctx context.Context, equipmentID, personID string) (types.Checkout, error) {
	attrs := []attribute.KeyValue{equipmentAttr(equipmentID), personAttr(personID)}
	return mutate(ctx, s, "transfer", attrs, func(snap *types.Snapshot, now time.Time) (types.Checkout, error) {
		return ledger.Transfer(snap, equipmentID, personID, now)
	})
}

// History lists every checkout of the equipment.
func (s *Service) History(ctx context.Context, equipmentID string) ([]types.Checkout, error) {
	attrs := []attribute.KeyValue{equipmentAttr(equipmentID)}
	return query(ctx, s, "history", attrs, func(snap *types.Snapshot, _ time.Time) ([]types.Checkout, error) {
		return ledger.History(snap, equipmentID)
	})
}

// Overdue lists active checkouts past their due date.
func (s *Service) Overdue(ctx context.Context) ([]types.Checkout, error) {
	return query(ctx, s, "overdue", nil, func(snap *types.Snapshot, now time.Time) ([]types.Checkout, error) {
		return ledger.Overdue(snap, now), nil
	})
}

// Init writes the current document back under the location lock, creating an
// empty one on first run. A document that fails the ledger check is left
// untouched and reported.
func (s *Service) Init(ctx context.Context) error {
	_, err := mutate(ctx, s, "init", nil, func(*types.Snapshot, time.Time) (struct{}, error) {
		return struct{}{}, nil
	})
	return err
}

// Location names the storage the service reads and writes.
func (s *Service) Location() string {
	return s.backend.Location()
}
