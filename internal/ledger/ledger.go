// Package ledger implements the checkout state machine. Each equipment item is
// either available or checked out, and a checked-out item has exactly one
// active checkout record. Checkout, Checkin and Transfer validate every
// precondition before writing so a failed call leaves the snapshot as it was.
package ledger

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// activeIndex returns the index of the active checkout for equipmentID, or
// -1 when there is none.
func activeIndex(snap *types.Snapshot, equipmentID string) int {
	for i := range snap.Checkouts {
		c := &snap.Checkouts[i]
		if c.EquipmentID == equipmentID && c.IsActive() {
			return i
		}
	}
	return -1
}

func equipmentIndex(snap *types.Snapshot, id string) (int, error) {
	for i := range snap.Equipment {
		if snap.Equipment[i].ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", types.ErrEquipmentNotFound, id)
}

func requirePerson(snap *types.Snapshot, id string) error {
	_, err := snap.PeopleTable().Get(id)
	return err
}

// heldIndex locates equipment that must currently be checked out and its
// active record. It distinguishes a plain state error from a disagreement
// between equipment status and the ledger.
func heldIndex(snap *types.Snapshot, equipmentID string) (eq, active int, err error) {
	eq, err = equipmentIndex(snap, equipmentID)
	if err != nil {
		return -1, -1, err
	}
	active = activeIndex(snap, equipmentID)
	if !snap.Equipment[eq].IsCheckedOut() {
		if active >= 0 {
			return -1, -1, fmt.Errorf("%w: %q is available but has active checkout %q",
				types.ErrLedgerMismatch, equipmentID, snap.Checkouts[active].ID)
		}
		return -1, -1, fmt.Errorf("%w: %q", types.ErrNoActiveCheckout, equipmentID)
	}
	if active < 0 {
		return -1, -1, fmt.Errorf("%w: %q is checked out with no active checkout",
			types.ErrLedgerMismatch, equipmentID)
	}
	return eq, active, nil
}

// Checkout opens a checkout of the equipment for the person at now. The due
// date is now plus the fixed loan period.
func Checkout(snap *types.Snapshot, equipmentID, personID string, now time.Time) (types.Checkout, error) {
	eq, err := equipmentIndex(snap, equipmentID)
	if err != nil {
		return types.Checkout{}, err
	}
	if err := requirePerson(snap, personID); err != nil {
		return types.Checkout{}, err
	}
	active := activeIndex(snap, equipmentID)
	switch checkedOut := snap.Equipment[eq].IsCheckedOut(); {
	case checkedOut && active >= 0:
		return types.Checkout{}, fmt.Errorf("%w: %q", types.ErrAlreadyCheckedOut, equipmentID)
	case checkedOut:
		return types.Checkout{}, fmt.Errorf("%w: %q is checked out with no active checkout",
			types.ErrLedgerMismatch, equipmentID)
	case active >= 0:
		return types.Checkout{}, fmt.Errorf("%w: %q is available but has active checkout %q",
			types.ErrLedgerMismatch, equipmentID, snap.Checkouts[active].ID)
	}

	c := types.NewCheckout(equipmentID, personID, now)
	if err := snap.Equipment[eq].MarkCheckedOut(personID, c.DueAt); err != nil {
		return types.Checkout{}, err
	}
	snap.Checkouts = append(snap.Checkouts, c)
	return c, nil
}

// Checkin closes the active checkout of the equipment at now and returns the
// closed record.
func Checkin(snap *types.Snapshot, equipmentID string, now time.Time) (types.Checkout, error) {
	eq, active, err := heldIndex(snap, equipmentID)
	if err != nil {
		return types.Checkout{}, err
	}

	c := &snap.Checkouts[active]
	if err := c.Close(now); err != nil {
		return types.Checkout{}, err
	}
	if err := snap.Equipment[eq].MarkAvailable(); err != nil {
		return types.Checkout{}, err
	}
	return *c, nil
}

// Transfer hands checked-out equipment to newPersonID without passing through
// available. The active record is closed at now and both it and the new record
// are flagged as a handoff. The new record names the previous holder.
func Transfer(snap *types.Snapshot, equipmentID, newPersonID string, now time.Time) (types.Checkout, error) {
	if _, err := equipmentIndex(snap, equipmentID); err != nil {
		return types.Checkout{}, err
	}
	if err := requirePerson(snap, newPersonID); err != nil {
		return types.Checkout{}, err
	}
	eq, active, err := heldIndex(snap, equipmentID)
	if err != nil {
		return types.Checkout{}, err
	}

	old := &snap.Checkouts[active]
	previous := old.PersonID
	if err := old.Close(now); err != nil {
		return types.Checkout{}, err
	}
	old.Handoff = true

	next := types.NewCheckout(equipmentID, newPersonID, now)
	next.Handoff = true
	next.HandoffFrom = &previous

	if err := snap.Equipment[eq].Reassign(newPersonID, next.DueAt); err != nil {
		return types.Checkout{}, err
	}
	snap.Checkouts = append(snap.Checkouts, next)
	return next, nil
}

// Active returns the active checkout for the equipment. The boolean is false
// when the equipment is not checked out.
func Active(snap *types.Snapshot, equipmentID string) (types.Checkout, bool) {
	i := activeIndex(snap, equipmentID)
	if i < 0 {
		return types.Checkout{}, false
	}
	return snap.Checkouts[i], true
}

// History returns every checkout of the equipment in the order they were
// opened. The equipment must exist; records of deleted equipment are only
// reachable through the raw snapshot.
func History(snap *types.Snapshot, equipmentID string) ([]types.Checkout, error) {
	if _, err := equipmentIndex(snap, equipmentID); err != nil {
		return nil, err
	}
	out := []types.Checkout{}
	for _, c := range snap.Checkouts {
		if c.EquipmentID == equipmentID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Overdue returns the active checkouts whose due date is before now.
func Overdue(snap *types.Snapshot, now time.Time) []types.Checkout {
	out := []types.Checkout{}
	for i := range snap.Checkouts {
		if snap.Checkouts[i].IsOverdue(now) {
			out = append(out, snap.Checkouts[i])
		}
	}
	return out
}
