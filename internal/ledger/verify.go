package ledger

import (
	"fmt"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// Verify checks that every equipment item agrees with the ledger: status is
// checked_out exactly when one active record exists, and the mirrored holder
// and due date match that record. Active records for unknown equipment are
// also reported. The first violation is returned as ErrLedgerMismatch.
func Verify(snap *types.Snapshot) error {
	active := make(map[string]*types.Checkout)
	for i := range snap.Checkouts {
		c := &snap.Checkouts[i]
		if !c.IsActive() {
			continue
		}
		if prev, ok := active[c.EquipmentID]; ok {
			return fmt.Errorf("%w: equipment %q has active checkouts %q and %q",
				types.ErrLedgerMismatch, c.EquipmentID, prev.ID, c.ID)
		}
		active[c.EquipmentID] = c
	}

	for i := range snap.Equipment {
		e := &snap.Equipment[i]
		c, held := active[e.ID]
		delete(active, e.ID)
		if err := verifyEquipment(e, c, held); err != nil {
			return err
		}
	}

	for i := range snap.Checkouts {
		c := &snap.Checkouts[i]
		if active[c.EquipmentID] == c {
			return fmt.Errorf("%w: active checkout %q references unknown equipment %q",
				types.ErrLedgerMismatch, c.ID, c.EquipmentID)
		}
	}
	return nil
}

func verifyEquipment(e *types.Equipment, c *types.Checkout, held bool) error {
	switch {
	case !types.IsValidStatus(e.Status):
		return fmt.Errorf("%w: equipment %q has status %q", types.ErrLedgerMismatch, e.ID, e.Status)
	case e.IsCheckedOut() && !held:
		return fmt.Errorf("%w: equipment %q is checked out with no active checkout", types.ErrLedgerMismatch, e.ID)
	case !e.IsCheckedOut() && held:
		return fmt.Errorf("%w: equipment %q is available but has active checkout %q", types.ErrLedgerMismatch, e.ID, c.ID)
	case !e.IsCheckedOut():
		if e.CheckedOutTo != nil || e.DueAt != nil {
			return fmt.Errorf("%w: available equipment %q carries a holder or due date", types.ErrLedgerMismatch, e.ID)
		}
	default:
		if !e.HeldBy(c.PersonID) {
			return fmt.Errorf("%w: equipment %q holder does not match checkout %q", types.ErrLedgerMismatch, e.ID, c.ID)
		}
		if e.DueAt == nil || !e.DueAt.Equal(c.DueAt) {
			return fmt.Errorf("%w: equipment %q due date does not match checkout %q", types.ErrLedgerMismatch, e.ID, c.ID)
		}
	}
	return nil
}
