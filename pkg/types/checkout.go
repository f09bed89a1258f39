package types

import (
	"time"

	"github.com/google/uuid"
)

// LoanPeriod is how long a checkout lasts before it is due. It is a fixed
// policy, not caller input.
const LoanPeriod = 24 * time.Hour

// Checkout links one piece of equipment to one person for a period of time.
// A checkout with a nil CheckedInAt is active. Records are never deleted;
// they are closed.
type Checkout struct {
	ID           string     `json:"id"`
	EquipmentID  string     `json:"equipment_id"`
	PersonID     string     `json:"person_id"`
	CheckedOutAt time.Time  `json:"checked_out_at"`
	DueAt        time.Time  `json:"due_at"`
	CheckedInAt  *time.Time `json:"checked_in_at"`

	// Handoff is set on both records of a transfer: the one that was closed
	// and the one that was opened for the new holder.
	Handoff bool `json:"handoff"`
	// HandoffFrom is the previous holder, set only on the opened record.
	HandoffFrom *string `json:"handoff_from"`
}

// EntityID returns the checkout id.
func (c Checkout) EntityID() string { return c.ID }

// NewCheckout opens a checkout at now with the fixed loan period.
func NewCheckout(equipmentID, personID string, now time.Time) Checkout {
	at := Timestamp(now)
	return Checkout{
		ID:           NewID(),
		EquipmentID:  equipmentID,
		PersonID:     personID,
		CheckedOutAt: at,
		DueAt:        at.Add(LoanPeriod),
	}
}

// IsActive reports whether the checkout has not been checked in.
func (c *Checkout) IsActive() bool {
	return c.CheckedInAt == nil
}

// IsOverdue reports whether the checkout is active and past its due date.
func (c *Checkout) IsOverdue(now time.Time) bool {
	return c.IsActive() && c.DueAt.Before(now)
}

// Close records the check-in time. Returns ErrCheckoutClosed if the checkout
// was already closed.
func (c *Checkout) Close(now time.Time) error {
	if !c.IsActive() {
		return ErrCheckoutClosed
	}
	at := Timestamp(now)
	c.CheckedInAt = &at
	return nil
}

// Timestamp normalizes t to UTC with whole-second precision, the form every
// stored timestamp takes.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// NewID returns a fresh random 128-bit identifier.
func NewID() string {
	return uuid.NewString()
}
