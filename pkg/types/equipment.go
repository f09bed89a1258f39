package types

import "time"

// Equipment states.
const (
	StatusAvailable  = "available"
	StatusCheckedOut = "checked_out"
)

// validStatuses is the set of recognized equipment status values.
var validStatuses = map[string]bool{
	StatusAvailable:  true,
	StatusCheckedOut: true,
}

// IsValidStatus reports whether s is a recognized equipment status.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// Equipment is a trackable item. CheckedOutTo and DueAt mirror the active
// checkout record and are only written by the ledger.
type Equipment struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	CheckedOutTo *string    `json:"checked_out_to"`
	DueAt        *time.Time `json:"due_at"`
}

// EntityID returns the equipment id.
func (e Equipment) EntityID() string { return e.ID }

// IsCheckedOut reports whether the equipment is in someone's possession.
func (e *Equipment) IsCheckedOut() bool {
	return e.Status == StatusCheckedOut
}

// MarkCheckedOut moves the equipment to checked_out and records the holder
// and due date. Returns ErrAlreadyCheckedOut if it is not available.
func (e *Equipment) MarkCheckedOut(personID string, dueAt time.Time) error {
	if e.Status != StatusAvailable {
		return ErrAlreadyCheckedOut
	}
	e.Status = StatusCheckedOut
	e.CheckedOutTo = &personID
	due := dueAt
	e.DueAt = &due
	return nil
}

// Reassign points a checked-out item at a new holder and due date without
// passing through available. Returns ErrNoActiveCheckout if the equipment is
// not checked out.
func (e *Equipment) Reassign(personID string, dueAt time.Time) error {
	if e.Status != StatusCheckedOut {
		return ErrNoActiveCheckout
	}
	e.CheckedOutTo = &personID
	due := dueAt
	e.DueAt = &due
	return nil
}

// MarkAvailable returns the equipment to available and clears the mirrored
// fields. Returns ErrNoActiveCheckout if it is not checked out.
func (e *Equipment) MarkAvailable() error {
	if e.Status != StatusCheckedOut {
		return ErrNoActiveCheckout
	}
	e.Status = StatusAvailable
	e.CheckedOutTo = nil
	e.DueAt = nil
	return nil
}

// HeldBy reports whether the equipment is currently checked out to personID.
func (e *Equipment) HeldBy(personID string) bool {
	return e.CheckedOutTo != nil && *e.CheckedOutTo == personID
}
