package types

import "errors"

// Error kinds. Every domain error returned by the inventory, ledger and
// lifecycle packages matches exactly one kind with errors.Is, so transports
// can map failures without knowing every specific error.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("entity not found")
	ErrConflict     = errors.New("invalid state transition")
	ErrInconsistent = errors.New("internal inconsistency")
)

// ErrBusy is returned when another writer holds the data store for longer
// than the configured lock timeout.
var ErrBusy = errors.New("data store is busy")

// kindError is a specific error that also matches its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Validation errors.
var (
	ErrNameRequired  = newKindError(ErrValidation, "name required")
	ErrNoFields      = newKindError(ErrValidation, "at least one field must be provided")
	ErrInvalidStatus = newKindError(ErrValidation, "invalid equipment status")
	ErrInvalidBody   = newKindError(ErrValidation, "request body must be a JSON object")
)

// Lookup errors.
var (
	ErrEquipmentNotFound = newKindError(ErrNotFound, "equipment not found")
	ErrPersonNotFound    = newKindError(ErrNotFound, "person not found")
	ErrCheckoutNotFound  = newKindError(ErrNotFound, "checkout not found")
)

// State transition errors.
var (
	ErrAlreadyCheckedOut    = newKindError(ErrConflict, "equipment already checked out")
	ErrNoActiveCheckout     = newKindError(ErrConflict, "equipment is not checked out")
	ErrCheckoutClosed       = newKindError(ErrConflict, "checkout already closed")
	ErrEquipmentCheckedOut  = newKindError(ErrConflict, "cannot delete checked-out equipment")
	ErrPersonHoldsEquipment = newKindError(ErrConflict, "person currently has equipment checked out")
	ErrDuplicateID          = newKindError(ErrConflict, "duplicate entity id")
)

// ErrLedgerMismatch reports that equipment status and the checkout ledger
// disagree. It signals a defect, never a user mistake.
var ErrLedgerMismatch = newKindError(ErrInconsistent, "equipment status and checkout ledger disagree")

// KindOf returns the kind sentinel matched by err, or nil when err does not
// belong to the taxonomy.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrInconsistent, ErrBusy} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
