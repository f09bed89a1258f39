package types

import "time"

// Snapshot is the whole persisted document. Backends load and save it as a
// unit; every mutation happens on a loaded copy and is either saved in full
// or discarded.
type Snapshot struct {
	Equipment []Equipment `json:"equipment"`
	People    []Person    `json:"people"`
	Checkouts []Checkout  `json:"checkouts"`
}

// NewSnapshot returns an empty document with all three sequences present.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Equipment: []Equipment{},
		People:    []Person{},
		Checkouts: []Checkout{},
	}
}

// Normalize replaces missing sequences with empty ones so the document always
// serializes with all three keys, and brings every timestamp to the stored
// form (UTC, whole seconds).
func (s *Snapshot) Normalize() {
	defer s.normalizeTimes()
	if s.Equipment == nil {
		s.Equipment = []Equipment{}
	}
	if s.People == nil {
		s.People = []Person{}
	}
	if s.Checkouts == nil {
		s.Checkouts = []Checkout{}
	}
}

// EquipmentTable returns a Table view over the equipment sequence.
func (s *Snapshot) EquipmentTable() Table[Equipment] {
	return sliceTable[Equipment]{rows: &s.Equipment, notFound: ErrEquipmentNotFound}
}

// PeopleTable returns a Table view over the people sequence.
func (s *Snapshot) PeopleTable() Table[Person] {
	return sliceTable[Person]{rows: &s.People, notFound: ErrPersonNotFound}
}

// CheckoutsTable returns a Table view over the checkout history.
func (s *Snapshot) CheckoutsTable() Table[Checkout] {
	return sliceTable[Checkout]{rows: &s.Checkouts, notFound: ErrCheckoutNotFound}
}

func (s *Snapshot) normalizeTimes() {
	for i := range s.Equipment {
		if due := s.Equipment[i].DueAt; due != nil {
			*due = Timestamp(*due)
		}
	}
	for i := range s.Checkouts {
		c := &s.Checkouts[i]
		c.CheckedOutAt = Timestamp(c.CheckedOutAt)
		c.DueAt = Timestamp(c.DueAt)
		if c.CheckedInAt != nil {
			*c.CheckedInAt = Timestamp(*c.CheckedInAt)
		}
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Equipment: make([]Equipment, len(s.Equipment)),
		People:    make([]Person, len(s.People)),
		Checkouts: make([]Checkout, len(s.Checkouts)),
	}
	for i, e := range s.Equipment {
		e.CheckedOutTo = clonePtr(e.CheckedOutTo)
		e.DueAt = clonePtr(e.DueAt)
		out.Equipment[i] = e
	}
	copy(out.People, s.People)
	for i, c := range s.Checkouts {
		c.CheckedInAt = clonePtr(c.CheckedInAt)
		c.HandoffFrom = clonePtr(c.HandoffFrom)
		out.Checkouts[i] = c
	}
	return out
}

func clonePtr[T string | time.Time](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
