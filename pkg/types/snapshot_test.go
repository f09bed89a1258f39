package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotSerializesAllKeys(t *testing.T) {
	data, err := json.Marshal(NewSnapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"equipment":[],"people":[],"checkouts":[]}`, string(data))
}

func TestSnapshotNormalize(t *testing.T) {
	var s Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"equipment":[]}`), &s))
	s.Normalize()
	assert.NotNil(t, s.People)
	assert.NotNil(t, s.Checkouts)
}

func TestSnapshotNormalizeTimes(t *testing.T) {
	var s Snapshot
	doc := `{"equipment":[{"id":"e","status":"checked_out","checked_out_to":"p","due_at":"2024-01-02T10:30:00.5+02:00"}],
		"checkouts":[{"id":"c","equipment_id":"e","person_id":"p","checked_out_at":"2024-01-01T10:30:00+02:00",
		"due_at":"2024-01-02T10:30:00+02:00","checked_in_at":null}]}`
	require.NoError(t, json.Unmarshal([]byte(doc), &s))
	s.Normalize()

	want := time.Date(2024, 1, 2, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, want, *s.Equipment[0].DueAt)
	assert.Equal(t, want, s.Checkouts[0].DueAt)
	assert.Equal(t, want.Add(-24*time.Hour), s.Checkouts[0].CheckedOutAt)

	data, err := json.Marshal(&s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "+02:00")
	assert.Contains(t, string(data), `"2024-01-02T08:30:00Z"`)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := NewSnapshot()
	holder := "alice"
	due := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s.Equipment = append(s.Equipment, Equipment{ID: "eq-1", Name: "Drill", Status: StatusCheckedOut, CheckedOutTo: &holder, DueAt: &due})
	s.People = append(s.People, Person{ID: "alice", Name: "Alice"})
	s.Checkouts = append(s.Checkouts, NewCheckout("eq-1", "alice", due.Add(-24*time.Hour)))

	c := s.Clone()
	*c.Equipment[0].CheckedOutTo = "bob"
	c.People[0].Name = "Changed"
	require.NoError(t, c.Checkouts[0].Close(due))

	assert.Equal(t, "alice", *s.Equipment[0].CheckedOutTo)
	assert.Equal(t, "Alice", s.People[0].Name)
	assert.True(t, s.Checkouts[0].IsActive())
}

func TestTableCRUD(t *testing.T) {
	s := NewSnapshot()
	people := s.PeopleTable()

	require.NoError(t, people.Add(Person{ID: "p1", Name: "Alice"}))
	require.NoError(t, people.Add(Person{ID: "p2", Name: "Bob"}))
	assert.ErrorIs(t, people.Add(Person{ID: "p1", Name: "Dup"}), ErrDuplicateID)

	got, err := people.Get("p2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)

	_, err = people.Get("missing")
	assert.ErrorIs(t, err, ErrPersonNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, people.Update(Person{ID: "p1", Name: "Alicia"}))
	assert.Equal(t, "Alicia", s.People[0].Name)
	assert.ErrorIs(t, people.Update(Person{ID: "nobody"}), ErrPersonNotFound)

	require.NoError(t, people.Delete("p1"))
	assert.ErrorIs(t, people.Delete("p1"), ErrPersonNotFound)

	list := people.List()
	require.Len(t, list, 1)
	assert.Equal(t, "p2", list[0].ID)

	list[0].Name = "mutated"
	assert.Equal(t, "Bob", s.People[0].Name, "List must return a copy")
}

func TestTableNotFoundErrorsPerEntity(t *testing.T) {
	s := NewSnapshot()
	_, err := s.EquipmentTable().Get("x")
	assert.ErrorIs(t, err, ErrEquipmentNotFound)
	_, err = s.CheckoutsTable().Get("x")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
}
