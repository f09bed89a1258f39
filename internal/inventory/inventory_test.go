package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

func ptr(s string) *string { return &s }

func TestAddEquipment(t *testing.T) {
	tests := []struct {
		name    string
		input   EquipmentInput
		want    types.Equipment
		wantErr error
	}{
		{
			name:  "trims fields",
			input: EquipmentInput{Name: "  Drill ", Tag: " T-1 ", Description: " cordless "},
			want:  types.Equipment{Name: "Drill", Tag: "T-1", Description: "cordless", Status: types.StatusAvailable},
		},
		{
			name:  "optional fields may be empty",
			input: EquipmentInput{Name: "Saw"},
			want:  types.Equipment{Name: "Saw", Status: types.StatusAvailable},
		},
		{
			name:    "empty name",
			input:   EquipmentInput{Name: ""},
			wantErr: types.ErrNameRequired,
		},
		{
			name:    "whitespace name",
			input:   EquipmentInput{Name: "   "},
			wantErr: types.ErrNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := types.NewSnapshot()
			got, err := AddEquipment(snap, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, types.ErrValidation)
				assert.Empty(t, snap.Equipment)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			tt.want.ID = got.ID
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []types.Equipment{got}, snap.Equipment)
		})
	}
}

func TestListEquipmentStatusFilter(t *testing.T) {
	snap := types.NewSnapshot()
	drill, err := AddEquipment(snap, EquipmentInput{Name: "Drill"})
	require.NoError(t, err)
	saw, err := AddEquipment(snap, EquipmentInput{Name: "Saw"})
	require.NoError(t, err)
	require.NoError(t, snap.Equipment[1].MarkCheckedOut("alice", time.Now()))

	all, err := ListEquipment(snap, EquipmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	avail, err := ListEquipment(snap, EquipmentFilter{Status: types.StatusAvailable})
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, drill.ID, avail[0].ID)

	out, err := ListEquipment(snap, EquipmentFilter{Status: types.StatusCheckedOut})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, saw.ID, out[0].ID)

	_, err = ListEquipment(snap, EquipmentFilter{Status: "lost"})
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestListEquipmentSearch(t *testing.T) {
	snap := types.NewSnapshot()
	drill, err := AddEquipment(snap, EquipmentInput{Name: "Cordless Drill", Tag: "PT-001"})
	require.NoError(t, err)
	saw, err := AddEquipment(snap, EquipmentInput{Name: "Saw", Tag: "PT-002"})
	require.NoError(t, err)
	ladder, err := AddEquipment(snap, EquipmentInput{Name: "Ladder"})
	require.NoError(t, err)
	alice, err := AddPerson(snap, PersonInput{Name: "Alice Moreau"})
	require.NoError(t, err)
	require.NoError(t, snap.Equipment[1].MarkCheckedOut(alice.ID, time.Now()))

	ids := func(items []types.Equipment) []string {
		out := make([]string, 0, len(items))
		for _, e := range items {
			out = append(out, e.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter EquipmentFilter
		want   []string
	}{
		{"name ignores case", EquipmentFilter{Query: "DRILL"}, []string{drill.ID}},
		{"tag prefix", EquipmentFilter{Query: "pt-"}, []string{drill.ID, saw.ID}},
		{"holder name", EquipmentFilter{Query: "moreau"}, []string{saw.ID}},
		{"surrounding space trimmed", EquipmentFilter{Query: "  ladder "}, []string{ladder.ID}},
		{"no match", EquipmentFilter{Query: "forklift"}, []string{}},
		{"combined with status", EquipmentFilter{Status: types.StatusAvailable, Query: "pt-"}, []string{drill.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ListEquipment(snap, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("unknown holder is not a match", func(t *testing.T) {
		ghost := "ghost"
		snap.Equipment[2].CheckedOutTo = &ghost
		got, err := ListEquipment(snap, EquipmentFilter{Query: "ghost"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestUpdateEquipment(t *testing.T) {
	snap := types.NewSnapshot()
	e, err := AddEquipment(snap, EquipmentInput{Name: "Drill", Tag: "T-1"})
	require.NoError(t, err)

	t.Run("partial update", func(t *testing.T) {
		got, err := UpdateEquipment(snap, e.ID, EquipmentPatch{Description: ptr(" 18V ")})
		require.NoError(t, err)
		assert.Equal(t, "Drill", got.Name)
		assert.Equal(t, "T-1", got.Tag)
		assert.Equal(t, "18V", got.Description)
	})

	t.Run("no fields", func(t *testing.T) {
		_, err := UpdateEquipment(snap, e.ID, EquipmentPatch{})
		assert.ErrorIs(t, err, types.ErrNoFields)
	})

	t.Run("blank name rejected and nothing changes", func(t *testing.T) {
		_, err := UpdateEquipment(snap, e.ID, EquipmentPatch{Name: ptr(" "), Tag: ptr("T-2")})
		assert.ErrorIs(t, err, types.ErrNameRequired)
		got, err := GetEquipment(snap, e.ID)
		require.NoError(t, err)
		assert.Equal(t, "T-1", got.Tag)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := UpdateEquipment(snap, "missing", EquipmentPatch{Name: ptr("x")})
		assert.ErrorIs(t, err, types.ErrEquipmentNotFound)
	})

	t.Run("status untouched", func(t *testing.T) {
		require.NoError(t, snap.Equipment[0].MarkCheckedOut("alice", time.Now()))
		got, err := UpdateEquipment(snap, e.ID, EquipmentPatch{Name: ptr("Hammer Drill")})
		require.NoError(t, err)
		assert.Equal(t, types.StatusCheckedOut, got.Status)
		assert.True(t, got.HeldBy("alice"))
	})
}

func TestDeleteEquipment(t *testing.T) {
	snap := types.NewSnapshot()
	e, err := AddEquipment(snap, EquipmentInput{Name: "Drill"})
	require.NoError(t, err)

	assert.ErrorIs(t, DeleteEquipment(snap, "missing"), types.ErrEquipmentNotFound)

	require.NoError(t, snap.Equipment[0].MarkCheckedOut("alice", time.Now()))
	err = DeleteEquipment(snap, e.ID)
	assert.ErrorIs(t, err, types.ErrEquipmentCheckedOut)
	assert.ErrorIs(t, err, types.ErrConflict)

	require.NoError(t, snap.Equipment[0].MarkAvailable())
	require.NoError(t, DeleteEquipment(snap, e.ID))
	assert.Empty(t, snap.Equipment)
}

func TestPeopleCRUD(t *testing.T) {
	snap := types.NewSnapshot()

	_, err := AddPerson(snap, PersonInput{Name: " "})
	assert.ErrorIs(t, err, types.ErrNameRequired)

	alice, err := AddPerson(snap, PersonInput{Name: " Alice ", Email: " a@example.com ", Role: "tech"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, "a@example.com", alice.Email)

	got, err := GetPerson(snap, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	updated, err := UpdatePerson(snap, alice.ID, PersonPatch{Role: ptr("lead")})
	require.NoError(t, err)
	assert.Equal(t, "lead", updated.Role)
	assert.Equal(t, "Alice", updated.Name)

	_, err = UpdatePerson(snap, alice.ID, PersonPatch{})
	assert.ErrorIs(t, err, types.ErrNoFields)

	_, err = GetPerson(snap, "missing")
	assert.ErrorIs(t, err, types.ErrPersonNotFound)

	assert.Len(t, ListPeople(snap), 1)
}

func TestDeletePerson(t *testing.T) {
	snap := types.NewSnapshot()
	alice, err := AddPerson(snap, PersonInput{Name: "Alice"})
	require.NoError(t, err)
	_, err = AddEquipment(snap, EquipmentInput{Name: "Drill"})
	require.NoError(t, err)

	require.NoError(t, snap.Equipment[0].MarkCheckedOut(alice.ID, time.Now()))
	err = DeletePerson(snap, alice.ID)
	assert.ErrorIs(t, err, types.ErrPersonHoldsEquipment)
	assert.Len(t, snap.People, 1)

	require.NoError(t, snap.Equipment[0].MarkAvailable())
	require.NoError(t, DeletePerson(snap, alice.ID))
	assert.Empty(t, snap.People)

	assert.ErrorIs(t, DeletePerson(snap, alice.ID), types.ErrPersonNotFound)
}
