package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/ellie/pkg/types"
)

// Timestamps are stored as RFC 3339 text in UTC.
func formatTime(t time.Time) string {
	return types.Timestamp(t).Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func loadEquipment(ctx context.Context, tx *sql.Tx) ([]types.Equipment, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT equipment_id, name, tag, description, status, checked_out_to, due_at FROM equipment ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying equipment: %w", err)
	}
	defer rows.Close()

	out := []types.Equipment{}
	for rows.Next() {
		var e types.Equipment
		var holder, due sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Tag, &e.Description, &e.Status, &holder, &due); err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		e.CheckedOutTo = stringPtr(holder)
		if e.DueAt, err = timePtr(due); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func loadPeople(ctx context.Context, tx *sql.Tx) ([]types.Person, error) {
	rows, err := tx.QueryContext(ctx, "SELECT person_id, name, email, role FROM people ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	out := []types.Person{}
	for rows.Next() {
		var p types.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func loadCheckouts(ctx context.Context, tx *sql.Tx) ([]types.Checkout, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT checkout_id, equipment_id, person_id, checked_out_at, due_at,
		        checked_in_at, handoff, handoff_from
		 FROM checkouts ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying checkouts: %w", err)
	}
	defer rows.Close()

	out := []types.Checkout{}
	for rows.Next() {
		var c types.Checkout
		var outAt, dueAt string
		var inAt, from sql.NullString
		if err := rows.Scan(&c.ID, &c.EquipmentID, &c.PersonID, &outAt, &dueAt, &inAt, &c.Handoff, &from); err != nil {
			return nil, fmt.Errorf("scanning checkout: %w", err)
		}
		if c.CheckedOutAt, err = parseTime(outAt); err != nil {
			return nil, err
		}
		if c.DueAt, err = parseTime(dueAt); err != nil {
			return nil, err
		}
		if c.CheckedInAt, err = timePtr(inAt); err != nil {
			return nil, err
		}
		c.HandoffFrom = stringPtr(from)
		out = append(out, c)
	}
	return out, rows.Err()
}

func saveEquipment(ctx context.Context, tx *sql.Tx, items []types.Equipment) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO equipment (seq, equipment_id, name, tag, description, status, checked_out_to, due_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing equipment insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range items {
		if _, err := stmt.ExecContext(ctx, i, e.ID, e.Name, e.Tag, e.Description, e.Status,
			nullString(e.CheckedOutTo), nullTime(e.DueAt)); err != nil {
			return fmt.Errorf("inserting equipment %q: %w", e.ID, err)
		}
	}
	return nil
}

func savePeople(ctx context.Context, tx *sql.Tx, people []types.Person) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO people (seq, person_id, name, email, role) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing people insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range people {
		if _, err := stmt.ExecContext(ctx, i, p.ID, p.Name, p.Email, p.Role); err != nil {
			return fmt.Errorf("inserting person %q: %w", p.ID, err)
		}
	}
	return nil
}

func saveCheckouts(ctx context.Context, tx *sql.Tx, checkouts []types.Checkout) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO checkouts (seq, checkout_id, equipment_id, person_id, checked_out_at, due_at,
		                        checked_in_at, handoff, handoff_from)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing checkouts insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range checkouts {
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.EquipmentID, c.PersonID,
			formatTime(c.CheckedOutAt), formatTime(c.DueAt), nullTime(c.CheckedInAt),
			c.Handoff, nullString(c.HandoffFrom)); err != nil {
			return fmt.Errorf("inserting checkout %q: %w", c.ID, err)
		}
	}
	return nil
}
