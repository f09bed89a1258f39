package sqlite

// Schema DDL. The seq column preserves insertion order of each sequence.
const (
	createEquipment = `CREATE TABLE IF NOT EXISTS equipment (
    seq INTEGER PRIMARY KEY,
    equipment_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    tag TEXT NOT NULL,
    description TEXT NOT NULL,
    status TEXT NOT NULL,
    checked_out_to TEXT,
    due_at TEXT
);`

	createPeople = `CREATE TABLE IF NOT EXISTS people (
    seq INTEGER PRIMARY KEY,
    person_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    role TEXT NOT NULL
);`

	createCheckouts = `CREATE TABLE IF NOT EXISTS checkouts (
    seq INTEGER PRIMARY KEY,
    checkout_id TEXT NOT NULL UNIQUE,
    equipment_id TEXT NOT NULL,
    person_id TEXT NOT NULL,
    checked_out_at TEXT NOT NULL,
    due_at TEXT NOT NULL,
    checked_in_at TEXT,
    handoff INTEGER NOT NULL DEFAULT 0,
    handoff_from TEXT
);`

	// At most one open checkout per equipment item.
	createActiveIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_checkouts_active
    ON checkouts(equipment_id) WHERE checked_in_at IS NULL;`
)

// schemaStatements lists the DDL in execution order.
var schemaStatements = []string{
	createEquipment,
	createPeople,
	createCheckouts,
	createActiveIndex,
}
