// Package types defines the Backend and Table interfaces, the entity types,
// the persisted Snapshot document, and the error taxonomy shared by the
// equipment tracker.
package types
