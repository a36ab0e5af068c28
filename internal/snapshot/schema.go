package snapshot

import "database/sql"

const (
	// SQLite schema for storing snapshots
	createMetadataTable = `
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	createTableDocumentsTable = `
		CREATE TABLE IF NOT EXISTS table_documents (
			full_name TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			document_json TEXT NOT NULL
		);
	`

	createProcedureDocumentsTable = `
		CREATE TABLE IF NOT EXISTS procedure_documents (
			full_name TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			document_json TEXT NOT NULL
		);
	`

	createWeakAssociationsTable = `
		CREATE TABLE IF NOT EXISTS weak_associations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			foreign_key_column TEXT NOT NULL,
			primary_key_column TEXT NOT NULL
		);
	`
)

// initializeSchema creates the tables of a snapshot file
func initializeSchema(db *sql.DB) error {
	schemas := []string{
		createMetadataTable,
		createTableDocumentsTable,
		createProcedureDocumentsTable,
		createWeakAssociationsTable,
	}

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return err
		}
	}

	return nil
}
