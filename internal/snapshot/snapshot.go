// Package snapshot stores crawled metadata in a SQLite file so that it can be
// shown or compared later without the source database.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const (
	metaCreatedAt      = "created_at"
	metaInfoLevel      = "info_level"
	metaProductName    = "product_name"
	metaProductVersion = "product_version"
	metaDriverName     = "driver_name"
	metaDriverVersion  = "driver_version"
	metaWarnings       = "warnings"
)

// Save writes doc to a new SQLite file at path, replacing any existing file
func Save(doc *Document, path string) error {
	// Ensure output directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Remove existing snapshot file if it exists
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing snapshot: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot database: %w", err)
	}
	defer db.Close()

	if err := initializeSchema(db); err != nil {
		return fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveMetadata(tx, doc); err != nil {
		return err
	}
	if err := saveTables(tx, doc.Tables); err != nil {
		return err
	}
	if err := saveProcedures(tx, doc.Procedures); err != nil {
		return err
	}
	if err := saveWeakAssociations(tx, doc.WeakAssociations); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func saveMetadata(tx *sql.Tx, doc *Document) error {
	warnings, err := json.Marshal(doc.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	metadata := [][2]string{
		{metaCreatedAt, doc.CreatedAt.Format(time.RFC3339)},
		{metaInfoLevel, doc.InfoLevel},
		{metaProductName, doc.ProductName},
		{metaProductVersion, doc.ProductVersion},
		{metaDriverName, doc.DriverName},
		{metaDriverVersion, doc.DriverVersion},
		{metaWarnings, string(warnings)},
	}
	for _, entry := range metadata {
		if _, err := tx.Exec("INSERT INTO metadata (key, value) VALUES (?, ?)", entry[0], entry[1]); err != nil {
			return fmt.Errorf("failed to insert metadata: %w", err)
		}
	}
	return nil
}

func saveTables(tx *sql.Tx, tables []Table) error {
	stmt, err := tx.Prepare("INSERT INTO table_documents (full_name, position, document_json) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, table := range tables {
		tableJSON, err := json.Marshal(table)
		if err != nil {
			return fmt.Errorf("failed to marshal table %s: %w", table.FullName, err)
		}
		if _, err := stmt.Exec(table.FullName, i, string(tableJSON)); err != nil {
			return fmt.Errorf("failed to insert table %s: %w", table.FullName, err)
		}
	}
	return nil
}

func saveProcedures(tx *sql.Tx, procedures []Procedure) error {
	stmt, err := tx.Prepare("INSERT INTO procedure_documents (full_name, position, document_json) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, procedure := range procedures {
		procedureJSON, err := json.Marshal(procedure)
		if err != nil {
			return fmt.Errorf("failed to marshal procedure %s: %w", procedure.FullName, err)
		}
		if _, err := stmt.Exec(procedure.FullName, i, string(procedureJSON)); err != nil {
			return fmt.Errorf("failed to insert procedure %s: %w", procedure.FullName, err)
		}
	}
	return nil
}

func saveWeakAssociations(tx *sql.Tx, associations []WeakAssociation) error {
	for _, w := range associations {
		_, err := tx.Exec(
			"INSERT INTO weak_associations (foreign_key_column, primary_key_column) VALUES (?, ?)",
			w.ForeignKeyColumn,
			w.PrimaryKeyColumn,
		)
		if err != nil {
			return fmt.Errorf("failed to insert weak association: %w", err)
		}
	}
	return nil
}

// Load reads a snapshot file written by Save
func Load(path string) (*Document, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot file does not exist: %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	defer db.Close()

	doc := &Document{}
	if err := loadMetadata(db, doc); err != nil {
		return nil, err
	}

	tableRows, err := loadDocuments(db, "table_documents")
	if err != nil {
		return nil, err
	}
	for _, tableJSON := range tableRows {
		var table Table
		if err := json.Unmarshal([]byte(tableJSON), &table); err != nil {
			return nil, fmt.Errorf("failed to unmarshal table: %w", err)
		}
		doc.Tables = append(doc.Tables, table)
	}

	procedureRows, err := loadDocuments(db, "procedure_documents")
	if err != nil {
		return nil, err
	}
	for _, procedureJSON := range procedureRows {
		var procedure Procedure
		if err := json.Unmarshal([]byte(procedureJSON), &procedure); err != nil {
			return nil, fmt.Errorf("failed to unmarshal procedure: %w", err)
		}
		doc.Procedures = append(doc.Procedures, procedure)
	}

	if err := loadWeakAssociations(db, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func loadMetadata(db *sql.DB, doc *Document) error {
	rows, err := db.Query("SELECT key, value FROM metadata")
	if err != nil {
		return fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan metadata: %w", err)
		}
		switch key {
		case metaCreatedAt:
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				doc.CreatedAt = t
			}
		case metaInfoLevel:
			doc.InfoLevel = value
		case metaProductName:
			doc.ProductName = value
		case metaProductVersion:
			doc.ProductVersion = value
		case metaDriverName:
			doc.DriverName = value
		case metaDriverVersion:
			doc.DriverVersion = value
		case metaWarnings:
			if err := json.Unmarshal([]byte(value), &doc.Warnings); err != nil {
				return fmt.Errorf("failed to unmarshal warnings: %w", err)
			}
		}
	}
	return rows.Err()
}

// loadDocuments returns the JSON documents of a table in stored order
func loadDocuments(db *sql.DB, table string) ([]string, error) {
	rows, err := db.Query("SELECT document_json FROM " + strconv.Quote(table) + " ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var documents []string
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		documents = append(documents, document)
	}
	return documents, rows.Err()
}

func loadWeakAssociations(db *sql.DB, doc *Document) error {
	rows, err := db.Query("SELECT foreign_key_column, primary_key_column FROM weak_associations ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to query weak associations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w WeakAssociation
		if err := rows.Scan(&w.ForeignKeyColumn, &w.PrimaryKeyColumn); err != nil {
			return fmt.Errorf("failed to scan weak association: %w", err)
		}
		doc.WeakAssociations = append(doc.WeakAssociations, w)
	}
	return rows.Err()
}
