package schema

// WeakAssociation is a relationship inferred from naming conventions rather
// than declared as a foreign key
type WeakAssociation struct {
	ForeignKeyColumn *Column
	PrimaryKeyColumn *Column
}

// String returns the association as "fk -> pk".
func (w *WeakAssociation) String() string {
	return w.ForeignKeyColumn.FullName() + " -> " + w.PrimaryKeyColumn.FullName()
}

func (w *WeakAssociation) samePair(other *WeakAssociation) bool {
	return (w.ForeignKeyColumn == other.ForeignKeyColumn && w.PrimaryKeyColumn == other.PrimaryKeyColumn) ||
		(w.ForeignKeyColumn == other.PrimaryKeyColumn && w.PrimaryKeyColumn == other.ForeignKeyColumn)
}
