package crawl

import (
	"go.uber.org/zap"

	"github.com/koba/dbcrawl/internal/associations"
	"github.com/koba/dbcrawl/internal/database"
	"github.com/koba/dbcrawl/internal/schema"
)

// procedures holds the crawled procedures in listing order
func (r *retrieval) procedures() []*schema.Procedure {
	var procedures []*schema.Procedure
	for _, s := range r.crawledSchemas() {
		procedures = append(procedures, s.Procedures(schema.Natural)...)
	}
	return procedures
}

func (r *retrieval) retrieveProcedures() error {
	for _, s := range r.crawledSchemas() {
		rows, err := r.source.ListProcedures(schemaRef(s))
		if err != nil {
			r.degraded(s.FullName(), err)
			continue
		}
		for _, row := range rows {
			name := row.String("PROCEDURE_NAME", "")
			if name == "" {
				continue
			}
			p := schema.NewProcedure(s, name)
			if !r.opts.procedureRule.Test(p.FullName()) {
				r.logger.Debug("excluded procedure", zap.String("procedure", p.FullName()))
				continue
			}
			p.ProcedureType = row.String("PROCEDURE_TYPE", "unknown")
			p.SpecificName = row.String("SPECIFIC_NAME", "")
			p.Remarks = row.String("REMARKS", "")
			s.AddProcedure(p)
		}
	}
	return nil
}

func (r *retrieval) retrieveProcedureColumns() error {
	for _, p := range r.procedures() {
		s := p.Schema()
		ref := database.ProcedureRef{
			Catalog:      s.Catalog().Name(),
			Schema:       s.Name(),
			Procedure:    p.Name(),
			SpecificName: p.SpecificName,
		}
		rows, err := r.source.ListProcedureColumns(ref)
		if err != nil {
			r.degraded(p.FullName(), err)
			continue
		}
		for i, row := range rows {
			name := row.String("COLUMN_NAME", "")
			if name == "" {
				continue
			}
			c := schema.NewProcedureColumn(p, name)
			if !r.opts.procedureColumnRule.Test(c.FullName()) {
				continue
			}
			c.Ordinal = row.Int("ORDINAL_POSITION", i+1)
			c.ColumnType = row.String("COLUMN_TYPE", "unknown")
			c.DataType = r.dataType(s, row.String("TYPE_NAME", ""), row.Int("DATA_TYPE", schema.TypeOther))
			c.Size = row.Int("LENGTH", 0)
			c.DecimalDigits = row.Int("SCALE", 0)
			c.Nullable = row.Bool("NULLABLE", true)
			p.AddColumn(c)
		}
	}
	return nil
}

func (r *retrieval) retrieveProcedureDefinitions() error {
	rows, err := r.auxiliary(database.ProcedureDefinitions)
	if err != nil {
		return err
	}
	for _, row := range rows {
		s, ok := r.lookupSchema(row.String("ROUTINE_CATALOG", ""), row.String("ROUTINE_SCHEMA", ""))
		if !ok {
			continue
		}
		p, ok := s.LookupProcedure(row.String("ROUTINE_NAME", ""))
		if !ok {
			continue
		}
		if specific := row.String("SPECIFIC_NAME", ""); specific != "" && p.SpecificName != "" && specific != p.SpecificName {
			continue
		}
		p.AppendDefinition(row.String("ROUTINE_DEFINITION", ""))
	}
	return nil
}

func (r *retrieval) retrieveWeakAssociations() error {
	analyzer := associations.NewAnalyzer(r.db.Tables(schema.Natural), r.logger)
	added := associations.Apply(r.db, analyzer.Analyze())
	r.logger.Info("found weak associations", zap.Int("count", added))
	return nil
}
