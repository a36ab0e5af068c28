package database

import (
	"strings"

	"github.com/koba/dbcrawl/internal/schema"
)

// nativeTypeCodes maps native type names, lower cased and without
// modifiers, to generic type codes.
var nativeTypeCodes = map[string]int{
	"bit":                         schema.TypeBit,
	"tinyint":                     schema.TypeTinyInt,
	"smallint":                    schema.TypeSmallInt,
	"int2":                        schema.TypeSmallInt,
	"mediumint":                   schema.TypeInteger,
	"int":                         schema.TypeInteger,
	"integer":                     schema.TypeInteger,
	"int4":                        schema.TypeInteger,
	"serial":                      schema.TypeInteger,
	"bigint":                      schema.TypeBigInt,
	"int8":                        schema.TypeBigInt,
	"bigserial":                   schema.TypeBigInt,
	"float":                       schema.TypeReal,
	"float4":                      schema.TypeReal,
	"real":                        schema.TypeReal,
	"double":                      schema.TypeDouble,
	"double precision":            schema.TypeDouble,
	"float8":                      schema.TypeDouble,
	"numeric":                     schema.TypeNumeric,
	"decimal":                     schema.TypeDecimal,
	"money":                       schema.TypeNumeric,
	"char":                        schema.TypeChar,
	"character":                   schema.TypeChar,
	"bpchar":                      schema.TypeChar,
	"varchar":                     schema.TypeVarchar,
	"character varying":           schema.TypeVarchar,
	"nvarchar":                    schema.TypeNVarchar,
	"nchar":                       schema.TypeNChar,
	"text":                        schema.TypeLongVarchar,
	"tinytext":                    schema.TypeLongVarchar,
	"mediumtext":                  schema.TypeLongVarchar,
	"longtext":                    schema.TypeLongVarchar,
	"clob":                        schema.TypeClob,
	"date":                        schema.TypeDate,
	"time":                        schema.TypeTime,
	"time without time zone":      schema.TypeTime,
	"time with time zone":         schema.TypeTimeWithTimezone,
	"timetz":                      schema.TypeTimeWithTimezone,
	"datetime":                    schema.TypeTimestamp,
	"timestamp":                   schema.TypeTimestamp,
	"timestamp without time zone": schema.TypeTimestamp,
	"timestamp with time zone":    schema.TypeTimestampWithTimezone,
	"timestamptz":                 schema.TypeTimestampWithTimezone,
	"year":                        schema.TypeDate,
	"boolean":                     schema.TypeBoolean,
	"bool":                        schema.TypeBoolean,
	"binary":                      schema.TypeBinary,
	"varbinary":                   schema.TypeVarBinary,
	"bytea":                       schema.TypeBinary,
	"blob":                        schema.TypeBlob,
	"tinyblob":                    schema.TypeBlob,
	"mediumblob":                  schema.TypeBlob,
	"longblob":                    schema.TypeLongVarBinary,
	"xml":                         schema.TypeSQLXML,
	"array":                       schema.TypeArray,
	"user-defined":                schema.TypeDistinct,
	"uuid":                        schema.TypeOther,
	"json":                        schema.TypeOther,
	"jsonb":                       schema.TypeOther,
	"enum":                        schema.TypeVarchar,
	"set":                         schema.TypeVarchar,
}

// TypeCode maps a native type name, such as "character varying(20)" or
// "INT UNSIGNED", to a generic type code. Unknown names map to OTHER.
func TypeCode(nativeType string) int {
	name := normalizeTypeName(nativeType)
	if code, ok := nativeTypeCodes[name]; ok {
		return code
	}
	if strings.HasPrefix(name, "_") || strings.HasSuffix(name, "[]") {
		return schema.TypeArray
	}
	// SQLite type affinity rules
	switch {
	case strings.Contains(name, "int"):
		return schema.TypeInteger
	case strings.Contains(name, "char"), strings.Contains(name, "clob"), strings.Contains(name, "text"):
		return schema.TypeVarchar
	case strings.Contains(name, "real"), strings.Contains(name, "floa"), strings.Contains(name, "doub"):
		return schema.TypeDouble
	}
	return schema.TypeOther
}

func normalizeTypeName(nativeType string) string {
	name := strings.ToLower(strings.TrimSpace(nativeType))
	if i := strings.IndexByte(name, '('); i >= 0 {
		rest := ""
		if j := strings.IndexByte(name[i:], ')'); j >= 0 {
			rest = name[i+j+1:]
		}
		name = strings.TrimSpace(name[:i] + rest)
	}
	for _, suffix := range []string{" unsigned", " zerofill", " signed"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimSpace(name)
}
