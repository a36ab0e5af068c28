package schema

import "fmt"

// SQLType is a JDBC style generic type, identified by its numeric code.
type SQLType struct {
	Code int
	Name string
}

// String returns the type name.
func (t SQLType) String() string {
	return t.Name
}

// JDBC type codes, as defined by java.sql.Types.
const (
	TypeBit                   = -7
	TypeTinyInt               = -6
	TypeSmallInt              = 5
	TypeInteger               = 4
	TypeBigInt                = -5
	TypeFloat                 = 6
	TypeReal                  = 7
	TypeDouble                = 8
	TypeNumeric               = 2
	TypeDecimal               = 3
	TypeChar                  = 1
	TypeVarchar               = 12
	TypeLongVarchar           = -1
	TypeDate                  = 91
	TypeTime                  = 92
	TypeTimestamp             = 93
	TypeBinary                = -2
	TypeVarBinary             = -3
	TypeLongVarBinary         = -4
	TypeNull                  = 0
	TypeOther                 = 1111
	TypeJavaObject            = 2000
	TypeDistinct              = 2001
	TypeStruct                = 2002
	TypeArray                 = 2003
	TypeBlob                  = 2004
	TypeClob                  = 2005
	TypeRef                   = 2006
	TypeDatalink              = 70
	TypeBoolean               = 16
	TypeRowID                 = -8
	TypeNChar                 = -15
	TypeNVarchar              = -9
	TypeLongNVarchar          = -16
	TypeNClob                 = 2011
	TypeSQLXML                = 2009
	TypeRefCursor             = 2012
	TypeTimeWithTimezone      = 2013
	TypeTimestampWithTimezone = 2014
)

var sqlTypeNames = map[int]string{
	TypeBit:                   "BIT",
	TypeTinyInt:               "TINYINT",
	TypeSmallInt:              "SMALLINT",
	TypeInteger:               "INTEGER",
	TypeBigInt:                "BIGINT",
	TypeFloat:                 "FLOAT",
	TypeReal:                  "REAL",
	TypeDouble:                "DOUBLE",
	TypeNumeric:               "NUMERIC",
	TypeDecimal:               "DECIMAL",
	TypeChar:                  "CHAR",
	TypeVarchar:               "VARCHAR",
	TypeLongVarchar:           "LONGVARCHAR",
	TypeDate:                  "DATE",
	TypeTime:                  "TIME",
	TypeTimestamp:             "TIMESTAMP",
	TypeBinary:                "BINARY",
	TypeVarBinary:             "VARBINARY",
	TypeLongVarBinary:         "LONGVARBINARY",
	TypeNull:                  "NULL",
	TypeOther:                 "OTHER",
	TypeJavaObject:            "JAVA_OBJECT",
	TypeDistinct:              "DISTINCT",
	TypeStruct:                "STRUCT",
	TypeArray:                 "ARRAY",
	TypeBlob:                  "BLOB",
	TypeClob:                  "CLOB",
	TypeRef:                   "REF",
	TypeDatalink:              "DATALINK",
	TypeBoolean:               "BOOLEAN",
	TypeRowID:                 "ROWID",
	TypeNChar:                 "NCHAR",
	TypeNVarchar:              "NVARCHAR",
	TypeLongNVarchar:          "LONGNVARCHAR",
	TypeNClob:                 "NCLOB",
	TypeSQLXML:                "SQLXML",
	TypeRefCursor:             "REF_CURSOR",
	TypeTimeWithTimezone:      "TIME_WITH_TIMEZONE",
	TypeTimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
}

// LookupSQLType returns the generic type for a code. Unknown codes get a
// synthesized name.
func LookupSQLType(code int) SQLType {
	if name, ok := sqlTypeNames[code]; ok {
		return SQLType{Code: code, Name: name}
	}
	return SQLType{Code: code, Name: fmt.Sprintf("UNKNOWN(%d)", code)}
}
