package schema

import "strings"

// DbType is the provider-neutral type of a column or parameter.
type DbType uint8

const (
	Object DbType = iota
	String
	AnsiString
	Int16
	Int32
	Int64
	Decimal
	Double
	Single
	Boolean
	Date
	DateTime
	Time
	Guid
	Binary
	Json
	Xml
)

var dbTypeNames = [...]string{
	Object:     "object",
	String:     "string",
	AnsiString: "ansistring",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Decimal:    "decimal",
	Double:     "double",
	Single:     "single",
	Boolean:    "boolean",
	Date:       "date",
	DateTime:   "datetime",
	Time:       "time",
	Guid:       "guid",
	Binary:     "binary",
	Json:       "json",
	Xml:        "xml",
}

func (t DbType) String() string {
	if int(t) < len(dbTypeNames) {
		return dbTypeNames[t]
	}
	return "unknown"
}

// ParseDbType maps an engine type name such as "varchar(50)" or "bigint"
// onto a DbType. Unknown names map to Object.
func ParseDbType(sqlType string) DbType {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	switch t {
	case "nvarchar", "nchar", "ntext", "text", "citext", "string", "clob", "longtext", "mediumtext", "tinytext", "character varying":
		return String
	case "varchar":
		return AnsiString
	case "char", "character":
		return AnsiString
	case "smallint", "int2", "tinyint":
		return Int16
	case "int", "integer", "int4", "mediumint", "serial":
		return Int32
	case "bigint", "int8", "bigserial":
		return Int64
	case "decimal", "numeric", "money", "smallmoney":
		return Decimal
	case "float", "double", "double precision", "float8", "real8":
		return Double
	case "real", "float4":
		return Single
	case "bit", "bool", "boolean":
		return Boolean
	case "date":
		return Date
	case "datetime", "datetime2", "smalldatetime", "timestamp", "timestamptz", "timestamp with time zone", "timestamp without time zone", "datetimeoffset":
		return DateTime
	case "time", "timetz", "time without time zone", "time with time zone":
		return Time
	case "uniqueidentifier", "uuid":
		return Guid
	case "binary", "varbinary", "image", "bytea", "blob", "longblob", "mediumblob", "tinyblob", "rowversion":
		return Binary
	case "json", "jsonb":
		return Json
	case "xml":
		return Xml
	}
	return Object
}
