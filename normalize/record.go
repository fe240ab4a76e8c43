package normalize

import (
	"strconv"
	"time"
)

// Provenance identifies the origin of one extraction run. The same values are
// stamped on every record the run produces.
type Provenance struct {
	Datasource      string
	DatasourceType  string
	DatasourceValue string
	ExtractTime     string
}

// ExtractTimestamp renders t in the exporter's extractTime format, seconds
// since the Unix epoch with one decimal.
func ExtractTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.Unix()), 'f', 1, 64)
}

// Record is one normalized directory object. Field values are either a single
// string or an ordered []string, never raw bytes.
type Record struct {
	Provenance
	Fields map[string]any
}

// Flat returns the serializable form of the record: the provenance keys plus
// one key per directory attribute, in a single flat object.
func (r *Record) Flat() map[string]any {
	out := make(map[string]any, len(r.Fields)+4)
	out["extractTime"] = r.ExtractTime
	out["datasource"] = r.Datasource
	out["datasource_type"] = r.DatasourceType
	out["datasource_value"] = r.DatasourceValue
	for name, value := range r.Fields {
		out[name] = value
	}
	return out
}
