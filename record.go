package quiver

import (
	"strings"

	"github.com/quiverdb/quiver-go/types"
)

// Record is one result row: an ordered sequence of named fields with decoded
// values. Records are immutable. A cursor's current record is only valid
// until the next successful fetch.
type Record struct {
	fields []string
	values []types.Value
}

func newRecord(fields []string, values []types.Value) *Record {
	return &Record{fields: fields, values: values}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.values)
}

// Fields returns the field names, in stream order.
func (r *Record) Fields() []string {
	return r.fields
}

// Index returns the value at position i.
func (r *Record) Index(i int) types.Value {
	return r.values[i]
}

// Get returns the value of the named field, reporting whether the field
// exists.
func (r *Record) Get(name string) (types.Value, bool) {
	for i, f := range r.fields {
		if f == name {
			return r.values[i], true
		}
	}
	return nil, false
}

func (r *Record) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(r.values[i].String())
	}
	b.WriteByte('}')
	return b.String()
}
