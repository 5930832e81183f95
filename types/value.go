// Package types defines the typed values carried by result records.
package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dromara/carbon/v2"
)

type Type int

const (
	TypeNull Type = iota
	TypeBool
	TypeBigint
	TypeDouble
	TypeText
	TypeTimestamp
	TypeList
	TypeNode
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeBigint:
		return "bigint"
	case TypeDouble:
		return "double"
	case TypeText:
		return "text"
	case TypeTimestamp:
		return "timestamp"
	case TypeList:
		return "list"
	case TypeNode:
		return "node"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Value is a decoded field value. Values are immutable once constructed.
type Value interface {
	Type() Type
	// V returns the underlying Go value.
	V() any
	String() string
}

type NullValue struct{}

func NewNullValue() NullValue    { return NullValue{} }
func (NullValue) Type() Type     { return TypeNull }
func (NullValue) V() any         { return nil }
func (NullValue) String() string { return "NULL" }

type BoolValue bool

func NewBoolValue(b bool) BoolValue { return BoolValue(b) }
func (BoolValue) Type() Type        { return TypeBool }
func (v BoolValue) V() any          { return bool(v) }
func (v BoolValue) String() string  { return strconv.FormatBool(bool(v)) }

type BigintValue int64

func NewBigintValue(i int64) BigintValue { return BigintValue(i) }
func (BigintValue) Type() Type           { return TypeBigint }
func (v BigintValue) V() any             { return int64(v) }
func (v BigintValue) String() string     { return strconv.FormatInt(int64(v), 10) }

type DoubleValue float64

func NewDoubleValue(f float64) DoubleValue { return DoubleValue(f) }
func (DoubleValue) Type() Type             { return TypeDouble }
func (v DoubleValue) V() any               { return float64(v) }
func (v DoubleValue) String() string       { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

type TextValue string

func NewTextValue(s string) TextValue { return TextValue(s) }
func (TextValue) Type() Type          { return TypeText }
func (v TextValue) V() any            { return string(v) }
func (v TextValue) String() string    { return strconv.Quote(string(v)) }

type TimestampValue time.Time

// NewTimestampValue returns a timestamp value normalized to UTC.
func NewTimestampValue(t time.Time) TimestampValue { return TimestampValue(t.UTC()) }
func (TimestampValue) Type() Type                  { return TypeTimestamp }
func (v TimestampValue) V() any                    { return time.Time(v) }
func (v TimestampValue) String() string {
	return time.Time(v).Format(time.RFC3339Nano)
}

// ParseTimestamp parses a timestamp from its textual form, accepting the
// common layouts (RFC 3339, date only, date plus time).
func ParseTimestamp(s string) (time.Time, error) {
	c := carbon.Parse(s, "UTC")
	if c.Error != nil {
		return time.Time{}, errors.Newf("invalid timestamp %q", s)
	}
	return c.StdTime(), nil
}

type ListValue []Value

func NewListValue(vs ...Value) ListValue { return ListValue(vs) }
func (ListValue) Type() Type             { return TypeList }
func (v ListValue) V() any               { return []Value(v) }
func (v ListValue) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, el := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.String())
	}
	b.WriteByte(']')
	return b.String()
}

// NodeValue is a graph entity: a server-assigned id, a set of labels and a
// property map.
type NodeValue struct {
	ID     int64
	Labels []string
	Props  map[string]Value
}

func NewNodeValue(id int64, labels []string, props map[string]Value) *NodeValue {
	return &NodeValue{ID: id, Labels: labels, Props: props}
}

func (*NodeValue) Type() Type { return TypeNode }
func (v *NodeValue) V() any   { return v }

// Prop returns the named property, or a null value if the node does not have
// it.
func (v *NodeValue) Prop(name string) Value {
	if p, ok := v.Props[name]; ok {
		return p
	}
	return NewNullValue()
}

func (v *NodeValue) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, l := range v.Labels {
		b.WriteByte(':')
		b.WriteString(l)
	}
	if len(v.Props) > 0 {
		names := make([]string, 0, len(v.Props))
		for name := range v.Props {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString(" {")
		for i, name := range names {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(v.Props[name].String())
		}
		b.WriteByte('}')
	}
	b.WriteByte(')')
	return b.String()
}
