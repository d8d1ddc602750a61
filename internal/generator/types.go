package generator

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
	TypeEmail   DataType = "email"
	TypePhone   DataType = "phone"
	TypeAddress DataType = "address"
	TypeName    DataType = "name"
	TypeCompany DataType = "company"
	TypeURL     DataType = "url"
	TypeUUID    DataType = "uuid"
	TypeColor   DataType = "color"
	TypeAIText  DataType = "aiText"
)

// DataTypes lists every supported tag, in the order the schema builder offers them.
var DataTypes = []DataType{
	TypeString, TypeNumber, TypeBoolean, TypeDate,
	TypeEmail, TypePhone, TypeAddress, TypeName,
	TypeCompany, TypeURL, TypeUUID, TypeColor,
	TypeAIText,
}

// Valid reports whether t is one of the supported tags. Unknown tags are still
// accepted by the generator, which treats them as plain strings.
func (t DataType) Valid() bool {
	_, ok := valueFuncs[t]
	return ok
}

// FieldSpec describes one column of a schema.
type FieldSpec struct {
	Name     string   `json:"fieldName" yaml:"fieldName" bson:"fieldName"`
	DataType DataType `json:"dataType" yaml:"dataType" bson:"dataType"`
	Options  *Options `json:"options,omitempty" yaml:"options,omitempty" bson:"options,omitempty"`
}

// fieldSpecWire is the decoding shape of FieldSpec; "name" is accepted as an
// alias for "fieldName".
type fieldSpecWire struct {
	FieldName string   `json:"fieldName" yaml:"fieldName"`
	Name      string   `json:"name" yaml:"name"`
	DataType  DataType `json:"dataType" yaml:"dataType"`
	Options   *Options `json:"options,omitempty" yaml:"options,omitempty"`
}

func (w fieldSpecWire) spec() FieldSpec {
	name := w.FieldName
	if name == "" {
		name = w.Name
	}
	return FieldSpec{Name: name, DataType: w.DataType, Options: w.Options}
}

func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	var w fieldSpecWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*f = w.spec()
	return nil
}

func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	var w fieldSpecWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	*f = w.spec()
	return nil
}

// Options is the per-field configuration bag. Every key is optional and only
// some apply to a given data type:
//
//	Min, Max        number (integer range), date (instant range)
//	Length          string
//	NullPercentage  all types
//	Format, Values  stored but not used by generation
//	Nullable        advisory; null behaviour follows NullPercentage
type Options struct {
	Min            *Bound   `json:"min,omitempty" yaml:"min,omitempty" bson:"min,omitempty"`
	Max            *Bound   `json:"max,omitempty" yaml:"max,omitempty" bson:"max,omitempty"`
	Length         *int     `json:"length,omitempty" yaml:"length,omitempty" bson:"length,omitempty"`
	Format         string   `json:"format,omitempty" yaml:"format,omitempty" bson:"format,omitempty"`
	Values         []string `json:"values,omitempty" yaml:"values,omitempty" bson:"values,omitempty"`
	Nullable       bool     `json:"nullable,omitempty" yaml:"nullable,omitempty" bson:"nullable,omitempty"`
	NullPercentage *float64 `json:"nullPercentage,omitempty" yaml:"nullPercentage,omitempty" bson:"nullPercentage,omitempty"`
}

// Bound is a range limit that arrives either as a number or as a string.
// On the wire it is the bare JSON value; in BSON it keeps both slots.
type Bound struct {
	Number *float64 `bson:"number,omitempty"`
	Text   string   `bson:"text,omitempty"`
}

func NumberBound(v float64) *Bound {
	return &Bound{Number: &v}
}

func TextBound(s string) *Bound {
	return &Bound{Text: s}
}

func (b Bound) MarshalJSON() ([]byte, error) {
	if b.Number != nil {
		return json.Marshal(*b.Number)
	}
	return json.Marshal(b.Text)
}

func (b *Bound) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*b = Bound{Number: &x}
	case string:
		*b = Bound{Text: x}
	case nil:
		*b = Bound{}
	default:
		return fmt.Errorf("bound must be a number or a string, got %s", data)
	}
	return nil
}

func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: bound must be a number or a string", node.Line)
	}
	switch node.Tag {
	case "!!int", "!!float":
		if f, err := strconv.ParseFloat(node.Value, 64); err == nil {
			*b = Bound{Number: &f}
			return nil
		}
	case "!!null":
		*b = Bound{}
		return nil
	}
	*b = Bound{Text: node.Value}
	return nil
}

// Float returns the bound as a finite number. Numeric strings are parsed.
func (b *Bound) Float() (float64, bool) {
	if b == nil {
		return 0, false
	}
	v := 0.0
	switch {
	case b.Number != nil:
		v = *b.Number
	case b.Text != "":
		f, err := strconv.ParseFloat(strings.TrimSpace(b.Text), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Time returns the bound as an instant. Strings are parsed as dates, numbers
// are Unix milliseconds.
func (b *Bound) Time() (time.Time, bool) {
	if b == nil {
		return time.Time{}, false
	}
	if b.Number != nil {
		if math.IsNaN(*b.Number) || math.IsInf(*b.Number, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(clampBound(*b.Number))).UTC(), true
	}
	s := strings.TrimSpace(b.Text)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Address is the composite value produced for the address type.
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Country string `json:"country" bson:"country"`
	ZipCode string `json:"zipCode" bson:"zipCode"`
}
