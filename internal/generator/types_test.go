package generator

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestFieldSpecJSON(t *testing.T) {
	input := `[
		{"fieldName": "age", "dataType": "number", "options": {"min": 18, "max": "100", "nullPercentage": 5}},
		{"name": "email", "dataType": "email"},
		{"fieldName": "kind", "dataType": "string", "options": {"values": ["a", "b"], "format": "upper", "length": 4}}
	]`
	var fields []FieldSpec
	if err := json.Unmarshal([]byte(input), &fields); err != nil {
		t.Fatalf("Failed to decode fields: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("Expected 3 fields, got %d", len(fields))
	}

	age := fields[0]
	if age.Name != "age" || age.DataType != TypeNumber {
		t.Errorf("Unexpected field %+v", age)
	}
	if v, ok := age.Options.Min.Float(); !ok || v != 18 {
		t.Errorf("Expected min 18, got %v", v)
	}
	if v, ok := age.Options.Max.Float(); !ok || v != 100 {
		t.Errorf("Expected max 100 from string, got %v", v)
	}
	if *age.Options.NullPercentage != 5 {
		t.Errorf("Expected nullPercentage 5, got %v", *age.Options.NullPercentage)
	}

	if fields[1].Name != "email" {
		t.Errorf("Expected name alias to fill Name, got %q", fields[1].Name)
	}
	if opts := fields[2].Options; len(opts.Values) != 2 || opts.Format != "upper" || *opts.Length != 4 {
		t.Errorf("Unexpected options %+v", opts)
	}

	out, err := json.Marshal(fields[0])
	if err != nil {
		t.Fatal(err)
	}
	want := `{"fieldName":"age","dataType":"number","options":{"min":18,"max":"100","nullPercentage":5}}`
	if string(out) != want {
		t.Errorf("Expected %s, got %s", want, out)
	}
}

func TestFieldSpecYAML(t *testing.T) {
	input := `
- fieldName: id
  dataType: uuid
- name: joined
  dataType: date
  options:
    min: "2020-01-01"
    max: 1700000000000
- fieldName: score
  dataType: number
  options:
    min: 1.5
    max: ~
`
	var fields []FieldSpec
	if err := yaml.Unmarshal([]byte(input), &fields); err != nil {
		t.Fatalf("Failed to decode fields: %v", err)
	}
	if len(fields) != 3 || fields[1].Name != "joined" {
		t.Fatalf("Unexpected fields %+v", fields)
	}

	joined := fields[1].Options
	if joined.Min.Text != "2020-01-01" || joined.Min.Number != nil {
		t.Errorf("Expected text min, got %+v", joined.Min)
	}
	if joined.Max.Number == nil || *joined.Max.Number != 1700000000000 {
		t.Errorf("Expected numeric max, got %+v", joined.Max)
	}
	if _, ok := fields[2].Options.Max.Float(); ok {
		t.Error("Expected null max to count as absent")
	}
}

func TestBoundFloat(t *testing.T) {
	var nilBound *Bound
	cases := []struct {
		name string
		b    *Bound
		want float64
		ok   bool
	}{
		{"nil", nilBound, 0, false},
		{"number", NumberBound(3.5), 3.5, true},
		{"numeric text", TextBound("-2"), -2, true},
		{"text", TextBound("abc"), 0, false},
		{"empty", &Bound{}, 0, false},
		{"infinite text", TextBound("Inf"), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.b.Float()
			if ok != tc.ok || got != tc.want {
				t.Errorf("Expected (%v, %v), got (%v, %v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}

func TestBoundTime(t *testing.T) {
	want := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	for _, b := range []*Bound{
		TextBound("2023-05-06T07:08:09Z"),
		TextBound("2023-05-06T09:08:09+02:00"),
		TextBound("2023-05-06 07:08:09"),
		NumberBound(float64(want.UnixMilli())),
	} {
		got, ok := b.Time()
		if !ok || !got.Equal(want) {
			t.Errorf("Bound %+v: expected %s, got %s (%v)", b, want, got, ok)
		}
	}

	if _, ok := TextBound("yesterday").Time(); ok {
		t.Error("Expected unparseable date to be rejected")
	}
}

func TestDataTypeValid(t *testing.T) {
	for _, dt := range DataTypes {
		if !dt.Valid() {
			t.Errorf("Expected %s to be valid", dt)
		}
	}
	if DataType("bogus").Valid() {
		t.Error("Expected bogus to be invalid")
	}
	if len(DataTypes) != len(valueFuncs) {
		t.Errorf("DataTypes has %d entries, dispatch table has %d", len(DataTypes), len(valueFuncs))
	}
}
