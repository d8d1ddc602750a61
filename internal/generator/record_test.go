package generator

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRecordSetKeepsPosition(t *testing.T) {
	var r Record
	r.Set("b", 1)
	r.Set("a", 2)
	r.Set("b", 3)

	if got := strings.Join(r.Keys(), ","); got != "b,a" {
		t.Errorf("Expected keys b,a, got %s", got)
	}
	if v, _ := r.Get("b"); v != 3 {
		t.Errorf("Expected b=3, got %v", v)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Expected missing key to be absent")
	}
}

func TestRecordMarshalOrder(t *testing.T) {
	r := newRecord(4)
	r.Set("zip", "12345")
	r.Set("age", int64(30))
	r.Set("none", nil)
	r.Set("when", time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"zip":"12345","age":30,"none":null,"when":"2021-03-04T05:06:07Z"}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestRecordUnmarshal(t *testing.T) {
	var r Record
	input := `{"z":1,"y":2.5,"x":{"n":7,"street":"1 Main Street"},"w":[1,"a"],"v":null}`
	if err := json.Unmarshal([]byte(input), &r); err != nil {
		t.Fatal(err)
	}

	if got := strings.Join(r.Keys(), ","); got != "z,y,x,w,v" {
		t.Errorf("Expected keys z,y,x,w,v, got %s", got)
	}
	if v, _ := r.Get("z"); v != int64(1) {
		t.Errorf("Expected int64 1, got %#v", v)
	}
	if v, _ := r.Get("y"); v != 2.5 {
		t.Errorf("Expected 2.5, got %#v", v)
	}
	nested, _ := r.Get("x")
	m, ok := nested.(map[string]any)
	if !ok || m["n"] != int64(7) {
		t.Errorf("Expected nested map with n=7, got %#v", nested)
	}
	list, _ := r.Get("w")
	if l, ok := list.([]any); !ok || l[0] != int64(1) {
		t.Errorf("Expected list starting with int64 1, got %#v", list)
	}

	out, _ := json.Marshal(r)
	if string(out) != input {
		t.Errorf("Round trip changed document:\n%s\n%s", input, out)
	}
}

func TestRecordUnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	if err := json.Unmarshal([]byte(`[1,2]`), &r); err == nil {
		t.Error("Expected error for array input")
	}
}

func TestRecordSliceJSON(t *testing.T) {
	fields := []FieldSpec{
		{Name: "name", DataType: TypeName},
		{Name: "home", DataType: TypeAddress},
	}
	records := NewSeeded(3).Generate(fields, 3)
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}

	var back []Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(back))
	}
	home, _ := back[0].Get("home")
	if m, ok := home.(map[string]any); !ok || m["zipCode"] == "" {
		t.Errorf("Expected address object, got %#v", home)
	}
}
