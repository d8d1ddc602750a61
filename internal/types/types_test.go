package types

import (
	"testing"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
)

func TestLimitsFor(t *testing.T) {
	cases := []struct {
		tier    Tier
		schemas int
		rows    int
		api     bool
		rpm     int
	}{
		{TierFree, 3, 1000, false, 60},
		{TierPro, 10, 10000, true, 300},
		{TierEnterprise, 100, 100000, true, 1000},
		{"platinum", 3, 1000, false, 60},
	}
	for _, tc := range cases {
		l := LimitsFor(tc.tier)
		if l.MaxSchemas != tc.schemas || l.MaxRowsPerGeneration != tc.rows || l.APIEnabled != tc.api || l.RequestsPerMinute != tc.rpm {
			t.Errorf("Tier %s: unexpected limits %+v", tc.tier, l)
		}
	}
}

func TestTierValid(t *testing.T) {
	for _, tier := range Tiers {
		if !tier.Valid() {
			t.Errorf("Expected %s to be valid", tier)
		}
	}
	if Tier("gold").Valid() {
		t.Error("Expected gold to be invalid")
	}
}

func TestDatasetSummary(t *testing.T) {
	fields := []generator.FieldSpec{{Name: "n", DataType: generator.TypeNumber}}
	d := Dataset{ID: "d1", RowCount: 2, Data: generator.NewSeeded(1).Generate(fields, 2)}

	s := d.Summary()
	if s.Data != nil {
		t.Errorf("Expected summary without data, got %d records", len(s.Data))
	}
	if s.ID != "d1" || s.RowCount != 2 {
		t.Errorf("Unexpected summary %+v", s)
	}
	if len(d.Data) != 2 {
		t.Error("Summary must not modify the original")
	}
}
