package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestMergeRecords(t *testing.T) {
	existing := Record{"a": 1, "b": "x"}
	incoming := Record{"a": nil, "b": "y", "c": 2}

	got := MergeRecords(existing, incoming)
	want := Record{"a": 1, "b": "y", "c": 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeRecords = %v, want %v", got, want)
	}
}

func TestMergeRecords_FalsyValuesAreKept(t *testing.T) {
	existing := Record{"count": 10, "enabled": true, "name": "old"}
	incoming := Record{"count": 0, "enabled": false, "name": ""}

	got := MergeRecords(existing, incoming)
	want := Record{"count": 0, "enabled": false, "name": "old"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeRecords = %v, want %v", got, want)
	}
}

func TestMergeRecords_BlankWithoutExistingIsOmitted(t *testing.T) {
	got := MergeRecords(Record{}, Record{"a": nil, "b": ""})
	if len(got) != 0 {
		t.Errorf("expected empty record, got %v", got)
	}
}

func TestResolve(t *testing.T) {
	existing := &Asset{ID: "1", UniqueIdentifier: "A1", Fields: Record{"assetDescription": "old", "location": "DC1"}}
	incoming := Record{"uniqueIdentifier": "A1", "assetDescription": "new"}

	tests := []struct {
		name     string
		strategy ConflictResolutionStrategy
		existing *Asset
		action   ResolutionAction
		fields   Record
	}{
		{"no match creates", ConflictStrategySkip, nil, ActionCreate, incoming},
		{"skip", ConflictStrategySkip, existing, ActionSkip, nil},
		{"empty defaults to skip", "", existing, ActionSkip, nil},
		{"overwrite sends mapped fields only", ConflictStrategyOverwrite, existing, ActionUpdate, incoming},
		{"merge carries existing fields", ConflictStrategyMerge, existing, ActionUpdate, Record{
			"uniqueIdentifier": "A1",
			"assetDescription": "new",
			"location":         "DC1",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := tt.strategy.Strategy()
			if err != nil {
				t.Fatalf("Strategy: %v", err)
			}
			got := Resolve(strategy, tt.existing, incoming)
			if got.Action != tt.action {
				t.Errorf("expected %s, got %s", tt.action, got.Action)
			}
			if !reflect.DeepEqual(got.Fields, tt.fields) {
				t.Errorf("expected fields %v, got %v", tt.fields, got.Fields)
			}
		})
	}
}

func TestResolve_DoesNotAliasIncoming(t *testing.T) {
	incoming := Record{"a": 1}
	res := Resolve(overwriteStrategy{}, &Asset{ID: "1"}, incoming)
	res.Fields["a"] = 2
	if incoming["a"] != 1 {
		t.Error("expected incoming record to be untouched")
	}
}

func TestConflictResolutionStrategy_Unknown(t *testing.T) {
	if _, err := ConflictResolutionStrategy("REPLACE").Strategy(); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	cfg := &IntegrationConfig{ConflictStrategy: "REPLACE"}
	if _, ok := cfg.Strategy().(skipStrategy); !ok {
		t.Error("expected config with unknown strategy to fall back to skip")
	}
}
