package ingest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func TestParseConsequences(t *testing.T) {
	got, err := parseConsequences([]any{
		map[string]any{"entity": "Mara", "property": "mood", "value": "grim"},
		map[string]any{"property": "season", "value": "winter"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0].Entity != "Mara" || !got[1].IsGlobal() {
		t.Fatalf("unexpected consequences: %+v", got)
	}

	if _, err := parseConsequences("nope"); err == nil {
		t.Fatalf("expected error for scalar")
	}
	if _, err := parseConsequences([]any{map[string]any{"value": 1}}); err == nil {
		t.Fatalf("expected error for missing property")
	}
	if _, err := parseConsequences([]any{map[string]any{"property": "x"}}); err == nil {
		t.Fatalf("expected error for missing value")
	}
}

func TestBuildDelta(t *testing.T) {
	mara := uuid.New()
	lookup := func(name string) (uuid.UUID, bool) {
		if name == "Mara" {
			return mara, true
		}
		return uuid.Nil, false
	}

	delta, err := buildDelta([]Consequence{
		{Entity: "Mara", Property: "mood", Value: "grim"},
		{Entity: "World", Property: "season", Value: "winter"},
	}, lookup)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if mood, _ := delta.EntityChanges[mara]["mood"].AsString(); mood != "grim" {
		t.Fatalf("unexpected entity changes: %+v", delta.EntityChanges)
	}
	if season, _ := delta.GlobalChanges["season"].AsString(); season != "winter" {
		t.Fatalf("unexpected global changes: %+v", delta.GlobalChanges)
	}

	if _, err := buildDelta([]Consequence{{Entity: "Nobody", Property: "x", Value: 1}}, lookup); err == nil {
		t.Fatalf("expected unknown entity error")
	}
}

func TestParseDecimal(t *testing.T) {
	cases := map[string]any{"0.5": 0.5, "1": 1, "0.25": " 0.25 "}
	for want, in := range cases {
		got, err := parseDecimal(in)
		if err != nil {
			t.Fatalf("parseDecimal(%v): %v", in, err)
		}
		if !got.Equal(mustDecimal(t, want)) {
			t.Fatalf("parseDecimal(%v) = %s, want %s", in, got, want)
		}
	}
	if _, err := parseDecimal(true); err == nil {
		t.Fatalf("expected error for bool")
	}
}
