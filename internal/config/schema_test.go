package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"timelines/internal/domain"
)

func TestLoadSchema(t *testing.T) {
	t.Run("valid schema loads", func(t *testing.T) {
		schema, err := LoadSchema(filepath.Join("testdata", "valid_schema.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := schema.EntityTypeByName("character"); !ok {
			t.Fatalf("expected character entity type")
		}
	})

	errorCases := []struct {
		name     string
		contents string
	}{
		{"unsupported version", "version: 3\n"},
		{"unknown entity type", "version: 1\nentity_types:\n  - name: dragon\n"},
		{"duplicate entity type names", "version: 1\nentity_types:\n  - name: place\n  - name: Place\n"},
		{"enum property without values", "version: 1\nentity_types:\n  - name: character\n    properties:\n      - { name: status, type: enum }\n"},
		{"unknown property type", "version: 1\nentity_types:\n  - name: character\n    properties:\n      - { name: status, type: colour }\n"},
		{"duplicate property", "version: 1\nentity_types:\n  - name: character\n    properties:\n      - { name: age }\n      - { name: Age }\n"},
		{"field mapping references unknown relationship", "version: 1\nentity_types:\n  - name: character\n    field_mappings:\n      - { field: faction, relationship: MEMBER_OF }\n"},
		{"empty role", "version: 1\nroles: [\"  \"]\n"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadSchema(writeTempSchema(t, tc.contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSchemaHelpers(t *testing.T) {
	schema, err := LoadSchema(filepath.Join("testdata", "valid_schema.yaml"))
	if err != nil {
		t.Fatalf("loading schema: %v", err)
	}

	t.Run("EntityTypeByName case-insensitive", func(t *testing.T) {
		if _, ok := schema.EntityTypeByName("CHARACTER"); !ok {
			t.Fatalf("expected to find character entity type")
		}
		if _, ok := schema.EntityTypeByName("theme"); ok {
			t.Fatalf("theme is not declared")
		}
	})

	t.Run("roles", func(t *testing.T) {
		if !schema.IsKnownRole("Witness") || !schema.IsKnownRole("actor") {
			t.Fatalf("expected witness and actor to be known")
		}
		if schema.IsKnownRole("bystander") {
			t.Fatalf("bystander is not declared")
		}
		var none *Schema
		if !none.IsKnownRole("location") {
			t.Fatalf("conventional roles need no schema")
		}
	})

	t.Run("property checks", func(t *testing.T) {
		character, _ := schema.EntityTypeByName("character")
		status, ok := character.Property("Status")
		if !ok {
			t.Fatalf("expected status property")
		}
		if err := status.Check(domain.StringValue("Dead")); err != nil {
			t.Fatalf("expected enum match, got %v", err)
		}
		if err := status.Check(domain.StringValue("undead")); err == nil {
			t.Fatalf("expected enum mismatch")
		}
		age, _ := character.Property("age")
		if err := age.Check(domain.NumberValue(decimal.NewFromInt(30))); err != nil {
			t.Fatalf("expected number, got %v", err)
		}
		if err := age.Check(domain.StringValue("thirty")); err == nil {
			t.Fatalf("expected type mismatch")
		}

		org, _ := schema.EntityTypeByName("organization")
		founded, _ := org.Property("founded")
		if err := founded.Check(domain.TimeValue(time.Now())); err != nil {
			t.Fatalf("expected datetime, got %v", err)
		}
		if err := founded.Check(domain.StringValue("2020-01-02T00:00:00Z")); err != nil {
			t.Fatalf("expected RFC3339 string to pass, got %v", err)
		}
	})
}

func writeTempSchema(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp schema: %v", err)
	}
	return path
}
