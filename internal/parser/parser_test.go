package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Run("entity with full frontmatter", func(t *testing.T) {
		content := []byte("---\ntitle: Test Guard\ntype: Character\nstatus: alive\nlocation: Testville\ntags: [military, law-enforcement]\nmember_of: [The Watch]\n---\n\nThis is the body describing the guard.\n")
		doc, err := Parse(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Title != "Test Guard" {
			t.Fatalf("expected title, got %q", doc.Title)
		}
		if doc.Type != "character" {
			t.Fatalf("expected type character, got %q", doc.Type)
		}
		if doc.IsEvent() {
			t.Fatalf("character is not an event")
		}
		if !reflect.DeepEqual(doc.Tags, []string{"military", "law-enforcement"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
		if got := doc.Description(); got != "This is the body describing the guard." {
			t.Fatalf("unexpected description %q", got)
		}
		members, err := doc.Strings("member_of")
		if err != nil || !reflect.DeepEqual(members, []string{"The Watch"}) {
			t.Fatalf("unexpected member_of: %#v %v", members, err)
		}
	})

	t.Run("minimal frontmatter", func(t *testing.T) {
		content := []byte("---\ntitle: Minimal\ntype: concept\n---\n")
		doc, err := Parse(content)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if doc.Tags != nil {
			t.Fatalf("expected nil tags, got %#v", doc.Tags)
		}
		if doc.Body != "" {
			t.Fatalf("expected empty body, got %q", doc.Body)
		}
		if doc.Description() != "Minimal" {
			t.Fatalf("expected title fallback, got %q", doc.Description())
		}
	})

	errorCases := []struct {
		name    string
		content string
		want    error
	}{
		{"no frontmatter", "Just text", ErrNoFrontmatter},
		{"missing closing marker", "---\ntitle: Missing\n", ErrNoFrontmatter},
		{"invalid yaml", "---\ntitle: [\n---\n", ErrInvalidYAML},
		{"missing title", "---\ntype: place\n---\n", ErrMissingTitle},
		{"missing type", "---\ntitle: Nowhere\n---\n", ErrMissingType},
		{"event without timestamp", "---\ntitle: Fire\ntype: event\n---\n", ErrMissingTimestamp},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.content))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("unparseable timestamp", func(t *testing.T) {
		_, err := Parse([]byte("---\ntitle: Fire\ntype: event\ntimestamp: \"last tuesday\"\n---\n"))
		if err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("tags single string", func(t *testing.T) {
		doc, err := Parse([]byte("---\ntitle: Lone\ntype: theme\ntags: lone\n---\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !reflect.DeepEqual(doc.Tags, []string{"lone"}) {
			t.Fatalf("unexpected tags: %#v", doc.Tags)
		}
	})

	t.Run("tags of wrong type", func(t *testing.T) {
		if _, err := Parse([]byte("---\ntitle: Odd\ntype: theme\ntags: [1, 2]\n---\n")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestDocumentTime(t *testing.T) {
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-05-01", "\"2024-05-01\"", "2024-05-01T00:00:00Z", "\"2024-05-01 00:00\""} {
		doc, err := Parse([]byte("---\ntitle: T\ntype: event\ntimestamp: " + raw + "\n---\n"))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
		got, ok, err := doc.Time("timestamp")
		if err != nil || !ok || !got.Equal(want) {
			t.Fatalf("%s: got %v %v %v", raw, got, ok, err)
		}
	}
}

func TestParseFile(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "valid_character.md"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Title != "Mara Voss" {
		t.Fatalf("expected title, got %q", doc.Title)
	}
	if doc.SourceFile == "" {
		t.Fatalf("expected source file set")
	}
	if doc.String("age") != "34" {
		t.Fatalf("expected scalar age, got %q", doc.String("age"))
	}
}

func TestParseFile_Event(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "valid_event.md"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !doc.IsEvent() {
		t.Fatalf("expected event document")
	}
	end, ok, err := doc.Time("end")
	if err != nil || !ok || end.Hour() != 23 {
		t.Fatalf("unexpected end: %v %v %v", end, ok, err)
	}
	if doc.String("event_type") != "destruction" {
		t.Fatalf("unexpected event type %q", doc.String("event_type"))
	}
}

func TestParseFile_NoFrontmatter(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "no_frontmatter.md"))
	if !errors.Is(err, ErrNoFrontmatter) {
		t.Fatalf("expected ErrNoFrontmatter, got %v", err)
	}
}

func TestParseFile_MissingType(t *testing.T) {
	_, err := ParseFile(filepath.Join("testdata", "missing_type.md"))
	if !errors.Is(err, ErrMissingType) {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
}

func TestParse_BOMTrim(t *testing.T) {
	content := []byte("\ufeff---\ntitle: BOM\ntype: place\n---\n")
	doc, err := Parse(content)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if doc.Title != "BOM" {
		t.Fatalf("expected title, got %q", doc.Title)
	}
}

func TestParseFile_ReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected missing file")
	}
	if _, err := ParseFile(path); err == nil {
		t.Fatalf("expected error")
	}
}
