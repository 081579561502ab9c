// Package parser reads markdown documents with YAML front matter. A
// document describes either an entity (type is an entity type) or an
// event (type: event).
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const TypeEvent = "event"

type Document struct {
	Frontmatter map[string]any
	Title       string
	Type        string
	Tags        []string
	Body        string
	SourceFile  string
}

var (
	ErrNoFrontmatter    = errors.New("no frontmatter found")
	ErrInvalidYAML      = errors.New("invalid YAML in frontmatter")
	ErrMissingTitle     = errors.New("frontmatter missing required 'title' field")
	ErrMissingType      = errors.New("frontmatter missing required 'type' field")
	ErrMissingTimestamp = errors.New("event frontmatter missing required 'timestamp' field")
)

// Accepted layouts for front matter times, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	trimmed = bytes.ReplaceAll(trimmed, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(trimmed, []byte("---\n")) {
		return nil, ErrNoFrontmatter
	}

	rest := trimmed[len("---\n"):]
	end := bytes.Index(rest, []byte("---\n"))
	if end == -1 {
		return nil, ErrNoFrontmatter
	}

	yamlBytes := rest[:end]
	body := string(rest[end+len("---\n"):])

	var frontmatter map[string]any
	if err := yaml.Unmarshal(yamlBytes, &frontmatter); err != nil {
		return nil, ErrInvalidYAML
	}

	title, ok := frontmatter["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return nil, ErrMissingTitle
	}

	docType, ok := frontmatter["type"].(string)
	if !ok || strings.TrimSpace(docType) == "" {
		return nil, ErrMissingType
	}
	docType = strings.ToLower(strings.TrimSpace(docType))

	doc := &Document{
		Frontmatter: frontmatter,
		Title:       strings.TrimSpace(title),
		Type:        docType,
		Body:        body,
	}

	tags, err := doc.Strings("tags")
	if err != nil {
		return nil, err
	}
	doc.Tags = tags

	if doc.IsEvent() {
		if _, ok, err := doc.Time("timestamp"); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrMissingTimestamp
		}
	}

	return doc, nil
}

func (d *Document) IsEvent() bool { return d.Type == TypeEvent }

// Description is the front matter description, else the first paragraph
// of the body, else the title.
func (d *Document) Description() string {
	if s := d.String("description"); s != "" {
		return s
	}
	body := strings.TrimSpace(d.Body)
	if para, _, _ := strings.Cut(body, "\n\n"); strings.TrimSpace(para) != "" {
		return strings.TrimSpace(para)
	}
	return d.Title
}

// String returns a scalar front matter value as text, or "".
func (d *Document) String(key string) string {
	switch v := d.Frontmatter[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case []any, map[string]any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Strings reads a string or a list of strings. Blank entries are dropped
// and an absent or empty value yields nil.
func (d *Document) Strings(key string) ([]string, error) {
	value := d.Frontmatter[key]
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{strings.TrimSpace(v)}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be strings", key)
			}
			if strings.TrimSpace(s) == "" {
				continue
			}
			out = append(out, strings.TrimSpace(s))
		}
		if len(out) == 0 {
			return nil, nil
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be string or list of strings", key)
	}
}

// Time reads a timestamp. ok is false when the key is absent.
func (d *Document) Time(key string) (time.Time, bool, error) {
	switch v := d.Frontmatter[key].(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v.UTC(), true, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("%s: cannot parse time %q", key, s)
	default:
		return time.Time{}, false, fmt.Errorf("%s must be a timestamp", key)
	}
}
