package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"timelines/internal/domain"
)

// Property types a schema may declare.
const (
	TypeString   = "string"
	TypeNumber   = "number"
	TypeBoolean  = "boolean"
	TypeDatetime = "datetime"
	TypeEnum     = "enum"
)

// Schema narrows the free-form entity properties of a project and adds
// project specific link roles.
type Schema struct {
	Version     int          `yaml:"version"`
	Roles       []string     `yaml:"roles"`
	EntityTypes []EntityType `yaml:"entity_types"`

	entityIndex map[string]*EntityType
}

type EntityType struct {
	Name          string         `yaml:"name"`
	Properties    []Property     `yaml:"properties"`
	FieldMappings []FieldMapping `yaml:"field_mappings"`
}

type Property struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Values   []string `yaml:"values"`
	Default  string   `yaml:"default"`
	Required bool     `yaml:"required"`
}

// FieldMapping turns a front matter list of entity names into
// relationships from the document's entity.
type FieldMapping struct {
	Field        string   `yaml:"field"`
	Relationship string   `yaml:"relationship"`
	TargetType   []string `yaml:"target_type"`
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema.entityIndex = make(map[string]*EntityType)
	for i := range schema.EntityTypes {
		entity := &schema.EntityTypes[i]
		schema.entityIndex[strings.ToLower(entity.Name)] = entity
	}
	for i := range schema.Roles {
		schema.Roles[i] = domain.NormalizeRole(schema.Roles[i])
	}

	return &schema, nil
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}

	entityNames := make(map[string]struct{})
	for i, entity := range s.EntityTypes {
		if strings.TrimSpace(entity.Name) == "" {
			return fmt.Errorf("entity type %d name is required", i)
		}
		key := strings.ToLower(entity.Name)
		if !domain.EntityType(key).Valid() {
			return fmt.Errorf("unknown entity type: %s", entity.Name)
		}
		if _, exists := entityNames[key]; exists {
			return fmt.Errorf("duplicate entity type name: %s", entity.Name)
		}
		entityNames[key] = struct{}{}

		propNames := make(map[string]struct{})
		for _, prop := range entity.Properties {
			name := strings.ToLower(strings.TrimSpace(prop.Name))
			if name == "" {
				return fmt.Errorf("entity type %s has property with empty name", entity.Name)
			}
			if _, exists := propNames[name]; exists {
				return fmt.Errorf("entity type %s has duplicate property: %s", entity.Name, prop.Name)
			}
			propNames[name] = struct{}{}
			switch strings.ToLower(prop.Type) {
			case "", TypeString, TypeNumber, TypeBoolean, TypeDatetime:
			case TypeEnum:
				if len(prop.Values) == 0 {
					return fmt.Errorf("entity type %s property %s enum has no values", entity.Name, prop.Name)
				}
			default:
				return fmt.Errorf("entity type %s property %s has unknown type: %s", entity.Name, prop.Name, prop.Type)
			}
		}

		for _, mapping := range entity.FieldMappings {
			if strings.TrimSpace(mapping.Field) == "" {
				return fmt.Errorf("entity type %s has field mapping with empty field", entity.Name)
			}
			if !domain.RelationType(strings.ToLower(mapping.Relationship)).Valid() {
				return fmt.Errorf("entity type %s field mapping references unknown relationship: %s", entity.Name, mapping.Relationship)
			}
		}
	}

	for i, role := range s.Roles {
		if domain.NormalizeRole(role) == "" {
			return fmt.Errorf("role %d is empty", i)
		}
	}

	return nil
}

func (s *Schema) EntityTypeByName(name string) (*EntityType, bool) {
	if s == nil {
		return nil, false
	}
	entity, ok := s.entityIndex[strings.ToLower(name)]
	return entity, ok
}

// Property returns the declared property, matched case-insensitively.
func (e *EntityType) Property(name string) (*Property, bool) {
	for i := range e.Properties {
		if strings.EqualFold(e.Properties[i].Name, name) {
			return &e.Properties[i], true
		}
	}
	return nil, false
}

// IsKnownRole reports whether role is a conventional link role or one the
// schema adds. A nil schema knows only the conventional roles.
func (s *Schema) IsKnownRole(role string) bool {
	role = domain.NormalizeRole(role)
	if slices.Contains(domain.ConventionalRoles(), role) {
		return true
	}
	return s != nil && slices.Contains(s.Roles, role)
}

// Check reports why v does not satisfy the property, or nil when it does.
func (p *Property) Check(v domain.PropertyValue) error {
	switch strings.ToLower(p.Type) {
	case "", TypeString:
		if _, ok := v.AsString(); !ok {
			return fmt.Errorf("%s must be a string", p.Name)
		}
	case TypeNumber:
		if _, ok := v.AsNumber(); !ok {
			return fmt.Errorf("%s must be a number", p.Name)
		}
	case TypeBoolean:
		if _, ok := v.AsBool(); !ok {
			return fmt.Errorf("%s must be a boolean", p.Name)
		}
	case TypeDatetime:
		if _, ok := v.AsTime(); ok {
			return nil
		}
		if s, ok := v.AsString(); ok {
			if _, err := time.Parse(time.RFC3339, s); err == nil {
				return nil
			}
		}
		return fmt.Errorf("%s must be a datetime", p.Name)
	case TypeEnum:
		s, _ := v.AsString()
		for _, allowed := range p.Values {
			if strings.EqualFold(s, allowed) {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of %s, got %q", p.Name, strings.Join(p.Values, ", "), v.String())
	}
	return nil
}
