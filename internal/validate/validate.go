// Package validate checks a project's stored records for broken references
// and for entities that do not satisfy the project schema.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"timelines/internal/config"
	"timelines/internal/domain"
	"timelines/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeEnumInvalid          = "enum_value_invalid"
	codeTypeInvalid          = "property_type_invalid"
	codeMissingRequired      = "missing_required_property"
	codeDanglingLink         = "dangling_link"
	codeDanglingRelationship = "dangling_relationship"
	codeDanglingParent       = "dangling_parent"
	codeOrphanedEntity       = "orphaned_entity"
	codeDuplicateName        = "duplicate_name"
	codeUnknownRole          = "unknown_role"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Timeline string
	Entity   string
	FilePath string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool { return r.Count(SeverityError) > 0 }

// Run checks every record of the project. A nil schema skips the property
// checks and only knows the conventional link roles.
func Run(ctx context.Context, schema *config.Schema, st store.Storage, projectID uuid.UUID) (*Report, error) {
	if st == nil {
		return nil, fmt.Errorf("storage is required")
	}

	s, err := scan(ctx, st, projectID)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0)
	seen := make(map[string]*domain.Entity)
	for _, entity := range s.entities {
		key := strings.ToLower(entity.Name)
		if first, ok := seen[key]; ok {
			issues = append(issues, entityIssue(entity, SeverityError, codeDuplicateName,
				fmt.Sprintf("duplicate entity name, also used by %s", first.ID)))
		} else {
			seen[key] = entity
		}

		if entityType, ok := schema.EntityTypeByName(string(entity.EntityType)); ok {
			issues = append(issues, validateProperties(entity, entityType)...)
		}
		if !s.connected[entity.ID] {
			issues = append(issues, entityIssue(entity, SeverityWarn, codeOrphanedEntity, "orphaned entity"))
		}
	}

	for _, t := range s.orphanTimelines {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeDanglingParent,
			Message:  fmt.Sprintf("parent timeline %s does not exist", t.ParentTimelineID),
			Timeline: t.Name,
		})
	}

	for _, l := range s.danglingLinks {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeDanglingLink,
			Message:  fmt.Sprintf("link %s between event %s and entity %s points at a missing record", l.Role, l.EventID, l.EntityID),
		})
	}
	for _, l := range s.links {
		if schema.IsKnownRole(l.Role) {
			continue
		}
		issue := Issue{
			Severity: SeverityWarn,
			Code:     codeUnknownRole,
			Message:  fmt.Sprintf("unknown link role: %s", l.Role),
		}
		if e, ok := s.entityByID[l.EntityID]; ok {
			issue.Entity = e.Name
		}
		issues = append(issues, issue)
	}

	for _, r := range s.danglingRelationships {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeDanglingRelationship,
			Message: fmt.Sprintf("%s relationship %s from %s %s to %s %s points at a missing record",
				r.RelationType, r.ID, r.SourceKind, r.SourceID, r.TargetKind, r.TargetID),
		})
	}

	return &Report{Issues: issues}, nil
}

// Prune deletes the dangling links and relationships Run reports and
// returns how many records it removed.
func Prune(ctx context.Context, st store.Storage, projectID uuid.UUID) (int, error) {
	s, err := scan(ctx, st, projectID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, l := range s.danglingLinks {
		if err := st.DeleteEventEntityLink(ctx, l.EventID, l.EntityID, l.Role); err != nil {
			return removed, fmt.Errorf("pruning link: %w", err)
		}
		removed++
	}
	for _, r := range s.danglingRelationships {
		if err := st.DeleteRelationship(ctx, r.ID); err != nil {
			return removed, fmt.Errorf("pruning relationship %s: %w", r.ID, err)
		}
		removed++
	}
	return removed, nil
}

func validateProperties(entity *domain.Entity, entityType *config.EntityType) []Issue {
	var issues []Issue
	for i := range entityType.Properties {
		prop := &entityType.Properties[i]
		value, ok := entity.Properties[prop.Name]
		if !ok || !value.IsSet() || isBlank(value) {
			if prop.Required {
				issues = append(issues, entityIssue(entity, SeverityError, codeMissingRequired,
					fmt.Sprintf("missing required property: %s", prop.Name)))
			}
			continue
		}
		if err := prop.Check(value); err != nil {
			code := codeTypeInvalid
			if strings.EqualFold(prop.Type, config.TypeEnum) {
				code = codeEnumInvalid
			}
			issues = append(issues, entityIssue(entity, SeverityError, code, err.Error()))
		}
	}
	return issues
}

func isBlank(v domain.PropertyValue) bool {
	s, ok := v.AsString()
	return ok && strings.TrimSpace(s) == ""
}

func entityIssue(entity *domain.Entity, severity Severity, code, message string) Issue {
	issue := Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Entity:   entity.Name,
	}
	if path, ok := entity.Properties["source_file"].AsString(); ok {
		issue.FilePath = path
	}
	return issue
}
