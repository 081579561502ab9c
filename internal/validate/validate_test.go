package validate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"timelines/internal/config"
	"timelines/internal/domain"
	"timelines/internal/store/memory"
)

type fixture struct {
	store    *memory.Store
	project  *domain.Project
	timeline *domain.Timeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	project, err := domain.NewProject(uuid.New(), "Saga", "", nil)
	if err != nil {
		t.Fatalf("new project: %v", err)
	}
	if err := st.InsertProject(ctx, project); err != nil {
		t.Fatalf("insert project: %v", err)
	}
	timeline, err := domain.NewTimeline(project.ID, project.UserID, "Main", "", nil, "")
	if err != nil {
		t.Fatalf("new timeline: %v", err)
	}
	if err := st.InsertTimeline(ctx, timeline); err != nil {
		t.Fatalf("insert timeline: %v", err)
	}
	return &fixture{store: st, project: project, timeline: timeline}
}

func (f *fixture) entity(t *testing.T, typ domain.EntityType, name string, props domain.Properties) *domain.Entity {
	t.Helper()
	e, err := domain.NewEntity(f.project.ID, typ, name, name+" description", props)
	if err != nil {
		t.Fatalf("new entity: %v", err)
	}
	if err := f.store.InsertEntity(context.Background(), e); err != nil {
		t.Fatalf("insert entity: %v", err)
	}
	return e
}

func (f *fixture) event(t *testing.T) *domain.Event {
	t.Helper()
	e, err := domain.NewEvent(f.timeline.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), domain.EventObservation, "something happens")
	if err != nil {
		t.Fatalf("new event: %v", err)
	}
	if err := f.store.InsertEvent(context.Background(), e); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	return e
}

func (f *fixture) link(t *testing.T, eventID, entityID uuid.UUID, role string) {
	t.Helper()
	l, err := domain.NewEventEntityLink(eventID, entityID, role)
	if err != nil {
		t.Fatalf("new link: %v", err)
	}
	if err := f.store.InsertEventEntityLink(context.Background(), l); err != nil {
		t.Fatalf("insert link: %v", err)
	}
}

func (f *fixture) run(t *testing.T, schema *config.Schema) *Report {
	t.Helper()
	report, err := Run(context.Background(), schema, f.store, f.project.ID)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return report
}

func TestRun_EnumViolation(t *testing.T) {
	schema := loadSchema(t, `version: 1
entity_types:
  - name: character
    properties:
      - { name: status, type: enum, values: [alive, dead] }
`)
	f := newFixture(t)
	f.entity(t, domain.EntityCharacter, "Mara", domain.Properties{"status": domain.StringValue("ghost")})

	report := f.run(t, schema)
	if !hasIssueCode(report.Issues, codeEnumInvalid) {
		t.Fatalf("expected enum violation issue, got %+v", report.Issues)
	}
}

func TestRun_PropertyTypeViolation(t *testing.T) {
	schema := loadSchema(t, `version: 1
entity_types:
  - name: character
    properties:
      - { name: age, type: number }
`)
	f := newFixture(t)
	f.entity(t, domain.EntityCharacter, "Mara", domain.Properties{"age": domain.StringValue("old")})

	report := f.run(t, schema)
	if !hasIssueCode(report.Issues, codeTypeInvalid) {
		t.Fatalf("expected property type issue, got %+v", report.Issues)
	}
}

func TestRun_MissingRequiredProperty(t *testing.T) {
	schema := loadSchema(t, `version: 1
entity_types:
  - name: character
    properties:
      - { name: role, type: string, required: true }
`)
	f := newFixture(t)
	e := f.entity(t, domain.EntityCharacter, "Mara", domain.Properties{
		"source_file": domain.StringValue("lore/mara.md"),
	})

	report := f.run(t, schema)
	var found *Issue
	for i := range report.Issues {
		if report.Issues[i].Code == codeMissingRequired {
			found = &report.Issues[i]
		}
	}
	if found == nil {
		t.Fatalf("expected missing required property issue")
	}
	if found.Entity != e.Name || found.FilePath != "lore/mara.md" {
		t.Fatalf("unexpected issue: %+v", found)
	}
}

func TestRun_DanglingLink(t *testing.T) {
	f := newFixture(t)
	event := f.event(t)
	f.link(t, event.ID, uuid.New(), domain.RoleActor)

	report := f.run(t, nil)
	if !hasIssueCode(report.Issues, codeDanglingLink) {
		t.Fatalf("expected dangling link issue, got %+v", report.Issues)
	}
	if !report.HasErrors() {
		t.Fatalf("expected report to have errors")
	}
}

func TestRun_DanglingRelationship(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.entity(t, domain.EntityCharacter, "Mara", nil)
	b := f.entity(t, domain.EntityCharacter, "Tomas", nil)
	rel, err := domain.NewRelationship(domain.EntityRef(a.ID), domain.EntityRef(b.ID), domain.RelationReferential)
	if err != nil {
		t.Fatalf("new relationship: %v", err)
	}
	if err := f.store.InsertRelationship(ctx, rel); err != nil {
		t.Fatalf("insert relationship: %v", err)
	}
	if err := f.store.DeleteEntity(ctx, b.ID); err != nil {
		t.Fatalf("delete entity: %v", err)
	}

	report := f.run(t, nil)
	if !hasIssueCode(report.Issues, codeDanglingRelationship) {
		t.Fatalf("expected dangling relationship issue, got %+v", report.Issues)
	}
}

func TestRun_OrphanedEntity(t *testing.T) {
	f := newFixture(t)
	f.entity(t, domain.EntityCharacter, "Lonely", nil)
	linked := f.entity(t, domain.EntityCharacter, "Busy", nil)
	f.link(t, f.event(t).ID, linked.ID, domain.RoleActor)

	report := f.run(t, nil)
	orphans := 0
	for _, issue := range report.Issues {
		if issue.Code == codeOrphanedEntity {
			orphans++
			if issue.Entity != "Lonely" {
				t.Fatalf("unexpected orphan: %s", issue.Entity)
			}
		}
	}
	if orphans != 1 {
		t.Fatalf("expected one orphan, got %d", orphans)
	}
	if report.HasErrors() {
		t.Fatalf("orphans are warnings, got %+v", report.Issues)
	}
}

func TestRun_DuplicateName(t *testing.T) {
	f := newFixture(t)
	f.entity(t, domain.EntityCharacter, "Mara", nil)
	f.entity(t, domain.EntityPlace, "mara", nil)

	report := f.run(t, nil)
	if !hasIssueCode(report.Issues, codeDuplicateName) {
		t.Fatalf("expected duplicate name issue")
	}
}

func TestRun_UnknownRole(t *testing.T) {
	schema := loadSchema(t, `version: 1
roles: [witness]
`)
	f := newFixture(t)
	mara := f.entity(t, domain.EntityCharacter, "Mara", nil)
	event := f.event(t)
	f.link(t, event.ID, mara.ID, "witness")
	f.link(t, event.ID, mara.ID, "bystander")

	report := f.run(t, schema)
	unknown := 0
	for _, issue := range report.Issues {
		if issue.Code == codeUnknownRole {
			unknown++
		}
	}
	if unknown != 1 {
		t.Fatalf("expected one unknown role, got %d", unknown)
	}
	if report.Count(SeverityWarn) != 1 {
		t.Fatalf("expected a single warning, got %+v", report.Issues)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	event := f.event(t)
	mara := f.entity(t, domain.EntityCharacter, "Mara", nil)
	f.link(t, event.ID, mara.ID, domain.RoleActor)
	f.link(t, event.ID, uuid.New(), domain.RoleActor)

	rel, err := domain.NewRelationship(domain.EventRef(event.ID), domain.EventRef(uuid.New()), domain.RelationCausal)
	if err != nil {
		t.Fatalf("new relationship: %v", err)
	}
	if err := f.store.InsertRelationship(ctx, rel); err != nil {
		t.Fatalf("insert relationship: %v", err)
	}

	removed, err := Prune(ctx, f.store, f.project.ID)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 records pruned, got %d", removed)
	}

	report := f.run(t, nil)
	if report.HasErrors() {
		t.Fatalf("expected clean report after prune, got %+v", report.Issues)
	}
	links, err := f.store.ListLinksByEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("list links: %v", err)
	}
	if len(links) != 1 || links[0].EntityID != mara.ID {
		t.Fatalf("expected the live link kept, got %+v", links)
	}
}

func hasIssueCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func loadSchema(t *testing.T, contents string) *config.Schema {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	schema, err := config.LoadSchema(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return schema
}
