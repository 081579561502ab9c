// Package ingest loads a directory tree of markdown documents into a
// project. Entity documents become entities, event documents become events
// on the timeline of the source they were found in, and front matter
// references become links and relationships.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"timelines/internal/config"
	"timelines/internal/domain"
	"timelines/internal/parser"
	"timelines/internal/repository"
)

type Result struct {
	EntitiesUpserted     int
	EventsUpserted       int
	LinksCreated         int
	RelationshipsCreated int
	EntitiesRemoved      int
	EventsRemoved        int
	FilesSkipped         int
	Errors               []error
}

type Options struct {
	// Full re-ingests files whose content hash has not changed.
	Full bool
}

type pendingDoc struct {
	doc      *parser.Document
	hash     string
	timeline *domain.Timeline
	entity   *domain.Entity
	event    *domain.Event
}

type ingester struct {
	repo    Repository
	schema  *config.Schema
	opts    Options
	result  *Result
	project *domain.Project

	timelines map[string]*domain.Timeline
	entities  map[string]*domain.Entity
	// per timeline, event title to id
	titles map[uuid.UUID]map[string]uuid.UUID
	// per timeline, source file to event
	events map[uuid.UUID]map[string]*domain.Event
	hashes map[string]string
	files  map[string]struct{}
}

func Run(ctx context.Context, cfg *config.ProjectConfig, schema *config.Schema, repo Repository, options Options) (*Result, error) {
	in := &ingester{
		repo:      repo,
		schema:    schema,
		opts:      options,
		result:    &Result{},
		timelines: make(map[string]*domain.Timeline),
		entities:  make(map[string]*domain.Entity),
		titles:    make(map[uuid.UUID]map[string]uuid.UUID),
		events:    make(map[uuid.UUID]map[string]*domain.Event),
		hashes:    make(map[string]string),
		files:     make(map[string]struct{}),
	}

	if err := in.ensureProject(ctx, cfg); err != nil {
		return nil, err
	}
	for _, src := range cfg.Sources {
		if _, err := in.ensureTimeline(ctx, cfg, src.Timeline); err != nil {
			return nil, err
		}
	}
	if err := in.loadExisting(ctx); err != nil {
		return nil, err
	}

	var pending []*pendingDoc
	sourceFiles := make(map[uuid.UUID]map[string]struct{})

	for _, src := range cfg.Sources {
		timeline := in.timelines[strings.ToLower(src.Timeline)]
		files, err := walkMarkdownFiles(src.Paths, cfg.Exclude)
		if err != nil {
			return nil, fmt.Errorf("walking files for timeline %s: %w", src.Timeline, err)
		}

		seen := sourceFiles[timeline.ID]
		if seen == nil {
			seen = make(map[string]struct{})
			sourceFiles[timeline.ID] = seen
		}
		for _, path := range files {
			seen[path] = struct{}{}
			in.files[path] = struct{}{}

			p, err := in.read(path, timeline)
			if err != nil {
				in.fail(err)
				continue
			}
			if p == nil {
				in.result.FilesSkipped++
				continue
			}
			pending = append(pending, p)
		}
	}

	in.removeStale(ctx, sourceFiles)

	for _, p := range pending {
		if !p.doc.IsEvent() {
			in.upsertEntity(ctx, p)
		}
	}
	for _, p := range pending {
		if p.doc.IsEvent() {
			in.upsertEvent(ctx, p)
		}
	}
	for _, p := range pending {
		switch {
		case p.entity != nil:
			in.linkEntity(ctx, p)
		case p.event != nil:
			in.linkEvent(ctx, p)
		}
	}

	return in.result, nil
}

func (in *ingester) fail(err error) {
	in.result.Errors = append(in.result.Errors, err)
}

func (in *ingester) ensureProject(ctx context.Context, cfg *config.ProjectConfig) error {
	projects, err := in.repo.ListUserProjects(ctx, cfg.User())
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, cfg.Project) {
			in.project = p
			return nil
		}
	}
	project, err := in.repo.CreateProject(ctx, cfg.User(), cfg.Project, "", nil)
	if err != nil {
		return fmt.Errorf("creating project %s: %w", cfg.Project, err)
	}
	in.project = project
	return nil
}

// ensureTimeline finds or creates the named source timeline, creating its
// configured parent first.
func (in *ingester) ensureTimeline(ctx context.Context, cfg *config.ProjectConfig, name string) (*domain.Timeline, error) {
	key := strings.ToLower(name)
	if t, ok := in.timelines[key]; ok {
		return t, nil
	}
	src, ok := cfg.SourceByTimeline(name)
	if !ok {
		return nil, fmt.Errorf("timeline %s has no source", name)
	}

	var parentID *uuid.UUID
	if src.Parent != "" {
		parent, err := in.ensureTimeline(ctx, cfg, src.Parent)
		if err != nil {
			return nil, err
		}
		parentID = &parent.ID
	}

	existing, err := in.repo.ListTimelines(ctx, in.project.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("listing timelines: %w", err)
	}
	for _, t := range existing {
		if strings.EqualFold(t.Name, src.Timeline) {
			in.timelines[key] = t
			return t, nil
		}
	}

	t, err := in.repo.CreateTimeline(ctx, in.project.ID, cfg.User(), src.Timeline, "", parentID, domain.TimelineStatus(src.Status))
	if err != nil {
		return nil, fmt.Errorf("creating timeline %s: %w", src.Timeline, err)
	}
	in.timelines[key] = t
	return t, nil
}

func (in *ingester) loadExisting(ctx context.Context) error {
	entities, err := in.repo.ListEntities(ctx, in.project.ID, "")
	if err != nil {
		return fmt.Errorf("listing entities: %w", err)
	}
	for _, e := range entities {
		in.entities[strings.ToLower(e.Name)] = e
		if path, ok := e.Properties[keySourceFile].AsString(); ok {
			hash, _ := e.Properties[keySourceHash].AsString()
			in.hashes[path] = hash
		}
	}

	for _, t := range in.timelines {
		events, err := in.repo.QueryEvents(ctx, t.ID, repository.EventFilter{})
		if err != nil {
			return fmt.Errorf("listing events of %s: %w", t.Name, err)
		}
		byFile := make(map[string]*domain.Event)
		titles := make(map[string]uuid.UUID)
		for _, e := range events {
			if title, ok := e.Metadata[keyTitle].AsString(); ok {
				titles[strings.ToLower(title)] = e.ID
			}
			path, ok := e.Metadata[keySourceFile].AsString()
			if !ok {
				continue
			}
			byFile[path] = e
			hash, _ := e.Metadata[keySourceHash].AsString()
			in.hashes[path] = hash
		}
		in.events[t.ID] = byFile
		in.titles[t.ID] = titles
	}
	return nil
}

// read hashes and parses one file. A nil document with a nil error means
// the file is skipped.
func (in *ingester) read(path string, timeline *domain.Timeline) (*pendingDoc, error) {
	hash, err := computeHash(path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	if !in.opts.Full {
		if existing, ok := in.hashes[path]; ok && existing == hash {
			return nil, nil
		}
	}

	doc, err := parser.ParseFile(path)
	if err != nil {
		if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingType) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if !doc.IsEvent() {
		if !domain.EntityType(doc.Type).Valid() {
			return nil, nil
		}
		if in.schema != nil && len(in.schema.EntityTypes) > 0 {
			if _, ok := in.schema.EntityTypeByName(doc.Type); !ok {
				return nil, nil
			}
		}
	}

	return &pendingDoc{doc: doc, hash: hash, timeline: timeline}, nil
}

// removeStale deletes ingested records whose source file is gone.
func (in *ingester) removeStale(ctx context.Context, sourceFiles map[uuid.UUID]map[string]struct{}) {
	for timelineID, byFile := range in.events {
		present := sourceFiles[timelineID]
		for path, e := range byFile {
			if _, ok := present[path]; ok {
				continue
			}
			if err := in.repo.DeleteEvent(ctx, e.ID); err != nil {
				in.fail(fmt.Errorf("removing stale event from %s: %w", path, err))
				continue
			}
			delete(byFile, path)
			if title, ok := e.Metadata[keyTitle].AsString(); ok {
				delete(in.titles[timelineID], strings.ToLower(title))
			}
			in.result.EventsRemoved++
		}
	}

	for key, e := range in.entities {
		path, ok := e.Properties[keySourceFile].AsString()
		if !ok {
			continue
		}
		if in.claimed(path) {
			continue
		}
		if err := in.repo.DeleteEntity(ctx, e.ID); err != nil {
			in.fail(fmt.Errorf("removing stale entity from %s: %w", path, err))
			continue
		}
		delete(in.entities, key)
		in.result.EntitiesRemoved++
	}
}

func (in *ingester) upsertEntity(ctx context.Context, p *pendingDoc) {
	doc := p.doc
	entityType, _ := in.schema.EntityTypeByName(doc.Type)
	props := filterProperties(doc.Frontmatter, entityType)
	props[keySourceFile] = domain.StringValue(doc.SourceFile)
	props[keySourceHash] = domain.StringValue(p.hash)

	key := strings.ToLower(doc.Title)
	existing, ok := in.entities[key]
	if ok {
		if path, _ := existing.Properties[keySourceFile].AsString(); path != doc.SourceFile && in.claimed(path) {
			in.fail(fmt.Errorf("duplicate entity %q in %s and %s", doc.Title, path, doc.SourceFile))
			return
		}
		existing.EntityType = domain.EntityType(doc.Type)
		existing.Name = doc.Title
		existing.Description = doc.Description()
		existing.Properties = props
		if err := in.repo.UpdateEntity(ctx, existing); err != nil {
			in.fail(fmt.Errorf("updating entity %s from %s: %w", doc.Title, doc.SourceFile, err))
			return
		}
		p.entity = existing
	} else {
		e, err := in.repo.CreateEntity(ctx, in.project.ID, domain.EntityType(doc.Type), doc.Title, doc.Description(), props)
		if err != nil {
			in.fail(fmt.Errorf("creating entity %s from %s: %w", doc.Title, doc.SourceFile, err))
			return
		}
		in.entities[key] = e
		p.entity = e
	}
	in.result.EntitiesUpserted++
}

// claimed reports whether a file found in this run owns an entity.
func (in *ingester) claimed(path string) bool {
	_, ok := in.files[path]
	return ok
}

func (in *ingester) upsertEvent(ctx context.Context, p *pendingDoc) {
	doc := p.doc
	e, err := in.buildEvent(p)
	if err != nil {
		in.fail(fmt.Errorf("reading event %s: %w", doc.SourceFile, err))
		return
	}

	byFile := in.events[p.timeline.ID]
	if existing, ok := byFile[doc.SourceFile]; ok {
		if title, ok := existing.Metadata[keyTitle].AsString(); ok {
			delete(in.titles[p.timeline.ID], strings.ToLower(title))
		}
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
		if err := in.repo.UpdateEvent(ctx, e); err != nil {
			in.fail(fmt.Errorf("updating event %s: %w", doc.SourceFile, err))
			return
		}
	} else {
		opts := []domain.EventOption{
			domain.WithImportance(e.ImportanceScore),
			domain.WithDetailLevel(e.DetailLevel),
			domain.WithStateDelta(e.StateDelta),
			domain.WithEventMetadata(e.Metadata),
		}
		if e.EndTimestamp != nil {
			opts = append(opts, domain.WithEndTimestamp(*e.EndTimestamp))
		}
		created, err := in.repo.AddEvent(ctx, p.timeline.ID, e.Timestamp, e.EventType, e.Description, opts...)
		if err != nil {
			in.fail(fmt.Errorf("adding event %s: %w", doc.SourceFile, err))
			return
		}
		e = created
	}

	byFile[doc.SourceFile] = e
	in.titles[p.timeline.ID][strings.ToLower(doc.Title)] = e.ID
	p.event = e
	in.result.EventsUpserted++
}

// buildEvent reads an event document into an unsaved event.
func (in *ingester) buildEvent(p *pendingDoc) (*domain.Event, error) {
	doc := p.doc
	ts, _, err := doc.Time("timestamp")
	if err != nil {
		return nil, err
	}

	eventType := domain.EventObservation
	if s := doc.String("event_type"); s != "" {
		eventType = domain.EventType(strings.ToLower(s))
		if !eventType.Valid() {
			return nil, fmt.Errorf("unknown event_type: %s", s)
		}
	}

	var opts []domain.EventOption
	end, ok, err := doc.Time("end")
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, domain.WithEndTimestamp(end))
	}
	if value, ok := doc.Frontmatter["importance"]; ok {
		importance, err := parseDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("importance: %w", err)
		}
		opts = append(opts, domain.WithImportance(importance))
	}
	if value, ok := doc.Frontmatter["detail"]; ok {
		level, ok := value.(int)
		if !ok {
			return nil, fmt.Errorf("detail must be an integer")
		}
		opts = append(opts, domain.WithDetailLevel(level))
	}

	consequences, err := parseConsequences(doc.Frontmatter["consequences"])
	if err != nil {
		return nil, err
	}
	delta, err := buildDelta(consequences, in.lookup)
	if err != nil {
		return nil, err
	}
	opts = append(opts, domain.WithStateDelta(delta))

	metadata := domain.Properties{
		keyTitle:      domain.StringValue(doc.Title),
		keySourceFile: domain.StringValue(doc.SourceFile),
		keySourceHash: domain.StringValue(p.hash),
	}
	if len(doc.Tags) > 0 {
		metadata[keyTags] = domain.StringValue(strings.Join(doc.Tags, ","))
	}
	opts = append(opts, domain.WithEventMetadata(metadata))

	return domain.NewEvent(p.timeline.ID, ts, eventType, doc.Description(), opts...)
}

func (in *ingester) lookup(name string) (uuid.UUID, bool) {
	e, ok := in.entities[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return uuid.Nil, false
	}
	return e.ID, true
}

// linkEvent replaces the event's entity links and the causal edges its
// file declares.
func (in *ingester) linkEvent(ctx context.Context, p *pendingDoc) {
	doc, event := p.doc, p.event

	current, err := in.repo.GetEventEntities(ctx, event.ID)
	if err != nil {
		in.fail(fmt.Errorf("listing links of %s: %w", doc.SourceFile, err))
		return
	}
	for _, link := range current {
		if err := in.repo.UnlinkEventEntity(ctx, event.ID, link.Entity.ID, ""); err != nil {
			in.fail(fmt.Errorf("unlinking %s: %w", doc.SourceFile, err))
		}
	}

	wanted := map[string][]string{
		domain.RoleActor:    resolveFieldValue(doc.Frontmatter["participants"]),
		domain.RoleLocation: resolveFieldValue(doc.Frontmatter["location"]),
	}
	roles, err := parseRoles(doc.Frontmatter["roles"])
	if err != nil {
		in.fail(fmt.Errorf("reading roles in %s: %w", doc.SourceFile, err))
	}
	for role, names := range roles {
		role = domain.NormalizeRole(role)
		wanted[role] = append(wanted[role], names...)
	}

	for role, names := range wanted {
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				continue
			}
			id, ok := in.lookup(name)
			if !ok {
				in.fail(fmt.Errorf("%s references unknown entity: %s", doc.SourceFile, name))
				continue
			}
			if err := in.repo.LinkEventEntity(ctx, event.ID, id, role); err != nil {
				in.fail(fmt.Errorf("linking %s to %s: %w", doc.SourceFile, name, err))
				continue
			}
			in.result.LinksCreated++
		}
	}

	if err := in.dropOwnedRelationships(ctx, domain.EventRef(event.ID), doc.SourceFile); err != nil {
		in.fail(err)
		return
	}

	titles := in.titles[p.timeline.ID]
	for _, cause := range resolveFieldValue(doc.Frontmatter["caused_by"]) {
		causeID, ok := titles[strings.ToLower(strings.TrimSpace(cause))]
		if !ok {
			in.fail(fmt.Errorf("%s is caused by unknown event: %s", doc.SourceFile, cause))
			continue
		}
		if causeID == event.ID {
			in.fail(fmt.Errorf("%s lists itself as its cause", doc.SourceFile))
			continue
		}
		in.relate(ctx, domain.EventRef(causeID), domain.EventRef(event.ID), domain.RelationCausal, doc.SourceFile, "caused_by")
	}
	in.relateRelated(ctx, domain.EventRef(event.ID), doc)
}

// linkEntity replaces the relationships the entity's field mappings and
// related list declare.
func (in *ingester) linkEntity(ctx context.Context, p *pendingDoc) {
	doc, entity := p.doc, p.entity
	if err := in.dropOwnedRelationships(ctx, domain.EntityRef(entity.ID), doc.SourceFile); err != nil {
		in.fail(err)
		return
	}

	if entityType, ok := in.schema.EntityTypeByName(doc.Type); ok {
		for _, mapping := range entityType.FieldMappings {
			for _, name := range resolveFieldValue(doc.Frontmatter[mapping.Field]) {
				if strings.TrimSpace(name) == "" {
					continue
				}
				target, ok := in.entities[strings.ToLower(strings.TrimSpace(name))]
				if !ok {
					in.fail(fmt.Errorf("%s field %s references unknown entity: %s", doc.SourceFile, mapping.Field, name))
					continue
				}
				if !allowsTarget(mapping, target) {
					in.fail(fmt.Errorf("%s field %s: %s is a %s", doc.SourceFile, mapping.Field, name, target.EntityType))
					continue
				}
				in.relate(ctx, domain.EntityRef(entity.ID), domain.EntityRef(target.ID),
					domain.RelationType(strings.ToLower(mapping.Relationship)), doc.SourceFile, mapping.Field)
			}
		}
	}
	in.relateRelated(ctx, domain.EntityRef(entity.ID), doc)
}

func (in *ingester) relateRelated(ctx context.Context, source domain.NodeRef, doc *parser.Document) {
	for _, name := range resolveFieldValue(doc.Frontmatter["related"]) {
		if strings.TrimSpace(name) == "" {
			continue
		}
		id, ok := in.lookup(name)
		if !ok {
			in.fail(fmt.Errorf("%s is related to unknown entity: %s", doc.SourceFile, name))
			continue
		}
		if id == source.ID {
			continue
		}
		in.relate(ctx, source, domain.EntityRef(id), domain.RelationReferential, doc.SourceFile, "related")
	}
}

func (in *ingester) relate(ctx context.Context, source, target domain.NodeRef, relationType domain.RelationType, sourceFile, field string) {
	metadata := domain.Properties{
		keySourceFile: domain.StringValue(sourceFile),
		"field":       domain.StringValue(field),
	}
	if _, err := in.repo.CreateRelationship(ctx, source, target, relationType, domain.WithRelationshipMetadata(metadata)); err != nil {
		in.fail(fmt.Errorf("relating %s: %w", sourceFile, err))
		return
	}
	in.result.RelationshipsCreated++
}

// dropOwnedRelationships deletes relationships touching node that an
// earlier ingest of sourceFile created.
func (in *ingester) dropOwnedRelationships(ctx context.Context, node domain.NodeRef, sourceFile string) error {
	rels, err := in.repo.GetRelationships(ctx, repository.RelationshipQuery{
		NodeID:   node.ID,
		NodeKind: node.Kind,
		AsSource: true,
		AsTarget: true,
	})
	if err != nil {
		return fmt.Errorf("listing relationships of %s: %w", sourceFile, err)
	}
	for _, rel := range rels {
		if owner, _ := rel.Metadata[keySourceFile].AsString(); owner != sourceFile {
			continue
		}
		if err := in.repo.DeleteRelationship(ctx, rel.ID); err != nil {
			return fmt.Errorf("deleting relationship of %s: %w", sourceFile, err)
		}
	}
	return nil
}

func allowsTarget(mapping config.FieldMapping, target *domain.Entity) bool {
	if len(mapping.TargetType) == 0 {
		return true
	}
	for _, t := range mapping.TargetType {
		if strings.EqualFold(t, string(target.EntityType)) {
			return true
		}
	}
	return false
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excludes) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excludes) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// isExcluded matches a path against exclude entries. An entry is either a
// path prefix or a directory name wrapped in "**/" and "/**", which
// matches that directory anywhere in the tree.
func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	sep := string(os.PathSeparator)
	for _, exclude := range excludes {
		if exclude == "" {
			continue
		}
		if strings.HasPrefix(exclude, "**/") {
			name := filepath.Clean(strings.TrimSuffix(strings.TrimPrefix(exclude, "**/"), "/**"))
			if filepath.Base(clean) == name || strings.Contains(clean, sep+name+sep) || strings.HasPrefix(clean, name+sep) {
				return true
			}
			continue
		}
		exclude = filepath.Clean(exclude)
		if exclude == clean || strings.HasPrefix(clean, exclude+sep) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func resolveFieldValue(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return values
	default:
		return nil
	}
}

// filterProperties keeps the scalar front matter values that are not
// reserved or field mappings. When the schema declares the entity type only
// its declared properties are kept.
func filterProperties(frontmatter map[string]any, entityType *config.EntityType) domain.Properties {
	props := make(domain.Properties)
	for key, value := range frontmatter {
		if _, ok := reservedKeys[key]; ok {
			continue
		}
		if key == keySourceFile || key == keySourceHash {
			continue
		}
		if entityType != nil {
			if isFieldMapping(entityType, key) {
				continue
			}
			if _, ok := entityType.Property(key); !ok {
				continue
			}
		}
		v, err := domain.PropertyFromAny(value)
		if err != nil {
			continue
		}
		props[key] = v
	}
	return props
}

func isFieldMapping(entityType *config.EntityType, key string) bool {
	for _, mapping := range entityType.FieldMappings {
		if mapping.Field == key {
			return true
		}
	}
	return false
}
