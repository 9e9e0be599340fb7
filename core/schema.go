package core

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// RelationshipType describes the cardinality of a relation field
type RelationshipType string

const (
	RelationshipManyToOne RelationshipType = "many_to_one"
	RelationshipHasMany   RelationshipType = "has_many"
)

// Relation links a field to documents of another collection
type Relation struct {
	Field  string           `json:"field"`
	Target string           `json:"target"`
	Type   RelationshipType `json:"type"`
}

// Collection describes a collection or global registered in a Schema
type Collection struct {
	Slug          string               `json:"slug"`
	DisplayName   string               `json:"display_name"`
	TableName     string               `json:"table_name"`
	Global        bool                 `json:"global"`
	DefaultSort   SortField            `json:"default_sort"`
	Relations     map[string]*Relation `json:"relations"`
	RelationOrder []string             `json:"-"`
}

// RelationList returns the relations in registration order
func (c *Collection) RelationList() []*Relation {
	out := make([]*Relation, 0, len(c.RelationOrder))
	for _, field := range c.RelationOrder {
		out = append(out, c.Relations[field])
	}
	return out
}

// Schema is a registry of the collections and globals a runtime serves
type Schema struct {
	collections map[string]*Collection
	order       []string
	globals     map[string]*Collection
	globalOrder []string
}

// NewSchema creates an empty Schema
func NewSchema() *Schema {
	return &Schema{
		collections: make(map[string]*Collection),
		globals:     make(map[string]*Collection),
	}
}

// RegisterCollection registers a collection slug and returns a builder for it
func (s *Schema) RegisterCollection(slug string) *CollectionBuilder {
	if slug == "" {
		panic("RegisterCollection expects a non-empty slug")
	}
	c := newCollection(slug, false)
	if _, exists := s.collections[slug]; !exists {
		s.order = append(s.order, slug)
	}
	s.collections[slug] = c
	return &CollectionBuilder{collection: c}
}

// RegisterGlobal registers a global slug and returns a builder for it
func (s *Schema) RegisterGlobal(slug string) *CollectionBuilder {
	if slug == "" {
		panic("RegisterGlobal expects a non-empty slug")
	}
	c := newCollection(slug, true)
	if _, exists := s.globals[slug]; !exists {
		s.globalOrder = append(s.globalOrder, slug)
	}
	s.globals[slug] = c
	return &CollectionBuilder{collection: c}
}

func newCollection(slug string, global bool) *Collection {
	return &Collection{
		Slug:        slug,
		DisplayName: generateDisplayName(slug),
		TableName:   generateTableName(slug),
		Global:      global,
		DefaultSort: SortField{Field: FieldCreatedAt, Direction: SortDesc},
		Relations:   make(map[string]*Relation),
	}
}

// Collection looks up a registered collection
func (s *Schema) Collection(slug string) (*Collection, bool) {
	c, ok := s.collections[slug]
	return c, ok
}

// Global looks up a registered global
func (s *Schema) Global(slug string) (*Collection, bool) {
	g, ok := s.globals[slug]
	return g, ok
}

// MustCollection returns the collection or an error naming the unknown slug
func (s *Schema) MustCollection(slug string) (*Collection, error) {
	c, ok := s.collections[slug]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", slug)
	}
	return c, nil
}

// Collections returns the registered collections in registration order
func (s *Schema) Collections() []*Collection {
	out := make([]*Collection, 0, len(s.order))
	for _, slug := range s.order {
		out = append(out, s.collections[slug])
	}
	return out
}

// Globals returns the registered globals in registration order
func (s *Schema) Globals() []*Collection {
	out := make([]*Collection, 0, len(s.globalOrder))
	for _, slug := range s.globalOrder {
		out = append(out, s.globals[slug])
	}
	return out
}

// CollectionBuilder provides fluent API for collection configuration
type CollectionBuilder struct {
	collection *Collection
}

// WithName sets a custom display name
func (cb *CollectionBuilder) WithName(name string) *CollectionBuilder {
	cb.collection.DisplayName = name
	return cb
}

// WithTableName overrides the generated storage table name
func (cb *CollectionBuilder) WithTableName(name string) *CollectionBuilder {
	cb.collection.TableName = name
	return cb
}

// WithDefaultSort sets the sort used when a query names none
func (cb *CollectionBuilder) WithDefaultSort(field string, direction SortDirection) *CollectionBuilder {
	cb.collection.DefaultSort = SortField{Field: field, Direction: direction}
	return cb
}

// WithManyToOne declares field as a reference to a single document of target
func (cb *CollectionBuilder) WithManyToOne(field, target string) *CollectionBuilder {
	return cb.withRelation(field, target, RelationshipManyToOne)
}

// WithHasMany declares field as a list of references to documents of target
func (cb *CollectionBuilder) WithHasMany(field, target string) *CollectionBuilder {
	return cb.withRelation(field, target, RelationshipHasMany)
}

func (cb *CollectionBuilder) withRelation(field, target string, kind RelationshipType) *CollectionBuilder {
	if _, exists := cb.collection.Relations[field]; !exists {
		cb.collection.RelationOrder = append(cb.collection.RelationOrder, field)
	}
	cb.collection.Relations[field] = &Relation{Field: field, Target: target, Type: kind}
	return cb
}

// Build returns the configured collection
func (cb *CollectionBuilder) Build() *Collection {
	return cb.collection
}

// DefaultSchema describes the status page collections and globals
func DefaultSchema() *Schema {
	s := NewSchema()

	s.RegisterCollection(CollectionServiceGroups)
	s.RegisterCollection(CollectionServices).
		WithManyToOne("group", CollectionServiceGroups)
	s.RegisterCollection(CollectionIncidents).
		WithHasMany("affectedServices", CollectionServices)
	s.RegisterCollection(CollectionMaintenances).
		WithHasMany("affectedServices", CollectionServices)
	s.RegisterCollection(CollectionNotifications).
		WithManyToOne("relatedIncident", CollectionIncidents).
		WithManyToOne("relatedMaintenance", CollectionMaintenances)
	s.RegisterCollection(CollectionSubscribers).
		WithHasMany("subscribedServices", CollectionServices)
	s.RegisterCollection(CollectionUsers)
	s.RegisterCollection(CollectionMedia).
		WithName("Media")

	s.RegisterGlobal(GlobalSettings).
		WithManyToOne("logoLight", CollectionMedia).
		WithManyToOne("logoDark", CollectionMedia)
	s.RegisterGlobal(GlobalEmailSettings).WithName("Email Settings")
	s.RegisterGlobal(GlobalSmsSettings).WithName("SMS Settings")

	return s
}

// generateDisplayName turns "service-groups" into "Service Groups"
func generateDisplayName(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	for i, w := range words {
		words[i] = strcase.ToCamel(w)
	}
	return strings.Join(words, " ")
}

func generateTableName(slug string) string {
	return strcase.ToSnake(slug)
}
