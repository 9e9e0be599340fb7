package localcms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/Docker-Hunterpedia/StatusDock/adapters/embedded"
	"github.com/Docker-Hunterpedia/StatusDock/core"
)

type documentRow struct {
	ID        int64  `db:"id"`
	Data      string `db:"data"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r documentRow) document() (core.Document, error) {
	doc, err := decodeData(r.Data)
	if err != nil {
		return nil, err
	}
	doc[core.FieldID] = r.ID
	doc[core.FieldCreatedAt] = r.CreatedAt
	doc[core.FieldUpdatedAt] = r.UpdatedAt
	return doc, nil
}

// Find retrieves a page of documents
func (s *Store) Find(ctx context.Context, args embedded.FindArgs) (*core.PaginatedResult, error) {
	c, err := s.schema.MustCollection(args.Collection)
	if err != nil {
		return nil, err
	}
	limit := args.Limit
	if limit <= 0 {
		limit = core.DefaultLimit
	}
	page := args.Page
	if page <= 0 {
		page = core.DefaultPage
	}

	whereSQL, whereArgs, err := compileWhere(c, args.Where)
	if err != nil {
		return nil, err
	}
	total, err := s.count(ctx, c, whereSQL, whereArgs)
	if err != nil {
		return nil, err
	}

	sortFields := core.ParseSort(args.Sort)
	if len(sortFields) == 0 {
		sortFields = []core.SortField{c.DefaultSort}
	}
	orderSQL, orderArgs, err := orderBy(sortFields)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT d.id, d.data, d.created_at, d.updated_at FROM %s AS d", quote(c.TableName))
	queryArgs := append([]any{}, whereArgs...)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	query += " ORDER BY " + orderSQL + " LIMIT ? OFFSET ?"
	queryArgs = append(queryArgs, orderArgs...)
	queryArgs = append(queryArgs, limit, (page-1)*limit)

	var rows []documentRow
	if err := s.selectContext(ctx, &rows, query, queryArgs...); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.Slug, err)
	}

	docs := make([]core.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		if err := s.hydrate(ctx, c, doc, args.Depth); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return core.NewPaginatedResult(docs, total, limit, page, core.TotalPagesFor(total, limit)), nil
}

// Count returns the number of documents matching args.Where
func (s *Store) Count(ctx context.Context, args embedded.FindArgs) (int, error) {
	c, err := s.schema.MustCollection(args.Collection)
	if err != nil {
		return 0, err
	}
	whereSQL, whereArgs, err := compileWhere(c, args.Where)
	if err != nil {
		return 0, err
	}
	return s.count(ctx, c, whereSQL, whereArgs)
}

func (s *Store) count(ctx context.Context, c *core.Collection, whereSQL string, whereArgs []any) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s AS d", quote(c.TableName))
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	var total int
	if err := s.getContext(ctx, &total, query, whereArgs...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.Slug, err)
	}
	return total, nil
}

// FindByID retrieves a single document
func (s *Store) FindByID(ctx context.Context, args embedded.FindByIDArgs) (core.Document, error) {
	c, err := s.schema.MustCollection(args.Collection)
	if err != nil {
		return nil, err
	}
	doc, err := s.load(ctx, c, args.ID)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, c, doc, args.Depth); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) load(ctx context.Context, c *core.Collection, id any) (core.Document, error) {
	rowID, ok := parseID(id)
	if !ok {
		return nil, &core.NotFoundError{Collection: c.Slug, ID: id}
	}
	var row documentRow
	query := fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s WHERE id = ?", quote(c.TableName))
	err := s.getContext(ctx, &row, query, rowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Collection: c.Slug, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %v: %w", c.Slug, id, err)
	}
	return row.document()
}

// Create inserts a document and returns it with id and timestamps
func (s *Store) Create(ctx context.Context, args embedded.CreateArgs) (core.Document, error) {
	c, err := s.schema.MustCollection(args.Collection)
	if err != nil {
		return nil, err
	}
	data, err := encodeData(s.storable(c, args.Data))
	if err != nil {
		return nil, err
	}
	now := s.timestamp()
	query := fmt.Sprintf("INSERT INTO %s (data, created_at, updated_at) VALUES (?, ?, ?)", quote(c.TableName))
	result, err := s.execContext(ctx, query, data, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", c.Slug, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read id of new %s: %w", c.Slug, err)
	}
	return s.load(ctx, c, id)
}

// Update merges data into an existing document
func (s *Store) Update(ctx context.Context, args embedded.UpdateArgs) (core.Document, error) {
	c, err := s.schema.MustCollection(args.Collection)
	if err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, c, args.ID)
	if err != nil {
		return nil, err
	}

	merged := s.storable(c, existing)
	for k, v := range s.storable(c, args.Data) {
		merged[k] = v
	}
	data, err := encodeData(merged)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("UPDATE %s SET data = ?, updated_at = ? WHERE id = ?", quote(c.TableName))
	if _, err := s.execContext(ctx, query, data, s.timestamp(), existing.ID()); err != nil {
		return nil, fmt.Errorf("failed to update %s %v: %w", c.Slug, args.ID, err)
	}
	return s.load(ctx, c, existing.ID())
}

// Delete removes a document. Deleting a missing document is a NotFoundError.
func (s *Store) Delete(ctx context.Context, args embedded.DeleteArgs) error {
	c, err := s.schema.MustCollection(args.Collection)
	if err != nil {
		return err
	}
	rowID, ok := parseID(args.ID)
	if !ok {
		return &core.NotFoundError{Collection: c.Slug, ID: args.ID}
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", quote(c.TableName))
	result, err := s.execContext(ctx, query, rowID)
	if err != nil {
		return fmt.Errorf("failed to delete %s %v: %w", c.Slug, args.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %v: %w", c.Slug, args.ID, err)
	}
	if affected == 0 {
		return &core.NotFoundError{Collection: c.Slug, ID: args.ID}
	}
	return nil
}

// storable strips system fields and reduces hydrated relations to ids
func (s *Store) storable(c *core.Collection, data core.Document) core.Document {
	out := make(core.Document, len(data))
	for k, v := range data {
		switch k {
		case core.FieldID, core.FieldCreatedAt, core.FieldUpdatedAt:
			continue
		}
		if rel, ok := c.Relations[k]; ok {
			v = dehydrate(rel, v)
		}
		out[k] = v
	}
	return out
}

func dehydrate(rel *core.Relation, v any) any {
	if rel.Type == core.RelationshipHasMany {
		rv := reflect.ValueOf(v)
		if v == nil || rv.Kind() != reflect.Slice {
			return v
		}
		ids := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ids = append(ids, relationID(rv.Index(i).Interface()))
		}
		return ids
	}
	return relationID(v)
}

func relationID(v any) any {
	switch t := v.(type) {
	case core.Document:
		return t.ID()
	case map[string]any:
		return t[core.FieldID]
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return i
		}
	}
	return v
}

// hydrate replaces relation ids with the related documents, depth levels deep.
// Targets that no longer exist stay as bare ids.
func (s *Store) hydrate(ctx context.Context, c *core.Collection, doc core.Document, depth int) error {
	if depth <= 0 {
		return nil
	}
	for _, rel := range c.RelationList() {
		value, ok := doc[rel.Field]
		if !ok || value == nil {
			continue
		}
		target, ok := s.schema.Collection(rel.Target)
		if !ok {
			continue
		}

		if rel.Type == core.RelationshipHasMany {
			items, ok := value.([]any)
			if !ok {
				continue
			}
			hydrated := make([]any, 0, len(items))
			for _, item := range items {
				related, err := s.related(ctx, target, item, depth-1)
				if err != nil {
					return err
				}
				hydrated = append(hydrated, related)
			}
			doc[rel.Field] = hydrated
			continue
		}

		related, err := s.related(ctx, target, value, depth-1)
		if err != nil {
			return err
		}
		doc[rel.Field] = related
	}
	return nil
}

func (s *Store) related(ctx context.Context, target *core.Collection, id any, depth int) (any, error) {
	if _, isDoc := id.(core.Document); isDoc {
		return id, nil
	}
	doc, err := s.load(ctx, target, id)
	if core.IsNotFound(err) {
		return id, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, target, doc, depth); err != nil {
		return nil, err
	}
	return doc, nil
}

func parseID(id any) (int64, bool) {
	switch t := id.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case float64:
		if t == float64(int64(t)) {
			return int64(t), true
		}
	case string:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
