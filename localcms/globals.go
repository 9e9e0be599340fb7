package localcms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Docker-Hunterpedia/StatusDock/adapters/embedded"
	"github.com/Docker-Hunterpedia/StatusDock/core"
)

type globalRow struct {
	Slug      string `db:"slug"`
	Data      string `db:"data"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

// FindGlobal returns a registered global. A global that was never saved is
// returned empty with its slug as id.
func (s *Store) FindGlobal(ctx context.Context, args embedded.FindGlobalArgs) (core.Document, error) {
	g, ok := s.schema.Global(args.Slug)
	if !ok {
		return nil, &core.NotFoundError{Collection: "global " + args.Slug}
	}
	doc, err := s.loadGlobal(ctx, g)
	if err != nil {
		return nil, err
	}
	if err := s.hydrate(ctx, g, doc, args.Depth); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateGlobal merges data into a registered global
func (s *Store) UpdateGlobal(ctx context.Context, args embedded.UpdateGlobalArgs) (core.Document, error) {
	g, ok := s.schema.Global(args.Slug)
	if !ok {
		return nil, &core.NotFoundError{Collection: "global " + args.Slug}
	}
	existing, err := s.loadGlobal(ctx, g)
	if err != nil {
		return nil, err
	}

	merged := s.storable(g, existing)
	for k, v := range s.storable(g, args.Data) {
		merged[k] = v
	}
	data, err := encodeData(merged)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	query := `
		INSERT INTO globals (slug, data, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.execContext(ctx, query, g.Slug, data, now, now); err != nil {
		return nil, fmt.Errorf("failed to update global %s: %w", g.Slug, err)
	}
	return s.loadGlobal(ctx, g)
}

func (s *Store) loadGlobal(ctx context.Context, g *core.Collection) (core.Document, error) {
	var row globalRow
	err := s.getContext(ctx, &row,
		"SELECT slug, data, created_at, updated_at FROM globals WHERE slug = ?", g.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		now := s.timestamp()
		return core.Document{
			core.FieldID:        g.Slug,
			core.FieldCreatedAt: now,
			core.FieldUpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load global %s: %w", g.Slug, err)
	}

	doc, err := decodeData(row.Data)
	if err != nil {
		return nil, err
	}
	doc[core.FieldID] = row.Slug
	doc[core.FieldCreatedAt] = row.CreatedAt
	doc[core.FieldUpdatedAt] = row.UpdatedAt
	return doc, nil
}
