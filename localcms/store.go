// Package localcms is a small SQLite-backed CMS runtime. It stores every
// collection as JSON documents and serves the embedded adapter.
package localcms

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/panjf2000/ants/v2"

	"github.com/Docker-Hunterpedia/StatusDock/adapters/embedded"
	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

// DefaultWorkers bounds concurrent job execution when Options.Workers is unset
const DefaultWorkers = 4

// Options configures a Store
type Options struct {
	DSN     string
	Schema  *core.Schema
	Tasks   []core.Task
	Logger  *logger.Logger
	Debug   bool
	Workers int
	Now     func() time.Time
}

// Store implements embedded.Runtime on SQLite
type Store struct {
	db     *sqlx.DB
	schema *core.Schema
	tasks  map[string]core.Task
	pool   *ants.Pool
	sqlLog *SQLLogger
	log    *logger.Logger
	now    func() time.Time
}

var _ embedded.Runtime = (*Store)(nil)

// Opener returns an embedded.Opener that opens a Store with opts
func Opener(opts Options) embedded.Opener {
	return func(ctx context.Context) (embedded.Runtime, error) {
		return Open(ctx, opts)
	}
}

// Open connects to the database and creates the tables the schema needs
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DSN == "" {
		return nil, &core.ConfigurationError{Key: "embedded.dsn", Msg: "a database DSN is required"}
	}
	if opts.Schema == nil {
		opts.Schema = core.DefaultSchema()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	log := logger.OrNop(opts.Logger).Component("localcms")

	db, err := sqlx.ConnectContext(ctx, "sqlite3", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	pool, err := ants.NewPool(opts.Workers, ants.WithPanicHandler(func(v any) {
		log.Error("job worker panicked").Interface("panic", v).Send()
	}))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create job pool: %w", err)
	}

	s := &Store{
		db:     db,
		schema: opts.Schema,
		tasks:  make(map[string]core.Task, len(opts.Tasks)),
		pool:   pool,
		sqlLog: NewSQLLogger(opts.Logger, opts.Debug),
		log:    log,
		now:    opts.Now,
	}
	for _, task := range opts.Tasks {
		s.tasks[task.Slug] = task
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	log.Info("embedded cms ready").
		Int("collections", len(s.schema.Collections())).
		Int("tasks", len(s.tasks)).
		Send()
	return s, nil
}

// Close releases the worker pool and the database
func (s *Store) Close() error {
	s.pool.Release()
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, c := range s.schema.Collections() {
		stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			data TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, quote(c.TableName))
		if _, err := s.execContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table for %s: %w", c.Slug, err)
		}
	}

	stmts := []string{`
		CREATE TABLE IF NOT EXISTS globals (
			slug TEXT PRIMARY KEY,
			data TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			task TEXT NOT NULL,
			input TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS jobs_status_idx ON jobs (status, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.execContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// selectContext wraps SelectContext with logging
func (s *Store) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := s.db.SelectContext(ctx, dest, query, args...)
	duration := time.Since(start)
	if err != nil {
		s.sqlLog.LogError(query, args, duration, err)
		return err
	}
	s.sqlLog.LogQuery(query, args, duration, reflect.Indirect(reflect.ValueOf(dest)).Len())
	return nil
}

// getContext wraps GetContext with logging. sql.ErrNoRows is returned unlogged.
func (s *Store) getContext(ctx context.Context, dest any, query string, args ...any) error {
	start := time.Now()
	err := s.db.GetContext(ctx, dest, query, args...)
	duration := time.Since(start)
	switch {
	case err == sql.ErrNoRows:
		s.sqlLog.LogQuery(query, args, duration, 0)
	case err != nil:
		s.sqlLog.LogError(query, args, duration, err)
	default:
		s.sqlLog.LogQuery(query, args, duration, 1)
	}
	return err
}

// execContext wraps ExecContext with logging
func (s *Store) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, query, args...)
	duration := time.Since(start)
	if err != nil {
		s.sqlLog.LogError(query, args, duration, err)
		return nil, err
	}
	s.sqlLog.LogExec(query, args, duration, result)
	return result, nil
}

func (s *Store) timestamp() string {
	return core.FormatTimestamp(s.now())
}

func quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

// decodeData parses stored JSON, keeping integers as int64
func decodeData(data string) (core.Document, error) {
	doc := core.Document{}
	if data == "" {
		return doc, nil
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode stored document: %w", err)
	}
	for k, v := range raw {
		doc[k] = convertNumbers(v)
	}
	return doc, nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, val := range t {
			t[k] = convertNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = convertNumbers(val)
		}
		return t
	}
	return v
}

func encodeData(doc core.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(data), nil
}
