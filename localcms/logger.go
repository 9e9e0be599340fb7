package localcms

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

// SQLLogger provides SQL debug logging
type SQLLogger struct {
	enabled bool
	log     *logger.Logger
}

// NewSQLLogger creates a new SQL logger writing to log
func NewSQLLogger(log *logger.Logger, enabled bool) *SQLLogger {
	return &SQLLogger{
		enabled: enabled,
		log:     logger.OrNop(log).Component("sql"),
	}
}

// IsEnabled returns whether SQL logging is enabled
func (l *SQLLogger) IsEnabled() bool {
	return l.enabled
}

// LogQuery logs a SELECT query with execution time and row count
func (l *SQLLogger) LogQuery(query string, args []any, duration time.Duration, rowCount int) {
	if !l.IsEnabled() {
		return
	}
	l.log.Debug(formatQuery(query)).
		Str("args", formatArgs(args)).
		Int("rows", rowCount).
		Dur("duration", duration).
		Send()
}

// LogExec logs an INSERT/UPDATE/DELETE query with execution time and affected rows
func (l *SQLLogger) LogExec(query string, args []any, duration time.Duration, result sql.Result) {
	if !l.IsEnabled() {
		return
	}
	event := l.log.Debug(formatQuery(query)).
		Str("args", formatArgs(args)).
		Dur("duration", duration)
	if result != nil {
		if affected, err := result.RowsAffected(); err == nil {
			event = event.Int64("rows", affected)
		}
	}
	event.Send()
}

// LogError logs a query that resulted in an error
func (l *SQLLogger) LogError(query string, args []any, duration time.Duration, err error) {
	if !l.IsEnabled() {
		return
	}
	l.log.Error(formatQuery(query)).
		Str("args", formatArgs(args)).
		Dur("duration", duration).
		Err(err).
		Send()
}

// formatQuery collapses whitespace so a query fits on one line
func formatQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// formatArgs formats the query arguments for logging
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			formatted = append(formatted, fmt.Sprintf(`"%s"`, v))
		case nil:
			formatted = append(formatted, "NULL")
		default:
			formatted = append(formatted, fmt.Sprintf("%v", v))
		}
	}
	return "[" + strings.Join(formatted, ", ") + "]"
}
