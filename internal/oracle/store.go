// File path: internal/oracle/store.go
package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mattlimsiaco/trackwise-search/internal/common"
	"github.com/mattlimsiaco/trackwise-search/internal/schema"
)

// ExecutionError is a database failure reported as data: the API returns it
// alongside the attempted SQL instead of raising it, so callers can show both.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return e.Message
}

// Config carries the Oracle connection settings. Owner scopes schema reads
// (the TrackWise views live under SYSADM).
type Config struct {
	Username string
	Password string
	DSN      string
	Owner    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store wraps a pooled sqlx.DB connection to Oracle.
type Store struct {
	db    *sqlx.DB
	owner string
}

// Open connects to Oracle via the go-ora driver registered under "oracle".
func Open(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("oracle dsn required")
	}
	connString := fmt.Sprintf("oracle://%s:%s@%s",
		url.PathEscape(cfg.Username), url.PathEscape(cfg.Password), cfg.DSN)
	db, err := sqlx.Open("oracle", connString)
	if err != nil {
		return nil, fmt.Errorf("open oracle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping oracle: %w", err)
	}
	common.Logger().Info("oracle: connected", "dsn", cfg.DSN, "owner", cfg.Owner)
	return NewStore(db, cfg.Owner), nil
}

// NewStore wraps an existing connection; tests inject a mocked one here.
func NewStore(db *sqlx.DB, owner string) *Store {
	if owner == "" {
		owner = "SYSADM"
	}
	return &Store{db: db, owner: owner}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Execute runs the generated SQL and materializes the full result set as
// ordered column-to-value rows. Columns whose name contains ROWID are
// dropped and byte slices are converted to strings so large objects survive
// the connection. A database failure comes back as *ExecutionError.
func (s *Store) Execute(ctx context.Context, sqlText string) ([]map[string]interface{}, error) {
	logger := common.Logger()
	rows, err := s.db.QueryxContext(ctx, sqlText)
	if err != nil {
		logger.Warn("oracle: query failed", "error", err)
		return nil, &ExecutionError{Message: err.Error()}
	}
	defer rows.Close()
	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			logger.Warn("oracle: row scan failed", "error", err)
			return nil, &ExecutionError{Message: err.Error()}
		}
		filtered := make(map[string]interface{}, len(row))
		for name, value := range row {
			if strings.Contains(name, "ROWID") {
				continue
			}
			if raw, ok := value.([]byte); ok {
				value = string(raw)
			}
			filtered[name] = value
		}
		results = append(results, filtered)
	}
	if err := rows.Err(); err != nil {
		logger.Warn("oracle: result iteration failed", "error", err)
		return nil, &ExecutionError{Message: err.Error()}
	}
	logger.Info("oracle: query executed", "rows", len(results))
	return results, nil
}

const schemaColumnsQuery = `SELECT table_name, column_name, data_type FROM all_tab_columns WHERE owner = :1 ORDER BY table_name, column_id`

// SchemaColumns reads one row per (table, column) for the configured owner,
// feeding the schema index rebuild.
func (s *Store) SchemaColumns(ctx context.Context) ([]schema.SourceColumn, error) {
	rows, err := s.db.QueryContext(ctx, schemaColumnsQuery, s.owner)
	if err != nil {
		return nil, fmt.Errorf("read schema columns: %w", err)
	}
	defer rows.Close()
	var out []schema.SourceColumn
	for rows.Next() {
		var col schema.SourceColumn
		if err := rows.Scan(&col.TableName, &col.ColumnName, &col.Datatype); err != nil {
			return nil, fmt.Errorf("scan schema column: %w", err)
		}
		out = append(out, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema columns: %w", err)
	}
	return out, nil
}
