// Package docstore is the Document Store: the service of record for
// submitted documents, its persistence backends and the HTTP client the
// editor uses to reach it.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"docedit/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "modernc.org/sqlite"
)

// Supported DOCSTORE_DRIVER values.
const (
	DriverSQLite3  = "sqlite3" // ncruces/go-sqlite3
	DriverSQLite   = "sqlite"  // modernc.org/sqlite
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
)

// Repository is a closable domain.DocumentStore.
type Repository interface {
	domain.DocumentStore
	Close() error
}

// Open connects to the backend named by driver and prepares its schema.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	switch driver {
	case DriverSQLite3:
		return openSQL(ctx, driver, fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dsn))
	case DriverSQLite:
		return openSQL(ctx, driver, dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	case DriverMySQL, DriverPostgres:
		return openSQL(ctx, driver, dsn)
	case DriverMongoDB:
		return openMongo(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// ============================================================
// SQL Repository
// ============================================================

// SQLRepository stores documents in one table on any database/sql driver.
type SQLRepository struct {
	driverName string
	db         *sql.DB
}

func openSQL(ctx context.Context, driverName, dsn string) (*SQLRepository, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if isSQLite(driverName) {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(10 * time.Minute)
	}

	r := &SQLRepository{driverName: driverName, db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func isSQLite(driverName string) bool {
	return driverName == DriverSQLite3 || driverName == DriverSQLite
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	idType, textType := "TEXT", "TEXT"
	if r.driverName == DriverMySQL {
		idType, textType = "VARCHAR(36)", "LONGTEXT"
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
		id %s PRIMARY KEY,
		title %[2]s NOT NULL,
		theme %[2]s NOT NULL,
		overview %[2]s NOT NULL,
		results %[2]s NOT NULL,
		objects %[2]s NOT NULL,
		updated_at BIGINT NOT NULL
	)`, idType, textType)
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts doc under a fresh UUID and returns it.
func (r *SQLRepository) Create(ctx context.Context, doc *domain.Document) (string, error) {
	doc.ID = uuid.NewString()
	doc.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO documents (id, title, theme, overview, results, objects, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		doc.ID, doc.Title, doc.Theme, doc.Overview, doc.Results, doc.Objects, doc.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}
	return doc.ID, nil
}

// Update replaces the content of document id.
func (r *SQLRepository) Update(ctx context.Context, id string, doc *domain.Document) error {
	doc.ID = id
	doc.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE documents SET title = ?, theme = ?, overview = ?, results = ?, objects = ?, updated_at = ? WHERE id = ?`),
		doc.Title, doc.Theme, doc.Overview, doc.Results, doc.Objects, doc.UpdatedAt.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n == 0 {
		// MySQL reports 0 for an update that changed nothing
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Get returns document id or domain.ErrNotFound.
func (r *SQLRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT id, title, theme, overview, results, objects, updated_at FROM documents WHERE id = ?`), id)

	var doc domain.Document
	var updated int64
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Theme, &doc.Overview, &doc.Results, &doc.Objects, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	doc.UpdatedAt = time.UnixMilli(updated).UTC()
	return &doc, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *SQLRepository) rebind(query string) string {
	if r.driverName != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
