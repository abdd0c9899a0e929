// Package store persists committed estimates in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// ErrNotFound is returned when no estimate has the requested ID.
var ErrNotFound = errors.New("estimate not found")

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenSQLite opens the database at dbPath, creating its directory if needed.
// ":memory:" opens a private in-memory database.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dsn := "file::memory:?mode=memory&_pragma=foreign_keys(1)"
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Open opens dbPath and applies the schema.
func Open(ctx context.Context, dbPath string) (*Repository, error) {
	db, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	repo := New(db)
	if err := repo.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Printf("[STORE] Opened %s", dbPath)
	return repo, nil
}

// Init applies the schema. It is safe to call on an existing database.
func (r *Repository) Init(ctx context.Context) error {
	for _, q := range schema {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS estimates (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL,
		name             TEXT NOT NULL,
		subtotal         REAL NOT NULL,
		overhead_percent REAL NOT NULL,
		overhead_amount  REAL NOT NULL,
		tax_percent      REAL NOT NULL,
		tax_rate         REAL NOT NULL,
		tax_amount       REAL NOT NULL,
		total            REAL NOT NULL,
		status           TEXT NOT NULL,
		created_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_estimates_project ON estimates(project_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS estimate_items (
		estimate_id        TEXT NOT NULL REFERENCES estimates(id) ON DELETE CASCADE,
		position           INTEGER NOT NULL,
		id                 TEXT NOT NULL,
		price_list_item_id TEXT NOT NULL,
		custom_name        TEXT NOT NULL DEFAULT '',
		custom_unit        TEXT NOT NULL DEFAULT '',
		custom_category    TEXT NOT NULL DEFAULT '',
		quantity           REAL NOT NULL,
		unit_price         REAL NOT NULL,
		total              REAL NOT NULL,
		notes              TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (estimate_id, position)
	)`,
}

// ============================================================
// Estimates
// ============================================================

// AddEstimate stores an estimate and its items in one transaction.
func (r *Repository) AddEstimate(ctx context.Context, e model.Estimate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO estimates (id, project_id, name, subtotal, overhead_percent, overhead_amount,
                               tax_percent, tax_rate, tax_amount, total, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, e.ID, e.ProjectID, e.Name, e.Subtotal, e.OverheadPercent, e.OverheadAmount,
		e.TaxPercent, e.TaxRate, e.TaxAmount, e.Total, string(e.Status), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert estimate %s: %w", e.ID, err)
	}

	for i, it := range e.Items {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO estimate_items (estimate_id, position, id, price_list_item_id, custom_name,
                                        custom_unit, custom_category, quantity, unit_price, total, notes)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        `, e.ID, i, it.ID, it.PriceListItemID, it.CustomName, it.CustomUnit, it.CustomCategory,
			it.Quantity, it.UnitPrice, it.Total, it.Notes)
		if err != nil {
			return fmt.Errorf("insert item %d of estimate %s: %w", i, e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Printf("[STORE] Saved estimate %s (%d items, total %.2f)", e.ID, len(e.Items), e.Total)
	return nil
}

// GetEstimate loads one estimate with its items in their original order.
func (r *Repository) GetEstimate(ctx context.Context, id string) (*model.Estimate, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, project_id, name, subtotal, overhead_percent, overhead_amount,
               tax_percent, tax_rate, tax_amount, total, status, created_at
        FROM estimates
        WHERE id = ?
    `, id)

	e, err := scanEstimate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	e.Items = items
	return &e, nil
}

// ListEstimates returns the estimates of a project, oldest first, without
// their items. An empty projectID lists every project.
func (r *Repository) ListEstimates(ctx context.Context, projectID string) ([]model.Estimate, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, project_id, name, subtotal, overhead_percent, overhead_amount,
               tax_percent, tax_rate, tax_amount, total, status, created_at
        FROM estimates
        WHERE ? = '' OR project_id = ?
        ORDER BY created_at, id
    `, projectID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}
	defer rows.Close()

	out := []model.Estimate{}
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		e.Items = []model.EstimateItem{}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateStatus moves an estimate along its draft/sent/approved/rejected lifecycle.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status model.EstimateStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE estimates SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *Repository) items(ctx context.Context, estimateID string) ([]model.EstimateItem, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, price_list_item_id, custom_name, custom_unit, custom_category,
               quantity, unit_price, total, notes
        FROM estimate_items
        WHERE estimate_id = ?
        ORDER BY position
    `, estimateID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	items := []model.EstimateItem{}
	for rows.Next() {
		var it model.EstimateItem
		if err := rows.Scan(&it.ID, &it.PriceListItemID, &it.CustomName, &it.CustomUnit, &it.CustomCategory,
			&it.Quantity, &it.UnitPrice, &it.Total, &it.Notes); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEstimate(s scanner) (model.Estimate, error) {
	var e model.Estimate
	var status string
	err := s.Scan(&e.ID, &e.ProjectID, &e.Name, &e.Subtotal, &e.OverheadPercent, &e.OverheadAmount,
		&e.TaxPercent, &e.TaxRate, &e.TaxAmount, &e.Total, &status, &e.CreatedAt)
	e.Status = model.EstimateStatus(status)
	return e, err
}
