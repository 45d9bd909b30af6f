package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-stock-sync-service/internal/model"
	"github.com/fekuna/omnipos-stock-sync-service/internal/stock"
	"github.com/jmoiron/sqlx"
)

// Queries are written with ? placeholders or named parameters and rebound
// per driver, so the same repository runs on Postgres and SQLite.
const upsertQuery = `
        INSERT INTO supplier_stock (
            retailer_id, retailer_gln, supplier_id, supplier_gln, supplier_name,
            gtin, quantity, stock_traffic_light, item_type, stock_timestamp, synced_at
        )
        VALUES (
            :retailer_id, :retailer_gln, :supplier_id, :supplier_gln, :supplier_name,
            :gtin, :quantity, :stock_traffic_light, :item_type, :stock_timestamp, CURRENT_TIMESTAMP
        )
        ON CONFLICT (gtin, supplier_gln)
        DO UPDATE SET
            quantity = EXCLUDED.quantity,
            stock_traffic_light = EXCLUDED.stock_traffic_light,
            item_type = EXCLUDED.item_type,
            stock_timestamp = EXCLUDED.stock_timestamp,
            synced_at = CURRENT_TIMESTAMP
    `

const selectColumns = `id, retailer_id, retailer_gln, supplier_id, supplier_gln, supplier_name,
            gtin, quantity, stock_traffic_light, item_type, stock_timestamp, synced_at`

type PGRepository struct {
	DB *sqlx.DB
}

var _ stock.Repository = (*PGRepository)(nil)

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(r.DB.DriverName()) {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return &stock.DatabaseError{Op: "migrate", Err: err}
		}
	}
	return nil
}

func (r *PGRepository) Upsert(ctx context.Context, sc model.SupplierContext, item model.StockItem) error {
	_, err := r.DB.NamedExecContext(ctx, upsertQuery, model.NewStockRecord(sc, item))
	if err != nil {
		return &stock.DatabaseError{Op: "upsert stock item", Err: err}
	}
	return nil
}

// BatchUpsert writes all items in one transaction. Either every item is
// stored or none is.
func (r *PGRepository) BatchUpsert(ctx context.Context, sc model.SupplierContext, items []model.StockItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, &stock.DatabaseError{Op: "begin batch upsert", Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertQuery)
	if err != nil {
		return 0, &stock.DatabaseError{Op: "prepare batch upsert", Err: err}
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, model.NewStockRecord(sc, item)); err != nil {
			return 0, &stock.DatabaseError{Op: "batch upsert " + item.GTIN, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &stock.DatabaseError{Op: "commit batch upsert", Err: err}
	}
	return len(items), nil
}

func (r *PGRepository) Exists(ctx context.Context, gtin, supplierGLN string) (bool, error) {
	var count int
	query := r.DB.Rebind(`SELECT COUNT(*) FROM supplier_stock WHERE gtin = ? AND supplier_gln = ?`)
	if err := r.DB.GetContext(ctx, &count, query, gtin, supplierGLN); err != nil {
		return false, &stock.DatabaseError{Op: "check stock exists", Err: err}
	}
	return count > 0, nil
}

// GetByGtinAndSupplier returns nil, nil when no record exists.
func (r *PGRepository) GetByGtinAndSupplier(ctx context.Context, gtin, supplierGLN string) (*model.StockRecord, error) {
	var rec model.StockRecord
	query := r.DB.Rebind(`SELECT ` + selectColumns + ` FROM supplier_stock WHERE gtin = ? AND supplier_gln = ? LIMIT 1`)
	err := r.DB.GetContext(ctx, &rec, query, gtin, supplierGLN)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &stock.DatabaseError{Op: "get stock item", Err: err}
	}
	return &rec, nil
}

func (r *PGRepository) FindBySupplier(ctx context.Context, sc model.SupplierContext) ([]model.StockRecord, error) {
	records := []model.StockRecord{}
	query := r.DB.Rebind(`SELECT ` + selectColumns + ` FROM supplier_stock WHERE supplier_gln = ? ORDER BY gtin`)
	if err := r.DB.SelectContext(ctx, &records, query, sc.SupplierGLN); err != nil {
		return nil, &stock.DatabaseError{Op: "find stock by supplier", Err: err}
	}
	return records, nil
}

func (r *PGRepository) ListGtins(ctx context.Context) ([]string, error) {
	gtins := []string{}
	if err := r.DB.SelectContext(ctx, &gtins, `SELECT DISTINCT gtin FROM supplier_stock ORDER BY gtin`); err != nil {
		return nil, &stock.DatabaseError{Op: "list gtins", Err: err}
	}
	return gtins, nil
}

func (r *PGRepository) ListSupplierGLNs(ctx context.Context) ([]string, error) {
	glns := []string{}
	if err := r.DB.SelectContext(ctx, &glns, `SELECT DISTINCT supplier_gln FROM supplier_stock ORDER BY supplier_gln`); err != nil {
		return nil, &stock.DatabaseError{Op: "list supplier glns", Err: err}
	}
	return glns, nil
}

func (r *PGRepository) ListGtinSupplierPairs(ctx context.Context) ([]model.GtinSupplierPair, error) {
	pairs := []model.GtinSupplierPair{}
	query := `SELECT gtin, supplier_gln FROM supplier_stock ORDER BY supplier_gln, gtin`
	if err := r.DB.SelectContext(ctx, &pairs, query); err != nil {
		return nil, &stock.DatabaseError{Op: "list gtin supplier pairs", Err: err}
	}
	return pairs, nil
}

func (r *PGRepository) Statistics(ctx context.Context) (*model.StockStatistics, error) {
	var st model.StockStatistics
	query := `
        SELECT
            COUNT(DISTINCT gtin) AS gtin_count,
            COUNT(DISTINCT supplier_gln) AS supplier_count,
            COUNT(*) AS pair_count
        FROM supplier_stock
    `
	if err := r.DB.GetContext(ctx, &st, query); err != nil {
		return nil, &stock.DatabaseError{Op: "stock statistics", Err: err}
	}
	return &st, nil
}
