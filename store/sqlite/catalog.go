/*
catalog.go - catalog.Store implementation on the same SQLite database

Get-or-create lookups are name-keyed against the UNIQUE columns; the
INSERT only runs when the SELECT finds nothing, which is safe under the
single-connection pool.
*/
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/warp/stock-ledger/catalog"
	"github.com/warp/stock-ledger/ledger"
)

var _ catalog.Store = (*Store)(nil)

func (s *Store) GetProduct(ctx context.Context, id ledger.ProductID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p catalog.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT product_id, product_name, brand_id, description_id, category_id
		 FROM products WHERE product_id = ?`, id).
		Scan(&p.ID, &p.Name, &p.BrandID, &p.DescriptionID, &p.CategoryID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (s *Store) ListProductEntries(ctx context.Context) ([]catalog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.product_id, p.product_name, b.brand_name, d.description_text
		 FROM products p
		 JOIN brands b ON b.brand_id = p.brand_id
		 JOIN descriptions d ON d.description_id = p.description_id
		 ORDER BY p.product_name COLLATE NOCASE, p.product_id`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var entries []catalog.Entry
	for rows.Next() {
		var (
			e                 catalog.Entry
			name, brand, desc string
		)
		if err := rows.Scan(&e.ID, &name, &brand, &desc); err != nil {
			return nil, err
		}
		e.Display = catalog.DisplayName(name, brand, desc)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) InsertProduct(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (product_name, brand_id, description_id, category_id)
		 VALUES (?, ?, ?, ?)`,
		p.Name, p.BrandID, p.DescriptionID, p.CategoryID)
	if err != nil {
		return mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = ledger.ProductID(id)
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET product_name = ?, brand_id = ?, description_id = ?, category_id = ?
		 WHERE product_id = ?`,
		p.Name, p.BrandID, p.DescriptionID, p.CategoryID, p.ID)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrUnknownProduct
	}
	return nil
}

// DeleteProduct removes a product row. The batch and sale foreign keys
// block the delete while ledger history still references the product;
// that surfaces as ErrInvalidInput so callers can tell the user why.
func (s *Store) DeleteProduct(ctx context.Context, id ledger.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = ?`, id)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return ledger.ErrInvalidInput
		}
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrUnknownProduct
	}
	return nil
}

// =============================================================================
// GET-OR-CREATE LOOKUPS
// =============================================================================

func (s *Store) GetOrCreateBrand(ctx context.Context, name string) (catalog.BrandID, error) {
	id, err := s.getOrCreate(ctx, "brands", "brand_id", "brand_name", name)
	return catalog.BrandID(id), err
}

func (s *Store) GetOrCreateDescription(ctx context.Context, text string) (catalog.DescriptionID, error) {
	id, err := s.getOrCreate(ctx, "descriptions", "description_id", "description_text", text)
	return catalog.DescriptionID(id), err
}

func (s *Store) GetOrCreateCategory(ctx context.Context, name string) (catalog.CategoryID, error) {
	id, err := s.getOrCreate(ctx, "categories", "category_id", "category_name", name)
	return catalog.CategoryID(id), err
}

func (s *Store) GetOrCreateUnit(ctx context.Context, name string) (ledger.UnitID, error) {
	id, err := s.getOrCreate(ctx, "units_of_measurement", "unit_id", "unit_name", name)
	return ledger.UnitID(id), err
}

func (s *Store) getOrCreate(ctx context.Context, table, idCol, nameCol, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT `+idCol+` FROM `+table+` WHERE `+nameCol+` = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, mapErr(err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (`+nameCol+`) VALUES (?)`, name)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

func (s *Store) ListUnits(ctx context.Context) ([]catalog.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT unit_id, unit_name FROM units_of_measurement ORDER BY unit_name COLLATE NOCASE`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var units []catalog.Unit
	for rows.Next() {
		var u catalog.Unit
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}
