package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// netQuantity is the signed sum of a product's movements: inbound minus
// outbound, 0 when there are none.
const netQuantity = `CAST(COALESCE(SUM(CASE
	WHEN m.movement_type = 'Inbound' THEN m.quantity
	WHEN m.movement_type = 'Outbound' THEN -m.quantity
	ELSE 0 END), 0) AS BIGINT)`

// CurrentStock returns inbound minus outbound over the full movement history
// of a product. It is a plain aggregation: an unknown product yields 0 and a
// negative result is returned as is.
func CurrentStock(ctx context.Context, q db.Querier, productID int64) (int64, error) {
	var stock int64
	err := q.QueryRow(ctx,
		`SELECT `+netQuantity+` FROM stock_movements m WHERE m.product_id = ?`, productID,
	).Scan(&stock)
	if err != nil {
		return 0, fmt.Errorf("computing current stock: %w", err)
	}
	return stock, nil
}

// StockLevelFilter narrows a stock level listing.
type StockLevelFilter struct {
	ProductType string // exact match
	Search      string // substring of name, description or product type
}

// MaxPageNumber is the largest 1-based page number a listing accepts. It
// keeps (page-1)*size far from overflowing an int.
const MaxPageNumber = math.MaxInt32

// Page selects a window of a listing.
type Page struct {
	Offset int
	Limit  int
}

func (f StockLevelFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.ProductType != "" {
		conds = append(conds, "p.product_type = ?")
		args = append(args, f.ProductType)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		conds = append(conds, "(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ? OR LOWER(p.product_type) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListStockLevels returns one row per product with its current stock,
// ordered by product ID, and the total number of matching products.
func ListStockLevels(ctx context.Context, q db.Querier, filter StockLevelFilter, page Page) ([]model.StockLevel, int, error) {
	where, args := filter.where()

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	query := `SELECT p.id, p.name, p.description, p.product_type, p.image_mime, ` + netQuantity + `
	          FROM products p
	          LEFT JOIN stock_movements m ON m.product_id = p.id` + where + `
	          GROUP BY p.id, p.name, p.description, p.product_type, p.image_mime
	          ORDER BY p.id
	          LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing stock levels: %w", err)
	}
	defer rows.Close()

	var levels []model.StockLevel
	for rows.Next() {
		var l model.StockLevel
		var imageMime sql.NullString
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.ProductType, &imageMime, &l.CurrentStock); err != nil {
			return nil, 0, fmt.Errorf("scanning stock level: %w", err)
		}
		l.ImageMime = imageMime.String
		levels = append(levels, l)
	}
	return levels, total, rows.Err()
}

// GetStockLevel returns a single product with its current stock, or
// ErrNotFound.
func GetStockLevel(ctx context.Context, q db.Querier, productID int64) (*model.StockLevel, error) {
	p, err := GetProduct(ctx, q, productID)
	if err != nil {
		return nil, err
	}

	stock, err := CurrentStock(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	return &model.StockLevel{Product: *p, CurrentStock: stock}, nil
}
