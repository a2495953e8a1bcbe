package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

// RecordMovement appends a movement to the ledger. The product row is locked
// for the duration of the transaction, so the outbound balance check and the
// insert cannot interleave with another writer on the same product.
// Movements are never updated or deleted afterwards.
func RecordMovement(ctx context.Context, d *db.DB, m model.StockMovement) (*model.StockMovement, error) {
	if m.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidArgument)
	}
	if m.Quantity > model.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity must be at most %d", ErrInvalidArgument, model.MaxQuantity)
	}
	if _, err := model.ParseMovementKind(string(m.Kind)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	err := d.InTx(ctx, func(tx *db.Tx) error {
		var productID int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM products WHERE id = ?`+tx.Dialect().LockRow(), m.ProductID,
		).Scan(&productID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("locking product: %w", err)
		}

		if m.Kind == model.Outbound {
			current, err := CurrentStock(ctx, tx, m.ProductID)
			if err != nil {
				return err
			}
			if m.Quantity > current {
				return &InsufficientStockError{Current: current, Requested: m.Quantity}
			}
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO stock_movements (product_id, quantity, movement_type, movement_date, movement_time)
			 VALUES (?, ?, ?, ?, ?) RETURNING id`,
			m.ProductID, m.Quantity, string(m.Kind), m.Date, m.Time,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("recording movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const movementColumns = `m.id, m.product_id, m.quantity, m.movement_type, m.movement_date, m.movement_time, p.name`

// GetMovement returns a movement by ID, or ErrNotFound.
func GetMovement(ctx context.Context, q db.Querier, id int64) (*model.StockMovement, error) {
	row := q.QueryRow(ctx,
		`SELECT `+movementColumns+`
		 FROM stock_movements m
		 JOIN products p ON p.id = m.product_id
		 WHERE m.id = ?`, id,
	)
	m, err := scanMovement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting movement: %w", err)
	}
	return m, nil
}

// MovementFilter narrows a movement listing. Zero values do not filter.
type MovementFilter struct {
	ProductID   int64
	Kind        model.MovementKind
	From        *model.Date // inclusive
	To          *model.Date // inclusive
	ProductName string      // substring, case-insensitive
}

func (f MovementFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.ProductID > 0 {
		conds = append(conds, "m.product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.Kind != "" {
		conds = append(conds, "m.movement_type = ?")
		args = append(args, string(f.Kind))
	}
	if f.From != nil {
		conds = append(conds, "m.movement_date >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		conds = append(conds, "m.movement_date <= ?")
		args = append(args, *f.To)
	}
	if s := strings.TrimSpace(f.ProductName); s != "" {
		conds = append(conds, "LOWER(p.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// OrderField is one term of a movement ordering.
type OrderField struct {
	Field string // one of the keys of orderColumns
	Desc  bool
}

// orderColumns maps the public ordering names onto columns.
var orderColumns = map[string]string{
	"movement_date": "m.movement_date",
	"time":          "m.movement_time",
	"product":       "m.product_id",
	"quantity":      "m.quantity",
	"id":            "m.id",
}

// DefaultMovementOrder lists the most recent movements first.
var DefaultMovementOrder = []OrderField{
	{Field: "movement_date", Desc: true},
	{Field: "time", Desc: true},
	{Field: "id", Desc: true},
}

// ParseOrdering parses a comma separated list such as "-movement_date,quantity".
// Unknown fields are ignored; when nothing valid remains the default order
// is returned.
func ParseOrdering(s string) []OrderField {
	var order []OrderField
	for _, term := range strings.Split(s, ",") {
		term = strings.TrimSpace(term)
		desc := strings.HasPrefix(term, "-")
		term = strings.TrimPrefix(term, "-")
		if _, ok := orderColumns[term]; !ok {
			continue
		}
		order = append(order, OrderField{Field: term, Desc: desc})
	}
	if len(order) == 0 {
		return DefaultMovementOrder
	}
	return order
}

func orderBy(order []OrderField) string {
	if len(order) == 0 {
		order = DefaultMovementOrder
	}
	terms := make([]string, 0, len(order)+1)
	hasID := false
	for _, o := range order {
		col, ok := orderColumns[o.Field]
		if !ok {
			continue
		}
		if o.Field == "id" {
			hasID = true
		}
		if o.Desc {
			col += " DESC"
		}
		terms = append(terms, col)
	}
	// Ties are broken by ID, in the direction of the leading term, so that
	// paging is stable.
	if !hasID {
		tie := "m.id"
		if order[0].Desc {
			tie += " DESC"
		}
		terms = append(terms, tie)
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// ListMovements returns one page of movements and the total number of
// movements matching the filter.
func ListMovements(ctx context.Context, q db.Querier, filter MovementFilter, order []OrderField, page Page) ([]model.StockMovement, int, error) {
	where, args := filter.where()
	from := ` FROM stock_movements m JOIN products p ON p.id = m.product_id`

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting movements: %w", err)
	}

	query := `SELECT ` + movementColumns + from + where + orderBy(order) + ` LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	var movements []model.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning movement: %w", err)
		}
		movements = append(movements, *m)
	}
	return movements, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovement(s scanner) (*model.StockMovement, error) {
	var m model.StockMovement
	var kind string
	if err := s.Scan(&m.ID, &m.ProductID, &m.Quantity, &kind, &m.Date, &m.Time, &m.ProductName); err != nil {
		return nil, err
	}
	m.Kind = model.MovementKind(kind)
	return &m, nil
}
