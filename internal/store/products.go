package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
)

func validateProduct(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(name) > model.ProductNameMaxLength {
		return fmt.Errorf("%w: name must be at most %d characters", ErrInvalidArgument, model.ProductNameMaxLength)
	}
	return nil
}

// CreateProduct creates a new product. Names are not unique.
func CreateProduct(ctx context.Context, q db.Querier, name, description, productType string) (*model.Product, error) {
	if err := validateProduct(name); err != nil {
		return nil, err
	}

	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO products (name, description, product_type) VALUES (?, ?, ?) RETURNING id`,
		name, description, productType,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	return &model.Product{ID: id, Name: name, Description: description, ProductType: productType}, nil
}

// GetProduct returns a product by ID, or ErrNotFound.
func GetProduct(ctx context.Context, q db.Querier, id int64) (*model.Product, error) {
	p := &model.Product{}
	var imageMime sql.NullString
	err := q.QueryRow(ctx,
		`SELECT id, name, description, product_type, image_mime FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.ProductType, &imageMime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p.ImageMime = imageMime.String
	return p, nil
}

// ListProducts returns all products ordered by name, then ID.
func ListProducts(ctx context.Context, q db.Querier) ([]model.Product, error) {
	rows, err := q.Query(ctx,
		`SELECT id, name, description, product_type, image_mime FROM products ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var imageMime sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ProductType, &imageMime); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.ImageMime = imageMime.String
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's descriptive fields. The ID never changes.
func UpdateProduct(ctx context.Context, q db.Querier, id int64, name, description, productType string) error {
	if err := validateProduct(name); err != nil {
		return err
	}

	result, err := q.Exec(ctx,
		`UPDATE products SET name = ?, description = ?, product_type = ? WHERE id = ?`,
		name, description, productType, id,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct deletes a product together with all of its movements.
func DeleteProduct(ctx context.Context, d *db.DB, id int64) error {
	return d.InTx(ctx, func(tx *db.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stock_movements WHERE product_id = ?`, id); err != nil {
			return fmt.Errorf("deleting product movements: %w", err)
		}
		result, err := tx.Exec(ctx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting product: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ProductTypes returns the distinct product types in use, sorted.
func ProductTypes(ctx context.Context, q db.Querier) ([]string, error) {
	rows, err := q.Query(ctx,
		`SELECT DISTINCT product_type FROM products WHERE product_type <> '' ORDER BY product_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing product types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning product type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SetProductImage stores a product's image.
func SetProductImage(ctx context.Context, q db.Querier, id int64, image []byte, mime string) error {
	result, err := q.Exec(ctx,
		`UPDATE products SET image = ?, image_mime = ? WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting product image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProductImage returns a product's image and MIME type. A product without
// an image yields nil data and no error.
func GetProductImage(ctx context.Context, q db.Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRow(ctx,
		`SELECT image, image_mime FROM products WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting product image: %w", err)
	}
	return image, mime.String, nil
}
