package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/product-catalog/internal/core/domain"
	"github.com/99minutos/product-catalog/internal/core/ports"
)

const productColumns = `
	p.id, p.name, p.price, p.start_date, p.duration_days, p.end_date,
	p.category_id, p.created_at, p.created_by_user_id,
	c.name`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ports.ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + productColumns)
	if filter.IncludeCreator {
		query.WriteString(`, u.email`)
	}
	query.WriteString(`
FROM products p
JOIN categories c ON c.id = p.category_id`)
	if filter.IncludeCreator {
		query.WriteString(`
LEFT JOIN users u ON u.id = p.created_by_user_id`)
	}
	if filter.CategoryID != nil {
		query.WriteString(`
WHERE p.category_id = ?`)
		args = append(args, *filter.CategoryID)
	}
	query.WriteString(`
ORDER BY p.id`)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows, filter.IncludeCreator)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+productColumns+`, u.email
FROM products p
JOIN categories c ON c.id = p.category_id
LEFT JOIN users u ON u.id = p.created_by_user_id
WHERE p.id = ?`, id)

	p, err := scanProduct(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO products (name, price, start_date, duration_days, end_date, category_id, created_at, created_by_user_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name,
		p.Price.String(),
		p.StartDate.UTC(),
		p.DurationDays,
		nullTime(p.EndDate),
		p.CategoryID,
		p.CreatedAt.UTC(),
		p.CreatedByUserID,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("product last insert id: %w", err)
	}
	p.ID = id
	return nil
}

// Update leaves created_at and created_by_user_id alone.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE products
SET name = ?, price = ?, start_date = ?, duration_days = ?, end_date = ?, category_id = ?
WHERE id = ?`,
		p.Name,
		p.Price.String(),
		p.StartDate.UTC(),
		p.DurationDays,
		nullTime(p.EndDate),
		p.CategoryID,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrConcurrencyConflict
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete product rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return exists, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func scanProduct(row rowScanner, withCreator bool) (*domain.Product, error) {
	var (
		p            domain.Product
		price        string
		endDate      sql.NullTime
		categoryName string
		creatorEmail sql.NullString
	)
	dest := []any{
		&p.ID, &p.Name, &price, &p.StartDate, &p.DurationDays, &endDate,
		&p.CategoryID, &p.CreatedAt, &p.CreatedByUserID,
		&categoryName,
	}
	if withCreator {
		dest = append(dest, &creatorEmail)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %d price %q: %w", p.ID, price, err)
	}
	p.Price = d
	p.StartDate = p.StartDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	if endDate.Valid {
		t := endDate.Time.UTC()
		p.EndDate = &t
	}
	p.Category = &domain.Category{ID: p.CategoryID, Name: categoryName}
	if withCreator && creatorEmail.Valid {
		p.CreatedBy = &domain.User{ID: p.CreatedByUserID, Email: creatorEmail.String}
	}
	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
