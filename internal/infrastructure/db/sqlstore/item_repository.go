package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockroom/storefront/internal/core/domain"
)

const itemColumns = `id, name, category, price, quantity, description, image_url, created_at, updated_at`

type ItemRepository struct {
	s *DB
}

func NewItemRepository(s *DB) *ItemRepository {
	return &ItemRepository{s: s}
}

// ValidID reports whether id is a UUID.
func (r *ItemRepository) ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		it                   domain.Item
		description, image   sql.NullString
		createdAt, updatedAt int64
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.Quantity, &description, &image, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	it.Description = stringPtr(description)
	it.ImageURL = stringPtr(image)
	it.CreatedAt = fromMicros(createdAt)
	it.UpdatedAt = fromMicros(updatedAt)
	return &it, nil
}

// List returns matching items ordered by name.
func (r *ItemRepository) List(ctx context.Context, f domain.ItemFilter) ([]domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query, args := buildListQuery(r.s.dialect, f)
	rows, err := r.s.db.QueryContext(ctx, r.s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// buildListQuery matches name and category as case-insensitive substrings and
// bounds price inclusively. LIKE wildcards in user input are escaped. Both
// sides are folded with Unicode rules, so "éclair" finds "ÉCLAIR".
func buildListQuery(d Dialect, f domain.ItemFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		where = append(where, d.lowerFunc()+`(name) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(f.Name))
	}
	if f.Category != "" {
		where = append(where, d.lowerFunc()+`(category) LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(f.Category))
	}
	if f.MinPrice != nil {
		where = append(where, `price >= ?`)
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, `price <= ?`)
		args = append(args, *f.MaxPrice)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY name ASC`
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (r *ItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	it, err := scanItem(r.s.db.QueryRowContext(ctx, r.s.rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := r.s.rebind(`
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + itemColumns)

	created, err := scanItem(r.s.db.QueryRowContext(ctx, query,
		uuid.NewString(),
		item.Name,
		item.Category,
		item.Price,
		item.Quantity,
		nullString(item.Description),
		nullString(item.ImageURL),
		toMicros(item.CreatedAt),
		toMicros(item.UpdatedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return created, nil
}

// Update merges patch into the item and refreshes updated_at.
func (r *ItemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch) (*domain.Item, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+` = ?`)
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Quantity != nil {
		add("quantity", *patch.Quantity)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	add("updated_at", toMicros(time.Now()))
	args = append(args, id)

	query := `UPDATE items SET ` + strings.Join(sets, `, `) + ` WHERE id = ? RETURNING ` + itemColumns
	return r.updateOne(ctx, query, args...)
}

func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.s.db.ExecContext(ctx, r.s.rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// DecrementStock removes qty units in one conditional UPDATE. When no row
// matches, a follow-up lookup tells a missing item from short stock.
func (r *ItemRepository) DecrementStock(ctx context.Context, id string, qty int) (*domain.Item, error) {
	it, err := r.updateOne(ctx, `
		UPDATE items
		SET quantity = quantity - ?, updated_at = ?
		WHERE id = ? AND quantity >= ?
		RETURNING `+itemColumns,
		qty, toMicros(time.Now()), id, qty)
	if !errors.Is(err, domain.ErrItemNotFound) {
		return it, err
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrInsufficientStock
	}
	return nil, domain.ErrItemNotFound
}

func (r *ItemRepository) IncrementStock(ctx context.Context, id string, qty int) (*domain.Item, error) {
	return r.updateOne(ctx, `
		UPDATE items
		SET quantity = quantity + ?, updated_at = ?
		WHERE id = ?
		RETURNING `+itemColumns,
		qty, toMicros(time.Now()), id)
}

func (r *ItemRepository) updateOne(ctx context.Context, query string, args ...any) (*domain.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	it, err := scanItem(r.s.db.QueryRowContext(ctx, r.s.rebind(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("update item: %w", err)
	}
	return it, nil
}

func (r *ItemRepository) exists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var one int
	err := r.s.db.QueryRowContext(ctx, r.s.rebind(`SELECT 1 FROM items WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup item: %w", err)
	}
	return true, nil
}
