package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("cart not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	CreateForUser(ctx context.Context, userID string) (*Cart, error)
	GetByID(ctx context.Context, cartID int64) (*Cart, error)
	GetWithLines(ctx context.Context, cartID int64) (*Cart, error)
	AddItems(ctx context.Context, cartID int64, requests []LineRequest) error
	RemoveItems(ctx context.Context, cartID int64, requests []LineRequest) error
	MarkAbandoned(ctx context.Context, idleSince time.Time) ([]int64, error)
	DestroyAbandoned(ctx context.Context, abandonedBefore time.Time) ([]int64, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateForUser inserts a fresh, active cart. One is created per
// authentication event, so a user accumulates carts over time; the token
// decides which one a session addresses.
func (r *PostgresRepository) CreateForUser(ctx context.Context, userID string) (*Cart, error) {
	c := Cart{UserID: userID}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`, userID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, cartID int64) (*Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, abandoned_at, created_at, updated_at
		FROM carts
		WHERE id = $1
	`, cartID).Scan(&c.ID, &c.UserID, &c.AbandonedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}
	return &c, nil
}

// GetWithLines loads the cart, its lines joined with product attributes,
// and the aggregate total price.
func (r *PostgresRepository) GetWithLines(ctx context.Context, cartID int64) (*Cart, error) {
	c, err := r.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ci.product_id, p.name, ci.quantity, p.unit_price, ci.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	c.Products = []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.UnitPrice, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		l.TotalPrice = float64(l.Quantity) * l.UnitPrice
		c.Products = append(c.Products, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(ci.quantity * p.unit_price), 0)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
	`, cartID).Scan(&c.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("sum cart total: %w", err)
	}

	return c, nil
}

// AddItems applies the batch in input order inside one transaction.
// Quantities accumulate onto whatever the cart already holds; each line is
// locked for the duration of the batch so concurrent batches serialize.
// Validation failures aggregate across the batch and roll everything back.
func (r *PostgresRepository) AddItems(ctx context.Context, cartID int64, requests []LineRequest) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var messages []string
	for _, req := range requests {
		var prior int
		err := tx.QueryRow(ctx, `
			SELECT quantity FROM cart_items
			WHERE cart_id = $1 AND product_id = $2
			FOR UPDATE
		`, cartID, req.ProductID).Scan(&prior)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("lock cart item: %w", err)
			}
			prior = 0
		}

		next := prior + req.Quantity
		if req.Quantity < 1 || next < 1 {
			messages = append(messages, "Quantity must be greater than or equal to 1")
			continue
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = $3, updated_at = NOW()
		`, cartID, req.ProductID, next)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				messages = append(messages, "Product must exist")
				return &BatchError{Messages: messages}
			}
			return fmt.Errorf("upsert cart item: %w", err)
		}
	}

	if len(messages) > 0 {
		return &BatchError{Messages: messages}
	}

	if err := clearAbandoned(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RemoveItems applies the batch in input order inside one transaction.
// The first invalid request aborts the whole batch; removing more than a
// line holds deletes the line rather than storing a non-positive quantity.
func (r *PostgresRepository) RemoveItems(ctx context.Context, cartID int64, requests []LineRequest) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, req := range requests {
		var current int
		err := tx.QueryRow(ctx, `
			SELECT quantity FROM cart_items
			WHERE cart_id = $1 AND product_id = $2
			FOR UPDATE
		`, cartID, req.ProductID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &BatchError{Messages: []string{
					fmt.Sprintf("Product with id '%d' is not present in the cart", req.ProductID),
				}}
			}
			return fmt.Errorf("lock cart item: %w", err)
		}

		if req.Quantity < 1 {
			return &BatchError{Messages: []string{"Only positive values are allowed"}}
		}

		next := current - req.Quantity
		if next > 0 {
			_, err = tx.Exec(ctx, `
				UPDATE cart_items SET quantity = $3, updated_at = NOW()
				WHERE cart_id = $1 AND product_id = $2
			`, cartID, req.ProductID, next)
		} else {
			_, err = tx.Exec(ctx, `
				DELETE FROM cart_items
				WHERE cart_id = $1 AND product_id = $2
			`, cartID, req.ProductID)
		}
		if err != nil {
			return fmt.Errorf("apply cart item removal: %w", err)
		}
	}

	if err := clearAbandoned(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Every committed line write reactivates the cart. Done explicitly inside
// the batch transaction so the transition is atomic with the writes.
func clearAbandoned(ctx context.Context, tx pgx.Tx, cartID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE carts SET abandoned_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, cartID)
	if err != nil {
		return fmt.Errorf("clear abandoned flag: %w", err)
	}
	return nil
}

// MarkAbandoned flags every idle cart: empty carts created before
// idleSince, and carts whose most recently touched line is older than
// idleSince. Already flagged carts are re-flagged, which keeps the job
// idempotent.
func (r *PostgresRepository) MarkAbandoned(ctx context.Context, idleSince time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE carts SET abandoned_at = NOW(), updated_at = NOW()
		WHERE (created_at < $1 AND NOT EXISTS (
			SELECT 1 FROM cart_items ci WHERE ci.cart_id = carts.id
		))
		OR id IN (
			SELECT cart_id FROM cart_items
			GROUP BY cart_id
			HAVING MAX(updated_at) < $1
		)
		RETURNING id
	`, idleSince)
	if err != nil {
		return nil, fmt.Errorf("mark carts abandoned: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// DestroyAbandoned permanently removes carts flagged before
// abandonedBefore, deleting each cart and all of its lines in one
// transaction.
func (r *PostgresRepository) DestroyAbandoned(ctx context.Context, abandonedBefore time.Time) ([]int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT id FROM carts
		WHERE abandoned_at < $1
		FOR UPDATE
	`, abandonedBefore)
	if err != nil {
		return nil, fmt.Errorf("select abandoned carts: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("delete cart items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = ANY($1)`, ids); err != nil {
		return nil, fmt.Errorf("delete carts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return ids, nil
}

func scanIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan cart id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return ids, nil
}
