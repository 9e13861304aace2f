package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/itemhub/itemhub/internal/database"
	"github.com/itemhub/itemhub/internal/models"
)

// PostgresItemRepository implements ItemRepository using PostgreSQL.
type PostgresItemRepository struct {
	pool *database.Pool
}

// NewPostgresItemRepository creates a new PostgreSQL-backed item repository.
func NewPostgresItemRepository(pool *database.Pool) *PostgresItemRepository {
	return &PostgresItemRepository{pool: pool}
}

// Create stores a new item.
func (r *PostgresItemRepository) Create(ctx context.Context, create *models.ItemCreate) (*models.Item, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO items (title, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, title, description, owner_id, created_at, updated_at, view_count
	`

	var item models.Item
	err := r.pool.QueryRow(ctx, query, create.Title, create.Description, create.OwnerID).Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.OwnerID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.ViewCount,
	)
	if err != nil {
		if isUniqueViolation(err, "items_owner_title_unique") {
			return nil, models.ErrDuplicateTitle
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return &item, nil
}

// GetByID retrieves an item by its ID.
func (r *PostgresItemRepository) GetByID(ctx context.Context, id int64) (*models.Item, error) {
	query := `
		SELECT id, title, description, owner_id, created_at, updated_at, view_count
		FROM items
		WHERE id = $1
	`

	var item models.Item
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.OwnerID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.ViewCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// List retrieves items ordered by creation time, newest first.
func (r *PostgresItemRepository) List(ctx context.Context, opts ListOptions) ([]*models.Item, error) {
	opts = opts.Normalize()

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, title, description, owner_id, created_at, updated_at, view_count
		FROM items
	`)

	args := make([]any, 0, 3)
	if opts.OwnerID != 0 {
		args = append(args, opts.OwnerID)
		sb.WriteString(fmt.Sprintf(" WHERE owner_id = $%d", len(args)))
	}

	args = append(args, opts.Limit)
	sb.WriteString(fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)))
	args = append(args, opts.Offset)
	sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.OwnerID,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ViewCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// Update replaces the mutable fields of an item.
func (r *PostgresItemRepository) Update(ctx context.Context, id int64, update *models.ItemUpdate) (*models.Item, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE items
		SET title = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, title, description, owner_id, created_at, updated_at, view_count
	`

	var item models.Item
	err := r.pool.QueryRow(ctx, query, update.Title, update.Description, id).Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.OwnerID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.ViewCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrItemNotFound
		}
		if isUniqueViolation(err, "items_owner_title_unique") {
			return nil, models.ErrDuplicateTitle
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return &item, nil
}

// Delete removes an item by its ID.
func (r *PostgresItemRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM items WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrItemNotFound
	}

	return nil
}

// IncrementViewCount increments the view counter for an item.
func (r *PostgresItemRepository) IncrementViewCount(ctx context.Context, id int64) error {
	query := `UPDATE items SET view_count = view_count + 1 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrItemNotFound
	}

	return nil
}

// BatchIncrementViewCounts applies buffered view deltas in one transaction.
// Deltas for items deleted in the meantime are silently dropped.
func (r *PostgresItemRepository) BatchIncrementViewCounts(ctx context.Context, counts map[int64]int64) error {
	if len(counts) == 0 {
		return nil
	}

	return r.pool.Transact(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for id, delta := range counts {
			if delta <= 0 {
				continue
			}
			batch.Queue(`UPDATE items SET view_count = view_count + $1 WHERE id = $2`, delta, id)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to apply view count batch: %w", err)
			}
		}
		return nil
	})
}

// Exists checks if an item ID already exists.
func (r *PostgresItemRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

// HealthCheck verifies the database connection is healthy.
func (r *PostgresItemRepository) HealthCheck(ctx context.Context) error {
	return r.pool.HealthCheck(ctx)
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	pool *database.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL-backed user repository.
func NewPostgresUserRepository(pool *database.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create stores a new user with an already hashed password.
func (r *PostgresUserRepository) Create(ctx context.Context, create *models.UserCreate, passwordHash string) (*models.User, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, username, password_hash, is_active, created_at
	`

	var user models.User
	err := r.pool.QueryRow(ctx, query, create.Email, create.Username, passwordHash).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_unique") {
			return nil, models.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email address.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_active, created_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by its ID.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_active, created_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// HealthCheck verifies the database connection is healthy.
func (r *PostgresUserRepository) HealthCheck(ctx context.Context) error {
	return r.pool.HealthCheck(ctx)
}

// isUniqueViolation checks for a PostgreSQL unique violation on a constraint.
// An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
