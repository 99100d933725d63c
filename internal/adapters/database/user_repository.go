package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dhifafaz/birthday-reminder/internal/domain"
)

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

var _ domain.UserRepository = (*PostgresUserRepository)(nil)

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, first_name, last_name, email, birth_date, location, scheduled_year, notified_year, created_at, updated_at`

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, birth_date, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Email, user.BirthDate, user.Location,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepository) ListUsers(ctx context.Context, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// FindBirthdayCandidates matches each user's birth month and day against the
// current calendar day in that user's own timezone, and filters out users
// already notified for this year's occurrence. Locations are validated at
// the API boundary, so timezone() cannot fail per row.
func (r *PostgresUserRepository) FindBirthdayCandidates(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE EXTRACT(MONTH FROM birth_date) = EXTRACT(MONTH FROM timezone(location, now()))
		  AND EXTRACT(DAY FROM birth_date) = EXTRACT(DAY FROM timezone(location, now()))
		  AND (notified_year IS NULL OR notified_year < EXTRACT(YEAR FROM timezone(location, now())))
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find birthday candidates: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func (r *PostgresUserRepository) MarkScheduled(ctx context.Context, id string, year int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET scheduled_year = $2, updated_at = now() WHERE id = $1`, id, year)
	if err != nil {
		return fmt.Errorf("mark scheduled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) MarkNotified(ctx context.Context, id string, year int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET notified_year = $2, updated_at = now() WHERE id = $1`, id, year)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.BirthDate, &user.Location,
		&user.ScheduledYear, &user.NotifiedYear,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]*domain.User, error) {
	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
