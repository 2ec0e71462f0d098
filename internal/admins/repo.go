package admins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nowestinterior/backend/pkg"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAdminNotFound = errors.New("admin not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Api is the persistence surface the admin service needs.
type Api interface {
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	GetByID(ctx context.Context, id int) (*Admin, error)
	Insert(ctx context.Context, username, passwordHash string) (*Admin, error)
}

var _ Api = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE username = $1;`,
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrAdminNotFound
	}

	var admin Admin
	if err := rows.Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*Admin, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT id, username, password_hash, created_at FROM admins WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrAdminNotFound
	}

	var admin Admin
	if err := rows.Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *Repo) Insert(ctx context.Context, username, passwordHash string) (*Admin, error) {
	if username == "" || passwordHash == "" {
		return nil, errors.New("admin username or password hash empty")
	}

	createdAt := time.Now()
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO admins (username, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id;`,
		username, passwordHash, createdAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	if !rows.Next() {
		// pgx reports constraint violations only once the rows are read
		if err := rows.Err(); err != nil {
			if pkg.IsUniqueViolationError(err) {
				return nil, ErrUsernameTaken
			}
			return nil, err
		}
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	return &Admin{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
	}, nil
}
