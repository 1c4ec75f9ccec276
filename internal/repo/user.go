package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) CreateUser(ctx context.Context, username, passwordHash string, role models.Role) (models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, role
	`

	var u models.User
	err := r.DB.QueryRowContext(ctx, query, username, passwordHash, string(role)).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if err != nil {
		if errors.Is(mapError(err), ErrUsernameTaken) {
			return models.User{}, apperr.Conflict(ErrUsernameTaken.Error())
		}
		return models.User{}, err
	}
	return u, nil
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetUser(ctx context.Context, id int) (models.User, error) {
	query := `
		SELECT id, username, password_hash, role
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	query := `
		SELECT id, username, password_hash, role
		FROM users
		WHERE username = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, username))
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, username, password_hash, role FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ==========================
// Set Role
// ==========================
func (r *UserRepo) SetRole(ctx context.Context, id int, role models.Role) (models.User, error) {
	query := `
		UPDATE users SET role = $1
		WHERE id = $2
		RETURNING id, username, password_hash, role
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, string(role), id))
}

func (r *UserRepo) scanOne(row *sql.Row) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, err
	}
	return u, nil
}
