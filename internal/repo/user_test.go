package repo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/crucial707/trade-tracker/internal/apperr"
	"github.com/crucial707/trade-tracker/internal/models"
)

func TestUserRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(username, password_hash, role\)`).
		WithArgs("alice", "hash", "foreman").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).AddRow(1, "alice", "hash", "foreman"))

	repo := NewUserRepo(db)
	user, err := repo.CreateUser(context.Background(), "alice", "hash", models.RoleForeman)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != 1 || user.Username != "alice" || user.Role != models.RoleForeman {
		t.Errorf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: constraintUsername})

	repo := NewUserRepo(db)
	_, err = repo.CreateUser(context.Background(), "alice", "hash", models.RoleTechnician)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserRepo_GetUser_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, role`).
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	_, err = repo.GetUser(context.Background(), 999)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found, got: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserRepo_GetUserByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, role`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).AddRow(2, "bob", "h", "superintendent"))

	repo := NewUserRepo(db)
	user, err := repo.GetUserByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user.ID != 2 || user.Role != models.RoleSuperintendent {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestUserRepo_ListUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, role FROM users ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).
			AddRow(1, "alice", "h1", "superintendent").
			AddRow(2, "bob", "h2", "technician"))

	repo := NewUserRepo(db)
	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[1].Username != "bob" || users[1].Role != models.RoleTechnician {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestUserRepo_SetRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET role = \$1`).
		WithArgs("foreman", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).AddRow(2, "bob", "h", "foreman"))
	mock.ExpectQuery(`UPDATE users SET role = \$1`).
		WithArgs("foreman", 99).
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepo(db)
	user, err := repo.SetRole(context.Background(), 2, models.RoleForeman)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if user.Role != models.RoleForeman {
		t.Errorf("role = %q", user.Role)
	}
	_, err = repo.SetRole(context.Background(), 99, models.RoleForeman)
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
