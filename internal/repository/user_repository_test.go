package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`(?s)^INSERT INTO users \(username, password_hash, role, created_at\) VALUES \(\?,\?,\?,\?\)$`).
		WithArgs("amina", "$2a$hash", "user", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	u, err := repo.Create(context.Background(), " amina ", "$2a$hash", "user")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u.ID)
	assert.Equal(t, "amina", u.Username)
	assert.Equal(t, "user", u.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'amina' for key 'username'"})

	_, err := repo.Create(context.Background(), "amina", "h", "user")
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUserRepo_Create_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "amina", "h", "user")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameExists)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`(?s)^SELECT id,username,password_hash,role,created_at FROM users WHERE username=\? LIMIT 1$`).
		WithArgs("amina").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
			AddRow(7, "amina", "$2a$hash", "admin", created))

	u, err := repo.GetByUsername(context.Background(), "amina")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	assert.Equal(t, created, u.CreatedAt)
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT .* FROM users WHERE username=\?`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_GetByUsername_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(`SELECT .* FROM users WHERE username=\?`).
		WillReturnError(errors.New("db err"))

	_, err := repo.GetByUsername(context.Background(), "amina")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_ListAll(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id,username,password_hash,role,created_at FROM users ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at"}).
			AddRow(1, "root", "h1", "admin", now).
			AddRow(2, "amina", "h2", "user", now))

	users, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "root", users[0].Username)
	assert.Equal(t, "user", users[1].Role)
}
