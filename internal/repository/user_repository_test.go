package repository

import (
	"errors"
	"testing"
	"time"

	"actc_portal_go/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open() error: %v", err)
	}
	return gdb, mock
}

func newMockUserRepo(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	gdb, mock := newMockDB(t)
	return NewUserRepository(gdb), mock
}

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "password", "role", "is_active", "is_first_login",
		"email", "full_name", "last_login", "created_at", "updated_at",
	}).AddRow(1, "alice", "hashed", "admin", true, false, "a@example.com", "Alice", nil, now, now)
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	u := &model.User{Username: "alice", Password: "hashed", Role: model.RoleUser}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.Create(u); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_Create_Nil(t *testing.T) {
	repo, _ := newMockUserRepo(t)

	if err := repo.Create(nil); err == nil {
		t.Fatal("expected error for nil user, got nil")
	}
}

func TestUserRepository_FindByUsername(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectQuery("SELECT .* FROM `users` WHERE username = \\? ORDER BY .* LIMIT \\?").
		WithArgs("alice", 1).
		WillReturnRows(userRows())

	u, err := repo.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername() error: %v", err)
	}
	if u == nil || u.Username != "alice" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_FindByUsername_NotFound(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectQuery("SELECT .* FROM `users` WHERE username = \\? ORDER BY .* LIMIT \\?").
		WithArgs("missing", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	u, err := repo.FindByUsername("missing")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil user, got: %+v", u)
	}
}

func TestUserRepository_FindAll(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectQuery("SELECT .* FROM `users` ORDER BY created_at DESC").
		WillReturnRows(userRows())

	users, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll() error: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}

// MySQL 对值未变化的 UPDATE 报告 0 行受影响，这不是记录不存在。
func TestUserRepository_UpdateProfile_NoopUpdate(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	u := &model.User{ID: 99, Username: "alice", Role: model.RoleAdmin}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET .* WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.UpdateProfile(u); err != nil {
		t.Fatalf("expected nil for a value-unchanged update, got: %v", err)
	}
}

func TestUserRepository_UpdateProfile_ZeroID(t *testing.T) {
	repo, _ := newMockUserRepo(t)

	if err := repo.UpdateProfile(&model.User{Username: "alice"}); err == nil {
		t.Fatal("expected error for zero ID, got nil")
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET .* WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.UpdatePassword(1, "newhash", true); err != nil {
		t.Fatalf("UpdatePassword() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepository_SetActive_NotFound(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET .* WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.SetActive(42, false)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got: %v", err)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `users` WHERE `users`.`id` = \\?").
		WithArgs(uint(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(1); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
}

func TestUserRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newMockUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `users` WHERE `users`.`id` = \\?").
		WithArgs(uint(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(99)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got: %v", err)
	}
}
