package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/soochol/flowmart/internal/flowmart"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	pool, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return &DB{Pool: pool}, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

var credentialColumns = []string{"id", "user_id", "site_name", "secret", "created_at", "updated_at"}

func TestUpsertCredential(t *testing.T) {
	d, mock := newMockDB(t)
	now := time.Now()
	c := &flowmart.SiteCredential{ID: "cred-1", UserID: "u1", SiteName: "chatbot", Secret: "sealed", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO site_credentials")).
		WithArgs("cred-1", "u1", "chatbot", "sealed", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := d.UpsertCredential(context.Background(), c); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	expectationsMet(t, mock)
}

func TestGetCredential(t *testing.T) {
	d, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM site_credentials WHERE user_id = $1 AND site_name = $2")).
		WithArgs("u1", "chatbot").
		WillReturnRows(sqlmock.NewRows(credentialColumns).AddRow("cred-1", "u1", "chatbot", "sealed", now, now))

	c, err := d.GetCredential(context.Background(), "u1", "chatbot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.ID != "cred-1" || c.Secret != "sealed" {
		t.Errorf("unexpected credential %+v", c)
	}
	expectationsMet(t, mock)
}

func TestGetCredential_NotFound(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM site_credentials")).
		WithArgs("u1", "missing").
		WillReturnRows(sqlmock.NewRows(credentialColumns))

	if _, err := d.GetCredential(context.Background(), "u1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCredential_QueryError(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM site_credentials")).
		WithArgs("u1", "chatbot").
		WillReturnError(errors.New("connection reset"))

	_, err := d.GetCredential(context.Background(), "u1", "chatbot")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a query error distinct from ErrNotFound, got %v", err)
	}
}

func TestListCredentials(t *testing.T) {
	d, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM site_credentials WHERE user_id = $1 ORDER BY site_name")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(credentialColumns).
			AddRow("cred-1", "u1", "a", "s1", now, now).
			AddRow("cred-2", "u1", "b", "s2", now, now))

	list, err := d.ListCredentials(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(list))
	}
	if list[1].SiteName != "b" {
		t.Errorf("expected second site b, got %q", list[1].SiteName)
	}
}

func TestDeleteCredential(t *testing.T) {
	d, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM site_credentials")).
		WithArgs("u1", "chatbot").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := d.DeleteCredential(context.Background(), "u1", "chatbot"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM site_credentials")).
		WithArgs("u1", "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := d.DeleteCredential(context.Background(), "u1", "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrate(t *testing.T) {
	d, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS site_credentials")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
