package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avidalm/iptvgate/internal/common"
	"github.com/avidalm/iptvgate/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var accountRowColumns = []string{
	"id", "email", "password_hash",
	"provider_url", "provider_username", "provider_password",
	"created_at", "updated_at",
}

func accountRow(a *models.Account) *sqlmock.Rows {
	return sqlmock.NewRows(accountRowColumns).AddRow(
		a.ID, a.Email, a.PasswordHash,
		a.ProviderURL, a.ProviderUsername, a.ProviderPassword,
		a.CreatedAt, a.UpdatedAt,
	)
}

func sampleAccount() *models.Account {
	now := time.Now()
	return &models.Account{
		ID:           "acct-1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		ProviderURL:  "aaaa:bbbb",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

const insertQuery = `(?s)^INSERT\s+INTO\s+accounts\s*\(id,\s*email,\s*password_hash,\s*provider_url,\s*provider_username,\s*provider_password\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	mock.ExpectQuery(insertQuery).
		WithArgs(a.ID, a.Email, a.PasswordHash, a.ProviderURL, a.ProviderUsername, a.ProviderPassword).
		WillReturnRows(accountRow(a))

	got, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "acct-1" || got.Email != "alice@example.com" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	mock.ExpectQuery(insertQuery).
		WithArgs(a.ID, a.Email, a.PasswordHash, a.ProviderURL, a.ProviderUsername, a.ProviderPassword).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.Create(context.Background(), a)
	if !errors.Is(err, common.ErrDuplicateIdentity) {
		t.Fatalf("expected common.ErrDuplicateIdentity, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	mock.ExpectQuery(insertQuery).
		WithArgs(a.ID, a.Email, a.PasswordHash, a.ProviderURL, a.ProviderUsername, a.ProviderPassword).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), a)
	if err == nil || errors.Is(err, common.ErrDuplicateIdentity) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	q := `(?s)^SELECT\s+.+\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs(a.Email).WillReturnRows(accountRow(a))

	got, err := repo.GetByEmail(context.Background(), a.Email)
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != a.ID || got.ProviderURL != a.ProviderURL {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+accounts\s+WHERE\s+email\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("missing@example.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}

func TestUpdateCredentials_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	a.ProviderURL = "cccc:dddd"
	a.ProviderUsername = "eeee:ffff"
	a.ProviderPassword = "1111:2222"

	q := `(?s)^UPDATE\s+accounts\s+SET\s+provider_url\s*=\s*\$2,\s*provider_username\s*=\s*\$3,\s*provider_password\s*=\s*\$4,\s*updated_at\s*=\s*now\(\)\s*WHERE\s+id\s*=\s*\$1`
	mock.ExpectQuery(q).
		WithArgs(a.ID, a.ProviderURL, a.ProviderUsername, a.ProviderPassword).
		WillReturnRows(accountRow(a))

	got, err := repo.UpdateCredentials(context.Background(), a.ID, a.ProviderURL, a.ProviderUsername, a.ProviderPassword)
	if err != nil {
		t.Fatalf("UpdateCredentials error: %v", err)
	}
	if got.ProviderUsername != "eeee:ffff" {
		t.Fatalf("credentials not updated: %+v", got)
	}
}

func TestUpdateCredentials_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+accounts\s+SET\s+`
	mock.ExpectQuery(q).
		WithArgs("missing", "a", "b", "c").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateCredentials(context.Background(), "missing", "a", "b", "c")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}

func TestUpsert_RefreshesExistingRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	q := `(?s)^INSERT\s+INTO\s+accounts\s+.+ON\s+CONFLICT\s+\(email\)\s+DO\s+UPDATE`
	mock.ExpectQuery(q).
		WithArgs(a.ID, a.Email, a.PasswordHash, a.ProviderURL, a.ProviderUsername, a.ProviderPassword).
		WillReturnRows(accountRow(a))

	got, err := repo.Upsert(context.Background(), a)
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if got.Email != a.Email {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectExec(q).WithArgs("acct-1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "acct-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectExec(q).WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected common.ErrNotFound, got %v", err)
	}
}
