package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avidalm/iptvgate/internal/common"
	"github.com/avidalm/iptvgate/internal/dbx"
	"github.com/avidalm/iptvgate/internal/server/models"
)

const uniqueViolationCode = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, email, password_hash, provider_url, provider_username, provider_password, created_at, updated_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash,
		&a.ProviderURL, &a.ProviderUsername, &a.ProviderPassword,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, email, password_hash, provider_url, provider_username, provider_password)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + accountColumns

	row := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.PasswordHash,
		account.ProviderURL, account.ProviderUsername, account.ProviderPassword)

	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + ` FROM accounts
		 WHERE email = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) UpdateCredentials(ctx context.Context, id string, providerURL, providerUsername, providerPassword string) (*models.Account, error) {
	query :=
		`UPDATE accounts
		 SET provider_url = $2, provider_username = $3, provider_password = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + accountColumns

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id, providerURL, providerUsername, providerPassword))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, email, password_hash, provider_url, provider_username, provider_password)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (email) DO UPDATE
		 SET provider_url = EXCLUDED.provider_url,
		     provider_username = EXCLUDED.provider_username,
		     provider_password = EXCLUDED.provider_password,
		     updated_at = now()
		 RETURNING ` + accountColumns

	row := r.db.QueryRowContext(ctx, query,
		account.ID, account.Email, account.PasswordHash,
		account.ProviderURL, account.ProviderUsername, account.ProviderPassword)

	saved, err := scanAccount(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}
