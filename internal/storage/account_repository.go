package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nucleo/portfolio-tracker/internal/models"
)

// AccountRepository handles linked Stellar account persistence
type AccountRepository struct {
	db *PostgresDB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *PostgresDB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create links a new Stellar address to a profile
func (r *AccountRepository) Create(ctx context.Context, account *models.StellarAccount) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	account.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO stellar_accounts (id, public_key, profile_id, name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		account.ID,
		account.PublicKey,
		account.ProfileID,
		account.Name,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// ListByProfile returns the accounts linked to one profile
func (r *AccountRepository) ListByProfile(ctx context.Context, profileID string) ([]*models.StellarAccount, error) {
	query := `
		SELECT id, public_key, profile_id, name, created_at
		FROM stellar_accounts
		WHERE profile_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Pool().Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.StellarAccount
	for rows.Next() {
		var account models.StellarAccount
		if err := rows.Scan(
			&account.ID,
			&account.PublicKey,
			&account.ProfileID,
			&account.Name,
			&account.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// DeleteByPublicKey removes a linked account. The collector calls this when
// Horizon reports the address no longer exists on the network.
func (r *AccountRepository) DeleteByPublicKey(ctx context.Context, publicKey string) error {
	query := `DELETE FROM stellar_accounts WHERE public_key = $1`

	result, err := r.db.Pool().Exec(ctx, query, publicKey)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", publicKey)
	}

	return nil
}
