package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type WalletRepository interface {
	Fund(ctx context.Context, email string, amount int64, memo, senderName, senderEmail string) (int64, error)
	Balance(ctx context.Context, email string) (int64, error)
	Transactions(ctx context.Context, email string) ([]domain.WalletTransaction, error)
}

// SQLWalletRepository stores balances in wallets and every credit in
// wallet_transactions. Balances only grow through Fund.
type SQLWalletRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

func NewWalletRepository(db *sqlx.DB, logger *logrus.Logger) *SQLWalletRepository {
	return &SQLWalletRepository{db: db, logger: logger}
}

func (r *SQLWalletRepository) Fund(ctx context.Context, email string, amount int64, memo, senderName, senderEmail string) (int64, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return 0, errors.New("wallet email is required")
	}
	if amount < 0 {
		return 0, domain.ErrNegativeAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin wallet transaction: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowxContext(ctx, `INSERT INTO wallets (email, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (email) DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = now()
		RETURNING balance`, email, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to fund wallet: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO wallet_transactions (id, email, amount, memo, sender_name, sender_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.NewString(), email, amount, memo, senderName, senderEmail); err != nil {
		return 0, fmt.Errorf("failed to record wallet transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit wallet funding: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"email":   email,
		"amount":  amount,
		"balance": balance,
	}).Info("Wallet funded")
	return balance, nil
}

func (r *SQLWalletRepository) Balance(ctx context.Context, email string) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM wallets WHERE email=$1`, domain.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get wallet balance: %w", err)
	}
	return balance, nil
}

func (r *SQLWalletRepository) Transactions(ctx context.Context, email string) ([]domain.WalletTransaction, error) {
	txs := make([]domain.WalletTransaction, 0)
	err := r.db.SelectContext(ctx, &txs, `SELECT id, email, amount, memo, sender_name, sender_email, created_at
		FROM wallet_transactions WHERE email=$1 ORDER BY created_at DESC`, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	return txs, nil
}

var _ WalletRepository = (*SQLWalletRepository)(nil)
