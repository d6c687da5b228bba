package points

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds = errors.New("insufficient points balance")
	ErrUserNotFound      = errors.New("user not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Deduct debits amount from the user's balance and records a ledger entry,
// both inside one transaction. The conditional UPDATE is the only guard
// against overdraft: concurrent deducts race on the same row and the loser
// either sees the reduced balance or gets ErrInsufficientFunds.
func (r *repository) Deduct(ctx context.Context, userID int, amount int64, txType string, betID *int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balanceAfter int64
	err = tx.QueryRowxContext(ctx,
		`UPDATE users
		 SET points = points - $2
		 WHERE id = $1 AND points >= $2
		 RETURNING points`,
		userID, amount,
	).Scan(&balanceAfter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID); err != nil {
				return err
			}
			if !exists {
				return ErrUserNotFound
			}
			return ErrInsufficientFunds
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO points_transactions (user_id, amount, tx_type, balance_after, related_bet_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, -amount, txType, balanceAfter, betID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Add credits amount to the user's balance and records a ledger entry.
func (r *repository) Add(ctx context.Context, userID int, amount int64, txType string, betID *int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balanceAfter int64
	err = tx.QueryRowxContext(ctx,
		`UPDATE users
		 SET points = points + $2
		 WHERE id = $1
		 RETURNING points`,
		userID, amount,
	).Scan(&balanceAfter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO points_transactions (user_id, amount, tx_type, balance_after, related_bet_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, amount, txType, balanceAfter, betID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// BulkRefund credits amountEach to every user independently. Failures are
// collected per user so the caller can log them for manual reconciliation.
func (r *repository) BulkRefund(ctx context.Context, userIDs []int, amountEach int64, betID *int) []RefundResult {
	results := make([]RefundResult, 0, len(userIDs))
	for _, userID := range userIDs {
		res := RefundResult{UserID: userID, Credited: true}
		if err := r.Add(ctx, userID, amountEach, TxTypeRefund, betID); err != nil {
			res.Credited = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

func (r *repository) Balance(ctx context.Context, userID int) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT points FROM users WHERE id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

// LockedPoints sums the stakes the user currently has tied up in
// unsettled bets.
func (r *repository) LockedPoints(ctx context.Context, userID int) (int64, error) {
	var locked int64
	err := r.db.GetContext(ctx, &locked, `
		SELECT COALESCE(SUM(b.stake_amount), 0)
		FROM bet_participants p
		JOIN bets b ON b.id = p.bet_id
		WHERE p.user_id = $1 AND p.status = 'accepted' AND b.status <> 'completed'
	`, userID)
	if err != nil {
		return 0, err
	}
	return locked, nil
}

// PotentialWin sums the full pot of every unsettled bet the user is in.
func (r *repository) PotentialWin(ctx context.Context, userID int) (int64, error) {
	var potential int64
	err := r.db.GetContext(ctx, &potential, `
		SELECT COALESCE(SUM(b.stake_amount * (
			SELECT COUNT(*) FROM bet_participants
			WHERE bet_id = b.id AND status = 'accepted'
		)), 0)
		FROM bet_participants p
		JOIN bets b ON b.id = p.bet_id
		WHERE p.user_id = $1 AND p.status = 'accepted' AND b.status <> 'completed'
	`, userID)
	if err != nil {
		return 0, err
	}
	return potential, nil
}

func (r *repository) GetTransactions(ctx context.Context, userID int, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var txs []Transaction
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, amount, tx_type, balance_after, related_bet_id, created_at
		FROM points_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
