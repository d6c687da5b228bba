package vote

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNoVoteToConfirm  = errors.New("no vote to confirm")
	ErrAlreadyConfirmed = errors.New("vote already confirmed")
	ErrSettlementRace   = errors.New("bet was settled by a concurrent caller")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Upsert writes or rewrites the voter's vote. A confirmed vote is frozen:
// the conflict update is conditional on confirmed_at being unset and zero
// affected rows surface as ErrAlreadyConfirmed.
func (r *repository) Upsert(ctx context.Context, betID, voterID, targetID int) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO votes (bet_id, voter_id, voted_for_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (bet_id, voter_id)
		DO UPDATE SET voted_for_user_id = EXCLUDED.voted_for_user_id, updated_at = NOW()
		WHERE votes.confirmed_at IS NULL
	`, betID, voterID, targetID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAlreadyConfirmed
	}

	return nil
}

func (r *repository) GetVote(ctx context.Context, betID, voterID int) (*Vote, error) {
	query := `
		SELECT id, bet_id, voter_id, voted_for_user_id, confirmed_at, created_at, updated_at
		FROM votes
		WHERE bet_id = $1 AND voter_id = $2
	`

	var v Vote
	err := r.db.GetContext(ctx, &v, query, betID, voterID)
	if err != nil {
		return nil, err
	}

	return &v, nil
}

// DeleteUnconfirmed removes the voter's vote unless it is confirmed.
// Deleting a vote that does not exist is not an error.
func (r *repository) DeleteUnconfirmed(ctx context.Context, betID, voterID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM votes WHERE bet_id = $1 AND voter_id = $2 AND confirmed_at IS NULL`,
		betID, voterID)
	return err
}

func (r *repository) ListVotes(ctx context.Context, betID int) ([]Vote, error) {
	var votes []Vote
	err := r.db.SelectContext(ctx, &votes, `
		SELECT id, bet_id, voter_id, voted_for_user_id, confirmed_at, created_at, updated_at
		FROM votes
		WHERE bet_id = $1
		ORDER BY created_at ASC
	`, betID)
	if err != nil {
		return nil, err
	}

	return votes, nil
}

// Confirm stamps the voter's vote. Confirmation is one way; zero affected
// rows means the vote is missing or already confirmed and the caller
// distinguishes the two.
func (r *repository) Confirm(ctx context.Context, betID, voterID int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE votes SET confirmed_at = NOW(), updated_at = NOW()
		 WHERE bet_id = $1 AND voter_id = $2 AND confirmed_at IS NULL`,
		betID, voterID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ConfirmAll stamps every outstanding vote on the bet. Used when the
// deadline has passed and confirmations are implied.
func (r *repository) ConfirmAll(ctx context.Context, betID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE votes SET confirmed_at = NOW(), updated_at = NOW()
		 WHERE bet_id = $1 AND confirmed_at IS NULL`,
		betID)
	return err
}

// ListSettleCandidates finds unsettled bets whose vote set is complete and
// fully confirmed. The sweep uses it to finish settlements that a crash
// interrupted between the final confirmation and the payout.
func (r *repository) ListSettleCandidates(ctx context.Context) ([]int, error) {
	var betIDs []int
	err := r.db.SelectContext(ctx, &betIDs, `
		SELECT b.id
		FROM bets b
		WHERE b.status <> 'completed'
		  AND (SELECT COUNT(*) FROM bet_participants p
		       WHERE p.bet_id = b.id AND p.status = 'accepted') > 0
		  AND (SELECT COUNT(*) FROM votes v WHERE v.bet_id = b.id) =
		      (SELECT COUNT(*) FROM bet_participants p
		       WHERE p.bet_id = b.id AND p.status = 'accepted')
		  AND NOT EXISTS (SELECT 1 FROM votes v
		                  WHERE v.bet_id = b.id AND v.confirmed_at IS NULL)
	`)
	if err != nil {
		return nil, err
	}

	return betIDs, nil
}
