package bet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrBetNotFound        = errors.New("bet not found")
	ErrBetNotOpen         = errors.New("bet is not open")
	ErrNotCreator         = errors.New("only the bet creator can do this")
	ErrAlreadyParticipant = errors.New("user is already a participant")
	ErrNotAParticipant    = errors.New("user is not an accepted participant")
	ErrInvalidInviteCode  = errors.New("invalid invite code")
	ErrRequestAlreadySent = errors.New("join request already sent")
	ErrNoPendingRequest   = errors.New("no pending request found")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBet(ctx context.Context, b *Bet) (*Bet, error) {
	query := `
		INSERT INTO bets (creator_id, title, description, stake_amount, deadline, status, is_private, invite_code)
		VALUES ($1, $2, $3, $4, $5, 'open', $6, $7)
		RETURNING id, creator_id, title, description, stake_amount, deadline, status, is_private, invite_code, created_at, updated_at
	`

	var created Bet
	err := r.db.GetContext(ctx, &created, query,
		b.CreatorID, b.Title, b.Description, b.StakeAmount, b.Deadline, b.IsPrivate, b.InviteCode)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetBetByID(ctx context.Context, id int) (*Bet, error) {
	query := `
		SELECT id, creator_id, title, description, stake_amount, deadline, status, is_private, invite_code, created_at, updated_at
		FROM bets
		WHERE id = $1
	`

	var b Bet
	err := r.db.GetContext(ctx, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBetNotFound
		}
		return nil, err
	}

	return &b, nil
}

// UpdateBet rewrites the editable columns. The status condition keeps edits
// from landing on a bet that moved on concurrently.
func (r *repository) UpdateBet(ctx context.Context, b *Bet) error {
	query := `
		UPDATE bets
		SET title = $2, description = $3, stake_amount = $4, deadline = $5, is_private = $6, invite_code = $7, updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	result, err := r.db.ExecContext(ctx, query,
		b.ID, b.Title, b.Description, b.StakeAmount, b.Deadline, b.IsPrivate, b.InviteCode)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBetNotOpen
	}

	return nil
}

func (r *repository) DeleteBet(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bets WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBetNotFound
	}

	return nil
}

// AdvanceStatus moves the bet forward with a conditional update so that two
// racing callers cannot both apply a transition.
func (r *repository) AdvanceStatus(ctx context.Context, id int, from, to string) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE bets SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrInvalidTransition
	}

	return nil
}

// MarkCompleted is the settlement gate. Exactly one caller ever sees a
// non-zero row count; everyone else reports zero rows to the caller.
func (r *repository) MarkCompleted(ctx context.Context, id int) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bets SET status = 'completed', updated_at = NOW() WHERE id = $1 AND status <> 'completed'`,
		id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *repository) ListOpenPublicBets(ctx context.Context, limit, offset int) ([]Bet, error) {
	if limit <= 0 {
		limit = 50
	}

	var bets []Bet
	err := r.db.SelectContext(ctx, &bets, `
		SELECT id, creator_id, title, description, stake_amount, deadline, status, is_private, invite_code, created_at, updated_at
		FROM bets
		WHERE status = 'open' AND is_private = FALSE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}

	return bets, nil
}

func (r *repository) ListUserBets(ctx context.Context, userID int) ([]Bet, error) {
	var bets []Bet
	err := r.db.SelectContext(ctx, &bets, `
		SELECT b.id, b.creator_id, b.title, b.description, b.stake_amount, b.deadline, b.status, b.is_private, b.invite_code, b.created_at, b.updated_at
		FROM bets b
		JOIN bet_participants p ON p.bet_id = b.id
		WHERE p.user_id = $1 AND p.status = 'accepted'
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	return bets, nil
}

func (r *repository) ListBetsPastDeadline(ctx context.Context) ([]Bet, error) {
	var bets []Bet
	err := r.db.SelectContext(ctx, &bets, `
		SELECT id, creator_id, title, description, stake_amount, deadline, status, is_private, invite_code, created_at, updated_at
		FROM bets
		WHERE status <> 'completed' AND deadline < NOW()
		ORDER BY deadline ASC
	`)
	if err != nil {
		return nil, err
	}

	return bets, nil
}

func (r *repository) AddParticipant(ctx context.Context, betID, userID int, status string) (*Participant, error) {
	query := `
		INSERT INTO bet_participants (bet_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, bet_id, user_id, status, created_at, updated_at
	`

	var p Participant
	err := r.db.GetContext(ctx, &p, query, betID, userID, status)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyParticipant
		}
		return nil, err
	}

	return &p, nil
}

func (r *repository) GetParticipantByID(ctx context.Context, id int) (*Participant, error) {
	query := `
		SELECT id, bet_id, user_id, status, created_at, updated_at
		FROM bet_participants
		WHERE id = $1
	`

	var p Participant
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoPendingRequest
		}
		return nil, err
	}

	return &p, nil
}

func (r *repository) GetParticipant(ctx context.Context, betID, userID int) (*Participant, error) {
	query := `
		SELECT id, bet_id, user_id, status, created_at, updated_at
		FROM bet_participants
		WHERE bet_id = $1 AND user_id = $2
	`

	var p Participant
	err := r.db.GetContext(ctx, &p, query, betID, userID)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) IsAcceptedParticipant(ctx context.Context, betID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM bet_participants
			WHERE bet_id = $1 AND user_id = $2 AND status = 'accepted'
		)
	`, betID, userID)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateParticipantStatus flips a row conditionally. Zero rows means the
// row is gone or someone else already flipped it.
func (r *repository) UpdateParticipantStatus(ctx context.Context, id int, from, to string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bet_participants SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNoPendingRequest
	}

	return nil
}

func (r *repository) RemoveParticipant(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bet_participants WHERE id = $1`, id)
	return err
}

func (r *repository) ListParticipants(ctx context.Context, betID int) ([]ParticipantWithUser, error) {
	var participants []ParticipantWithUser
	err := r.db.SelectContext(ctx, &participants, `
		SELECT p.id, p.bet_id, p.user_id, p.status, p.created_at, p.updated_at,
		       u.name AS user_name, u.email AS user_email
		FROM bet_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.bet_id = $1
		ORDER BY p.created_at ASC
	`, betID)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *repository) ListAcceptedUserIDs(ctx context.Context, betID int) ([]int, error) {
	var userIDs []int
	err := r.db.SelectContext(ctx, &userIDs, `
		SELECT user_id FROM bet_participants
		WHERE bet_id = $1 AND status = 'accepted'
		ORDER BY user_id
	`, betID)
	if err != nil {
		return nil, err
	}

	return userIDs, nil
}

func (r *repository) CountAccepted(ctx context.Context, betID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM bet_participants
		WHERE bet_id = $1 AND status = 'accepted'
	`, betID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ExistingParticipantIDs filters a candidate invitee list down to users who
// already have a row for the bet, in any status.
func (r *repository) ExistingParticipantIDs(ctx context.Context, betID int, userIDs []int) ([]int, error) {
	var existing []int
	err := r.db.SelectContext(ctx, &existing, `
		SELECT user_id FROM bet_participants
		WHERE bet_id = $1 AND user_id = ANY($2)
	`, betID, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}

	return existing, nil
}

func (r *repository) ListPendingInvitesForUser(ctx context.Context, userID int) ([]ParticipantWithBet, error) {
	var invites []ParticipantWithBet
	err := r.db.SelectContext(ctx, &invites, `
		SELECT p.id, p.bet_id, p.user_id, p.status, p.created_at, p.updated_at,
		       b.title AS bet_title, b.stake_amount, b.deadline, b.creator_id
		FROM bet_participants p
		JOIN bets b ON b.id = p.bet_id
		WHERE p.user_id = $1 AND p.status = 'pending' AND b.creator_id <> $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	return invites, nil
}

func (r *repository) ListPendingForCreator(ctx context.Context, creatorID int) ([]ParticipantWithBet, error) {
	var requests []ParticipantWithBet
	err := r.db.SelectContext(ctx, &requests, `
		SELECT p.id, p.bet_id, p.user_id, p.status, p.created_at, p.updated_at,
		       b.title AS bet_title, b.stake_amount, b.deadline, b.creator_id
		FROM bet_participants p
		JOIN bets b ON b.id = p.bet_id
		WHERE b.creator_id = $1 AND p.status = 'pending' AND b.is_private = FALSE
		ORDER BY p.created_at DESC
	`, creatorID)
	if err != nil {
		return nil, err
	}

	return requests, nil
}
