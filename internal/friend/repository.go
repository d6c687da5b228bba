package friend

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrRequestNotFound = errors.New("friend request not found")
	ErrRequestExists   = errors.New("a request between these users already exists")
	ErrNotPending      = errors.New("friend request is not pending")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, requesterID, addresseeID int) (*Friendship, error) {
	query := `
		INSERT INTO friendships (requester_id, addressee_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, requester_id, addressee_id, status, created_at, updated_at
	`

	var f Friendship
	err := r.db.GetContext(ctx, &f, query, requesterID, addresseeID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrRequestExists
		}
		return nil, err
	}

	return &f, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Friendship, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friendships
		WHERE id = $1
	`

	var f Friendship
	err := r.db.GetContext(ctx, &f, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	return &f, nil
}

// GetBetween finds the single row for a pair regardless of who asked.
func (r *repository) GetBetween(ctx context.Context, userA, userB int) (*Friendship, error) {
	query := `
		SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)
	`

	var f Friendship
	err := r.db.GetContext(ctx, &f, query, userA, userB)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// UpdateStatus moves a friendship with a conditional update so a request
// cannot be accepted twice or flip after a decline landed first.
func (r *repository) UpdateStatus(ctx context.Context, id int, from, to string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE friendships SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotPending
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRequestNotFound
	}

	return nil
}

func (r *repository) ListIncoming(ctx context.Context, userID int) ([]RequestWithUser, error) {
	var requests []RequestWithUser
	err := r.db.SelectContext(ctx, &requests, `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
		       u.name AS requester_name, u.email AS requester_email
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.addressee_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *repository) ListFriends(ctx context.Context, userID int) ([]Friend, error) {
	var friends []Friend
	err := r.db.SelectContext(ctx, &friends, `
		SELECT u.id AS user_id, u.name, u.email, f.updated_at AS since
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = 'accepted'
		ORDER BY u.name ASC
	`, userID)
	if err != nil {
		return nil, err
	}

	return friends, nil
}

func (r *repository) AreFriends(ctx context.Context, userA, userB int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE ((requester_id = $1 AND addressee_id = $2)
			    OR (requester_id = $2 AND addressee_id = $1))
			  AND status = 'accepted'
		)
	`, userA, userB)
	if err != nil {
		return false, err
	}
	return exists, nil
}
