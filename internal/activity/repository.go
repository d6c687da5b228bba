package activity

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, a *Activity) error {
	metadata := a.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activities (user_id, activity_type, message, related_bet_id, related_user_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.UserID, a.ActivityType, a.Message, a.RelatedBetID, a.RelatedUserID, []byte(metadata))
	return err
}

func (r *repository) ListForUser(ctx context.Context, userID, limit, offset int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	var activities []Activity
	err := r.db.SelectContext(ctx, &activities, `
		SELECT id, user_id, activity_type, message, related_bet_id, related_user_id, metadata, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return activities, nil
}

// HasSettlement reports whether a win or tie entry already exists for the
// bet. Used as the secondary guard against double payout.
func (r *repository) HasSettlement(ctx context.Context, betID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM activities
			WHERE related_bet_id = $1 AND activity_type IN ('bet_won', 'bet_tied')
		)
	`, betID)
	if err != nil {
		return false, err
	}
	return exists, nil
}
