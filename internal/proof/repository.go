package proof

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

// Upsert keeps one proof per participant per bet; resubmitting replaces it.
func (r *repository) Upsert(ctx context.Context, betID, userID int, imageURL, caption string) (*Proof, error) {
	query := `
		INSERT INTO proofs (bet_id, user_id, image_url, caption)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bet_id, user_id)
		DO UPDATE SET image_url = EXCLUDED.image_url, caption = EXCLUDED.caption, updated_at = NOW()
		RETURNING id, bet_id, user_id, image_url, caption, created_at, updated_at
	`

	var p Proof
	err := r.db.GetContext(ctx, &p, query, betID, userID, imageURL, caption)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) ListForBet(ctx context.Context, betID int) ([]Proof, error) {
	var proofs []Proof
	err := r.db.SelectContext(ctx, &proofs, `
		SELECT id, bet_id, user_id, image_url, caption, created_at, updated_at
		FROM proofs
		WHERE bet_id = $1
		ORDER BY created_at ASC
	`, betID)
	if err != nil {
		return nil, err
	}

	return proofs, nil
}
