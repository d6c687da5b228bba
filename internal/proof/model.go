package proof

import "time"

// Proof is an informational record a participant attaches to back up the
// outcome they voted for. It carries no weight in settlement.
type Proof struct {
	ID        int       `db:"id" json:"id"`
	BetID     int       `db:"bet_id" json:"bet_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	Caption   string    `db:"caption" json:"caption"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type SubmitProofRequest struct {
	ImageURL string `json:"image_url" binding:"required"`
	Caption  string `json:"caption"`
}
