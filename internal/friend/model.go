package friend

import "time"

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Friendship is a single row per pair of users. The requester/addressee
// direction records who asked; once accepted the relation is symmetric.
type Friendship struct {
	ID          int       `db:"id" json:"id"`
	RequesterID int       `db:"requester_id" json:"requester_id"`
	AddresseeID int       `db:"addressee_id" json:"addressee_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type RequestWithUser struct {
	Friendship
	RequesterName  string `db:"requester_name" json:"requester_name"`
	RequesterEmail string `db:"requester_email" json:"requester_email"`
}

// Friend is one entry of a user's friend list, resolved to the other
// side of an accepted friendship.
type Friend struct {
	UserID int       `db:"user_id" json:"user_id"`
	Name   string    `db:"name" json:"name"`
	Email  string    `db:"email" json:"email"`
	Since  time.Time `db:"since" json:"since"`
}

type SendRequestBody struct {
	UserID int `json:"user_id" binding:"required"`
}
