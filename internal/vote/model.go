package vote

import "time"

type Vote struct {
	ID             int        `db:"id" json:"id"`
	BetID          int        `db:"bet_id" json:"bet_id"`
	VoterID        int        `db:"voter_id" json:"voter_id"`
	VotedForUserID int        `db:"voted_for_user_id" json:"voted_for_user_id"`
	ConfirmedAt    *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

func (v *Vote) Confirmed() bool {
	return v.ConfirmedAt != nil
}

type CastVoteRequest struct {
	VotedForUserID int `json:"voted_for_user_id" binding:"required"`
}

type Status struct {
	BetID          int    `json:"bet_id"`
	Participants   int    `json:"participants"`
	VotesCast      int    `json:"votes_cast"`
	VotesConfirmed int    `json:"votes_confirmed"`
	Votes          []Vote `json:"votes"`
}
