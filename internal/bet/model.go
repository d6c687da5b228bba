package bet

import "time"

const (
	StatusOpen      = "open"
	StatusActive    = "active"
	StatusVoting    = "voting"
	StatusCompleted = "completed"
)

const (
	ParticipantPending  = "pending"
	ParticipantAccepted = "accepted"
	ParticipantDeclined = "declined"
)

const (
	PrivacyPublic  = "public"
	PrivacyLink    = "private"
	PrivacyFriends = "friends_only"
)

var statusOrder = map[string]int{
	StatusOpen:      0,
	StatusActive:    1,
	StatusVoting:    2,
	StatusCompleted: 3,
}

// CanTransition reports whether a bet may move from one status to another.
// Status only ever moves forward.
func CanTransition(from, to string) bool {
	fromOrder, ok := statusOrder[from]
	if !ok {
		return false
	}
	toOrder, ok := statusOrder[to]
	if !ok {
		return false
	}
	return toOrder > fromOrder
}

type Bet struct {
	ID          int       `db:"id" json:"id"`
	CreatorID   int       `db:"creator_id" json:"creator_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StakeAmount int64     `db:"stake_amount" json:"stake_amount"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	Status      string    `db:"status" json:"status"`
	IsPrivate   bool      `db:"is_private" json:"is_private"`
	InviteCode  *string   `db:"invite_code" json:"invite_code,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Privacy derives the admission mode from the stored columns: public bets
// take join requests, link bets take the invite code, friends-only bets
// take direct invitations.
func (b *Bet) Privacy() string {
	if !b.IsPrivate {
		return PrivacyPublic
	}
	if b.InviteCode != nil {
		return PrivacyLink
	}
	return PrivacyFriends
}

type Participant struct {
	ID        int       `db:"id" json:"id"`
	BetID     int       `db:"bet_id" json:"bet_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type ParticipantWithUser struct {
	Participant
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

type ParticipantWithBet struct {
	Participant
	BetTitle    string    `db:"bet_title" json:"bet_title"`
	StakeAmount int64     `db:"stake_amount" json:"stake_amount"`
	Deadline    time.Time `db:"deadline" json:"deadline"`
	CreatorID   int       `db:"creator_id" json:"creator_id"`
}

type BetWithParticipants struct {
	Bet
	Participants []ParticipantWithUser `json:"participants"`
	Pot          int64                 `json:"pot"`
}

type CreateBetRequest struct {
	Title       string    `json:"title" binding:"required" validate:"required,min=3,max=120"`
	Description string    `json:"description" validate:"max=2000"`
	StakeAmount int64     `json:"stake_amount" binding:"required" validate:"required,gte=1"`
	Deadline    time.Time `json:"deadline" binding:"required" validate:"required"`
	Privacy     string    `json:"privacy" validate:"omitempty,oneof=public private friends_only"`
	InviteeIDs  []int     `json:"invitee_ids"`
}

type UpdateBetRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=3,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StakeAmount *int64     `json:"stake_amount" validate:"omitempty,gte=1"`
	Deadline    *time.Time `json:"deadline"`
	Privacy     *string    `json:"privacy" validate:"omitempty,oneof=public private friends_only"`
}

type JoinViaLinkRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

type InviteFriendsRequest struct {
	UserIDs []int `json:"user_ids" binding:"required"`
}
