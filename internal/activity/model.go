package activity

import (
	"encoding/json"
	"time"
)

const (
	TypeBetCreated            = "bet_created"
	TypeBetJoined             = "bet_joined"
	TypeBetInvited            = "bet_invited"
	TypeBetInvitationAccepted = "bet_invitation_accepted"
	TypeBetInvitationDeclined = "bet_invitation_declined"
	TypeJoinRequestSent       = "join_request_sent"
	TypeJoinRequestAccepted   = "join_request_accepted"
	TypeJoinRequestDeclined   = "join_request_declined"
	TypeBetWon                = "bet_won"
	TypeBetTied               = "bet_tied"
	TypeBetDeleted            = "bet_deleted"
	TypeFriendRequestSent     = "friend_request_sent"
	TypeFriendRequestAccepted = "friend_request_accepted"
)

// Activity is an append-only feed entry. RelatedBetID is a plain value
// without a foreign key: entries outlive the bets they reference.
type Activity struct {
	ID            int             `db:"id" json:"id"`
	UserID        int             `db:"user_id" json:"user_id"`
	ActivityType  string          `db:"activity_type" json:"activity_type"`
	Message       string          `db:"message" json:"message"`
	RelatedBetID  *int            `db:"related_bet_id" json:"related_bet_id,omitempty"`
	RelatedUserID *int            `db:"related_user_id" json:"related_user_id,omitempty"`
	Metadata      json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
