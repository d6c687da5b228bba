package bet

import "context"

type Repository interface {
	CreateBet(ctx context.Context, b *Bet) (*Bet, error)
	GetBetByID(ctx context.Context, id int) (*Bet, error)
	UpdateBet(ctx context.Context, b *Bet) error
	DeleteBet(ctx context.Context, id int) error
	AdvanceStatus(ctx context.Context, id int, from, to string) error
	MarkCompleted(ctx context.Context, id int) (bool, error)
	ListOpenPublicBets(ctx context.Context, limit, offset int) ([]Bet, error)
	ListUserBets(ctx context.Context, userID int) ([]Bet, error)
	ListBetsPastDeadline(ctx context.Context) ([]Bet, error)

	AddParticipant(ctx context.Context, betID, userID int, status string) (*Participant, error)
	GetParticipantByID(ctx context.Context, id int) (*Participant, error)
	GetParticipant(ctx context.Context, betID, userID int) (*Participant, error)
	IsAcceptedParticipant(ctx context.Context, betID, userID int) (bool, error)
	UpdateParticipantStatus(ctx context.Context, id int, from, to string) error
	RemoveParticipant(ctx context.Context, id int) error
	ListParticipants(ctx context.Context, betID int) ([]ParticipantWithUser, error)
	ListAcceptedUserIDs(ctx context.Context, betID int) ([]int, error)
	CountAccepted(ctx context.Context, betID int) (int, error)
	ExistingParticipantIDs(ctx context.Context, betID int, userIDs []int) ([]int, error)
	ListPendingInvitesForUser(ctx context.Context, userID int) ([]ParticipantWithBet, error)
	ListPendingForCreator(ctx context.Context, creatorID int) ([]ParticipantWithBet, error)
}
